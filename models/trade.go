package models

import "time"

// Trade lifecycle states
const (
	TradeStatusActive = "Active"
	TradeStatusClosed = "Closed"
)

// Trade provenance
const (
	TradeTypeTrackedSignal = "Tracked Signal"
	TradeTypeManualPick    = "Manual Historical Pick"
)

// Trade is one row of the flat trade ledger. Pointer fields are empty
// cells in the ledger until the corresponding lifecycle step fills them.
type Trade struct {
	TradeID          string   `json:"trade_id"`
	Symbol           string   `json:"symbol"`
	EntryDate        string   `json:"entry_date"` // YYYY-MM-DD
	EntryPrice       float64  `json:"entry_price"`
	StopLossPrice    float64  `json:"stop_loss_price"`
	TargetPrice      float64  `json:"target_price"`
	RiskRewardRatio  *float64 `json:"risk_reward_ratio"`
	ATRAtEntry       *float64 `json:"atr_at_entry"`
	TradeType        string   `json:"trade_type"`
	SourceSignalDate string   `json:"source_signal_date"`
	Status           string   `json:"status"`
	CurrentPrice     *float64 `json:"current_price"`
	UnrealizedPnL    *float64 `json:"unrealized_pnl"`
	ExitDate         string   `json:"exit_date"`
	ExitPrice        *float64 `json:"exit_price"`
	RealizedPnL      *float64 `json:"realized_pnl"`
	ExitReason       string   `json:"exit_reason"`
	HoldingPeriod    *int     `json:"holding_period"`
	Notes            string   `json:"notes"`
}

// IsActive reports whether the trade is still open
func (t *Trade) IsActive() bool {
	return t.Status == TradeStatusActive
}

// EntryTime parses the entry date. Returns the zero time when malformed.
func (t *Trade) EntryTime() time.Time {
	parsed, err := time.Parse("2006-01-02", t.EntryDate)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
