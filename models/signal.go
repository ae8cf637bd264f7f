package models

import (
	"time"

	"gorm.io/gorm"
)

// Setup types produced by the detector, in evaluation priority order
const (
	SetupVolumeSpike   = "VOLUME_SPIKE"
	SetupBottomTurn    = "BOTTOM_TURN"
	SetupTrendPullback = "TREND_PULLBACK"
	SetupMAReclaim     = "MA_RECLAIM"
	SetupNone          = "NONE"
)

// Confidence tiers
const (
	TierHigh   = "High"
	TierMedium = "Medium"
	TierLow    = "Low"
)

// Signal is the published recommendation for one segment (or the overall market)
type Signal struct {
	SignalFound     bool     `json:"signal_found"`
	Symbol          string   `json:"symbol,omitempty"`
	Segment         string   `json:"segment,omitempty"`
	Date            string   `json:"date"` // YYYY-MM-DD
	SetupType       string   `json:"setup_type,omitempty"`
	Tier            string   `json:"tier,omitempty"`
	Score           float64  `json:"score"`
	EntryPrice      float64  `json:"entry_price,omitempty"`
	StopLossPrice   float64  `json:"stop_loss_price,omitempty"`
	TargetPrice     float64  `json:"target_price,omitempty"`
	RiskRewardRatio *float64 `json:"risk_reward_ratio,omitempty"`
	ATR             float64  `json:"atr,omitempty"`
	LatestClose     float64  `json:"latest_close,omitempty"`

	// Long-run per-symbol performance, nil when no history exists
	HistStrengthScore *float64 `json:"hist_strength_score,omitempty"`
	HistWinRate       *float64 `json:"hist_win_rate,omitempty"`
	HistTotalTrades   *int     `json:"hist_total_trades,omitempty"`

	// Stale is set by revalidation, never by the scan itself
	Stale   bool   `json:"stale,omitempty"`
	Message string `json:"message,omitempty"`
}

// SignalDate parses the signal date. Returns the zero time when malformed.
func (s *Signal) SignalDate() time.Time {
	t, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ScanResult is one full scan: the winner per segment plus the overall best
type ScanResult struct {
	GeneratedAt string             `json:"generated_at"`
	Overall     *Signal            `json:"overall"`
	Segments    map[string]*Signal `json:"segments"`
}

// HistoricalPerformance is a long-run per-symbol stat row from the historical store
type HistoricalPerformance struct {
	Symbol        string  `json:"symbol"`
	WinRate       float64 `json:"hist_win_rate"`
	AvgPnL        float64 `json:"hist_avg_pnl"`
	StrengthScore float64 `json:"hist_strength_score"`
	TotalTrades   int     `json:"hist_total_trades"`
}

// SignalRecord archives an emitted signal in the relational store
type SignalRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Segment         string    `gorm:"index" json:"segment"`
	Symbol          string    `gorm:"index" json:"symbol"`
	SignalDate      string    `gorm:"index" json:"signal_date"`
	SignalFound     bool      `json:"signal_found"`
	SetupType       string    `json:"setup_type"`
	Tier            string    `json:"tier"`
	Score           float64   `json:"score"`
	EntryPrice      float64   `json:"entry_price"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TargetPrice     float64   `json:"target_price"`
	RiskRewardRatio *float64  `json:"risk_reward_ratio"`
	ATR             float64   `json:"atr"`
	LatestClose     float64   `json:"latest_close"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for SignalRecord
func (SignalRecord) TableName() string {
	return "signal_records"
}

// MigrateSignalModels runs migrations for signal archive models
func MigrateSignalModels(db *gorm.DB) error {
	return db.AutoMigrate(&SignalRecord{})
}
