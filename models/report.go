package models

import "github.com/shopspring/decimal"

// PartitionMetrics holds the performance numbers for one slice of closed trades
type PartitionMetrics struct {
	TotalTrades  int             `json:"total_trades"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinRate      decimal.Decimal `json:"win_rate"`     // percent
	TotalPnL     decimal.Decimal `json:"total_pnl"`    // percent, summed
	AvgWin       decimal.Decimal `json:"avg_win"`      // percent
	AvgLoss      decimal.Decimal `json:"avg_loss"`     // percent
	ProfitFactor decimal.Decimal `json:"profit_factor"`
}

// ContributingTrade is one closed trade listed in a monthly report
type ContributingTrade struct {
	TradeID     string          `json:"trade_id"`
	Symbol      string          `json:"symbol"`
	TradeType   string          `json:"trade_type"`
	ExitDate    string          `json:"exit_date"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
}

// MonthlyReport is the rollup of closed trades for one calendar month
type MonthlyReport struct {
	Year     int                 `json:"year"`
	Month    int                 `json:"month"`
	Combined PartitionMetrics    `json:"combined"`
	Tracked  PartitionMetrics    `json:"tracked_signals"`
	Manual   PartitionMetrics    `json:"manual_picks"`
	Trades   []ContributingTrade `json:"contributing_trades"`
	Note     string              `json:"note,omitempty"`
}
