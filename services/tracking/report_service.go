package tracking

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"signalscan_backend/models"
)

// Reporter builds monthly performance rollups from the ledger
type Reporter struct {
	ledger *Ledger
}

// NewReporter creates a reporter over a ledger
func NewReporter(ledger *Ledger) *Reporter {
	return &Reporter{ledger: ledger}
}

// MonthlyReport aggregates the closed trades that exited inside the given
// month. An unreadable or empty ledger yields a zeroed report with a note
// rather than an error, since "no activity" is a valid monthly outcome.
func (r *Reporter) MonthlyReport(year int, month time.Month) *models.MonthlyReport {
	report := &models.MonthlyReport{Year: year, Month: int(month)}

	trades, err := r.ledger.ListTrades()
	if err != nil {
		log.Printf("Could not read ledger for %d-%02d report: %v", year, month, err)
		report.Note = "Trade ledger could not be read; no trades included"
		zeroMetrics(report)
		return report
	}

	var combined, tracked, manual []decimal.Decimal
	for _, t := range trades {
		if t.Status != models.TradeStatusClosed {
			continue
		}
		exit, err := time.Parse("2006-01-02", t.ExitDate)
		if err != nil || exit.Year() != year || exit.Month() != month {
			continue
		}
		// Closed rows without a usable realized result are dropped from
		// the numbers but never fail the report
		if t.RealizedPnL == nil {
			log.Printf("Dropping trade %s from %d-%02d report: no realized result", t.TradeID, year, month)
			continue
		}

		pnl := decimal.NewFromFloat(*t.RealizedPnL)
		combined = append(combined, pnl)
		switch t.TradeType {
		case models.TradeTypeTrackedSignal:
			tracked = append(tracked, pnl)
		case models.TradeTypeManualPick:
			manual = append(manual, pnl)
		}

		report.Trades = append(report.Trades, models.ContributingTrade{
			TradeID:     t.TradeID,
			Symbol:      t.Symbol,
			TradeType:   t.TradeType,
			ExitDate:    t.ExitDate,
			RealizedPnL: pnl,
		})
	}

	report.Combined = computeMetrics(combined)
	report.Tracked = computeMetrics(tracked)
	report.Manual = computeMetrics(manual)

	if len(combined) == 0 {
		report.Note = fmt.Sprintf("No closed trades in %d-%02d", year, int(month))
	}
	return report
}

// computeMetrics derives the partition numbers. Breakeven exits count as
// losses, so wins and losses always sum to the partition total.
func computeMetrics(pnls []decimal.Decimal) models.PartitionMetrics {
	m := models.PartitionMetrics{
		WinRate:      decimal.Zero,
		TotalPnL:     decimal.Zero,
		AvgWin:       decimal.Zero,
		AvgLoss:      decimal.Zero,
		ProfitFactor: decimal.Zero,
	}
	if len(pnls) == 0 {
		return m
	}

	var sumWin, sumLoss decimal.Decimal
	for _, pnl := range pnls {
		m.TotalPnL = m.TotalPnL.Add(pnl)
		if pnl.IsPositive() {
			m.Wins++
			sumWin = sumWin.Add(pnl)
		} else {
			m.Losses++
			sumLoss = sumLoss.Add(pnl)
		}
	}

	m.TotalTrades = len(pnls)
	total := decimal.NewFromInt(int64(m.TotalTrades))
	m.WinRate = decimal.NewFromInt(int64(m.Wins)).Div(total).Mul(decimal.NewFromInt(100))

	if m.Wins > 0 {
		m.AvgWin = sumWin.Div(decimal.NewFromInt(int64(m.Wins)))
	}
	if m.Losses > 0 {
		m.AvgLoss = sumLoss.Div(decimal.NewFromInt(int64(m.Losses)))
	}

	absLoss := sumLoss.Abs()
	if absLoss.IsPositive() {
		m.ProfitFactor = sumWin.Div(absLoss)
	}
	return m
}

func zeroMetrics(report *models.MonthlyReport) {
	report.Combined = computeMetrics(nil)
	report.Tracked = computeMetrics(nil)
	report.Manual = computeMetrics(nil)
}
