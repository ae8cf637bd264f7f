package signals

import (
	"log"
	"time"

	"signalscan_backend/models"
)

// ClosePriceLookup supplies the latest daily close for revalidation
type ClosePriceLookup interface {
	LatestClose(symbol string) (float64, error)
}

// Validator re-checks a published signal against the calendar and the
// market before the signal is acted on.
type Validator struct {
	prices ClosePriceLookup
}

// NewValidator creates a staleness validator
func NewValidator(prices ClosePriceLookup) *Validator {
	return &Validator{prices: prices}
}

// Revalidate invalidates a found signal when its date has passed or when
// price has already broken the stop. Invalidation flips SignalFound off, so
// signals that found nothing (including previously invalidated ones) are
// left untouched and re-running is idempotent.
func (v *Validator) Revalidate(sig *models.Signal, today time.Time) {
	if sig == nil || !sig.SignalFound {
		return
	}

	if sig.SignalDate().Before(truncateToDay(today)) {
		markStale(sig, "Signal date has passed")
		return
	}

	latest, err := v.prices.LatestClose(sig.Symbol)
	if err != nil {
		// Fall back to the close recorded with the signal when the
		// market cannot be read
		log.Printf("Revalidation price check failed for %s: %v", sig.Symbol, err)
		latest = sig.LatestClose
	} else {
		sig.LatestClose = latest
	}

	if latest > 0 && latest <= sig.StopLossPrice {
		markStale(sig, "Latest close is at or below the stop")
	}
}

func markStale(sig *models.Signal, message string) {
	sig.SignalFound = false
	sig.Stale = true
	sig.Message = message
}

// RevalidateResult revalidates every signal in a scan result
func (v *Validator) RevalidateResult(result *models.ScanResult, today time.Time) {
	if result == nil {
		return
	}
	v.Revalidate(result.Overall, today)
	for _, sig := range result.Segments {
		v.Revalidate(sig, today)
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
