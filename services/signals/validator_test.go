package signals

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signalscan_backend/models"
)

type fakeCloseLookup struct {
	closes map[string]float64
	err    error
}

func (f *fakeCloseLookup) LatestClose(symbol string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.closes[symbol], nil
}

func foundSignal(date string) *models.Signal {
	return &models.Signal{
		SignalFound:   true,
		Symbol:        "AAA",
		Date:          date,
		EntryPrice:    100,
		StopLossPrice: 95,
		TargetPrice:   110,
		LatestClose:   100,
	}
}

func TestRevalidateFreshSignal(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 101}})
	sig := foundSignal("2025-04-30")

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	assert.False(t, sig.Stale)
	assert.InDelta(t, 101, sig.LatestClose, 1e-9)
}

func TestRevalidateDatePassed(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 101}})
	sig := foundSignal("2025-04-29")

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	assert.True(t, sig.Stale)
	assert.False(t, sig.SignalFound)
	assert.Equal(t, "Signal date has passed", sig.Message)
}

func TestRevalidateStopBroken(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 94}})
	sig := foundSignal("2025-04-30")

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	assert.True(t, sig.Stale)
	assert.False(t, sig.SignalFound)
	assert.Equal(t, "Latest close is at or below the stop", sig.Message)
	assert.InDelta(t, 94, sig.LatestClose, 1e-9)
}

func TestRevalidateIdempotent(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 101}})
	sig := foundSignal("2025-04-29")
	today := time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC)

	v.Revalidate(sig, today)
	first := *sig
	v.Revalidate(sig, today)

	assert.Equal(t, first, *sig)
}

func TestRevalidateCloseExactlyAtStop(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 95}})
	sig := foundSignal("2025-04-30")

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))
	assert.True(t, sig.Stale)
}

func TestRevalidateIgnoresNotFoundSignals(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{err: errors.New("should not be called")})
	sig := &models.Signal{SignalFound: false, Date: "2020-01-01", Message: "No setup"}

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	assert.False(t, sig.Stale)
	assert.Equal(t, "No setup", sig.Message)
}

func TestRevalidatePriceFailureKeepsHealthySignal(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{err: errors.New("upstream down")})
	sig := foundSignal("2025-04-30")

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	// Stored close (100) is above the stop, so the failed fetch changes nothing
	assert.False(t, sig.Stale)
	assert.True(t, sig.SignalFound)
	assert.InDelta(t, 100, sig.LatestClose, 1e-9)
}

func TestRevalidatePriceFailureUsesStoredClose(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{err: errors.New("upstream down")})
	sig := foundSignal("2025-04-30")
	sig.LatestClose = 90

	v.Revalidate(sig, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	// The close recorded with the signal already sits below the stop, so
	// the signal goes stale even though the market cannot be read
	assert.True(t, sig.Stale)
	assert.False(t, sig.SignalFound)
	assert.Equal(t, "Latest close is at or below the stop", sig.Message)
}

func TestRevalidateResult(t *testing.T) {
	v := NewValidator(&fakeCloseLookup{closes: map[string]float64{"AAA": 101}})
	result := &models.ScanResult{
		Overall: foundSignal("2025-04-29"),
		Segments: map[string]*models.Signal{
			"tech": foundSignal("2025-04-30"),
		},
	}

	v.RevalidateResult(result, time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC))

	assert.True(t, result.Overall.Stale)
	assert.False(t, result.Segments["tech"].Stale)
}
