package services

import (
	"errors"
	"fmt"
	"math"

	"signalscan_backend/config"
	"signalscan_backend/models"
)

// ErrInsufficientHistory is returned when a symbol has too few bars to scan
var ErrInsufficientHistory = errors.New("insufficient price history")

// thickBodyRatio is the minimum body-to-range fraction for a thick candle
const thickBodyRatio = 0.6

// ComputeFeatures derives the full indicator table for one symbol.
// Bars must be ordered oldest first. Every value for bar i is computed
// from bars up to and including i; leading gaps are backfilled and then
// forward filled so the returned series has no NaN holes.
func ComputeFeatures(symbol string, bars []models.PriceBar, params config.StrategyParams) (*models.FeatureSeries, error) {
	if len(bars) < params.MinDataDays {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d",
			ErrInsufficientHistory, symbol, len(bars), params.MinDataDays)
	}

	n := len(bars)
	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	ma5 := rollingMean(closes, 5)
	ma20 := rollingMean(closes, 20)
	ma50 := rollingMean(closes, 50)
	ma200 := rollingMean(closes, 200)
	rsi := calculateRSI(closes, params.RSIPeriod)

	ranges := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		ranges[i] = b.High - b.Low
		volumes[i] = b.Volume
	}
	atr := rollingMean(ranges, params.ATRPeriod)

	volBase := rollingMean(volumes, params.VolumeBaselineDays)
	volRatio := make([]float64, n)
	for i := range volumes {
		if math.IsNaN(volBase[i]) || volBase[i] == 0 {
			volRatio[i] = math.NaN()
		} else {
			volRatio[i] = volumes[i] / volBase[i]
		}
	}

	fillGaps(ma5)
	fillGaps(ma20)
	fillGaps(ma50)
	fillGaps(ma200)
	fillGaps(rsi)
	fillGaps(atr)
	fillGaps(volRatio)

	series := &models.FeatureSeries{Symbol: symbol, Rows: make([]models.FeatureRow, n)}
	for i, b := range bars {
		closeVsOpen := 0.0
		if b.Open != 0 {
			closeVsOpen = (b.Close - b.Open) / b.Open
		}

		barRange := b.High - b.Low
		body := b.Close - b.Open
		thickGreen := b.Close > b.Open && barRange > 0 && body >= thickBodyRatio*barRange

		// A window longer than the whole series leaves its column NaN
		// even after filling; fall back to neutral per-bar values so the
		// series never carries holes downstream
		series.Rows[i] = models.FeatureRow{
			Date:             b.Date,
			Open:             b.Open,
			High:             b.High,
			Low:              b.Low,
			Close:            b.Close,
			Volume:           b.Volume,
			MA5:              orDefault(ma5[i], b.Close),
			MA20:             orDefault(ma20[i], b.Close),
			MA50:             orDefault(ma50[i], b.Close),
			MA200:            orDefault(ma200[i], b.Close),
			RSI:              orDefault(rsi[i], 50),
			ATR:              orDefault(atr[i], ranges[i]),
			VolumeRatio:      orDefault(volRatio[i], 1),
			CloseVsOpen:      closeVsOpen,
			ThickGreenCandle: thickGreen,
		}
	}

	return series, nil
}

// rollingMean returns the simple moving average with NaN until the window fills
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		window = 1
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// calculateRSI computes the rolling-mean RSI. Bars where the average loss
// is zero have no defined ratio and read the neutral 50; bars before the
// window fills read NaN and are filled afterwards.
func calculateRSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 {
		period = 14
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	out[0] = math.NaN()
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains[1:], period)
	avgLoss := rollingMean(losses[1:], period)

	for i := 1; i < n; i++ {
		g := avgGain[i-1]
		l := avgLoss[i-1]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0:
			out[i] = 50
		default:
			rs := g / l
			out[i] = 100 - (100 / (1 + rs))
		}
	}
	return out
}

func orDefault(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return v
}

// fillGaps removes NaN holes in place: backward fill first, then forward fill
func fillGaps(values []float64) {
	for i := len(values) - 2; i >= 0; i-- {
		if math.IsNaN(values[i]) && !math.IsNaN(values[i+1]) {
			values[i] = values[i+1]
		}
	}
	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) && !math.IsNaN(values[i-1]) {
			values[i] = values[i-1]
		}
	}
}
