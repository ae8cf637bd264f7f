package models

import (
	"sort"
	"time"
)

// PriceBar represents one daily OHLCV candle
type PriceBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Time parses the bar date. Returns the zero time when the date is malformed.
func (b PriceBar) Time() time.Time {
	t, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PriceHistoryFile represents the cached per-symbol price file with metadata
type PriceHistoryFile struct {
	Symbol      string     `json:"symbol"`
	LastUpdated string     `json:"last_updated"`
	DataCount   int        `json:"data_count"`
	Bars        []PriceBar `json:"bars"`
}

// SortBarsByDate orders bars ascending by date in place
func SortBarsByDate(bars []PriceBar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date < bars[j].Date
	})
}

// FeatureRow holds the derived indicators for a single bar
type FeatureRow struct {
	Date             string  `json:"date"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Close            float64 `json:"close"`
	Volume           float64 `json:"volume"`
	MA5              float64 `json:"ma5"`
	MA20             float64 `json:"ma20"`
	MA50             float64 `json:"ma50"`
	MA200            float64 `json:"ma200"`
	RSI              float64 `json:"rsi"`
	ATR              float64 `json:"atr"`
	VolumeRatio      float64 `json:"volume_ratio"`
	CloseVsOpen      float64 `json:"close_vs_open"`
	ThickGreenCandle bool    `json:"thick_green_candle"`
}

// FeatureSeries is the full indicator table for one symbol, oldest first
type FeatureSeries struct {
	Symbol string       `json:"symbol"`
	Rows   []FeatureRow `json:"rows"`
}

// Last returns the most recent row. ok is false for an empty series.
func (s *FeatureSeries) Last() (FeatureRow, bool) {
	if s == nil || len(s.Rows) == 0 {
		return FeatureRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// At returns the row at offset back from the end (0 = last bar)
func (s *FeatureSeries) At(back int) (FeatureRow, bool) {
	if s == nil {
		return FeatureRow{}, false
	}
	idx := len(s.Rows) - 1 - back
	if idx < 0 {
		return FeatureRow{}, false
	}
	return s.Rows[idx], true
}
