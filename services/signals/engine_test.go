package signals

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalscan_backend/config"
	"signalscan_backend/models"
)

type fakeFetcher struct {
	bars map[string][]models.PriceBar
	errs map[string]error
}

func (f *fakeFetcher) FetchDailyHistory(symbol string, days int) ([]models.PriceBar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

type fakeHist struct {
	records map[string]*models.HistoricalPerformance
}

func (f *fakeHist) Lookup(symbol string) (*models.HistoricalPerformance, error) {
	return f.records[symbol], nil
}

func engineParams() config.StrategyParams {
	params := config.DefaultStrategyParams()
	params.MinDataDays = 30
	return params
}

func neutralBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:   fmt.Sprintf("2025-04-%02d", i%28+1),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1000,
		}
	}
	return bars
}

// spikeBars ends on a high-volume up day that clears the spike threshold
func spikeBars(n int) []models.PriceBar {
	bars := neutralBars(n)
	bars[n-1] = models.PriceBar{
		Date:   "2025-04-30",
		Open:   100,
		High:   103,
		Low:    99,
		Close:  102,
		Volume: 5000,
	}
	return bars
}

// bottomTurnBars ends with an RSI dip below the oversold floor and a thick
// green recovery bar. Scores lower than a volume spike (base 25, RR 1.5).
func bottomTurnBars(n int) []models.PriceBar {
	bars := neutralBars(n)
	for i := 0; i < 15; i++ {
		price := 99 - float64(i)
		bars[n-16+i] = models.PriceBar{
			Date:   fmt.Sprintf("2025-04-%02d", i+10),
			Open:   price + 0.5,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	bars[n-1] = models.PriceBar{
		Date:   "2025-04-30",
		Open:   85,
		High:   95.5,
		Low:    85,
		Close:  95,
		Volume: 1000,
	}
	return bars
}

func scanDate() time.Time {
	return time.Date(2025, 4, 30, 16, 30, 0, 0, time.UTC)
}

func TestScanFindsVolumeSpike(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"AAA": spikeBars(60),
		"BBB": neutralBars(60),
	}}

	engine := NewEngine(fetcher, nil, engineParams())
	result, err := engine.Scan(map[string][]string{"tech": {"AAA", "BBB"}}, scanDate())
	require.NoError(t, err)

	require.NotNil(t, result.Overall)
	assert.True(t, result.Overall.SignalFound)
	assert.Equal(t, "AAA", result.Overall.Symbol)
	assert.Equal(t, models.SetupVolumeSpike, result.Overall.SetupType)
	assert.Equal(t, "2025-04-30", result.Overall.Date)
	assert.InDelta(t, 102, result.Overall.EntryPrice, 1e-9)

	require.NotNil(t, result.Overall.RiskRewardRatio)
	// Target distance is double the stop distance for this setup
	assert.InDelta(t, 2.0, *result.Overall.RiskRewardRatio, 1e-9)
	assert.InDelta(t, 0.55, result.Overall.Score, 1e-9)
}

func TestScanTieBreakByHistoricalStrength(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"AAA": spikeBars(60),
		"ZZZ": spikeBars(60),
	}}
	hist := &fakeHist{records: map[string]*models.HistoricalPerformance{
		"ZZZ": {Symbol: "ZZZ", StrengthScore: 90, WinRate: 70, TotalTrades: 25},
	}}

	engine := NewEngine(fetcher, hist, engineParams())
	result, err := engine.Scan(map[string][]string{"tech": {"AAA", "ZZZ"}}, scanDate())
	require.NoError(t, err)

	// Equal scores, so the recorded strength decides it
	assert.Equal(t, "ZZZ", result.Overall.Symbol)
	require.NotNil(t, result.Overall.HistStrengthScore)
	assert.InDelta(t, 90, *result.Overall.HistStrengthScore, 1e-9)
}

func TestScanScoreBeatsHistoricalStrength(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"SPIKE": spikeBars(60),
		"TURN":  bottomTurnBars(60),
	}}
	hist := &fakeHist{records: map[string]*models.HistoricalPerformance{
		"TURN": {Symbol: "TURN", StrengthScore: 99, WinRate: 80, TotalTrades: 50},
	}}

	params := engineParams()
	params.MinScore = 0.3

	engine := NewEngine(fetcher, hist, params)
	result, err := engine.Scan(map[string][]string{"tech": {"SPIKE", "TURN"}}, scanDate())
	require.NoError(t, err)

	// Strength only breaks ties; the higher score always wins outright
	assert.Equal(t, "SPIKE", result.Overall.Symbol)
	assert.Equal(t, models.SetupVolumeSpike, result.Overall.SetupType)
	assert.InDelta(t, 0.55, result.Overall.Score, 1e-9)
	assert.Nil(t, result.Overall.HistStrengthScore)
}

func TestScanTieBreakBySymbol(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"ZZZ": spikeBars(60),
		"AAA": spikeBars(60),
	}}

	engine := NewEngine(fetcher, nil, engineParams())
	result, err := engine.Scan(map[string][]string{"tech": {"ZZZ", "AAA"}}, scanDate())
	require.NoError(t, err)

	// With no history on either side the lower symbol wins, so the
	// outcome never depends on fetch timing
	assert.Equal(t, "AAA", result.Overall.Symbol)
}

func TestScanSkipsFailingSymbols(t *testing.T) {
	fetcher := &fakeFetcher{
		bars: map[string][]models.PriceBar{"GOOD": spikeBars(60)},
		errs: map[string]error{"BAD": errors.New("connection refused")},
	}

	engine := NewEngine(fetcher, nil, engineParams())
	result, err := engine.Scan(map[string][]string{"tech": {"BAD", "GOOD"}}, scanDate())
	require.NoError(t, err)

	assert.True(t, result.Overall.SignalFound)
	assert.Equal(t, "GOOD", result.Overall.Symbol)
}

func TestScanNoSetupFound(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"AAA": neutralBars(60),
	}}

	engine := NewEngine(fetcher, nil, engineParams())
	result, err := engine.Scan(map[string][]string{"tech": {"AAA"}}, scanDate())
	require.NoError(t, err)

	require.NotNil(t, result.Overall)
	assert.False(t, result.Overall.SignalFound)
	assert.Equal(t, "No setup passed the probability filter today", result.Overall.Message)

	seg := result.Segments["tech"]
	require.NotNil(t, seg)
	assert.False(t, seg.SignalFound)
	assert.Contains(t, seg.Message, "tech")
}

func TestScanPerSegmentWinners(t *testing.T) {
	fetcher := &fakeFetcher{bars: map[string][]models.PriceBar{
		"AAA": spikeBars(60),
		"BBB": neutralBars(60),
	}}

	engine := NewEngine(fetcher, nil, engineParams())
	result, err := engine.Scan(map[string][]string{
		"tech":   {"AAA"},
		"energy": {"BBB"},
	}, scanDate())
	require.NoError(t, err)

	require.Len(t, result.Segments, 2)
	assert.True(t, result.Segments["tech"].SignalFound)
	assert.Equal(t, "tech", result.Segments["tech"].Segment)
	assert.False(t, result.Segments["energy"].SignalFound)

	assert.True(t, result.Overall.SignalFound)
	assert.Equal(t, "AAA", result.Overall.Symbol)
}

func TestScanNoSegments(t *testing.T) {
	engine := NewEngine(&fakeFetcher{}, nil, engineParams())
	_, err := engine.Scan(map[string][]string{}, scanDate())
	assert.Error(t, err)
}
