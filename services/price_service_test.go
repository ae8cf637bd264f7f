package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalscan_backend/models"
)

func sampleBars() []models.PriceBar {
	return []models.PriceBar{
		{Date: "2025-04-28", Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: "2025-04-29", Open: 101, High: 103, Low: 100, Close: 102, Volume: 1100},
		{Date: "2025-04-30", Open: 102, High: 104, Low: 101, Close: 103, Volume: 1200},
	}
}

func TestPriceCacheRoundTrip(t *testing.T) {
	svc := NewPriceService("http://127.0.0.1:0", t.TempDir())

	require.NoError(t, svc.SaveHistory("AAA", sampleBars()))

	bars, err := svc.LoadHistory("AAA")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2025-04-28", bars[0].Date)
	assert.Equal(t, "2025-04-30", bars[2].Date)
	assert.InDelta(t, 103, bars[2].Close, 1e-9)
}

func TestFetchDailyHistoryFallsBackToCache(t *testing.T) {
	// Port 0 is never reachable, so the remote always fails
	svc := NewPriceService("http://127.0.0.1:0", t.TempDir())
	require.NoError(t, svc.SaveHistory("AAA", sampleBars()))

	bars, err := svc.FetchDailyHistory("AAA", 10)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
}

func TestFetchDailyHistoryNoRemoteNoCache(t *testing.T) {
	svc := NewPriceService("http://127.0.0.1:0", t.TempDir())

	_, err := svc.FetchDailyHistory("MISSING", 10)
	assert.Error(t, err)
}

func TestLatestCloseFromCache(t *testing.T) {
	svc := NewPriceService("http://127.0.0.1:0", t.TempDir())
	require.NoError(t, svc.SaveHistory("AAA", sampleBars()))

	latest, err := svc.LatestClose("AAA")
	require.NoError(t, err)
	assert.InDelta(t, 103, latest, 1e-9)
}

func TestCachePathSanitizesSymbol(t *testing.T) {
	dir := t.TempDir()
	svc := NewPriceService("", dir)

	assert.Equal(t, filepath.Join(dir, "BRK_B.json"), svc.cachePath("brk/b"))
}

func TestSegmentsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.json")
	segments := map[string][]string{
		"tech":   {"AAA", "BBB"},
		"energy": {"CCC"},
	}

	require.NoError(t, SaveSegments(path, segments))

	loaded, err := LoadSegments(path)
	require.NoError(t, err)
	assert.Equal(t, segments, loaded)
}

func TestLoadSegmentsMissingFile(t *testing.T) {
	_, err := LoadSegments(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
