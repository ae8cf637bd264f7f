package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"signalscan_backend/models"
)

// Price data constants
const (
	DefaultChartAPIBaseURL = "https://query1.finance.yahoo.com"
	PriceCacheDir          = "data/prices"
	SegmentsFile           = "data/segments.json"
	DefaultHistoryDays     = 270 // ~1 year of trading days
)

// chartResponse mirrors the daily-candle chart API payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceService fetches and caches daily OHLCV history
type PriceService struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	mu         sync.RWMutex
}

// Global price service instance
var GlobalPriceService *PriceService

// InitPriceService initializes the price service
func InitPriceService(baseURL string) error {
	if baseURL == "" {
		baseURL = DefaultChartAPIBaseURL
	}
	GlobalPriceService = &PriceService{
		baseURL:    baseURL,
		cacheDir:   PriceCacheDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	if err := os.MkdirAll(PriceCacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create price cache directory: %w", err)
	}

	log.Println("Price service initialized")
	return nil
}

// NewPriceService creates a price service with an explicit cache directory
func NewPriceService(baseURL, cacheDir string) *PriceService {
	return &PriceService{
		baseURL:    baseURL,
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchDailyHistory returns up to days daily bars for a symbol, oldest first.
// The remote API is tried first; on failure the local cache is the fallback.
func (s *PriceService) FetchDailyHistory(symbol string, days int) ([]models.PriceBar, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	bars, err := s.fetchRemote(symbol, days)
	if err != nil {
		log.Printf("Remote fetch failed for %s, trying cache: %v", symbol, err)
		cached, cacheErr := s.LoadHistory(symbol)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
		}
		return cached, nil
	}

	if err := s.SaveHistory(symbol, bars); err != nil {
		log.Printf("Warning: failed to cache prices for %s: %v", symbol, err)
	}
	return bars, nil
}

// LatestClose returns the most recent daily close for a symbol
func (s *PriceService) LatestClose(symbol string) (float64, error) {
	bars, err := s.FetchDailyHistory(symbol, 10)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no price data for %s", symbol)
	}
	return bars[len(bars)-1].Close, nil
}

// fetchRemote calls the daily-candle chart API
func (s *PriceService) fetchRemote(symbol string, days int) ([]models.PriceBar, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%dd&interval=1d", s.baseURL, symbol, days)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; signalscan/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chart API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var bars []models.PriceBar
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		// Rows with a zero close are unfilled trading halts, skip them
		if quote.Close[i] == 0 {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: quote.Volume[i],
		})
	}

	models.SortBarsByDate(bars)
	return bars, nil
}

// SaveHistory writes the per-symbol cache file
func (s *PriceService) SaveHistory(symbol string, bars []models.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := models.PriceHistoryFile{
		Symbol:      symbol,
		LastUpdated: time.Now().Format(time.RFC3339),
		DataCount:   len(bars),
		Bars:        bars,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.cachePath(symbol), data, 0644)
}

// LoadHistory reads the per-symbol cache file
func (s *PriceService) LoadHistory(symbol string) ([]models.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.cachePath(symbol))
	if err != nil {
		return nil, err
	}

	var file models.PriceHistoryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("corrupt price cache for %s: %w", symbol, err)
	}

	models.SortBarsByDate(file.Bars)
	return file.Bars, nil
}

func (s *PriceService) cachePath(symbol string) string {
	safe := strings.ReplaceAll(strings.ToUpper(symbol), "/", "_")
	return filepath.Join(s.cacheDir, safe+".json")
}

// LoadSegments reads the segment-to-symbols map from the segments file
func LoadSegments(path string) (map[string][]string, error) {
	if path == "" {
		path = SegmentsFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segments file: %w", err)
	}

	var segments map[string][]string
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse segments file: %w", err)
	}
	return segments, nil
}

// SaveSegments persists the segment map
func SaveSegments(path string, segments map[string][]string) error {
	if path == "" {
		path = SegmentsFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
