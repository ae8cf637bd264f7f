package signals

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"signalscan_backend/config"
	"signalscan_backend/models"
	"signalscan_backend/services"
)

// maxConcurrentSymbols bounds parallel price fetches during a scan
const maxConcurrentSymbols = 8

// PriceFetcher supplies daily history for the scan
type PriceFetcher interface {
	FetchDailyHistory(symbol string, days int) ([]models.PriceBar, error)
}

// HistoricalLookup supplies long-run per-symbol stats
type HistoricalLookup interface {
	Lookup(symbol string) (*models.HistoricalPerformance, error)
}

// Engine runs the full scan: evaluate every symbol, then pick the best
// candidate per segment and overall.
type Engine struct {
	fetcher  PriceFetcher
	hist     HistoricalLookup
	detector *Detector
	params   config.StrategyParams
}

// NewEngine creates a scan engine. hist may be nil when no historical
// store is available.
func NewEngine(fetcher PriceFetcher, hist HistoricalLookup, params config.StrategyParams) *Engine {
	return &Engine{
		fetcher:  fetcher,
		hist:     hist,
		detector: NewDetector(),
		params:   params,
	}
}

// Scan evaluates all segments as of the given date. One symbol failing to
// fetch or compute never fails the scan; it is logged and skipped.
func (e *Engine) Scan(segments map[string][]string, asOf time.Time) (*models.ScanResult, error) {
	if len(segments) == 0 {
		return nil, errors.New("no segments configured")
	}

	date := asOf.Format("2006-01-02")
	candidates := e.evaluateAll(segments, date)

	result := &models.ScanResult{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Segments:    make(map[string]*models.Signal),
	}

	var all []*Candidate
	for segment := range segments {
		segCandidates := candidates[segment]
		all = append(all, segCandidates...)

		best := bestCandidate(segCandidates)
		if best == nil {
			result.Segments[segment] = notFoundSignal(segment, date,
				fmt.Sprintf("No setup in segment %s passed the probability filter", segment))
			continue
		}
		result.Segments[segment] = signalFromCandidate(best)
	}

	if best := bestCandidate(all); best != nil {
		result.Overall = signalFromCandidate(best)
	} else {
		result.Overall = notFoundSignal("", date, "No setup passed the probability filter today")
	}

	return result, nil
}

// evaluateAll runs per-symbol evaluation behind a bounded semaphore and
// groups passing candidates by segment.
func (e *Engine) evaluateAll(segments map[string][]string, date string) map[string][]*Candidate {
	type job struct {
		segment string
		symbol  string
	}

	var jobs []job
	for segment, symbols := range segments {
		for _, symbol := range symbols {
			jobs = append(jobs, job{segment: segment, symbol: symbol})
		}
	}

	results := make(map[string][]*Candidate)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentSymbols)

	for _, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(j job) {
			defer wg.Done()
			defer func() { <-sem }()

			candidate, err := e.evaluateSymbol(j.symbol, j.segment, date)
			if err != nil {
				log.Printf("Skipping %s in %s: %v", j.symbol, j.segment, err)
				return
			}
			if candidate == nil {
				return
			}

			mu.Lock()
			results[j.segment] = append(results[j.segment], candidate)
			mu.Unlock()
		}(j)
	}

	wg.Wait()
	return results
}

// evaluateSymbol runs the per-symbol pipeline: history, features, rule
// chain, trade params, probability gate, historical annotation. A nil
// candidate with nil error means the symbol simply produced no setup.
func (e *Engine) evaluateSymbol(symbol, segment, date string) (*Candidate, error) {
	bars, err := e.fetcher.FetchDailyHistory(symbol, services.DefaultHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	series, err := services.ComputeFeatures(symbol, bars, e.params)
	if err != nil {
		return nil, err
	}

	detection := e.detector.Detect(series, e.params)
	if detection.SetupType == models.SetupNone {
		return nil, nil
	}

	last, _ := series.Last()
	tradeParams := CalculateTradeParams(last, detection.SetupType, e.params)

	candidate := &Candidate{
		Symbol:      symbol,
		Segment:     segment,
		Date:        date,
		SetupType:   detection.SetupType,
		Tier:        detection.Tier,
		Params:      tradeParams,
		LatestClose: last.Close,
	}
	candidate.Score = ScoreCandidate(detection.SetupType, tradeParams.RiskRewardRatio, e.params)

	if !PassesFilter(candidate, e.params) {
		return nil, nil
	}

	if e.hist != nil {
		hist, err := e.hist.Lookup(symbol)
		if err != nil {
			log.Printf("Historical lookup failed for %s: %v", symbol, err)
		} else {
			candidate.Hist = hist
		}
	}

	return candidate, nil
}

// bestCandidate picks the winner: highest score, then highest long-run
// strength (symbols without history rank below any recorded strength),
// then symbol order for a stable result regardless of fetch timing.
func bestCandidate(candidates []*Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]*Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		as, bs := histStrength(a), histStrength(b)
		if as != bs {
			return as > bs
		}
		return a.Symbol < b.Symbol
	})
	return sorted[0]
}

func histStrength(c *Candidate) float64 {
	if c.Hist == nil {
		return -1
	}
	return c.Hist.StrengthScore
}

// signalFromCandidate converts a winning candidate into a published signal
func signalFromCandidate(c *Candidate) *models.Signal {
	sig := &models.Signal{
		SignalFound:     true,
		Symbol:          c.Symbol,
		Segment:         c.Segment,
		Date:            c.Date,
		SetupType:       c.SetupType,
		Tier:            c.Tier,
		Score:           c.Score,
		EntryPrice:      c.Params.EntryPrice,
		StopLossPrice:   c.Params.StopLossPrice,
		TargetPrice:     c.Params.TargetPrice,
		RiskRewardRatio: c.Params.RiskRewardRatio,
		ATR:             c.Params.ATR,
		LatestClose:     c.LatestClose,
	}

	if c.Hist != nil {
		strength := c.Hist.StrengthScore
		winRate := c.Hist.WinRate
		total := c.Hist.TotalTrades
		sig.HistStrengthScore = &strength
		sig.HistWinRate = &winRate
		sig.HistTotalTrades = &total
	}

	return sig
}

func notFoundSignal(segment, date, message string) *models.Signal {
	return &models.Signal{
		SignalFound: false,
		Segment:     segment,
		Date:        date,
		Message:     message,
	}
}
