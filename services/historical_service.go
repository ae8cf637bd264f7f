package services

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"signalscan_backend/models"
)

// HistoricalStore reads long-run per-symbol performance stats. The table is
// produced by an external backfill job; this service never writes to it.
type HistoricalStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Global historical store
var GlobalHistoricalStore *HistoricalStore

// InitHistoricalStore opens the historical performance database. A missing
// file is not fatal: lookups simply return no record until a backfill runs.
func InitHistoricalStore(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open historical database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping historical database: %w", err)
	}

	store := &HistoricalStore{db: db}
	if err := store.ensureTable(); err != nil {
		return fmt.Errorf("failed to verify historical table: %w", err)
	}

	GlobalHistoricalStore = store
	log.Printf("Historical store initialized at %s", path)
	return nil
}

// NewHistoricalStore opens a store at an explicit path (used by tests)
func NewHistoricalStore(path string) (*HistoricalStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	store := &HistoricalStore{db: db}
	if err := store.ensureTable(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database
func (s *HistoricalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *HistoricalStore) ensureTable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		CREATE TABLE IF NOT EXISTS historical_performance (
			symbol VARCHAR PRIMARY KEY,
			hist_win_rate REAL,
			hist_avg_pnl REAL,
			hist_strength_score REAL,
			hist_total_trades INTEGER
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	s.db.Exec("CREATE INDEX IF NOT EXISTS idx_hist_strength ON historical_performance(hist_strength_score DESC)")
	return nil
}

// Lookup returns the stats row for a symbol, or nil when the symbol has no
// recorded history.
func (s *HistoricalStore) Lookup(symbol string) (*models.HistoricalPerformance, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT symbol, hist_win_rate, hist_avg_pnl, hist_strength_score, hist_total_trades
		FROM historical_performance WHERE symbol = ?`

	var p models.HistoricalPerformance
	var winRate, avgPnL, strength sql.NullFloat64
	var total sql.NullInt64

	err := s.db.QueryRow(query, symbol).Scan(&p.Symbol, &winRate, &avgPnL, &strength, &total)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	// A row without a strength score is treated the same as no history
	if !strength.Valid {
		return nil, nil
	}

	p.WinRate = winRate.Float64
	p.AvgPnL = avgPnL.Float64
	p.StrengthScore = strength.Float64
	p.TotalTrades = int(total.Int64)
	return &p, nil
}

// TopPicks returns the n strongest symbols by long-run strength score.
// Rows without a score are excluded rather than sorted to the bottom.
func (s *HistoricalStore) TopPicks(n int) ([]models.HistoricalPerformance, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT symbol, hist_win_rate, hist_avg_pnl, hist_strength_score, hist_total_trades
		FROM historical_performance
		WHERE hist_strength_score IS NOT NULL
		ORDER BY hist_strength_score DESC LIMIT ?`

	rows, err := s.db.Query(query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []models.HistoricalPerformance
	for rows.Next() {
		var p models.HistoricalPerformance
		var winRate, avgPnL sql.NullFloat64
		var total sql.NullInt64
		if err := rows.Scan(&p.Symbol, &winRate, &avgPnL, &p.StrengthScore, &total); err != nil {
			return nil, err
		}
		p.WinRate = winRate.Float64
		p.AvgPnL = avgPnL.Float64
		p.TotalTrades = int(total.Int64)
		picks = append(picks, p)
	}

	return picks, rows.Err()
}

// Upsert inserts or replaces one stats row (used by backfill tooling and tests)
func (s *HistoricalStore) Upsert(p models.HistoricalPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT OR REPLACE INTO historical_performance
		(symbol, hist_win_rate, hist_avg_pnl, hist_strength_score, hist_total_trades)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, p.Symbol, p.WinRate, p.AvgPnL, p.StrengthScore, p.TotalTrades)
	return err
}
