package tracking

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"signalscan_backend/models"
)

// TradesFileName is the ledger file inside the tracking directory
const TradesFileName = "trades.csv"

// csvHeader is the fixed ledger schema. Column order is part of the file
// format and must not change between runs.
var csvHeader = []string{
	"trade_id", "symbol", "entry_date", "entry_price", "stop_loss_price",
	"target_price", "risk_reward_ratio", "atr_at_entry", "trade_type",
	"source_signal_date", "status", "current_price", "unrealized_pnl",
	"exit_date", "exit_price", "realized_pnl", "exit_reason",
	"holding_period", "notes",
}

var (
	// ErrTradeNotFound is returned when a trade id has no ledger row
	ErrTradeNotFound = errors.New("trade not found")
	// ErrMissingField is returned when a signal lacks required trade data
	ErrMissingField = errors.New("missing required field")
)

// rrEpsilon guards the risk/reward denominator for manual picks
const rrEpsilon = 1e-9

// PriceLookup supplies the latest close for mark-to-market updates
type PriceLookup interface {
	LatestClose(symbol string) (float64, error)
}

// Ledger is the flat-file trade table. Every mutation reads the whole
// file, applies the change in memory and rewrites the whole file; the
// mutex makes the ledger safe for concurrent API and scheduler use.
type Ledger struct {
	path   string
	prices PriceLookup
	mu     sync.Mutex
	now    func() time.Time
}

// Global ledger instance
var GlobalLedger *Ledger

// InitLedger initializes the global trade ledger
func InitLedger(trackingDir string, prices PriceLookup) error {
	ledger, err := NewLedger(trackingDir, prices)
	if err != nil {
		return err
	}
	GlobalLedger = ledger
	log.Printf("Trade ledger initialized at %s", ledger.path)
	return nil
}

// NewLedger creates a ledger stored under trackingDir
func NewLedger(trackingDir string, prices PriceLookup) (*Ledger, error) {
	if trackingDir == "" {
		trackingDir = "tracking"
	}
	if err := os.MkdirAll(trackingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tracking directory: %w", err)
	}
	return &Ledger{
		path:   filepath.Join(trackingDir, TradesFileName),
		prices: prices,
		now:    time.Now,
	}, nil
}

// ListTrades returns every ledger row
func (l *Ledger) ListTrades() ([]models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadAll()
}

// TrackSignal opens an Active trade from a published signal. The entry
// date is today; the signal's own date is kept as provenance.
func (l *Ledger) TrackSignal(sig *models.Signal) (string, error) {
	if sig == nil || !sig.SignalFound {
		return "", fmt.Errorf("%w: no signal to track", ErrMissingField)
	}
	if sig.Symbol == "" || sig.Date == "" {
		return "", fmt.Errorf("%w: symbol and date are required", ErrMissingField)
	}
	if sig.EntryPrice == 0 || sig.StopLossPrice == 0 || sig.TargetPrice == 0 {
		return "", fmt.Errorf("%w: entry, stop and target are required", ErrMissingField)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	trades, err := l.loadAll()
	if err != nil {
		return "", err
	}

	atr := sig.ATR
	trade := models.Trade{
		TradeID:          l.uniqueTradeID(trades),
		Symbol:           sig.Symbol,
		EntryDate:        l.now().Format("2006-01-02"),
		EntryPrice:       sig.EntryPrice,
		StopLossPrice:    sig.StopLossPrice,
		TargetPrice:      sig.TargetPrice,
		RiskRewardRatio:  sig.RiskRewardRatio,
		ATRAtEntry:       &atr,
		TradeType:        models.TradeTypeTrackedSignal,
		SourceSignalDate: sig.Date,
		Status:           models.TradeStatusActive,
		Notes:            sig.Message,
	}

	trades = append(trades, trade)
	if err := l.saveAll(trades); err != nil {
		return "", err
	}
	return trade.TradeID, nil
}

// AddManualPick opens an Active trade entered by hand rather than from a
// scan. The risk/reward is derived from the three prices.
func (l *Ledger) AddManualPick(symbol string, entry, stop, target float64, notes string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrMissingField)
	}
	if entry == 0 || stop == 0 || target == 0 {
		return "", fmt.Errorf("%w: entry, stop and target are required", ErrMissingField)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	trades, err := l.loadAll()
	if err != nil {
		return "", err
	}

	var rr *float64
	if risk := entry - stop; risk > rrEpsilon {
		ratio := (target - entry) / risk
		rr = &ratio
	}

	trade := models.Trade{
		TradeID:         l.uniqueTradeID(trades),
		Symbol:          symbol,
		EntryDate:       l.now().Format("2006-01-02"),
		EntryPrice:      entry,
		StopLossPrice:   stop,
		TargetPrice:     target,
		RiskRewardRatio: rr,
		TradeType:       models.TradeTypeManualPick,
		Status:          models.TradeStatusActive,
		Notes:           notes,
	}

	trades = append(trades, trade)
	if err := l.saveAll(trades); err != nil {
		return "", err
	}
	return trade.TradeID, nil
}

// UpdateActiveTrades marks every Active trade to market. One symbol
// failing its price lookup leaves that row's current price empty and
// moves on; the run itself still succeeds.
func (l *Ledger) UpdateActiveTrades() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	trades, err := l.loadAll()
	if err != nil {
		return err
	}

	today := truncateToDay(l.now())
	active := 0
	for i := range trades {
		t := &trades[i]
		if !t.IsActive() {
			continue
		}
		active++

		holding := holdingDays(t.EntryDate, today)
		t.HoldingPeriod = &holding

		latest, err := l.prices.LatestClose(t.Symbol)
		if err != nil {
			log.Printf("Price update failed for %s (%s): %v", t.Symbol, t.TradeID, err)
			t.CurrentPrice = nil
			t.UnrealizedPnL = nil
			continue
		}

		current := latest
		t.CurrentPrice = &current
		if t.EntryPrice != 0 {
			pnl := (current - t.EntryPrice) / t.EntryPrice * 100
			t.UnrealizedPnL = &pnl
		} else {
			t.UnrealizedPnL = nil
		}
	}

	if active == 0 {
		log.Println("No active trades to update")
		return nil
	}
	return l.saveAll(trades)
}

// CloseTrade moves one trade to its terminal state. Closing an already
// Closed trade succeeds without touching the original exit data.
func (l *Ledger) CloseTrade(tradeID string, exitPrice float64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	trades, err := l.loadAll()
	if err != nil {
		return err
	}

	idx := -1
	for i := range trades {
		if trades[i].TradeID == tradeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}

	t := &trades[idx]
	if t.Status == models.TradeStatusClosed {
		log.Printf("Trade %s already closed, keeping original exit data", tradeID)
		return nil
	}

	today := truncateToDay(l.now())
	t.Status = models.TradeStatusClosed
	t.ExitDate = today.Format("2006-01-02")
	exit := exitPrice
	t.ExitPrice = &exit
	t.ExitReason = reason

	if t.EntryPrice != 0 {
		pnl := (exitPrice - t.EntryPrice) / t.EntryPrice * 100
		t.RealizedPnL = &pnl
	}
	holding := holdingDays(t.EntryDate, today)
	t.HoldingPeriod = &holding

	return l.saveAll(trades)
}

// uniqueTradeID derives an id from the current timestamp at microsecond
// precision, bumping until it collides with no existing row.
func (l *Ledger) uniqueTradeID(existing []models.Trade) string {
	used := make(map[string]bool, len(existing))
	for _, t := range existing {
		used[t.TradeID] = true
	}

	now := l.now()
	for {
		id := now.Format("20060102150405") + fmt.Sprintf("%06d", now.Nanosecond()/1000)
		if !used[id] {
			return id
		}
		now = now.Add(time.Microsecond)
	}
}

// holdingDays counts whole days between the entry date and asOf
func holdingDays(entryDate string, asOf time.Time) int {
	entry, err := time.Parse("2006-01-02", entryDate)
	if err != nil {
		return 0
	}
	days := int(asOf.Sub(entry).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// loadAll reads the whole ledger. A missing file is an empty ledger.
func (l *Ledger) loadAll() ([]models.Trade, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	trades := make([]models.Trade, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(csvHeader) {
			log.Printf("Skipping short ledger row: %v", rec)
			continue
		}
		trades = append(trades, tradeFromRecord(rec))
	}
	return trades, nil
}

// saveAll rewrites the whole ledger file, header first
func (l *Ledger) saveAll(trades []models.Trade) error {
	var b strings.Builder
	writer := csv.NewWriter(&b)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := writer.Write(recordFromTrade(t)); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	if err := os.WriteFile(l.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func tradeFromRecord(rec []string) models.Trade {
	return models.Trade{
		TradeID:          rec[0],
		Symbol:           rec[1],
		EntryDate:        rec[2],
		EntryPrice:       parseFloat(rec[3]),
		StopLossPrice:    parseFloat(rec[4]),
		TargetPrice:      parseFloat(rec[5]),
		RiskRewardRatio:  parseFloatPtr(rec[6]),
		ATRAtEntry:       parseFloatPtr(rec[7]),
		TradeType:        rec[8],
		SourceSignalDate: rec[9],
		Status:           rec[10],
		CurrentPrice:     parseFloatPtr(rec[11]),
		UnrealizedPnL:    parseFloatPtr(rec[12]),
		ExitDate:         rec[13],
		ExitPrice:        parseFloatPtr(rec[14]),
		RealizedPnL:      parseFloatPtr(rec[15]),
		ExitReason:       rec[16],
		HoldingPeriod:    parseIntPtr(rec[17]),
		Notes:            rec[18],
	}
}

func recordFromTrade(t models.Trade) []string {
	return []string{
		t.TradeID,
		t.Symbol,
		t.EntryDate,
		formatFloat(t.EntryPrice),
		formatFloat(t.StopLossPrice),
		formatFloat(t.TargetPrice),
		formatFloatPtr(t.RiskRewardRatio),
		formatFloatPtr(t.ATRAtEntry),
		t.TradeType,
		t.SourceSignalDate,
		t.Status,
		formatFloatPtr(t.CurrentPrice),
		formatFloatPtr(t.UnrealizedPnL),
		t.ExitDate,
		formatFloatPtr(t.ExitPrice),
		formatFloatPtr(t.RealizedPnL),
		t.ExitReason,
		formatIntPtr(t.HoldingPeriod),
		t.Notes,
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
