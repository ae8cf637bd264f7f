package tracking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalscan_backend/models"
)

type stubPrices struct {
	closes map[string]float64
	errs   map[string]error
}

func (s *stubPrices) LatestClose(symbol string) (float64, error) {
	if err, ok := s.errs[symbol]; ok {
		return 0, err
	}
	v, ok := s.closes[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return v, nil
}

func newTestLedger(t *testing.T, prices PriceLookup) *Ledger {
	t.Helper()
	ledger, err := NewLedger(t.TempDir(), prices)
	require.NoError(t, err)
	ledger.now = func() time.Time {
		return time.Date(2025, 5, 2, 10, 0, 0, 123456000, time.UTC)
	}
	return ledger
}

func trackedSignal() *models.Signal {
	rr := 2.0
	return &models.Signal{
		SignalFound:     true,
		Symbol:          "AAA",
		Date:            "2025-05-01",
		SetupType:       models.SetupVolumeSpike,
		Score:           0.55,
		EntryPrice:      100,
		StopLossPrice:   95,
		TargetPrice:     110,
		RiskRewardRatio: &rr,
		ATR:             2.5,
		Message:         "tracked from scan",
	}
}

func TestTrackSignal(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	id, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)
	assert.Len(t, id, 20)
	assert.Equal(t, "20250502100000123456", id)

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, id, trade.TradeID)
	assert.Equal(t, "AAA", trade.Symbol)
	assert.Equal(t, "2025-05-02", trade.EntryDate)
	assert.Equal(t, "2025-05-01", trade.SourceSignalDate)
	assert.Equal(t, models.TradeTypeTrackedSignal, trade.TradeType)
	assert.Equal(t, models.TradeStatusActive, trade.Status)
	assert.InDelta(t, 100, trade.EntryPrice, 1e-9)
	require.NotNil(t, trade.RiskRewardRatio)
	assert.InDelta(t, 2.0, *trade.RiskRewardRatio, 1e-9)
	require.NotNil(t, trade.ATRAtEntry)
	assert.InDelta(t, 2.5, *trade.ATRAtEntry, 1e-9)
	assert.Equal(t, "tracked from scan", trade.Notes)
}

func TestTrackSignalValidation(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	_, err := ledger.TrackSignal(nil)
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = ledger.TrackSignal(&models.Signal{SignalFound: false})
	assert.ErrorIs(t, err, ErrMissingField)

	sig := trackedSignal()
	sig.StopLossPrice = 0
	_, err = ledger.TrackSignal(sig)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestTrackSignalUniqueIDs(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	// The clock is frozen, so the second id must come from the
	// collision bump
	first, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)
	second, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "20250502100000123457", second)
}

func TestAddManualPick(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	id, err := ledger.AddManualPick("BBB", 50, 45, 60, "earnings play")
	require.NoError(t, err)

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, id, trade.TradeID)
	assert.Equal(t, models.TradeTypeManualPick, trade.TradeType)
	assert.Empty(t, trade.SourceSignalDate)
	require.NotNil(t, trade.RiskRewardRatio)
	assert.InDelta(t, 2.0, *trade.RiskRewardRatio, 1e-9)
	assert.Nil(t, trade.ATRAtEntry)
}

func TestAddManualPickNoRiskDistance(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	_, err := ledger.AddManualPick("BBB", 50, 50, 60, "")
	require.NoError(t, err)

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Nil(t, trades[0].RiskRewardRatio)
}

func TestAddManualPickValidation(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	_, err := ledger.AddManualPick("", 50, 45, 60, "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = ledger.AddManualPick("BBB", 0, 45, 60, "")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestUpdateActiveTrades(t *testing.T) {
	prices := &stubPrices{closes: map[string]float64{"AAA": 108}}
	ledger := newTestLedger(t, prices)

	_, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)

	require.NoError(t, ledger.UpdateActiveTrades())

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	trade := trades[0]
	require.NotNil(t, trade.CurrentPrice)
	assert.InDelta(t, 108, *trade.CurrentPrice, 1e-9)
	require.NotNil(t, trade.UnrealizedPnL)
	assert.InDelta(t, 8.0, *trade.UnrealizedPnL, 1e-9)
	require.NotNil(t, trade.HoldingPeriod)
	assert.Equal(t, 0, *trade.HoldingPeriod)
}

func TestUpdateActiveTradesSurvivesPriceFailures(t *testing.T) {
	prices := &stubPrices{closes: map[string]float64{"AAA": 108}}
	ledger := newTestLedger(t, prices)

	_, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)
	_, err = ledger.AddManualPick("MISSING", 50, 45, 60, "")
	require.NoError(t, err)

	// The symbol without a price must not fail the whole run
	require.NoError(t, ledger.UpdateActiveTrades())

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	require.Len(t, trades, 2)

	byID := map[string]models.Trade{}
	for _, trade := range trades {
		byID[trade.Symbol] = trade
	}
	assert.NotNil(t, byID["AAA"].CurrentPrice)
	assert.Nil(t, byID["MISSING"].CurrentPrice)
	assert.Nil(t, byID["MISSING"].UnrealizedPnL)
}

func TestUpdateActiveTradesSkipsClosed(t *testing.T) {
	prices := &stubPrices{closes: map[string]float64{"AAA": 108}}
	ledger := newTestLedger(t, prices)

	id, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)
	require.NoError(t, ledger.CloseTrade(id, 110, "target hit"))

	require.NoError(t, ledger.UpdateActiveTrades())

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	assert.Nil(t, trades[0].CurrentPrice)
	assert.Equal(t, models.TradeStatusClosed, trades[0].Status)
}

func TestCloseTrade(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	id, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)

	require.NoError(t, ledger.CloseTrade(id, 110, "target hit"))

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	trade := trades[0]
	assert.Equal(t, models.TradeStatusClosed, trade.Status)
	assert.Equal(t, "2025-05-02", trade.ExitDate)
	assert.Equal(t, "target hit", trade.ExitReason)
	require.NotNil(t, trade.ExitPrice)
	assert.InDelta(t, 110, *trade.ExitPrice, 1e-9)
	require.NotNil(t, trade.RealizedPnL)
	assert.InDelta(t, 10.0, *trade.RealizedPnL, 1e-9)
	require.NotNil(t, trade.HoldingPeriod)
}

func TestCloseTradeIdempotent(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})

	id, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)
	require.NoError(t, ledger.CloseTrade(id, 110, "target hit"))

	// A second close succeeds but keeps the original exit
	require.NoError(t, ledger.CloseTrade(id, 50, "changed my mind"))

	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	require.NotNil(t, trades[0].ExitPrice)
	assert.InDelta(t, 110, *trades[0].ExitPrice, 1e-9)
	assert.Equal(t, "target hit", trades[0].ExitReason)
}

func TestCloseTradeNotFound(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})
	err := ledger.CloseTrade("20990101000000000000", 10, "")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestLedgerPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewLedger(dir, &stubPrices{})
	require.NoError(t, err)
	ledger.now = func() time.Time {
		return time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	}

	id, err := ledger.TrackSignal(trackedSignal())
	require.NoError(t, err)

	reopened, err := NewLedger(dir, &stubPrices{})
	require.NoError(t, err)
	trades, err := reopened.ListTrades()
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, id, trades[0].TradeID)
	require.NotNil(t, trades[0].RiskRewardRatio)
	assert.InDelta(t, 2.0, *trades[0].RiskRewardRatio, 1e-9)
}

func TestListTradesEmptyLedger(t *testing.T) {
	ledger := newTestLedger(t, &stubPrices{})
	trades, err := ledger.ListTrades()
	require.NoError(t, err)
	assert.Empty(t, trades)
}
