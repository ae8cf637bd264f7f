package signals

import (
	"signalscan_backend/config"
	"signalscan_backend/models"
)

// stopDistanceEpsilon guards the risk/reward denominator
const stopDistanceEpsilon = 1e-9

// TradeParams are the executable levels derived for a detected setup
type TradeParams struct {
	EntryPrice      float64
	StopLossPrice   float64
	TargetPrice     float64
	RiskRewardRatio *float64
	ATR             float64
}

// CalculateTradeParams derives entry, stop and target from the latest close
// and the volatility at detection time. The stop and target offsets scale
// with ATR using the per-setup multipliers.
func CalculateTradeParams(last models.FeatureRow, setupType string, params config.StrategyParams) TradeParams {
	mult := params.MultipliersFor(setupType)

	entry := last.Close
	stop := entry - mult.Stop*last.ATR
	target := entry + mult.Target*last.ATR

	return TradeParams{
		EntryPrice:      entry,
		StopLossPrice:   stop,
		TargetPrice:     target,
		RiskRewardRatio: RiskReward(entry, stop, target),
		ATR:             last.ATR,
	}
}

// RiskReward computes (target-entry)/(entry-stop). Returns nil when the
// stop sits on or above the entry within epsilon, since the ratio is
// undefined there rather than zero.
func RiskReward(entry, stop, target float64) *float64 {
	risk := entry - stop
	if risk <= stopDistanceEpsilon {
		return nil
	}
	rr := (target - entry) / risk
	return &rr
}
