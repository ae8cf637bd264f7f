package signals

import (
	"signalscan_backend/config"
	"signalscan_backend/models"
)

// SetupRule is one entry-setup predicate over a feature series
type SetupRule interface {
	Name() string
	Tier() string
	Matches(series *models.FeatureSeries, params config.StrategyParams) bool
}

// Detection is the outcome of running the rule chain on the latest bar
type Detection struct {
	SetupType string
	Tier      string
}

// Detector evaluates the fixed-priority rule chain. The first matching
// rule wins; later rules are never consulted for that symbol.
type Detector struct {
	rules []SetupRule
}

// NewDetector builds the detector with the built-in rules in priority order
func NewDetector() *Detector {
	return &Detector{
		rules: []SetupRule{
			&VolumeSpikeRule{},
			&BottomTurnRule{},
			&TrendPullbackRule{},
			&MAReclaimRule{},
		},
	}
}

// Detect runs the chain against the most recent bar of the series
func (d *Detector) Detect(series *models.FeatureSeries, params config.StrategyParams) Detection {
	if _, ok := series.Last(); !ok {
		return Detection{SetupType: models.SetupNone}
	}

	for _, rule := range d.rules {
		if rule.Matches(series, params) {
			return Detection{SetupType: rule.Name(), Tier: rule.Tier()}
		}
	}
	return Detection{SetupType: models.SetupNone}
}

// VolumeSpikeRule fires on an unusually heavy up day
type VolumeSpikeRule struct{}

func (r *VolumeSpikeRule) Name() string { return models.SetupVolumeSpike }
func (r *VolumeSpikeRule) Tier() string { return models.TierHigh }

func (r *VolumeSpikeRule) Matches(series *models.FeatureSeries, params config.StrategyParams) bool {
	last, ok := series.Last()
	if !ok {
		return false
	}
	return last.VolumeRatio >= params.VolumeSpikeThreshold && last.CloseVsOpen > 0
}

// BottomTurnRule fires when RSI crosses back up through the oversold floor
// on a thick green candle. The cross may have started one or two bars back.
type BottomTurnRule struct{}

func (r *BottomTurnRule) Name() string { return models.SetupBottomTurn }
func (r *BottomTurnRule) Tier() string { return models.TierMedium }

func (r *BottomTurnRule) Matches(series *models.FeatureSeries, params config.StrategyParams) bool {
	last, ok := series.Last()
	if !ok || !last.ThickGreenCandle {
		return false
	}
	if last.RSI <= params.OversoldFloor {
		return false
	}

	prev, okPrev := series.At(1)
	prev2, okPrev2 := series.At(2)
	crossedFromPrev := okPrev && prev.RSI < params.OversoldFloor
	crossedFromPrev2 := okPrev2 && prev2.RSI < params.OversoldFloor
	return crossedFromPrev || crossedFromPrev2
}

// TrendPullbackRule fires on a dip to the 20-day average inside an uptrend
type TrendPullbackRule struct{}

func (r *TrendPullbackRule) Name() string { return models.SetupTrendPullback }
func (r *TrendPullbackRule) Tier() string { return models.TierMedium }

func (r *TrendPullbackRule) Matches(series *models.FeatureSeries, params config.StrategyParams) bool {
	last, ok := series.Last()
	if !ok {
		return false
	}
	if last.MA50 <= last.MA200 {
		return false
	}
	if last.MA20 == 0 {
		return false
	}

	band := params.PullbackBandPct
	dist := (last.Close - last.MA20) / last.MA20
	if dist < -band || dist > band {
		return false
	}
	return last.RSI < 50
}

// MAReclaimRule fires when price closes back above the 50-day average
// within the last two bars on a green candle
type MAReclaimRule struct{}

func (r *MAReclaimRule) Name() string { return models.SetupMAReclaim }
func (r *MAReclaimRule) Tier() string { return models.TierLow }

func (r *MAReclaimRule) Matches(series *models.FeatureSeries, params config.StrategyParams) bool {
	last, ok := series.Last()
	if !ok || last.CloseVsOpen <= 0 {
		return false
	}
	if last.Close <= last.MA50 {
		return false
	}

	prev, okPrev := series.At(1)
	prev2, okPrev2 := series.At(2)
	belowPrev := okPrev && prev.Close <= prev.MA50
	belowPrev2 := okPrev2 && prev2.Close <= prev2.MA50
	return belowPrev || belowPrev2
}
