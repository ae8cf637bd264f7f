package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// StrategyParamsFile is the persisted scan tuning file
const StrategyParamsFile = "data/strategy_params.json"

// ATRMultipliers control stop and target distances for one setup type
type ATRMultipliers struct {
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
}

// StrategyParams holds all tunables for the daily scan
type StrategyParams struct {
	MinDataDays           int                       `json:"min_data_days"`
	RSIPeriod             int                       `json:"rsi_period"`
	ATRPeriod             int                       `json:"atr_period"`
	VolumeBaselineDays    int                       `json:"volume_baseline_days"`
	OversoldFloor         float64                   `json:"oversold_floor"`
	VolumeSpikeThreshold  float64                   `json:"volume_spike_threshold"`
	PullbackBandPct       float64                   `json:"pullback_band_pct"`
	PrioritizeVolumeSpike bool                      `json:"prioritize_volume_spike"`
	MinScore              float64                   `json:"min_score"`
	RRWeight              float64                   `json:"rr_weight"`
	RRCap                 float64                   `json:"rr_cap"`
	Multipliers           map[string]ATRMultipliers `json:"atr_multipliers"`
}

// DefaultStrategyParams returns the built-in scan tuning
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		MinDataDays:           200,
		RSIPeriod:             14,
		ATRPeriod:             14,
		VolumeBaselineDays:    20,
		OversoldFloor:         30,
		VolumeSpikeThreshold:  2.0,
		PullbackBandPct:       0.02,
		PrioritizeVolumeSpike: true,
		MinScore:              0.45,
		RRWeight:              10,
		RRCap:                 4,
		Multipliers: map[string]ATRMultipliers{
			"VOLUME_SPIKE":   {Stop: 1.5, Target: 3.0},
			"BOTTOM_TURN":    {Stop: 2.0, Target: 3.0},
			"TREND_PULLBACK": {Stop: 1.5, Target: 2.5},
			"MA_RECLAIM":     {Stop: 2.0, Target: 2.5},
		},
	}
}

// MultipliersFor returns the ATR multipliers for a setup type, falling back
// to a conservative default for unknown types.
func (p StrategyParams) MultipliersFor(setupType string) ATRMultipliers {
	if m, ok := p.Multipliers[setupType]; ok {
		return m
	}
	return ATRMultipliers{Stop: 2.0, Target: 2.5}
}

// LoadStrategyParams reads the params file, returning defaults when absent
func LoadStrategyParams() StrategyParams {
	params := DefaultStrategyParams()
	data, err := os.ReadFile(StrategyParamsFile)
	if err != nil {
		return params
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return DefaultStrategyParams()
	}
	return params
}

// SaveStrategyParams persists the params file
func SaveStrategyParams(params StrategyParams) error {
	if err := os.MkdirAll(filepath.Dir(StrategyParamsFile), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(StrategyParamsFile, data, 0644)
}
