package signals

import (
	"signalscan_backend/config"
	"signalscan_backend/models"
)

// Base scores per setup type, on the 0-100 scale the final score is
// normalised from. Volume spikes score higher only when the scan is
// configured to prefer them.
const (
	baseScoreVolumeSpike   = 35.0
	baseScoreBottomTurn    = 25.0
	baseScoreTrendPullback = 25.0
	baseScoreMAReclaim     = 20.0
	baseScoreDefault       = 15.0
)

// Candidate is one symbol that produced a setup, before ranking
type Candidate struct {
	Symbol      string
	Segment     string
	Date        string
	SetupType   string
	Tier        string
	Score       float64
	Params      TradeParams
	LatestClose float64

	Hist *models.HistoricalPerformance
}

// ScoreCandidate computes the normalised probability score in [0, 1].
// A defined risk/reward adds a capped, weighted contribution on top of
// the setup's base score.
func ScoreCandidate(setupType string, rr *float64, params config.StrategyParams) float64 {
	var base float64
	switch setupType {
	case models.SetupVolumeSpike:
		if params.PrioritizeVolumeSpike {
			base = baseScoreVolumeSpike
		} else {
			base = baseScoreBottomTurn
		}
	case models.SetupBottomTurn:
		base = baseScoreBottomTurn
	case models.SetupTrendPullback:
		base = baseScoreTrendPullback
	case models.SetupMAReclaim:
		base = baseScoreMAReclaim
	default:
		base = baseScoreDefault
	}

	score := base
	if rr != nil {
		contribution := *rr
		if contribution > params.RRCap {
			contribution = params.RRCap
		}
		if contribution > 0 {
			score += params.RRWeight * contribution
		}
	}

	normalised := score / 100
	if normalised > 1 {
		normalised = 1
	}
	if normalised < 0 {
		normalised = 0
	}
	return normalised
}

// PassesFilter reports whether a scored candidate clears the probability
// gate. Candidates without a defined risk/reward never pass.
func PassesFilter(c *Candidate, params config.StrategyParams) bool {
	if c.Params.RiskRewardRatio == nil {
		return false
	}
	return c.Score >= params.MinScore
}
