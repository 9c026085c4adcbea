package score

import (
	"time"

	"github.com/tokenscout/tokenscout/internal/model"
)

// Composition weights; each sub-score is normalized by its own ceiling before
// weighting, so the weighted total spans 0-100.
const (
	weightPlatform   = 0.40
	weightMomentum   = 0.30
	weightSafety     = 0.20
	weightValidation = 0.10

	maxPlatform   = 50.0
	maxMomentum   = 38.0
	maxSafety     = 25.0
	maxValidation = 12.0
)

// Compose combines normalized sub-scores into a 0-100 conviction score.
func Compose(platform, momentum, safety, validation float64) float64 {
	total := platform/maxPlatform*weightPlatform*100 +
		momentum/maxMomentum*weightMomentum*100 +
		safety/maxSafety*weightSafety*100 +
		validation/maxValidation*weightValidation*100
	return clamp(total, 0, 100)
}

// Conviction computes the full stage-4 score with all short-timeframe inputs
// and fills the candidate's breakdown. The caller applies the age-aware
// confidence adjustment afterwards.
func Conviction(c *model.Candidate, now time.Time) (float64, model.Breakdown) {
	platform := Platform(c, now)
	momentum := Momentum(c)
	safety := Safety(c)
	validation := CrossPlatform(c)

	total := Compose(platform, momentum, safety, validation)
	return total, model.Breakdown{
		Platform:      platform,
		Momentum:      momentum,
		Safety:        safety,
		Validation:    validation,
		WeightedTotal: total,
	}
}

// ConvictionBasic is the variant without short-timeframe inputs: identical
// composition but the momentum term ignores the expensive 15m/30m fields.
// No pipeline stage calls it.
func ConvictionBasic(c *model.Candidate, now time.Time) float64 {
	return Compose(Platform(c, now), MomentumBasic(c), Safety(c), CrossPlatform(c))
}
