package score

import (
	"time"

	"github.com/tokenscout/tokenscout/internal/model"
)

// sourceBase is the platform base score per discovery channel.
var sourceBase = map[model.Source]float64{
	model.SourceTrending:         6,
	model.SourceGraduated:        8,
	model.SourceBonding:          15,
	model.SourceEcosystemBonding: 12,
	model.SourceLiveEvent:        6,
}

// Platform scores how promising the candidate's launch platform context is,
// 0-50. The sum of base, velocity, stage-progression, age and graduation
// timing bonuses is decayed by token age and clamped.
func Platform(c *model.Candidate, now time.Time) float64 {
	total := sourceBase[c.Source]
	total += velocityBonus(c)
	total += progressionBonus(c)

	age := c.AgeMinutes(now)
	total += ageBonus(age)
	total += graduationTimingBonus(c)

	total *= ageDecay(age)
	return clamp(total, 0, 50)
}

// velocityBonus rewards USD-per-hour trading velocity, 0-12.
func velocityBonus(c *model.Candidate) float64 {
	if c.Volume24h <= 0 {
		return 0
	}
	usdPerHour := c.Volume24h / 24
	switch {
	case usdPerHour >= 5000:
		return 12
	case usdPerHour >= 2000:
		return 10
	case usdPerHour >= 500:
		return 6
	case usdPerHour >= 100:
		return 3
	default:
		return 0
	}
}

// progressionBonus rewards advancement along the source's lifecycle, 0-10.
func progressionBonus(c *model.Candidate) float64 {
	switch c.Source {
	case model.SourceBonding:
		p := c.BondingCurveProgress
		switch {
		case p >= 95:
			return 10
		case p >= 85:
			return 8
		case p >= 70:
			return 6
		case p >= 50:
			return 4
		case p >= 25:
			return 2
		}
	case model.SourceEcosystemBonding:
		sol := c.SolRaisedCurrent
		switch {
		case sol >= 75:
			return 10
		case sol >= 50:
			return 8
		case sol >= 25:
			return 5
		case sol >= 10:
			return 2
		}
	case model.SourceGraduated:
		// Curve already completed; a recorded full curve scores higher.
		if c.BondingCurveProgress >= 100 {
			return 8
		}
		return 5
	}
	return 0
}

// ageBonus rewards very fresh tokens, 0-6.
func ageBonus(ageMinutes float64) float64 {
	if ageMinutes < 0 {
		return 0
	}
	switch {
	case ageMinutes <= 5:
		return 6
	case ageMinutes <= 15:
		return 5
	case ageMinutes <= 30:
		return 4
	case ageMinutes <= 60:
		return 3
	case ageMinutes <= 180:
		return 1
	default:
		return 0
	}
}

// graduationTimingBonus peaks in the 50-80% bonding window and penalizes
// candidates about to graduate, -3..+4.
func graduationTimingBonus(c *model.Candidate) float64 {
	if c.Source != model.SourceBonding || c.BondingCurveProgress <= 0 {
		return 0
	}
	p := c.BondingCurveProgress
	switch {
	case p >= 85:
		return -3
	case p > 80:
		return 1
	case p >= 50:
		return 4
	default:
		return 0
	}
}

// ageDecay discounts older tokens; unknown age is not penalized.
func ageDecay(ageMinutes float64) float64 {
	if ageMinutes < 0 {
		return 1.0
	}
	switch {
	case ageMinutes <= 60:
		return 1.0
	case ageMinutes <= 6*60:
		return 0.95
	case ageMinutes <= 24*60:
		return 0.85
	default:
		return 0.70
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
