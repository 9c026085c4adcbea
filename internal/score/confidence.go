package score

import (
	"github.com/tokenscout/tokenscout/internal/model"
)

// ConfidenceResult pairs the age-aware confidence label with its
// multiplicative score adjustment.
type ConfidenceResult struct {
	Label      model.Confidence
	Multiplier float64
}

// shortTimeframeFields enumerates the velocity fields coverage is measured
// over.
func shortTimeframeFields(c *model.Candidate) []float64 {
	return []float64{
		c.Volume5m, c.Volume15m, c.Volume30m, c.Volume1h, c.Volume6h,
		c.PriceChange5m, c.PriceChange15m, c.PriceChange30m, c.PriceChange1h, c.PriceChange6h,
		c.Trades5m, c.Trades15m, c.Trades30m, c.Trades1h,
	}
}

// Coverage returns the fraction of short-timeframe fields that carry data.
func Coverage(c *model.Candidate) float64 {
	fields := shortTimeframeFields(c)
	populated := 0
	for _, v := range fields {
		if v != 0 {
			populated++
		}
	}
	return float64(populated) / float64(len(fields))
}

// AssessConfidence grades data confidence as a function of token age and
// short-timeframe coverage. Very new tokens are not penalized for sparse
// data; tokens old enough to have history are.
func AssessConfidence(c *model.Candidate, ageMinutes float64) ConfidenceResult {
	if ageMinutes < 0 {
		// Unknown age is graded on the strictest bucket.
		ageMinutes = 12*60 + 1
	}
	cov := Coverage(c)

	switch {
	case ageMinutes <= 30:
		if earlyActivity(c) {
			return ConfidenceResult{model.ConfidenceEarlyDetection, 1.05}
		}
		return ConfidenceResult{model.ConfidenceMedium, 1.00}

	case ageMinutes <= 2*60:
		switch {
		case cov >= 0.50:
			return ConfidenceResult{model.ConfidenceHigh, 1.02}
		case cov >= 0.30:
			return ConfidenceResult{model.ConfidenceMedium, 0.98}
		default:
			return ConfidenceResult{model.ConfidenceLow, 0.95}
		}

	case ageMinutes <= 12*60:
		switch {
		case cov >= 0.67:
			return ConfidenceResult{model.ConfidenceHigh, 1.02}
		case cov >= 0.50:
			return ConfidenceResult{model.ConfidenceMedium, 0.98}
		default:
			return ConfidenceResult{model.ConfidenceLow, 0.95}
		}

	default:
		switch {
		case cov >= 0.83:
			return ConfidenceResult{model.ConfidenceHigh, 1.02}
		case cov >= 0.67:
			return ConfidenceResult{model.ConfidenceMedium, 0.98}
		case cov >= 0.33:
			return ConfidenceResult{model.ConfidenceLow, 0.95}
		default:
			return ConfidenceResult{model.ConfidenceVeryLow, 0.90}
		}
	}
}

// earlyActivity checks whether a very new token already shows meaningful
// short-term movement: both 5m and 15m activity plus agreement across at
// least two short timeframes.
func earlyActivity(c *model.Candidate) bool {
	if c.Volume5m == 0 || c.Volume15m == 0 {
		return false
	}
	positives, negatives := 0, 0
	for _, ch := range []float64{c.PriceChange5m, c.PriceChange15m, c.PriceChange30m} {
		if ch > 0 {
			positives++
		} else if ch < 0 {
			negatives++
		}
	}
	return positives >= 2 || negatives >= 2
}
