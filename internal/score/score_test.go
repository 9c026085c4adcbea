package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tokenscout/tokenscout/internal/model"
)

func exceptionalCandidate() *model.Candidate {
	return &model.Candidate{
		TokenKey:              "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		Symbol:                "MOON",
		Source:                model.SourceBonding,
		EstimatedAgeMinutes:   4,
		MarketCap:             200_000,
		Liquidity:             80_000,
		Volume24h:             150_000,
		Trades24h:             2000,
		UniqueTraders24h:      600,
		BondingCurveProgress:  78,
		Volume5m:              9_000,
		Volume15m:             30_000,
		Volume30m:             18_000,
		Volume1h:              60_000,
		Volume6h:              90_000,
		PriceChange5m:         4,
		PriceChange15m:        9,
		PriceChange30m:        7,
		PriceChange1h:         12,
		PriceChange6h:         20,
		PriceChange24h:        35,
		Trades15m:             80,
		Trades30m:             120,
		Trades1h:              200,
		SecurityScore:         90,
		DevHoldingPct:         2,
		HoneypotRisk:          model.HoneypotLow,
		LiquidityLocked:       true,
		VerifiedContract:      true,
		AttestedProviderCount: 4,
		PremiumProviderCount:  2,
	}
}

func TestPlatformBounds(t *testing.T) {
	now := time.Now()

	empty := &model.Candidate{EstimatedAgeMinutes: model.AgeUnknown}
	assert.GreaterOrEqual(t, Platform(empty, now), 0.0)
	assert.LessOrEqual(t, Platform(empty, now), 50.0)

	rich := exceptionalCandidate()
	p := Platform(rich, now)
	assert.Greater(t, p, 30.0)
	assert.LessOrEqual(t, p, 50.0)
}

func TestPlatformAgeDecay(t *testing.T) {
	now := time.Now()
	fresh := exceptionalCandidate()
	stale := exceptionalCandidate()
	stale.EstimatedAgeMinutes = 48 * 60

	assert.Greater(t, Platform(fresh, now), Platform(stale, now))
}

func TestMomentumNeverNaN(t *testing.T) {
	empty := &model.Candidate{}
	m := Momentum(empty)
	assert.Equal(t, m, m) // NaN != NaN
	assert.GreaterOrEqual(t, m, 0.0)
	assert.LessOrEqual(t, m, 38.0)
}

func TestVolumeAccelerationThresholds(t *testing.T) {
	// Short ratio 30000/(18000/2) > 3 and medium ratio 60000/(90000/6) > 2
	// both hit their top bands, so the full 15 points are awarded.
	c := exceptionalCandidate()
	assert.InDelta(t, 15.0, VolumeAcceleration(c), 0.01)

	// Missing short-timeframe data contributes zero, not NaN.
	sparse := &model.Candidate{Volume1h: 1000, Volume6h: 6000}
	assert.Equal(t, 0.0, VolumeAcceleration(sparse))
}

func TestMomentumCascadeAgreementBonus(t *testing.T) {
	agreeing := &model.Candidate{PriceChange5m: 3, PriceChange15m: 5, PriceChange30m: 2}
	split := &model.Candidate{PriceChange5m: 3, PriceChange15m: -5}
	assert.Greater(t, MomentumCascade(agreeing), MomentumCascade(split))
}

func TestActivitySurge(t *testing.T) {
	// 120 trades/15m against a 1440/day baseline is a 8x surge.
	surging := &model.Candidate{Trades24h: 1440, Trades15m: 120, UniqueTraders24h: 600}
	assert.Greater(t, ActivitySurge(surging), 5.0)
	assert.LessOrEqual(t, ActivitySurge(surging), 10.0)

	quiet := &model.Candidate{}
	assert.Equal(t, 0.0, ActivitySurge(quiet))
}

func TestSafetyBounds(t *testing.T) {
	risky := &model.Candidate{
		DevHoldingPct: 40,
		HoneypotRisk:  model.HoneypotHigh,
	}
	safe := exceptionalCandidate()

	assert.Greater(t, Safety(safe), Safety(risky))
	assert.GreaterOrEqual(t, Safety(risky), 0.0)
	assert.LessOrEqual(t, Safety(safe), 25.0)
}

func TestCrossPlatform(t *testing.T) {
	assert.Equal(t, 0.0, CrossPlatform(&model.Candidate{}))
	assert.Equal(t, 2.0, CrossPlatform(&model.Candidate{AttestedProviderCount: 1}))
	assert.Equal(t, 5.0, CrossPlatform(&model.Candidate{AttestedProviderCount: 2}))
	assert.Equal(t, 12.0, CrossPlatform(&model.Candidate{AttestedProviderCount: 5, PremiumProviderCount: 2}))
}

func TestComposeBoundaries(t *testing.T) {
	// All sub-scores at their minimum compose to exactly zero.
	assert.Equal(t, 0.0, Compose(0, 0, 0, 0))

	// All sub-scores at their ceiling compose to exactly 100.
	assert.Equal(t, 100.0, Compose(50, 38, 25, 12))

	// Overflow is clamped.
	assert.Equal(t, 100.0, Compose(60, 50, 30, 20))
}

func TestConvictionExceptional(t *testing.T) {
	total, breakdown := Conviction(exceptionalCandidate(), time.Now())
	assert.GreaterOrEqual(t, total, 90.0, "exceptional inputs should score >= 90 pre-adjustment")
	assert.LessOrEqual(t, total, 100.0)
	assert.Equal(t, total, breakdown.WeightedTotal)
}

func TestConvictionBasicIgnoresShortTimeframes(t *testing.T) {
	c := exceptionalCandidate()
	basic := ConvictionBasic(c, time.Now())
	full, _ := Conviction(c, time.Now())
	assert.Less(t, basic, full, "short-timeframe data should add conviction")
}
