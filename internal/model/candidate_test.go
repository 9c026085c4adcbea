package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeMinutes(t *testing.T) {
	now := time.Now()

	explicit := Candidate{EstimatedAgeMinutes: 42}
	assert.Equal(t, 42.0, explicit.AgeMinutes(now))

	graduated := Candidate{Source: SourceGraduated, HoursSinceGraduation: 2, EstimatedAgeMinutes: AgeUnknown}
	assert.Equal(t, 120.0, graduated.AgeMinutes(now))

	discovered := Candidate{DiscoveryTime: now.Add(-30 * time.Minute), EstimatedAgeMinutes: AgeUnknown}
	assert.InDelta(t, 30.0, discovered.AgeMinutes(now), 0.1)

	unknown := Candidate{EstimatedAgeMinutes: AgeUnknown}
	assert.Equal(t, AgeUnknown, unknown.AgeMinutes(now))
}

func TestValidAddress(t *testing.T) {
	good := Candidate{TokenKey: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"}
	assert.True(t, good.ValidAddress())

	bad := Candidate{TokenKey: "not-an-address"}
	assert.False(t, bad.ValidAddress())

	empty := Candidate{}
	assert.False(t, empty.ValidAddress())
}

func TestReasonableSymbol(t *testing.T) {
	assert.True(t, (&Candidate{Symbol: "BONK"}).ReasonableSymbol())
	assert.False(t, (&Candidate{Symbol: ""}).ReasonableSymbol())
	assert.False(t, (&Candidate{Symbol: "WAYTOOLONGSYMBOL"}).ReasonableSymbol())
	assert.False(t, (&Candidate{Symbol: "unknown"}).ReasonableSymbol())
}

func TestLessOrdering(t *testing.T) {
	scoreOf := func(c *Candidate) float64 { return c.FinalScore }

	a := &Candidate{TokenKey: "aaa", FinalScore: 80}
	b := &Candidate{TokenKey: "bbb", FinalScore: 70}
	assert.True(t, Less(a, b, scoreOf))
	assert.False(t, Less(b, a, scoreOf))

	// Equal scores fall back to source priority, then token key.
	c := &Candidate{TokenKey: "ccc", FinalScore: 70, Source: SourceBonding}
	d := &Candidate{TokenKey: "ddd", FinalScore: 70, Source: SourceTrending}
	assert.True(t, Less(c, d, scoreOf))

	e := &Candidate{TokenKey: "eee", FinalScore: 70, Source: SourceTrending}
	assert.True(t, Less(d, e, scoreOf))
}
