package discovery

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
)

// Record is the raw discovery-source output handed to the engine. Only the
// token key, symbol, source and discovery time are mandatory; everything else
// is best effort.
type Record struct {
	TokenKey      string       `json:"token_key"`
	Symbol        string       `json:"symbol"`
	DisplayName   string       `json:"display_name,omitempty"`
	Source        model.Source `json:"source"`
	DiscoveryTime time.Time    `json:"discovery_time"`

	AgeMinutes           float64 `json:"estimated_age_minutes,omitempty"`
	MarketCap            float64 `json:"market_cap,omitempty"`
	Price                float64 `json:"price,omitempty"`
	Liquidity            float64 `json:"liquidity,omitempty"`
	Volume24h            float64 `json:"volume_24h,omitempty"`
	Trades24h            float64 `json:"trades_24h,omitempty"`
	HolderCount          int     `json:"holder_count,omitempty"`
	BondingCurveProgress float64 `json:"bonding_curve_progress,omitempty"`
	HoursSinceGraduation float64 `json:"hours_since_graduation,omitempty"`
	SolRaisedCurrent     float64 `json:"sol_raised_current,omitempty"`
	SecurityScore        float64 `json:"security_score,omitempty"`
}

// Normalize converts raw discovery records into pipeline candidates. Records
// missing a mandatory key are dropped silently; the drop count is returned
// for the cost report.
func Normalize(records []Record, now time.Time) ([]model.Candidate, int) {
	out := make([]model.Candidate, 0, len(records))
	dropped := 0

	for _, r := range records {
		if r.TokenKey == "" || r.Symbol == "" || r.Source == "" {
			dropped++
			continue
		}
		discoveryTime := r.DiscoveryTime
		if discoveryTime.IsZero() {
			discoveryTime = now
		}
		age := model.AgeUnknown
		switch {
		case r.AgeMinutes > 0:
			age = r.AgeMinutes
		case r.HoursSinceGraduation > 0:
			age = r.HoursSinceGraduation * 60
		}

		out = append(out, model.Candidate{
			TokenKey:             r.TokenKey,
			Symbol:               r.Symbol,
			DisplayName:          r.DisplayName,
			Source:               r.Source,
			DiscoveryTime:        discoveryTime,
			EstimatedAgeMinutes:  age,
			MarketCap:            r.MarketCap,
			Price:                r.Price,
			Liquidity:            r.Liquidity,
			Volume24h:            r.Volume24h,
			Trades24h:            r.Trades24h,
			HolderCount:          r.HolderCount,
			BondingCurveProgress: r.BondingCurveProgress,
			HoursSinceGraduation: r.HoursSinceGraduation,
			SolRaisedCurrent:     r.SolRaisedCurrent,
			SecurityScore:        r.SecurityScore,
			DevHoldingPct:        -1, // unknown until enrichment supplies it
			HoneypotRisk:         model.HoneypotUnknown,
			Stage:                model.StageDiscovery,
		})
	}

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("discovery records missing mandatory keys")
	}
	return out, dropped
}
