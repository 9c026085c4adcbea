package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
)

// Stats is the call accounting one enrichment pass produced.
type Stats struct {
	BatchCalls      int
	IndividualCalls int
	CacheHits       int
	CacheMisses     int
	Partial         bool
	AuthFailed      bool
	FailedKeys      int
}

// Fetcher pulls provider fields for a candidate list and merges them in under
// the documented precedence. All outbound traffic flows through the batch
// planner, which in turn uses the shared gate and breaker.
type Fetcher struct {
	registry *provider.Registry
	planner  *provider.Planner
	cache    Cache
	cacheTTL time.Duration
	premium  map[string]bool

	mu         sync.Mutex
	authFailed map[string]bool
}

// NewFetcher assembles an enrichment fetcher. A nil cache disables caching.
func NewFetcher(registry *provider.Registry, planner *provider.Planner, cache Cache, cacheTTL time.Duration) *Fetcher {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Fetcher{
		registry:   registry,
		planner:    planner,
		cache:      cache,
		cacheTTL:   cacheTTL,
		premium:    make(map[string]bool),
		authFailed: make(map[string]bool),
	}
}

// BeginCycle clears per-cycle state; auth failures are fatal for a provider
// only until the next cycle starts.
func (f *Fetcher) BeginCycle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authFailed = make(map[string]bool)
}

// MarkPremium flags a provider as premium for cross-platform scoring.
func (f *Fetcher) MarkPremium(providerName string) {
	f.premium[providerName] = true
}

// Enrich fetches the field set from the named provider for every candidate in
// the list and merges responses in. Candidates whose fetch failed everywhere
// stay in the pipeline with their original fields and a low data-quality flag.
func (f *Fetcher) Enrich(ctx context.Context, candidates []*model.Candidate, providerName string, fields provider.FieldSet, merger *Merger) Stats {
	var stats Stats
	adapter := f.registry.Get(providerName)
	if adapter == nil {
		log.Warn().Str("provider", providerName).Msg("enrichment skipped, no adapter registered")
		return stats
	}
	f.mu.Lock()
	skip := f.authFailed[providerName]
	f.mu.Unlock()
	if skip {
		log.Warn().Str("provider", providerName).Msg("enrichment skipped, auth failed earlier this cycle")
		return stats
	}
	limits := f.registry.LimitsFor(providerName)

	byKey := make(map[string]*model.Candidate, len(candidates))
	var missing []string
	for _, c := range candidates {
		byKey[c.TokenKey] = c
		if f.cache != nil {
			if rec, ok := f.cache.Get(ctx, providerName, c.TokenKey); ok {
				stats.CacheHits++
				f.apply(merger, c, *rec, providerName)
				continue
			}
			stats.CacheMisses++
		}
		missing = append(missing, c.TokenKey)
	}
	if len(missing) == 0 {
		return stats
	}

	res := f.planner.Fetch(ctx, providerName, missing, limits.BatchSize,
		func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error) {
			callCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
			defer cancel()
			return adapter.BatchFetch(callCtx, keys, fields)
		},
		func(ctx context.Context, key string) (*model.PartialRecord, error) {
			callCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
			defer cancel()
			return adapter.SingleFetch(callCtx, key, fields)
		},
	)

	stats.BatchCalls += res.BatchCalls
	stats.IndividualCalls += res.IndividualCalls
	stats.Partial = res.Partial
	stats.AuthFailed = res.AuthFailed
	if res.AuthFailed {
		f.mu.Lock()
		f.authFailed[providerName] = true
		f.mu.Unlock()
		log.Error().Str("provider", providerName).Msg("provider auth failed, skipping for the rest of the cycle")
	}

	for _, key := range missing {
		c := byKey[key]
		rec, ok := res.Records[key]
		if !ok {
			stats.FailedKeys++
			if c.DataQuality == "" {
				c.DataQuality = model.QualityLow
			}
			continue
		}
		if f.cache != nil {
			f.cache.Set(ctx, providerName, key, rec, f.cacheTTL)
		}
		f.apply(merger, c, rec, providerName)
	}
	return stats
}

func (f *Fetcher) apply(merger *Merger, c *model.Candidate, rec model.PartialRecord, providerName string) {
	if rec.Provider == "" {
		rec.Provider = providerName
	}
	merger.Apply(c, rec)
	if f.premium[providerName] {
		c.PremiumProviderCount++
	}
}
