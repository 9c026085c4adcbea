package app

import (
	"context"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/adapters/birdeye"
	"github.com/tokenscout/tokenscout/internal/adapters/dexscreener"
	"github.com/tokenscout/tokenscout/internal/alerted"
	"github.com/tokenscout/tokenscout/internal/config"
	"github.com/tokenscout/tokenscout/internal/enrich"
	"github.com/tokenscout/tokenscout/internal/metrics"
	"github.com/tokenscout/tokenscout/internal/pipeline"
	"github.com/tokenscout/tokenscout/internal/provider"
)

// App wires the engine together from configuration: gate, breaker, adapters,
// enrichment, alerted set and the pipeline controller. It replaces any global
// client state with one explicitly passed context value.
type App struct {
	Config     config.Config
	Controller *pipeline.Controller
	Alerted    alerted.Set
	Metrics    *metrics.Collector

	breaker   *provider.Breaker
	providers []string
	journal   *alerted.BreakerJournal
}

// New assembles the engine. Providers disabled in config are skipped; when no
// premium OHLCV provider is enabled, stage 4 falls back to basic scoring.
func New(cfg config.Config, collector *metrics.Collector) *App {
	gate := provider.NewGate()
	breaker := provider.NewBreaker(provider.BreakerConfig{
		FailThreshold: cfg.Breaker.FailThreshold,
		FailureWindow: time.Duration(cfg.Breaker.WindowSecs) * time.Second,
		Cooldown:      time.Duration(cfg.Breaker.CooldownSecs) * time.Second,
	})
	registry := provider.NewRegistry()
	planner := provider.NewPlanner(gate, breaker)

	var cache enrich.Cache = enrich.NewMemoryCache()
	if cfg.Cache.RedisAddr != "" {
		cache = enrich.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr}))
	}
	fetcher := enrich.NewFetcher(registry, planner, cache, cfg.CacheTTL())

	var metadataProvider, ohlcvProvider string
	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		limits := provider.Limits{
			Gate: provider.GateLimits{
				Concurrency: pc.Concurrency,
				MinSpacing:  time.Duration(pc.SpacingMS) * time.Millisecond,
			},
			BatchSize: pc.BatchSize,
			Timeout:   time.Duration(pc.TimeoutSecs) * time.Second,
			Premium:   pc.Premium,
		}
		gate.Configure(name, limits.Gate)

		switch name {
		case "birdeye":
			registry.Register(birdeye.New(pc.BaseURL, os.Getenv(pc.APIKeyEnv), limits.Timeout), limits)
			ohlcvProvider = name
			if metadataProvider == "" {
				metadataProvider = name
			}
		case "dexscreener":
			registry.Register(dexscreener.New(pc.BaseURL, limits.Timeout), limits)
			metadataProvider = name
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in config, skipped")
			continue
		}
		if pc.Premium {
			fetcher.MarkPremium(name)
		}
	}

	alertedSet, journal := buildStores(cfg)

	controller := pipeline.NewController(cfg, pipeline.Deps{
		Gate:             gate,
		Breaker:          breaker,
		Registry:         registry,
		Fetcher:          fetcher,
		Alerted:          alertedSet,
		Cost:             pipeline.NewCostTracker(),
		Metrics:          collector,
		MetadataProvider: metadataProvider,
		OHLCVProvider:    ohlcvProvider,
	})

	return &App{
		Config:     cfg,
		Controller: controller,
		Alerted:    alertedSet,
		Metrics:    collector,
		breaker:    breaker,
		providers:  registry.Names(),
		journal:    journal,
	}
}

// buildStores selects the alerted-set backend and, when Postgres is
// configured, opens the breaker-state journal on the same connection.
func buildStores(cfg config.Config) (alerted.Set, *alerted.BreakerJournal) {
	if cfg.Alerts.RedisAddr != "" {
		return alerted.NewRedisSet(redis.NewClient(&redis.Options{Addr: cfg.Alerts.RedisAddr})), nil
	}
	if cfg.Alerts.PostgresDSN != "" {
		db, err := sqlx.Connect("postgres", cfg.Alerts.PostgresDSN)
		if err != nil {
			log.Error().Err(err).Msg("postgres unavailable, using in-memory alerted set")
			return alerted.NewMemorySet(), nil
		}
		set, err := alerted.NewPostgresSet(db)
		if err != nil {
			log.Error().Err(err).Msg("postgres alerted set unavailable, using in-memory")
			return alerted.NewMemorySet(), nil
		}
		journal, err := alerted.NewBreakerJournal(db)
		if err != nil {
			log.Warn().Err(err).Msg("breaker journal unavailable")
			journal = nil
		}
		return set, journal
	}
	return alerted.NewMemorySet(), nil
}

// MarkAlerted records every emitted candidate so it is suppressed for the
// configured TTL, and journals breaker state when persistence is configured.
func (a *App) MarkAlerted(ctx context.Context, result *pipeline.CycleResult) {
	for _, c := range result.Ranked {
		if err := a.Alerted.Add(ctx, c.TokenKey, a.Config.AlertTTL()); err != nil {
			log.Warn().Err(err).Str("token", c.TokenKey).Msg("failed to record alert suppression")
		}
	}
	if a.journal != nil {
		for _, name := range a.providers {
			err := a.journal.Record(ctx, name, a.breaker.State(name), a.breaker.ConsecutiveFailures(name))
			if err != nil {
				log.Warn().Err(err).Str("provider", name).Msg("failed to journal breaker state")
			}
		}
	}
}
