package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/alerted"
	"github.com/tokenscout/tokenscout/internal/config"
	"github.com/tokenscout/tokenscout/internal/enrich"
	"github.com/tokenscout/tokenscout/internal/metrics"
	"github.com/tokenscout/tokenscout/internal/model"
	"github.com/tokenscout/tokenscout/internal/provider"
)

// Pre-filter bounds applied before stage 1.
const (
	prefilterMaxMarketCap = 5_000_000.0
	prefilterMinVolume24h = 100.0
)

// CycleResult is what one scan cycle emits.
type CycleResult struct {
	Ranked []*model.Candidate `json:"ranked_candidates"`
	Cost   CostReport         `json:"cost_report"`
}

// Controller runs scan cycles: dedupe, suppression, pre-filter, then the four
// stages in strict order with adaptive expensive-stage width and a cycle time
// budget. Cycles never interleave.
type Controller struct {
	cfg      config.Config
	gate     *provider.Gate
	breaker  *provider.Breaker
	registry *provider.Registry
	fetcher  *enrich.Fetcher
	alerted  alerted.Set
	cost     *CostTracker
	metrics  *metrics.Collector

	metadataProvider string
	ohlcvProvider    string

	cycleMu sync.Mutex
}

// Deps bundles the collaborators a controller borrows. The controller owns
// nothing global: gate, breaker, cost tracker and alerted set are all passed
// in explicitly.
type Deps struct {
	Gate     *provider.Gate
	Breaker  *provider.Breaker
	Registry *provider.Registry
	Fetcher  *enrich.Fetcher
	Alerted  alerted.Set
	Cost     *CostTracker
	Metrics  *metrics.Collector

	MetadataProvider string
	OHLCVProvider    string
}

// NewController assembles a pipeline controller.
func NewController(cfg config.Config, deps Deps) *Controller {
	if deps.Cost == nil {
		deps.Cost = NewCostTracker()
	}
	return &Controller{
		cfg:              cfg,
		gate:             deps.Gate,
		breaker:          deps.Breaker,
		registry:         deps.Registry,
		fetcher:          deps.Fetcher,
		alerted:          deps.Alerted,
		cost:             deps.Cost,
		metrics:          deps.Metrics,
		metadataProvider: deps.MetadataProvider,
		ohlcvProvider:    deps.OHLCVProvider,
	}
}

// Cost exposes the controller's tracker for hosts that report across cycles.
func (ctl *Controller) Cost() *CostTracker { return ctl.cost }

// RunCycle executes one full cycle, waiting if another cycle is in flight.
func (ctl *Controller) RunCycle(ctx context.Context, discovered []model.Candidate) (*CycleResult, error) {
	ctl.cycleMu.Lock()
	defer ctl.cycleMu.Unlock()
	return ctl.runLocked(ctx, discovered)
}

// TryRunCycle executes one cycle, or reports busy if one is already running.
func (ctl *Controller) TryRunCycle(ctx context.Context, discovered []model.Candidate) (*CycleResult, error) {
	if !ctl.cycleMu.TryLock() {
		return nil, fmt.Errorf("cycle already running")
	}
	defer ctl.cycleMu.Unlock()
	return ctl.runLocked(ctx, discovered)
}

func (ctl *Controller) runLocked(ctx context.Context, discovered []model.Candidate) (*CycleResult, error) {
	start := time.Now()
	cycleID := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, ctl.cfg.CycleBudget())
	defer cancel()

	ctl.fetcher.BeginCycle()
	reasons := make(map[string]string)

	candidates := ctl.prefilter(ctx, discovered)
	log.Info().Str("cycle", cycleID).Int("discovered", len(discovered)).
		Int("admitted", len(candidates)).Msg("cycle started")

	// Stage 1: triage, pure CPU.
	ctl.cost.AddStageCount(1, len(candidates))
	stage1 := runTriage(candidates, ctl.cfg.Stages, start)
	if len(stage1) == 0 {
		reasons["stage1"] = "no candidate met the triage threshold"
	}

	// Stage 2: enhanced analysis with batch enrichment.
	stage2 := stage1
	if len(stage1) > 0 && ctx.Err() == nil {
		ctl.cost.AddStageCount(2, len(stage1))
		stage2 = ctl.runEnhanced(ctx, stage1, enrich.NewMerger())
		if len(stage2) == 0 {
			reasons["stage2"] = "no candidate met the enhanced threshold"
		}
	}

	// Stage 3: market validation, width adapted to breaker pressure.
	width := ctl.stage4Width()
	stage3 := stage2
	if len(stage2) > 0 && ctx.Err() == nil {
		ctl.cost.AddStageCount(3, len(stage2))
		stage3 = ctl.runValidation(stage2, width)
		if len(stage3) == 0 {
			reasons["stage3"] = "no candidate met the validation threshold"
		}
	}

	// Stage 4: expensive velocity scoring on the survivors only.
	var ranked []*model.Candidate
	if len(stage3) > 0 {
		ctl.cost.AddStageCount(4, len(stage3))
		ranked = ctl.runVelocity(ctx, stage3, start)
	}

	if ctx.Err() != nil {
		reasons["cycle"] = "time budget exhausted, output truncated"
	}

	report := ctl.cost.Snapshot()
	report.CycleID = cycleID
	report.WallClock = time.Since(start)
	report.StageReasons = reasons
	report.SurvivorCounts["stage1"] = len(stage1)
	report.SurvivorCounts["stage2"] = len(stage2)
	report.SurvivorCounts["stage3"] = len(stage3)
	report.SurvivorCounts["stage4"] = len(ranked)
	for name, tripped := range ctl.breaker.Tripped() {
		report.BreakerTripped[name] = tripped
	}

	if ctl.metrics != nil {
		ctl.metrics.ObserveCycle(len(ranked), report.SavingsPct, report.WallClock)
	}

	log.Info().Str("cycle", cycleID).Int("emitted", len(ranked)).
		Float64("savings_pct", report.SavingsPct).
		Dur("wall_clock", report.WallClock).Msg("cycle complete")

	return &CycleResult{Ranked: ranked, Cost: report}, nil
}

// prefilter deduplicates by token key, removes already-alerted candidates and
// drops records outside the hard entry bounds. Pointers into a fresh backing
// slice are returned so stages can mutate freely.
func (ctl *Controller) prefilter(ctx context.Context, discovered []model.Candidate) []*model.Candidate {
	seen := make(map[string]bool, len(discovered))
	out := make([]*model.Candidate, 0, len(discovered))
	drops := 0

	for i := range discovered {
		c := discovered[i]
		switch {
		case c.TokenKey == "" || c.Symbol == "":
			drops++
		case seen[c.TokenKey]:
			drops++
		case ctl.cfg.SourceDisabled(string(c.Source)):
			drops++
		case ctl.alerted != nil && ctl.alerted.Contains(ctx, c.TokenKey):
			drops++
		case c.MarketCap > prefilterMaxMarketCap:
			drops++
		case c.Volume24h > 0 && c.Volume24h < prefilterMinVolume24h:
			drops++
		default:
			seen[c.TokenKey] = true
			copied := c
			if copied.AttestedProviderCount == 0 {
				// The discovery source itself attests the token.
				copied.AttestedProviderCount = 1
			}
			out = append(out, &copied)
		}
	}

	if drops > 0 {
		ctl.cost.AddPrefilterDrops(drops)
	}
	return out
}

// stage4Width shrinks the expensive-stage cap by 2 per consecutive failure on
// the OHLCV provider, floored at the configured minimum.
func (ctl *Controller) stage4Width() int {
	width := ctl.cfg.Stages.Stage3Cap
	if ctl.ohlcvProvider == "" {
		return width
	}
	failures := int(ctl.breaker.ConsecutiveFailures(ctl.ohlcvProvider))
	if ctl.breaker.Open(ctl.ohlcvProvider) || failures > 0 {
		width -= 2 * failures
		if ctl.breaker.Open(ctl.ohlcvProvider) && width >= ctl.cfg.Stages.Stage3Cap {
			width = ctl.cfg.Stages.Stage3Cap - 2
		}
		if width < ctl.cfg.Stages.Stage4Min {
			width = ctl.cfg.Stages.Stage4Min
		}
		log.Warn().Str("provider", ctl.ohlcvProvider).Int("failures", failures).
			Int("width", width).Msg("expensive-stage width reduced under breaker pressure")
	}
	return width
}

// recordFetch folds one enrichment pass into the cost tracker.
func (ctl *Controller) recordFetch(stats enrich.Stats) {
	ctl.cost.AddFetcherRuns(1)
	ctl.cost.AddBatchCalls(stats.BatchCalls)
	ctl.cost.AddIndividual(stats.IndividualCalls)
	ctl.cost.AddCacheHits(stats.CacheHits)
	ctl.cost.AddCacheMisses(stats.CacheMisses)
	if ctl.metrics != nil {
		ctl.metrics.ObserveFetch(stats.BatchCalls, stats.IndividualCalls, stats.CacheHits, stats.CacheMisses)
	}
}
