package pipeline

import (
	"sync/atomic"
	"time"
)

// CostTracker counts how the pipeline spent and saved provider calls. It
// lives for the life of the controller; counters accumulate across cycles and
// each increment is atomic.
type CostTracker struct {
	stage1Count int64
	stage2Count int64
	stage3Count int64
	stage4Count int64

	expensiveCallsMade  int64
	expensiveCallsSaved int64
	batchCalls          int64
	individualCalls     int64
	cacheHits           int64
	cacheMisses         int64
	prefilterDrops      int64
	parseErrors         int64
	fetcherInvocations  int64
}

// NewCostTracker returns a zeroed tracker.
func NewCostTracker() *CostTracker { return &CostTracker{} }

func (t *CostTracker) AddStageCount(stage int, n int) {
	switch stage {
	case 1:
		atomic.AddInt64(&t.stage1Count, int64(n))
	case 2:
		atomic.AddInt64(&t.stage2Count, int64(n))
	case 3:
		atomic.AddInt64(&t.stage3Count, int64(n))
	case 4:
		atomic.AddInt64(&t.stage4Count, int64(n))
	}
}

func (t *CostTracker) AddExpensiveMade(n int)  { atomic.AddInt64(&t.expensiveCallsMade, int64(n)) }
func (t *CostTracker) AddExpensiveSaved(n int) { atomic.AddInt64(&t.expensiveCallsSaved, int64(n)) }
func (t *CostTracker) AddBatchCalls(n int)     { atomic.AddInt64(&t.batchCalls, int64(n)) }
func (t *CostTracker) AddIndividual(n int)     { atomic.AddInt64(&t.individualCalls, int64(n)) }
func (t *CostTracker) AddCacheHits(n int)      { atomic.AddInt64(&t.cacheHits, int64(n)) }
func (t *CostTracker) AddCacheMisses(n int)    { atomic.AddInt64(&t.cacheMisses, int64(n)) }
func (t *CostTracker) AddPrefilterDrops(n int) { atomic.AddInt64(&t.prefilterDrops, int64(n)) }
func (t *CostTracker) AddParseErrors(n int)    { atomic.AddInt64(&t.parseErrors, int64(n)) }
func (t *CostTracker) AddFetcherRuns(n int)    { atomic.AddInt64(&t.fetcherInvocations, int64(n)) }

// ExpensiveCallsMade returns the running expensive-call total.
func (t *CostTracker) ExpensiveCallsMade() int64 {
	return atomic.LoadInt64(&t.expensiveCallsMade)
}

// CostReport is the cost accounting emitted to callers after each cycle. Its
// stage, call and cache counters are the tracker's running totals since the
// controller was created; the cycle ID, wall clock, survivor counts and stage
// reasons describe the cycle itself.
type CostReport struct {
	CycleID string `json:"cycle_id"`

	Stage1Count int64 `json:"stage1_count"`
	Stage2Count int64 `json:"stage2_count"`
	Stage3Count int64 `json:"stage3_count"`
	Stage4Count int64 `json:"stage4_count"`

	ExpensiveCallsMade  int64 `json:"expensive_calls_made"`
	ExpensiveCallsSaved int64 `json:"expensive_calls_saved"`
	BatchCalls          int64 `json:"batch_calls"`
	IndividualCalls     int64 `json:"individual_calls"`
	CacheHits           int64 `json:"cache_hits"`
	CacheMisses         int64 `json:"cache_misses"`
	PrefilterDrops      int64 `json:"prefilter_drops"`
	ParseErrors         int64 `json:"parse_errors"`
	FetcherInvocations  int64 `json:"fetcher_invocations"`

	SavingsPct     float64           `json:"savings_pct"`
	SurvivorCounts map[string]int    `json:"survivor_counts"`
	BreakerTripped map[string]bool   `json:"breaker_tripped"`
	WallClock      time.Duration     `json:"wall_clock"`
	StageReasons   map[string]string `json:"stage_reasons,omitempty"`
}

// Snapshot captures the tracker into a report shell. Savings percentage is
// the headline figure: saved / (saved + made).
func (t *CostTracker) Snapshot() CostReport {
	made := atomic.LoadInt64(&t.expensiveCallsMade)
	saved := atomic.LoadInt64(&t.expensiveCallsSaved)

	var savings float64
	if made+saved > 0 {
		savings = float64(saved) / float64(saved+made)
	}

	return CostReport{
		Stage1Count:         atomic.LoadInt64(&t.stage1Count),
		Stage2Count:         atomic.LoadInt64(&t.stage2Count),
		Stage3Count:         atomic.LoadInt64(&t.stage3Count),
		Stage4Count:         atomic.LoadInt64(&t.stage4Count),
		ExpensiveCallsMade:  made,
		ExpensiveCallsSaved: saved,
		BatchCalls:          atomic.LoadInt64(&t.batchCalls),
		IndividualCalls:     atomic.LoadInt64(&t.individualCalls),
		CacheHits:           atomic.LoadInt64(&t.cacheHits),
		CacheMisses:         atomic.LoadInt64(&t.cacheMisses),
		PrefilterDrops:      atomic.LoadInt64(&t.prefilterDrops),
		ParseErrors:         atomic.LoadInt64(&t.parseErrors),
		FetcherInvocations:  atomic.LoadInt64(&t.fetcherInvocations),
		SavingsPct:          savings,
		SurvivorCounts:      make(map[string]int),
		BreakerTripped:      make(map[string]bool),
		StageReasons:        make(map[string]string),
	}
}
