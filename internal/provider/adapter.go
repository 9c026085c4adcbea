package provider

import (
	"context"
	"sync"
	"time"

	"github.com/tokenscout/tokenscout/internal/model"
)

// FieldSet names the candidate fields a fetch should populate. Adapters may
// return more than asked; they never interpret fields they do not recognize.
type FieldSet []string

// Common field sets used by the pipeline stages.
var (
	FieldsMarket   = FieldSet{"market_cap", "price", "liquidity", "volume_24h", "trades_24h"}
	FieldsHolders  = FieldSet{"holder_count", "unique_traders_24h"}
	FieldsSecurity = FieldSet{"security_score", "dev_holding_pct", "honeypot_risk", "liquidity_locked", "verified_contract"}
)

// Adapter is the contract every external data source implements. Adapters own
// all response-shape normalization: fields handed back to the core already use
// the candidate schema, and failures surface as ProviderError classes.
type Adapter interface {
	Name() string
	BatchFetch(ctx context.Context, keys []string, fields FieldSet) (map[string]model.PartialRecord, error)
	SingleFetch(ctx context.Context, key string, fields FieldSet) (*model.PartialRecord, error)
	OHLCVFetch(ctx context.Context, key string, tf model.Timeframe, n int) ([]model.Candle, error)
}

// Limits bundles the per-provider knobs the core honors when calling out.
type Limits struct {
	Gate      GateLimits
	BatchSize int
	Timeout   time.Duration
	Premium   bool
}

// Registry holds the configured adapters and their limits.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	limits   map[string]Limits
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		limits:   make(map[string]Limits),
	}
}

// Register installs an adapter with its limits.
func (r *Registry) Register(a Adapter, limits Limits) {
	if limits.BatchSize <= 0 {
		limits.BatchSize = 1
	}
	if limits.Timeout <= 0 {
		limits.Timeout = 15 * time.Second
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
	r.limits[a.Name()] = limits
}

// Get returns the named adapter, or nil if none is registered.
func (r *Registry) Get(name string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[name]
}

// LimitsFor returns the limits registered for the named adapter.
func (r *Registry) LimitsFor(name string) Limits {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.limits[name]; ok {
		return l
	}
	return Limits{BatchSize: 1, Timeout: 15 * time.Second}
}

// Names lists all registered adapters.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	return out
}
