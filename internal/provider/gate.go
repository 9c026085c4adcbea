package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GateLimits configures one provider's slot in the rate-limit gate.
type GateLimits struct {
	Concurrency int           // max in-flight calls
	MinSpacing  time.Duration // minimum gap between consecutive call starts
}

// DefaultGateLimits maps provider cost classes to their design-target limits.
// Callers override per provider through config.
var DefaultGateLimits = map[string]GateLimits{
	"premium":  {Concurrency: 2, MinSpacing: 300 * time.Millisecond},
	"standard": {Concurrency: 3, MinSpacing: 100 * time.Millisecond},
	"free":     {Concurrency: 5, MinSpacing: 50 * time.Millisecond},
}

// Gate enforces per-provider bounded concurrency plus minimum inter-call
// spacing. Every outbound call acquires a permit first; the gate suspends the
// caller until both the concurrency slot and the spacing interval allow it.
type Gate struct {
	mu    sync.Mutex
	slots map[string]*gateSlot
}

type gateSlot struct {
	sem     chan struct{}
	spacing *rate.Limiter
}

// NewGate creates an empty gate; providers are registered explicitly via
// Configure, and a provider first seen by Acquire gets a default slot of one
// concurrent call with 100ms spacing.
func NewGate() *Gate {
	return &Gate{slots: make(map[string]*gateSlot)}
}

// Configure installs limits for a provider, replacing any previous slot.
func (g *Gate) Configure(provider string, limits GateLimits) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slots[provider] = newSlot(limits)
}

func newSlot(limits GateLimits) *gateSlot {
	if limits.Concurrency <= 0 {
		limits.Concurrency = 1
	}
	spacing := rate.NewLimiter(rate.Inf, 1)
	if limits.MinSpacing > 0 {
		spacing = rate.NewLimiter(rate.Every(limits.MinSpacing), 1)
	}
	return &gateSlot{
		sem:     make(chan struct{}, limits.Concurrency),
		spacing: spacing,
	}
}

func (g *Gate) slot(provider string) *gateSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.slots[provider]
	if !ok {
		s = newSlot(GateLimits{Concurrency: 1, MinSpacing: 100 * time.Millisecond})
		g.slots[provider] = s
	}
	return s
}

// Acquire takes a permit for the provider, suspending until a concurrency
// slot is free and the spacing interval has elapsed. The returned release
// must be called exactly once when the call completes.
func (g *Gate) Acquire(ctx context.Context, provider string) (release func(), err error) {
	s := g.slot(provider)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, &ProviderError{Provider: provider, Code: ErrCodeCancelled, Err: ctx.Err()}
	}

	if err := s.spacing.Wait(ctx); err != nil {
		<-s.sem
		return nil, &ProviderError{Provider: provider, Code: ErrCodeCancelled, Err: err}
	}

	var once sync.Once
	return func() { once.Do(func() { <-s.sem }) }, nil
}
