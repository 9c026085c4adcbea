package provider

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	FailThreshold uint32        // consecutive failures before opening
	FailureWindow time.Duration // closed-state counting window
	Cooldown      time.Duration // open -> half-open delay
}

// DefaultBreakerConfig returns the design-target breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailThreshold: 5,
		FailureWindow: 60 * time.Second,
		Cooldown:      30 * time.Second,
	}
}

// Breaker fronts one circuit breaker per provider. Callers ask Permit before
// an outbound call and report the outcome with Record; a rejected permit means
// the call must not happen and no failure may be marked.
type Breaker struct {
	cfg BreakerConfig

	mu      sync.Mutex
	cbs     map[string]*gobreaker.TwoStepCircuitBreaker
	pending map[string][]func(bool)
}

// NewBreaker creates a breaker registry with the given settings.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 5
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		cbs:     make(map[string]*gobreaker.TwoStepCircuitBreaker),
		pending: make(map[string][]func(bool)),
	}
}

func (b *Breaker) breaker(provider string) *gobreaker.TwoStepCircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.cbs[provider]
	if !ok {
		st := gobreaker.Settings{
			Name:        provider,
			MaxRequests: 1, // single half-open probe
			Interval:    b.cfg.FailureWindow,
			Timeout:     b.cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= b.cfg.FailThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		}
		cb = gobreaker.NewTwoStepCircuitBreaker(st)
		b.cbs[provider] = cb
	}
	return cb
}

// Permit reports whether a call to the provider may proceed. A true result
// reserves an outcome slot that must be settled with Record.
func (b *Breaker) Permit(provider string) bool {
	done, err := b.breaker(provider).Allow()
	if err != nil {
		return false
	}
	b.mu.Lock()
	b.pending[provider] = append(b.pending[provider], done)
	b.mu.Unlock()
	return true
}

// Record settles the oldest outstanding permit for the provider. Callers pass
// success=false only for error classes that count toward the breaker
// (Server, RateLimit, Timeout); everything else settles as success.
func (b *Breaker) Record(provider string, success bool) {
	b.mu.Lock()
	queue := b.pending[provider]
	if len(queue) == 0 {
		b.mu.Unlock()
		return
	}
	done := queue[0]
	b.pending[provider] = queue[1:]
	b.mu.Unlock()
	done(success)
}

// RecordErr settles a permit from a call error, applying the breaker-counting
// rules for error classes. A nil error is a success.
func (b *Breaker) RecordErr(provider string, err error) {
	if err == nil {
		b.Record(provider, true)
		return
	}
	b.Record(provider, !CountsTowardBreaker(err))
}

// State returns the provider's breaker state as a wire-friendly string.
func (b *Breaker) State(provider string) string {
	return b.breaker(provider).State().String()
}

// Open reports whether the provider's breaker currently rejects calls.
func (b *Breaker) Open(provider string) bool {
	return b.breaker(provider).State() == gobreaker.StateOpen
}

// ConsecutiveFailures returns the provider's current consecutive-failure
// count; the controller uses it to shrink the expensive-stage width.
func (b *Breaker) ConsecutiveFailures(provider string) uint32 {
	return b.breaker(provider).Counts().ConsecutiveFailures
}

// Tripped returns the set of providers whose breaker is open.
func (b *Breaker) Tripped() map[string]bool {
	b.mu.Lock()
	names := make([]string, 0, len(b.cbs))
	for name := range b.cbs {
		names = append(names, name)
	}
	b.mu.Unlock()

	out := make(map[string]bool)
	for _, name := range names {
		if b.Open(name) {
			out[name] = true
		}
	}
	return out
}
