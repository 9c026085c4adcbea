package provider

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
)

// PlanResult is what a planner run hands back: raw per-key responses plus the
// call accounting the cost tracker consumes.
type PlanResult struct {
	Records         map[string]model.PartialRecord
	Partial         bool // true when an abort left keys unfetched
	AuthFailed      bool // provider rejected credentials; skip it this cycle
	BatchCalls      int  // successful batch calls
	IndividualCalls int  // individual fallback calls attempted
}

// BatchFunc fetches one chunk of keys in a single provider call.
type BatchFunc func(ctx context.Context, keys []string) (map[string]model.PartialRecord, error)

// SingleFunc fetches one key individually.
type SingleFunc func(ctx context.Context, key string) (*model.PartialRecord, error)

// Planner splits key lists into provider-sized batches and degrades to
// individual calls when a batch fails. It routes every call through the gate
// and breaker and does not interpret responses.
type Planner struct {
	gate    *Gate
	breaker *Breaker
}

// NewPlanner wires a planner to the shared gate and breaker.
func NewPlanner(gate *Gate, breaker *Breaker) *Planner {
	return &Planner{gate: gate, breaker: breaker}
}

// Fetch retrieves records for all keys from the named provider, batching at
// batchSize. On a CircuitOpen rejection it aborts and returns what it has
// with Partial set; on any other batch failure it falls back to individual
// calls for that chunk's keys.
func (p *Planner) Fetch(ctx context.Context, providerName string, keys []string, batchSize int, batch BatchFunc, single SingleFunc) PlanResult {
	res := PlanResult{Records: make(map[string]model.PartialRecord)}
	if batchSize <= 0 {
		batchSize = 1
	}

	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		records, err := p.callBatch(ctx, providerName, chunk, batch)
		if err == nil {
			res.BatchCalls++
			for k, v := range records {
				res.Records[k] = v
			}
			continue
		}
		if IsCircuitOpen(err) || IsCancelled(err) {
			res.Partial = true
			return res
		}
		if CodeOf(err) == ErrCodeAuth {
			res.Partial = true
			res.AuthFailed = true
			return res
		}

		log.Debug().Str("provider", providerName).Int("keys", len(chunk)).
			Str("error", string(CodeOf(err))).
			Msg("batch call failed, falling back to individual fetches")

		for _, key := range chunk {
			rec, err := p.callSingle(ctx, providerName, key, single)
			res.IndividualCalls++
			if err != nil {
				if IsCircuitOpen(err) || IsCancelled(err) {
					res.Partial = true
					return res
				}
				if CodeOf(err) == ErrCodeAuth {
					res.Partial = true
					res.AuthFailed = true
					return res
				}
				continue
			}
			if rec != nil {
				res.Records[key] = *rec
			}
		}
	}
	return res
}

func (p *Planner) callBatch(ctx context.Context, providerName string, keys []string, batch BatchFunc) (map[string]model.PartialRecord, error) {
	if !p.breaker.Permit(providerName) {
		return nil, NewError(providerName, ErrCodeCircuitOpen, "breaker open")
	}
	release, err := p.gate.Acquire(ctx, providerName)
	if err != nil {
		p.breaker.Record(providerName, true) // cancellation is a clean abort
		return nil, err
	}
	defer release()

	records, err := batch(ctx, keys)
	p.breaker.RecordErr(providerName, err)
	return records, err
}

func (p *Planner) callSingle(ctx context.Context, providerName, key string, single SingleFunc) (*model.PartialRecord, error) {
	if !p.breaker.Permit(providerName) {
		return nil, NewError(providerName, ErrCodeCircuitOpen, "breaker open")
	}
	release, err := p.gate.Acquire(ctx, providerName)
	if err != nil {
		p.breaker.Record(providerName, true)
		return nil, err
	}
	defer release()

	rec, err := single(ctx, key)
	p.breaker.RecordErr(providerName, err)
	return rec, err
}
