// Package altar decides between the two options of an altar encounter.
//
// Scanned mod text is cleaned, matched against a static catalog, scored with
// user weights and run through an override/tie-break policy. Encounters are
// deduplicated in a registry shared by the scan and consume cycles.
package altar

import (
	"github.com/rs/zerolog/log"

	"github.com/exilekit/altar-agent/locker"
)

// Engine wires the catalog, weight store, registry and policy together.
type Engine struct {
	locker     locker.Locker
	matcher    *Matcher
	store      *WeightStore
	calculator *Calculator
	registry   *Registry
	evaluator  Evaluator
}

type Option func(*Engine)

// WithLocker sets the mutual-exclusion strategy for the normalizer cache and
// the registry. The store keeps whichever locker it was built with.
func WithLocker(l locker.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

func NewEngine(catalog *Catalog, store *WeightStore, opts ...Option) *Engine {
	e := &Engine{
		locker:    locker.NewMutex(),
		evaluator: NewEvaluator(DefaultDangerThreshold),
	}
	for _, opt := range opts {
		opt(e)
	}
	if store == nil {
		store = NewWeightStore(e.locker)
	}
	e.store = store
	e.matcher = NewMatcher(catalog, NewNormalizer(e.locker))
	e.calculator = NewCalculator(store)
	e.registry = NewRegistry(e.locker)
	return e
}

func (e *Engine) Store() *WeightStore {
	return e.store
}

func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// TryAddEncounter builds an encounter from a scan and registers it. False
// means an identical encounter is already active and the scan is dropped.
func (e *Engine) TryAddEncounter(raw RawEncounter) bool {
	enc := BuildEncounter(e.matcher, raw)
	return e.registry.AddEncounter(enc)
}

// GetActiveEncounters returns a snapshot; callers must not mutate the encounters.
func (e *Engine) GetActiveEncounters() []*Encounter {
	return e.registry.Encounters()
}

func (e *Engine) CalculateAltarWeights(enc *Encounter) (*WeightResult, error) {
	return e.calculator.CalculateAltarWeights(enc)
}

func (e *Engine) Decide(enc *Encounter, r *WeightResult) Decision {
	return e.evaluator.Decide(enc, r)
}

// Evaluate scores and decides in one step.
func (e *Engine) Evaluate(enc *Encounter) (Decision, *WeightResult, error) {
	r, err := e.calculator.CalculateAltarWeights(enc)
	if err != nil {
		return Decision{}, nil, err
	}
	d := e.evaluator.Decide(enc, r)
	ev := log.Debug()
	if !d.Decided() {
		ev = log.Info()
	}
	ev.Str("id", enc.ID).Str("outcome", d.Outcome.String()).Str("reason", d.Reason.String()).
		Float64("top", r.TopWeight).Float64("bottom", r.BottomWeight).
		Msg("<Altar> encounter evaluated")
	return d, r, nil
}

func (e *Engine) RemoveInvalid() int {
	return e.registry.RemoveInvalid()
}

func (e *Engine) Clear() {
	e.registry.Clear()
}

func (e *Engine) ActiveCount() int {
	return e.registry.Len()
}
