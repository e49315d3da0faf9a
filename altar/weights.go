package altar

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/exilekit/altar-agent/locker"
)

// DefaultWeight applies to ids without a stored weight.
const DefaultWeight = 1

var (
	ErrWeightRange      = errors.New("weight out of range")
	ErrInvalidEncounter = errors.New("invalid encounter")
)

// CompositeKey builds the "Target|ID" weight key.
func CompositeKey(target TargetType, id string) string {
	if target == TargetNone {
		return id
	}
	return string(target) + keySeparator + id
}

// SplitKey splits a slot value into its target and bare id. Bare ids return
// TargetNone.
func SplitKey(slot string) (TargetType, string) {
	if t, id, ok := strings.Cut(slot, keySeparator); ok {
		return TargetType(t), id
	}
	return TargetNone, slot
}

// WeightStore maps composite or bare keys to user weights in [1,100].
type WeightStore struct {
	locker   locker.Locker
	entries  map[string]int
	revision uint64
}

func NewWeightStore(l locker.Locker) *WeightStore {
	if l == nil {
		l = locker.NewNoop()
	}
	return &WeightStore{locker: l, entries: make(map[string]int)}
}

func (s *WeightStore) Set(key string, weight int) error {
	if weight < MinWeight || weight > MaxWeight {
		return fmt.Errorf("%w: %s=%d", ErrWeightRange, key, weight)
	}
	g := s.locker.Acquire(s)
	defer g.Release()
	s.entries[key] = weight
	s.revision++
	return nil
}

// Replace swaps in a full set of entries, skipping out-of-range weights.
func (s *WeightStore) Replace(entries map[string]int) {
	next := make(map[string]int, len(entries))
	for k, w := range entries {
		if w < MinWeight || w > MaxWeight {
			log.Warn().Str("key", k).Int("weight", w).Msg("<Altar> weight out of range, ignored")
			continue
		}
		next[k] = w
	}
	g := s.locker.Acquire(s)
	defer g.Release()
	s.entries = next
	s.revision++
}

// Seed fills catalog defaults for keys that are not set yet and returns how
// many were added. Existing entries are never overwritten.
func (s *WeightStore) Seed(c *Catalog) int {
	g := s.locker.Acquire(s)
	defer g.Release()
	added := 0
	for _, d := range c.All() {
		if _, ok := s.entries[d.Key()]; ok {
			continue
		}
		s.entries[d.Key()] = d.DefaultWeight
		added++
	}
	if added > 0 {
		s.revision++
	}
	return added
}

func (s *WeightStore) Snapshot() map[string]int {
	g := s.locker.Acquire(s)
	defer g.Release()
	out := make(map[string]int, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Revision changes whenever the weights change.
func (s *WeightStore) Revision() uint64 {
	g := s.locker.Acquire(s)
	defer g.Release()
	return s.revision
}

// GetWeight looks up "target|id", then the bare id, then falls back to 1.
func (s *WeightStore) GetWeight(id string, target TargetType) int {
	g := s.locker.Acquire(s)
	defer g.Release()
	if target != TargetNone {
		if w, ok := s.entries[CompositeKey(target, id)]; ok {
			return w
		}
	}
	if w, ok := s.entries[id]; ok {
		return w
	}
	return DefaultWeight
}

// WeightOf resolves the weight of a slot value, composite or bare.
func (s *WeightStore) WeightOf(slot string) int {
	target, id := SplitKey(slot)
	return s.GetWeight(id, target)
}

// SlotWeights are the per-slot weights of one side, 0 for empty slots.
type SlotWeights struct {
	Upsides   [MaxSlots]int
	Downsides [MaxSlots]int
}

// MaxUpside returns the largest upside slot weight.
func (w SlotWeights) MaxUpside() int {
	return maxOf(w.Upsides)
}

// MaxDownside returns the largest downside slot weight.
func (w SlotWeights) MaxDownside() int {
	return maxOf(w.Downsides)
}

func maxOf(a [MaxSlots]int) int {
	m := 0
	for _, v := range a {
		m = max(m, v)
	}
	return m
}

// WeightResult is the aggregate score of an encounter.
type WeightResult struct {
	TopUpsideWeight      float64
	TopDownsideWeight    float64
	BottomUpsideWeight   float64
	BottomDownsideWeight float64
	TopWeight            float64
	BottomWeight         float64

	TopSlots    SlotWeights
	BottomSlots SlotWeights
}

// Calculator reduces sides to weights using a WeightStore.
type Calculator struct {
	store *WeightStore
}

func NewCalculator(store *WeightStore) *Calculator {
	return &Calculator{store: store}
}

// CalculateUpsideWeight sums the weights of non-empty slots; 0 when none.
func (c *Calculator) CalculateUpsideWeight(slots []string) float64 {
	sum := 0
	for _, s := range slots {
		if s != "" {
			sum += c.store.WeightOf(s)
		}
	}
	return float64(sum)
}

// CalculateDownsideWeight is 1 plus the sum of non-empty slot weights, so
// every side carries a baseline risk.
func (c *Calculator) CalculateDownsideWeight(slots []string) float64 {
	return 1 + c.CalculateUpsideWeight(slots)
}

// CalculateAltarWeights scores both sides of e. A nil encounter, side or
// side element is a malformed scan and returns ErrInvalidEncounter.
func (c *Calculator) CalculateAltarWeights(e *Encounter) (*WeightResult, error) {
	switch {
	case e == nil:
		return nil, fmt.Errorf("%w: encounter is nil", ErrInvalidEncounter)
	case e.Top == nil:
		return nil, fmt.Errorf("%w: top side is nil", ErrInvalidEncounter)
	case e.Bottom == nil:
		return nil, fmt.Errorf("%w: bottom side is nil", ErrInvalidEncounter)
	case e.Top.Element == nil:
		return nil, fmt.Errorf("%w: top element is nil", ErrInvalidEncounter)
	case e.Bottom.Element == nil:
		return nil, fmt.Errorf("%w: bottom element is nil", ErrInvalidEncounter)
	}

	rev := c.store.Revision()
	e.weightsMu.Lock()
	defer e.weightsMu.Unlock()
	if e.weights != nil && e.weightsRev == rev {
		return e.weights, nil
	}

	r := &WeightResult{
		TopUpsideWeight:      c.CalculateUpsideWeight(e.Top.Upsides[:]),
		TopDownsideWeight:    c.CalculateDownsideWeight(e.Top.Downsides[:]),
		BottomUpsideWeight:   c.CalculateUpsideWeight(e.Bottom.Upsides[:]),
		BottomDownsideWeight: c.CalculateDownsideWeight(e.Bottom.Downsides[:]),
		TopSlots:             c.slotWeights(e.Top),
		BottomSlots:          c.slotWeights(e.Bottom),
	}
	r.TopWeight = Ratio(r.TopUpsideWeight, r.TopDownsideWeight)
	r.BottomWeight = Ratio(r.BottomUpsideWeight, r.BottomDownsideWeight)

	e.weights, e.weightsRev = r, rev
	return r, nil
}

func (c *Calculator) slotWeights(s *Side) SlotWeights {
	var w SlotWeights
	for i := range MaxSlots {
		if s.Upsides[i] != "" {
			w.Upsides[i] = c.store.WeightOf(s.Upsides[i])
		}
		if s.Downsides[i] != "" {
			w.Downsides[i] = c.store.WeightOf(s.Downsides[i])
		}
	}
	return w
}

// Ratio divides and rounds half away from zero to 2 decimals; a zero
// denominator yields 0. Rounding is done on the exact quotient, so decimal
// midpoints such as 23/40 = 0.575 round up.
func Ratio(numer, denom float64) float64 {
	if denom <= 0 || math.IsInf(numer, 0) || math.IsNaN(numer) || math.IsInf(denom, 0) {
		return 0
	}
	q := new(big.Rat).SetFloat64(numer)
	q.Quo(q, new(big.Rat).SetFloat64(denom))
	q.Mul(q, big.NewRat(100, 1))

	// (2|n| + d) / 2d is |n/d| rounded half up
	n := new(big.Int).Abs(q.Num())
	d := q.Denom()
	n.Lsh(n, 1).Add(n, d)
	n.Quo(n, new(big.Int).Lsh(d, 1))

	cents := float64(n.Int64())
	if q.Sign() < 0 {
		cents = -cents
	}
	return cents / 100
}
