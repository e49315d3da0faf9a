package altar

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/exilekit/altar-agent/locker"
)

// keySeparator never appears in game text.
const keySeparator = "|"

// BuildKey concatenates all 32 slot values of e into its dedup signature.
func BuildKey(e *Encounter) string {
	parts := make([]string, 0, 4*MaxSlots)
	for _, s := range []*Side{e.Top, e.Bottom} {
		var empty Slots
		up, down := empty, empty
		if s != nil {
			up, down = s.Upsides, s.Downsides
		}
		parts = append(parts, up[:]...)
		parts = append(parts, down[:]...)
	}
	return strings.Join(parts, keySeparator)
}

type registryEntry struct {
	key       string
	encounter *Encounter
}

// Registry is the deduplicating set of active encounters. Every operation
// holds the registry guard.
type Registry struct {
	locker  locker.Locker
	entries []registryEntry
}

func NewRegistry(l locker.Locker) *Registry {
	if l == nil {
		l = locker.NewNoop()
	}
	return &Registry{locker: l}
}

// AddEncounter registers e unless an encounter with the same signature is
// already present.
func (r *Registry) AddEncounter(e *Encounter) bool {
	key := BuildKey(e)

	g := r.locker.Acquire(r)
	defer g.Release()

	for _, entry := range r.entries {
		if entry.key == key {
			log.Debug().Str("id", entry.encounter.ID).Msg("<Altar> duplicate encounter dropped")
			return false
		}
	}
	r.entries = append(r.entries, registryEntry{key: key, encounter: e})
	log.Info().Str("id", e.ID).Str("type", e.Type.String()).Int("active", len(r.entries)).
		Msg("<Altar> encounter registered")
	return true
}

// RemoveInvalid drops encounters whose click targets went away and returns
// how many were removed.
func (r *Registry) RemoveInvalid() int {
	g := r.locker.Acquire(r)
	defer g.Release()

	before := len(r.entries)
	r.entries = lo.Filter(r.entries, func(entry registryEntry, _ int) bool {
		return entry.encounter.Valid()
	})
	removed := before - len(r.entries)
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("active", len(r.entries)).Msg("<Altar> invalid encounters removed")
	}
	return removed
}

func (r *Registry) Clear() {
	locker.With(r.locker, r, func() { r.entries = nil })
}

func (r *Registry) Len() int {
	g := r.locker.Acquire(r)
	defer g.Release()
	return len(r.entries)
}

// Encounters returns a snapshot of the active encounters in registration order.
func (r *Registry) Encounters() []*Encounter {
	g := r.locker.Acquire(r)
	defer g.Release()
	return lo.Map(r.entries, func(entry registryEntry, _ int) *Encounter {
		return entry.encounter
	})
}
