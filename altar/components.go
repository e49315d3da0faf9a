package altar

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxSlots is the number of upside and of downside mods a side can hold.
// Lines beyond it are dropped.
const MaxSlots = 8

// Slots holds matched ids; empty string means no mod.
type Slots [MaxSlots]string

// Filled returns the non-empty slots in order.
func (s Slots) Filled() []string {
	out := make([]string, 0, MaxSlots)
	for _, v := range s {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s Slots) Count() int {
	n := 0
	for _, v := range s {
		if v != "" {
			n++
		}
	}
	return n
}

// Handle is an opaque UI element or click target owned by the scanner.
type Handle interface {
	Valid() bool
}

// EncounterType tags which altar produced the encounter.
type EncounterType int

const (
	EncounterUnknown EncounterType = iota
	EncounterExarch                // searing exarch altar
	EncounterEater                 // eater of worlds altar
)

func (t EncounterType) String() string {
	switch t {
	case EncounterExarch:
		return "Exarch"
	case EncounterEater:
		return "Eater"
	default:
		return "Unknown"
	}
}

func (t EncounterType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the String form case-insensitively; anything else is
// EncounterUnknown.
func (t *EncounterType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "exarch":
		*t = EncounterExarch
	case "eater":
		*t = EncounterEater
	default:
		*t = EncounterUnknown
	}
	return nil
}

// Side is one option of an encounter. Never mutated after BuildSide.
type Side struct {
	Upsides          Slots
	Downsides        Slots
	HasUnmatchedMods bool
	Element          Handle
}

// Encounter pairs the two options of an altar.
type Encounter struct {
	ID           string
	Type         EncounterType
	Top          *Side
	Bottom       *Side
	TopTarget    Handle
	BottomTarget Handle

	weightsMu  sync.Mutex
	weights    *WeightResult
	weightsRev uint64
}

// RawSide is what the UI-text provider yields for one option.
type RawSide struct {
	Header string   `json:"header"`
	Lines  []string `json:"lines"`
	Handle Handle   `json:"-"`
}

// RawEncounter is one scan result.
type RawEncounter struct {
	Type   EncounterType `json:"type"`
	Top    RawSide       `json:"top"`
	Bottom RawSide       `json:"bottom"`
}

// BuildSide matches every line of raw against the catalog using the target
// resolved from the header. Unmatched lines flag the side but do not stop
// processing.
func BuildSide(m *Matcher, raw RawSide) *Side {
	side := &Side{Element: raw.Handle}
	target := GetModTarget(raw.Header)

	up, down := 0, 0
	for _, block := range raw.Lines {
		for _, line := range strings.Split(block, "\n") {
			if m.Normalizer().Clean(line) == "" {
				continue
			}
			matched, isUpside, id := m.TryMatchMod(line, target)
			if !matched {
				side.HasUnmatchedMods = true
				continue
			}
			switch {
			case isUpside && up < MaxSlots:
				side.Upsides[up] = id
				up++
			case !isUpside && down < MaxSlots:
				side.Downsides[down] = id
				down++
			default:
				log.Debug().Str("id", id).Bool("upside", isUpside).Msg("<Altar> slots full, mod dropped")
			}
		}
	}
	return side
}

// BuildEncounter builds both sides completely; the result is safe to publish.
func BuildEncounter(m *Matcher, raw RawEncounter) *Encounter {
	return &Encounter{
		ID:           uuid.NewString(),
		Type:         raw.Type,
		Top:          BuildSide(m, raw.Top),
		Bottom:       BuildSide(m, raw.Bottom),
		TopTarget:    raw.Top.Handle,
		BottomTarget: raw.Bottom.Handle,
	}
}

// Valid reports whether both click targets are still usable.
func (e *Encounter) Valid() bool {
	return e.TopTarget != nil && e.BottomTarget != nil &&
		e.TopTarget.Valid() && e.BottomTarget.Valid()
}
