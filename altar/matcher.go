package altar

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// GetModTarget resolves the entity a block of mods applies to from its header,
// e.g. "Map boss gains:" or "Eldritch Minions gain:". Unknown headers yield
// TargetNone, which never matches a catalog entry.
func GetModTarget(header string) TargetType {
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "boss"):
		return TargetBoss
	case strings.Contains(h, "minion"):
		return TargetMinion
	case strings.Contains(h, "player"):
		return TargetPlayer
	default:
		return TargetNone
	}
}

// Matcher maps scanned mod lines to catalog entries.
type Matcher struct {
	catalog    *Catalog
	normalizer *Normalizer
}

func NewMatcher(catalog *Catalog, normalizer *Normalizer) *Matcher {
	return &Matcher{catalog: catalog, normalizer: normalizer}
}

func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

func (m *Matcher) Normalizer() *Normalizer {
	return m.normalizer
}

// TryMatchMod cleans raw and returns the composite id of the first catalog
// entry (upsides first, then downsides, each in catalog order) whose pattern
// occurs in the cleaned text and whose target equals target.
//
// Overlapping patterns resolve by catalog order; two entries that can both
// occur in one line are not detected as ambiguous.
func (m *Matcher) TryMatchMod(raw string, target TargetType) (matched, isUpside bool, id string) {
	if target == TargetNone {
		return false, false, ""
	}
	cleaned := m.normalizer.Clean(raw)
	if cleaned == "" {
		return false, false, ""
	}

	if d, ok := firstMatch(m.catalog.Upsides, cleaned, target); ok {
		log.Debug().Str("target", string(target)).Str("cleaned", cleaned).Str("id", d.ID).
			Msg("<Altar> mod matched upside")
		return true, true, d.Key()
	}
	if d, ok := firstMatch(m.catalog.Downsides, cleaned, target); ok {
		log.Debug().Str("target", string(target)).Str("cleaned", cleaned).Str("id", d.ID).
			Msg("<Altar> mod matched downside")
		return true, false, d.Key()
	}

	log.Info().Str("target", string(target)).Str("raw", raw).Str("cleaned", cleaned).
		Msg("<Altar> mod match miss")
	return false, false, ""
}

func firstMatch(defs []ModDefinition, cleaned string, target TargetType) (ModDefinition, bool) {
	for _, d := range defs {
		if d.Target == target && strings.Contains(cleaned, d.Pattern) {
			return d, true
		}
	}
	return ModDefinition{}, false
}
