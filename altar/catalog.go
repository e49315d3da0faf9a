package altar

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// TargetType is the entity an altar modifier applies to.
type TargetType string

const (
	TargetNone   TargetType = ""
	TargetPlayer TargetType = "Player"
	TargetMinion TargetType = "Minion"
	TargetBoss   TargetType = "Boss"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetPlayer, TargetMinion, TargetBoss:
		return true
	default:
		return false
	}
}

const (
	MinWeight = 1
	MaxWeight = 100
)

// ModDefinition - one known modifier
type ModDefinition struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"display_name"`
	Pattern       string     `json:"pattern"` // matched against cleaned text
	Target        TargetType `json:"target"`
	DefaultWeight int        `json:"default_weight"`
}

// Key returns the composite weight key "Target|ID".
func (d ModDefinition) Key() string {
	return CompositeKey(d.Target, d.ID)
}

// Catalog is the static table of known modifiers. Order matters: the matcher
// returns the first entry whose pattern occurs in the text.
type Catalog struct {
	Upsides   []ModDefinition `json:"upsides"`
	Downsides []ModDefinition `json:"downsides"`
}

var ErrInvalidCatalog = errors.New("invalid mod catalog")

//go:embed gamedata/mods.json
var defaultCatalogJSON []byte

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogJSON)
}

// LoadCatalog reads a catalog override file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("upsides", len(c.Upsides)).Int("downsides", len(c.Downsides)).
		Msg("<Altar> catalog loaded")
	return c, nil
}

// ParseCatalog decodes and validates a catalog. Patterns are cleaned so they
// compare against normalized scan text.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := sonic.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.Upsides {
		c.Upsides[i].Pattern = cleanText(c.Upsides[i].Pattern)
	}
	for i := range c.Downsides {
		c.Downsides[i].Pattern = cleanText(c.Downsides[i].Pattern)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks weights, targets, patterns and (Target, ID) uniqueness per list.
func (c *Catalog) Validate() error {
	for _, list := range []struct {
		name string
		defs []ModDefinition
	}{
		{"upsides", c.Upsides},
		{"downsides", c.Downsides},
	} {
		seen := make(map[string]struct{}, len(list.defs))
		for i, d := range list.defs {
			switch {
			case d.ID == "":
				return fmt.Errorf("%w: %s[%d] has empty id", ErrInvalidCatalog, list.name, i)
			case d.Pattern == "":
				return fmt.Errorf("%w: %s[%d] %q has empty pattern", ErrInvalidCatalog, list.name, i, d.ID)
			case !d.Target.Valid():
				return fmt.Errorf("%w: %s[%d] %q has target %q", ErrInvalidCatalog, list.name, i, d.ID, d.Target)
			case d.DefaultWeight < MinWeight || d.DefaultWeight > MaxWeight:
				return fmt.Errorf("%w: %s[%d] %q default weight %d out of range", ErrInvalidCatalog, list.name, i, d.ID, d.DefaultWeight)
			}
			if _, dup := seen[d.Key()]; dup {
				return fmt.Errorf("%w: duplicate %s entry %q", ErrInvalidCatalog, list.name, d.Key())
			}
			seen[d.Key()] = struct{}{}
		}
	}
	return nil
}

// All returns upsides followed by downsides.
func (c *Catalog) All() []ModDefinition {
	out := make([]ModDefinition, 0, len(c.Upsides)+len(c.Downsides))
	out = append(out, c.Upsides...)
	return append(out, c.Downsides...)
}

// Lookup finds a definition by composite key or bare id.
func (c *Catalog) Lookup(slot string) (ModDefinition, bool) {
	target, id := SplitKey(slot)
	for _, d := range c.All() {
		if d.ID == id && (target == TargetNone || d.Target == target) {
			return d, true
		}
	}
	return ModDefinition{}, false
}
