package altar

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/exilekit/altar-agent/locker"
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// cleanText strips markup tags, braces and whitespace. It is idempotent: a '<'
// left behind has no '>' after it, so no new tag can form on a second pass.
func cleanText(raw string) string {
	s := markupTag.ReplaceAllString(raw, "")
	return strings.Map(func(r rune) rune {
		if r == '{' || r == '}' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Normalizer memoizes cleaned scan text. Runs on every scan tick, so the
// regexp work is done once per distinct raw string. The cache is unbounded;
// game text vocabulary is small.
type Normalizer struct {
	locker locker.Locker
	cache  map[string]string
}

func NewNormalizer(l locker.Locker) *Normalizer {
	if l == nil {
		l = locker.NewNoop()
	}
	return &Normalizer{
		locker: l,
		cache:  make(map[string]string),
	}
}

// Clean returns raw with markup, braces and whitespace removed.
func (n *Normalizer) Clean(raw string) string {
	var (
		cleaned string
		ok      bool
	)
	locker.With(n.locker, n, func() { cleaned, ok = n.cache[raw] })
	if ok {
		return cleaned
	}

	cleaned = cleanText(raw)

	// two scanners racing here store the same value
	locker.With(n.locker, n, func() { n.cache[raw] = cleaned })
	return cleaned
}

func (n *Normalizer) CacheLen() int {
	g := n.locker.Acquire(n)
	defer g.Release()
	return len(n.cache)
}
