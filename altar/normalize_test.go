package altar

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exilekit/altar-agent/locker"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Drops additional Divine Orbs", "DropsadditionalDivineOrbs"},
		{"color tag", "<enchanted>{Drops additional Divine Orbs}", "DropsadditionalDivineOrbs"},
		{"nested placeholders", "<rgb(255,0,0)>{-12%} to all <default>{Elemental Resistances}", "-12%toallElementalResistances"},
		{"tabs and newlines", "increased\tPack\nsize", "increasedPacksize"},
		{"dangling bracket", "a < b", "a<b"},
		{"empty", "", ""},
		{"only markup", "<tag>{ }", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanText(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, cleanText(got), "cleaning must be idempotent")
		})
	}
}

func TestNormalizerMemoizes(t *testing.T) {
	n := NewNormalizer(locker.NewMutex())

	assert.Equal(t, "increasedExperiencegain", n.Clean("<white>{increased Experience gain}"))
	assert.Equal(t, 1, n.CacheLen())
	assert.Equal(t, "increasedExperiencegain", n.Clean("<white>{increased Experience gain}"))
	assert.Equal(t, 1, n.CacheLen())

	n.Clean("increased Experience gain")
	assert.Equal(t, 2, n.CacheLen())
}

func TestNormalizerConcurrentScans(t *testing.T) {
	n := NewNormalizer(locker.NewMutex())
	lines := []string{"<a>{x y}", "z w", "<b>{q}"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for _, l := range lines {
					n.Clean(l)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(lines), n.CacheLen())
	assert.Equal(t, "xy", n.Clean("<a>{x y}"))
}

func TestNormalizerNilLockerFallsBackToNoop(t *testing.T) {
	n := NewNormalizer(nil)
	assert.Equal(t, "ab", n.Clean("a b"))
}
