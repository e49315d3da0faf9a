package altar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exilekit/altar-agent/locker"
)

type fakeHandle struct {
	name  string
	valid bool
}

func (h *fakeHandle) Valid() bool { return h.valid }

func newHandle(name string) *fakeHandle {
	return &fakeHandle{name: name, valid: true}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	l := locker.NewMutex()
	store := NewWeightStore(l)
	store.Seed(testCatalog(t))
	return NewEngine(testCatalog(t), store, WithLocker(l))
}

func sideOf(up, down []string) *Side {
	s := &Side{Element: newHandle("side")}
	copy(s.Upsides[:], up)
	copy(s.Downsides[:], down)
	return s
}

func encounterOf(top, bottom *Side) *Encounter {
	return &Encounter{
		ID:           "test",
		Top:          top,
		Bottom:       bottom,
		TopTarget:    top.Element,
		BottomTarget: bottom.Element,
	}
}
