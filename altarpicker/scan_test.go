package altarpicker

import (
	"sync/atomic"
	"testing"

	maa "github.com/MaaXYZ/maa-framework-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exilekit/altar-agent/altar"
)

func line(text string, x, y int) ocrLine {
	return ocrLine{Text: text, Box: maa.Rect{x, y, 300, 20}}
}

// panel is a 720p altar with a boss top half and a player bottom half.
func panel() []ocrLine {
	return []ocrLine{
		line("Searing Exarch", 500, 40),
		line("Map boss gains:", 480, 100),
		line("Drops additional Chaos Orbs", 480, 130),
		line("Damage Penetrates 10% Elemental Resistances", 480, 160),
		line("Player gains:", 480, 400),
		line("20% increased Experience gain", 480, 430),
		line("-10% to all Elemental Resistances", 480, 460),
	}
}

func TestSplitPanel(t *testing.T) {
	lines := panel()
	// shuffled input still comes out top-down
	lines[2], lines[6] = lines[6], lines[2]

	top, bottom, ok := splitPanel(lines, 360)
	require.True(t, ok)

	assert.Equal(t, "Map boss gains:", top.Header)
	assert.Equal(t, []string{
		"Drops additional Chaos Orbs",
		"Damage Penetrates 10% Elemental Resistances",
	}, top.Lines)
	assert.Equal(t, maa.Rect{480, 100, 300, 80}, top.Box)

	assert.Equal(t, "Player gains:", bottom.Header)
	assert.Len(t, bottom.Lines, 2)
	assert.Equal(t, maa.Rect{480, 400, 300, 80}, bottom.Box)
}

func TestSplitPanelNeedsBothHeaders(t *testing.T) {
	lines := []ocrLine{
		line("Map boss gains:", 480, 100),
		line("Drops additional Chaos Orbs", 480, 130),
		line("20% increased Experience gain", 480, 430),
	}
	_, _, ok := splitPanel(lines, 360)
	assert.False(t, ok)

	_, _, ok = splitPanel(nil, 360)
	assert.False(t, ok)
}

func TestSplitPanelSkipsBlankLines(t *testing.T) {
	lines := append(panel(), line("   ", 480, 145))
	top, _, ok := splitPanel(lines, 360)
	require.True(t, ok)
	assert.Len(t, top.Lines, 2)
}

func TestScreenHandleFollowsGeneration(t *testing.T) {
	var gen atomic.Uint64
	h := &screenHandle{box: maa.Rect{10, 20, 100, 40}, gen: 1, current: &gen}
	assert.False(t, h.Valid())

	gen.Store(1)
	assert.True(t, h.Valid())
	x, y := h.Center()
	assert.Equal(t, 60, x)
	assert.Equal(t, 40, y)

	gen.Add(1)
	assert.False(t, h.Valid())

	var nilHandle *screenHandle
	assert.False(t, nilHandle.Valid())
}

func TestEncounterType(t *testing.T) {
	assert.Equal(t, altar.EncounterExarch, detectEncounterType(panel()))
	assert.Equal(t, altar.EncounterEater, detectEncounterType([]ocrLine{line("Eater of Worlds", 0, 0)}))
	assert.Equal(t, altar.EncounterUnknown, detectEncounterType(nil))

	typ, ok := parseEncounterType("Eater")
	assert.True(t, ok)
	assert.Equal(t, altar.EncounterEater, typ)
	_, ok = parseEncounterType("maven")
	assert.False(t, ok)
}

func TestParseScanParams(t *testing.T) {
	splitY, typ, err := parseScanParams("")
	require.NoError(t, err)
	assert.Equal(t, defaultSplitY, splitY)
	assert.Equal(t, altar.EncounterUnknown, typ)

	splitY, typ, err = parseScanParams(`{"split_y": 540, "type": "Exarch"}`)
	require.NoError(t, err)
	assert.Equal(t, 540, splitY)
	assert.Equal(t, altar.EncounterExarch, typ)

	_, _, err = parseScanParams(`{"split_y": "half"}`)
	assert.Error(t, err)
	_, _, err = parseScanParams(`{"split_y": 360`)
	assert.Error(t, err)
	_, _, err = parseScanParams(`{"type": "maven"}`)
	assert.Error(t, err)
}
