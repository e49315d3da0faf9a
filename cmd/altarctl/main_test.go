package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exilekit/altar-agent/altar"
	"github.com/exilekit/altar-agent/config"
	"github.com/exilekit/altar-agent/cycle"
	"github.com/exilekit/altar-agent/locker"
	"github.com/exilekit/altar-agent/weightfile"
)

const scanFile = `[
  {"type": "Eater",
   "top":    {"header": "Map boss gains:", "lines": ["Drops additional Chaos Orbs", "Damage Penetrates 10% Elemental Resistances"]},
   "bottom": {"header": "Player gains:", "lines": ["20% increased Experience gain", "-10% to all Elemental Resistances"]}},
  {"type": "Eater",
   "top":    {"header": "Map boss gains:", "lines": ["Drops additional Chaos Orbs", "Damage Penetrates 10% Elemental Resistances"]},
   "bottom": {"header": "Player gains:", "lines": ["20% increased Experience gain", "-10% to all Elemental Resistances"]}},
  {"type": "exarch",
   "top":    {"header": "Eldritch Minions gain:", "lines": ["Drops additional Scarabs", "Something the catalog lacks"]},
   "bottom": {"header": "Player gains:", "lines": ["increased Pack size"]}}
]`

func testSetup(t *testing.T) *setup {
	t.Helper()
	catalog, err := altar.DefaultCatalog()
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Paths.WeightsFile = filepath.Join(t.TempDir(), "weights.json")
	l := locker.NewMutex()
	store := altar.NewWeightStore(l)
	store.Seed(catalog)
	return &setup{cfg: cfg, catalog: catalog, store: store, locker: l}
}

func writeScans(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scans.json")
	require.NoError(t, os.WriteFile(path, []byte(scanFile), 0o644))
	return path
}

func TestReadScans(t *testing.T) {
	scans, err := readScans(writeScans(t))
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, altar.EncounterEater, scans[0].Type)
	assert.Equal(t, altar.EncounterExarch, scans[2].Type)
	assert.NotNil(t, scans[0].Top.Handle)

	_, err = readScans(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEvaluateScans(t *testing.T) {
	scans, err := readScans(writeScans(t))
	require.NoError(t, err)

	results := evaluateScans(testSetup(t).engine(), scans)
	require.Len(t, results, 3)

	assert.Equal(t, "top", results[0].Outcome)
	assert.Equal(t, altar.ReasonBetterRatio.String(), results[0].Reason)
	assert.Equal(t, 2.14, results[0].TopWeight)
	assert.Equal(t, 0.5, results[0].BottomWeight)

	assert.True(t, results[1].Duplicate)

	assert.Equal(t, "undecided", results[2].Outcome)
	assert.Equal(t, altar.ReasonUnmatched.String(), results[2].Reason)

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, results))
	out := buf.String()
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "2.14")
}

func TestReplay(t *testing.T) {
	scans, err := readScans(writeScans(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = replay(ctx, testSetup(t).engine(), scans,
		cycle.Config{ScanInterval: time.Millisecond, ConsumeInterval: time.Millisecond}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "scan 1: duplicate")
	assert.Equal(t, 1, strings.Count(out, "-> top"))
	assert.Equal(t, 1, strings.Count(out, "-> undecided"))
}

func TestReplayCycleFollowsConfig(t *testing.T) {
	c := config.Default()
	c.Scan.Interval = "40ms"
	c.Scan.ConsumeInterval = "15ms"

	got := replayCycle(c, 0, false)
	assert.Equal(t, 40*time.Millisecond, got.ScanInterval)
	assert.Equal(t, 15*time.Millisecond, got.ConsumeInterval)

	got = replayCycle(c, 5*time.Millisecond, true)
	assert.Equal(t, 5*time.Millisecond, got.ScanInterval)
	assert.Equal(t, 5*time.Millisecond, got.ConsumeInterval)
}

func TestSetWeight(t *testing.T) {
	s := testSetup(t)

	require.NoError(t, setWeight(s, "Player|no_regen", 100))
	entries, err := weightfile.Load(s.cfg.Paths.WeightsFile)
	require.NoError(t, err)
	assert.Equal(t, 100, entries["Player|no_regen"])
	assert.Equal(t, 60, entries["Boss|exalted_drop"])

	assert.Error(t, setWeight(s, "Player|made_up", 10))
	assert.ErrorIs(t, setWeight(s, "Player|no_regen", 101), altar.ErrWeightRange)
}
