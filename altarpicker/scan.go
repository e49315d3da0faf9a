package altarpicker

import (
	"sort"
	"strings"
	"sync/atomic"

	maa "github.com/MaaXYZ/maa-framework-go/v4"

	"github.com/exilekit/altar-agent/altar"
)

// ocrLine - one OCR hit on the altar panel
type ocrLine struct {
	Text string
	Box  maa.Rect
}

// screenHandle is the click target of one altar option. It stays valid while
// the scan generation that produced it is current.
type screenHandle struct {
	box     maa.Rect
	gen     uint64
	current *atomic.Uint64
}

func (h *screenHandle) Valid() bool {
	return h != nil && h.current != nil && h.current.Load() == h.gen
}

func (h *screenHandle) Center() (int, int) {
	return h.box.X() + h.box.Width()/2, h.box.Y() + h.box.Height()/2
}

// scannedSide - header, mod lines and bounding box of one panel half
type scannedSide struct {
	Header string
	Lines  []string
	Box    maa.Rect
}

// splitPanel sorts OCR lines top-down and splits them at splitY. Each half
// needs a line that resolves to a mod target; it becomes the header, lines
// above it (altar title etc.) are ignored.
func splitPanel(lines []ocrLine, splitY int) (top, bottom scannedSide, ok bool) {
	sorted := make([]ocrLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y() == sorted[j].Box.Y() {
			return sorted[i].Box.X() < sorted[j].Box.X()
		}
		return sorted[i].Box.Y() < sorted[j].Box.Y()
	})

	var upper, lower []ocrLine
	for _, l := range sorted {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		if l.Box.Y()+l.Box.Height()/2 < splitY {
			upper = append(upper, l)
		} else {
			lower = append(lower, l)
		}
	}

	top, okTop := collectSide(upper)
	bottom, okBottom := collectSide(lower)
	return top, bottom, okTop && okBottom
}

func collectSide(lines []ocrLine) (scannedSide, bool) {
	var side scannedSide
	headerAt := -1
	for i, l := range lines {
		if altar.GetModTarget(l.Text) != altar.TargetNone {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return side, false
	}

	side.Header = lines[headerAt].Text
	side.Box = lines[headerAt].Box
	for _, l := range lines[headerAt+1:] {
		side.Lines = append(side.Lines, l.Text)
		side.Box = union(side.Box, l.Box)
	}
	return side, true
}

func union(a, b maa.Rect) maa.Rect {
	x0, y0 := min(a.X(), b.X()), min(a.Y(), b.Y())
	x1 := max(a.X()+a.Width(), b.X()+b.Width())
	y1 := max(a.Y()+a.Height(), b.Y()+b.Height())
	return maa.Rect{x0, y0, x1 - x0, y1 - y0}
}

// detectEncounterType reads the altar owner from the panel text.
func detectEncounterType(lines []ocrLine) altar.EncounterType {
	for _, l := range lines {
		switch {
		case strings.Contains(l.Text, "Exarch"):
			return altar.EncounterExarch
		case strings.Contains(l.Text, "Eater"):
			return altar.EncounterEater
		}
	}
	return altar.EncounterUnknown
}

func parseEncounterType(s string) (altar.EncounterType, bool) {
	switch strings.ToLower(s) {
	case "exarch":
		return altar.EncounterExarch, true
	case "eater":
		return altar.EncounterEater, true
	default:
		return altar.EncounterUnknown, false
	}
}
