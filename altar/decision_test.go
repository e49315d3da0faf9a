package altar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decide(t *testing.T, weights map[string]int, top, bottom *Side) (Decision, *Encounter) {
	t.Helper()
	e := encounterOf(top, bottom)
	r, err := NewCalculator(storeWith(t, weights)).CalculateAltarWeights(e)
	require.NoError(t, err)
	return Decide(e, r), e
}

func TestDecideRules(t *testing.T) {
	weights := map[string]int{
		"good": 10, "meh": 4, "great": 95, "awful": 95, "bad": 5,
	}

	tests := []struct {
		name            string
		top, bottom     *Side
		outcome         Outcome
		reason          Reason
		topDangerous    bool
		bottomDangerous bool
	}{
		{
			name:    "unmatched wins over everything",
			top:     &Side{Upsides: Slots{"great"}, HasUnmatchedMods: true, Element: newHandle("t")},
			bottom:  sideOf([]string{"good"}, nil),
			outcome: Undecided, reason: ReasonUnmatched,
		},
		{
			name:    "zero upside aggregate",
			top:     sideOf(nil, []string{"bad"}),
			bottom:  sideOf([]string{"good"}, nil),
			outcome: Undecided, reason: ReasonUnrecognizedWeight,
		},
		{
			name:    "both dangerous",
			top:     sideOf([]string{"great"}, []string{"awful"}),
			bottom:  sideOf([]string{"good"}, []string{"awful"}),
			outcome: Undecided, reason: ReasonBothDangerous,
			topDangerous: true, bottomDangerous: true,
		},
		{
			name:    "top upside override beats worse ratio",
			top:     sideOf([]string{"great"}, []string{"bad", "bad", "bad", "bad", "bad", "bad", "bad", "bad"}),
			bottom:  sideOf([]string{"good", "good", "good", "good", "good", "good", "good", "good"}, nil),
			outcome: TopChosen, reason: ReasonTopUpsideOverride,
		},
		{
			name:    "bottom upside override",
			top:     sideOf([]string{"good"}, nil),
			bottom:  sideOf([]string{"great"}, []string{"bad"}),
			outcome: BottomChosen, reason: ReasonBottomUpsideOverride,
		},
		{
			name:    "top upside override checked before bottom",
			top:     sideOf([]string{"great"}, nil),
			bottom:  sideOf([]string{"great", "great"}, nil),
			outcome: TopChosen, reason: ReasonTopUpsideOverride,
		},
		{
			name:    "avoid top danger",
			top:     sideOf([]string{"good", "good", "good"}, []string{"awful"}),
			bottom:  sideOf([]string{"meh"}, []string{"bad"}),
			outcome: BottomChosen, reason: ReasonTopDownsideAvoided,
			topDangerous: true,
		},
		{
			name:    "avoid bottom danger",
			top:     sideOf([]string{"meh"}, []string{"bad"}),
			bottom:  sideOf([]string{"good", "good", "good"}, []string{"awful"}),
			outcome: TopChosen, reason: ReasonBottomDownsideAvoided,
			bottomDangerous: true,
		},
		{
			name:    "better top ratio",
			top:     sideOf([]string{"good"}, nil),
			bottom:  sideOf([]string{"meh"}, nil),
			outcome: TopChosen, reason: ReasonBetterRatio,
		},
		{
			name:    "better bottom ratio",
			top:     sideOf([]string{"meh"}, []string{"bad"}),
			bottom:  sideOf([]string{"good"}, []string{"bad"}),
			outcome: BottomChosen, reason: ReasonBetterRatio,
		},
		{
			name:    "tie",
			top:     sideOf([]string{"good"}, []string{"meh"}),
			bottom:  sideOf([]string{"good"}, []string{"meh"}),
			outcome: Undecided, reason: ReasonTie,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, e := decide(t, weights, tt.top, tt.bottom)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.topDangerous, d.TopDangerous)
			assert.Equal(t, tt.bottomDangerous, d.BottomDangerous)
			switch tt.outcome {
			case TopChosen:
				assert.Same(t, e.TopTarget, d.Target)
			case BottomChosen:
				assert.Same(t, e.BottomTarget, d.Target)
			default:
				assert.Nil(t, d.Target)
			}
		})
	}
}

func TestDecideTieRatios(t *testing.T) {
	// upside 10, downside 1+4 = 5 on both sides
	d, _ := decide(t, map[string]int{"up": 10, "down": 4},
		sideOf([]string{"up"}, []string{"down"}),
		sideOf([]string{"up"}, []string{"down"}))
	assert.Equal(t, Undecided, d.Outcome)
	assert.Equal(t, ReasonTie, d.Reason)
	assert.Equal(t, "unresolved: tie, choose manually", d.Reason.String())
}

func TestDecideTieAfterRounding(t *testing.T) {
	// 23/40 = 0.575 and 29/50 = 0.58 both round to 0.58
	d, _ := decide(t, map[string]int{"tu": 23, "td": 39, "bu": 29, "bd": 49},
		sideOf([]string{"tu"}, []string{"td"}),
		sideOf([]string{"bu"}, []string{"bd"}))
	assert.Equal(t, Undecided, d.Outcome)
	assert.Equal(t, ReasonTie, d.Reason)
}

func TestEvaluatorThreshold(t *testing.T) {
	e := encounterOf(sideOf([]string{"x"}, nil), sideOf([]string{"y", "y", "y"}, nil))
	r, err := NewCalculator(storeWith(t, map[string]int{"x": 50, "y": 20})).CalculateAltarWeights(e)
	require.NoError(t, err)

	assert.Equal(t, BottomChosen, NewEvaluator(90).Decide(e, r).Outcome)
	assert.Equal(t, TopChosen, NewEvaluator(50).Decide(e, r).Outcome)
	assert.Equal(t, DefaultDangerThreshold, NewEvaluator(0).DangerThreshold)
}

func TestDecideNilInputs(t *testing.T) {
	assert.Equal(t, Undecided, Decide(nil, nil).Outcome)
	e := encounterOf(sideOf(nil, nil), sideOf(nil, nil))
	assert.Equal(t, Undecided, Decide(e, nil).Outcome)
}

func TestReasonStrings(t *testing.T) {
	for r := ReasonNone; r <= ReasonTie; r++ {
		assert.NotEmpty(t, r.String())
	}
	assert.Equal(t, "bottom", BottomChosen.String())
}
