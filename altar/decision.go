package altar

// DefaultDangerThreshold is the slot weight at which a single mod is treated
// as build-bricking and overrides the ratio comparison.
const DefaultDangerThreshold = 90

// Outcome of evaluating an encounter.
type Outcome int

const (
	Undecided Outcome = iota
	TopChosen
	BottomChosen
)

func (o Outcome) String() string {
	switch o {
	case TopChosen:
		return "top"
	case BottomChosen:
		return "bottom"
	default:
		return "undecided"
	}
}

// Reason names the rule that produced a Decision.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnmatched
	ReasonUnrecognizedWeight
	ReasonBothDangerous
	ReasonTopUpsideOverride
	ReasonBottomUpsideOverride
	ReasonTopDownsideAvoided
	ReasonBottomDownsideAvoided
	ReasonBetterRatio
	ReasonTie
)

func (r Reason) String() string {
	switch r {
	case ReasonUnmatched:
		return "unresolved: unmatched mod text"
	case ReasonUnrecognizedWeight:
		return "unresolved: unrecognized weight"
	case ReasonBothDangerous:
		return "unresolved: both options carry a build-bricking downside"
	case ReasonTopUpsideOverride:
		return "top upside over danger threshold"
	case ReasonBottomUpsideOverride:
		return "bottom upside over danger threshold"
	case ReasonTopDownsideAvoided:
		return "avoiding top downside over danger threshold"
	case ReasonBottomDownsideAvoided:
		return "avoiding bottom downside over danger threshold"
	case ReasonBetterRatio:
		return "better upside/downside ratio"
	case ReasonTie:
		return "unresolved: tie, choose manually"
	default:
		return "none"
	}
}

// Decision is the evaluator verdict. Target is the handle to click, nil when
// undecided.
type Decision struct {
	Outcome         Outcome
	Target          Handle
	Reason          Reason
	TopDangerous    bool
	BottomDangerous bool
}

func (d Decision) Decided() bool {
	return d.Outcome != Undecided
}

// Evaluator applies override and tie-break policy.
type Evaluator struct {
	DangerThreshold int
}

func NewEvaluator(threshold int) Evaluator {
	if threshold < MinWeight || threshold > MaxWeight {
		threshold = DefaultDangerThreshold
	}
	return Evaluator{DangerThreshold: threshold}
}

// Decide evaluates with the default threshold.
func Decide(e *Encounter, r *WeightResult) Decision {
	return NewEvaluator(DefaultDangerThreshold).Decide(e, r)
}

// Decide picks a side. Rules run in order and the first one that applies
// wins; slot overrides come before the ratio comparison so one catastrophic
// mod outweighs the aggregate score.
func (ev Evaluator) Decide(e *Encounter, r *WeightResult) Decision {
	if e == nil || e.Top == nil || e.Bottom == nil || r == nil {
		return Decision{Reason: ReasonUnrecognizedWeight}
	}
	undecided := func(reason Reason) Decision {
		return Decision{Outcome: Undecided, Reason: reason}
	}
	top := func(reason Reason) Decision {
		return Decision{Outcome: TopChosen, Target: e.TopTarget, Reason: reason}
	}
	bottom := func(reason Reason) Decision {
		return Decision{Outcome: BottomChosen, Target: e.BottomTarget, Reason: reason}
	}
	t := ev.DangerThreshold

	if e.Top.HasUnmatchedMods || e.Bottom.HasUnmatchedMods {
		return undecided(ReasonUnmatched)
	}
	if r.TopUpsideWeight <= 0 || r.TopDownsideWeight <= 0 ||
		r.BottomUpsideWeight <= 0 || r.BottomDownsideWeight <= 0 {
		return undecided(ReasonUnrecognizedWeight)
	}
	topDanger := r.TopSlots.MaxDownside() >= t
	bottomDanger := r.BottomSlots.MaxDownside() >= t
	if topDanger && bottomDanger {
		d := undecided(ReasonBothDangerous)
		d.TopDangerous, d.BottomDangerous = true, true
		return d
	}

	var d Decision
	switch {
	case r.TopSlots.MaxUpside() >= t:
		d = top(ReasonTopUpsideOverride)
	case r.BottomSlots.MaxUpside() >= t:
		d = bottom(ReasonBottomUpsideOverride)
	case topDanger:
		d = bottom(ReasonTopDownsideAvoided)
	case bottomDanger:
		d = top(ReasonBottomDownsideAvoided)
	case r.TopWeight > r.BottomWeight:
		d = top(ReasonBetterRatio)
	case r.BottomWeight > r.TopWeight:
		d = bottom(ReasonBetterRatio)
	default:
		d = undecided(ReasonTie)
	}
	d.TopDangerous, d.BottomDangerous = topDanger, bottomDanger
	return d
}
