package rollup

import (
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// Rule is how the expected progress of a task is scaled in a view.
type Rule int

const (
	// RuleNone: the task has no home period, nothing is judged.
	RuleNone Rule = iota
	// RuleStrict: a daily task must hit its target every elapsed day.
	RuleStrict
	// RuleFlexible: the target may be spread freely across the home period.
	RuleFlexible
	// RuleProrated: the home target is converted to a per-day rate.
	RuleProrated
)

func (r Rule) String() string {
	switch r {
	case RuleStrict:
		return "strict"
	case RuleFlexible:
		return "flexible"
	case RuleProrated:
		return "prorated"
	default:
		return "none"
	}
}

// pacingTable is indexed [home][view].
var pacingTable = [4][4]Rule{
	period.Daily:   {RuleFlexible, RuleStrict, RuleStrict, RuleStrict},
	period.Weekly:  {RuleProrated, RuleFlexible, RuleProrated, RuleProrated},
	period.Monthly: {RuleProrated, RuleProrated, RuleFlexible, RuleProrated},
	period.Yearly:  {RuleProrated, RuleProrated, RuleProrated, RuleFlexible},
}

// nominalDays is the average length of each home period, for prorating.
var nominalDays = [4]float64{
	period.Daily:   1,
	period.Weekly:  7,
	period.Monthly: 30.4375,
	period.Yearly:  365.25,
}

// PacingRule is computed once per (task, view) pair.
type PacingRule struct {
	Rule   Rule
	Home   period.Kind
	View   period.Kind
	Target float64
}

// NewPacingRule looks up the rule for task t viewed in view.
func NewPacingRule(t store.Task, view period.Kind) PacingRule {
	p := PacingRule{View: view, Target: t.Target()}
	home, ok := t.Frequency.HomeKind()
	if !ok || !view.Valid() {
		return p
	}
	p.Home = home
	p.Rule = pacingTable[home][view]
	return p
}

// Expected returns the progress expected after daysElapsed days of the view
// period starting at start. It never decreases as daysElapsed grows.
func (p PacingRule) Expected(start time.Time, daysElapsed int) float64 {
	if daysElapsed <= 0 {
		return 0
	}
	d := float64(daysElapsed)
	switch p.Rule {
	case RuleStrict:
		return p.Target * d
	case RuleFlexible:
		return p.Target * d / float64(p.View.Length(start))
	case RuleProrated:
		return p.Target * d / nominalDays[p.Home]
	default:
		return 0
	}
}

// State is the display state of a period or day cell.
type State int

const (
	StateUnjudged State = iota
	StateFuture
	StateOnTrack
	StateBelow
	StateCompleted
	StateNA
)

func (s State) String() string {
	switch s {
	case StateFuture:
		return "future"
	case StateOnTrack:
		return "on_track"
	case StateBelow:
		return "below"
	case StateCompleted:
		return "completed"
	case StateNA:
		return "na"
	default:
		return "unjudged"
	}
}

// Judgment is the pacing verdict for one task in one view period.
type Judgment struct {
	Rule        Rule
	DaysElapsed int
	Expected    float64
	Actual      float64
	State       State
}

// Judge compares actual progress in the view period starting at start with the
// expected progress at now. Future periods are never judged.
func Judge(p PacingRule, start time.Time, actual float64, now time.Time) Judgment {
	s := p.View.Start(start)
	j := Judgment{Rule: p.Rule, Actual: actual}
	if period.IsFuture(s, p.View, now) {
		j.State = StateFuture
		return j
	}
	if p.Rule == RuleNone {
		return j
	}
	j.DaysElapsed = period.DaysElapsed(s, p.View, now)
	j.Expected = p.Expected(s, j.DaysElapsed)
	if actual >= j.Expected {
		j.State = StateOnTrack
	} else {
		j.State = StateBelow
	}
	return j
}

// DayState judges one day cell. Only tasks whose home period is daily carry a
// per-day target; other cells are unjudged unless they lie in the future.
func DayState(t store.Task, day time.Time, value float64, now time.Time) State {
	if period.IsFuture(day, period.Daily, now) {
		return StateFuture
	}
	if home, ok := t.Frequency.HomeKind(); !ok || home != period.Daily {
		return StateUnjudged
	}
	if value >= t.Target() {
		return StateOnTrack
	}
	return StateBelow
}

// Cell combines the tab-local status with the pacing state. Completed and NA
// override pacing.
func Cell(status store.Status, s State) State {
	switch status {
	case store.StatusCompleted:
		return StateCompleted
	case store.StatusNA:
		return StateNA
	}
	return s
}
