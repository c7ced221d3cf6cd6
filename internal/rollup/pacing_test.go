package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func TestPacingTable(t *testing.T) {
	cases := []struct {
		freq store.Frequency
		view period.Kind
		want Rule
	}{
		{store.FreqDaily, period.Weekly, RuleStrict},
		{store.FreqToday, period.Monthly, RuleStrict},
		{store.FreqDaily, period.Daily, RuleFlexible},
		{store.FreqWeekly, period.Weekly, RuleFlexible},
		{store.FreqMonthly, period.Monthly, RuleFlexible},
		{store.FreqWeekly, period.Monthly, RuleProrated},
		{store.FreqMonthly, period.Weekly, RuleProrated},
		{store.FreqYearly, period.Daily, RuleProrated},
		{store.FreqOneTime, period.Weekly, RuleNone},
		{store.FreqQuarterly, period.Monthly, RuleNone},
		{store.FreqMisc, period.Daily, RuleNone},
	}
	for _, c := range cases {
		p := NewPacingRule(store.Task{Frequency: c.freq}, c.view)
		assert.Equal(t, c.want, p.Rule, "%s viewed %s", c.freq, c.view)
	}
}

func TestDailyTaskInWeeklyTab(t *testing.T) {
	// Read: daily, 30 minutes. Mon=30, Tue=0, Wed=15, viewed on Wednesday.
	task := store.Task{ID: 1, Name: "Read", Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 30}
	b := Aggregate(task, period.Weekly, day(4), []store.Entry{entry(4, 8, 30), entry(5, 8, 0), entry(6, 8, 15)}, 0)

	j := Judge(NewPacingRule(task, period.Weekly), b.Start, b.Total, day(6).Add(15*time.Hour))
	assert.Equal(t, RuleStrict, j.Rule)
	assert.Equal(t, 3, j.DaysElapsed)
	assert.InDelta(t, 90.0, j.Expected, 0.001)
	assert.Equal(t, 45.0, j.Actual)
	assert.Equal(t, StateBelow, j.State)
}

func TestWeeklyTaskFlexiblePacing(t *testing.T) {
	// Pushups: weekly, 100. Sixty done by Thursday.
	task := store.Task{ID: 2, Name: "Pushups", Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100}
	b := Aggregate(task, period.Weekly, day(4), []store.Entry{entry(4, 7, 25), entry(6, 7, 35)}, 0)

	j := Judge(NewPacingRule(task, period.Weekly), b.Start, b.Total, day(7))
	assert.Equal(t, RuleFlexible, j.Rule)
	assert.Equal(t, 4, j.DaysElapsed)
	assert.InDelta(t, 57.142, j.Expected, 0.001)
	assert.Equal(t, StateOnTrack, j.State)
}

func TestProratedExpected(t *testing.T) {
	task := store.Task{Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 70}
	p := NewPacingRule(task, period.Monthly)
	assert.InDelta(t, 150.0, p.Expected(day(1), 15), 0.001)

	yearly := NewPacingRule(store.Task{Frequency: store.FreqYearly, Type: store.TypeTime, AllocatedMinutes: 36525}, period.Monthly)
	assert.InDelta(t, 3100.0, yearly.Expected(day(1), 31), 0.001)
}

func TestExpectedMonotonic(t *testing.T) {
	for _, freq := range store.Frequencies {
		for _, view := range period.Kinds {
			p := NewPacingRule(store.Task{Frequency: freq, Type: store.TypeCount, TargetValue: 42}, view)
			start := view.Start(day(1))
			prev := -1.0
			for d := 0; d <= view.Length(start); d++ {
				e := p.Expected(start, d)
				assert.GreaterOrEqual(t, e, prev, "%s in %s at day %d", freq, view, d)
				prev = e
			}
		}
	}
}

func TestFutureNeverBelow(t *testing.T) {
	task := store.Task{Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 60}
	now := day(6)
	for _, view := range period.Kinds {
		next := view.Shift(view.Start(now), 1)
		j := Judge(NewPacingRule(task, view), next, 0, now)
		assert.Equal(t, StateFuture, j.State, "view %s", view)
		assert.Zero(t, j.Expected)
	}
	assert.Equal(t, StateFuture, DayState(task, day(7), 0, now))
}

func TestJudgeZeroProgressIsBelow(t *testing.T) {
	task := store.Task{Frequency: store.FreqMonthly, Type: store.TypeCount, TargetValue: 10}
	j := Judge(NewPacingRule(task, period.Monthly), day(1), 0, day(1))
	assert.Equal(t, StateBelow, j.State)

	none := Judge(NewPacingRule(store.Task{Frequency: store.FreqOneTime}, period.Monthly), day(1), 0, day(1))
	assert.Equal(t, StateUnjudged, none.State)
}

func TestJudgePastPeriodUsesFullLength(t *testing.T) {
	task := store.Task{Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 10}
	j := Judge(NewPacingRule(task, period.Weekly), day(4), 70, day(20))
	assert.Equal(t, 7, j.DaysElapsed)
	assert.Equal(t, StateOnTrack, j.State)
}

func TestDayState(t *testing.T) {
	daily := store.Task{Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 30}
	assert.Equal(t, StateOnTrack, DayState(daily, day(4), 30, day(6)))
	assert.Equal(t, StateBelow, DayState(daily, day(5), 0, day(6)))

	weekly := store.Task{Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100}
	assert.Equal(t, StateUnjudged, DayState(weekly, day(5), 0, day(6)))
}

func TestCellStatusOverridesPacing(t *testing.T) {
	assert.Equal(t, StateCompleted, Cell(store.StatusCompleted, StateBelow))
	assert.Equal(t, StateNA, Cell(store.StatusNA, StateOnTrack))
	assert.Equal(t, StateBelow, Cell(store.StatusActive, StateBelow))
	assert.Equal(t, "on_track", StateOnTrack.String())
	assert.Equal(t, "strict", RuleStrict.String())
}
