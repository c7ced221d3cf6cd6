package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// Wednesday 6 March 2024, mid-afternoon.
var wednesday = period.Date(2024, time.March, 6).Add(15 * time.Hour)

func day(d int) time.Time { return period.Date(2024, time.March, d) }

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T, now time.Time) (*Service, *store.Store) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, WithClock(func() time.Time { return now })), st
}

func createTask(t *testing.T, svc *Service, in store.TaskInput) *store.Task {
	t.Helper()
	if in.PillarID == 0 {
		in.PillarID = 1
	}
	task, err := svc.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return task
}

func record(t *testing.T, svc *Service, taskID int64, k period.Kind, date time.Time, hour *int, v float64) {
	t.Helper()
	_, err := svc.RecordEntry(context.Background(), EntryInput{TaskID: taskID, Kind: k, Date: date, Hour: hour, Value: v})
	require.NoError(t, err)
}

// failingStatusRepo fails every status write, leaving everything else to the
// real store.
type failingStatusRepo struct {
	*store.Store
}

func (failingStatusRepo) SetPeriodStatus(int64, period.Kind, time.Time, store.StatusPatch) (store.StatusRow, error) {
	return store.StatusRow{}, errors.New("database is locked")
}

func TestDailyTaskViewedWeekly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, wednesday)
	read := createTask(t, svc, store.TaskInput{Name: "Read", Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 30})

	record(t, svc, read.ID, period.Daily, day(4), ptr(8), 30)
	record(t, svc, read.ID, period.Daily, day(5), ptr(8), 0)
	record(t, svc, read.ID, period.Daily, day(6), ptr(8), 15)

	b, err := svc.DailyAggregateForPeriod(ctx, read.ID, day(6), period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 45.0, b.Total)
	assert.Len(t, b.Days, 7)

	_, err = svc.TrackInPeriod(ctx, read.ID, day(6), period.Weekly)
	require.NoError(t, err)

	rows, err := svc.TabView(ctx, period.Weekly, day(4))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.False(t, row.Home)
	assert.InDelta(t, 90.0, row.Judgment.Expected, 0.001)
	assert.Equal(t, rollup.StateBelow, row.State)
	assert.Equal(t, rollup.StateOnTrack, row.DayStates[0])
	assert.Equal(t, rollup.StateBelow, row.DayStates[1])
	assert.Equal(t, rollup.StateFuture, row.DayStates[3])
}

func TestWeeklyTaskOnTrack(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, day(7).Add(20*time.Hour))
	push := createTask(t, svc, store.TaskInput{Name: "Pushups", Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100})

	record(t, svc, push.ID, period.Daily, day(4), nil, 25)
	record(t, svc, push.ID, period.Daily, day(6), nil, 35)

	rows, err := svc.TabView(ctx, period.Weekly, day(4))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Home)
	assert.Equal(t, rollup.RuleFlexible, rows[0].Judgment.Rule)
	assert.Equal(t, rollup.StateOnTrack, rows[0].State)
}

func TestWeeklyValuesRollIntoMonthlyTab(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, day(20).Add(15*time.Hour))
	push := createTask(t, svc, store.TaskInput{Name: "Pushups", Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100})

	for _, d := range []int{4, 11, 18} {
		record(t, svc, push.ID, period.Weekly, day(d), nil, 100)
	}
	// The week of 26 February starts outside March.
	record(t, svc, push.ID, period.Weekly, period.Date(2024, time.February, 26), nil, 100)
	record(t, svc, push.ID, period.Daily, day(19), nil, 5)
	_, err := svc.TrackInPeriod(ctx, push.ID, day(20), period.Monthly)
	require.NoError(t, err)

	rows, err := svc.TabView(ctx, period.Monthly, day(20))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Home)
	assert.Equal(t, 300.0, rows[0].Breakdown.Carried)
	assert.Equal(t, 305.0, rows[0].Breakdown.Total)
	assert.NotEqual(t, rollup.StateBelow, rows[0].State)

	b, err := svc.DailyAggregateForPeriod(ctx, push.ID, day(20), period.Monthly)
	require.NoError(t, err)
	march4, ok := b.Day(day(4))
	require.True(t, ok)
	assert.Equal(t, 100.0, march4.Value)

	weekly, err := svc.DailyAggregateForPeriod(ctx, push.ID, day(11), period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 100.0, weekly.Total)
	assert.Zero(t, weekly.Carried)
}

func TestMonthlyValuesRollIntoYearlyTab(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, wednesday)
	budget := createTask(t, svc, store.TaskInput{Name: "Budget review", Frequency: store.FreqMonthly, Type: store.TypeTime, AllocatedMinutes: 60})

	record(t, svc, budget.ID, period.Monthly, period.Date(2024, time.January, 1), nil, 45)
	record(t, svc, budget.ID, period.Monthly, day(1), nil, 60)

	b, err := svc.DailyAggregateForPeriod(ctx, budget.ID, wednesday, period.Yearly)
	require.NoError(t, err)
	assert.Equal(t, 105.0, b.Total)
	months := b.ByMonth()
	assert.Equal(t, 45.0, months[0])
	assert.Equal(t, 60.0, months[2])
}

func TestCompleteHomeTaskThenWeeklyMonitoring(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, wednesday)
	read := createTask(t, svc, store.TaskInput{Name: "Read", Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 30})
	record(t, svc, read.ID, period.Daily, day(4), ptr(8), 30)
	_, err := svc.TrackInPeriod(ctx, read.ID, day(4), period.Weekly)
	require.NoError(t, err)

	before, err := svc.DailyAggregateForPeriod(ctx, read.ID, day(4), period.Weekly)
	require.NoError(t, err)

	got, err := svc.CompleteHomeTask(ctx, read.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	daily, err := svc.PeriodStatus(ctx, read.ID, wednesday, period.Daily)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, daily.Status())

	weekly, err := svc.PeriodStatus(ctx, read.ID, wednesday, period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, weekly.Status())

	after, err := svc.DailyAggregateForPeriod(ctx, read.ID, day(4), period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)

	dailyRows, err := svc.TabView(ctx, period.Daily, wednesday)
	require.NoError(t, err)
	require.Len(t, dailyRows, 1)
	assert.Equal(t, rollup.StateCompleted, dailyRows[0].State)

	weeklyRows, err := svc.TabView(ctx, period.Weekly, wednesday)
	require.NoError(t, err)
	require.Len(t, weeklyRows, 1)
	assert.NotEqual(t, rollup.StateCompleted, weeklyRows[0].State)

	// A globally completed task no longer appears in later daily tabs.
	laterRows, err := svc.TabView(ctx, period.Daily, day(7))
	require.NoError(t, err)
	assert.Empty(t, laterRows)

	n, err := st.CountStatusRows(read.ID, period.Daily)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCompleteHomeTaskPartialFailure(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewMemory()
	require.NoError(t, err)
	defer st.Close()
	svc := New(failingStatusRepo{st}, WithClock(func() time.Time { return wednesday }))

	task, err := st.CreateTask(store.TaskInput{Name: "Read", PillarID: 1, Frequency: store.FreqDaily})
	require.NoError(t, err)

	_, err = svc.CompleteHomeTask(ctx, task.ID)
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.GlobalApplied)
	assert.False(t, partial.StatusApplied)
	assert.Equal(t, "complete", partial.Op)
	assert.Contains(t, err.Error(), "database is locked")

	// The global write stays; the home status row was never written.
	got, err := st.GetTask(task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	row, err := st.GetPeriodStatus(task.ID, period.Daily, wednesday)
	require.NoError(t, err)
	assert.False(t, row.Exists)
}

func TestHomeOperationsWithoutHomeTab(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, wednesday)
	task := createTask(t, svc, store.TaskInput{Name: "Passport", Frequency: store.FreqOneTime, Type: store.TypeBoolean})

	got, err := svc.CompleteHomeTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	for _, k := range period.Kinds {
		n, _ := st.CountStatusRows(task.ID, k)
		assert.Zero(t, n, "kind %s", k)
	}
}

func TestMarkHomeNAAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, wednesday)
	task := createTask(t, svc, store.TaskInput{Name: "Budget", Frequency: store.FreqMonthly, Type: store.TypeTime, AllocatedMinutes: 120})

	got, err := svc.MarkHomeNA(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	row, _ := svc.PeriodStatus(ctx, task.ID, day(1), period.Monthly)
	assert.Equal(t, store.StatusNA, row.Status())

	got, err = svc.RestoreHomeTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsCompleted)
	row, _ = svc.PeriodStatus(ctx, task.ID, day(1), period.Monthly)
	assert.Equal(t, store.StatusActive, row.Status())

	_, err = svc.CompleteHomeTask(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetPeriodStatusDoesNotTouchGlobal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, wednesday)
	task := createTask(t, svc, store.TaskInput{Name: "Read", Frequency: store.FreqDaily})

	row, err := svc.SetPeriodStatus(ctx, task.ID, day(4), period.Weekly, store.StatusPatch{IsCompleted: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, row.Status())

	got, _ := svc.GetTask(ctx, task.ID)
	assert.False(t, got.IsCompleted)

	row, err = svc.RestorePeriod(ctx, task.ID, day(4), period.Weekly)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, row.Status())
}

func TestRecordEntryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, wednesday)
	flag := createTask(t, svc, store.TaskInput{Name: "Floss", Frequency: store.FreqDaily, Type: store.TypeBoolean})

	_, err := svc.RecordEntry(ctx, EntryInput{TaskID: flag.ID, Kind: period.Daily, Date: day(6), Value: 2})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = svc.RecordEntry(ctx, EntryInput{TaskID: flag.ID, Kind: period.Daily, Date: day(6), Hour: ptr(30), Value: 1})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = svc.RecordEntry(ctx, EntryInput{TaskID: 404, Kind: period.Daily, Date: day(6), Value: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.RecordEntry(cancelled, EntryInput{TaskID: flag.ID, Kind: period.Daily, Date: day(6), Value: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordEntrySyncsLinkedHabit(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, wednesday)
	task := createTask(t, svc, store.TaskInput{Name: "Meditate", Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 10})
	h, err := svc.CreateHabit(ctx, store.HabitInput{
		Name:         "Meditate 10",
		Mode:         habit.ModeDailyStreak,
		HabitType:    habit.TypeTime,
		PeriodType:   period.Daily,
		TargetValue:  ptr(10.0),
		LinkedTaskID: &task.ID,
		StartDate:    day(1),
	})
	require.NoError(t, err)

	record(t, svc, task.ID, period.Daily, day(5), ptr(7), 12)
	record(t, svc, task.ID, period.Daily, day(6), ptr(7), 4)
	record(t, svc, task.ID, period.Daily, day(6), ptr(21), 8)

	entries, err := st.HabitEntries(h.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsSuccessful)
	assert.True(t, entries[1].IsSuccessful)
	assert.Equal(t, 12.0, *entries[1].ActualValue)

	got, _ := st.GetHabit(h.ID)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, 2, got.LongestStreak)
	assert.Equal(t, 2, got.TotalCompletions)
}

func TestLogHabitDayKeepsLongest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, day(6))
	h, err := svc.CreateHabit(ctx, store.HabitInput{Name: "Journal", Mode: habit.ModeDailyStreak, PeriodType: period.Daily, StartDate: day(1)})
	require.NoError(t, err)

	for d := 1; d <= 4; d++ {
		_, err := svc.LogHabitDay(ctx, h.ID, day(d), true, nil, "")
		require.NoError(t, err)
	}
	got, err := svc.LogHabitDay(ctx, h.ID, day(5), false, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 4, got.LongestStreak)

	got, err = svc.LogHabitDay(ctx, h.ID, day(6), true, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 4, got.LongestStreak)

	_, err = svc.LogHabitDay(ctx, h.ID, period.Date(2024, time.February, 1), true, nil, "")
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestGymOccurrenceWeek(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, day(11))
	h, err := svc.CreateHabit(ctx, store.HabitInput{Name: "Gym", Mode: habit.ModeOccurrence, PeriodType: period.Weekly, TargetCountPerPeriod: 4, StartDate: day(1)})
	require.NoError(t, err)

	for n := 1; n <= 3; n++ {
		_, err := svc.LogHabitSession(ctx, h.ID, day(6), n, true, nil)
		require.NoError(t, err)
	}
	res, err := svc.EvaluateHabitPeriod(ctx, h.ID, day(9))
	require.NoError(t, err)
	assert.Equal(t, 3, res.CompletedCount)
	assert.False(t, res.IsSuccessful)

	saved, err := st.GetHabitPeriod(h.ID, day(4))
	require.NoError(t, err)
	assert.Equal(t, 3, saved.CompletedCount)
	assert.False(t, saved.IsSuccessful)
}

func TestLogHabitSessionRejectsDailyStreak(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, day(6))
	h, err := svc.CreateHabit(ctx, store.HabitInput{Name: "Journal", Mode: habit.ModeDailyStreak, PeriodType: period.Daily})
	require.NoError(t, err)
	_, err = svc.LogHabitSession(ctx, h.ID, day(6), 1, true, nil)
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestStepsChallengeCompletes(t *testing.T) {
	ctx := context.Background()
	now := day(4)
	st, err := store.NewMemory()
	require.NoError(t, err)
	defer st.Close()
	svc := New(st, WithClock(func() time.Time { return now }))

	c, err := svc.CreateChallenge(ctx, store.ChallengeInput{
		Name:        "10K steps",
		Type:        habit.ChallengeAccumulation,
		StartDate:   day(4),
		EndDate:     day(10),
		TargetValue: 70000,
	})
	require.NoError(t, err)

	var res ChallengeResult
	for d := 4; d <= 10; d++ {
		now = day(d)
		res, err = svc.EvaluateChallengeDay(ctx, c.ID, day(d), ChallengeDayInput{Value: 10000})
		require.NoError(t, err)
		if d < 10 {
			assert.Equal(t, habit.StatusActive, res.Challenge.Status, "day %d", d)
		}
	}
	assert.Equal(t, habit.StatusCompleted, res.Challenge.Status)
	assert.NotNil(t, res.Challenge.CompletedAt)
	assert.InDelta(t, 70000.0, res.Totals.CurrentValue, 0.001)
	assert.Equal(t, 7, res.Challenge.CurrentStreak)

	_, err = svc.EvaluateChallengeDay(ctx, c.ID, day(11), ChallengeDayInput{Value: 1})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestChallengeManualTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, day(20))
	c, err := svc.CreateChallenge(ctx, store.ChallengeInput{Name: "No sugar", Type: habit.ChallengeDailyStreak, StartDate: day(1), EndDate: day(10), TargetDays: 10})
	require.NoError(t, err)

	res, err := svc.ChallengeProgress(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Expired)
	assert.Equal(t, habit.StatusActive, res.Challenge.Status)

	_, err = svc.SetChallengeStatus(ctx, c.ID, habit.StatusCompleted)
	assert.ErrorIs(t, err, store.ErrInvalid)

	got, err := svc.SetChallengeStatus(ctx, c.ID, habit.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, habit.StatusFailed, got.Status)

	_, err = svc.SetChallengeStatus(ctx, c.ID, habit.StatusAbandoned)
	assert.ErrorIs(t, err, store.ErrInvalid)

	got, err = svc.SetChallengeStatus(ctx, c.ID, habit.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, habit.StatusActive, got.Status)
}

func TestTabViewRejectsUnknownKind(t *testing.T) {
	svc, _ := newTestService(t, wednesday)
	_, err := svc.TabView(context.Background(), period.Kind(7), wednesday)
	assert.ErrorIs(t, err, store.ErrInvalid)
}
