package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// March 4th 2024 is a Monday.
func day(d int) time.Time { return period.Date(2024, time.March, d) }

func hour(h int) *int { return &h }

func entry(d, h int, v float64) store.Entry {
	return store.Entry{Kind: period.Daily, Date: day(d), Hour: hour(h), Value: v}
}

func TestAggregateSumsHoursAndZeroFills(t *testing.T) {
	task := store.Task{ID: 1, Frequency: store.FreqDaily, Type: store.TypeTime, AllocatedMinutes: 30}
	entries := []store.Entry{
		entry(4, 7, 20),
		entry(4, 21, 10),
		entry(6, 8, 15),
		entry(11, 8, 99), // next week
	}

	b := Aggregate(task, period.Weekly, day(6), entries, 500)

	require.Len(t, b.Days, 7)
	assert.Equal(t, "2024-03-04", period.FormatDate(b.Start))
	assert.Equal(t, "2024-03-11", period.FormatDate(b.End))
	assert.Equal(t, 30.0, b.Days[0].Value)
	assert.Equal(t, 20.0, b.Days[0].Hours[7])
	assert.Equal(t, 10.0, b.Days[0].Hours[21])
	assert.Equal(t, 0.0, b.Days[1].Value)
	assert.Equal(t, 15.0, b.Days[2].Value)
	// The weekly lump value does not belong to a daily task.
	assert.Equal(t, 0.0, b.PeriodValue)
	assert.Equal(t, 45.0, b.Total)
}

func TestAggregateEqualsSumOfDailyEntries(t *testing.T) {
	task := store.Task{ID: 1, Frequency: store.FreqDaily, Type: store.TypeCount, TargetValue: 10}
	var entries []store.Entry
	var want float64
	for d := 1; d <= 31; d++ {
		v := float64(d % 5)
		entries = append(entries, entry(d, d%24, v))
		want += v
	}
	entries = append(entries, store.Entry{Kind: period.Daily, Date: period.Date(2024, time.April, 1), Hour: hour(0), Value: 1000})

	b := Aggregate(task, period.Monthly, day(15), entries, 0)
	require.Len(t, b.Days, 31)
	assert.Equal(t, want, b.Total)

	var sum float64
	for _, v := range b.Values() {
		sum += v
	}
	assert.Equal(t, b.Total, sum)
}

func TestAggregateBooleanCountsDays(t *testing.T) {
	task := store.Task{ID: 1, Frequency: store.FreqDaily, Type: store.TypeBoolean}
	entries := []store.Entry{
		entry(4, 6, 1),
		entry(4, 7, 1),
		entry(5, 0, 0),
		entry(7, 0, 1),
	}
	b := Aggregate(task, period.Weekly, day(4), entries, 0)
	assert.Equal(t, 2.0, b.Total)
	assert.Equal(t, 1.0, b.Days[0].Value)
	assert.Equal(t, 0.0, b.Days[1].Value)
}

func TestAggregateHomeViewAddsPeriodValue(t *testing.T) {
	task := store.Task{ID: 2, Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100}
	b := Aggregate(task, period.Weekly, day(4), []store.Entry{entry(5, 9, 20)}, 30)
	assert.Equal(t, 30.0, b.PeriodValue)
	assert.Equal(t, 50.0, b.Total)

	monthly := Aggregate(task, period.Monthly, day(4), []store.Entry{entry(5, 9, 20)}, 30)
	assert.Equal(t, 0.0, monthly.PeriodValue)
	assert.Equal(t, 20.0, monthly.Total)
}

func TestCarryFinerHomeValues(t *testing.T) {
	task := store.Task{ID: 2, Frequency: store.FreqWeekly, Type: store.TypeCount, TargetValue: 100}
	lumps := []store.Entry{
		{Kind: period.Weekly, Date: period.Date(2024, time.February, 26), Value: 70}, // starts before March
		{Kind: period.Weekly, Date: day(4), Value: 40},
		{Kind: period.Weekly, Date: day(13), Value: 60}, // normalised to the 11th
		{Kind: period.Monthly, Date: day(1), Value: 999},
	}

	b := Aggregate(task, period.Monthly, day(1), []store.Entry{entry(5, 9, 5)}, 0)
	b.Carry(task, lumps)
	assert.Equal(t, 100.0, b.Carried)
	assert.Equal(t, 105.0, b.Total)
	assert.Equal(t, 40.0, b.Days[3].Value)
	assert.Equal(t, 60.0, b.Days[10].Value)

	// Same or finer views are left alone.
	weekly := Aggregate(task, period.Weekly, day(4), nil, 40)
	weekly.Carry(task, lumps)
	assert.Zero(t, weekly.Carried)
	assert.Equal(t, 40.0, weekly.Total)

	daily := store.Task{ID: 3, Frequency: store.FreqDaily, Type: store.TypeCount}
	monthly := Aggregate(daily, period.Monthly, day(1), nil, 0)
	monthly.Carry(daily, lumps)
	assert.Zero(t, monthly.Total)
}

func TestBreakdownHelpers(t *testing.T) {
	task := store.Task{ID: 1, Frequency: store.FreqDaily, Type: store.TypeTime}
	b := Aggregate(task, period.Yearly, day(1), []store.Entry{entry(4, 1, 10), entry(20, 1, 5)}, 0)
	require.Len(t, b.Days, 366)

	months := b.ByMonth()
	assert.Equal(t, 15.0, months[2])
	assert.Equal(t, 0.0, months[0])

	d, ok := b.Day(day(20))
	require.True(t, ok)
	assert.Equal(t, 5.0, d.Value)
	_, ok = b.Day(period.Date(2025, time.January, 1))
	assert.False(t, ok)

	week := Aggregate(task, period.Weekly, day(4), []store.Entry{entry(4, 1, 10), entry(5, 1, 20)}, 0)
	assert.InDelta(t, 15.0, week.Average(day(5)), 0.001)
	assert.InDelta(t, 30.0, week.Average(day(1)), 0.001)
}
