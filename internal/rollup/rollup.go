// Package rollup sums a task's daily entries into coarser period views and
// judges progress against an elapsed-time-scaled target.
package rollup

import (
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// DayTotal is one day of a breakdown. Value is the day's sum for time and
// count tasks, and 0 or 1 for boolean tasks.
type DayTotal struct {
	Date  time.Time
	Hours [24]float64
	Value float64
}

// Breakdown is a task's per-day view of one period.
type Breakdown struct {
	TaskID      int64
	View        period.Kind
	Start       time.Time
	End         time.Time // exclusive
	Days        []DayTotal
	PeriodValue float64
	// Carried is the sum of home-kind period values carried into a coarser view.
	Carried float64
	Total   float64
}

// Aggregate builds the breakdown of task t for the view period containing
// start. daily holds the task's hourly daily entries (rows outside the period
// are ignored); periodValue is the task's value in the view kind's own entry
// table and only counts when the view is the task's home kind. Days without
// entries are present with zero values.
func Aggregate(t store.Task, view period.Kind, start time.Time, daily []store.Entry, periodValue float64) Breakdown {
	s := view.Start(start)
	b := Breakdown{
		TaskID: t.ID,
		View:   view,
		Start:  s,
		End:    view.End(s),
	}

	days := view.Days(s)
	index := make(map[string]int, len(days))
	b.Days = make([]DayTotal, len(days))
	for i, d := range days {
		b.Days[i].Date = d
		index[period.FormatDate(d)] = i
	}

	for _, e := range daily {
		i, ok := index[period.FormatDate(e.Date)]
		if !ok {
			continue
		}
		h := 0
		if e.Hour != nil && *e.Hour >= 0 && *e.Hour < 24 {
			h = *e.Hour
		}
		b.Days[i].Hours[h] += e.Value
	}

	for i := range b.Days {
		var sum float64
		for _, v := range b.Days[i].Hours {
			sum += v
		}
		if t.Type == store.TypeBoolean {
			if sum > 0 {
				sum = 1
			} else {
				sum = 0
			}
		}
		b.Days[i].Value = sum
		b.Total += sum
	}

	if home, ok := t.Frequency.HomeKind(); ok && home == view && view != period.Daily {
		b.PeriodValue = periodValue
		b.Total += periodValue
	}
	return b
}

// Carry adds the period-level values of t's home kind whose period starts
// inside b. It applies only when the home kind is weekly or monthly and finer
// than the view; each value lands on the day its period starts.
func (b *Breakdown) Carry(t store.Task, lumps []store.Entry) {
	home, ok := t.Frequency.HomeKind()
	if !ok || home == period.Daily || home >= b.View {
		return
	}
	for _, e := range lumps {
		if e.Kind != home {
			continue
		}
		start := home.Start(e.Date)
		if start.Before(b.Start) || !start.Before(b.End) {
			continue
		}
		key := period.FormatDate(start)
		for i := range b.Days {
			if period.FormatDate(b.Days[i].Date) == key {
				b.Days[i].Value += e.Value
				b.Carried += e.Value
				b.Total += e.Value
				break
			}
		}
	}
}

// Day returns the total for date d, or false when d is outside the period.
func (b Breakdown) Day(d time.Time) (DayTotal, bool) {
	key := period.FormatDate(d)
	for _, day := range b.Days {
		if period.FormatDate(day.Date) == key {
			return day, true
		}
	}
	return DayTotal{}, false
}

// Average is Total spread over the days elapsed so far, at least one.
func (b Breakdown) Average(now time.Time) float64 {
	return b.Total / float64(period.AveragingDays(b.Start, b.View, now))
}

// ByMonth folds the days of the breakdown into calendar months, indexed by
// month-1. Useful for yearly views.
func (b Breakdown) ByMonth() [12]float64 {
	var out [12]float64
	for _, d := range b.Days {
		out[d.Date.Month()-1] += d.Value
	}
	return out
}

// Values returns the per-day values in date order.
func (b Breakdown) Values() []float64 {
	out := make([]float64, len(b.Days))
	for i, d := range b.Days {
		out[i] = d.Value
	}
	return out
}
