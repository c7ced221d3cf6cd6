// Package habit evaluates habits and challenges from their entry logs: streaks,
// per-period occurrence counts, session quality and aggregate totals.
package habit

import (
	"fmt"
	"sort"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

// Mode is a habit tracking mode.
type Mode string

const (
	ModeDailyStreak         Mode = "daily_streak"
	ModeOccurrence          Mode = "occurrence"
	ModeOccurrenceWithValue Mode = "occurrence_with_value"
	ModeAggregate           Mode = "aggregate"
)

var Modes = []Mode{ModeDailyStreak, ModeOccurrence, ModeOccurrenceWithValue, ModeAggregate}

func (m Mode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}

// UsesSessions reports whether the mode is evaluated from per-period sessions.
func (m Mode) UsesSessions() bool {
	return m == ModeOccurrence || m == ModeOccurrenceWithValue || m == ModeAggregate
}

// Type is what a habit entry measures.
type Type string

const (
	TypeBoolean Type = "boolean"
	TypeTime    Type = "time"
	TypeCount   Type = "count"
)

func (t Type) Valid() bool {
	return t == TypeBoolean || t == TypeTime || t == TypeCount
}

// Comparison decides whether a measured value meets a target.
type Comparison string

const (
	AtLeast Comparison = "at_least"
	AtMost  Comparison = "at_most"
	Exactly Comparison = "exactly"
)

func (c Comparison) Valid() bool {
	return c == AtLeast || c == AtMost || c == Exactly
}

// Compare applies the comparison. An empty comparison behaves as AtLeast.
func (c Comparison) Compare(actual, target float64) bool {
	switch c {
	case AtMost:
		return actual <= target
	case Exactly:
		return actual == target
	default:
		return actual >= target
	}
}

// Rule is the evaluation configuration of one habit.
type Rule struct {
	Mode                 Mode
	Type                 Type
	PeriodType           period.Kind
	TargetValue          *float64
	Comparison           Comparison
	TargetCountPerPeriod int
	SessionTargetValue   *float64
	AggregateTarget      float64
}

// Validate checks that the fields the mode needs are present.
func (r Rule) Validate() error {
	if !r.Mode.Valid() {
		return fmt.Errorf("unknown tracking mode %q", r.Mode)
	}
	if r.Comparison != "" && !r.Comparison.Valid() {
		return fmt.Errorf("unknown comparison %q", r.Comparison)
	}
	switch r.Mode {
	case ModeDailyStreak:
		if r.PeriodType != period.Daily {
			return fmt.Errorf("daily_streak habits use the daily period")
		}
	case ModeOccurrence:
		if r.TargetCountPerPeriod <= 0 {
			return fmt.Errorf("occurrence habits need a positive target count per period")
		}
	case ModeOccurrenceWithValue:
		if r.TargetCountPerPeriod <= 0 {
			return fmt.Errorf("occurrence_with_value habits need a positive target count per period")
		}
		if r.SessionTargetValue == nil {
			return fmt.Errorf("occurrence_with_value habits need a session target value")
		}
	case ModeAggregate:
		if r.AggregateTarget <= 0 {
			return fmt.Errorf("aggregate habits need a positive aggregate target")
		}
	}
	if r.Mode.UsesSessions() && r.PeriodType != period.Weekly && r.PeriodType != period.Monthly {
		return fmt.Errorf("%s habits use a weekly or monthly period", r.Mode)
	}
	return nil
}

// DaySuccess decides whether a logged day counts as a success. Habits without a
// target value are plain done/not-done.
func (r Rule) DaySuccess(done bool, value *float64) bool {
	if r.TargetValue == nil {
		return done
	}
	if value == nil {
		return false
	}
	return r.Comparison.Compare(*value, *r.TargetValue)
}

// SessionMeetsTarget compares a session value against the session target.
func (r Rule) SessionMeetsTarget(value *float64) bool {
	if r.SessionTargetValue == nil || value == nil {
		return false
	}
	return r.Comparison.Compare(*value, *r.SessionTargetValue)
}

// Entry is one evaluated day of a habit log.
type Entry struct {
	Date    time.Time
	Success bool
	Value   *float64
}

// Streaks returns the current and longest runs of consecutive successful days.
// The current run ends today when today is logged, otherwise at the last logged
// day. Entries after today are ignored.
func Streaks(entries []Entry, today time.Time) (current, longest int) {
	today = period.DayStart(today)
	byDay := make(map[string]Entry, len(entries))
	for _, e := range entries {
		d := period.DayStart(e.Date)
		if d.After(today) {
			continue
		}
		e.Date = d
		byDay[period.FormatDate(d)] = e
	}
	if len(byDay) == 0 {
		return 0, 0
	}

	days := make([]Entry, 0, len(byDay))
	for _, e := range byDay {
		days = append(days, e)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	run := 0
	var prev time.Time
	for _, e := range days {
		if !e.Success {
			run = 0
			continue
		}
		if run > 0 && period.DaysBetween(prev, e.Date) == 1 {
			run++
		} else {
			run = 1
		}
		prev = e.Date
		if run > longest {
			longest = run
		}
	}

	anchor := days[len(days)-1].Date
	for d := anchor; ; d = d.AddDate(0, 0, -1) {
		e, ok := byDay[period.FormatDate(d)]
		if !ok || !e.Success {
			break
		}
		current++
	}
	return current, longest
}

// Session is one occurrence inside a weekly or monthly habit period.
type Session struct {
	Number    int
	Completed bool
	Value     *float64
}

// PeriodResult is the rolled-up evaluation of one habit period.
type PeriodResult struct {
	PeriodStart       time.Time
	PeriodEnd         time.Time
	TargetCount       int
	CompletedCount    int
	AggregateTarget   float64
	AggregateAchieved float64
	IsSuccessful      bool
	SuccessPercentage float64
	QualityPercentage *float64
}

// EvaluatePeriod evaluates the habit period starting at start. Sessions feed the
// occurrence and aggregate modes; entries feed daily_streak and the aggregate
// mode when no session carries a value.
func EvaluatePeriod(r Rule, start time.Time, sessions []Session, entries []Entry, now time.Time) PeriodResult {
	kind := r.PeriodType
	s := kind.Start(start)
	res := PeriodResult{
		PeriodStart: s,
		PeriodEnd:   kind.End(s).AddDate(0, 0, -1),
	}

	switch r.Mode {
	case ModeDailyStreak:
		elapsed := period.DaysElapsed(s, kind, now)
		res.TargetCount = elapsed
		for _, e := range entries {
			if e.Success && kind.Contains(s, e.Date) && !period.DayStart(e.Date).After(period.DayStart(now)) {
				res.CompletedCount++
			}
		}
		res.IsSuccessful = elapsed > 0 && res.CompletedCount >= elapsed
		res.SuccessPercentage = percent(float64(res.CompletedCount), float64(elapsed))

	case ModeOccurrence, ModeOccurrenceWithValue:
		res.TargetCount = r.TargetCountPerPeriod
		meeting := 0
		for _, sess := range sessions {
			if !sess.Completed {
				continue
			}
			res.CompletedCount++
			if r.SessionMeetsTarget(sess.Value) {
				meeting++
			}
		}
		res.IsSuccessful = res.CompletedCount >= res.TargetCount
		res.SuccessPercentage = percent(float64(res.CompletedCount), float64(res.TargetCount))
		if r.Mode == ModeOccurrenceWithValue {
			q := percent(float64(meeting), float64(len(sessions)))
			res.QualityPercentage = &q
		}

	case ModeAggregate:
		res.AggregateTarget = r.AggregateTarget
		fromSessions := false
		for _, sess := range sessions {
			if sess.Completed {
				res.CompletedCount++
			}
			if sess.Value != nil {
				res.AggregateAchieved += *sess.Value
				fromSessions = true
			}
		}
		if !fromSessions {
			for _, e := range entries {
				if e.Value != nil && kind.Contains(s, e.Date) {
					res.AggregateAchieved += *e.Value
				}
			}
		}
		res.IsSuccessful = res.AggregateAchieved >= res.AggregateTarget
		res.SuccessPercentage = percent(res.AggregateAchieved, res.AggregateTarget)
	}
	return res
}

// percent returns part/whole*100, uncapped. A zero whole yields 0.
func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
