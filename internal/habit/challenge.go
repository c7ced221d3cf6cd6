package habit

import (
	"fmt"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

// ChallengeType selects how a challenge's progress is counted.
type ChallengeType string

const (
	ChallengeDailyStreak  ChallengeType = "daily_streak"
	ChallengeCountBased   ChallengeType = "count_based"
	ChallengeAccumulation ChallengeType = "accumulation"
)

func (t ChallengeType) Valid() bool {
	return t == ChallengeDailyStreak || t == ChallengeCountBased || t == ChallengeAccumulation
}

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
	StatusFailed    ChallengeStatus = "failed"
	StatusAbandoned ChallengeStatus = "abandoned"
)

func (s ChallengeStatus) Valid() bool {
	return s == StatusActive || s == StatusCompleted || s == StatusFailed || s == StatusAbandoned
}

// ChallengeGoal is the target of one challenge.
type ChallengeGoal struct {
	Type        ChallengeType
	StartDate   time.Time
	EndDate     time.Time
	TargetDays  int
	TargetCount int
	TargetValue float64
}

// Validate checks the date range and the target the type needs.
func (g ChallengeGoal) Validate() error {
	if !g.Type.Valid() {
		return fmt.Errorf("unknown challenge type %q", g.Type)
	}
	if period.DayStart(g.EndDate).Before(period.DayStart(g.StartDate)) {
		return fmt.Errorf("end date %s is before start date %s",
			period.FormatDate(g.EndDate), period.FormatDate(g.StartDate))
	}
	switch g.Type {
	case ChallengeDailyStreak:
		if g.TargetDays <= 0 {
			return fmt.Errorf("daily_streak challenges need positive target days")
		}
	case ChallengeCountBased:
		if g.TargetCount <= 0 {
			return fmt.Errorf("count_based challenges need a positive target count")
		}
	case ChallengeAccumulation:
		if g.TargetValue <= 0 {
			return fmt.Errorf("accumulation challenges need a positive target value")
		}
	}
	return nil
}

// InRange reports whether d lies within [StartDate, EndDate].
func (g ChallengeGoal) InRange(d time.Time) bool {
	day := period.DayStart(d)
	return !day.Before(period.DayStart(g.StartDate)) && !day.After(period.DayStart(g.EndDate))
}

// Expired reports whether the end date has passed. It never changes the status.
func (g ChallengeGoal) Expired(now time.Time) bool {
	return period.DayStart(now).After(period.DayStart(g.EndDate))
}

// ChallengeDay is one logged day of a challenge.
type ChallengeDay struct {
	Date      time.Time
	Completed bool
	Count     int
	Value     float64
}

// done reports whether the day counts towards streaks and completed days.
func (g ChallengeGoal) done(d ChallengeDay) bool {
	switch g.Type {
	case ChallengeCountBased:
		return d.Completed || d.Count > 0
	case ChallengeAccumulation:
		return d.Completed || d.Value > 0
	default:
		return d.Completed
	}
}

// ChallengeTotals are the running totals of a challenge.
type ChallengeTotals struct {
	CurrentStreak int
	LongestStreak int
	CompletedDays int
	CurrentCount  int
	CurrentValue  float64
	Reached       bool
	Progress      float64
}

// EvaluateChallenge recomputes the running totals from every logged day inside
// the challenge window.
func EvaluateChallenge(g ChallengeGoal, days []ChallengeDay, today time.Time) ChallengeTotals {
	var t ChallengeTotals
	streakDays := make([]Entry, 0, len(days))
	for _, d := range days {
		if !g.InRange(d.Date) {
			continue
		}
		ok := g.done(d)
		if ok {
			t.CompletedDays++
		}
		t.CurrentCount += d.Count
		t.CurrentValue += d.Value
		streakDays = append(streakDays, Entry{Date: d.Date, Success: ok})
	}

	end := period.DayStart(g.EndDate)
	if period.DayStart(today).Before(end) {
		end = period.DayStart(today)
	}
	t.CurrentStreak, t.LongestStreak = Streaks(streakDays, end)

	switch g.Type {
	case ChallengeDailyStreak:
		t.Reached = t.LongestStreak >= g.TargetDays
		t.Progress = percent(float64(t.LongestStreak), float64(g.TargetDays))
	case ChallengeCountBased:
		t.Reached = t.CurrentCount >= g.TargetCount
		t.Progress = percent(float64(t.CurrentCount), float64(g.TargetCount))
	case ChallengeAccumulation:
		t.Reached = t.CurrentValue >= g.TargetValue
		t.Progress = percent(t.CurrentValue, g.TargetValue)
	}
	return t
}

// NextStatus returns the status after evaluation. Only active challenges move,
// and only to completed; failed and abandoned are set by explicit action.
func NextStatus(current ChallengeStatus, t ChallengeTotals) ChallengeStatus {
	if current == StatusActive && t.Reached {
		return StatusCompleted
	}
	return current
}

// CheckTransition validates a status change requested by the user.
func CheckTransition(from, to ChallengeStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown challenge status %q", to)
	}
	switch to {
	case StatusCompleted:
		return fmt.Errorf("challenges complete by reaching their target")
	case StatusFailed, StatusAbandoned:
		if from != StatusActive {
			return fmt.Errorf("cannot mark a %s challenge as %s", from, to)
		}
	case StatusActive:
		if from == StatusCompleted {
			return fmt.Errorf("cannot reopen a completed challenge")
		}
	}
	return nil
}
