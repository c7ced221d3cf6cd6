package store

import (
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

// Frequency is a task's home follow-up frequency.
type Frequency string

const (
	FreqToday     Frequency = "today"
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
	FreqOneTime   Frequency = "one_time"
	FreqMisc      Frequency = "misc"
)

var Frequencies = []Frequency{FreqToday, FreqDaily, FreqWeekly, FreqMonthly, FreqQuarterly, FreqYearly, FreqOneTime, FreqMisc}

func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// HomeKind returns the period tab a task with this frequency belongs to.
// Quarterly, one-time and misc tasks have no home period tab.
func (f Frequency) HomeKind() (period.Kind, bool) {
	switch f {
	case FreqToday, FreqDaily:
		return period.Daily, true
	case FreqWeekly:
		return period.Weekly, true
	case FreqMonthly:
		return period.Monthly, true
	case FreqYearly:
		return period.Yearly, true
	}
	return period.Daily, false
}

// TaskType is how a task's progress is measured.
type TaskType string

const (
	TypeTime    TaskType = "time"
	TypeCount   TaskType = "count"
	TypeBoolean TaskType = "boolean"
)

func (t TaskType) Valid() bool {
	return t == TypeTime || t == TypeCount || t == TypeBoolean
}

type Pillar struct {
	ID          int64
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
}

type Category struct {
	ID        int64
	PillarID  int64
	Name      string
	Color     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Task struct {
	ID               int64
	Name             string
	Description      string
	PillarID         int64
	CategoryID       *int64
	Frequency        Frequency
	Type             TaskType
	AllocatedMinutes int
	TargetValue      float64
	Unit             string
	Priority         int
	IsCompleted      bool
	CompletedAt      *time.Time
	IsActive         bool
	NAMarkedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Target returns the amount the task should reach once per home period:
// minutes for time tasks, the target value for count tasks and 1 for boolean tasks.
func (t Task) Target() float64 {
	switch t.Type {
	case TypeTime:
		return float64(t.AllocatedMinutes)
	case TypeCount:
		return t.TargetValue
	default:
		return 1
	}
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Name             string
	Description      string
	PillarID         int64
	CategoryID       *int64
	Frequency        Frequency
	Type             TaskType
	AllocatedMinutes int
	TargetValue      float64
	Unit             string
	Priority         int
}

// TaskFilter is used to filter tasks in queries.
type TaskFilter struct {
	PillarID        *int64
	CategoryID      *int64
	Frequency       *Frequency
	IncludeInactive bool
	IncludeDone     bool
}

// Status is the tab-local state of a task within one period.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
	StatusNA
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusNA:
		return "na"
	default:
		return "active"
	}
}

// StatusRow is one row of a per-period status ledger.
type StatusRow struct {
	TaskID      int64
	Kind        period.Kind
	PeriodStart time.Time
	IsCompleted bool
	IsNA        bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	Exists      bool
}

// Status collapses the two stored flags. A row carrying both flags reads as
// completed.
func (r StatusRow) Status() Status {
	switch {
	case r.IsCompleted:
		return StatusCompleted
	case r.IsNA:
		return StatusNA
	default:
		return StatusActive
	}
}

// StatusPatch updates a status row. Nil fields keep their stored value.
type StatusPatch struct {
	IsCompleted *bool `json:"is_completed,omitempty"`
	IsNA        *bool `json:"is_na,omitempty"`
}

// Entry is one measurement in an entry ledger. Hour is set only for daily entries.
type Entry struct {
	TaskID    int64
	Kind      period.Kind
	Date      time.Time
	Hour      *int
	Value     float64
	UpdatedAt time.Time
}

// EntryFilter is used to filter daily entries in queries.
type EntryFilter struct {
	TaskID *int64
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailySummary is the per-day total of one task's daily entries.
type DailySummary struct {
	Date     string
	TaskID   int64
	TaskName string
	Total    float64
	Slots    int
}

type Habit struct {
	ID                   int64
	Name                 string
	Description          string
	Mode                 habit.Mode
	HabitType            habit.Type
	PeriodType           period.Kind
	TargetValue          *float64
	Comparison           habit.Comparison
	TargetCountPerPeriod int
	SessionTargetValue   *float64
	SessionTargetUnit    string
	AggregateTarget      float64
	LinkedTaskID         *int64
	StartDate            time.Time
	IsActive             bool
	CurrentStreak        int
	LongestStreak        int
	TotalCompletions     int
	CreatedAt            time.Time
}

// Rule returns the evaluation rule for the habit.
func (h Habit) Rule() habit.Rule {
	return habit.Rule{
		Mode:                 h.Mode,
		Type:                 h.HabitType,
		PeriodType:           h.PeriodType,
		TargetValue:          h.TargetValue,
		Comparison:           h.Comparison,
		TargetCountPerPeriod: h.TargetCountPerPeriod,
		SessionTargetValue:   h.SessionTargetValue,
		AggregateTarget:      h.AggregateTarget,
	}
}

type HabitEntry struct {
	HabitID      int64
	Date         time.Time
	IsSuccessful bool
	ActualValue  *float64
	Note         string
}

type HabitSession struct {
	HabitID       int64
	PeriodStart   time.Time
	SessionNumber int
	IsCompleted   bool
	Value         *float64
	MeetsTarget   bool
	CompletedAt   *time.Time
}

type HabitPeriod struct {
	HabitID           int64
	PeriodType        period.Kind
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

type Challenge struct {
	ID            int64
	Name          string
	Description   string
	WhyReason     string
	Type          habit.ChallengeType
	StartDate     time.Time
	EndDate       time.Time
	TargetDays    int
	TargetCount   int
	TargetValue   float64
	Unit          string
	Status        habit.ChallengeStatus
	CurrentStreak int
	LongestStreak int
	CompletedDays int
	CurrentCount  int
	CurrentValue  float64
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// Goal returns the evaluation goal for the challenge.
func (c Challenge) Goal() habit.ChallengeGoal {
	return habit.ChallengeGoal{
		Type:        c.Type,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		TargetDays:  c.TargetDays,
		TargetCount: c.TargetCount,
		TargetValue: c.TargetValue,
	}
}

type ChallengeEntry struct {
	ChallengeID  int64
	Date         time.Time
	IsCompleted  bool
	CountValue   int
	NumericValue float64
	Note         string
}

type Setting struct {
	Key   string
	Value string
}
