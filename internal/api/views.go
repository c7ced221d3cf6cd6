package api

import (
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

// JSON shapes of the API. Dates travel as YYYY-MM-DD, timestamps as RFC 3339.

func date(t time.Time) string { return period.FormatDate(t) }

func stamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type pillarView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type categoryView struct {
	ID       int64  `json:"id"`
	PillarID int64  `json:"pillar_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Archived bool   `json:"archived"`
}

type taskView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	PillarID         int64   `json:"pillar_id"`
	CategoryID       *int64  `json:"category_id"`
	Frequency        string  `json:"follow_up_frequency"`
	Type             string  `json:"task_type"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	TargetValue      float64 `json:"target_value"`
	Unit             string  `json:"unit"`
	Priority         int     `json:"priority"`
	IsCompleted      bool    `json:"is_completed"`
	CompletedAt      *string `json:"completed_at"`
	IsActive         bool    `json:"is_active"`
	NAMarkedAt       *string `json:"na_marked_at"`
}

func newTaskView(t store.Task) taskView {
	return taskView{
		ID:               t.ID,
		Name:             t.Name,
		Description:      t.Description,
		PillarID:         t.PillarID,
		CategoryID:       t.CategoryID,
		Frequency:        string(t.Frequency),
		Type:             string(t.Type),
		AllocatedMinutes: t.AllocatedMinutes,
		TargetValue:      t.TargetValue,
		Unit:             t.Unit,
		Priority:         t.Priority,
		IsCompleted:      t.IsCompleted,
		CompletedAt:      stamp(t.CompletedAt),
		IsActive:         t.IsActive,
		NAMarkedAt:       stamp(t.NAMarkedAt),
	}
}

type taskRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	PillarID         int64   `json:"pillar_id"`
	CategoryID       *int64  `json:"category_id"`
	Frequency        string  `json:"follow_up_frequency"`
	Type             string  `json:"task_type"`
	AllocatedMinutes int     `json:"allocated_minutes"`
	TargetValue      float64 `json:"target_value"`
	Unit             string  `json:"unit"`
	Priority         int     `json:"priority"`
}

func (r taskRequest) input() store.TaskInput {
	return store.TaskInput{
		Name:             r.Name,
		Description:      r.Description,
		PillarID:         r.PillarID,
		CategoryID:       r.CategoryID,
		Frequency:        store.Frequency(r.Frequency),
		Type:             store.TaskType(r.Type),
		AllocatedMinutes: r.AllocatedMinutes,
		TargetValue:      r.TargetValue,
		Unit:             r.Unit,
		Priority:         r.Priority,
	}
}

type statusView struct {
	TaskID      int64   `json:"task_id"`
	Kind        string  `json:"kind"`
	PeriodStart string  `json:"period_start"`
	Status      string  `json:"status"`
	IsCompleted bool    `json:"is_completed"`
	IsNA        bool    `json:"is_na"`
	CompletedAt *string `json:"completed_at"`
	Stored      bool    `json:"stored"`
}

func newStatusView(r store.StatusRow) statusView {
	return statusView{
		TaskID:      r.TaskID,
		Kind:        r.Kind.String(),
		PeriodStart: date(r.PeriodStart),
		Status:      r.Status().String(),
		IsCompleted: r.IsCompleted,
		IsNA:        r.IsNA,
		CompletedAt: stamp(r.CompletedAt),
		Stored:      r.Exists,
	}
}

type dayView struct {
	Date  string    `json:"date"`
	Value float64   `json:"value"`
	Hours []float64 `json:"hours"`
}

type breakdownView struct {
	TaskID      int64     `json:"task_id"`
	View        string    `json:"view"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Days        []dayView `json:"days"`
	PeriodValue float64   `json:"period_value"`
	Carried     float64   `json:"carried"`
	Total       float64   `json:"total"`
}

func newBreakdownView(b rollup.Breakdown) breakdownView {
	v := breakdownView{
		TaskID:      b.TaskID,
		View:        b.View.String(),
		Start:       date(b.Start),
		End:         date(b.End),
		Days:        make([]dayView, 0, len(b.Days)),
		PeriodValue: b.PeriodValue,
		Carried:     b.Carried,
		Total:       b.Total,
	}
	for _, d := range b.Days {
		v.Days = append(v.Days, dayView{Date: date(d.Date), Value: d.Value, Hours: d.Hours[:]})
	}
	return v
}

type judgmentView struct {
	Rule        string  `json:"rule"`
	DaysElapsed int     `json:"days_elapsed"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	State       string  `json:"state"`
}

type tabRowView struct {
	Task      taskView      `json:"task"`
	Home      bool          `json:"home"`
	Status    statusView    `json:"status"`
	Breakdown breakdownView `json:"breakdown"`
	Pacing    judgmentView  `json:"pacing"`
	State     string        `json:"state"`
	DayStates []string      `json:"day_states"`
}

func newTabRowView(r tracker.TabRow) tabRowView {
	v := tabRowView{
		Task:      newTaskView(r.Task),
		Home:      r.Home,
		Status:    newStatusView(r.Status),
		Breakdown: newBreakdownView(r.Breakdown),
		Pacing: judgmentView{
			Rule:        r.Judgment.Rule.String(),
			DaysElapsed: r.Judgment.DaysElapsed,
			Expected:    r.Judgment.Expected,
			Actual:      r.Judgment.Actual,
			State:       r.Judgment.State.String(),
		},
		State:     r.State.String(),
		DayStates: make([]string, len(r.DayStates)),
	}
	for i, s := range r.DayStates {
		v.DayStates[i] = s.String()
	}
	return v
}

type entryRequest struct {
	TaskID int64   `json:"task_id"`
	Kind   string  `json:"kind"`
	Date   string  `json:"date"`
	Hour   *int    `json:"hour"`
	Value  float64 `json:"value"`
}

type entryView struct {
	TaskID     int64   `json:"task_id"`
	TaskName   string  `json:"task_name,omitempty"`
	PillarName string  `json:"pillar_name,omitempty"`
	Kind       string  `json:"kind"`
	Date       string  `json:"date"`
	Hour       *int    `json:"hour,omitempty"`
	Value      float64 `json:"value"`
}

func newEntryView(e store.Entry) entryView {
	return entryView{TaskID: e.TaskID, Kind: e.Kind.String(), Date: date(e.Date), Hour: e.Hour, Value: e.Value}
}

type habitView struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	TrackingMode         string   `json:"tracking_mode"`
	HabitType            string   `json:"habit_type"`
	PeriodType           string   `json:"period_type"`
	TargetValue          *float64 `json:"target_value"`
	Comparison           string   `json:"comparison_type"`
	TargetCountPerPeriod int      `json:"target_count_per_period"`
	SessionTargetValue   *float64 `json:"session_target_value"`
	SessionTargetUnit    string   `json:"session_target_unit"`
	AggregateTarget      float64  `json:"aggregate_target"`
	LinkedTaskID         *int64   `json:"linked_task_id"`
	StartDate            string   `json:"start_date"`
	IsActive             bool     `json:"is_active"`
	CurrentStreak        int      `json:"current_streak"`
	LongestStreak        int      `json:"longest_streak"`
	TotalCompletions     int      `json:"total_completions"`
}

func newHabitView(h store.Habit) habitView {
	return habitView{
		ID:                   h.ID,
		Name:                 h.Name,
		Description:          h.Description,
		TrackingMode:         string(h.Mode),
		HabitType:            string(h.HabitType),
		PeriodType:           h.PeriodType.String(),
		TargetValue:          h.TargetValue,
		Comparison:           string(h.Comparison),
		TargetCountPerPeriod: h.TargetCountPerPeriod,
		SessionTargetValue:   h.SessionTargetValue,
		SessionTargetUnit:    h.SessionTargetUnit,
		AggregateTarget:      h.AggregateTarget,
		LinkedTaskID:         h.LinkedTaskID,
		StartDate:            date(h.StartDate),
		IsActive:             h.IsActive,
		CurrentStreak:        h.CurrentStreak,
		LongestStreak:        h.LongestStreak,
		TotalCompletions:     h.TotalCompletions,
	}
}

type habitRequest struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	TrackingMode         string   `json:"tracking_mode"`
	HabitType            string   `json:"habit_type"`
	PeriodType           string   `json:"period_type"`
	TargetValue          *float64 `json:"target_value"`
	Comparison           string   `json:"comparison_type"`
	TargetCountPerPeriod int      `json:"target_count_per_period"`
	SessionTargetValue   *float64 `json:"session_target_value"`
	SessionTargetUnit    string   `json:"session_target_unit"`
	AggregateTarget      float64  `json:"aggregate_target"`
	LinkedTaskID         *int64   `json:"linked_task_id"`
	StartDate            string   `json:"start_date"`
}

func (r habitRequest) input() (store.HabitInput, error) {
	in := store.HabitInput{
		Name:                 r.Name,
		Description:          r.Description,
		Mode:                 habit.Mode(r.TrackingMode),
		HabitType:            habit.Type(r.HabitType),
		TargetValue:          r.TargetValue,
		Comparison:           habit.Comparison(r.Comparison),
		TargetCountPerPeriod: r.TargetCountPerPeriod,
		SessionTargetValue:   r.SessionTargetValue,
		SessionTargetUnit:    r.SessionTargetUnit,
		AggregateTarget:      r.AggregateTarget,
		LinkedTaskID:         r.LinkedTaskID,
	}
	if r.PeriodType != "" {
		k, err := period.ParseKind(r.PeriodType)
		if err != nil {
			return in, badRequest("invalid period_type", err)
		}
		in.PeriodType = k
	}
	if r.StartDate != "" {
		d, err := parseDate(r.StartDate, "start_date")
		if err != nil {
			return in, err
		}
		in.StartDate = d
	}
	return in, nil
}

type periodResultView struct {
	PeriodStart       string   `json:"period_start"`
	PeriodEnd         string   `json:"period_end"`
	TargetCount       int      `json:"target_count"`
	CompletedCount    int      `json:"completed_count"`
	AggregateTarget   float64  `json:"aggregate_target"`
	AggregateAchieved float64  `json:"aggregate_achieved"`
	IsSuccessful      bool     `json:"is_successful"`
	SuccessPercentage float64  `json:"success_percentage"`
	QualityPercentage *float64 `json:"quality_percentage"`
}

func newPeriodResultView(p habit.PeriodResult) periodResultView {
	return periodResultView{
		PeriodStart:       date(p.PeriodStart),
		PeriodEnd:         date(p.PeriodEnd),
		TargetCount:       p.TargetCount,
		CompletedCount:    p.CompletedCount,
		AggregateTarget:   p.AggregateTarget,
		AggregateAchieved: p.AggregateAchieved,
		IsSuccessful:      p.IsSuccessful,
		SuccessPercentage: p.SuccessPercentage,
		QualityPercentage: p.QualityPercentage,
	}
}

type challengeView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	WhyReason     string  `json:"why_reason"`
	Type          string  `json:"challenge_type"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TargetDays    int     `json:"target_days"`
	TargetCount   int     `json:"target_count"`
	TargetValue   float64 `json:"target_value"`
	Unit          string  `json:"unit"`
	Status        string  `json:"status"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	CompletedDays int     `json:"completed_days"`
	CurrentCount  int     `json:"current_count"`
	CurrentValue  float64 `json:"current_value"`
	CompletedAt   *string `json:"completed_at"`
	Expired       *bool   `json:"expired,omitempty"`
}

func newChallengeView(c store.Challenge) challengeView {
	return challengeView{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		WhyReason:     c.WhyReason,
		Type:          string(c.Type),
		StartDate:     date(c.StartDate),
		EndDate:       date(c.EndDate),
		TargetDays:    c.TargetDays,
		TargetCount:   c.TargetCount,
		TargetValue:   c.TargetValue,
		Unit:          c.Unit,
		Status:        string(c.Status),
		CurrentStreak: c.CurrentStreak,
		LongestStreak: c.LongestStreak,
		CompletedDays: c.CompletedDays,
		CurrentCount:  c.CurrentCount,
		CurrentValue:  c.CurrentValue,
		CompletedAt:   stamp(c.CompletedAt),
	}
}

func newChallengeResultView(r tracker.ChallengeResult) challengeView {
	v := newChallengeView(r.Challenge)
	expired := r.Expired
	v.Expired = &expired
	return v
}

type challengeRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	WhyReason   string  `json:"why_reason"`
	Type        string  `json:"challenge_type"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TargetDays  int     `json:"target_days"`
	TargetCount int     `json:"target_count"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit"`
}

func (r challengeRequest) input() (store.ChallengeInput, error) {
	start, err := parseDate(r.StartDate, "start_date")
	if err != nil {
		return store.ChallengeInput{}, err
	}
	end, err := parseDate(r.EndDate, "end_date")
	if err != nil {
		return store.ChallengeInput{}, err
	}
	return store.ChallengeInput{
		Name:        r.Name,
		Description: r.Description,
		WhyReason:   r.WhyReason,
		Type:        habit.ChallengeType(r.Type),
		StartDate:   start,
		EndDate:     end,
		TargetDays:  r.TargetDays,
		TargetCount: r.TargetCount,
		TargetValue: r.TargetValue,
		Unit:        r.Unit,
	}, nil
}
