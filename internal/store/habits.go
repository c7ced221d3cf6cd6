package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

// HabitInput carries the editable fields of a habit.
type HabitInput struct {
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
}

const habitColumns = `id, name, description, tracking_mode, habit_type, period_type, target_value,
	comparison_type, target_count_per_period, session_target_value, session_target_unit,
	aggregate_target, linked_task_id, start_date, is_active, current_streak, longest_streak,
	total_completions, created_at`

type habitRecord struct {
	ID                   int64           `db:"id"`
	Name                 string          `db:"name"`
	Description          string          `db:"description"`
	Mode                 string          `db:"tracking_mode"`
	HabitType            string          `db:"habit_type"`
	PeriodType           string          `db:"period_type"`
	TargetValue          sql.NullFloat64 `db:"target_value"`
	Comparison           string          `db:"comparison_type"`
	TargetCountPerPeriod int             `db:"target_count_per_period"`
	SessionTargetValue   sql.NullFloat64 `db:"session_target_value"`
	SessionTargetUnit    string          `db:"session_target_unit"`
	AggregateTarget      float64         `db:"aggregate_target"`
	LinkedTaskID         sql.NullInt64   `db:"linked_task_id"`
	StartDate            string          `db:"start_date"`
	IsActive             int             `db:"is_active"`
	CurrentStreak        int             `db:"current_streak"`
	LongestStreak        int             `db:"longest_streak"`
	TotalCompletions     int             `db:"total_completions"`
	CreatedAt            string          `db:"created_at"`
}

func (r habitRecord) habit() Habit {
	kind, _ := period.ParseKind(r.PeriodType)
	return Habit{
		ID:                   r.ID,
		Name:                 r.Name,
		Description:          r.Description,
		Mode:                 habit.Mode(r.Mode),
		HabitType:            habit.Type(r.HabitType),
		PeriodType:           kind,
		TargetValue:          nullFloat(r.TargetValue),
		Comparison:           habit.Comparison(r.Comparison),
		TargetCountPerPeriod: r.TargetCountPerPeriod,
		SessionTargetValue:   nullFloat(r.SessionTargetValue),
		SessionTargetUnit:    r.SessionTargetUnit,
		AggregateTarget:      r.AggregateTarget,
		LinkedTaskID:         nullInt(r.LinkedTaskID),
		StartDate:            parseDate(r.StartDate),
		IsActive:             r.IsActive == 1,
		CurrentStreak:        r.CurrentStreak,
		LongestStreak:        r.LongestStreak,
		TotalCompletions:     r.TotalCompletions,
		CreatedAt:            parseTime(r.CreatedAt),
	}
}

func (s *Store) CreateHabit(in HabitInput) (*Habit, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalidf("habit name is required")
	}
	if in.HabitType == "" {
		in.HabitType = habit.TypeBoolean
	}
	if !in.HabitType.Valid() {
		return nil, invalidf("unknown habit type %q", in.HabitType)
	}
	if in.Comparison == "" {
		in.Comparison = habit.AtLeast
	}
	rule := habit.Rule{
		Mode:                 in.Mode,
		Type:                 in.HabitType,
		PeriodType:           in.PeriodType,
		TargetValue:          in.TargetValue,
		Comparison:           in.Comparison,
		TargetCountPerPeriod: in.TargetCountPerPeriod,
		SessionTargetValue:   in.SessionTargetValue,
		AggregateTarget:      in.AggregateTarget,
	}
	if err := rule.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}
	if in.LinkedTaskID != nil {
		if _, err := s.GetTask(*in.LinkedTaskID); err != nil {
			return nil, err
		}
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO habits (name, description, tracking_mode, habit_type, period_type, target_value,
			comparison_type, target_count_per_period, session_target_value, session_target_unit,
			aggregate_target, linked_task_id, start_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.Mode, in.HabitType, in.PeriodType.String(), in.TargetValue,
		in.Comparison, in.TargetCountPerPeriod, in.SessionTargetValue, in.SessionTargetUnit,
		in.AggregateTarget, in.LinkedTaskID, period.FormatDate(in.StartDate), nowString(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetHabit(id)
}

func (s *Store) GetHabit(id int64) (*Habit, error) {
	var rec habitRecord
	err := s.db.Get(&rec, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get habit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get habit %d: %w", id, err)
	}
	h := rec.habit()
	return &h, nil
}

func (s *Store) ListHabits(includeInactive bool) ([]Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	var recs []habitRecord
	if err := s.db.Select(&recs, query); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	habits := make([]Habit, 0, len(recs))
	for _, r := range recs {
		habits = append(habits, r.habit())
	}
	return habits, nil
}

// HabitsLinkedTo returns the active habits synced from a task's entries.
func (s *Store) HabitsLinkedTo(taskID int64) ([]Habit, error) {
	var recs []habitRecord
	err := s.db.Select(&recs,
		`SELECT `+habitColumns+` FROM habits WHERE linked_task_id = ? AND is_active = 1 ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("habits linked to task %d: %w", taskID, err)
	}
	habits := make([]Habit, 0, len(recs))
	for _, r := range recs {
		habits = append(habits, r.habit())
	}
	return habits, nil
}

func (s *Store) SetHabitActive(id int64, active bool) error {
	res, err := s.db.Exec(`UPDATE habits SET is_active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("set habit %d active: %w", id, err)
	}
	return expectRow(res, "set habit active", id)
}

func (s *Store) DeleteHabit(id int64) error {
	res, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit %d: %w", id, err)
	}
	return expectRow(res, "delete habit", id)
}

// UpdateHabitStats stores the cached streak counters.
func (s *Store) UpdateHabitStats(id int64, current, longest, total int) error {
	res, err := s.db.Exec(
		`UPDATE habits SET current_streak = ?, longest_streak = ?, total_completions = ? WHERE id = ?`,
		current, longest, total, id,
	)
	if err != nil {
		return fmt.Errorf("update habit %d stats: %w", id, err)
	}
	return expectRow(res, "update habit stats", id)
}

type habitEntryRecord struct {
	HabitID      int64           `db:"habit_id"`
	EntryDate    string          `db:"entry_date"`
	IsSuccessful int             `db:"is_successful"`
	ActualValue  sql.NullFloat64 `db:"actual_value"`
	Note         string          `db:"note"`
}

// UpsertHabitEntry writes the single entry of a habit for one day.
func (s *Store) UpsertHabitEntry(e HabitEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO habit_entries (habit_id, entry_date, is_successful, actual_value, note) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(habit_id, entry_date) DO UPDATE SET
			is_successful = excluded.is_successful,
			actual_value = excluded.actual_value,
			note = excluded.note`,
		e.HabitID, period.FormatDate(e.Date), boolInt(e.IsSuccessful), e.ActualValue, e.Note,
	)
	if err != nil {
		return fmt.Errorf("upsert habit %d entry: %w", e.HabitID, err)
	}
	return nil
}

// HabitEntries returns a habit's entries ordered by date.
func (s *Store) HabitEntries(habitID int64) ([]HabitEntry, error) {
	var recs []habitEntryRecord
	err := s.db.Select(&recs,
		`SELECT habit_id, entry_date, is_successful, actual_value, note FROM habit_entries
		 WHERE habit_id = ? ORDER BY entry_date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("habit %d entries: %w", habitID, err)
	}
	entries := make([]HabitEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, HabitEntry{
			HabitID:      r.HabitID,
			Date:         parseDate(r.EntryDate),
			IsSuccessful: r.IsSuccessful == 1,
			ActualValue:  nullFloat(r.ActualValue),
			Note:         r.Note,
		})
	}
	return entries, nil
}

type habitSessionRecord struct {
	HabitID       int64           `db:"habit_id"`
	PeriodStart   string          `db:"period_start"`
	SessionNumber int             `db:"session_number"`
	IsCompleted   int             `db:"is_completed"`
	Value         sql.NullFloat64 `db:"value"`
	MeetsTarget   int             `db:"meets_target"`
	CompletedAt   sql.NullString  `db:"completed_at"`
}

// UpsertHabitSession writes one numbered session of a habit period.
func (s *Store) UpsertHabitSession(sess HabitSession) error {
	if sess.SessionNumber <= 0 {
		return invalidf("session number must be positive")
	}
	var completedAt any
	if sess.IsCompleted {
		completedAt = nowString()
	}
	_, err := s.db.Exec(
		`INSERT INTO habit_sessions (habit_id, period_start, session_number, is_completed, value, meets_target, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(habit_id, period_start, session_number) DO UPDATE SET
			is_completed = excluded.is_completed,
			value = excluded.value,
			meets_target = excluded.meets_target,
			completed_at = CASE WHEN excluded.is_completed = 0 THEN NULL
				ELSE COALESCE(habit_sessions.completed_at, excluded.completed_at) END`,
		sess.HabitID, period.FormatDate(sess.PeriodStart), sess.SessionNumber, boolInt(sess.IsCompleted),
		sess.Value, boolInt(sess.MeetsTarget), completedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert habit %d session: %w", sess.HabitID, err)
	}
	return nil
}

// HabitSessions returns the sessions of one habit period ordered by number.
func (s *Store) HabitSessions(habitID int64, periodStart time.Time) ([]HabitSession, error) {
	var recs []habitSessionRecord
	err := s.db.Select(&recs,
		`SELECT habit_id, period_start, session_number, is_completed, value, meets_target, completed_at
		 FROM habit_sessions WHERE habit_id = ? AND period_start = ? ORDER BY session_number`,
		habitID, period.FormatDate(periodStart))
	if err != nil {
		return nil, fmt.Errorf("habit %d sessions: %w", habitID, err)
	}
	sessions := make([]HabitSession, 0, len(recs))
	for _, r := range recs {
		sessions = append(sessions, HabitSession{
			HabitID:       r.HabitID,
			PeriodStart:   parseDate(r.PeriodStart),
			SessionNumber: r.SessionNumber,
			IsCompleted:   r.IsCompleted == 1,
			Value:         nullFloat(r.Value),
			MeetsTarget:   r.MeetsTarget == 1,
			CompletedAt:   parseNullTime(r.CompletedAt),
		})
	}
	return sessions, nil
}

type habitPeriodRecord struct {
	HabitID           int64           `db:"habit_id"`
	PeriodType        string          `db:"period_type"`
	PeriodStart       string          `db:"period_start"`
	PeriodEnd         string          `db:"period_end"`
	TargetCount       int             `db:"target_count"`
	CompletedCount    int             `db:"completed_count"`
	AggregateTarget   float64         `db:"aggregate_target"`
	AggregateAchieved float64         `db:"aggregate_achieved"`
	IsSuccessful      int             `db:"is_successful"`
	SuccessPercentage float64         `db:"success_percentage"`
	QualityPercentage sql.NullFloat64 `db:"quality_percentage"`
}

// SaveHabitPeriod upserts the rolled-up summary of one habit period.
func (s *Store) SaveHabitPeriod(p HabitPeriod) error {
	_, err := s.db.NamedExec(
		`INSERT INTO habit_periods (habit_id, period_type, period_start, period_end, target_count, completed_count,
			aggregate_target, aggregate_achieved, is_successful, success_percentage, quality_percentage)
		 VALUES (:habit_id, :period_type, :period_start, :period_end, :target_count, :completed_count,
			:aggregate_target, :aggregate_achieved, :is_successful, :success_percentage, :quality_percentage)
		 ON CONFLICT(habit_id, period_start) DO UPDATE SET
			period_type = excluded.period_type,
			period_end = excluded.period_end,
			target_count = excluded.target_count,
			completed_count = excluded.completed_count,
			aggregate_target = excluded.aggregate_target,
			aggregate_achieved = excluded.aggregate_achieved,
			is_successful = excluded.is_successful,
			success_percentage = excluded.success_percentage,
			quality_percentage = excluded.quality_percentage`,
		habitPeriodRecord{
			HabitID:           p.HabitID,
			PeriodType:        p.PeriodType.String(),
			PeriodStart:       period.FormatDate(p.PeriodStart),
			PeriodEnd:         period.FormatDate(p.PeriodEnd),
			TargetCount:       p.TargetCount,
			CompletedCount:    p.CompletedCount,
			AggregateTarget:   p.AggregateTarget,
			AggregateAchieved: p.AggregateAchieved,
			IsSuccessful:      boolInt(p.IsSuccessful),
			SuccessPercentage: p.SuccessPercentage,
			QualityPercentage: toNullFloat(p.QualityPercentage),
		},
	)
	if err != nil {
		return fmt.Errorf("save habit %d period: %w", p.HabitID, err)
	}
	return nil
}

func (s *Store) GetHabitPeriod(habitID int64, periodStart time.Time) (*HabitPeriod, error) {
	var r habitPeriodRecord
	err := s.db.Get(&r,
		`SELECT habit_id, period_type, period_start, period_end, target_count, completed_count, aggregate_target,
			aggregate_achieved, is_successful, success_percentage, quality_percentage
		 FROM habit_periods WHERE habit_id = ? AND period_start = ?`,
		habitID, period.FormatDate(periodStart))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get habit %d period: %w", habitID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get habit %d period: %w", habitID, err)
	}
	kind, _ := period.ParseKind(r.PeriodType)
	return &HabitPeriod{
		HabitID:           r.HabitID,
		PeriodType:        kind,
		PeriodStart:       parseDate(r.PeriodStart),
		PeriodEnd:         parseDate(r.PeriodEnd),
		TargetCount:       r.TargetCount,
		CompletedCount:    r.CompletedCount,
		AggregateTarget:   r.AggregateTarget,
		AggregateAchieved: r.AggregateAchieved,
		IsSuccessful:      r.IsSuccessful == 1,
		SuccessPercentage: r.SuccessPercentage,
		QualityPercentage: nullFloat(r.QualityPercentage),
	}, nil
}
