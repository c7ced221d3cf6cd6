package tracker

import (
	"context"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func (s *Service) CreateHabit(ctx context.Context, in store.HabitInput) (*store.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.now()
	}
	h, err := s.repo.CreateHabit(in)
	if err != nil {
		return nil, err
	}
	s.log.Info("habit created", "habit", h.ID, "mode", h.Mode)
	return h, nil
}

// LogHabitDay records whether the habit was done on date and refreshes its
// cached streaks. Success is decided by the habit's comparison when it has a
// target value.
func (s *Service) LogHabitDay(ctx context.Context, habitID int64, date time.Time, done bool, value *float64, note string) (*store.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := s.repo.GetHabit(habitID)
	if err != nil {
		return nil, err
	}
	if period.DayStart(date).Before(period.DayStart(h.StartDate)) {
		return nil, invalid("date is before the habit's start date")
	}
	err = s.repo.UpsertHabitEntry(store.HabitEntry{
		HabitID:      habitID,
		Date:         period.DayStart(date),
		IsSuccessful: h.Rule().DaySuccess(done, value),
		ActualValue:  value,
		Note:         note,
	})
	if err != nil {
		return nil, err
	}
	if err := s.refreshHabitStats(h); err != nil {
		return nil, err
	}
	return s.repo.GetHabit(habitID)
}

// LogHabitSession records one numbered session of the habit period containing
// periodStart and re-evaluates that period.
func (s *Service) LogHabitSession(ctx context.Context, habitID int64, periodStart time.Time, number int, completed bool, value *float64) (habit.PeriodResult, error) {
	if err := ctx.Err(); err != nil {
		return habit.PeriodResult{}, err
	}
	h, err := s.repo.GetHabit(habitID)
	if err != nil {
		return habit.PeriodResult{}, err
	}
	if !h.Mode.UsesSessions() {
		return habit.PeriodResult{}, invalid("daily_streak habits have no sessions")
	}
	rule := h.Rule()
	err = s.repo.UpsertHabitSession(store.HabitSession{
		HabitID:       habitID,
		PeriodStart:   h.PeriodType.Start(periodStart),
		SessionNumber: number,
		IsCompleted:   completed,
		Value:         value,
		MeetsTarget:   completed && rule.SessionMeetsTarget(value),
	})
	if err != nil {
		return habit.PeriodResult{}, err
	}
	return s.EvaluateHabitPeriod(ctx, habitID, periodStart)
}

// EvaluateHabitPeriod evaluates the habit period containing periodStart and
// stores the weekly or monthly summary row.
func (s *Service) EvaluateHabitPeriod(ctx context.Context, habitID int64, periodStart time.Time) (habit.PeriodResult, error) {
	if err := ctx.Err(); err != nil {
		return habit.PeriodResult{}, err
	}
	h, err := s.repo.GetHabit(habitID)
	if err != nil {
		return habit.PeriodResult{}, err
	}
	ps := h.PeriodType.Start(periodStart)

	var sessions []habit.Session
	if h.Mode.UsesSessions() {
		rows, err := s.repo.HabitSessions(habitID, ps)
		if err != nil {
			return habit.PeriodResult{}, err
		}
		for _, r := range rows {
			sessions = append(sessions, habit.Session{Number: r.SessionNumber, Completed: r.IsCompleted, Value: r.Value})
		}
	}
	entries, err := s.habitLog(habitID)
	if err != nil {
		return habit.PeriodResult{}, err
	}

	res := habit.EvaluatePeriod(h.Rule(), ps, sessions, entries, s.now())
	if h.PeriodType != period.Daily {
		err = s.repo.SaveHabitPeriod(store.HabitPeriod{
			HabitID:           habitID,
			PeriodType:        h.PeriodType,
			PeriodStart:       res.PeriodStart,
			PeriodEnd:         res.PeriodEnd,
			TargetCount:       res.TargetCount,
			CompletedCount:    res.CompletedCount,
			AggregateTarget:   res.AggregateTarget,
			AggregateAchieved: res.AggregateAchieved,
			IsSuccessful:      res.IsSuccessful,
			SuccessPercentage: res.SuccessPercentage,
			QualityPercentage: res.QualityPercentage,
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) habitLog(habitID int64) ([]habit.Entry, error) {
	rows, err := s.repo.HabitEntries(habitID)
	if err != nil {
		return nil, err
	}
	entries := make([]habit.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, habit.Entry{Date: r.Date, Success: r.IsSuccessful, Value: r.ActualValue})
	}
	return entries, nil
}

// refreshHabitStats recomputes the cached streak counters. The stored longest
// streak never decreases.
func (s *Service) refreshHabitStats(h *store.Habit) error {
	entries, err := s.habitLog(h.ID)
	if err != nil {
		return err
	}
	current, longest := habit.Streaks(entries, s.now())
	if h.LongestStreak > longest {
		longest = h.LongestStreak
	}
	total := 0
	for _, e := range entries {
		if e.Success {
			total++
		}
	}
	return s.repo.UpdateHabitStats(h.ID, current, longest, total)
}

// syncLinkedHabits mirrors a task's day total into each habit linked to it.
func (s *Service) syncLinkedHabits(t store.Task, day time.Time) error {
	habits, err := s.repo.HabitsLinkedTo(t.ID)
	if err != nil || len(habits) == 0 {
		return err
	}
	d := period.DayStart(day)
	rows, err := s.repo.DailyEntries(t.ID, d, d.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	var total float64
	for _, r := range rows {
		total += r.Value
	}

	for i := range habits {
		h := &habits[i]
		value := total
		err := s.repo.UpsertHabitEntry(store.HabitEntry{
			HabitID:      h.ID,
			Date:         d,
			IsSuccessful: h.Rule().DaySuccess(total > 0, &value),
			ActualValue:  &value,
			Note:         "synced from task",
		})
		if err != nil {
			return err
		}
		if err := s.refreshHabitStats(h); err != nil {
			return err
		}
		s.log.Debug("habit synced", "habit", h.ID, "task", t.ID, "value", value)
	}
	return nil
}
