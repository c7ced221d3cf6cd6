package tracker

import (
	"context"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func (s *Service) CreateTask(ctx context.Context, in store.TaskInput) (*store.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.repo.CreateTask(in)
	if err != nil {
		return nil, err
	}
	s.log.Info("task created", "task", t.ID, "name", t.Name, "frequency", t.Frequency)
	return t, nil
}

func (s *Service) UpdateTask(ctx context.Context, id int64, in store.TaskInput) (*store.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTask(id, in); err != nil {
		return nil, err
	}
	return s.repo.GetTask(id)
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(id); err != nil {
		return err
	}
	s.log.Info("task deleted", "task", id)
	return nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (*store.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.GetTask(id)
}

func (s *Service) ListTasks(ctx context.Context, f store.TaskFilter) ([]store.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListTasks(f)
}

// CompleteHomeTask completes a task from its home tab: first the global flag,
// then the status row of the home period containing today.
func (s *Service) CompleteHomeTask(ctx context.Context, taskID int64) (*store.Task, error) {
	yes := true
	return s.homeWrite(ctx, "complete", taskID, s.repo.CompleteTask, store.StatusPatch{IsCompleted: &yes})
}

// MarkHomeNA marks a task not applicable from its home tab.
func (s *Service) MarkHomeNA(ctx context.Context, taskID int64) (*store.Task, error) {
	yes := true
	return s.homeWrite(ctx, "mark na", taskID, s.repo.MarkTaskNA, store.StatusPatch{IsNA: &yes})
}

// RestoreHomeTask clears the global flags and the home period status.
func (s *Service) RestoreHomeTask(ctx context.Context, taskID int64) (*store.Task, error) {
	no := false
	return s.homeWrite(ctx, "restore", taskID, s.repo.RestoreTask, store.StatusPatch{IsCompleted: &no, IsNA: &no})
}

// homeWrite performs the global write and then the home-period status write.
// No transaction spans them: when the second write fails the global change
// stays and a *PartialError says so. Tasks without a home period only get the
// global write.
func (s *Service) homeWrite(ctx context.Context, op string, taskID int64, global func(int64) error, patch store.StatusPatch) (*store.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.repo.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if err := global(taskID); err != nil {
		return nil, err
	}

	if home, ok := t.Frequency.HomeKind(); ok {
		if _, err := s.repo.SetPeriodStatus(taskID, home, s.now(), patch); err != nil {
			s.log.Warn("home status write failed after global write", "op", op, "task", taskID, "kind", home, "error", err)
			return nil, &PartialError{Op: op, TaskID: taskID, GlobalApplied: true, Err: err}
		}
	}
	s.log.Debug("home task updated", "op", op, "task", taskID)
	return s.repo.GetTask(taskID)
}

// TabRow is one task as shown in a period tab.
type TabRow struct {
	Task      store.Task
	Home      bool
	Status    store.StatusRow
	Breakdown rollup.Breakdown
	Judgment  rollup.Judgment
	State     rollup.State
	DayStates []rollup.State
}

// TabView returns the rows of the kind tab for the period containing start:
// open tasks whose home is this tab, plus every task with a status row in the
// period (home tasks completed here, and tasks tracked from other tabs).
func (s *Service) TabView(ctx context.Context, k period.Kind, start time.Time) ([]TabRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !k.Valid() {
		return nil, invalid("unknown period kind")
	}
	ps := k.Start(start)

	statuses, err := s.repo.ListPeriodStatuses(k, ps)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64]store.StatusRow, len(statuses))
	for _, st := range statuses {
		byTask[st.TaskID] = st
	}

	tasks, err := s.repo.ListTasks(store.TaskFilter{IncludeInactive: true, IncludeDone: true})
	if err != nil {
		return nil, err
	}

	now := s.now()
	var rows []TabRow
	for _, t := range tasks {
		home, hasHome := t.Frequency.HomeKind()
		isHome := hasHome && home == k
		st, tracked := byTask[t.ID]
		if !tracked && !(isHome && t.IsActive && !t.IsCompleted) {
			continue
		}
		if !tracked {
			st = store.StatusRow{TaskID: t.ID, Kind: k, PeriodStart: ps}
		}

		b, err := s.aggregate(t, k, ps)
		if err != nil {
			return nil, err
		}
		j := rollup.Judge(rollup.NewPacingRule(t, k), ps, b.Total, now)
		row := TabRow{
			Task:      t,
			Home:      isHome,
			Status:    st,
			Breakdown: b,
			Judgment:  j,
			State:     rollup.Cell(st.Status(), j.State),
			DayStates: make([]rollup.State, len(b.Days)),
		}
		for i, d := range b.Days {
			row.DayStates[i] = rollup.DayState(t, d.Date, d.Value, now)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
