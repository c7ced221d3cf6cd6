package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var taskColumns = []string{
	"id", "name", "description", "pillar_id", "category_id", "follow_up_frequency", "task_type",
	"allocated_minutes", "target_value", "unit", "priority", "is_completed", "completed_at",
	"is_active", "na_marked_at", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var categoryID sql.NullInt64
	var completedAt, naMarkedAt sql.NullString
	var createdAt, updatedAt string
	var isCompleted, isActive int
	err := r.Scan(&t.ID, &t.Name, &t.Description, &t.PillarID, &categoryID, &t.Frequency, &t.Type,
		&t.AllocatedMinutes, &t.TargetValue, &t.Unit, &t.Priority, &isCompleted, &completedAt,
		&isActive, &naMarkedAt, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.CategoryID = nullInt(categoryID)
	t.IsCompleted = isCompleted == 1
	t.CompletedAt = parseNullTime(completedAt)
	t.IsActive = isActive == 1
	t.NAMarkedAt = parseNullTime(naMarkedAt)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (in *TaskInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("task name is required")
	}
	if !in.Frequency.Valid() {
		return invalidf("unknown follow-up frequency %q", in.Frequency)
	}
	if in.Type == "" {
		in.Type = TypeTime
	}
	if !in.Type.Valid() {
		return invalidf("unknown task type %q", in.Type)
	}
	if in.AllocatedMinutes < 0 || in.TargetValue < 0 {
		return invalidf("targets cannot be negative")
	}
	if in.Priority == 0 {
		in.Priority = 5
	}
	return nil
}

func (s *Store) CreateTask(in TaskInput) (*Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := nowString()
	res, err := s.db.Exec(
		`INSERT INTO tasks (name, description, pillar_id, category_id, follow_up_frequency, task_type,
			allocated_minutes, target_value, unit, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.PillarID, in.CategoryID, in.Frequency, in.Type,
		in.AllocatedMinutes, in.TargetValue, in.Unit, in.Priority, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	query, args, err := sq.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	t, err := scanTask(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks ordered by priority then name. Inactive (NA) and
// completed tasks are hidden unless the filter asks for them.
func (s *Store) ListTasks(f TaskFilter) ([]Task, error) {
	q := sq.Select(taskColumns...).From("tasks")
	if f.PillarID != nil {
		q = q.Where(sq.Eq{"pillar_id": *f.PillarID})
	}
	if f.CategoryID != nil {
		q = q.Where(sq.Eq{"category_id": *f.CategoryID})
	}
	if f.Frequency != nil {
		q = q.Where(sq.Eq{"follow_up_frequency": string(*f.Frequency)})
	}
	if !f.IncludeInactive {
		q = q.Where(sq.Eq{"is_active": 1})
	}
	if !f.IncludeDone {
		q = q.Where(sq.Eq{"is_completed": 0})
	}
	query, args, err := q.OrderBy("priority", "name").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTasks returns the tasks with the given ids, keyed by id.
func (s *Store) GetTasks(ids []int64) (map[int64]*Task, error) {
	out := make(map[int64]*Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sq.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out[t.ID] = &t
	}
	return out, rows.Err()
}

func (s *Store) UpdateTask(id int64, in TaskInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, pillar_id = ?, category_id = ?, follow_up_frequency = ?,
			task_type = ?, allocated_minutes = ?, target_value = ?, unit = ?, priority = ?, updated_at = ?
		 WHERE id = ?`,
		in.Name, in.Description, in.PillarID, in.CategoryID, in.Frequency, in.Type,
		in.AllocatedMinutes, in.TargetValue, in.Unit, in.Priority, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	return expectRow(res, "update task", id)
}

// DeleteTask removes a task together with its entries and status rows.
func (s *Store) DeleteTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return expectRow(res, "delete task", id)
}

// CompleteTask sets the task's global completion flag.
func (s *Store) CompleteTask(id int64) error {
	now := nowString()
	res, err := s.db.Exec(
		`UPDATE tasks SET is_completed = 1, completed_at = ?, updated_at = ? WHERE id = ?`, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return expectRow(res, "complete task", id)
}

// MarkTaskNA deactivates the task globally.
func (s *Store) MarkTaskNA(id int64) error {
	now := nowString()
	res, err := s.db.Exec(
		`UPDATE tasks SET is_active = 0, na_marked_at = ?, updated_at = ? WHERE id = ?`, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark task %d na: %w", id, err)
	}
	return expectRow(res, "mark task na", id)
}

// RestoreTask clears both global flags.
func (s *Store) RestoreTask(id int64) error {
	res, err := s.db.Exec(
		`UPDATE tasks SET is_completed = 0, completed_at = NULL, is_active = 1, na_marked_at = NULL, updated_at = ?
		 WHERE id = ?`, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("restore task %d: %w", id, err)
	}
	return expectRow(res, "restore task", id)
}

func expectRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return nil
}
