package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

func statusTable(k period.Kind) (string, error) {
	if !k.Valid() {
		return "", invalidf("unknown period kind %d", int(k))
	}
	return k.String() + "_task_status", nil
}

type statusRecord struct {
	TaskID      int64          `db:"task_id"`
	PeriodStart string         `db:"period_start"`
	IsCompleted int            `db:"is_completed"`
	IsNA        int            `db:"is_na"`
	CompletedAt sql.NullString `db:"completed_at"`
	CreatedAt   string         `db:"created_at"`
}

func (r statusRecord) row(k period.Kind) StatusRow {
	return StatusRow{
		TaskID:      r.TaskID,
		Kind:        k,
		PeriodStart: parseDate(r.PeriodStart),
		IsCompleted: r.IsCompleted == 1,
		IsNA:        r.IsNA == 1,
		CompletedAt: parseNullTime(r.CompletedAt),
		CreatedAt:   parseTime(r.CreatedAt),
		Exists:      true,
	}
}

// GetPeriodStatus returns the tab-local status of a task for the period
// containing start. A missing row reads as active with Exists false.
func (s *Store) GetPeriodStatus(taskID int64, k period.Kind, start time.Time) (StatusRow, error) {
	table, err := statusTable(k)
	if err != nil {
		return StatusRow{}, err
	}
	ps := k.Start(start)
	var rec statusRecord
	err = s.db.Get(&rec, fmt.Sprintf(
		`SELECT task_id, period_start, is_completed, is_na, completed_at, created_at
		 FROM %s WHERE task_id = ? AND period_start = ?`, table),
		taskID, period.FormatDate(ps),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusRow{TaskID: taskID, Kind: k, PeriodStart: ps}, nil
	}
	if err != nil {
		return StatusRow{}, fmt.Errorf("get %s status %d: %w", k, taskID, err)
	}
	return rec.row(k), nil
}

// SetPeriodStatus upserts the tab-local status row. Setting one flag clears the
// other; a patch setting both is rejected. Repeating a payload keeps the row,
// completed_at included, unchanged. Task global flags are never touched.
func (s *Store) SetPeriodStatus(taskID int64, k period.Kind, start time.Time, p StatusPatch) (StatusRow, error) {
	table, err := statusTable(k)
	if err != nil {
		return StatusRow{}, err
	}
	if p.IsCompleted != nil && p.IsNA != nil && *p.IsCompleted && *p.IsNA {
		return StatusRow{}, invalidf("a task cannot be both completed and not applicable")
	}
	if _, err := s.GetTask(taskID); err != nil {
		return StatusRow{}, err
	}

	cur, err := s.GetPeriodStatus(taskID, k, start)
	if err != nil {
		return StatusRow{}, err
	}
	completed, na := cur.Status() == StatusCompleted, cur.Status() == StatusNA
	if p.IsCompleted != nil {
		completed = *p.IsCompleted
		if completed {
			na = false
		}
	}
	if p.IsNA != nil {
		na = *p.IsNA
		if na {
			completed = false
		}
	}

	var completedAt any
	switch {
	case completed && cur.IsCompleted && cur.CompletedAt != nil:
		completedAt = cur.CompletedAt.UTC().Format(time.RFC3339)
	case completed:
		completedAt = nowString()
	}

	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (task_id, period_start, is_completed, is_na, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id, period_start) DO UPDATE SET
			is_completed = excluded.is_completed,
			is_na = excluded.is_na,
			completed_at = excluded.completed_at`, table),
		taskID, period.FormatDate(cur.PeriodStart), boolInt(completed), boolInt(na), completedAt, nowString(),
	)
	if err != nil {
		return StatusRow{}, fmt.Errorf("set %s status %d: %w", k, taskID, err)
	}
	return s.GetPeriodStatus(taskID, k, start)
}

// RestorePeriod returns a task to active in one period tab.
func (s *Store) RestorePeriod(taskID int64, k period.Kind, start time.Time) (StatusRow, error) {
	no := false
	return s.SetPeriodStatus(taskID, k, start, StatusPatch{IsCompleted: &no, IsNA: &no})
}

// TrackInPeriod adds a task to a non-home tab by creating an active status row
// when none exists yet.
func (s *Store) TrackInPeriod(taskID int64, k period.Kind, start time.Time) (StatusRow, error) {
	table, err := statusTable(k)
	if err != nil {
		return StatusRow{}, err
	}
	if _, err := s.GetTask(taskID); err != nil {
		return StatusRow{}, err
	}
	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (task_id, period_start, created_at) VALUES (?, ?, ?)`, table),
		taskID, period.FormatDate(k.Start(start)), nowString(),
	)
	if err != nil {
		return StatusRow{}, fmt.Errorf("track task %d in %s: %w", taskID, k, err)
	}
	return s.GetPeriodStatus(taskID, k, start)
}

// ListPeriodStatuses returns every status row recorded for the period
// containing start.
func (s *Store) ListPeriodStatuses(k period.Kind, start time.Time) ([]StatusRow, error) {
	table, err := statusTable(k)
	if err != nil {
		return nil, err
	}
	var recs []statusRecord
	err = s.db.Select(&recs, fmt.Sprintf(
		`SELECT task_id, period_start, is_completed, is_na, completed_at, created_at
		 FROM %s WHERE period_start = ? ORDER BY task_id`, table),
		period.FormatDate(k.Start(start)),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s statuses: %w", k, err)
	}
	rows := make([]StatusRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.row(k))
	}
	return rows, nil
}

// CountStatusRows returns how many rows exist for a task in one ledger.
func (s *Store) CountStatusRows(taskID int64, k period.Kind) (int, error) {
	table, err := statusTable(k)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.Get(&n, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE task_id = ?`, table), taskID)
	return n, err
}
