package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

func entryTable(k period.Kind) (string, error) {
	if !k.Valid() {
		return "", invalidf("unknown period kind %d", int(k))
	}
	return k.String() + "_entries", nil
}

// EntryDetail is a daily entry joined with its task and pillar names.
type EntryDetail struct {
	Entry
	TaskName   string
	PillarName string
}

// RecordEntry upserts one measurement. Daily entries are keyed by date and
// hour (a missing hour means slot 0); coarser entries are keyed by the period
// start containing e.Date and carry no hour.
func (s *Store) RecordEntry(e Entry) (Entry, error) {
	table, err := entryTable(e.Kind)
	if err != nil {
		return Entry{}, err
	}
	if e.Value < 0 {
		return Entry{}, invalidf("entry value cannot be negative")
	}
	if e.Kind == period.Daily {
		if e.Hour == nil {
			h := 0
			e.Hour = &h
		}
		if *e.Hour < 0 || *e.Hour > 23 {
			return Entry{}, invalidf("hour %d out of range 0-23", *e.Hour)
		}
	} else if e.Hour != nil {
		return Entry{}, invalidf("%s entries have no hour", e.Kind)
	}
	if _, err := s.GetTask(e.TaskID); err != nil {
		return Entry{}, err
	}

	e.Date = e.Kind.Start(e.Date)
	now := nowString()
	if e.Kind == period.Daily {
		_, err = s.db.Exec(
			`INSERT INTO daily_entries (task_id, entry_date, hour, value, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(task_id, entry_date, hour) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			e.TaskID, period.FormatDate(e.Date), *e.Hour, e.Value, now,
		)
	} else {
		_, err = s.db.Exec(fmt.Sprintf(
			`INSERT INTO %s (task_id, period_start, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(task_id, period_start) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table),
			e.TaskID, period.FormatDate(e.Date), e.Value, now,
		)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("record %s entry for task %d: %w", e.Kind, e.TaskID, err)
	}
	e.UpdatedAt = parseTime(now)
	return e, nil
}

// DailyEntries returns a task's hourly daily rows for days in [from, to).
func (s *Store) DailyEntries(taskID int64, from, to time.Time) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT entry_date, hour, value, updated_at FROM daily_entries
		 WHERE task_id = ? AND entry_date >= ? AND entry_date < ?
		 ORDER BY entry_date, hour`,
		taskID, period.FormatDate(from), period.FormatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily entries for task %d: %w", taskID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var date, updatedAt string
		var hour int
		e := Entry{TaskID: taskID, Kind: period.Daily}
		if err := rows.Scan(&date, &hour, &e.Value, &updatedAt); err != nil {
			return nil, err
		}
		e.Date = parseDate(date)
		e.Hour = &hour
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PeriodValue returns the period-level value recorded for a task in a weekly,
// monthly or yearly entry table. Daily has no period-level value.
func (s *Store) PeriodValue(taskID int64, k period.Kind, start time.Time) (float64, error) {
	if k == period.Daily {
		return 0, nil
	}
	table, err := entryTable(k)
	if err != nil {
		return 0, err
	}
	var v sql.NullFloat64
	err = s.db.QueryRow(fmt.Sprintf(
		`SELECT SUM(value) FROM %s WHERE task_id = ? AND period_start = ?`, table),
		taskID, period.FormatDate(k.Start(start)),
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("%s value for task %d: %w", k, taskID, err)
	}
	return v.Float64, nil
}

// PeriodEntries returns a task's period-level rows of kind k whose period
// starts in [from, to).
func (s *Store) PeriodEntries(taskID int64, k period.Kind, from, to time.Time) ([]Entry, error) {
	if k == period.Daily {
		return nil, invalidf("daily entries have no period rows")
	}
	table, err := entryTable(k)
	if err != nil {
		return nil, err
	}
	query, args, err := sq.Select("period_start", "value", "updated_at").
		From(table).
		Where(sq.Eq{"task_id": taskID}).
		Where(sq.GtOrEq{"period_start": period.FormatDate(from)}).
		Where(sq.Lt{"period_start": period.FormatDate(to)}).
		OrderBy("period_start").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s entries query: %w", k, err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s entries for task %d: %w", k, taskID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var start, updatedAt string
		e := Entry{TaskID: taskID, Kind: k}
		if err := rows.Scan(&start, &e.Value, &updatedAt); err != nil {
			return nil, err
		}
		e.Date = parseDate(start)
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListEntries returns daily entries, newest first.
func (s *Store) ListEntries(f EntryFilter) ([]EntryDetail, error) {
	q := sq.Select("e.task_id", "e.entry_date", "e.hour", "e.value", "e.updated_at", "t.name", "p.name").
		From("daily_entries e").
		Join("tasks t ON t.id = e.task_id").
		Join("pillars p ON p.id = t.pillar_id")
	if f.TaskID != nil {
		q = q.Where(sq.Eq{"e.task_id": *f.TaskID})
	}
	if f.From != nil {
		q = q.Where(sq.GtOrEq{"e.entry_date": period.FormatDate(*f.From)})
	}
	if f.To != nil {
		q = q.Where(sq.Lt{"e.entry_date": period.FormatDate(*f.To)})
	}
	q = q.OrderBy("e.entry_date DESC", "e.hour DESC", "t.name")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryDetail
	for rows.Next() {
		var d EntryDetail
		var date, updatedAt string
		var hour int
		if err := rows.Scan(&d.TaskID, &date, &hour, &d.Value, &updatedAt, &d.TaskName, &d.PillarName); err != nil {
			return nil, err
		}
		d.Kind = period.Daily
		d.Date = parseDate(date)
		d.Hour = &hour
		d.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, d)
	}
	return entries, rows.Err()
}

// GetDailySummary totals daily entries per day and task for days in [from, to).
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT e.entry_date, e.task_id, t.name, COALESCE(SUM(e.value), 0), COUNT(*)
		FROM daily_entries e
		JOIN tasks t ON t.id = e.task_id
		WHERE e.entry_date >= ? AND e.entry_date < ?
		GROUP BY e.entry_date, e.task_id
		ORDER BY e.entry_date, t.name`,
		period.FormatDate(from), period.FormatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.TaskID, &ds.TaskName, &ds.Total, &ds.Slots); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// DeleteEntry removes one daily slot or one period-level value.
func (s *Store) DeleteEntry(taskID int64, k period.Kind, date time.Time, hour *int) error {
	table, err := entryTable(k)
	if err != nil {
		return err
	}
	if k == period.Daily {
		h := 0
		if hour != nil {
			h = *hour
		}
		_, err = s.db.Exec(`DELETE FROM daily_entries WHERE task_id = ? AND entry_date = ? AND hour = ?`,
			taskID, period.FormatDate(date), h)
	} else {
		_, err = s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE task_id = ? AND period_start = ?`, table),
			taskID, period.FormatDate(k.Start(date)))
	}
	if err != nil {
		return fmt.Errorf("delete %s entry for task %d: %w", k, taskID, err)
	}
	return nil
}
