package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestTask creates a task in the Hard Work pillar.
func newTestTask(t *testing.T, s *Store, name string, freq Frequency, typ TaskType) *Task {
	t.Helper()
	task, err := s.CreateTask(TaskInput{
		Name:             name,
		PillarID:         1,
		Frequency:        freq,
		Type:             typ,
		AllocatedMinutes: 30,
		TargetValue:      100,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", name, err)
	}
	return task
}

func ptr[T any](v T) *T { return &v }

func march(d int) time.Time { return period.Date(2024, time.March, d) }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	version, err := s.Version()
	if err != nil {
		t.Fatal(err)
	}
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/mytimemanager.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should succeed and not re-migrate.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "mytimemanager.db") {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestMigrationDuplicateColumnIsWarning(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(":memory:", WithLogger(hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Pretend v2 never ran although its columns exist.
	if _, err := s.db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatal(err)
	}
	if err := s.migrate(); err != nil {
		t.Fatalf("re-running v2 should tolerate existing columns: %v", err)
	}
	if !strings.Contains(buf.String(), "already applied") {
		t.Fatalf("expected an already-applied warning, got %q", buf.String())
	}
	if v, _ := s.Version(); v != currentVersion {
		t.Fatalf("expected version %d after re-run, got %d", currentVersion, v)
	}
}

// ============================================================
// Pillars & categories
// ============================================================

func TestPillarsSeeded(t *testing.T) {
	s := newTestStore(t)
	pillars, err := s.ListPillars()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Hard Work", "Calmness", "Family"}
	if len(pillars) != len(want) {
		t.Fatalf("expected %d pillars, got %d", len(want), len(pillars))
	}
	for i, p := range pillars {
		if p.Name != want[i] {
			t.Fatalf("pillar %d = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestGetPillarNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPillar(99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestStore(t)

	c, err := s.CreateCategory(2, "Fitness", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.PillarID != 2 || c.Color == "" {
		t.Fatalf("unexpected category %+v", c)
	}

	if _, err := s.CreateCategory(2, "Fitness", ""); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if _, err := s.CreateCategory(2, "  ", ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := s.CreateCategory(42, "Orphan", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.UpdateCategory(c.ID, "Gym", "#000"); err != nil {
		t.Fatal(err)
	}
	if err := s.ArchiveCategory(c.ID); err != nil {
		t.Fatal(err)
	}
	active, _ := s.ListCategories(2, false)
	if len(active) != 0 {
		t.Fatalf("expected archived category to be hidden, got %d", len(active))
	}
	all, _ := s.ListCategories(2, true)
	if len(all) != 1 || all[0].Name != "Gym" || !all[0].Archived {
		t.Fatalf("unexpected categories %+v", all)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)

	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)
	if task.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Read" || got.Frequency != FreqDaily || got.Type != TypeTime {
		t.Fatalf("unexpected task %+v", got)
	}
	if !got.IsActive || got.IsCompleted {
		t.Fatal("new task should be active and not completed")
	}
	if got.Priority != 5 {
		t.Fatalf("expected default priority 5, got %d", got.Priority)
	}
	if got.Target() != 30 {
		t.Fatalf("expected time target 30, got %v", got.Target())
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []TaskInput{
		{Name: "", PillarID: 1, Frequency: FreqDaily},
		{Name: "X", PillarID: 1, Frequency: "fortnightly"},
		{Name: "X", PillarID: 1, Frequency: FreqDaily, Type: "mood"},
		{Name: "X", PillarID: 1, Frequency: FreqDaily, AllocatedMinutes: -5},
	}
	for _, in := range cases {
		if _, err := s.CreateTask(in); !errors.Is(err, ErrInvalid) {
			t.Fatalf("CreateTask(%+v): expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestCreateTaskInvalidPillar(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTask(TaskInput{Name: "Orphan", PillarID: 999, Frequency: FreqDaily})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	s := newTestStore(t)

	newTestTask(t, s, "Read", FreqDaily, TypeTime)
	newTestTask(t, s, "Pushups", FreqWeekly, TypeCount)
	done := newTestTask(t, s, "Taxes", FreqYearly, TypeBoolean)
	na := newTestTask(t, s, "Garden", FreqMonthly, TypeTime)

	s.CompleteTask(done.ID)
	s.MarkTaskNA(na.ID)

	tasks, err := s.ListTasks(TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 open tasks, got %d", len(tasks))
	}

	weekly := FreqWeekly
	tasks, _ = s.ListTasks(TaskFilter{Frequency: &weekly})
	if len(tasks) != 1 || tasks[0].Name != "Pushups" {
		t.Fatalf("unexpected weekly tasks %+v", tasks)
	}

	tasks, _ = s.ListTasks(TaskFilter{IncludeInactive: true, IncludeDone: true})
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	other := int64(3)
	tasks, _ = s.ListTasks(TaskFilter{PillarID: &other})
	if len(tasks) != 0 {
		t.Fatalf("expected no Family tasks, got %d", len(tasks))
	}
}

func TestGetTasks(t *testing.T) {
	s := newTestStore(t)
	a := newTestTask(t, s, "A", FreqDaily, TypeTime)
	b := newTestTask(t, s, "B", FreqDaily, TypeTime)

	got, err := s.GetTasks([]int64{a.ID, b.ID, 999})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[a.ID].Name != "A" || got[b.ID].Name != "B" {
		t.Fatalf("unexpected tasks %+v", got)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	err := s.UpdateTask(task.ID, TaskInput{Name: "Read more", PillarID: 2, Frequency: FreqWeekly, Type: TypeTime, AllocatedMinutes: 120})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(task.ID)
	if got.Name != "Read more" || got.Frequency != FreqWeekly || got.AllocatedMinutes != 120 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.UpdateTask(999, TaskInput{Name: "X", PillarID: 1, Frequency: FreqDaily}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	if err := s.CompleteTask(task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(task.ID)
	if !got.IsCompleted || got.CompletedAt == nil {
		t.Fatal("expected task to be completed with a timestamp")
	}

	if err := s.MarkTaskNA(task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTask(task.ID)
	if got.IsActive || got.NAMarkedAt == nil {
		t.Fatal("expected task to be inactive with an NA timestamp")
	}

	if err := s.RestoreTask(task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTask(task.ID)
	if got.IsCompleted || !got.IsActive || got.CompletedAt != nil || got.NAMarkedAt != nil {
		t.Fatalf("restore did not clear flags: %+v", got)
	}

	if err := s.CompleteTask(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(9), Value: 30})
	s.SetPeriodStatus(task.ID, period.Weekly, march(4), StatusPatch{IsCompleted: ptr(true)})

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatal(err)
	}
	var n int
	s.db.Get(&n, `SELECT COUNT(*) FROM daily_entries`)
	if n != 0 {
		t.Fatalf("expected entries to cascade, got %d", n)
	}
	if n, _ := s.CountStatusRows(task.ID, period.Weekly); n != 0 {
		t.Fatalf("expected status rows to cascade, got %d", n)
	}
	if err := s.DeleteTask(task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

// ============================================================
// Period status ledger
// ============================================================

func TestGetPeriodStatusMissingRow(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	row, err := s.GetPeriodStatus(task.ID, period.Weekly, march(6))
	if err != nil {
		t.Fatal(err)
	}
	if row.Exists || row.Status() != StatusActive {
		t.Fatalf("expected an absent active row, got %+v", row)
	}
	if period.FormatDate(row.PeriodStart) != "2024-03-04" {
		t.Fatalf("expected Monday period start, got %s", period.FormatDate(row.PeriodStart))
	}
}

func TestSetPeriodStatusIdempotent(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	first, err := s.SetPeriodStatus(task.ID, period.Weekly, march(4), StatusPatch{IsCompleted: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status() != StatusCompleted || first.CompletedAt == nil {
		t.Fatalf("expected completed row, got %+v", first)
	}

	// Same payload again, addressed by another day of the same week.
	second, err := s.SetPeriodStatus(task.ID, period.Weekly, march(8), StatusPatch{IsCompleted: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatalf("completed_at changed: %v -> %v", first.CompletedAt, second.CompletedAt)
	}
	if n, _ := s.CountStatusRows(task.ID, period.Weekly); n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestSetPeriodStatusExclusiveFlags(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	_, err := s.SetPeriodStatus(task.ID, period.Monthly, march(1), StatusPatch{IsCompleted: ptr(true), IsNA: ptr(true)})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for both flags, got %v", err)
	}

	s.SetPeriodStatus(task.ID, period.Monthly, march(1), StatusPatch{IsCompleted: ptr(true)})
	row, _ := s.SetPeriodStatus(task.ID, period.Monthly, march(1), StatusPatch{IsNA: ptr(true)})
	if row.IsCompleted || !row.IsNA || row.CompletedAt != nil {
		t.Fatalf("NA should clear completion: %+v", row)
	}

	row, _ = s.SetPeriodStatus(task.ID, period.Monthly, march(1), StatusPatch{IsCompleted: ptr(true)})
	if !row.IsCompleted || row.IsNA {
		t.Fatalf("completion should clear NA: %+v", row)
	}
}

func TestLegacyRowWithBothFlags(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	_, err := s.db.Exec(
		`INSERT INTO yearly_task_status (task_id, period_start, is_completed, is_na) VALUES (?, '2024-01-01', 1, 1)`,
		task.ID)
	if err != nil {
		t.Fatal(err)
	}
	row, _ := s.GetPeriodStatus(task.ID, period.Yearly, march(15))
	if row.Status() != StatusCompleted {
		t.Fatalf("expected legacy row to read as completed, got %v", row.Status())
	}
}

func TestRestorePeriod(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.SetPeriodStatus(task.ID, period.Weekly, march(4), StatusPatch{IsNA: ptr(true)})
	row, err := s.RestorePeriod(task.ID, period.Weekly, march(4))
	if err != nil {
		t.Fatal(err)
	}
	if row.Status() != StatusActive || !row.Exists {
		t.Fatalf("expected an existing active row, got %+v", row)
	}
}

func TestPeriodStatusNeverTouchesGlobalFlags(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.SetPeriodStatus(task.ID, period.Weekly, march(4), StatusPatch{IsCompleted: ptr(true)})
	s.SetPeriodStatus(task.ID, period.Monthly, march(4), StatusPatch{IsNA: ptr(true)})

	got, _ := s.GetTask(task.ID)
	if got.IsCompleted || !got.IsActive {
		t.Fatalf("tab-local status leaked into global flags: %+v", got)
	}
}

func TestTrackInPeriod(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	row, err := s.TrackInPeriod(task.ID, period.Monthly, march(20))
	if err != nil {
		t.Fatal(err)
	}
	if !row.Exists || row.Status() != StatusActive {
		t.Fatalf("unexpected tracked row %+v", row)
	}

	// Tracking again keeps an existing status.
	s.SetPeriodStatus(task.ID, period.Monthly, march(20), StatusPatch{IsCompleted: ptr(true)})
	row, _ = s.TrackInPeriod(task.ID, period.Monthly, march(2))
	if row.Status() != StatusCompleted {
		t.Fatalf("track should not reset status, got %v", row.Status())
	}

	rows, err := s.ListPeriodStatuses(period.Monthly, march(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].TaskID != task.ID {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if _, err := s.TrackInPeriod(999, period.Monthly, march(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Entry ledger
// ============================================================

func TestRecordEntryUpsert(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(9), Value: 10})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(9), Value: 25})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(10), Value: 5})

	entries, err := s.DailyEntries(task.ID, march(4), march(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 hourly rows, got %d", len(entries))
	}
	if entries[0].Value != 25 || *entries[0].Hour != 9 {
		t.Fatalf("expected last write to win, got %+v", entries[0])
	}
}

func TestRecordEntryValidation(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	bad := []Entry{
		{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(24), Value: 1},
		{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(-1), Value: 1},
		{TaskID: task.ID, Kind: period.Weekly, Date: march(4), Hour: ptr(3), Value: 1},
		{TaskID: task.ID, Kind: period.Daily, Date: march(4), Value: -1},
		{TaskID: task.ID, Kind: period.Kind(9), Date: march(4), Value: 1},
	}
	for _, e := range bad {
		if _, err := s.RecordEntry(e); !errors.Is(err, ErrInvalid) {
			t.Fatalf("RecordEntry(%+v): expected ErrInvalid, got %v", e, err)
		}
	}
	if _, err := s.RecordEntry(Entry{TaskID: 999, Kind: period.Daily, Date: march(4), Value: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPeriodValue(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Pushups", FreqWeekly, TypeCount)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Weekly, Date: march(6), Value: 40})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Weekly, Date: march(7), Value: 60})

	v, err := s.PeriodValue(task.ID, period.Weekly, march(4))
	if err != nil {
		t.Fatal(err)
	}
	if v != 60 {
		t.Fatalf("expected the week's single value 60, got %v", v)
	}
	v, _ = s.PeriodValue(task.ID, period.Weekly, march(11))
	if v != 0 {
		t.Fatalf("expected 0 for an empty week, got %v", v)
	}
	v, _ = s.PeriodValue(task.ID, period.Daily, march(4))
	if v != 0 {
		t.Fatalf("daily has no period value, got %v", v)
	}
}

func TestPeriodEntries(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Pushups", FreqWeekly, TypeCount)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Weekly, Date: march(1), Value: 10})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Weekly, Date: march(6), Value: 40})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Weekly, Date: march(13), Value: 60})

	entries, err := s.PeriodEntries(task.ID, period.Weekly, march(1), period.Date(2024, time.April, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected the 2 weeks starting in March, got %d", len(entries))
	}
	if period.FormatDate(entries[0].Date) != "2024-03-04" || entries[0].Value != 40 {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Kind != period.Weekly || entries[1].Value != 60 {
		t.Fatalf("second entry = %+v", entries[1])
	}

	if _, err := s.PeriodEntries(task.ID, period.Daily, march(1), march(8)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for daily, got %v", err)
	}
}

func TestListEntries(t *testing.T) {
	s := newTestStore(t)
	read := newTestTask(t, s, "Read", FreqDaily, TypeTime)
	walk := newTestTask(t, s, "Walk", FreqDaily, TypeTime)

	for d := 1; d <= 5; d++ {
		s.RecordEntry(Entry{TaskID: read.ID, Kind: period.Daily, Date: march(d), Hour: ptr(8), Value: float64(d)})
	}
	s.RecordEntry(Entry{TaskID: walk.ID, Kind: period.Daily, Date: march(3), Hour: ptr(18), Value: 20})

	all, err := s.ListEntries(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(all))
	}
	if all[0].PillarName != "Hard Work" {
		t.Fatalf("expected pillar name, got %q", all[0].PillarName)
	}

	entries, _ := s.ListEntries(EntryFilter{TaskID: &walk.ID})
	if len(entries) != 1 || entries[0].TaskName != "Walk" {
		t.Fatalf("unexpected filtered entries %+v", entries)
	}

	from, to := march(2), march(4)
	entries, _ = s.ListEntries(EntryFilter{TaskID: &read.ID, From: &from, To: &to})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in range, got %d", len(entries))
	}

	entries, _ = s.ListEntries(EntryFilter{Limit: 3})
	if len(entries) != 3 {
		t.Fatalf("expected limit 3, got %d", len(entries))
	}
}

func TestGetDailySummary(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(8), Value: 20})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(21), Value: 10})
	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(5), Hour: ptr(8), Value: 15})

	sums, err := s.GetDailySummary(march(4), march(6))
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 days, got %d", len(sums))
	}
	if sums[0].Date != "2024-03-04" || sums[0].Total != 30 || sums[0].Slots != 2 {
		t.Fatalf("unexpected first day %+v", sums[0])
	}

	empty, _ := s.GetDailySummary(march(10), march(11))
	if len(empty) != 0 {
		t.Fatalf("expected no summaries, got %d", len(empty))
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Read", FreqDaily, TypeTime)

	s.RecordEntry(Entry{TaskID: task.ID, Kind: period.Daily, Date: march(4), Hour: ptr(8), Value: 20})
	if err := s.DeleteEntry(task.ID, period.Daily, march(4), ptr(8)); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.DailyEntries(task.ID, march(4), march(5))
	if len(entries) != 0 {
		t.Fatalf("expected entry to be deleted, got %d", len(entries))
	}
}

// ============================================================
// Habits
// ============================================================

func TestHabitLifecycle(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, "Meditate", FreqDaily, TypeTime)

	h, err := s.CreateHabit(HabitInput{
		Name:         "Meditate",
		Mode:         habit.ModeDailyStreak,
		HabitType:    habit.TypeTime,
		PeriodType:   period.Daily,
		TargetValue:  ptr(10.0),
		LinkedTaskID: &task.ID,
		StartDate:    march(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if h.Comparison != habit.AtLeast || *h.TargetValue != 10 || *h.LinkedTaskID != task.ID {
		t.Fatalf("unexpected habit %+v", h)
	}

	linked, _ := s.HabitsLinkedTo(task.ID)
	if len(linked) != 1 {
		t.Fatalf("expected 1 linked habit, got %d", len(linked))
	}

	s.UpsertHabitEntry(HabitEntry{HabitID: h.ID, Date: march(2), IsSuccessful: false, ActualValue: ptr(5.0)})
	s.UpsertHabitEntry(HabitEntry{HabitID: h.ID, Date: march(2), IsSuccessful: true, ActualValue: ptr(12.0)})
	entries, err := s.HabitEntries(h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsSuccessful || *entries[0].ActualValue != 12 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if err := s.UpdateHabitStats(h.ID, 1, 4, 9); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetHabit(h.ID)
	if got.CurrentStreak != 1 || got.LongestStreak != 4 || got.TotalCompletions != 9 {
		t.Fatalf("stats not stored: %+v", got)
	}

	s.SetHabitActive(h.ID, false)
	active, _ := s.ListHabits(false)
	if len(active) != 0 {
		t.Fatalf("expected inactive habit to be hidden, got %d", len(active))
	}
	if err := s.DeleteHabit(h.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetHabit(h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateHabit(HabitInput{Name: "Gym", Mode: habit.ModeOccurrence, PeriodType: period.Weekly})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid without target count, got %v", err)
	}
	_, err = s.CreateHabit(HabitInput{Name: "Gym", Mode: habit.ModeOccurrence, PeriodType: period.Weekly, TargetCountPerPeriod: 4, LinkedTaskID: ptr(int64(77))})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown linked task, got %v", err)
	}
}

func TestHabitSessionsAndPeriods(t *testing.T) {
	s := newTestStore(t)
	h, err := s.CreateHabit(HabitInput{Name: "Gym", Mode: habit.ModeOccurrence, PeriodType: period.Weekly, TargetCountPerPeriod: 4})
	if err != nil {
		t.Fatal(err)
	}

	week := march(4)
	for n := 1; n <= 3; n++ {
		if err := s.UpsertHabitSession(HabitSession{HabitID: h.ID, PeriodStart: week, SessionNumber: n, IsCompleted: true}); err != nil {
			t.Fatal(err)
		}
	}
	s.UpsertHabitSession(HabitSession{HabitID: h.ID, PeriodStart: week, SessionNumber: 4})
	if err := s.UpsertHabitSession(HabitSession{HabitID: h.ID, PeriodStart: week}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for session 0, got %v", err)
	}

	sessions, _ := s.HabitSessions(h.ID, week)
	if len(sessions) != 4 || !sessions[0].IsCompleted || sessions[0].CompletedAt == nil || sessions[3].IsCompleted {
		t.Fatalf("unexpected sessions %+v", sessions)
	}

	s.UpsertHabitSession(HabitSession{HabitID: h.ID, PeriodStart: week, SessionNumber: 2})
	sessions, _ = s.HabitSessions(h.ID, week)
	if sessions[1].IsCompleted || sessions[1].CompletedAt != nil {
		t.Fatalf("reopened session should drop its completion time, got %+v", sessions[1])
	}
	s.UpsertHabitSession(HabitSession{HabitID: h.ID, PeriodStart: week, SessionNumber: 2, IsCompleted: true})
	sessions, _ = s.HabitSessions(h.ID, week)
	if !sessions[1].IsCompleted || sessions[1].CompletedAt == nil {
		t.Fatalf("completed again should set a completion time, got %+v", sessions[1])
	}

	p := HabitPeriod{
		HabitID:           h.ID,
		PeriodType:        period.Weekly,
		PeriodStart:       week,
		PeriodEnd:         march(10),
		TargetCount:       4,
		CompletedCount:    3,
		SuccessPercentage: 75,
	}
	if err := s.SaveHabitPeriod(p); err != nil {
		t.Fatal(err)
	}
	p.CompletedCount = 4
	p.IsSuccessful = true
	p.QualityPercentage = ptr(50.0)
	if err := s.SaveHabitPeriod(p); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetHabitPeriod(h.ID, week)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedCount != 4 || !got.IsSuccessful || got.QualityPercentage == nil || *got.QualityPercentage != 50 {
		t.Fatalf("unexpected period %+v", got)
	}
	if got.PeriodType != period.Weekly || period.FormatDate(got.PeriodEnd) != "2024-03-10" {
		t.Fatalf("unexpected period bounds %+v", got)
	}
	if _, err := s.GetHabitPeriod(h.ID, march(11)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Challenges
// ============================================================

func TestChallengeLifecycle(t *testing.T) {
	s := newTestStore(t)

	c, err := s.CreateChallenge(ChallengeInput{
		Name:        "10K steps",
		WhyReason:   "heart health",
		Type:        habit.ChallengeAccumulation,
		StartDate:   march(4),
		EndDate:     march(10),
		TargetValue: 70000,
		Unit:        "steps",
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != habit.StatusActive || c.WhyReason != "heart health" {
		t.Fatalf("unexpected challenge %+v", c)
	}

	s.UpsertChallengeEntry(ChallengeEntry{ChallengeID: c.ID, Date: march(4), NumericValue: 9000})
	s.UpsertChallengeEntry(ChallengeEntry{ChallengeID: c.ID, Date: march(4), NumericValue: 10000})
	entries, _ := s.ChallengeEntries(c.ID)
	if len(entries) != 1 || entries[0].NumericValue != 10000 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	totals := habit.ChallengeTotals{CurrentStreak: 7, LongestStreak: 7, CompletedDays: 7, CurrentValue: 70000}
	if err := s.SaveChallengeProgress(c.ID, totals, habit.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetChallenge(c.ID)
	if got.Status != habit.StatusCompleted || got.CompletedAt == nil || got.CurrentValue != 70000 {
		t.Fatalf("progress not stored: %+v", got)
	}

	done, _ := s.ListChallenges(habit.StatusCompleted)
	if len(done) != 1 {
		t.Fatalf("expected 1 completed challenge, got %d", len(done))
	}
	active, _ := s.ListChallenges(habit.StatusActive)
	if len(active) != 0 {
		t.Fatalf("expected no active challenges, got %d", len(active))
	}
}

func TestChallengeValidationAndStatus(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateChallenge(ChallengeInput{Name: "Bad", Type: habit.ChallengeCountBased, StartDate: march(5), EndDate: march(1), TargetCount: 3})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	c, _ := s.CreateChallenge(ChallengeInput{Name: "No sugar", Type: habit.ChallengeDailyStreak, StartDate: march(1), EndDate: march(30), TargetDays: 30})
	if err := s.SetChallengeStatus(c.ID, habit.StatusAbandoned); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChallengeStatus(c.ID, "paused"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := s.SetChallengeStatus(999, habit.StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetChallenge(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		SettingLastTab:       "daily",
		SettingFlushInterval: "2s",
		SettingHideCompleted: "false",
	}
	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 3 {
		t.Fatalf("expected at least 3 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestFlushIntervalAndHideCompleted(t *testing.T) {
	s := newTestStore(t)

	if d := s.FlushInterval(time.Second); d != 2*time.Second {
		t.Fatalf("expected stored 2s, got %v", d)
	}
	s.SetSetting(SettingFlushInterval, "soon")
	if d := s.FlushInterval(time.Second); d != time.Second {
		t.Fatalf("expected fallback 1s, got %v", d)
	}

	if s.HideCompleted() {
		t.Fatal("expected hide_completed to default to false")
	}
	s.SetSetting(SettingHideCompleted, "true")
	if !s.HideCompleted() {
		t.Fatal("expected hide_completed to be true")
	}
}

// ============================================================
// Driver errors
// ============================================================

func TestGetTaskDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := newWithDB(sqlx.NewDb(db, "sqlite"))

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("disk I/O error"))

	_, err = s.GetTask(7)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a wrapped driver error, got %v", err)
	}
	if !strings.Contains(err.Error(), "get task 7") {
		t.Fatalf("expected context in error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListPillarsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := newWithDB(sqlx.NewDb(db, "sqlite"))

	mock.ExpectQuery(`SELECT id, name, description, color, created_at FROM pillars`).
		WillReturnError(errors.New("database is locked"))

	if _, err := s.ListPillars(); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
