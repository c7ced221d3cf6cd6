// Package tracker is the use-case layer over the store: period rollups and
// statuses, the two-write home-tab operations, entry recording with linked
// habit sync, and habit/challenge evaluation.
package tracker

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/rollup"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// Repository is the persistence the service needs. *store.Store implements it.
type Repository interface {
	ListPillars() ([]store.Pillar, error)
	ListCategories(pillarID int64, includeArchived bool) ([]store.Category, error)
	CreateCategory(pillarID int64, name, color string) (*store.Category, error)

	CreateTask(in store.TaskInput) (*store.Task, error)
	GetTask(id int64) (*store.Task, error)
	ListTasks(f store.TaskFilter) ([]store.Task, error)
	UpdateTask(id int64, in store.TaskInput) error
	DeleteTask(id int64) error
	CompleteTask(id int64) error
	MarkTaskNA(id int64) error
	RestoreTask(id int64) error

	GetPeriodStatus(taskID int64, k period.Kind, start time.Time) (store.StatusRow, error)
	SetPeriodStatus(taskID int64, k period.Kind, start time.Time, p store.StatusPatch) (store.StatusRow, error)
	RestorePeriod(taskID int64, k period.Kind, start time.Time) (store.StatusRow, error)
	TrackInPeriod(taskID int64, k period.Kind, start time.Time) (store.StatusRow, error)
	ListPeriodStatuses(k period.Kind, start time.Time) ([]store.StatusRow, error)

	RecordEntry(e store.Entry) (store.Entry, error)
	ListEntries(f store.EntryFilter) ([]store.EntryDetail, error)
	GetDailySummary(from, to time.Time) ([]store.DailySummary, error)
	DailyEntries(taskID int64, from, to time.Time) ([]store.Entry, error)
	PeriodValue(taskID int64, k period.Kind, start time.Time) (float64, error)
	PeriodEntries(taskID int64, k period.Kind, from, to time.Time) ([]store.Entry, error)

	CreateHabit(in store.HabitInput) (*store.Habit, error)
	GetHabit(id int64) (*store.Habit, error)
	ListHabits(includeInactive bool) ([]store.Habit, error)
	HabitsLinkedTo(taskID int64) ([]store.Habit, error)
	UpdateHabitStats(id int64, current, longest, total int) error
	UpsertHabitEntry(e store.HabitEntry) error
	HabitEntries(habitID int64) ([]store.HabitEntry, error)
	UpsertHabitSession(s store.HabitSession) error
	HabitSessions(habitID int64, periodStart time.Time) ([]store.HabitSession, error)
	SaveHabitPeriod(p store.HabitPeriod) error

	CreateChallenge(in store.ChallengeInput) (*store.Challenge, error)
	GetChallenge(id int64) (*store.Challenge, error)
	ListChallenges(status habit.ChallengeStatus) ([]store.Challenge, error)
	UpsertChallengeEntry(e store.ChallengeEntry) error
	ChallengeEntries(challengeID int64) ([]store.ChallengeEntry, error)
	SaveChallengeProgress(id int64, t habit.ChallengeTotals, status habit.ChallengeStatus) error
	SetChallengeStatus(id int64, status habit.ChallengeStatus) error
}

type Service struct {
	repo Repository
	log  hclog.Logger
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l hclog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, log: hclog.NewNullLogger(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Store exposes the repository for plain reads.
func (s *Service) Store() Repository { return s.repo }

// DailyAggregateForPeriod returns the per-day breakdown of a task for the
// period of kind k containing start.
func (s *Service) DailyAggregateForPeriod(ctx context.Context, taskID int64, start time.Time, k period.Kind) (rollup.Breakdown, error) {
	if err := ctx.Err(); err != nil {
		return rollup.Breakdown{}, err
	}
	t, err := s.repo.GetTask(taskID)
	if err != nil {
		return rollup.Breakdown{}, err
	}
	return s.aggregate(*t, k, start)
}

func (s *Service) aggregate(t store.Task, k period.Kind, start time.Time) (rollup.Breakdown, error) {
	if !k.Valid() {
		return rollup.Breakdown{}, invalid("unknown period kind")
	}
	ps := k.Start(start)
	daily, err := s.repo.DailyEntries(t.ID, ps, k.End(ps))
	if err != nil {
		return rollup.Breakdown{}, err
	}
	lump, err := s.repo.PeriodValue(t.ID, k, ps)
	if err != nil {
		return rollup.Breakdown{}, err
	}
	b := rollup.Aggregate(t, k, ps, daily, lump)
	if home, ok := t.Frequency.HomeKind(); ok && home != period.Daily && home < k {
		lumps, err := s.repo.PeriodEntries(t.ID, home, b.Start, b.End)
		if err != nil {
			return rollup.Breakdown{}, err
		}
		b.Carry(t, lumps)
	}
	return b, nil
}

// PeriodStatus returns the tab-local status of a task. It never reads the
// task's global flags.
func (s *Service) PeriodStatus(ctx context.Context, taskID int64, start time.Time, k period.Kind) (store.StatusRow, error) {
	if err := ctx.Err(); err != nil {
		return store.StatusRow{}, err
	}
	if _, err := s.repo.GetTask(taskID); err != nil {
		return store.StatusRow{}, err
	}
	return s.repo.GetPeriodStatus(taskID, k, start)
}

// SetPeriodStatus upserts the tab-local status of a task.
func (s *Service) SetPeriodStatus(ctx context.Context, taskID int64, start time.Time, k period.Kind, p store.StatusPatch) (store.StatusRow, error) {
	if err := ctx.Err(); err != nil {
		return store.StatusRow{}, err
	}
	row, err := s.repo.SetPeriodStatus(taskID, k, start, p)
	if err != nil {
		return row, err
	}
	s.log.Debug("period status set", "task", taskID, "kind", k, "start", period.FormatDate(row.PeriodStart), "status", row.Status())
	return row, nil
}

// RestorePeriod returns a task to active in one period tab.
func (s *Service) RestorePeriod(ctx context.Context, taskID int64, start time.Time, k period.Kind) (store.StatusRow, error) {
	if err := ctx.Err(); err != nil {
		return store.StatusRow{}, err
	}
	return s.repo.RestorePeriod(taskID, k, start)
}

// TrackInPeriod adds a task to a monitoring tab.
func (s *Service) TrackInPeriod(ctx context.Context, taskID int64, start time.Time, k period.Kind) (store.StatusRow, error) {
	if err := ctx.Err(); err != nil {
		return store.StatusRow{}, err
	}
	return s.repo.TrackInPeriod(taskID, k, start)
}

// EntryInput is one measurement to record. Hour is only meaningful for daily
// entries.
type EntryInput struct {
	TaskID int64
	Kind   period.Kind
	Date   time.Time
	Hour   *int
	Value  float64
}

// RecordEntry upserts an entry and then syncs habits linked to the task for
// that day. Sync failures are logged, the entry stays recorded.
func (s *Service) RecordEntry(ctx context.Context, in EntryInput) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	t, err := s.repo.GetTask(in.TaskID)
	if err != nil {
		return store.Entry{}, err
	}
	if t.Type == store.TypeBoolean && in.Value != 0 && in.Value != 1 {
		return store.Entry{}, invalid("boolean tasks take 0 or 1")
	}
	e, err := s.repo.RecordEntry(store.Entry{
		TaskID: in.TaskID,
		Kind:   in.Kind,
		Date:   in.Date,
		Hour:   in.Hour,
		Value:  in.Value,
	})
	if err != nil {
		return e, err
	}
	if in.Kind == period.Daily {
		if err := s.syncLinkedHabits(*t, e.Date); err != nil {
			s.log.Warn("linked habit sync failed", "task", t.ID, "date", period.FormatDate(e.Date), "error", err)
		}
	}
	return e, nil
}
