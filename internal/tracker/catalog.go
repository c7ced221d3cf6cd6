package tracker

import (
	"context"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func (s *Service) ListPillars(ctx context.Context) ([]store.Pillar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListPillars()
}

func (s *Service) ListCategories(ctx context.Context, pillarID int64, includeArchived bool) ([]store.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(pillarID, includeArchived)
}

func (s *Service) CreateCategory(ctx context.Context, pillarID int64, name, color string) (*store.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.repo.CreateCategory(pillarID, name, color)
	if err != nil {
		return nil, err
	}
	s.log.Info("category created", "category", c.ID, "pillar", pillarID, "name", c.Name)
	return c, nil
}

// ListEntries returns daily entries joined with task and pillar names, newest first.
func (s *Service) ListEntries(ctx context.Context, f store.EntryFilter) ([]store.EntryDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(f)
}

// DailySummary totals each task's daily entries per day in [from, to).
func (s *Service) DailySummary(ctx context.Context, from, to time.Time) ([]store.DailySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, invalid("empty date range")
	}
	return s.repo.GetDailySummary(from, to)
}

func (s *Service) GetHabit(ctx context.Context, id int64) (*store.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.GetHabit(id)
}

func (s *Service) ListHabits(ctx context.Context, includeInactive bool) ([]store.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.repo.ListHabits(includeInactive)
}

// ListChallenges lists challenges; an empty status lists all of them.
func (s *Service) ListChallenges(ctx context.Context, status habit.ChallengeStatus) ([]store.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalid("unknown challenge status")
	}
	return s.repo.ListChallenges(status)
}
