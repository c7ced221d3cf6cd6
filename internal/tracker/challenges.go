package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/habit"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

// ChallengeDayInput is what the user logged for one challenge day.
type ChallengeDayInput struct {
	Completed bool
	Count     int
	Value     float64
	Note      string
}

// ChallengeResult is a challenge after re-evaluation.
type ChallengeResult struct {
	Challenge store.Challenge
	Totals    habit.ChallengeTotals
	Expired   bool
}

func (s *Service) CreateChallenge(ctx context.Context, in store.ChallengeInput) (*store.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.repo.CreateChallenge(in)
	if err != nil {
		return nil, err
	}
	s.log.Info("challenge created", "challenge", c.ID, "type", c.Type)
	return c, nil
}

// EvaluateChallengeDay records the entry for date and recomputes the running
// totals. An active challenge whose target is reached becomes completed.
// Expiry is reported but never fails the challenge.
func (s *Service) EvaluateChallengeDay(ctx context.Context, challengeID int64, date time.Time, in ChallengeDayInput) (ChallengeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChallengeResult{}, err
	}
	c, err := s.repo.GetChallenge(challengeID)
	if err != nil {
		return ChallengeResult{}, err
	}
	goal := c.Goal()
	if !goal.InRange(date) {
		return ChallengeResult{}, invalid(fmt.Sprintf("%s is outside %s..%s",
			period.FormatDate(date), period.FormatDate(c.StartDate), period.FormatDate(c.EndDate)))
	}
	err = s.repo.UpsertChallengeEntry(store.ChallengeEntry{
		ChallengeID:  challengeID,
		Date:         period.DayStart(date),
		IsCompleted:  in.Completed,
		CountValue:   in.Count,
		NumericValue: in.Value,
		Note:         in.Note,
	})
	if err != nil {
		return ChallengeResult{}, err
	}
	return s.reevaluateChallenge(c)
}

// ChallengeProgress re-evaluates a challenge without logging anything.
func (s *Service) ChallengeProgress(ctx context.Context, challengeID int64) (ChallengeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChallengeResult{}, err
	}
	c, err := s.repo.GetChallenge(challengeID)
	if err != nil {
		return ChallengeResult{}, err
	}
	return s.reevaluateChallenge(c)
}

func (s *Service) reevaluateChallenge(c *store.Challenge) (ChallengeResult, error) {
	rows, err := s.repo.ChallengeEntries(c.ID)
	if err != nil {
		return ChallengeResult{}, err
	}
	days := make([]habit.ChallengeDay, 0, len(rows))
	for _, r := range rows {
		days = append(days, habit.ChallengeDay{Date: r.Date, Completed: r.IsCompleted, Count: r.CountValue, Value: r.NumericValue})
	}

	now := s.now()
	goal := c.Goal()
	totals := habit.EvaluateChallenge(goal, days, now)
	next := habit.NextStatus(c.Status, totals)
	if err := s.repo.SaveChallengeProgress(c.ID, totals, next); err != nil {
		return ChallengeResult{}, err
	}
	if next != c.Status {
		s.log.Info("challenge status changed", "challenge", c.ID, "from", c.Status, "to", next)
	}
	updated, err := s.repo.GetChallenge(c.ID)
	if err != nil {
		return ChallengeResult{}, err
	}
	return ChallengeResult{Challenge: *updated, Totals: totals, Expired: goal.Expired(now)}, nil
}

// SetChallengeStatus applies a manual status change: failing, abandoning or
// reactivating a challenge.
func (s *Service) SetChallengeStatus(ctx context.Context, challengeID int64, to habit.ChallengeStatus) (*store.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	if err := habit.CheckTransition(c.Status, to); err != nil {
		return nil, invalid(err.Error())
	}
	if err := s.repo.SetChallengeStatus(challengeID, to); err != nil {
		return nil, err
	}
	s.log.Info("challenge status set", "challenge", challengeID, "from", c.Status, "to", to)
	return s.repo.GetChallenge(challengeID)
}
