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

// ChallengeInput carries the editable fields of a challenge.
type ChallengeInput struct {
	Name        string
	Description string
	WhyReason   string
	Type        habit.ChallengeType
	StartDate   time.Time
	EndDate     time.Time
	TargetDays  int
	TargetCount int
	TargetValue float64
	Unit        string
}

const challengeColumns = `id, name, description, why_reason, challenge_type, start_date, end_date, target_days,
	target_count, target_value, unit, status, current_streak, longest_streak, completed_days, current_count,
	current_value, completed_at, created_at`

type challengeRecord struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	Description   string         `db:"description"`
	WhyReason     string         `db:"why_reason"`
	Type          string         `db:"challenge_type"`
	StartDate     string         `db:"start_date"`
	EndDate       string         `db:"end_date"`
	TargetDays    int            `db:"target_days"`
	TargetCount   int            `db:"target_count"`
	TargetValue   float64        `db:"target_value"`
	Unit          string         `db:"unit"`
	Status        string         `db:"status"`
	CurrentStreak int            `db:"current_streak"`
	LongestStreak int            `db:"longest_streak"`
	CompletedDays int            `db:"completed_days"`
	CurrentCount  int            `db:"current_count"`
	CurrentValue  float64        `db:"current_value"`
	CompletedAt   sql.NullString `db:"completed_at"`
	CreatedAt     string         `db:"created_at"`
}

func (r challengeRecord) challenge() Challenge {
	return Challenge{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		WhyReason:     r.WhyReason,
		Type:          habit.ChallengeType(r.Type),
		StartDate:     parseDate(r.StartDate),
		EndDate:       parseDate(r.EndDate),
		TargetDays:    r.TargetDays,
		TargetCount:   r.TargetCount,
		TargetValue:   r.TargetValue,
		Unit:          r.Unit,
		Status:        habit.ChallengeStatus(r.Status),
		CurrentStreak: r.CurrentStreak,
		LongestStreak: r.LongestStreak,
		CompletedDays: r.CompletedDays,
		CurrentCount:  r.CurrentCount,
		CurrentValue:  r.CurrentValue,
		CompletedAt:   parseNullTime(r.CompletedAt),
		CreatedAt:     parseTime(r.CreatedAt),
	}
}

func (s *Store) CreateChallenge(in ChallengeInput) (*Challenge, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalidf("challenge name is required")
	}
	goal := habit.ChallengeGoal{
		Type:        in.Type,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TargetDays:  in.TargetDays,
		TargetCount: in.TargetCount,
		TargetValue: in.TargetValue,
	}
	if err := goal.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO challenges (name, description, why_reason, challenge_type, start_date, end_date,
			target_days, target_count, target_value, unit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.WhyReason, in.Type, period.FormatDate(in.StartDate), period.FormatDate(in.EndDate),
		in.TargetDays, in.TargetCount, in.TargetValue, in.Unit, nowString(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetChallenge(id)
}

func (s *Store) GetChallenge(id int64) (*Challenge, error) {
	var rec challengeRecord
	err := s.db.Get(&rec, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get challenge %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge %d: %w", id, err)
	}
	c := rec.challenge()
	return &c, nil
}

// ListChallenges returns challenges, optionally restricted to one status.
func (s *Store) ListChallenges(status habit.ChallengeStatus) ([]Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY start_date DESC, id`

	var recs []challengeRecord
	if err := s.db.Select(&recs, query, args...); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	out := make([]Challenge, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.challenge())
	}
	return out, nil
}

func (s *Store) DeleteChallenge(id int64) error {
	res, err := s.db.Exec(`DELETE FROM challenges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete challenge %d: %w", id, err)
	}
	return expectRow(res, "delete challenge", id)
}

type challengeEntryRecord struct {
	ChallengeID  int64   `db:"challenge_id"`
	EntryDate    string  `db:"entry_date"`
	IsCompleted  int     `db:"is_completed"`
	CountValue   int     `db:"count_value"`
	NumericValue float64 `db:"numeric_value"`
	Note         string  `db:"note"`
}

// UpsertChallengeEntry writes the single entry of a challenge for one day.
func (s *Store) UpsertChallengeEntry(e ChallengeEntry) error {
	if e.CountValue < 0 || e.NumericValue < 0 {
		return invalidf("challenge entry values cannot be negative")
	}
	_, err := s.db.Exec(
		`INSERT INTO challenge_entries (challenge_id, entry_date, is_completed, count_value, numeric_value, note)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(challenge_id, entry_date) DO UPDATE SET
			is_completed = excluded.is_completed,
			count_value = excluded.count_value,
			numeric_value = excluded.numeric_value,
			note = excluded.note`,
		e.ChallengeID, period.FormatDate(e.Date), boolInt(e.IsCompleted), e.CountValue, e.NumericValue, e.Note,
	)
	if err != nil {
		return fmt.Errorf("upsert challenge %d entry: %w", e.ChallengeID, err)
	}
	return nil
}

// ChallengeEntries returns a challenge's entries ordered by date.
func (s *Store) ChallengeEntries(challengeID int64) ([]ChallengeEntry, error) {
	var recs []challengeEntryRecord
	err := s.db.Select(&recs,
		`SELECT challenge_id, entry_date, is_completed, count_value, numeric_value, note
		 FROM challenge_entries WHERE challenge_id = ? ORDER BY entry_date`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge %d entries: %w", challengeID, err)
	}
	out := make([]ChallengeEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, ChallengeEntry{
			ChallengeID:  r.ChallengeID,
			Date:         parseDate(r.EntryDate),
			IsCompleted:  r.IsCompleted == 1,
			CountValue:   r.CountValue,
			NumericValue: r.NumericValue,
			Note:         r.Note,
		})
	}
	return out, nil
}

// SaveChallengeProgress stores the running totals and status. completed_at is
// set on the first transition to completed and cleared when leaving it.
func (s *Store) SaveChallengeProgress(id int64, t habit.ChallengeTotals, status habit.ChallengeStatus) error {
	if !status.Valid() {
		return invalidf("unknown challenge status %q", status)
	}
	var completedAt any
	if status == habit.StatusCompleted {
		completedAt = nowString()
	}
	res, err := s.db.Exec(
		`UPDATE challenges SET current_streak = ?, longest_streak = ?, completed_days = ?, current_count = ?,
			current_value = ?, status = ?,
			completed_at = CASE WHEN ? IS NULL THEN NULL ELSE COALESCE(completed_at, ?) END
		 WHERE id = ?`,
		t.CurrentStreak, t.LongestStreak, t.CompletedDays, t.CurrentCount, t.CurrentValue, status,
		completedAt, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("save challenge %d progress: %w", id, err)
	}
	return expectRow(res, "save challenge progress", id)
}

// SetChallengeStatus changes only the lifecycle status.
func (s *Store) SetChallengeStatus(id int64, status habit.ChallengeStatus) error {
	if !status.Valid() {
		return invalidf("unknown challenge status %q", status)
	}
	res, err := s.db.Exec(`UPDATE challenges SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set challenge %d status: %w", id, err)
	}
	return expectRow(res, "set challenge status", id)
}
