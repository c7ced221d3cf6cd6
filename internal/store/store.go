package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const currentVersion = 2

var (
	// ErrNotFound is returned when a task, habit, challenge or category does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for rejected input.
	ErrInvalid = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type Store struct {
	db  *sqlx.DB
	log hclog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration warnings.
func WithLogger(l hclog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := newWithDB(db, opts...)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func newWithDB(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, log: hclog.NewNullLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Version returns the schema version recorded in the database.
func (s *Store) Version() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

func (s *Store) migrate() error {
	version, err := s.Version()
	if err != nil {
		return err
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS pillars (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	INSERT OR IGNORE INTO pillars (name, description, color) VALUES
		('Hard Work', 'Career, learning and deliberate effort', '#6C63FF'),
		('Calmness',  'Health, rest and mindfulness',           '#2EC4B6'),
		('Family',    'Relationships and home',                 '#F39C12');

	CREATE TABLE IF NOT EXISTS categories (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		pillar_id   INTEGER NOT NULL REFERENCES pillars(id),
		name        TEXT NOT NULL,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(pillar_id, name)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		pillar_id           INTEGER NOT NULL REFERENCES pillars(id),
		category_id         INTEGER REFERENCES categories(id) ON DELETE SET NULL,
		follow_up_frequency TEXT NOT NULL,
		task_type           TEXT NOT NULL DEFAULT 'time',
		allocated_minutes   INTEGER NOT NULL DEFAULT 0,
		target_value        REAL NOT NULL DEFAULT 0,
		unit                TEXT NOT NULL DEFAULT '',
		is_completed        INTEGER NOT NULL DEFAULT 0,
		completed_at        TEXT,
		is_active           INTEGER NOT NULL DEFAULT 1,
		na_marked_at        TEXT,
		created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_frequency ON tasks(follow_up_frequency);

	CREATE TABLE IF NOT EXISTS daily_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		entry_date  TEXT NOT NULL,
		hour        INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
		value       REAL NOT NULL DEFAULT 0,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(task_id, entry_date, hour)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_entries_date ON daily_entries(entry_date);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}

	for _, k := range []string{"weekly", "monthly", "yearly"} {
		if _, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_entries (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id      INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			period_start TEXT NOT NULL,
			value        REAL NOT NULL DEFAULT 0,
			updated_at   TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now')),
			UNIQUE(task_id, period_start)
		)`, k)); err != nil {
			return err
		}
	}

	for _, k := range []string{"daily", "weekly", "monthly", "yearly"} {
		if _, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_task_status (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id      INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			period_start TEXT NOT NULL,
			is_completed INTEGER NOT NULL DEFAULT 0,
			is_na        INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT,
			created_at   TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ','now')),
			UNIQUE(task_id, period_start)
		)`, k)); err != nil {
			return err
		}
	}

	const habitDDL = `
	CREATE TABLE IF NOT EXISTS habits (
		id                      INTEGER PRIMARY KEY AUTOINCREMENT,
		name                    TEXT NOT NULL,
		description             TEXT NOT NULL DEFAULT '',
		tracking_mode           TEXT NOT NULL DEFAULT 'daily_streak',
		habit_type              TEXT NOT NULL DEFAULT 'boolean',
		period_type             TEXT NOT NULL DEFAULT 'daily',
		target_value            REAL,
		comparison_type         TEXT NOT NULL DEFAULT 'at_least',
		target_count_per_period INTEGER NOT NULL DEFAULT 0,
		session_target_value    REAL,
		session_target_unit     TEXT NOT NULL DEFAULT '',
		aggregate_target        REAL NOT NULL DEFAULT 0,
		linked_task_id          INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		start_date              TEXT NOT NULL,
		is_active               INTEGER NOT NULL DEFAULT 1,
		current_streak          INTEGER NOT NULL DEFAULT 0,
		longest_streak          INTEGER NOT NULL DEFAULT 0,
		total_completions       INTEGER NOT NULL DEFAULT 0,
		created_at              TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS habit_entries (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id      INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		entry_date    TEXT NOT NULL,
		is_successful INTEGER NOT NULL DEFAULT 0,
		actual_value  REAL,
		note          TEXT NOT NULL DEFAULT '',
		UNIQUE(habit_id, entry_date)
	);

	CREATE TABLE IF NOT EXISTS habit_sessions (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id       INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		period_start   TEXT NOT NULL,
		session_number INTEGER NOT NULL,
		is_completed   INTEGER NOT NULL DEFAULT 0,
		value          REAL,
		meets_target   INTEGER NOT NULL DEFAULT 0,
		completed_at   TEXT,
		UNIQUE(habit_id, period_start, session_number)
	);

	CREATE TABLE IF NOT EXISTS habit_periods (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		habit_id           INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		period_type        TEXT NOT NULL,
		period_start       TEXT NOT NULL,
		period_end         TEXT NOT NULL,
		target_count       INTEGER NOT NULL DEFAULT 0,
		completed_count    INTEGER NOT NULL DEFAULT 0,
		aggregate_target   REAL NOT NULL DEFAULT 0,
		aggregate_achieved REAL NOT NULL DEFAULT 0,
		is_successful      INTEGER NOT NULL DEFAULT 0,
		success_percentage REAL NOT NULL DEFAULT 0,
		quality_percentage REAL,
		UNIQUE(habit_id, period_start)
	);

	CREATE TABLE IF NOT EXISTS challenges (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		challenge_type TEXT NOT NULL,
		start_date     TEXT NOT NULL,
		end_date       TEXT NOT NULL,
		target_days    INTEGER NOT NULL DEFAULT 0,
		target_count   INTEGER NOT NULL DEFAULT 0,
		target_value   REAL NOT NULL DEFAULT 0,
		unit           TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'active',
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		completed_days INTEGER NOT NULL DEFAULT 0,
		current_count  INTEGER NOT NULL DEFAULT 0,
		current_value  REAL NOT NULL DEFAULT 0,
		completed_at   TEXT,
		created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS challenge_entries (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		challenge_id  INTEGER NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
		entry_date    TEXT NOT NULL,
		is_completed  INTEGER NOT NULL DEFAULT 0,
		count_value   INTEGER NOT NULL DEFAULT 0,
		numeric_value REAL NOT NULL DEFAULT 0,
		note          TEXT NOT NULL DEFAULT '',
		UNIQUE(challenge_id, entry_date)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('last_tab',       'daily'),
		('flush_interval', '2s'),
		('hide_completed', 'false');
	`
	_, err := s.db.Exec(habitDDL)
	return err
}

// migrateV2 adds columns. Databases patched by hand already carry some of them;
// a duplicate column is logged and skipped.
func (s *Store) migrateV2() error {
	stmts := []string{
		`ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 5`,
		`ALTER TABLE challenges ADD COLUMN why_reason TEXT NOT NULL DEFAULT ''`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			if isDuplicateColumn(err) {
				s.log.Warn("migration already applied", "statement", stmt)
				continue
			}
			return fmt.Errorf("migrate v2: %w", err)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}

// DefaultDBPath returns ~/.config/mytimemanager/mytimemanager.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "mytimemanager", "mytimemanager.db"), nil
}
