package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Setting keys.
const (
	SettingLastTab       = "last_tab"
	SettingFlushInterval = "flush_interval"
	SettingHideCompleted = "hide_completed"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	var settings []Setting
	if err := s.db.Select(&settings, `SELECT key, value FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// FlushInterval returns the stored pending-buffer flush interval, or def when
// unset or unparseable.
func (s *Store) FlushInterval(def time.Duration) time.Duration {
	v, err := s.GetSetting(SettingFlushInterval)
	if err != nil {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// HideCompleted reports whether period tabs hide completed and NA rows.
func (s *Store) HideCompleted() bool {
	v, err := s.GetSetting(SettingHideCompleted)
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}
