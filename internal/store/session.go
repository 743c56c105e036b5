package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/sadopc/asap/internal/schedule"
)

func (s *Store) getSession(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setSession(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		 updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set session %q: %w", key, err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() (string, error) {
	tok, _, err := s.getSession(keyToken)
	return tok, err
}

func (s *Store) SetToken(token string) error {
	return s.setSession(keyToken, token)
}

// User returns the signed-in user, or nil when none is stored.
func (s *Store) User() (*schedule.User, error) {
	raw, ok, err := s.getSession(keyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u schedule.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

func (s *Store) SetUser(u schedule.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.setSession(keyUser, string(b))
}

// SelectedCalendars returns the calendar ids the user chose to display,
// sorted. An empty result means every calendar is shown.
func (s *Store) SelectedCalendars() ([]int64, error) {
	raw, ok, err := s.getSession(keySelectedCalendars)
	if err != nil || !ok {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode selected calendars: %w", err)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (s *Store) SetSelectedCalendars(ids []int64) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.setSession(keySelectedCalendars, string(b))
}

// ToggleCalendar adds id to the selection, or removes it if present, and
// returns the new selection.
func (s *Store) ToggleCalendar(id int64) ([]int64, error) {
	ids, err := s.SelectedCalendars()
	if err != nil {
		return nil, err
	}
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
	}
	if err := s.SetSelectedCalendars(ids); err != nil {
		return nil, err
	}
	return s.SelectedCalendars()
}

// ClearSession forgets token, user and calendar selection. Settings stay.
func (s *Store) ClearSession() error {
	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
