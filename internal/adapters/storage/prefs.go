package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PrefStore persists per-user boolean preferences.
type PrefStore struct {
	db *sqlx.DB
}

func NewPrefStore(db *sqlx.DB) *PrefStore {
	return &PrefStore{db: db}
}

// Bool returns false without error when the preference was never set.
func (s *PrefStore) Bool(ctx context.Context, userID, key string) (bool, error) {
	var value bool
	query := "SELECT value FROM user_prefs WHERE user_id = ? AND key = ?"

	err := s.db.GetContext(ctx, &value, query, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get pref %s for user %s: %w", key, userID, err)
	}

	return value, nil
}

func (s *PrefStore) SetBool(ctx context.Context, userID, key string, value bool) error {
	query := `INSERT INTO user_prefs (user_id, key, value) VALUES (?, ?, ?)
			  ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`

	if _, err := s.db.ExecContext(ctx, query, userID, key, value); err != nil {
		return fmt.Errorf("failed to set pref %s for user %s: %w", key, userID, err)
	}

	return nil
}
