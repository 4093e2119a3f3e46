package storage

import (
	"context"
	"fmt"

	"modbot/internal/core/domain"

	"github.com/jmoiron/sqlx"
)

// PunishmentStore persists the append-only moderation audit log. Ordering is
// by issue time with insertion order as tiebreak, so removals recorded in the
// same instant as the action they cancel still sort after it.
type PunishmentStore struct {
	db *sqlx.DB
}

func NewPunishmentStore(db *sqlx.DB) *PunishmentStore {
	return &PunishmentStore{db: db}
}

func (s *PunishmentStore) Append(ctx context.Context, record *domain.PunishmentRecord) error {
	query := `INSERT INTO punishments (id, user_id, action, moderator_id, date, duration, reason)
			  VALUES (:id, :user_id, :action, :moderator_id, :date, :duration, :reason)`

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert punishment record: %w", err)
	}

	return nil
}

func (s *PunishmentStore) ByUser(ctx context.Context, userID string) ([]domain.PunishmentRecord, error) {
	var records []domain.PunishmentRecord
	query := "SELECT * FROM punishments WHERE user_id = ? ORDER BY date ASC, rowid ASC"

	if err := s.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get punishment records for user %s: %w", userID, err)
	}

	return records, nil
}

func (s *PunishmentStore) All(ctx context.Context) ([]domain.PunishmentRecord, error) {
	var records []domain.PunishmentRecord
	query := "SELECT * FROM punishments ORDER BY date ASC, rowid ASC"

	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to get punishment records: %w", err)
	}

	return records, nil
}

func (s *PunishmentStore) UpdateReason(ctx context.Context, id, reason string) error {
	query := "UPDATE punishments SET reason = ? WHERE id = ?"

	result, err := s.db.ExecContext(ctx, query, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update reason for punishment %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for punishment %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("no punishment record found with id %s", id)
	}

	return nil
}
