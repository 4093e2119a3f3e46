package port

import (
	"context"

	"modbot/internal/core/domain"
)

type PunishmentStore interface {
	// Append adds one record to the audit log. Records are never updated or
	// deleted; a removal is a new record.
	Append(ctx context.Context, record *domain.PunishmentRecord) error
	// ByUser returns a user's records ordered by issue time, oldest first.
	ByUser(ctx context.Context, userID string) ([]domain.PunishmentRecord, error)
	// All returns the full audit log ordered by issue time, oldest first.
	All(ctx context.Context) ([]domain.PunishmentRecord, error)
	// UpdateReason corrects the reason of an existing record. This is the one
	// sanctioned mutation, a moderator-initiated last-write-wins edit.
	UpdateReason(ctx context.Context, id, reason string) error
}

type Tag struct {
	Name    string `db:"tag"`
	Content string `db:"content"`
	OwnerID string `db:"owner_id"`
}

type TagStore interface {
	Get(ctx context.Context, name string) (*Tag, error)
	Set(ctx context.Context, tag *Tag) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// PrefShowVC keeps voice channels visible for a user while they are not
// connected to one.
const PrefShowVC = "show_vc"

type PrefStore interface {
	Bool(ctx context.Context, userID, key string) (bool, error)
	SetBool(ctx context.Context, userID, key string, value bool) error
}
