package port

import (
	"context"

	"modbot/internal/core/domain"
)

type Roster interface {
	// Member resolves a guild member by exact user ID.
	Member(ctx context.Context, guildID, userID string) (*domain.Member, error)
	// FindMember resolves a member from a mention string, an ID, or a name
	// fragment. Returns domain.ErrUserNotFound when nothing matches.
	FindMember(ctx context.Context, guildID, query string) (*domain.Member, error)
}

// Effects applies and removes the externally-visible side of a punishment
// (role grants, bans) in the configured guild.
type Effects interface {
	Apply(ctx context.Context, userID, action string) error
	Remove(ctx context.Context, userID, action string) error
	// Present reports whether the action's effect is currently visible on the
	// user, used to reconcile drift after a restart.
	Present(ctx context.Context, userID, action string) (bool, error)
	Ban(ctx context.Context, userID, reason string) error
}
