package service

import (
	"errors"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"

	"github.com/spf13/viper"
)

// ControllerList is the allowlist of operator user IDs permitted to run
// restricted commands.
type ControllerList struct {
	allowlist []string
}

func NewControllerList() (*ControllerList, error) {
	var list []string

	err := viper.UnmarshalKey("moderation.controllers", &list)
	if err != nil {
		return nil, errors.New("failed to load controller IDs")
	}

	return &ControllerList{allowlist: list}, nil
}

func (c *ControllerList) IsController(userID string) bool {
	for _, id := range c.allowlist {
		if id == userID {
			return true
		}
	}
	return false
}

// IDs returns the configured controller user IDs.
func (c *ControllerList) IDs() []string {
	return c.allowlist
}

// Gate adapts the allowlist into a command permission gate.
func (c *ControllerList) Gate() command.Gate {
	return func(actor *domain.Member) bool {
		return actor != nil && c.IsController(actor.ID)
	}
}

// PermissionGate allows members holding the given permission bit.
func PermissionGate(perm int64) command.Gate {
	return func(actor *domain.Member) bool {
		return actor != nil && actor.Has(perm)
	}
}
