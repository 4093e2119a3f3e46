package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Effects maps punishment actions to guild roles and applies or removes them.
// The role names come from configuration, e.g. warning -> "Warned".
type Effects struct {
	session *discordgo.Session
	guildID string
	roles   map[string]string
}

func NewEffects(session *discordgo.Session, guildID string, actionRoles map[string]string) *Effects {
	return &Effects{session: session, guildID: guildID, roles: actionRoles}
}

func (e *Effects) Apply(ctx context.Context, userID, action string) error {
	roleID, err := e.roleID(action)
	if err != nil {
		return err
	}

	if err := e.session.GuildMemberRoleAdd(e.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add %s role to %s: %w", action, userID, err)
	}

	return nil
}

func (e *Effects) Remove(ctx context.Context, userID, action string) error {
	roleID, err := e.roleID(action)
	if err != nil {
		return err
	}

	if err := e.session.GuildMemberRoleRemove(e.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to remove %s role from %s: %w", action, userID, err)
	}

	return nil
}

func (e *Effects) Present(ctx context.Context, userID, action string) (bool, error) {
	roleID, err := e.roleID(action)
	if err != nil {
		return false, err
	}

	member, err := e.session.State.Member(e.guildID, userID)
	if err != nil {
		member, err = e.session.GuildMember(e.guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("failed to resolve member %s: %w", userID, err)
		}
	}

	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}

	return false, nil
}

func (e *Effects) Ban(ctx context.Context, userID, reason string) error {
	err := e.session.GuildBanCreateWithReason(e.guildID, userID, reason, 0, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ban %s: %w", userID, err)
	}

	return nil
}

func (e *Effects) roleID(action string) (string, error) {
	name, ok := e.roles[action]
	if !ok {
		return "", fmt.Errorf("no role configured for action %q", action)
	}

	guild, err := e.session.State.Guild(e.guildID)
	if err != nil {
		return "", fmt.Errorf("failed to load guild %s: %w", e.guildID, err)
	}

	for _, role := range guild.Roles {
		if role.Name == name {
			return role.ID, nil
		}
	}

	return "", fmt.Errorf("role %q not found in guild %s", name, e.guildID)
}
