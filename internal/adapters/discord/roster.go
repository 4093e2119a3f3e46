package discord

import (
	"context"
	"fmt"
	"strings"

	"modbot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
)

// Roster resolves guild members through the session state, falling back to
// the REST API when the cache misses.
type Roster struct {
	session        *discordgo.Session
	defaultGuildID string
}

func NewRoster(session *discordgo.Session, defaultGuildID string) *Roster {
	return &Roster{session: session, defaultGuildID: defaultGuildID}
}

func (r *Roster) Member(ctx context.Context, guildID, userID string) (*domain.Member, error) {
	if guildID == "" {
		guildID = r.defaultGuildID
	}

	member, err := r.session.State.Member(guildID, userID)
	if err != nil {
		member, err = r.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, domain.ErrUserNotFound
		}
	}

	return r.toDomain(guildID, member), nil
}

// FindMember resolves a mention string, a bare user ID, or a name fragment.
func (r *Roster) FindMember(ctx context.Context, guildID, query string) (*domain.Member, error) {
	if guildID == "" {
		guildID = r.defaultGuildID
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrUserNotFound
	}

	if id, ok := parseMention(query); ok {
		return r.Member(ctx, guildID, id)
	}

	if m, err := r.Member(ctx, guildID, query); err == nil {
		return m, nil
	}

	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild %s: %w", guildID, err)
	}

	lowered := strings.ToLower(query)
	for _, member := range guild.Members {
		if strings.Contains(strings.ToLower(member.User.Username), lowered) ||
			strings.Contains(strings.ToLower(member.Nick), lowered) {
			return r.toDomain(guildID, member), nil
		}
	}

	return nil, domain.ErrUserNotFound
}

func parseMention(s string) (string, bool) {
	if !strings.HasPrefix(s, "<@") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	return id, id != ""
}

func (r *Roster) toDomain(guildID string, member *discordgo.Member) *domain.Member {
	m := &domain.Member{
		ID:       member.User.ID,
		Username: member.User.Username,
		Nick:     member.Nick,
		GuildID:  guildID,
	}

	guild, err := r.session.State.Guild(guildID)
	if err != nil {
		return m
	}

	rolePerms := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		rolePerms[role.ID] = role
	}
	for _, roleID := range member.Roles {
		role, ok := rolePerms[roleID]
		if !ok {
			continue
		}
		m.Permissions |= role.Permissions
		if role.Position > m.RoleRank {
			m.RoleRank = role.Position
		}
	}
	if guild.OwnerID == member.User.ID {
		m.Permissions = ^int64(0)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == member.User.ID {
			m.VoiceChannelID = vs.ChannelID
			break
		}
	}

	return m
}
