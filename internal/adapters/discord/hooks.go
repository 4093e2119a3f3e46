package discord

import (
	"context"
	"fmt"

	"modbot/internal/core/domain"
	"modbot/internal/core/port"
	"modbot/internal/core/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Hooks holds the bot's lifecycle event hooks: punishment-state
// reconciliation on startup and join/leave, and voice-channel role sync.
type Hooks struct {
	session        *discordgo.Session
	punisher       *service.Punisher
	effects        port.Effects
	prefs          port.PrefStore
	sender         port.TextSender
	guildID        string
	staffChannelID string
	voiceRole      string
	vcShownRole    string
}

type HooksConfig struct {
	GuildID        string
	StaffChannelID string
	VoiceRole      string
	VCShownRole    string
}

func NewHooks(session *discordgo.Session, punisher *service.Punisher, effects port.Effects,
	prefs port.PrefStore, sender port.TextSender, cfg HooksConfig) *Hooks {
	return &Hooks{
		session:        session,
		punisher:       punisher,
		effects:        effects,
		prefs:          prefs,
		sender:         sender,
		guildID:        cfg.GuildID,
		staffChannelID: cfg.StaffChannelID,
		voiceRole:      cfg.VoiceRole,
		vcShownRole:    cfg.VCShownRole,
	}
}

// RegisterAll attaches every hook to the bus. Hooks for the same event are
// independent and run concurrently when it fires.
func (h *Hooks) RegisterAll(bus *service.EventBus) {
	bus.On(EventReady, h.onReadyPunishments)
	bus.On(EventReady, h.onReadyVoiceRoles)
	bus.On(EventMemberJoin, h.onMemberJoin)
	bus.On(EventMemberLeave, h.onMemberLeave)
	bus.On(EventVoiceStateUpdate, h.onVoiceStateUpdate)
}

func (h *Hooks) onReadyPunishments(ctx context.Context, _ any) error {
	return h.punisher.RestoreTimers(ctx)
}

// onReadyVoiceRoles sweeps the guild once so voice roles survive restarts.
func (h *Hooks) onReadyVoiceRoles(ctx context.Context, _ any) error {
	guild, err := h.session.State.Guild(h.guildID)
	if err != nil {
		return fmt.Errorf("failed to load guild %s: %w", h.guildID, err)
	}

	voiceRoleID, err := h.roleID(h.voiceRole)
	if err != nil {
		return err
	}

	inVoice := make(map[string]struct{}, len(guild.VoiceStates))
	for _, vs := range guild.VoiceStates {
		inVoice[vs.UserID] = struct{}{}
	}

	for _, member := range guild.Members {
		_, voice := inVoice[member.User.ID]
		if !voice && !hasRole(member, voiceRoleID) {
			continue
		}
		if err := h.Sync(ctx, member.User.ID); err != nil {
			log.Warn().Err(err).Str("user", member.User.ID).Msg("voice role sweep failed for member")
		}
	}

	return nil
}

func (h *Hooks) onMemberJoin(ctx context.Context, payload any) error {
	event, ok := payload.(*discordgo.GuildMemberAdd)
	if !ok {
		return fmt.Errorf("unexpected member_join payload %T", payload)
	}
	userID := event.User.ID

	punished, err := h.punisher.IsPunished(ctx, userID, "")
	if err != nil {
		return err
	}
	if !punished {
		return nil
	}

	if err := h.sender.SendChannel(ctx, h.staffChannelID,
		fmt.Sprintf("Punished user %s (%s) joined the server.", event.User.Username, userID)); err != nil {
		log.Warn().Err(err).Msg("failed to send staff notice")
	}

	banned, err := h.punisher.IsPunished(ctx, userID, domain.ActionBan)
	if err != nil {
		return err
	}
	if banned {
		return h.effects.Ban(ctx, userID, "rejoined while banned")
	}

	for _, action := range domain.TimedActions {
		active, err := h.punisher.IsPunished(ctx, userID, action)
		if err != nil {
			return err
		}
		if !active {
			continue
		}
		if err := h.effects.Apply(ctx, userID, action); err != nil {
			return err
		}
		h.punisher.StartTimer(ctx, userID, action)
	}

	return nil
}

func (h *Hooks) onMemberLeave(ctx context.Context, payload any) error {
	event, ok := payload.(*discordgo.GuildMemberRemove)
	if !ok {
		return fmt.Errorf("unexpected member_leave payload %T", payload)
	}

	punished, err := h.punisher.IsPunished(ctx, event.User.ID, "")
	if err != nil {
		return err
	}
	if !punished {
		return nil
	}

	return h.sender.SendChannel(ctx, h.staffChannelID,
		fmt.Sprintf("Punished user %s (%s) left the server.", event.User.Username, event.User.ID))
}

func (h *Hooks) onVoiceStateUpdate(ctx context.Context, payload any) error {
	event, ok := payload.(*discordgo.VoiceStateUpdate)
	if !ok {
		return fmt.Errorf("unexpected voice_state_update payload %T", payload)
	}

	if event.BeforeUpdate != nil && event.BeforeUpdate.ChannelID == event.ChannelID {
		return nil
	}

	return h.Sync(ctx, event.UserID)
}

// Sync reconciles one member's Voice and VC Shown roles. The Voice role
// follows actual presence in a non-AFK voice channel; the VC Shown role
// additionally honors the user's show_vc preference.
func (h *Hooks) Sync(ctx context.Context, userID string) error {
	guild, err := h.session.State.Guild(h.guildID)
	if err != nil {
		return fmt.Errorf("failed to load guild %s: %w", h.guildID, err)
	}

	var channelID string
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			channelID = vs.ChannelID
			break
		}
	}
	inVoice := channelID != "" && channelID != guild.AfkChannelID

	show, err := h.prefs.Bool(ctx, userID, port.PrefShowVC)
	if err != nil {
		return err
	}

	if err := h.setRole(ctx, userID, h.voiceRole, inVoice); err != nil {
		return err
	}

	return h.setRole(ctx, userID, h.vcShownRole, inVoice || show)
}

func (h *Hooks) setRole(ctx context.Context, userID, roleName string, want bool) error {
	roleID, err := h.roleID(roleName)
	if err != nil {
		return err
	}

	if want {
		err = h.session.GuildMemberRoleAdd(h.guildID, userID, roleID, discordgo.WithContext(ctx))
	} else {
		err = h.session.GuildMemberRoleRemove(h.guildID, userID, roleID, discordgo.WithContext(ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to update role %s for %s: %w", roleName, userID, err)
	}

	return nil
}

func (h *Hooks) roleID(name string) (string, error) {
	guild, err := h.session.State.Guild(h.guildID)
	if err != nil {
		return "", fmt.Errorf("failed to load guild %s: %w", h.guildID, err)
	}

	for _, role := range guild.Roles {
		if role.Name == name {
			return role.ID, nil
		}
	}

	return "", fmt.Errorf("role %q not found in guild %s", name, h.guildID)
}

func hasRole(member *discordgo.Member, roleID string) bool {
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
