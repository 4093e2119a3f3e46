package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
	"modbot/internal/core/service"

	"github.com/rs/zerolog/log"
)

const (
	noReasonGiven = "No reason given."
	userNotFound  = "User could not be found."
)

var modKwargKeys = []string{"duration", "reason"}

// ModCommands implements the warn/mute/ban family: validated argument
// parsing, rank checks, history confirmation, audit-log append, effect
// application and expiry watcher start.
type ModCommands struct {
	punisher       *service.Punisher
	dispatcher     *service.Dispatcher
	sender         port.TextSender
	roster         port.Roster
	effects        port.Effects
	prefix         string
	logChannelID   string
	durations      map[string]float64
	confirmTimeout time.Duration
}

func NewModCommands(punisher *service.Punisher, dispatcher *service.Dispatcher, sender port.TextSender,
	roster port.Roster, effects port.Effects, prefix, logChannelID string,
	durations map[string]float64, confirmTimeout time.Duration) *ModCommands {
	return &ModCommands{
		punisher:       punisher,
		dispatcher:     dispatcher,
		sender:         sender,
		roster:         roster,
		effects:        effects,
		prefix:         prefix,
		logChannelID:   logChannelID,
		durations:      durations,
		confirmTimeout: confirmTimeout,
	}
}

func (m *ModCommands) Register(reg *command.Registry) error {
	canKick := service.PermissionGate(domain.PermKickMembers)
	canBan := service.PermissionGate(domain.PermBanMembers)

	descriptors := []*command.Descriptor{
		{
			Name:      "warn",
			Validator: command.RequireArgs,
			Gate:      canKick,
			Section:   "moderation",
			Help: fmt.Sprintf("%swarn <user> [reason] or %swarn <user> [duration=hours] [reason=str]\n"+
				"warns a user.", m.prefix, m.prefix),
			WithContext: true,
			Handler:     m.applyAction(domain.ActionWarning),
		},
		{
			Name:      "mute",
			Validator: command.RequireArgs,
			Gate:      canKick,
			Section:   "moderation",
			Help: fmt.Sprintf("%smute <user> [reason] or %smute <user> [duration=hours] [reason=str]\n"+
				"mutes a user.", m.prefix, m.prefix),
			WithContext: true,
			Handler:     m.applyAction(domain.ActionMute),
		},
		{
			Name:        "unwarn",
			Validator:   command.RequireArgs,
			Gate:        canKick,
			Section:     "moderation",
			Help:        fmt.Sprintf("%sunwarn <user> [reason]\nremoves a warning for a user.", m.prefix),
			WithContext: true,
			Handler:     m.removeAction(domain.ActionWarning),
		},
		{
			Name:        "unmute",
			Validator:   command.RequireArgs,
			Gate:        canKick,
			Section:     "moderation",
			Help:        fmt.Sprintf("%sunmute <user> [reason]\nremoves a mute for a user.", m.prefix),
			WithContext: true,
			Handler:     m.removeAction(domain.ActionMute),
		},
		{
			Name:        "ban",
			Validator:   command.RequireArgs,
			Gate:        canBan,
			Section:     "moderation",
			Help:        fmt.Sprintf("%sban <user/user id> [reason]\nbans a user.", m.prefix),
			WithContext: true,
			Handler:     m.ban,
		},
		{
			Name:        "modhistory",
			Aliases:     []string{"modh"},
			Validator:   command.RequireArgs,
			Gate:        canKick,
			Section:     "moderation",
			Help:        fmt.Sprintf("%smodhistory <user>\ndisplays punishment history for a user.", m.prefix),
			WithContext: true,
			Handler:     m.history,
		},
		{
			Name:        "reason",
			Validator:   command.MinArgs(2),
			Gate:        canKick,
			Section:     "moderation",
			Help:        fmt.Sprintf("%sreason <user> <reason>\nedits the reason of the given user's most recent punishment.", m.prefix),
			WithContext: true,
			Handler:     m.editReason,
		},
	}

	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return err
		}
	}

	return nil
}

// applyAction issues a warning or mute with a duration window.
func (m *ModCommands) applyAction(action string) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		kwargs := domain.ParseKwargs(inv.Raw, modKwargKeys)
		tokens, err := domain.SplitQuoted(inv.Raw)
		if err != nil || len(tokens) == 0 {
			return m.sender.SendReply(ctx, inv.Message, inv.Desc.Help)
		}

		userSearch := domain.StripKwargs(inv.Raw, modKwargKeys)
		if len(kwargs) == 0 {
			// No kwargs: first token is the user, the rest is the reason.
			userSearch = tokens[0]
			if len(tokens) > 1 {
				kwargs["reason"] = strings.Join(tokens[1:], " ")
			}
		}

		target, err := m.roster.FindMember(ctx, inv.Message.GuildID, userSearch)
		if err != nil {
			return m.sender.SendReply(ctx, inv.Message, userNotFound)
		}
		if !inv.Actor.Outranks(target) {
			return m.sender.SendReply(ctx, inv.Message,
				fmt.Sprintf("Cannot %s %s.", inv.Command, target.DisplayName()))
		}

		duration := m.durations[action]
		if v, ok := kwargs["duration"]; ok {
			duration, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return m.sender.SendReply(ctx, inv.Message, "Invalid duration.")
			}
		}
		reason := kwargs["reason"]
		if reason == "" {
			reason = noReasonGiven
		}

		active, err := m.punisher.IsPunished(ctx, target.ID, action)
		if err != nil {
			return m.fail(ctx, inv.Message, err)
		}
		if active {
			return m.sender.SendReply(ctx, inv.Message,
				fmt.Sprintf("%s already has an active %s.", target.DisplayName(), action))
		}

		records, err := m.punisher.History(ctx, target.ID)
		if err != nil {
			return m.fail(ctx, inv.Message, err)
		}
		if len(records) > 0 {
			confirmed, err := m.confirmDespiteHistory(ctx, inv, target, records)
			if err != nil {
				return err
			}
			if !confirmed {
				return m.sender.SendReply(ctx, inv.Message, "Cancelled "+action+".")
			}
		}

		record, err := m.punisher.Record(ctx, target.ID, action, inv.Actor.ID, duration, reason)
		if err != nil {
			return m.fail(ctx, inv.Message, err)
		}
		if err := m.effects.Apply(ctx, target.ID, action); err != nil {
			return m.fail(ctx, inv.Message, err)
		}

		m.logRecord(ctx, record)
		m.punisher.StartTimer(ctx, target.ID, action)

		return nil
	}
}

// confirmDespiteHistory shows the target's history and waits for an explicit
// y before proceeding. Timeout counts as no.
func (m *ModCommands) confirmDespiteHistory(ctx context.Context, inv *command.Invocation,
	target *domain.Member, records []domain.PunishmentRecord) (bool, error) {
	history := m.formatHistory(ctx, target, records)
	err := m.sender.SendReply(ctx, inv.Message,
		fmt.Sprintf("%s has a history of:\n%s\n\nType y/n to continue.", target.DisplayName(), history))
	if err != nil {
		return false, err
	}

	reply, ok := m.dispatcher.AwaitReply(ctx, inv.Message.ChannelID, inv.Message.AuthorID,
		func(text string) bool {
			lower := strings.ToLower(text)
			return lower == "y" || lower == "n"
		}, m.confirmTimeout)

	return ok && strings.EqualFold(reply, "y"), nil
}

// removeAction lifts an active warning or mute by appending a removal record.
func (m *ModCommands) removeAction(action string) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		tokens, err := domain.SplitQuoted(inv.Raw)
		if err != nil || len(tokens) == 0 {
			return m.sender.SendReply(ctx, inv.Message, inv.Desc.Help)
		}
		reason := noReasonGiven
		if len(tokens) > 1 {
			reason = strings.Join(tokens[1:], " ")
		}

		target, err := m.roster.FindMember(ctx, inv.Message.GuildID, tokens[0])
		if err != nil {
			return m.sender.SendReply(ctx, inv.Message, userNotFound)
		}
		if !inv.Actor.Outranks(target) {
			return m.sender.SendReply(ctx, inv.Message,
				fmt.Sprintf("Cannot %s %s.", inv.Command, target.DisplayName()))
		}

		active, err := m.punisher.IsPunished(ctx, target.ID, action)
		if err != nil {
			return m.fail(ctx, inv.Message, err)
		}
		if !active {
			return m.sender.SendReply(ctx, inv.Message,
				fmt.Sprintf("%s has no active %s.", target.DisplayName(), action))
		}

		record, err := m.punisher.Record(ctx, target.ID, domain.RemovalOf(action), inv.Actor.ID, 0, reason)
		if err != nil {
			return m.fail(ctx, inv.Message, err)
		}
		if err := m.effects.Remove(ctx, target.ID, action); err != nil {
			return m.fail(ctx, inv.Message, err)
		}

		m.logRecord(ctx, record)

		return nil
	}
}

func (m *ModCommands) ban(ctx context.Context, inv *command.Invocation) error {
	tokens, err := domain.SplitQuoted(inv.Raw)
	if err != nil || len(tokens) == 0 {
		return m.sender.SendReply(ctx, inv.Message, inv.Desc.Help)
	}
	reason := noReasonGiven
	if len(tokens) > 1 {
		reason = strings.Join(tokens[1:], " ")
	}

	target, err := m.roster.FindMember(ctx, inv.Message.GuildID, tokens[0])
	if err != nil {
		return m.sender.SendReply(ctx, inv.Message,
			userNotFound+" Please use an @ mention string or a user ID.")
	}
	if !inv.Actor.Outranks(target) {
		return m.sender.SendReply(ctx, inv.Message, "Cannot ban "+target.DisplayName()+".")
	}

	banned, err := m.punisher.IsPunished(ctx, target.ID, domain.ActionBan)
	if err != nil {
		return m.fail(ctx, inv.Message, err)
	}
	if banned {
		return m.sender.SendReply(ctx, inv.Message, target.DisplayName()+" is already banned.")
	}

	record, err := m.punisher.Record(ctx, target.ID, domain.ActionBan, inv.Actor.ID, 0, reason)
	if err != nil {
		return m.fail(ctx, inv.Message, err)
	}

	m.logRecord(ctx, record)

	if err := m.effects.Ban(ctx, target.ID, reason); err != nil {
		return m.fail(ctx, inv.Message, err)
	}

	return nil
}

func (m *ModCommands) history(ctx context.Context, inv *command.Invocation) error {
	target, err := m.roster.FindMember(ctx, inv.Message.GuildID, inv.Raw)
	if err != nil {
		return m.sender.SendReply(ctx, inv.Message, userNotFound)
	}

	records, err := m.punisher.History(ctx, target.ID)
	if err != nil {
		return m.fail(ctx, inv.Message, err)
	}
	if len(records) == 0 {
		return m.sender.SendReply(ctx, inv.Message, target.DisplayName()+" has no punishment history.")
	}

	return m.sender.SendReply(ctx, inv.Message, m.formatHistory(ctx, target, records))
}

func (m *ModCommands) editReason(ctx context.Context, inv *command.Invocation) error {
	tokens, ok := inv.Args.([]string)
	if !ok {
		return fmt.Errorf("unexpected args type %T", inv.Args)
	}
	reason := strings.Join(tokens[1:], " ")

	target, err := m.roster.FindMember(ctx, inv.Message.GuildID, tokens[0])
	if err != nil {
		return m.sender.SendReply(ctx, inv.Message, userNotFound)
	}

	latest, err := m.punisher.Latest(ctx, target.ID)
	if err != nil {
		return m.fail(ctx, inv.Message, err)
	}
	if latest == nil {
		return m.sender.SendReply(ctx, inv.Message, target.DisplayName()+" has no punishment history.")
	}

	moderator, err := m.roster.Member(ctx, inv.Message.GuildID, latest.ModeratorID)
	if err == nil && moderator.Outranks(inv.Actor) {
		return m.sender.SendReply(ctx, inv.Message,
			"Cannot edit punishment issued by moderator of higher role.")
	}

	if err := m.punisher.EditReason(ctx, latest.ID, reason); err != nil {
		return m.fail(ctx, inv.Message, err)
	}

	return m.sender.SendReply(ctx, inv.Message, "Updated reason.")
}

// logRecord posts the audit line to the moderation log channel. Best effort:
// the punishment already happened.
func (m *ModCommands) logRecord(ctx context.Context, record *domain.PunishmentRecord) {
	if m.logChannelID == "" {
		return
	}
	if err := m.sender.SendChannel(ctx, m.logChannelID, m.formatRecord(ctx, record)); err != nil {
		log.Warn().Err(err).Str("record", record.ID).Msg("failed to post moderation log")
	}
}

func (m *ModCommands) formatRecord(ctx context.Context, record *domain.PunishmentRecord) string {
	duration := "indefinite"
	if !record.Indefinite() {
		duration = fmt.Sprintf("%g hours", record.Duration)
	}

	return fmt.Sprintf("**%s**\n*date*: %s\n*user*: %s\n*mod*: %s\n*duration*: %s\n*reason*: %s",
		record.Action,
		record.Date.Format("2006/01/02 03:04 PM UTC"),
		m.memberName(ctx, record.UserID),
		m.memberName(ctx, record.ModeratorID),
		duration,
		record.Reason)
}

func (m *ModCommands) formatHistory(ctx context.Context, target *domain.Member,
	records []domain.PunishmentRecord) string {
	var sb strings.Builder

	var current []string
	for _, action := range domain.TimedActions {
		active, err := m.punisher.IsPunished(ctx, target.ID, action)
		if err == nil && active {
			current = append(current, "**"+action+"**")
		}
	}
	if len(current) > 0 {
		sb.WriteString("currently active punishments: " + strings.Join(current, ", ") + "\n")
	}

	for i := range records {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.formatRecord(ctx, &records[i]))
	}

	return sb.String()
}

// memberName resolves an ID for display, keeping the raw ID when the user has
// since left.
func (m *ModCommands) memberName(ctx context.Context, userID string) string {
	member, err := m.roster.Member(ctx, "", userID)
	if err != nil {
		return userID
	}
	return member.DisplayName()
}

// fail surfaces a collaborator failure to the invoking user and stops the
// operation without escalating to the operator report path.
func (m *ModCommands) fail(ctx context.Context, msg *domain.Message, err error) error {
	log.Warn().Err(err).Str("channel", msg.ChannelID).Msg("moderation command aborted")
	return m.sender.SendReply(ctx, msg, "request failed: "+err.Error())
}
