package discord

import (
	"context"

	"modbot/internal/core/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Lifecycle event names as hooks know them.
const (
	EventReady            = "ready"
	EventMemberJoin       = "member_join"
	EventMemberLeave      = "member_leave"
	EventVoiceStateUpdate = "voice_state_update"
)

// ShimInstaller returns the bus callback that wires a discord gateway event
// to bus.Fire. Each known event name gets exactly one session handler, added
// when the first hook for that name registers.
func ShimInstaller(ctx context.Context, session *discordgo.Session, bus *service.EventBus) service.ShimInstaller {
	return func(event string) {
		switch event {
		case EventReady:
			session.AddHandler(func(_ *discordgo.Session, e *discordgo.Ready) {
				bus.Fire(ctx, EventReady, e)
			})
		case EventMemberJoin:
			session.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
				bus.Fire(ctx, EventMemberJoin, e)
			})
		case EventMemberLeave:
			session.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberRemove) {
				bus.Fire(ctx, EventMemberLeave, e)
			})
		case EventVoiceStateUpdate:
			session.AddHandler(func(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
				bus.Fire(ctx, EventVoiceStateUpdate, e)
			})
		default:
			log.Fatal().Str("event", event).Msg("no gateway dispatch point for event")
		}
	}
}
