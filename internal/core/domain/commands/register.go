package commands

import (
	"context"
	"time"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
	"modbot/internal/core/service"
)

// Deps bundles the collaborators the command set needs. Wired once in main.
type Deps struct {
	Punisher       *service.Punisher
	Dispatcher     *service.Dispatcher
	Controllers    *service.ControllerList
	Sender         port.TextSender
	Roster         port.Roster
	Effects        port.Effects
	Tags           port.TagStore
	Prefs          port.PrefStore
	Voice          port.VoiceSync
	Prefix         string
	LogChannelID   string
	Durations      map[string]float64
	ConfirmTimeout time.Duration
}

// RegisterAll registers the full command set and the message triggers.
// Registration order fixes the help menu order.
func RegisterAll(reg *command.Registry, triggers *command.TriggerSet, deps *Deps) error {
	sets := []interface {
		Register(*command.Registry) error
	}{
		NewHelpCommand(reg, deps.Sender, deps.Prefix),
		NewModCommands(deps.Punisher, deps.Dispatcher, deps.Sender, deps.Roster, deps.Effects,
			deps.Prefix, deps.LogChannelID, deps.Durations, deps.ConfirmTimeout),
		NewTagCommand(deps.Tags, deps.Sender, deps.Prefix),
		NewShowVCCommand(deps.Prefs, deps.Voice, deps.Sender, deps.Prefix),
		NewUptimeCommand(deps.Sender, deps.Dispatcher.Processed, deps.Prefix),
		NewSayCommand(deps.Sender, deps.Controllers, deps.Prefix),
	}

	for _, set := range sets {
		if err := set.Register(reg); err != nil {
			return err
		}
	}

	return registerTriggers(triggers, deps)
}

func registerTriggers(triggers *command.TriggerSet, deps *Deps) error {
	return triggers.Register(`(?i)\bayy+$`,
		func(ctx context.Context, match []string, msg *domain.Message) error {
			if !deps.Controllers.IsController(msg.AuthorID) {
				return nil
			}
			return deps.Sender.SendReply(ctx, msg, "lmao")
		})
}
