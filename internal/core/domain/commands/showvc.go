package commands

import (
	"context"
	"fmt"

	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
)

// ShowVCCommand toggles the per-user preference for keeping voice channels
// visible while out of voice, then re-syncs the user's roles.
type ShowVCCommand struct {
	prefs  port.PrefStore
	voice  port.VoiceSync
	sender port.TextSender
	prefix string
}

func NewShowVCCommand(prefs port.PrefStore, voice port.VoiceSync, sender port.TextSender,
	prefix string) *ShowVCCommand {
	return &ShowVCCommand{prefs: prefs, voice: voice, sender: sender, prefix: prefix}
}

func (s *ShowVCCommand) Register(reg *command.Registry) error {
	return reg.Register(&command.Descriptor{
		Name:    "showvc",
		Aliases: []string{"hidevc"},
		Section: "general",
		Help: fmt.Sprintf("%sshowvc\ntoggles whether voice channels stay visible "+
			"for you while you're not in voice.", s.prefix),
		Handler: s.handle,
	})
}

func (s *ShowVCCommand) handle(ctx context.Context, inv *command.Invocation) error {
	current, err := s.prefs.Bool(ctx, inv.Message.AuthorID, port.PrefShowVC)
	if err != nil {
		return err
	}

	show := !current
	if err := s.prefs.SetBool(ctx, inv.Message.AuthorID, port.PrefShowVC, show); err != nil {
		return err
	}
	if err := s.voice.Sync(ctx, inv.Message.AuthorID); err != nil {
		return err
	}

	if show {
		return s.sender.SendReply(ctx, inv.Message, ":white_check_mark: Voice channels shown.")
	}
	return s.sender.SendReply(ctx, inv.Message, ":negative_squared_cross_mark: Voice channels hidden.")
}
