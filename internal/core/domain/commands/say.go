package commands

import (
	"context"
	"fmt"
	"strings"

	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
	"modbot/internal/core/service"
)

// SayCommand relays a message into another channel. Restricted to bot
// controllers.
type SayCommand struct {
	sender      port.TextSender
	controllers *service.ControllerList
	prefix      string
}

func NewSayCommand(sender port.TextSender, controllers *service.ControllerList, prefix string) *SayCommand {
	return &SayCommand{sender: sender, controllers: controllers, prefix: prefix}
}

func (s *SayCommand) Register(reg *command.Registry) error {
	return reg.Register(&command.Descriptor{
		Name:      "say",
		Validator: command.MinArgs(2),
		Gate:      s.controllers.Gate(),
		Section:   "general",
		Help:      fmt.Sprintf("%ssay <#channel> <message>\nsends a message to the given channel.", s.prefix),
		Handler:   s.handle,
	})
}

func (s *SayCommand) handle(ctx context.Context, inv *command.Invocation) error {
	tokens, ok := inv.Args.([]string)
	if !ok {
		return fmt.Errorf("unexpected args type %T", inv.Args)
	}

	channelID, ok := parseChannelMention(tokens[0])
	if !ok {
		return s.sender.SendReply(ctx, inv.Message, "Please use a #channel mention.")
	}

	return s.sender.SendChannel(ctx, channelID, strings.Join(tokens[1:], " "))
}

func parseChannelMention(s string) (string, bool) {
	if !strings.HasPrefix(s, "<#") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(s, "<#"), ">")
	return id, id != ""
}
