package discord

import (
	"context"
	"fmt"

	"modbot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Sender delivers outbound text over the discord session, splitting anything
// over the per-message cap into chunks.
type Sender struct {
	session   *discordgo.Session
	operators []string
}

func NewSender(session *discordgo.Session, operators []string) *Sender {
	return &Sender{session: session, operators: operators}
}

func (s *Sender) SendReply(ctx context.Context, message *domain.Message, text string) error {
	return s.SendChannel(ctx, message.ChannelID, text)
}

func (s *Sender) SendChannel(ctx context.Context, channelID, text string) error {
	for _, chunk := range domain.SplitMessage(text) {
		_, err := s.session.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
		}
	}

	return nil
}

func (s *Sender) SendDirect(ctx context.Context, userID, text string) error {
	channel, err := s.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open direct channel to %s: %w", userID, err)
	}

	return s.SendChannel(ctx, channel.ID, text)
}

// NotifyOperators sends a diagnostic to every configured operator. Failures
// are logged and swallowed; reporting must never take the process down.
func (s *Sender) NotifyOperators(ctx context.Context, text string) error {
	for _, id := range s.operators {
		if err := s.SendDirect(ctx, id, text); err != nil {
			log.Warn().Err(err).Str("operator", id).Msg("failed to notify operator")
		}
	}

	return nil
}
