package discord

import (
	"context"

	"modbot/internal/core/domain"
	"modbot/internal/core/service"

	"github.com/bwmarrin/discordgo"
)

// MessageHandler feeds inbound gateway messages into the core dispatcher.
type MessageHandler struct {
	ctx        context.Context
	dispatcher *service.Dispatcher
}

func NewMessageHandler(ctx context.Context, dispatcher *service.Dispatcher) *MessageHandler {
	return &MessageHandler{ctx: ctx, dispatcher: dispatcher}
}

func (h *MessageHandler) Register(session *discordgo.Session) {
	session.AddHandler(h.onMessageCreate)
}

func (h *MessageHandler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	h.dispatcher.HandleMessage(h.ctx, &domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		Author:    m.Author.Username,
		Text:      m.Content,
		FromSelf:  s.State.User != nil && m.Author.ID == s.State.User.ID,
	})
}
