package port

import (
	"context"

	"modbot/internal/core/domain"
)

type TextSender interface {
	// SendReply sends text to the channel the message came from, chunked to
	// the transport's per-message cap.
	SendReply(ctx context.Context, message *domain.Message, text string) error
	// SendChannel sends text to a channel by ID.
	SendChannel(ctx context.Context, channelID, text string) error
	// SendDirect sends text to a user's direct-message channel.
	SendDirect(ctx context.Context, userID, text string) error
	// NotifyOperators delivers a diagnostic to the configured operator users.
	NotifyOperators(ctx context.Context, text string) error
}
