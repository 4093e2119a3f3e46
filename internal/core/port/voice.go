package port

import "context"

// VoiceSync reconciles a user's voice-related roles with their current voice
// state and stored preferences.
type VoiceSync interface {
	Sync(ctx context.Context, userID string) error
}
