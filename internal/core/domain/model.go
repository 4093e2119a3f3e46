package domain

import "strings"

// Message is a single inbound chat message, stripped of transport detail.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Author    string
	Text      string
	FromSelf  bool
}

// Member is a guild member as resolved by the roster at dispatch time.
type Member struct {
	ID             string
	Username       string
	Nick           string
	GuildID        string
	RoleRank       int
	Permissions    int64
	VoiceChannelID string
}

// Permission bits the core cares about. Values match the Discord wire format;
// the transport adapter fills Member.Permissions with the raw bitfield.
const (
	PermKickMembers    int64 = 1 << 1
	PermBanMembers     int64 = 1 << 2
	PermManageMessages int64 = 1 << 13
)

func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.Username
}

func (m *Member) Has(perm int64) bool {
	return m.Permissions&perm != 0
}

// Outranks reports whether m's highest role sits strictly above other's.
func (m *Member) Outranks(other *Member) bool {
	return m.RoleRank > other.RoleRank
}

// MaxMessageLength is the transport's hard cap per outbound message.
const MaxMessageLength = 2000

// SplitMessage chunks text so every piece fits in one outbound message,
// preferring newline boundaries over mid-line cuts.
func SplitMessage(text string) []string {
	if len(text) <= MaxMessageLength {
		return []string{text}
	}

	var chunks []string
	for len(text) > MaxMessageLength {
		cut := strings.LastIndex(text[:MaxMessageLength], "\n")
		if cut <= 0 {
			cut = MaxMessageLength
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}
