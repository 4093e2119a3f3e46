package commands

import (
	"context"
	"testing"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHelpFixture(t *testing.T) (*service.Dispatcher, *mockSender) {
	t.Helper()

	sender := &mockSender{}
	roster := &mockRoster{members: map[string]*domain.Member{
		"mod1": {ID: "mod1", Username: "moddy", Permissions: domain.PermKickMembers},
		"44":   {ID: "44", Username: "bystander"},
	}}

	registry := &command.Registry{}
	dispatcher := service.NewDispatcher(registry, &command.TriggerSet{}, roster, sender, "!", nil)

	help := NewHelpCommand(registry, sender, "!")
	require.NoError(t, help.Register(registry))

	noop := func(_ context.Context, _ *command.Invocation) error { return nil }
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:    "tag",
		Section: "general",
		Help:    "!tag <name>\nrecalls a tag.",
		Handler: noop,
	}))
	require.NoError(t, registry.Register(&command.Descriptor{
		Name:    "warn",
		Section: "moderation",
		Gate:    service.PermissionGate(domain.PermKickMembers),
		Help:    "!warn <user>\nwarns a user.",
		Handler: noop,
	}))

	return dispatcher, sender
}

func TestHelpMenuGoesToPMs(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	dispatcher.HandleMessage(t.Context(), modMessage("!help"))

	require.Len(t, sender.directs, 1)
	assert.Contains(t, sender.directs[0], "**commands**:")
	assert.Contains(t, sender.directs[0], "*!tag*")
	assert.Contains(t, sender.directs[0], "*!warn*")
	assert.Equal(t, "Check your PMs.", sender.lastReply())
}

func TestHelpMenuHidesGatedCommands(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	msg := modMessage("!help")
	msg.AuthorID = "44"
	dispatcher.HandleMessage(t.Context(), msg)

	require.Len(t, sender.directs, 1)
	assert.Contains(t, sender.directs[0], "*!tag*")
	assert.NotContains(t, sender.directs[0], "*!warn*")
	assert.NotContains(t, sender.directs[0], "moderation")
}

func TestHelpClosedPMsFallback(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)
	sender.directErr = domain.ErrSendingReplyFailed

	dispatcher.HandleMessage(t.Context(), modMessage("!help"))

	assert.Equal(t, "Please enable your PMs.", sender.lastReply())
}

func TestHelpSingleCommand(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	dispatcher.HandleMessage(t.Context(), modMessage("!help warn"))

	assert.Equal(t, "!warn <user>\nwarns a user.", sender.lastReply())
	assert.Empty(t, sender.directs)
}

func TestHelpGatedCommandHiddenFromUnauthorized(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	msg := modMessage("!help warn")
	msg.AuthorID = "44"
	dispatcher.HandleMessage(t.Context(), msg)

	assert.Equal(t, "Command could not be found.", sender.lastReply())
}

func TestHelpSection(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	dispatcher.HandleMessage(t.Context(), modMessage("!help moderation"))

	reply := sender.lastReply()
	assert.Contains(t, reply, "__moderation__:")
	assert.Contains(t, reply, "*!warn*")
	assert.NotContains(t, reply, "*!tag*")
}

func TestHelpUnknownTopic(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	dispatcher.HandleMessage(t.Context(), modMessage("!help frobnicate"))

	assert.Equal(t, "Command could not be found.", sender.lastReply())
}

func TestHelpAliases(t *testing.T) {
	dispatcher, sender := newHelpFixture(t)

	for _, alias := range []string{"!h", "!info", "!cmds", "!commands"} {
		dispatcher.HandleMessage(t.Context(), modMessage(alias))
	}

	assert.Len(t, sender.directs, 4)
}
