package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(_ context.Context, _ *Invocation) error {
	return nil
}

func descriptor(name string, aliases ...string) *Descriptor {
	return &Descriptor{
		Name:    name,
		Aliases: aliases,
		Help:    "!" + name + "\ndoes something.",
		Handler: noopHandler,
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := &Registry{}

	require.NoError(t, r.Register(descriptor("warn", "w")))

	assert.NotNil(t, r.Lookup("warn"))
	assert.NotNil(t, r.Lookup("w"))
	assert.Same(t, r.Lookup("warn"), r.Lookup("w"))
}

func TestLookupMissReturnsNil(t *testing.T) {
	r := &Registry{}

	require.NoError(t, r.Register(descriptor("warn")))

	assert.Nil(t, r.Lookup("mute"))
	assert.Nil(t, r.Lookup("WARN"))
}

func TestRegisterDuplicateAliasFailsBothOrders(t *testing.T) {
	r := &Registry{}
	require.NoError(t, r.Register(descriptor("warn", "w")))
	require.Error(t, r.Register(descriptor("wipe", "w")))

	r = &Registry{}
	require.NoError(t, r.Register(descriptor("wipe", "w")))
	require.Error(t, r.Register(descriptor("warn", "w")))
}

func TestRegisterDuplicateName(t *testing.T) {
	r := &Registry{}

	require.NoError(t, r.Register(descriptor("warn")))
	require.Error(t, r.Register(descriptor("warn")))
}

func TestRegisterAliasCollidingWithName(t *testing.T) {
	r := &Registry{}

	require.NoError(t, r.Register(descriptor("warn")))
	require.Error(t, r.Register(descriptor("wipe", "warn")))
}

func TestRegisterInvalidAlias(t *testing.T) {
	type TestCase struct {
		description string
		alias       string
	}

	testCases := []TestCase{
		{description: "uppercase", alias: "Warn"},
		{description: "whitespace", alias: "wa rn"},
		{description: "punctuation", alias: "warn!"},
		{description: "empty", alias: ""},
		{description: "unicode", alias: "wärn"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			r := &Registry{}

			err := r.Register(descriptor(testCase.alias))

			require.Error(t, err)
		})
	}
}

func TestRegisterRequiresHelp(t *testing.T) {
	r := &Registry{}

	err := r.Register(&Descriptor{Name: "warn", Handler: noopHandler})

	require.Error(t, err)
}

func TestRegisterRequiresHandler(t *testing.T) {
	r := &Registry{}

	err := r.Register(&Descriptor{Name: "warn", Help: "!warn\nwarns."})

	require.Error(t, err)
}

func TestRegisterFailureLeavesRegistryUnchanged(t *testing.T) {
	r := &Registry{}
	require.NoError(t, r.Register(descriptor("warn")))

	require.Error(t, r.Register(descriptor("mute", "warn")))

	assert.Nil(t, r.Lookup("mute"))
	assert.Len(t, r.All(), 1)
}

func TestSectionsKeepRegistrationOrder(t *testing.T) {
	r := &Registry{}

	a := descriptor("help")
	a.Section = "general"
	b := descriptor("warn")
	b.Section = "moderation"
	c := descriptor("tag")
	c.Section = "general"

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(c))

	assert.Equal(t, []string{"general", "moderation"}, r.Sections())

	general := r.BySection("general")
	require.Len(t, general, 2)
	assert.Equal(t, "help", general[0].Name)
	assert.Equal(t, "tag", general[1].Name)
}

func TestRegisterDefaultsSection(t *testing.T) {
	r := &Registry{}

	require.NoError(t, r.Register(descriptor("warn")))

	assert.Equal(t, "general", r.Lookup("warn").Section)
}

func TestParseInvocation(t *testing.T) {
	type TestCase struct {
		description string
		text        string
		wantAlias   string
		wantRaw     string
	}

	testCases := []TestCase{
		{
			description: "alias only",
			text:        "!warn",
			wantAlias:   "warn",
			wantRaw:     "",
		},
		{
			description: "alias with args",
			text:        "!warn someone spamming",
			wantAlias:   "warn",
			wantRaw:     "someone spamming",
		},
		{
			description: "trims arg whitespace",
			text:        "!warn   someone  ",
			wantAlias:   "warn",
			wantRaw:     "someone",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			alias, raw := ParseInvocation(testCase.text, "!")

			assert.Equal(t, testCase.wantAlias, alias)
			assert.Equal(t, testCase.wantRaw, raw)
		})
	}
}
