package command

import (
	"context"
	"testing"

	"modbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopTrigger(_ context.Context, _ []string, _ *domain.Message) error {
	return nil
}

func TestTriggerRegister(t *testing.T) {
	s := &TriggerSet{}

	require.NoError(t, s.Register(`\bayy+$`, noopTrigger))

	all := s.All()
	require.Len(t, all, 1)
	assert.True(t, all[0].Pattern.MatchString("ayy"))
}

func TestTriggerRegisterDuplicatePattern(t *testing.T) {
	s := &TriggerSet{}

	require.NoError(t, s.Register(`\bayy+$`, noopTrigger))
	require.Error(t, s.Register(`\bayy+$`, noopTrigger))
}

func TestTriggerRegisterInvalidPattern(t *testing.T) {
	s := &TriggerSet{}

	require.Error(t, s.Register(`[unclosed`, noopTrigger))
}

func TestTriggerRegisterNilHandler(t *testing.T) {
	s := &TriggerSet{}

	require.Error(t, s.Register(`\bayy+$`, nil))
}

func TestTriggersKeepRegistrationOrder(t *testing.T) {
	s := &TriggerSet{}

	require.NoError(t, s.Register(`one`, noopTrigger))
	require.NoError(t, s.Register(`two`, noopTrigger))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "one", all[0].Pattern.String())
	assert.Equal(t, "two", all[1].Pattern.String())
}
