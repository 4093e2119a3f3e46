package command

import (
	"context"
	"fmt"
	"regexp"

	"modbot/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// TriggerHandler runs when a passive pattern matches non-command text.
type TriggerHandler func(ctx context.Context, match []string, msg *domain.Message) error

// Trigger binds one compiled pattern to its handler.
type Trigger struct {
	Pattern *regexp.Regexp
	Handler TriggerHandler
}

// TriggerSet holds the passive patterns tested against every non-command
// message. Like the command registry, it is startup-populated and read-only
// during dispatch.
type TriggerSet struct {
	patterns map[string]struct{}
	triggers []*Trigger
}

// Register compiles and adds a trigger. Invalid or duplicate patterns are
// startup configuration errors.
func (s *TriggerSet) Register(expr string, handler TriggerHandler) error {
	if s.patterns == nil {
		s.patterns = make(map[string]struct{})
	}

	if handler == nil {
		return fmt.Errorf("trigger %q has no handler", expr)
	}
	if _, ok := s.patterns[expr]; ok {
		return fmt.Errorf("trigger pattern %q is already registered", expr)
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid trigger pattern %q: %w", expr, err)
	}

	log.Info().Str("pattern", expr).Msg("adding trigger to registry")

	s.patterns[expr] = struct{}{}
	s.triggers = append(s.triggers, &Trigger{Pattern: pattern, Handler: handler})

	return nil
}

// All returns the triggers in registration order. Every matching trigger
// fires on a message, not just the first.
func (s *TriggerSet) All() []*Trigger {
	return s.triggers
}
