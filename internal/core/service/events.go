package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Reporter receives failures that escaped a command handler or event hook.
// The dispatch boundary stays intact either way; reporting is for operators.
type Reporter func(ctx context.Context, origin string, err error)

// EventHandler is one independently-registered hook for a lifecycle event.
type EventHandler func(ctx context.Context, payload any) error

// ShimInstaller wires the underlying transport to fire an event name into the
// bus. It is called once, when the first handler for that name is registered.
type ShimInstaller func(event string)

// EventBus fans lifecycle events out to every registered hook. Hooks compose:
// registering a second hook for an event never replaces the first. All
// registration happens before the transport connects, so Fire reads the
// handler table without locking.
type EventBus struct {
	handlers map[string][]EventHandler
	install  ShimInstaller
	report   Reporter
}

func NewEventBus(install ShimInstaller, report Reporter) *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		install:  install,
		report:   report,
	}
}

// On appends a handler to the named event. The first handler for an event
// installs the transport shim that forwards the event into Fire.
func (b *EventBus) On(event string, handler EventHandler) {
	if _, ok := b.handlers[event]; !ok && b.install != nil {
		b.install(event)
	}

	log.Info().Str("event", event).Msg("adding event hook")
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire runs every hook for the event concurrently and waits for all of them.
// A failing or panicking hook is reported and never cancels its siblings.
func (b *EventBus) Fire(ctx context.Context, event string, payload any) {
	hooks := b.handlers[event]
	if len(hooks) == 0 {
		return
	}

	log.Debug().Str("event", event).Int("hooks", len(hooks)).Msg("firing event")

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(h EventHandler) {
			defer wg.Done()
			if err := runIsolated(ctx, h, payload); err != nil {
				log.Error().Err(err).Str("event", event).Msg("event hook failed")
				if b.report != nil {
					b.report(ctx, "event "+event, err)
				}
			}
		}(hook)
	}
	wg.Wait()
}

func runIsolated(ctx context.Context, h EventHandler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panic: %v", r)
		}
	}()
	return h(ctx, payload)
}
