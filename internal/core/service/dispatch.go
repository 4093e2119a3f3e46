package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const notAuthorized = "You are not authorized to use this command."

// Dispatcher decides for each inbound message whether it is a command
// invocation or a passive trigger match, and routes it accordingly. For a
// command, the order is fixed: permission gate, then argument validation,
// then exactly one handler invocation.
type Dispatcher struct {
	registry *command.Registry
	triggers *command.TriggerSet
	roster   port.Roster
	sender   port.TextSender
	prefix   string
	report   Reporter

	processed atomic.Uint64

	waiterMu sync.Mutex
	waiters  map[replyKey][]*replyWaiter
}

type replyKey struct {
	channelID string
	userID    string
}

type replyWaiter struct {
	match func(string) bool
	ch    chan string
}

func NewDispatcher(registry *command.Registry, triggers *command.TriggerSet, roster port.Roster,
	sender port.TextSender, prefix string, report Reporter) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		triggers: triggers,
		roster:   roster,
		sender:   sender,
		prefix:   prefix,
		report:   report,
		waiters:  make(map[replyKey][]*replyWaiter),
	}
}

// Processed returns the number of command dispatches that reached a handler.
func (d *Dispatcher) Processed() uint64 {
	return d.processed.Load()
}

// HandleMessage is the entry point for every inbound message.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *domain.Message) {
	if msg.FromSelf {
		return
	}

	if strings.HasPrefix(msg.Text, d.prefix) && len(msg.Text) > len(d.prefix) {
		d.runCommand(ctx, msg)
		return
	}

	if d.deliverReply(msg) {
		return
	}

	d.runTriggers(ctx, msg)
}

func (d *Dispatcher) runCommand(ctx context.Context, msg *domain.Message) {
	alias, raw := command.ParseInvocation(msg.Text, d.prefix)

	desc := d.registry.Lookup(alias)
	if desc == nil {
		// Arbitrary prefixed text is ordinary chat noise.
		log.Debug().Str("alias", alias).Msg("no command for alias")
		return
	}

	l := log.With().Str("command", desc.Name).Str("user", msg.AuthorID).Logger()
	l.Info().Msg("handling command")

	inv := &command.Invocation{
		Command: desc.Name,
		Alias:   alias,
		Raw:     raw,
		Args:    raw,
		Message: msg,
		Desc:    desc,
	}

	if desc.Gate != nil || desc.WithContext {
		actor, err := d.roster.Member(ctx, msg.GuildID, msg.AuthorID)
		if err != nil {
			l.Error().Err(err).Msg("failed to resolve acting member")
			d.reply(ctx, msg, "request failed: "+err.Error())
			return
		}
		inv.Actor = actor
	}

	if desc.Gate != nil && !desc.Gate(inv.Actor) {
		l.Debug().Msg("permission gate rejected actor")
		d.reply(ctx, msg, notAuthorized)
		return
	}

	if desc.Validator != nil {
		args, ok := desc.Validator(raw)
		if !ok {
			l.Debug().Str("args", raw).Msg("argument validation failed")
			d.reply(ctx, msg, desc.Help)
			return
		}
		inv.Args = args
	}

	d.processed.Add(1)

	if err := d.invoke(ctx, desc.Handler, inv); err != nil {
		l.Error().Err(err).Msg("command handler failed")
		if d.report != nil {
			d.report(ctx, "command "+desc.Name, err)
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h command.Handler, inv *command.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, inv)
}

// runTriggers tests every passive pattern; all matches fire, not just the
// first, and each handler is isolated from the others.
func (d *Dispatcher) runTriggers(ctx context.Context, msg *domain.Message) {
	for _, trigger := range d.triggers.All() {
		match := trigger.Pattern.FindStringSubmatch(msg.Text)
		if match == nil {
			continue
		}

		if err := d.invokeTrigger(ctx, trigger, match, msg); err != nil {
			log.Error().Err(err).Str("pattern", trigger.Pattern.String()).Msg("trigger handler failed")
			if d.report != nil {
				d.report(ctx, "trigger "+trigger.Pattern.String(), err)
			}
		}
	}
}

func (d *Dispatcher) invokeTrigger(ctx context.Context, t *command.Trigger, match []string,
	msg *domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return t.Handler(ctx, match, msg)
}

func (d *Dispatcher) reply(ctx context.Context, msg *domain.Message, text string) {
	if err := d.sender.SendReply(ctx, msg, text); err != nil {
		log.Error().Err(err).Str("channel", msg.ChannelID).Msg("failed to send dispatch reply")
	}
}

// AwaitReply blocks until the user sends a message in the channel that
// satisfies match, or the timeout lapses. Used for y/n confirmations.
func (d *Dispatcher) AwaitReply(ctx context.Context, channelID, userID string,
	match func(string) bool, timeout time.Duration) (string, bool) {
	key := replyKey{channelID: channelID, userID: userID}
	waiter := &replyWaiter{match: match, ch: make(chan string, 1)}

	d.waiterMu.Lock()
	d.waiters[key] = append(d.waiters[key], waiter)
	d.waiterMu.Unlock()

	defer d.removeWaiter(key, waiter)

	select {
	case text := <-waiter.ch:
		return text, true
	case <-time.After(timeout):
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// deliverReply hands a non-command message to the first matching waiter.
func (d *Dispatcher) deliverReply(msg *domain.Message) bool {
	key := replyKey{channelID: msg.ChannelID, userID: msg.AuthorID}

	d.waiterMu.Lock()
	defer d.waiterMu.Unlock()

	for i, waiter := range d.waiters[key] {
		if !waiter.match(msg.Text) {
			continue
		}
		waiter.ch <- msg.Text
		d.waiters[key] = append(d.waiters[key][:i], d.waiters[key][i+1:]...)
		return true
	}

	return false
}

func (d *Dispatcher) removeWaiter(key replyKey, waiter *replyWaiter) {
	d.waiterMu.Lock()
	defer d.waiterMu.Unlock()

	for i, w := range d.waiters[key] {
		if w == waiter {
			d.waiters[key] = append(d.waiters[key][:i], d.waiters[key][i+1:]...)
			return
		}
	}
}
