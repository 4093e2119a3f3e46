package service

import (
	"context"
	"fmt"
	"time"

	"modbot/internal/core/domain"
	"modbot/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// Punisher owns the moderation audit log. Whether a user is currently
// punished is always derived fresh from the ordered record list, never
// cached, so reason edits and restored history stay consistent.
type Punisher struct {
	store    port.PunishmentStore
	effects  port.Effects
	interval time.Duration
	now      func() time.Time
}

func NewPunisher(store port.PunishmentStore, effects port.Effects, checkInterval time.Duration) *Punisher {
	return &Punisher{
		store:    store,
		effects:  effects,
		interval: checkInterval,
		now:      time.Now,
	}
}

// Record appends one action to the audit log. durationHours of zero means
// indefinite.
func (p *Punisher) Record(ctx context.Context, userID, action, moderatorID string,
	durationHours float64, reason string) (*domain.PunishmentRecord, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate record id: %w", err)
	}

	record := &domain.PunishmentRecord{
		ID:          id.String(),
		UserID:      userID,
		Action:      action,
		ModeratorID: moderatorID,
		Date:        p.now().UTC(),
		Duration:    durationHours,
		Reason:      reason,
	}

	if err := p.store.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append punishment record: %w", err)
	}

	log.Info().
		Str("user", userID).
		Str("action", action).
		Float64("duration", durationHours).
		Msg("recorded punishment action")

	return record, nil
}

// IsPunished derives whether the user currently has an active punishment of
// the given action. An empty action checks ban, warning and mute.
func (p *Punisher) IsPunished(ctx context.Context, userID, action string) (bool, error) {
	records, err := p.store.ByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load punishment records: %w", err)
	}

	if action == "" {
		for _, a := range []string{domain.ActionBan, domain.ActionWarning, domain.ActionMute} {
			if activePunishment(records, a, p.now()) {
				return true, nil
			}
		}
		return false, nil
	}

	return activePunishment(records, action, p.now()), nil
}

// activePunishment evaluates the derived predicate over records ordered
// oldest first. A ban is active as soon as any ban record exists. A timed
// action is active when its most recent in-window record has no later
// removal record that itself falls inside that window.
func activePunishment(records []domain.PunishmentRecord, action string, now time.Time) bool {
	if action == domain.ActionBan {
		for i := range records {
			if records[i].Action == domain.ActionBan {
				return true
			}
		}
		return false
	}

	for i := len(records) - 1; i >= 0; i-- {
		hit := &records[i]
		if hit.Action != action || !hit.ActiveAt(now) {
			continue
		}
		removal := domain.RemovalOf(action)
		for j := i + 1; j < len(records); j++ {
			rm := &records[j]
			if rm.Action == removal && !rm.Date.Before(hit.Date) && hit.ActiveAt(rm.Date) {
				return false
			}
		}
		return true
	}

	return false
}

// History returns the user's full record list, oldest first.
func (p *Punisher) History(ctx context.Context, userID string) ([]domain.PunishmentRecord, error) {
	records, err := p.store.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load punishment records: %w", err)
	}
	return records, nil
}

// Latest returns the user's most recent record, or nil without error when the
// user has no history.
func (p *Punisher) Latest(ctx context.Context, userID string) (*domain.PunishmentRecord, error) {
	records, err := p.store.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load punishment records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[len(records)-1], nil
}

// EditReason corrects the reason on an existing record. Single-writer,
// last-write-wins, reserved for moderator-initiated corrections.
func (p *Punisher) EditReason(ctx context.Context, recordID, reason string) error {
	if err := p.store.UpdateReason(ctx, recordID, reason); err != nil {
		return fmt.Errorf("failed to update reason: %w", err)
	}
	return nil
}

// StartTimer launches the expiry watcher for one (user, action) pair.
// Duplicate watchers for the same pair are tolerated: both observe the same
// derived predicate and the extra removal is a no-op.
func (p *Punisher) StartTimer(ctx context.Context, userID, action string) {
	go p.watch(ctx, userID, action)
}

// watch polls the derived predicate and removes the punishment's effect
// exactly once when it flips to false. There is no external cancellation
// besides ctx; the watcher terminates by observing expiry. I/O failures are
// retried on the next tick.
func (p *Punisher) watch(ctx context.Context, userID, action string) {
	l := log.With().Str("user", userID).Str("action", action).Logger()
	l.Debug().Msg("starting punishment watcher")

	for {
		punished, err := p.IsPunished(ctx, userID, action)
		switch {
		case err != nil:
			l.Warn().Err(err).Msg("punishment check failed, retrying next tick")
		case !punished:
			if err := p.effects.Remove(ctx, userID, action); err != nil {
				l.Warn().Err(err).Msg("failed to remove punishment effect, retrying next tick")
				break
			}
			l.Info().Msg("punishment lapsed, effect removed")
			return
		}

		select {
		case <-ctx.Done():
			l.Debug().Msg("stopping punishment watcher")
			return
		case <-time.After(p.interval):
		}
	}
}

// RestoreTimers reconciles persisted state after a restart: still-punished
// users get a fresh watcher, users carrying a stale effect get it cleared
// once. Watchers only ever remove effects; re-application on join is the
// member_join hook's job.
func (p *Punisher) RestoreTimers(ctx context.Context) error {
	records, err := p.store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load punishment records: %w", err)
	}

	type pair struct{ user, action string }
	seen := make(map[pair]struct{})

	for i := len(records) - 1; i >= 0; i-- {
		record := &records[i]
		if record.Action == domain.ActionBan || domain.IsRemoval(record.Action) {
			continue
		}

		key := pair{user: record.UserID, action: record.Action}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		punished, err := p.IsPunished(ctx, record.UserID, record.Action)
		if err != nil {
			log.Warn().Err(err).Str("user", record.UserID).Msg("skipping timer restore for user")
			continue
		}

		if punished {
			log.Info().Str("user", record.UserID).Str("action", record.Action).Msg("restoring punishment timer")
			p.StartTimer(ctx, record.UserID, record.Action)
			continue
		}

		present, err := p.effects.Present(ctx, record.UserID, record.Action)
		if err != nil {
			log.Warn().Err(err).Str("user", record.UserID).Msg("failed to check punishment effect")
			continue
		}
		if present {
			log.Info().Str("user", record.UserID).Str("action", record.Action).Msg("clearing stale punishment effect")
			if err := p.effects.Remove(ctx, record.UserID, record.Action); err != nil {
				log.Warn().Err(err).Str("user", record.UserID).Msg("failed to clear stale effect")
			}
		}
	}

	return nil
}
