package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"modbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MemoryStore struct {
	mu      sync.Mutex
	records []domain.PunishmentRecord
	err     error
}

func (m *MemoryStore) Append(_ context.Context, record *domain.PunishmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *MemoryStore) ByUser(_ context.Context, userID string) ([]domain.PunishmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.PunishmentRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) All(_ context.Context) ([]domain.PunishmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.PunishmentRecord(nil), m.records...), nil
}

func (m *MemoryStore) UpdateReason(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Reason = reason
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *MemoryStore) seed(userID, action string, date time.Time, hours float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, domain.PunishmentRecord{
		ID:          fmt.Sprintf("r%d", len(m.records)),
		UserID:      userID,
		Action:      action,
		ModeratorID: "mod",
		Date:        date,
		Duration:    hours,
		Reason:      "seeded",
	})
}

type MockEffects struct {
	mu        sync.Mutex
	applied   []string
	removed   []string
	banned    []string
	present   map[string]bool
	removeErr error
}

func effectKey(userID, action string) string {
	return userID + "/" + action
}

func (m *MockEffects) Apply(_ context.Context, userID, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, effectKey(userID, action))
	return nil
}

func (m *MockEffects) Remove(_ context.Context, userID, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		m.removed = append(m.removed, "failed:"+effectKey(userID, action))
		return m.removeErr
	}
	m.removed = append(m.removed, effectKey(userID, action))
	return nil
}

func (m *MockEffects) Present(_ context.Context, userID, action string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present[effectKey(userID, action)], nil
}

func (m *MockEffects) Ban(_ context.Context, userID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banned = append(m.banned, userID)
	return nil
}

func (m *MockEffects) removals() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *MockEffects) setRemoveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeErr = err
}

// fakeClock lets tests fast-forward the punisher's view of time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPunisher(store *MemoryStore, effects *MockEffects) (*Punisher, *fakeClock) {
	clock := &fakeClock{t: epoch}
	p := NewPunisher(store, effects, time.Millisecond)
	p.now = clock.Now
	return p, clock
}

func TestIsPunishedFreshUser(t *testing.T) {
	p, _ := newTestPunisher(&MemoryStore{}, &MockEffects{})

	for _, action := range []string{domain.ActionWarning, domain.ActionMute, domain.ActionBan, ""} {
		punished, err := p.IsPunished(t.Context(), "nobody", action)

		require.NoError(t, err)
		assert.False(t, punished, action)
	}
}

func TestRecordAppendsToAuditLog(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})

	record, err := p.Record(t.Context(), "user", domain.ActionWarning, "mod", 24, "spamming")

	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, epoch, record.Date)

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "spamming", records[0].Reason)
}

func TestIsPunishedMuteWindow(t *testing.T) {
	store := &MemoryStore{}
	p, clock := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionMute, epoch, 1)

	clock.Advance(30 * time.Minute)
	punished, err := p.IsPunished(t.Context(), "user", domain.ActionMute)
	require.NoError(t, err)
	assert.True(t, punished)

	clock.Advance(31 * time.Minute)
	punished, err = p.IsPunished(t.Context(), "user", domain.ActionMute)
	require.NoError(t, err)
	assert.False(t, punished)
}

func TestRemovalDefeatsWarning(t *testing.T) {
	store := &MemoryStore{}
	p, clock := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 0)
	store.seed("user", domain.RemovalOf(domain.ActionWarning), epoch.Add(time.Hour), 0)

	clock.Advance(2 * time.Hour)
	punished, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)

	require.NoError(t, err)
	assert.False(t, punished)
}

func TestSameInstantRemovalDefeats(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 24)
	store.seed("user", domain.RemovalOf(domain.ActionWarning), epoch, 0)

	punished, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)

	require.NoError(t, err)
	assert.False(t, punished)
}

func TestEarlierRemovalDoesNotDefeatLaterWarning(t *testing.T) {
	store := &MemoryStore{}
	p, clock := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 1)
	store.seed("user", domain.RemovalOf(domain.ActionWarning), epoch.Add(10*time.Minute), 0)
	store.seed("user", domain.ActionWarning, epoch.Add(20*time.Minute), 1)

	clock.Advance(30 * time.Minute)
	punished, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)

	require.NoError(t, err)
	assert.True(t, punished)
}

func TestRemovalOutsideWindowDoesNotDefeat(t *testing.T) {
	store := &MemoryStore{}
	p, clock := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 1)
	// Removal recorded after the warning already lapsed on its own.
	store.seed("user", domain.RemovalOf(domain.ActionWarning), epoch.Add(2*time.Hour), 0)

	clock.Advance(30 * time.Minute)
	punished, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)

	require.NoError(t, err)
	assert.True(t, punished)
}

func TestActionsAreIndependent(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 0)
	store.seed("user", domain.ActionMute, epoch, 0)
	store.seed("user", domain.RemovalOf(domain.ActionMute), epoch.Add(time.Minute), 0)

	warned, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)
	require.NoError(t, err)
	assert.True(t, warned)

	muted, err := p.IsPunished(t.Context(), "user", domain.ActionMute)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestBanNeverExpires(t *testing.T) {
	store := &MemoryStore{}
	p, clock := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionBan, epoch, 0)

	clock.Advance(24 * 365 * time.Hour)
	punished, err := p.IsPunished(t.Context(), "user", domain.ActionBan)

	require.NoError(t, err)
	assert.True(t, punished)
}

func TestEmptyActionChecksEverything(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionMute, epoch, 0)

	punished, err := p.IsPunished(t.Context(), "user", "")

	require.NoError(t, err)
	assert.True(t, punished)
}

func TestIsPunishedStoreErrorPropagates(t *testing.T) {
	store := &MemoryStore{err: errors.New("disk gone")}
	p, _ := newTestPunisher(store, &MockEffects{})

	_, err := p.IsPunished(t.Context(), "user", domain.ActionWarning)

	require.Error(t, err)
}

func TestLatest(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})

	latest, err := p.Latest(t.Context(), "user")
	require.NoError(t, err)
	assert.Nil(t, latest)

	store.seed("user", domain.ActionWarning, epoch, 24)
	store.seed("user", domain.ActionMute, epoch.Add(time.Hour), 1)

	latest, err = p.Latest(t.Context(), "user")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, domain.ActionMute, latest.Action)
}

func TestEditReason(t *testing.T) {
	store := &MemoryStore{}
	p, _ := newTestPunisher(store, &MockEffects{})
	store.seed("user", domain.ActionWarning, epoch, 24)

	require.NoError(t, p.EditReason(t.Context(), "r0", "corrected"))

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)
	assert.Equal(t, "corrected", records[0].Reason)

	require.Error(t, p.EditReason(t.Context(), "missing", "nope"))
}

func TestWatchRemovesExpiredEffectOnce(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{}
	p, clock := newTestPunisher(store, effects)
	store.seed("user", domain.ActionWarning, epoch, 24)

	clock.Advance(25 * time.Hour)
	p.watch(t.Context(), "user", domain.ActionWarning)

	assert.Equal(t, []string{"user/warning"}, effects.removals())
	assert.Empty(t, effects.applied)
}

func TestWatchWaitsForExpiry(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{}
	p, clock := newTestPunisher(store, effects)
	store.seed("user", domain.ActionWarning, epoch, 24)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.watch(t.Context(), "user", domain.ActionWarning)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, effects.removals())

	clock.Advance(25 * time.Hour)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not observe expiry")
	}
	assert.Equal(t, []string{"user/warning"}, effects.removals())
}

func TestWatchRetriesFailedRemoval(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{}
	effects.setRemoveErr(errors.New("gateway down"))
	p, clock := newTestPunisher(store, effects)
	store.seed("user", domain.ActionWarning, epoch, 24)
	clock.Advance(25 * time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.watch(t.Context(), "user", domain.ActionWarning)
	}()

	require.Eventually(t, func() bool {
		return len(effects.removals()) >= 2
	}, time.Second, time.Millisecond)

	effects.setRemoveErr(nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not recover after removal succeeded")
	}

	removals := effects.removals()
	assert.Equal(t, "user/warning", removals[len(removals)-1])
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{}
	p, _ := newTestPunisher(store, effects)
	store.seed("user", domain.ActionWarning, epoch, 0)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	p.watch(ctx, "user", domain.ActionWarning)

	assert.Empty(t, effects.removals())
}

func TestRestoreTimersClearsStaleEffects(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{present: map[string]bool{
		"stale/warning": true,
	}}
	p, clock := newTestPunisher(store, effects)

	store.seed("stale", domain.ActionWarning, epoch, 1)
	store.seed("clean", domain.ActionWarning, epoch, 1)
	clock.Advance(2 * time.Hour)

	require.NoError(t, p.RestoreTimers(t.Context()))

	assert.Equal(t, []string{"stale/warning"}, effects.removals())
	assert.Empty(t, effects.applied)
}

func TestRestoreTimersSkipsBansAndRemovals(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{present: map[string]bool{
		"banned/ban":            true,
		"lifted/remove warning": true,
	}}
	p, _ := newTestPunisher(store, effects)

	store.seed("banned", domain.ActionBan, epoch, 0)
	store.seed("lifted", domain.RemovalOf(domain.ActionWarning), epoch, 0)

	require.NoError(t, p.RestoreTimers(t.Context()))

	assert.Empty(t, effects.removals())
}

func TestRestoreTimersNeverReapplies(t *testing.T) {
	store := &MemoryStore{}
	effects := &MockEffects{}
	p, _ := newTestPunisher(store, effects)

	// Active indefinite punishment whose role was lost out of band. Restore
	// must not re-grant it; that is the member_join hook's job.
	store.seed("user", domain.ActionMute, epoch, 0)

	require.NoError(t, p.RestoreTimers(t.Context()))

	assert.Empty(t, effects.applied)
	assert.Empty(t, effects.removals())
}
