package storage

import (
	"fmt"
	"testing"
	"time"

	"modbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func record(id, userID, action string, date time.Time) *domain.PunishmentRecord {
	return &domain.PunishmentRecord{
		ID:          id,
		UserID:      userID,
		Action:      action,
		ModeratorID: "mod",
		Date:        date,
		Duration:    24,
		Reason:      "spamming",
	}
}

func TestPunishmentStoreAppendAndByUser(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.NoError(t, store.Append(t.Context(), record("a", "user", domain.ActionWarning, testDate)))
	require.NoError(t, store.Append(t.Context(), record("b", "other", domain.ActionMute, testDate)))

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, domain.ActionWarning, records[0].Action)
	assert.Equal(t, "spamming", records[0].Reason)
	assert.True(t, records[0].Date.Equal(testDate))
}

func TestPunishmentStoreByUserOrdersByDate(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.NoError(t, store.Append(t.Context(), record("newer", "user", domain.ActionMute, testDate.Add(time.Hour))))
	require.NoError(t, store.Append(t.Context(), record("older", "user", domain.ActionWarning, testDate)))

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "older", records[0].ID)
	assert.Equal(t, "newer", records[1].ID)
}

func TestPunishmentStoreSameInstantKeepsInsertionOrder(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.NoError(t, store.Append(t.Context(), record("action", "user", domain.ActionWarning, testDate)))
	require.NoError(t, store.Append(t.Context(),
		record("removal", "user", domain.RemovalOf(domain.ActionWarning), testDate)))

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "action", records[0].ID)
	assert.Equal(t, "removal", records[1].ID)
}

func TestPunishmentStoreAll(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(t.Context(),
			record(fmt.Sprintf("r%d", i), fmt.Sprintf("user%d", i), domain.ActionWarning,
				testDate.Add(time.Duration(i)*time.Minute))))
	}

	records, err := store.All(t.Context())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "r0", records[0].ID)
	assert.Equal(t, "r2", records[2].ID)
}

func TestPunishmentStoreAppendDuplicateIDFails(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.NoError(t, store.Append(t.Context(), record("a", "user", domain.ActionWarning, testDate)))
	require.Error(t, store.Append(t.Context(), record("a", "user", domain.ActionWarning, testDate)))
}

func TestPunishmentStoreUpdateReason(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.NoError(t, store.Append(t.Context(), record("a", "user", domain.ActionWarning, testDate)))

	require.NoError(t, store.UpdateReason(t.Context(), "a", "corrected"))

	records, err := store.ByUser(t.Context(), "user")
	require.NoError(t, err)
	assert.Equal(t, "corrected", records[0].Reason)
}

func TestPunishmentStoreUpdateReasonMissingRecord(t *testing.T) {
	store := NewPunishmentStore(newTestDB(t))

	require.Error(t, store.UpdateReason(t.Context(), "missing", "nope"))
}
