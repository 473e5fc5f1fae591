package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "talaty/pkg/domain"
	audit "talaty/pkg/platform/audit"
)

func TestListByUserOrdersByTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	userID := id.NewUserID()
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, audit.Event{UserID: userID, Action: audit.ActionDocumentVerified, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Append(ctx, audit.Event{UserID: id.NewUserID(), Action: audit.ActionFormSubmitted, Timestamp: base}))
	require.NoError(t, store.Append(ctx, audit.Event{UserID: userID, Action: audit.ActionDocumentUploaded, Timestamp: base}))

	events, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionDocumentUploaded, events[0].Action)
	assert.Equal(t, audit.ActionDocumentVerified, events[1].Action)
}

func TestRingOverwritesOldest(t *testing.T) {
	ctx := context.Background()
	store := NewWithCapacity(3)
	userID := id.NewUserID()
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, store.Append(ctx, audit.Event{
			UserID:    userID,
			Action:    audit.ActionScoreRecalculated,
			Subject:   string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{events[0].Subject, events[1].Subject, events[2].Subject})
}
