package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewService_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.Local)
	store := setupRedisStore(t)
	ledger := NewLedger(store, fixedClock(now))
	logs := NewChatLogStore(store, fixedClock(now))

	_, err := ledger.Create(ctx, domain.SessionPatch{Date: strPtr("02/01/2025")})
	require.NoError(t, err)
	latest, err := ledger.Create(ctx, domain.SessionPatch{Name: strPtr("Today")})
	require.NoError(t, err)
	_, err = logs.Save(ctx, conversation("hello"))
	require.NoError(t, err)

	overview, err := NewOverviewService(ledger, logs, fixedClock(now)).Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.TotalWorkouts)
	assert.Equal(t, 1, overview.RecentWorkouts)
	assert.Equal(t, 1, overview.SavedConversations)
	assert.Equal(t, 3, overview.Month)
	assert.Equal(t, 2025, overview.Year)
	require.NotNil(t, overview.LatestSession)
	assert.Equal(t, latest.ID, overview.LatestSession.ID)
	assert.True(t, overview.Markers["2025-03-20"].Emphasis)
	assert.False(t, overview.Markers["2025-02-01"].Emphasis)
}

func TestOverviewService_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failGet = true

	_, err := NewOverviewService(NewLedger(store, nil), NewChatLogStore(store, nil), nil).Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
