package tests

import (
	"context"
	"testing"

	"github.com/mansoorceksport/workout-assistant/internal/domain"
	"github.com/mansoorceksport/workout-assistant/internal/repository"
	"github.com/mansoorceksport/workout-assistant/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoKVStore_LedgerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	ctx := context.Background()
	store := repository.NewMongoKVStore(db, "kv")

	_, err := store.Get(ctx, domain.WorkoutsKey)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	ledger := service.NewLedger(store, nil)
	name := "Mongo day"
	created, err := ledger.Create(ctx, domain.SessionPatch{Name: &name})
	require.NoError(t, err)

	reloaded, err := service.NewLedger(store, nil).Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, reloaded)

	logs := service.NewChatLogStore(store, nil)
	_, err = logs.Save(ctx, []domain.ChatMessage{{ID: "1", Sender: domain.SenderUser, Text: "hi"}})
	require.NoError(t, err)
	all, err := logs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, ledger.Clear(ctx))
	_, err = store.Get(ctx, domain.WorkoutsKey)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}
