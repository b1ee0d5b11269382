package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/nutrition_bot/internal/config"
	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/model"
)

func TestOpenMemoryLoadsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot-users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users":{"5":{"chatId":5,"age":44}},"userStates":{"5":"AWAITING_WEIGHT"}}`), 0644))

	store, err := Open(&config.Config{StorageBackend: config.BackendMemory, SnapshotPath: path}, logging.NewNop())
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	p, err := store.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 44, *p.Age)

	state, err := store.GetState(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.StateAwaitingWeight, state)
}

func TestOpenMemoryCorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot-users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

	store, err := Open(&config.Config{StorageBackend: config.BackendMemory, SnapshotPath: path}, logging.NewNop())
	require.NoError(t, err)

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenBackends(t *testing.T) {
	sqlite, err := Open(&config.Config{
		StorageBackend: config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "data", "bot.db"),
	}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqlite)
	require.NoError(t, sqlite.Close())

	mr := miniredis.RunT(t)
	redis, err := Open(&config.Config{StorageBackend: config.BackendRedis, RedisAddr: mr.Addr()}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, redis)
	require.NoError(t, redis.Close())

	_, err = Open(&config.Config{StorageBackend: "etcd"}, logging.NewNop())
	assert.Error(t, err)
}

func TestProfileRowMapping(t *testing.T) {
	p := model.NewProfile(12).WithSex(model.SexMale).WithHeight(175).WithActivity(model.ActivityVeryActive)

	row := newProfileRow(99, p)
	assert.Equal(t, int64(99), row.UserID)
	assert.Nil(t, row.Age)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, int64(99), back.UserID)
	assert.Equal(t, model.SexMale, *back.Sex)
	assert.Equal(t, 175, *back.HeightCm)
	assert.Equal(t, model.ActivityVeryActive, *back.Activity)
	assert.Nil(t, back.WeightKg)
}
