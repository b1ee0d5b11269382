package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/nutrition_bot/internal/logging"
	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// testStoreContract проверяет поведение, общее для всех хранилищ
func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("absent user", func(t *testing.T) {
		_, err := store.Get(ctx, 100)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.GetState(ctx, 100)
		assert.ErrorIs(t, err, ErrNotFound)

		ok, err := store.Exists(ctx, 100)
		require.NoError(t, err)
		assert.False(t, ok)

		p, err := store.GetOrCreate(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, model.NewProfile(100), p)

		_, err = store.Delete(ctx, 100)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		p := model.NewProfile(1).
			WithSex(model.SexFemale).
			WithAge(28).
			WithWeight(61).
			WithActivity(model.ActivityLight)
		require.NoError(t, store.Save(ctx, 1, p))
		require.NoError(t, store.SetState(ctx, 1, model.StateAwaitingHeight))

		got, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.True(t, p.Equal(got), got.String())
		assert.Nil(t, got.HeightCm)

		state, err := store.GetState(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StateAwaitingHeight, state)

		ok, err := store.Exists(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, 2, model.NewProfile(2).WithAge(20)))
		require.NoError(t, store.Save(ctx, 2, model.NewProfile(2).WithAge(21).WithHeight(170)))

		got, err := store.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 21, *got.Age)
		assert.Equal(t, 170, *got.HeightCm)
	})

	t.Run("list all is ordered", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, 3, model.NewProfile(3)))

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		ids := make([]int64, 0, len(all))
		for _, p := range all {
			ids = append(ids, p.UserID)
		}
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("delete removes profile and state", func(t *testing.T) {
		deleted, err := store.Delete(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 28, *deleted.Age)

		_, err = store.Get(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetState(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown stored state", func(t *testing.T) {
		require.NoError(t, store.SetState(ctx, 9, model.StateInvalid))
		state, err := store.GetState(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, model.StateInvalid, state)
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	testStoreContract(t, store)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(mr.Addr(), "", 0)
	t.Cleanup(func() { store.Close() })

	testStoreContract(t, store)

	assert.True(t, mr.Exists("nutrition:profile:2"))
	assert.True(t, mr.Exists("nutrition:state:9"))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, 1, model.NewProfile(1).WithAge(30)))

	p, err := store.Get(ctx, 1)
	require.NoError(t, err)
	*p.Age = 99

	again, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, *again.Age)
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, id, model.NewProfile(id).WithAge(20)))
			assert.NoError(t, store.SetState(ctx, id, model.StateAwaitingWeight))
		}(i)
	}
	wg.Wait()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestSQLiteStoreRejectsInvalidRows(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err = store.db.ExecContext(ctx, `INSERT INTO profiles (user_id, sex, age) VALUES (5, 'MALE', 5)`)
	require.NoError(t, err)

	_, err = store.Get(ctx, 5)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	_, err = store.ListAll(ctx)
	assert.ErrorIs(t, err, model.ErrInvalidValue)

	// Испорченную запись все равно можно удалить
	_, err = store.Delete(ctx, 5)
	require.NoError(t, err)
	_, err = store.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsInvalidProfiles(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(mr.Addr(), "", 0)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, mr.Set(store.profileKey(6), `{"chatId":6,"sex":"MALE"}`))
	_, err := mr.SAdd(store.indexKey(), "6")
	require.NoError(t, err)
	require.NoError(t, mr.Set(store.profileKey(7), `{"chatId":7,"age":5}`))

	_, err = store.Get(ctx, 6)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	_, err = store.ListAll(ctx)
	assert.ErrorIs(t, err, model.ErrInvalidValue)

	_, err = store.Delete(ctx, 6)
	require.NoError(t, err)
	assert.False(t, mr.Exists(store.profileKey(6)))
}
