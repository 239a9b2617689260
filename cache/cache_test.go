package cache

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)

	_, err := store.Get(ctx, "quote:BAC")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "quote:BAC", []byte("31.5"), time.Minute))
	got, err := store.Get(ctx, "quote:BAC")
	require.NoError(t, err)
	assert.Equal(t, []byte("31.5"), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(59 * time.Second)
	_, err := store.Get(ctx, "k")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	now = now.Add(24 * time.Hour)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoize_CallsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	calls := 0
	fn := func() (summary, error) {
		calls++
		return summary{Symbol: "BAC", Price: 31.5}, nil
	}

	first, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)
	second, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 31.5, second.Price)
}

func TestMemoize_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	calls := 0
	fn := func() (summary, error) {
		calls++
		return summary{}, errors.New("upstream down")
	}

	_, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	assert.Error(t, err)
	_, err = Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRefresh_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	price := 31.5
	fn := func() (summary, error) {
		return summary{Symbol: "BAC", Price: price}, nil
	}

	_, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)

	price = 32.0
	refreshed, err := Refresh(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 32.0, refreshed.Price)

	cached, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 32.0, cached.Price)
}

func TestRefresh_UncacheableResult(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	calls := 0
	fn := func() (summary, error) {
		calls++
		return summary{Symbol: "BAC", Price: math.Inf(1)}, nil
	}

	got, err := Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.Price, 1))

	_, err = store.Get(ctx, "quote:BAC")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = Memoize(ctx, store, "quote:BAC", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
