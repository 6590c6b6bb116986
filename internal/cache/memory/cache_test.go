package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tienda/internal/repository"
)

func TestCache_SetGetDelete(t *testing.T) {
	c := NewCache(0)
	defer c.Stop()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	value := []byte("v1")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	got[0] = 'y'
	again, _ := c.Get(ctx, "k")
	require.Equal(t, []byte("v1"), again)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(0)
	defer c.Stop()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Minute)

	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	c.cleanup()
	require.Equal(t, 1, c.Len())
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := NewCache(time.Hour)
	c.Stop()
	c.Stop()
}
