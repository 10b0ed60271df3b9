package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
)

func TestLRUAdapter_SetGetDelete(t *testing.T) {
	a, err := NewLRUAdapter(8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = a.Get(ctx, "therapist:id:1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, a.Set(ctx, "therapist:id:1", []byte(`{"id":"1"}`), 300))
	got, err := a.Get(ctx, "therapist:id:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	require.NoError(t, a.Delete(ctx, "therapist:id:1", "unknown"))
	_, err = a.Get(ctx, "therapist:id:1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestLRUAdapter_Expiry(t *testing.T) {
	a, err := NewLRUAdapter(8)
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 60))
	now = now.Add(59 * time.Second)
	_, err = a.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = a.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestLRUAdapter_Evicts(t *testing.T) {
	a, err := NewLRUAdapter(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, a.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, a.Set(ctx, "c", []byte("3"), 0))

	_, err = a.Get(ctx, "a")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = a.Get(ctx, "c")
	assert.NoError(t, err)
}
