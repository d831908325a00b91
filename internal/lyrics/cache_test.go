package lyrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", Entry{Lyrics: "la la"}))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "la la", got.Lyrics)

	now = now.Add(2 * time.Hour)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	require.NoError(t, c.Set(ctx, "k", Entry{Lyrics: "la la"}))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (*Entry, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, Entry) error    { return errors.New("down") }
func (brokenCache) Delete(context.Context, string) error        { return errors.New("down") }

func TestTieredBackfillsFasterTiers(t *testing.T) {
	ctx := context.Background()
	hot, cold := NewMemoryCache(0), NewMemoryCache(0)
	require.NoError(t, cold.Set(ctx, "k", Entry{Lyrics: "archived"}))

	tiered := NewTiered(Tier{"hot", hot}, Tier{"cold", cold})

	got, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "archived", got.Lyrics)

	backfilled, err := hot.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "archived", backfilled.Lyrics)
}

func TestTieredSkipsFailingTier(t *testing.T) {
	ctx := context.Background()
	cold := NewMemoryCache(0)
	tiered := NewTiered(Tier{"broken", brokenCache{}}, Tier{"nil", nil}, Tier{"cold", cold})
	assert.Equal(t, 2, tiered.Len())

	err := tiered.Set(ctx, "k", Entry{Lyrics: "x"})
	assert.ErrorContains(t, err, "broken")

	got, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Lyrics)

	require.Error(t, tiered.Delete(ctx, "k"))
	_, err = cold.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
