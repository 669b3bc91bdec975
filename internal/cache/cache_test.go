package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupMiniredis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
}

func TestAside_PopulatesAndServesFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			fetches++
			dest.Name = "widget"
			dest.Count = 3
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &first, UserTTL, fetch(&first)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "widget", first.Name)

	var second cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &second, UserTTL, fetch(&second)))
	assert.Equal(t, 1, fetches, "second read should hit the cache")
	assert.Equal(t, first, second)
}

func TestAside_InvalidateForcesRefetch(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	load := func(dest *cachedThing) func() error {
		return func() error {
			fetches++
			dest.Name = "gadget"
			return nil
		}
	}

	var v cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &v, UserTTL, load(&v)))
	InvalidateUser(ctx, 7)

	var again cachedThing
	require.NoError(t, Aside(ctx, UserKey(7), &again, UserTTL, load(&again)))
	assert.Equal(t, 2, fetches)
}

func TestAside_NilClientAlwaysFetches(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	fetches := 0
	var v cachedThing
	fetch := func() error {
		fetches++
		v.Name = "no-cache"
		return nil
	}

	require.NoError(t, Aside(ctx, TrackingKey("SRABC"), &v, TrackingTTL, fetch))
	require.NoError(t, Aside(ctx, TrackingKey("SRABC"), &v, TrackingTTL, fetch))
	assert.Equal(t, 2, fetches)
}
