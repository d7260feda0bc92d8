package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

func newRedisRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "stats:weak:a", &out), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "stats:weak:a", map[string]int{"total": 4}, time.Minute))
	require.NoError(t, repo.Get(ctx, "stats:weak:a", &out))
	assert.Equal(t, 4, out["total"])

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "stats:weak:a", &out), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "stats:weak:a", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "stats:weak:b", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "session:x", 3, time.Minute))

	deleted, err := repo.DeleteByPattern(ctx, "stats:*")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.False(t, mr.Exists("stats:weak:a"))
	assert.True(t, mr.Exists("session:x"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out int
	assert.ErrorIs(t, repo.Get(ctx, "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	n, err := repo.DeleteByPattern(ctx, "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
