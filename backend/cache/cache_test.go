package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSongCacheKey(t *testing.T) {
	assert.Equal(t, "tuneful:song:42", SongCacheKey(42))
	assert.Equal(t, "tuneful:song:42:gen", songGenerationKey(42))
}

func fill(t *testing.T, c SongCache, id int64, data string) {
	t.Helper()
	gen, err := c.Generation(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, c.SetIfGeneration(context.Background(), id, gen, []byte(data)))
}

func TestLocalSongCache(t *testing.T) {
	ctx := context.Background()
	c := NewLocalSongCache(time.Minute)

	_, err := c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)

	fill(t, c, 1, `{"id":1}`)
	data, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(data))

	require.NoError(t, c.Invalidate(ctx, 1))
	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLocalSongCacheDropsFillAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewLocalSongCache(time.Minute)

	gen, err := c.Generation(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 3))
	require.NoError(t, c.SetIfGeneration(ctx, 3, gen, []byte("old")))

	_, err = c.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrCacheMiss)

	fill(t, c, 3, "new")
	data, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestLocalSongCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewLocalSongCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	fill(t, c, 7, "x")
	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, 7)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Empty(t, c.entries)
}

func TestLocalSongCacheSweepsOnSet(t *testing.T) {
	c := NewLocalSongCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	fill(t, c, 1, "a")
	fill(t, c, 2, "b")
	now = now.Add(2 * time.Minute)
	fill(t, c, 3, "c")

	assert.Len(t, c.entries, 1)
	assert.Contains(t, c.entries, int64(3))
}

func TestLocalSongCacheCopiesInput(t *testing.T) {
	ctx := context.Background()
	c := NewLocalSongCache(time.Minute)
	buf := []byte("abc")
	require.NoError(t, c.SetIfGeneration(ctx, 1, 0, buf))
	buf[0] = 'z'

	data, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestNewFallsBackToLocal(t *testing.T) {
	assert.IsType(t, &LocalSongCache{}, New(nil, time.Minute))
}

func TestRedisSongCache(t *testing.T) {
	conn := os.Getenv("REDIS_CONN_STRING")
	if conn == "" {
		t.Skip("REDIS_CONN_STRING not set")
	}
	opt, err := redis.ParseURL(conn)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	c := NewRedisSongCache(rdb, time.Minute)
	id := time.Now().UnixNano()
	t.Cleanup(func() { _ = rdb.Del(ctx, SongCacheKey(id), songGenerationKey(id)).Err() })

	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)

	fill(t, c, id, "payload")
	data, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	ttl, err := rdb.TTL(ctx, SongCacheKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	gen, err := c.Generation(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, id))
	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.SetIfGeneration(ctx, id, gen, []byte("stale")))
	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
