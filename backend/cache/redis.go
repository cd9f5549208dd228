package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSongCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisSongCache(rdb redis.UniversalClient, ttl time.Duration) *RedisSongCache {
	return &RedisSongCache{rdb: rdb, ttl: ttl}
}

func (c *RedisSongCache) Get(ctx context.Context, id int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, SongCacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisSongCache) Generation(ctx context.Context, id int64) (int64, error) {
	return readGeneration(ctx, c.rdb, id)
}

type generationReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, rdb generationReader, id int64) (int64, error) {
	raw, err := rdb.Get(ctx, songGenerationKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// SetIfGeneration watches the generation key so a concurrent Invalidate
// aborts the write.
func (c *RedisSongCache) SetIfGeneration(ctx context.Context, id int64, gen int64, data []byte) error {
	genKey := songGenerationKey(id)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, id)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SongCacheKey(id), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisSongCache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, songGenerationKey(id))
		pipe.Del(ctx, SongCacheKey(id))
		return nil
	})
	return err
}
