// Package cache holds serialized song views between reads.
//
// Every song key carries a generation. Readers note the generation before
// they load from the database and fill with SetIfGeneration; writers call
// Invalidate after they commit, which bumps the generation and drops the
// entry, so a fill that raced a write is discarded.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type SongCache interface {
	Get(ctx context.Context, id int64) ([]byte, error)
	Generation(ctx context.Context, id int64) (int64, error)
	// SetIfGeneration stores data only while id is still at generation gen.
	SetIfGeneration(ctx context.Context, id int64, gen int64, data []byte) error
	Invalidate(ctx context.Context, id int64) error
}

func SongCacheKey(id int64) string {
	return fmt.Sprintf("tuneful:song:%d", id)
}

func songGenerationKey(id int64) string {
	return fmt.Sprintf("tuneful:song:%d:gen", id)
}

// New returns a Redis-backed cache when rdb is set and an in-process one
// otherwise.
func New(rdb *redis.Client, ttl time.Duration) SongCache {
	if rdb != nil {
		return NewRedisSongCache(rdb, ttl)
	}
	return NewLocalSongCache(ttl)
}
