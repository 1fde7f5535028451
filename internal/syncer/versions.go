package syncer

import (
	"context"
	"fmt"

	"github.com/diutransit/reminder_core/internal/cache"
	"github.com/redis/go-redis/v9"
)

// Versions tracks the locally-applied document version and the last version
// the user has been shown an update banner for
type Versions interface {
	LocalVersion(ctx context.Context) (int, error)
	SetLocalVersion(ctx context.Context, v int) error
	SeenVersion(ctx context.Context) (int, error)
	MarkSeen(ctx context.Context, v int) error
}

// RedisVersions stores version state in Redis
type RedisVersions struct {
	rdb *redis.Client
}

// NewRedisVersions creates a Redis-backed version store
func NewRedisVersions(rdb *redis.Client) *RedisVersions {
	return &RedisVersions{rdb: rdb}
}

func (s *RedisVersions) LocalVersion(ctx context.Context) (int, error) {
	return s.getInt(ctx, cache.VersionKey())
}

func (s *RedisVersions) SetLocalVersion(ctx context.Context, v int) error {
	if err := s.rdb.Set(ctx, cache.VersionKey(), v, 0).Err(); err != nil {
		return fmt.Errorf("failed to store local version: %w", err)
	}
	return nil
}

func (s *RedisVersions) SeenVersion(ctx context.Context) (int, error) {
	return s.getInt(ctx, cache.SeenVersionKey())
}

func (s *RedisVersions) MarkSeen(ctx context.Context, v int) error {
	if err := s.rdb.Set(ctx, cache.SeenVersionKey(), v, 0).Err(); err != nil {
		return fmt.Errorf("failed to store seen version: %w", err)
	}
	return nil
}

// getInt reads an integer key, treating a missing key as zero
func (s *RedisVersions) getInt(ctx context.Context, key string) (int, error) {
	v, err := s.rdb.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}
