package contextstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches session state in Redis with a fixed TTL per entry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Set(ctx context.Context, ns Namespace, externalID int64, value string) error {
	if err := s.client.SetEx(ctx, key(ns, externalID), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("setex %s: %w", key(ns, externalID), err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, externalID int64) (string, bool, error) {
	v, err := s.client.Get(ctx, key(ns, externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key(ns, externalID), err)
	}
	return v, true, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
