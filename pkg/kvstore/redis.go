// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kotek-7/minpuzz-core/pkg/config"
)

// RedisStore backs Store with a shared redis deployment for multi-node use.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, mostly for tests against
// a local redis.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	value, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis hget %q %q: %w", key, field, err)
	}
	return value, nil
}

func (s *RedisStore) HSet(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("redis hset %q %q: %w", key, field, err)
	}
	return nil
}

func (s *RedisStore) HDel(ctx context.Context, key, field string) error {
	if err := s.client.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("redis hdel %q %q: %w", key, field, err)
	}
	return nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %q: %w", key, err)
	}
	return values, nil
}

func (s *RedisStore) SAdd(ctx context.Context, key, member string) (int64, error) {
	added, err := s.client.SAdd(ctx, key, member).Result()
	if err != nil {
		return 0, fmt.Errorf("redis sadd %q: %w", key, err)
	}
	return added, nil
}

func (s *RedisStore) SRem(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis srem %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %q: %w", key, err)
	}
	return members, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %q: %w", key, err)
	}
	return nil
}
