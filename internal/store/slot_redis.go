package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "saver:"

// RedisSlot stores payloads as plain Redis strings under "saver:<key>".
type RedisSlot struct {
	client *redis.Client
	owned  bool
}

// NewRedisClient parses url and verifies the server answers a PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisSlot(ctx context.Context, url string) (*RedisSlot, error) {
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RedisSlot{client: client, owned: true}, nil
}

// NewRedisSlotWithClient wraps a client the caller keeps ownership of.
func NewRedisSlotWithClient(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

func (s *RedisSlot) Client() *redis.Client { return s.client }

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (s *RedisSlot) Set(ctx context.Context, key string, b []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSlot) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
