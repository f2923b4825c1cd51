package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisChannelPrefix = "saver:changes:"

// RedisBus carries changes over Redis pub/sub, one channel per key.
type RedisBus struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBus(client *redis.Client, log *zap.Logger) *RedisBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, c Change) error {
	msg, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, redisChannelPrefix+c.Key, msg).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", c.Key, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, key string) (<-chan Change, func(), error) {
	ps := b.client.Subscribe(ctx, redisChannelPrefix+key)
	// Wait for the subscription to be confirmed so no publish after we return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	out := make(chan Change, subscriberBuffer)
	stop := make(chan struct{})
	msgs := ps.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case <-stop:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					b.log.Warn("drop malformed change", zap.String("key", key), zap.Error(err))
					continue
				}
				offer(out, c)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}
