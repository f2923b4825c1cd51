package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultPollInterval = time.Second

// PollBus notices changes by re-reading the slot on an interval. It works
// across processes for any shared slot. Publish is a no-op: the write itself
// is the signal, and the origin of a polled change is unknown.
type PollBus struct {
	slot     Slot
	interval time.Duration
	log      *zap.Logger
}

func NewPollBus(slot Slot, interval time.Duration, log *zap.Logger) *PollBus {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PollBus{slot: slot, interval: interval, log: log}
}

func (b *PollBus) Publish(context.Context, Change) error { return nil }

func (b *PollBus) Subscribe(ctx context.Context, key string) (<-chan Change, func(), error) {
	last, _, err := b.slot.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Change, subscriberBuffer)
	stop := make(chan struct{})
	go func() {
		defer close(out)
		t := time.NewTicker(b.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-t.C:
			}
			cur, ok, err := b.slot.Get(ctx, key)
			if err != nil {
				b.log.Debug("poll slot", zap.String("key", key), zap.Error(err))
				continue
			}
			if !ok || bytes.Equal(cur, last) {
				continue
			}
			last = cur
			offer(out, Change{Key: key, Payload: cur})
		}
	}()

	var once sync.Once
	cancel := func() { once.Do(func() { close(stop) }) }
	return out, cancel, nil
}
