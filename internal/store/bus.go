package store

import (
	"context"
	"sync"
)

// Change announces that Key now holds Payload. Origin identifies the Store
// instance that wrote it; it is empty when the bus cannot tell.
type Change struct {
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
	Origin  string `json:"origin,omitempty"`
}

// Bus carries change notifications between instances sharing a slot.
// Subscriber channels are buffered and lossy: when a reader falls behind, the
// oldest pending change is dropped so the newest always gets through.
type Bus interface {
	Publish(ctx context.Context, c Change) error
	// Subscribe delivers changes for key until cancel is called or ctx ends.
	// The returned channel is closed afterwards.
	Subscribe(ctx context.Context, key string) (<-chan Change, func(), error)
}

const subscriberBuffer = 8

// offer hands c to ch without blocking, evicting the oldest pending entry if
// the buffer is full.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// MemBus fans changes out to subscribers in the same process.
type MemBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Change]struct{}
}

func NewMemBus() *MemBus {
	return &MemBus{subs: map[string]map[chan Change]struct{}{}}
}

func (b *MemBus) Publish(_ context.Context, c Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[c.Key] {
		offer(ch, c)
	}
	return nil
}

func (b *MemBus) Subscribe(ctx context.Context, key string) (<-chan Change, func(), error) {
	ch := make(chan Change, subscriberBuffer)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = map[chan Change]struct{}{}
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], ch)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
			close(stop)
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return ch, cancel, nil
}

// NopBus never delivers anything. It is used when sync is switched off.
type NopBus struct{}

func (NopBus) Publish(context.Context, Change) error { return nil }

func (NopBus) Subscribe(ctx context.Context, _ string) (<-chan Change, func(), error) {
	ch := make(chan Change)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return ch, cancel, nil
}
