package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Slot is a durable key/value cell holding one serialized tree per key.
type Slot interface {
	// Get reports ok=false, with a nil error, when nothing was stored under key.
	Get(ctx context.Context, key string) (b []byte, ok bool, err error)
	Set(ctx context.Context, key string, b []byte) error
	Close() error
}

var ErrInvalidKey = errors.New("invalid slot key")

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// MemSlot keeps payloads in process memory. It backs tests and the fallback
// used when no durable storage is reachable.
type MemSlot struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemSlot() *MemSlot {
	return &MemSlot{data: map[string][]byte{}}
}

func (m *MemSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *MemSlot) Set(_ context.Context, key string, b []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = append([]byte(nil), b...)
	m.mu.Unlock()
	return nil
}

func (m *MemSlot) Close() error { return nil }
