package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saver-cli/internal/model"
)

// DefaultKey is the slot key the tree lives under unless configured otherwise.
const DefaultKey = "saver-folders"

// Store persists trees to a Slot and mirrors them to other instances over a Bus.
// Reconciliation is last write observed wins.
type Store struct {
	slot   Slot
	bus    Bus
	log    *zap.Logger
	origin string

	mu      sync.Mutex
	// written holds the last payload saved per key until the poll bus reports
	// the next change for that key.
	written map[string][]byte
}

func New(slot Slot, bus Bus, log *zap.Logger) *Store {
	if bus == nil {
		bus = NopBus{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		slot:    slot,
		bus:     bus,
		log:     log,
		origin:  uuid.NewString(),
		written: map[string][]byte{},
	}
}

// Origin identifies this instance on the bus.
func (s *Store) Origin() string { return s.origin }

// Load returns the tree stored under key after the migration pass. It never
// fails: a missing key, a read error or an undecodable payload yields def.
func (s *Store) Load(ctx context.Context, key string, def model.Tree) model.Tree {
	b, ok, err := s.slot.Get(ctx, key)
	if err != nil {
		s.log.Warn("read stored tree", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		s.log.Debug("no stored tree", zap.String("key", key))
		return def
	}
	t, err := DecodeTree(b)
	if err != nil {
		s.log.Warn("decode stored tree", zap.String("key", key), zap.Error(err))
		return def
	}
	return t
}

// Save writes the tree and announces it on the bus.
func (s *Store) Save(ctx context.Context, key string, t model.Tree) error {
	b, err := EncodeTree(t)
	if err != nil {
		s.log.Error("encode tree", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("encode tree: %w", err)
	}
	if err := s.slot.Set(ctx, key, b); err != nil {
		s.log.Error("write tree", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.mu.Lock()
	s.written[key] = b
	s.mu.Unlock()

	if err := s.bus.Publish(ctx, Change{Key: key, Payload: b, Origin: s.origin}); err != nil {
		s.log.Warn("publish change", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Subscribe delivers trees written under key by other instances. Changes this
// instance wrote itself are skipped, as are payloads that fail to decode.
func (s *Store) Subscribe(ctx context.Context, key string) (<-chan model.Tree, func(), error) {
	changes, cancel, err := s.bus.Subscribe(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan model.Tree, 1)
	go func() {
		defer close(out)
		for c := range changes {
			if s.ownChange(c) {
				continue
			}
			t, err := DecodeTree(c.Payload)
			if err != nil {
				s.log.Warn("decode incoming tree", zap.String("key", key), zap.Error(err))
				continue
			}
			s.log.Debug("adopt incoming tree", zap.String("key", key), zap.String("origin", c.Origin))
			offer(out, t)
		}
	}()
	return out, cancel, nil
}

// ownChange reports whether c is this instance's write. Polled changes carry
// no origin, so only the first one seen after a Save is compared against the
// written payload; a later identical payload came from someone else.
func (s *Store) ownChange(c Change) bool {
	if c.Origin != "" {
		return c.Origin == s.origin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.written[c.Key]
	if !ok {
		return false
	}
	delete(s.written, c.Key)
	return bytes.Equal(last, c.Payload)
}

func (s *Store) Close() error {
	err := s.slot.Close()
	if c, ok := s.bus.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
