package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	sqliteFileName    = "saver.sqlite"
	gitCommitDebounce = 2 * time.Second
)

// processBus links every Store opened with bus "memory" in this process.
var processBus = NewMemBus()

// Open builds the slot and bus described by cfg. When the data directory of a
// local backend cannot be created the tree is kept in memory for the session
// and a warning is logged.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	slot, err := openSlot(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	bus, err := openBus(ctx, cfg, slot, log)
	if err != nil {
		_ = slot.Close()
		return nil, err
	}
	return New(slot, bus, log), nil
}

func openSlot(ctx context.Context, cfg Config, log *zap.Logger) (Slot, error) {
	switch cfg.Backend {
	case "", BackendFile, BackendSQLite:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			log.Warn("storage unavailable; changes will not persist", zap.String("dir", cfg.Dir), zap.Error(err))
			return NewMemSlot(), nil
		}
		if cfg.Backend == BackendSQLite {
			return OpenSQLiteSlot(ctx, filepath.Join(cfg.Dir, sqliteFileName))
		}
		if cfg.GitCommit {
			return NewGitSlot(cfg.Dir, gitCommitDebounce, log)
		}
		return NewFileSlot(cfg.Dir)
	case BackendRedis:
		return NewRedisSlot(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown backend %q (want file, sqlite or redis)", cfg.Backend)
	}
}

func openBus(ctx context.Context, cfg Config, slot Slot, log *zap.Logger) (Bus, error) {
	switch cfg.Bus {
	case "", BusNone:
		return NopBus{}, nil
	case BusMemory:
		return processBus, nil
	case BusPoll:
		return NewPollBus(slot, cfg.PollInterval, log), nil
	case BusRedis:
		if rs, ok := slot.(*RedisSlot); ok {
			return NewRedisBus(rs.Client(), log), nil
		}
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &ownedRedisBus{RedisBus: NewRedisBus(client, log)}, nil
	default:
		return nil, fmt.Errorf("unknown bus %q (want none, memory, poll or redis)", cfg.Bus)
	}
}

// ownedRedisBus is a RedisBus whose client was dialed just for it.
type ownedRedisBus struct {
	*RedisBus
}

func (b *ownedRedisBus) Close() error { return b.client.Close() }
