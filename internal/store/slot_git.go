package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"saver-cli/internal/gitrepo"
)

// GitSlot is a FileSlot whose writes are committed when Dir is inside a git
// work tree. Commits are debounced; Close flushes the last one.
type GitSlot struct {
	*FileSlot
	committer *gitrepo.Committer
}

func NewGitSlot(dir string, debounce time.Duration, log *zap.Logger) (*GitSlot, error) {
	fs, err := NewFileSlot(dir)
	if err != nil {
		return nil, err
	}
	return &GitSlot{FileSlot: fs, committer: gitrepo.NewCommitter(debounce, log)}, nil
}

func (s *GitSlot) Set(ctx context.Context, key string, b []byte) error {
	if err := s.FileSlot.Set(ctx, key, b); err != nil {
		return err
	}
	s.committer.Touch(s.path(key))
	return nil
}

func (s *GitSlot) Close() error {
	_ = s.committer.Flush(context.Background())
	return s.FileSlot.Close()
}
