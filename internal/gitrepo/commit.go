package gitrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CommitFile stages path and commits it alone, leaving anything else staged in
// the repo untouched. It returns committed=false when path is outside a repo
// or unchanged since the last commit.
func CommitFile(ctx context.Context, path, message string) (committed bool, err error) {
	path, err = filepath.Abs(path)
	if err != nil {
		return false, err
	}
	dir := filepath.Dir(path)
	if _, ok, err := FindGitDir(dir); err != nil || !ok {
		return false, err
	}
	kind, err := InProgress(dir)
	if err != nil {
		return false, err
	}
	if kind != "" {
		return false, fmt.Errorf("%w (%s)", ErrInProgress, kind)
	}

	name := filepath.Base(path)
	if _, err := git(ctx, dir, "add", "--", name); err != nil {
		return false, err
	}
	out, err := git(ctx, dir, "diff", "--cached", "--name-only", "--", name)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("saver: update %s (%s)", name, time.Now().UTC().Format(time.RFC3339))
	}
	if _, err := git(ctx, dir, "commit", "-m", msg, "--", name); err != nil {
		return false, err
	}
	return true, nil
}

// Committer coalesces bursts of saves into one commit per file.
type Committer struct {
	debounce time.Duration
	log      *zap.Logger

	// flushMu keeps two flushes from racing on the repo's index.lock.
	flushMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool
}

func NewCommitter(debounce time.Duration, log *zap.Logger) *Committer {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Committer{debounce: debounce, log: log, pending: map[string]bool{}}
}

// Touch schedules path for the next commit.
func (c *Committer) Touch(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[path] = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		_ = c.Flush(context.Background())
	})
}

// Flush commits every pending file now. It returns the first error; the
// rest are logged.
func (c *Committer) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	paths := make([]string, 0, len(c.pending))
	for p := range c.pending {
		paths = append(paths, p)
	}
	c.pending = map[string]bool{}
	c.mu.Unlock()

	var first error
	for _, p := range paths {
		committed, err := CommitFile(ctx, p, "")
		if err != nil {
			c.log.Warn("git commit failed", zap.String("path", p), zap.Error(err))
			if first == nil {
				first = err
			}
			continue
		}
		if committed {
			c.log.Debug("git commit", zap.String("path", p))
		}
	}
	return first
}
