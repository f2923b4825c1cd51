// Package gitrepo commits the file backend's payloads when the data directory
// lives inside a git work tree.
package gitrepo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrInProgress = errors.New("git merge/rebase in progress; resolve it before saving")

// FindGitDir walks up from start and returns the git directory (e.g.
// /repo/.git, or the target of a worktree's .git file). It does not invoke the
// git binary.
func FindGitDir(start string) (gitDir string, ok bool, err error) {
	if strings.TrimSpace(start) == "" {
		return "", false, errors.New("empty start dir")
	}
	dir := filepath.Clean(strings.TrimSpace(start))
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for {
		candidate := filepath.Join(dir, ".git")
		st, statErr := os.Stat(candidate)
		switch {
		case statErr == nil && st.IsDir():
			return candidate, true, nil
		case statErr == nil:
			target, err := readGitdirFile(candidate)
			if err != nil {
				return "", false, err
			}
			if target != "" {
				return target, true, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// readGitdirFile reads a "gitdir: <path>" pointer file.
func readGitdirFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if ln == "" {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(ln), "gitdir:") {
			break
		}
		p := strings.TrimSpace(ln[len("gitdir:"):])
		if p == "" {
			return "", nil
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		return filepath.Clean(p), nil
	}
	return "", sc.Err()
}

// InProgress reports a merge, rebase, cherry-pick or revert by its marker
// files. kind is empty when none is running or dir is not in a repo.
func InProgress(dir string) (kind string, err error) {
	gitDir, ok, err := FindGitDir(dir)
	if err != nil || !ok {
		return "", err
	}
	markers := []struct{ path, kind string }{
		{"MERGE_HEAD", "merge"},
		{"rebase-apply", "rebase"},
		{"rebase-merge", "rebase"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"REVERT_HEAD", "revert"},
	}
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(gitDir, m.path)); err == nil {
			return m.kind, nil
		}
	}
	return "", nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}
