package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// FileSlot stores each key as <Dir>/<key>.json.
type FileSlot struct {
	Dir string
}

func NewFileSlot(dir string) (*FileSlot, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileSlot{Dir: dir}, nil
}

func (s *FileSlot) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *FileSlot) Set(_ context.Context, key string, b []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := s.path(key)

	// Keep the previous payload next to the live one; a failed copy never blocks the write.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(s.Dir, key+".json.bak.*.tmp", path+".bak", prev, 0o600)
	}
	return atomicWriteFile(s.Dir, key+".json.*.tmp", path, b, 0o600)
}

func (s *FileSlot) Close() error { return nil }

// atomicWriteFile writes through a uniquely named temp file and renames it into
// place so concurrent processes never observe a partial payload.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
