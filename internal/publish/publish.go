// Package publish renders the tree as a Markdown sheet for printing or
// offline backup.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"saver-cli/internal/model"
)

type WriteOptions struct {
	Reveal    bool
	FolderID  string
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
	Masked  bool     `json:"masked"`
}

// WriteFile renders the sheet to path. A sheet with revealed values is only
// readable by its owner.
func WriteFile(t model.Tree, path string, opt WriteOptions) (WriteResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return WriteResult{}, errors.New("missing --out")
	}
	path = filepath.Clean(path)

	md, err := RenderMarkdown(t, RenderOptions{Reveal: opt.Reveal, FolderID: opt.FolderID})
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, err
	}
	perm := os.FileMode(0o644)
	if opt.Reveal {
		perm = 0o600
	}
	if err := writeFile(path, []byte(md), perm, opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{path}, Masked: !opt.Reveal}, nil
}

func writeFile(path string, b []byte, perm os.FileMode, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	if err := os.WriteFile(path, b, perm); err != nil {
		return err
	}
	// WriteFile keeps the mode of a file it overwrites.
	return os.Chmod(path, perm)
}
