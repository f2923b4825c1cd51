// Package clipboard copies text to the system clipboard, falling back to
// printing it when no clipboard is reachable.
package clipboard

import (
	"errors"
	"io"
	"strings"

	"github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("clipboard unavailable")

type Writer interface {
	WriteAll(text string) error
}

// System is the OS clipboard (pbcopy, clip, wl-copy, xclip or xsel).
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(strings.ReplaceAll(text, "\r\n", "\n"))
}

// Deliver copies text with cb. If that fails the text is written to fallback
// as-is so it can be selected by hand; copied reports which path was taken.
// err is only non-nil when the fallback write fails too.
func Deliver(cb Writer, fallback io.Writer, text string) (copied bool, err error) {
	if cb != nil {
		if err := cb.WriteAll(text); err == nil {
			return true, nil
		}
	}
	if fallback == nil {
		return false, ErrUnavailable
	}
	if _, err := io.WriteString(fallback, text); err != nil {
		return false, err
	}
	if !strings.HasSuffix(text, "\n") {
		_, _ = io.WriteString(fallback, "\n")
	}
	return false, nil
}
