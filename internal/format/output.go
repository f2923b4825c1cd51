package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Options controls how a command result is rendered.
type Options struct {
	Format string // json (default) or text
	Pretty bool   // indent JSON
	Reveal bool   // show sensitive values in text output
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default): v as-is, usually a {"data": ...} envelope
// - text: a human-readable rendering; see WriteText
func Write(w io.Writer, v any, opts Options) error {
	switch opts.Format {
	case "", "json":
		return WriteJSON(w, v, opts.Pretty)
	case "text":
		return WriteText(w, v, opts.Reveal)
	default:
		return fmt.Errorf("unknown format: %s", opts.Format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
