package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"saver-cli/internal/model"
	"saver-cli/internal/search"
	"saver-cli/internal/store"
)

// MaskGlyph replaces a hidden value.
const MaskGlyph = "••••••••"

// Mask returns the value to display for it: the value itself, or MaskGlyph
// when the item is sensitive and reveal is off. Empty values stay empty.
func Mask(it model.Item, reveal bool) string {
	if it.Sensitive && !reveal && it.Value != "" {
		return MaskGlyph
	}
	return it.Value
}

// WriteText renders the common result types for people. Envelopes of the
// form map[string]any{"data": v} are unwrapped first.
func WriteText(w io.Writer, v any, reveal bool) error {
	if env, ok := v.(map[string]any); ok {
		if data, ok := env["data"]; ok {
			v = data
		}
	}
	switch x := v.(type) {
	case model.Tree:
		return writeTree(w, x, reveal)
	case model.Folder:
		return writeTree(w, model.Tree{x}, reveal)
	case []model.Folder:
		return writeTree(w, model.Tree(x), reveal)
	case model.Section:
		return writeSection(w, x, "", reveal)
	case []model.Section:
		for _, s := range x {
			if err := writeSection(w, s, "", reveal); err != nil {
				return err
			}
		}
		return nil
	case model.Item:
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", x.ID, x.Name, Mask(x, reveal))
		return err
	case []model.Item:
		for _, it := range x {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, it.Name, Mask(it, reveal)); err != nil {
				return err
			}
		}
		return nil
	case search.Result:
		return writeResult(w, x, reveal)
	case store.DoctorReport:
		return writeDoctor(w, x)
	case map[string]any:
		return writeMap(w, x)
	case string:
		_, err := fmt.Fprintln(w, x)
		return err
	default:
		_, err := fmt.Fprintf(w, "%v\n", x)
		return err
	}
}

func writeTree(w io.Writer, t model.Tree, reveal bool) error {
	if len(t) == 0 {
		_, err := fmt.Fprintln(w, "(no folders)")
		return err
	}
	for _, f := range model.SortedFolders(t) {
		if _, err := fmt.Fprintf(w, "%s  [%s]\n", f.Name, f.ID); err != nil {
			return err
		}
		for _, s := range f.Sections {
			if err := writeSection(w, s, "  ", reveal); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSection(w io.Writer, s model.Section, indent string, reveal bool) error {
	if _, err := fmt.Fprintf(w, "%s%s  [%s]\n", indent, s.Name, s.ID); err != nil {
		return err
	}
	for _, it := range model.SortedItems(s) {
		if _, err := fmt.Fprintf(w, "%s  %s = %s  [%s]\n", indent, it.Name, Mask(it, reveal), it.ID); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(w io.Writer, r search.Result, reveal bool) error {
	if !r.Searched {
		_, err := fmt.Fprintln(w, "(no query)")
		return err
	}
	if len(r.Matches) == 0 {
		_, err := fmt.Fprintf(w, "no matches for %q\n", r.Query)
		return err
	}
	for _, m := range r.Matches {
		if _, err := fmt.Fprintf(w, "%s = %s\n", m.Path(), Mask(m.Item, reveal)); err != nil {
			return err
		}
	}
	return nil
}

func writeDoctor(w io.Writer, r store.DoctorReport) error {
	if _, err := fmt.Fprintf(w, "%s: %d folders, %d items\n", r.Key, r.Folders, r.Items); err != nil {
		return err
	}
	if len(r.Issues) == 0 {
		_, err := fmt.Fprintln(w, "no issues")
		return err
	}
	for _, it := range r.Issues {
		line := fmt.Sprintf("%-5s %s: %s", it.Level, it.Code, it.Message)
		if it.Path != "" {
			line += " (" + it.Path + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeMap(w io.Writer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		if xs, ok := v.([]string); ok {
			v = strings.Join(xs, ", ")
		}
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, v); err != nil {
			return err
		}
	}
	return nil
}
