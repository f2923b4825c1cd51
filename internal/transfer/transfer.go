// Package transfer validates, exports and imports whole trees as JSON.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/store"
)

type ErrorKind string

const (
	KindJSON    ErrorKind = "json"
	KindRoot    ErrorKind = "root"
	KindFolder  ErrorKind = "folder"
	KindSection ErrorKind = "section"
	KindItem    ErrorKind = "item"
)

// ValidationError names the first structural violation found in an import.
// Index is the position within the parent; Parent is the containing folder's
// name for sections and the containing section's name for items.
type ValidationError struct {
	Kind   ErrorKind
	Index  int
	Parent string
	Err    error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindJSON:
		return fmt.Sprintf("invalid JSON data: %v", e.Err)
	case KindRoot:
		return "imported data must be an array"
	case KindFolder:
		return fmt.Sprintf("folder at index %d has invalid structure", e.Index)
	case KindSection:
		return fmt.Sprintf("section at index %d in folder %q has invalid structure", e.Index, e.Parent)
	case KindItem:
		return fmt.Sprintf("item at index %d in section %q has invalid structure", e.Index, e.Parent)
	}
	return "invalid import"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks b top-down and stops at the first violation:
//
//   - the root is an array
//   - each folder has a non-empty id and name and an array of sections
//   - each section has a non-empty id and name and an array of items
//   - each item has a non-empty id and name and a string value
//   - optional fields, when present, have the stored types: folder and item
//     index are integers, item sensitive is a boolean
//
// On success the payload is decoded through the storage migration pass, so
// absent sensitive and index fields get their defaults.
func Validate(b []byte) (model.Tree, error) {
	var root any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, &ValidationError{Kind: KindJSON, Err: err}
	}
	if dec.More() {
		return nil, &ValidationError{Kind: KindJSON, Err: errors.New("unexpected data after top-level value")}
	}
	folders, ok := root.([]any)
	if !ok {
		return nil, &ValidationError{Kind: KindRoot}
	}
	for i, fv := range folders {
		f, ok := fv.(map[string]any)
		if !ok || !nonEmptyString(f["id"]) || !nonEmptyString(f["name"]) {
			return nil, &ValidationError{Kind: KindFolder, Index: i}
		}
		sections, ok := f["sections"].([]any)
		if !ok || !optionalIndex(f["index"]) {
			return nil, &ValidationError{Kind: KindFolder, Index: i}
		}
		folderName := f["name"].(string)
		for j, sv := range sections {
			s, ok := sv.(map[string]any)
			if !ok || !nonEmptyString(s["id"]) || !nonEmptyString(s["name"]) {
				return nil, &ValidationError{Kind: KindSection, Index: j, Parent: folderName}
			}
			items, ok := s["items"].([]any)
			if !ok {
				return nil, &ValidationError{Kind: KindSection, Index: j, Parent: folderName}
			}
			sectionName := s["name"].(string)
			for k, iv := range items {
				it, ok := iv.(map[string]any)
				if !ok || !nonEmptyString(it["id"]) || !nonEmptyString(it["name"]) {
					return nil, &ValidationError{Kind: KindItem, Index: k, Parent: sectionName}
				}
				if _, ok := it["value"].(string); !ok || !optionalBool(it["sensitive"]) || !optionalIndex(it["index"]) {
					return nil, &ValidationError{Kind: KindItem, Index: k, Parent: sectionName}
				}
			}
		}
	}

	t, err := store.DecodeTree(b)
	if err != nil {
		return nil, &ValidationError{Kind: KindJSON, Err: err}
	}
	return t, nil
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// optionalIndex accepts an absent or null index, or an integer literal.
func optionalIndex(v any) bool {
	if v == nil {
		return true
	}
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	_, err := strconv.ParseInt(string(n), 10, 64)
	return err == nil
}

func optionalBool(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(bool)
	return ok
}

// Export renders the tree as 2-space indented JSON.
func Export(t model.Tree) ([]byte, error) {
	b, err := store.EncodeTree(t)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Import replaces the tree with the validated payload and selects its first
// folder and section. A rejected payload leaves st untouched.
func Import(st model.State, b []byte) (model.State, error) {
	t, err := Validate(b)
	if err != nil {
		return st, err
	}
	return model.State{Tree: t, Selection: mutate.SelectFirst(t)}, nil
}
