package mutate

import (
	"fmt"

	"saver-cli/internal/model"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ResolveFolder is for surfaces that want to report a stale or mistyped id.
// The mutation functions themselves treat missing references as no-ops.
func ResolveFolder(t model.Tree, folderID string) (model.Folder, error) {
	f, _, ok := t.FindFolder(folderID)
	if !ok {
		return model.Folder{}, NotFoundError{Kind: "folder", ID: folderID}
	}
	return f, nil
}

func ResolveSection(t model.Tree, folderID, sectionID string) (model.Section, error) {
	f, err := ResolveFolder(t, folderID)
	if err != nil {
		return model.Section{}, err
	}
	s, _, ok := f.FindSection(sectionID)
	if !ok {
		return model.Section{}, NotFoundError{Kind: "section", ID: sectionID}
	}
	return s, nil
}

func ResolveItem(t model.Tree, folderID, sectionID, itemID string) (model.Item, error) {
	s, err := ResolveSection(t, folderID, sectionID)
	if err != nil {
		return model.Item{}, err
	}
	it, _, ok := s.FindItem(itemID)
	if !ok {
		return model.Item{}, NotFoundError{Kind: "item", ID: itemID}
	}
	return it, nil
}
