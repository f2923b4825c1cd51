package mutate

import (
	"saver-cli/internal/model"
)

// ReorderItems replaces the section's items with ordered and rewrites every
// index to its position in ordered, ignoring whatever indices the items carried.
// Repeated ids in ordered are dropped after their first occurrence.
func ReorderItems(st model.State, folderID, sectionID string, ordered []model.Item) model.State {
	tree, ok := withSection(st.Tree, folderID, sectionID, func(s model.Section) model.Section {
		seen := make(map[string]bool, len(ordered))
		items := make([]model.Item, 0, len(ordered))
		for _, it := range ordered {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			it.Index = len(items)
			items = append(items, it)
		}
		s.Items = items
		return s
	})
	if !ok {
		return st
	}
	return model.State{Tree: tree, Selection: st.Selection}
}

// ReorderFolders replaces the tree with ordered, re-indexing each folder by position.
func ReorderFolders(st model.State, ordered []model.Folder) model.State {
	seen := make(map[string]bool, len(ordered))
	tree := make(model.Tree, 0, len(ordered))
	for _, f := range ordered {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		f.Index = len(tree)
		tree = append(tree, f)
	}
	return RepairSelection(model.State{Tree: tree, Selection: st.Selection})
}

// MoveItemTo moves itemID to display position insertAt within its section.
// insertAt is the position in the item list after the moved item has been
// taken out; it is clamped to the valid range.
func MoveItemTo(st model.State, folderID, sectionID, itemID string, insertAt int) model.State {
	s, _, ok := st.Tree.FindSection(folderID, sectionID)
	if !ok {
		return st
	}
	order, ok := moveWithin(model.SortedItems(s), func(it model.Item) string { return it.ID }, itemID, insertAt)
	if !ok {
		return st
	}
	return ReorderItems(st, folderID, sectionID, order)
}

// MoveFolderTo moves folderID to display position insertAt among the folders.
func MoveFolderTo(st model.State, folderID string, insertAt int) model.State {
	order, ok := moveWithin(model.SortedFolders(st.Tree), func(f model.Folder) string { return f.ID }, folderID, insertAt)
	if !ok {
		return st
	}
	return ReorderFolders(st, order)
}

// MoveItem takes an item out of its source section and appends a copy to the
// destination section, with index = the destination's item count. It is a no-op
// when the item cannot be resolved, when source and destination are the same
// section, and when the destination does not exist (so an item is never dropped).
func MoveItem(st model.State, srcFolderID, srcSectionID, itemID, dstFolderID, dstSectionID string) model.State {
	it, _, ok := st.Tree.FindItem(srcFolderID, srcSectionID, itemID)
	if !ok {
		return st
	}
	if srcFolderID == dstFolderID && srcSectionID == dstSectionID {
		return st
	}
	dst, _, ok := st.Tree.FindSection(dstFolderID, dstSectionID)
	if !ok {
		return st
	}
	if _, _, dup := dst.FindItem(itemID); dup {
		return st
	}

	it.Index = len(dst.Items)
	tree, _ := withSection(st.Tree, srcFolderID, srcSectionID, func(s model.Section) model.Section {
		s.Items = removeItem(s.Items, itemID)
		return s
	})
	tree, _ = withSection(tree, dstFolderID, dstSectionID, func(s model.Section) model.Section {
		items := make([]model.Item, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		s.Items = append(items, it)
		return s
	})
	return model.State{Tree: tree, Selection: st.Selection}
}

func moveWithin[T any](cur []T, idOf func(T) string, id string, insertAt int) ([]T, bool) {
	from := -1
	for i := range cur {
		if idOf(cur[i]) == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, false
	}
	moved := cur[from]
	rest := make([]T, 0, len(cur))
	rest = append(rest, cur[:from]...)
	rest = append(rest, cur[from+1:]...)

	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(rest) {
		insertAt = len(rest)
	}
	out := make([]T, 0, len(cur))
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	out = append(out, rest[insertAt:]...)
	return out, true
}
