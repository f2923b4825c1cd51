package mutate

import "saver-cli/internal/model"

type DragKind int

const (
	DragNone DragKind = iota
	DragItem
	DragFolder
)

// DropTarget is whatever the drag is currently over. For an item target all three
// ids are set; a section target leaves ItemID empty; a folder target only has FolderID.
type DropTarget struct {
	FolderID  string
	SectionID string
	ItemID    string
}

// Drag is a pending drag-and-drop gesture owned by a single UI model:
// source -> hover target -> commit on Drop. Cancel (or dropping without a
// target) discards it without touching the tree.
type Drag struct {
	Kind DragKind

	FolderID  string
	SectionID string
	SourceID  string

	Over    DropTarget
	hovered bool
}

func StartItemDrag(folderID, sectionID, itemID string) Drag {
	return Drag{Kind: DragItem, FolderID: folderID, SectionID: sectionID, SourceID: itemID}
}

func StartFolderDrag(folderID string) Drag {
	return Drag{Kind: DragFolder, FolderID: folderID, SourceID: folderID}
}

func (d Drag) Active() bool { return d.Kind != DragNone }

func (d *Drag) Hover(t DropTarget) {
	if !d.Active() {
		return
	}
	d.Over = t
	d.hovered = true
}

func (d *Drag) Cancel() { *d = Drag{} }

// Drop commits the gesture against st and ends the drag. The bool reports
// whether anything was committed.
func (d *Drag) Drop(st model.State) (model.State, bool) {
	cur := *d
	*d = Drag{}
	if !cur.Active() || !cur.hovered {
		return st, false
	}

	switch cur.Kind {
	case DragItem:
		over := cur.Over
		if over.ItemID == cur.SourceID {
			return st, false
		}
		sameSection := over.FolderID == cur.FolderID && over.SectionID == cur.SectionID
		if sameSection && over.ItemID != "" {
			s, _, ok := st.Tree.FindSection(cur.FolderID, cur.SectionID)
			if !ok {
				return st, false
			}
			itemID := func(it model.Item) string { return it.ID }
			before := model.SortedItems(s)
			to := displayPosition(before, itemID, over.ItemID)
			if to < 0 {
				return st, false
			}
			next := MoveItemTo(st, cur.FolderID, cur.SectionID, cur.SourceID, to)
			ns, _, _ := next.Tree.FindSection(cur.FolderID, cur.SectionID)
			if sameOrder(before, model.SortedItems(ns), itemID) {
				return st, false
			}
			return next, true
		}
		if sameSection || over.SectionID == "" {
			return st, false
		}
		next := MoveItem(st, cur.FolderID, cur.SectionID, cur.SourceID, over.FolderID, over.SectionID)
		_, _, stayed := next.Tree.FindItem(cur.FolderID, cur.SectionID, cur.SourceID)
		return next, !stayed

	case DragFolder:
		if cur.Over.FolderID == "" || cur.Over.FolderID == cur.SourceID {
			return st, false
		}
		folderID := func(f model.Folder) string { return f.ID }
		before := model.SortedFolders(st.Tree)
		to := displayPosition(before, folderID, cur.Over.FolderID)
		if to < 0 {
			return st, false
		}
		next := MoveFolderTo(st, cur.SourceID, to)
		if sameOrder(before, model.SortedFolders(next.Tree), folderID) {
			return st, false
		}
		return next, true
	}
	return st, false
}

func sameOrder[T any](a, b []T, idOf func(T) string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if idOf(a[i]) != idOf(b[i]) {
			return false
		}
	}
	return true
}

func displayPosition[T any](xs []T, idOf func(T) string, id string) int {
	for i := range xs {
		if idOf(xs[i]) == id {
			return i
		}
	}
	return -1
}
