package mutate

import (
	"saver-cli/internal/model"
)

// ItemPatch lists the item fields to replace. Nil fields keep their current value;
// in particular a nil Sensitive leaves the flag alone rather than clearing it.
type ItemPatch struct {
	Name      *string
	Value     *string
	Sensitive *bool
}

// AddFolder appends a folder named name and makes it active. Folder names are
// idempotent: if a folder with exactly this name exists, nothing is added and
// the existing folder becomes active instead. The returned id is the active folder.
func AddFolder(st model.State, name string) (model.State, string) {
	if f, ok := st.Tree.FindFolderByName(name); ok {
		return SelectFolder(st, f.ID), f.ID
	}
	id := newID(st.Tree, folderIDPrefix)
	tree := make(model.Tree, 0, len(st.Tree)+1)
	tree = append(tree, st.Tree...)
	tree = append(tree, model.Folder{
		ID:       id,
		Name:     name,
		Sections: []model.Section{},
		Index:    len(st.Tree),
	})
	return SelectFolder(model.State{Tree: tree, Selection: st.Selection}, id), id
}

// AddSection appends a section to folderID and selects it. Section names are not
// de-duplicated. A missing folder leaves the state unchanged and returns "".
func AddSection(st model.State, folderID, name string) (model.State, string) {
	if _, _, ok := st.Tree.FindFolder(folderID); !ok {
		return st, ""
	}
	id := newID(st.Tree, sectionIDPrefix)
	tree, _ := withFolder(st.Tree, folderID, func(f model.Folder) model.Folder {
		secs := make([]model.Section, 0, len(f.Sections)+1)
		secs = append(secs, f.Sections...)
		f.Sections = append(secs, model.Section{ID: id, Name: name, Items: []model.Item{}})
		return f
	})
	return model.State{
		Tree:      tree,
		Selection: model.Selection{FolderID: folderID, SectionID: id},
	}, id
}

// AddItem appends an item to the section; its index is the section's current item count.
func AddItem(st model.State, folderID, sectionID, name, value string, sensitive bool) (model.State, string) {
	if _, _, ok := st.Tree.FindSection(folderID, sectionID); !ok {
		return st, ""
	}
	id := newID(st.Tree, itemIDPrefix)
	tree, _ := withSection(st.Tree, folderID, sectionID, func(s model.Section) model.Section {
		items := make([]model.Item, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		s.Items = append(items, model.Item{
			ID:        id,
			Name:      name,
			Value:     value,
			Sensitive: sensitive,
			Index:     len(s.Items),
		})
		return s
	})
	return model.State{Tree: tree, Selection: st.Selection}, id
}

func UpdateFolder(st model.State, folderID, name string) model.State {
	tree, ok := withFolder(st.Tree, folderID, func(f model.Folder) model.Folder {
		f.Name = name
		return f
	})
	if !ok {
		return st
	}
	return model.State{Tree: tree, Selection: st.Selection}
}

func UpdateSection(st model.State, folderID, sectionID, name string) model.State {
	tree, ok := withSection(st.Tree, folderID, sectionID, func(s model.Section) model.Section {
		s.Name = name
		return s
	})
	if !ok {
		return st
	}
	return model.State{Tree: tree, Selection: st.Selection}
}

func UpdateItem(st model.State, folderID, sectionID, itemID string, patch ItemPatch) model.State {
	if _, _, ok := st.Tree.FindItem(folderID, sectionID, itemID); !ok {
		return st
	}
	tree, _ := withSection(st.Tree, folderID, sectionID, func(s model.Section) model.Section {
		items := append([]model.Item(nil), s.Items...)
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if patch.Name != nil {
				items[i].Name = *patch.Name
			}
			if patch.Value != nil {
				items[i].Value = *patch.Value
			}
			if patch.Sensitive != nil {
				items[i].Sensitive = *patch.Sensitive
			}
		}
		s.Items = items
		return s
	})
	return model.State{Tree: tree, Selection: st.Selection}
}

func DeleteItem(st model.State, folderID, sectionID, itemID string) model.State {
	if _, _, ok := st.Tree.FindItem(folderID, sectionID, itemID); !ok {
		return st
	}
	tree, _ := withSection(st.Tree, folderID, sectionID, func(s model.Section) model.Section {
		s.Items = removeItem(s.Items, itemID)
		return s
	})
	return model.State{Tree: tree, Selection: st.Selection}
}

// DeleteSection removes the section and its items. When the deleted section was
// active, the replacement is picked from the pre-deletion ordering: the
// predecessor if there is one, else the section that followed it, else none.
func DeleteSection(st model.State, folderID, sectionID string) model.State {
	f, _, ok := st.Tree.FindFolder(folderID)
	if !ok {
		return st
	}
	_, si, ok := f.FindSection(sectionID)
	if !ok {
		return st
	}
	tree, _ := withFolder(st.Tree, folderID, func(f model.Folder) model.Folder {
		secs := make([]model.Section, 0, len(f.Sections)-1)
		secs = append(secs, f.Sections[:si]...)
		f.Sections = append(secs, f.Sections[si+1:]...)
		return f
	})

	sel := st.Selection
	if sel.FolderID == folderID && sel.SectionID == sectionID {
		sel.SectionID = ""
		if len(f.Sections) > 1 {
			next := si - 1
			if si == 0 {
				next = 1
			}
			sel.SectionID = f.Sections[next].ID
		}
	}
	return model.State{Tree: tree, Selection: sel}
}

// DeleteFolder removes the folder with all its sections and items. An active
// folder is replaced by its predecessor in the pre-deletion ordering, else its
// successor, else none; the replacement's first section becomes active.
func DeleteFolder(st model.State, folderID string) model.State {
	_, fi, ok := st.Tree.FindFolder(folderID)
	if !ok {
		return st
	}
	tree := make(model.Tree, 0, len(st.Tree)-1)
	tree = append(tree, st.Tree[:fi]...)
	tree = append(tree, st.Tree[fi+1:]...)

	sel := st.Selection
	if sel.FolderID == folderID {
		sel = model.Selection{}
		if len(st.Tree) > 1 {
			next := fi - 1
			if fi == 0 {
				next = 1
			}
			nf := st.Tree[next]
			sel.FolderID = nf.ID
			if len(nf.Sections) > 0 {
				sel.SectionID = nf.Sections[0].ID
			}
		}
	}
	return model.State{Tree: tree, Selection: sel}
}

// withFolder returns a copy of t with the folder folderID replaced by fn's result.
// fn must not modify slices reachable from its argument.
func withFolder(t model.Tree, folderID string, fn func(model.Folder) model.Folder) (model.Tree, bool) {
	_, fi, ok := t.FindFolder(folderID)
	if !ok {
		return t, false
	}
	out := append(model.Tree(nil), t...)
	out[fi] = fn(t[fi])
	return out, true
}

func withSection(t model.Tree, folderID, sectionID string, fn func(model.Section) model.Section) (model.Tree, bool) {
	f, _, ok := t.FindFolder(folderID)
	if !ok {
		return t, false
	}
	_, si, ok := f.FindSection(sectionID)
	if !ok {
		return t, false
	}
	return withFolder(t, folderID, func(f model.Folder) model.Folder {
		secs := append([]model.Section(nil), f.Sections...)
		secs[si] = fn(f.Sections[si])
		f.Sections = secs
		return f
	})
}

func removeItem(items []model.Item, itemID string) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	return out
}
