package model

import "sort"

// Item is a single name/value entry inside a section.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
	Index     int    `json:"index"`
}

type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

type Folder struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Sections []Section `json:"sections"`
	Index    int       `json:"index"`
}

// Tree is the persisted root: every folder, in storage order.
type Tree []Folder

// Selection holds the transient active cursors. Empty strings mean "none".
// It is never persisted.
type Selection struct {
	FolderID  string `json:"folderId,omitempty"`
	SectionID string `json:"sectionId,omitempty"`
}

// State is the container a surface owns: the tree plus its current selection.
type State struct {
	Tree      Tree
	Selection Selection
}

func (t Tree) FindFolder(id string) (Folder, int, bool) {
	for i := range t {
		if t[i].ID == id {
			return t[i], i, true
		}
	}
	return Folder{}, -1, false
}

func (t Tree) FindFolderByName(name string) (Folder, bool) {
	for _, f := range t {
		if f.Name == name {
			return f, true
		}
	}
	return Folder{}, false
}

func (t Tree) FindSection(folderID, sectionID string) (Section, int, bool) {
	f, _, ok := t.FindFolder(folderID)
	if !ok {
		return Section{}, -1, false
	}
	return f.FindSection(sectionID)
}

func (t Tree) FindItem(folderID, sectionID, itemID string) (Item, int, bool) {
	s, _, ok := t.FindSection(folderID, sectionID)
	if !ok {
		return Item{}, -1, false
	}
	return s.FindItem(itemID)
}

func (f Folder) FindSection(id string) (Section, int, bool) {
	for i := range f.Sections {
		if f.Sections[i].ID == id {
			return f.Sections[i], i, true
		}
	}
	return Section{}, -1, false
}

func (s Section) FindItem(id string) (Item, int, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return s.Items[i], i, true
		}
	}
	return Item{}, -1, false
}

// SortedFolders returns the folders in display order: a stable sort on Index,
// so folders sharing an index (legacy data) keep their storage order.
func SortedFolders(t Tree) []Folder {
	out := append([]Folder{}, t...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// SortedItems returns a section's items in display order (see SortedFolders).
func SortedItems(s Section) []Item {
	out := append([]Item{}, s.Items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, f := range t {
		out[i] = f.clone()
	}
	return out
}

func (f Folder) clone() Folder {
	if f.Sections != nil {
		secs := make([]Section, len(f.Sections))
		for i, s := range f.Sections {
			secs[i] = s.clone()
		}
		f.Sections = secs
	}
	return f
}

func (s Section) clone() Section {
	if s.Items != nil {
		s.Items = append([]Item(nil), s.Items...)
	}
	return s
}

// ItemCount returns the number of items across all folders and sections.
func (t Tree) ItemCount() int {
	n := 0
	for _, f := range t {
		for _, s := range f.Sections {
			n += len(s.Items)
		}
	}
	return n
}
