package mutate

import "saver-cli/internal/model"

// SelectFolder makes folderID active. Switching folders also moves the active
// section to the new folder's first section (storage order), or none.
func SelectFolder(st model.State, folderID string) model.State {
	f, _, ok := st.Tree.FindFolder(folderID)
	if !ok {
		return st
	}
	if st.Selection.FolderID == folderID {
		return st
	}
	sel := model.Selection{FolderID: folderID}
	if len(f.Sections) > 0 {
		sel.SectionID = f.Sections[0].ID
	}
	return model.State{Tree: st.Tree, Selection: sel}
}

func SelectSection(st model.State, folderID, sectionID string) model.State {
	if _, _, ok := st.Tree.FindSection(folderID, sectionID); !ok {
		return st
	}
	return model.State{Tree: st.Tree, Selection: model.Selection{FolderID: folderID, SectionID: sectionID}}
}

// SelectFirst is the selection for a freshly loaded or imported tree: the first
// folder in storage order and its first section.
func SelectFirst(t model.Tree) model.Selection {
	if len(t) == 0 {
		return model.Selection{}
	}
	sel := model.Selection{FolderID: t[0].ID}
	if len(t[0].Sections) > 0 {
		sel.SectionID = t[0].Sections[0].ID
	}
	return sel
}

// RepairSelection fixes selection cursors after the tree was replaced underneath
// them (a reload, an import, a change from another instance).
//
//   - no folder selected, or the folder is gone: SelectFirst
//   - the section is gone from the active folder: its first section, or none
//   - no section selected: left alone
func RepairSelection(st model.State) model.State {
	f, _, ok := st.Tree.FindFolder(st.Selection.FolderID)
	if st.Selection.FolderID == "" || !ok {
		return model.State{Tree: st.Tree, Selection: SelectFirst(st.Tree)}
	}
	if st.Selection.SectionID == "" {
		return st
	}
	if _, _, ok := f.FindSection(st.Selection.SectionID); ok {
		return st
	}
	sel := model.Selection{FolderID: f.ID}
	if len(f.Sections) > 0 {
		sel.SectionID = f.Sections[0].ID
	}
	return model.State{Tree: st.Tree, Selection: sel}
}
