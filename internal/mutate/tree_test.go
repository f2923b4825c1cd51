package mutate

import (
	"reflect"
	"strings"
	"testing"

	"saver-cli/internal/model"
)

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }

func fixtureState() model.State {
	return model.State{
		Tree: model.Tree{
			{
				ID: "fld-a", Name: "Work", Index: 0,
				Sections: []model.Section{
					{ID: "sec-1", Name: "Logins", Items: []model.Item{
						{ID: "itm-1", Name: "site", Value: "x", Sensitive: true, Index: 0},
						{ID: "itm-2", Name: "mail", Value: "y", Sensitive: false, Index: 1},
					}},
					{ID: "sec-2", Name: "Keys", Items: []model.Item{}},
					{ID: "sec-3", Name: "Notes", Items: []model.Item{}},
				},
			},
			{ID: "fld-b", Name: "Home", Index: 1, Sections: []model.Section{
				{ID: "sec-4", Name: "Wifi", Items: []model.Item{}},
			}},
			{ID: "fld-c", Name: "Empty", Index: 2, Sections: []model.Section{}},
		},
		Selection: model.Selection{FolderID: "fld-a", SectionID: "sec-1"},
	}
}

func TestAddFolder_AppendsAndActivates(t *testing.T) {
	st := fixtureState()
	next, id := AddFolder(st, "Travel")
	if !strings.HasPrefix(id, "fld-") {
		t.Fatalf("expected fld- prefix; got %q", id)
	}
	if got := len(next.Tree); got != 4 {
		t.Fatalf("expected 4 folders; got %d", got)
	}
	f := next.Tree[3]
	if f.ID != id || f.Name != "Travel" || f.Index != 3 {
		t.Fatalf("unexpected folder: %#v", f)
	}
	if next.Selection != (model.Selection{FolderID: id}) {
		t.Fatalf("expected new folder active with no section; got %#v", next.Selection)
	}
	if len(st.Tree) != 3 {
		t.Fatalf("input tree was modified")
	}
}

func TestAddFolder_IdempotentByName(t *testing.T) {
	st := fixtureState()
	next, id := AddFolder(st, "Home")
	if id != "fld-b" {
		t.Fatalf("expected existing folder id; got %q", id)
	}
	if len(next.Tree) != len(st.Tree) {
		t.Fatalf("expected no folder to be added")
	}
	if next.Selection != (model.Selection{FolderID: "fld-b", SectionID: "sec-4"}) {
		t.Fatalf("unexpected selection: %#v", next.Selection)
	}
}

func TestAddSection_MissingFolderIsNoop(t *testing.T) {
	st := fixtureState()
	next, id := AddSection(st, "fld-missing", "X")
	if id != "" {
		t.Fatalf("expected empty id; got %q", id)
	}
	if !reflect.DeepEqual(next, st) {
		t.Fatalf("expected unchanged state")
	}
}

func TestAddSection_AppendsAndSelects(t *testing.T) {
	st := fixtureState()
	next, id := AddSection(st, "fld-b", "Wifi")
	f, _, _ := next.Tree.FindFolder("fld-b")
	if len(f.Sections) != 2 || f.Sections[1].ID != id {
		t.Fatalf("expected appended section; got %#v", f.Sections)
	}
	if f.Sections[0].Name != f.Sections[1].Name {
		t.Fatalf("section names are not de-duplicated")
	}
	if next.Selection != (model.Selection{FolderID: "fld-b", SectionID: id}) {
		t.Fatalf("unexpected selection: %#v", next.Selection)
	}
	orig, _, _ := st.Tree.FindFolder("fld-b")
	if len(orig.Sections) != 1 {
		t.Fatalf("input folder was modified")
	}
}

func TestAddItem_IndexIsItemCount(t *testing.T) {
	st := fixtureState()
	next, id := AddItem(st, "fld-a", "sec-1", "token", "abc", true)
	it, _, ok := next.Tree.FindItem("fld-a", "sec-1", id)
	if !ok {
		t.Fatalf("expected item to exist")
	}
	if it.Index != 2 || !it.Sensitive || it.Value != "abc" {
		t.Fatalf("unexpected item: %#v", it)
	}
	if s, _, _ := st.Tree.FindSection("fld-a", "sec-1"); len(s.Items) != 2 {
		t.Fatalf("input section was modified")
	}

	same, id2 := AddItem(st, "fld-a", "sec-missing", "token", "abc", true)
	if id2 != "" || !reflect.DeepEqual(same, st) {
		t.Fatalf("expected no-op for missing section")
	}
}

func TestUpdateItem_NilSensitiveLeavesFlag(t *testing.T) {
	st := fixtureState()

	next := UpdateItem(st, "fld-a", "sec-1", "itm-1", ItemPatch{Name: stringPtr("site2"), Value: stringPtr("z")})
	it, _, _ := next.Tree.FindItem("fld-a", "sec-1", "itm-1")
	if it.Name != "site2" || it.Value != "z" || !it.Sensitive {
		t.Fatalf("unexpected item after patch: %#v", it)
	}

	next = UpdateItem(next, "fld-a", "sec-1", "itm-1", ItemPatch{Sensitive: boolPtr(false)})
	it, _, _ = next.Tree.FindItem("fld-a", "sec-1", "itm-1")
	if it.Sensitive || it.Name != "site2" {
		t.Fatalf("expected only sensitive to change: %#v", it)
	}

	orig, _, _ := st.Tree.FindItem("fld-a", "sec-1", "itm-1")
	if orig.Name != "site" || !orig.Sensitive {
		t.Fatalf("input item was modified: %#v", orig)
	}
}

func TestUpdateFolderAndSection(t *testing.T) {
	st := fixtureState()
	next := UpdateFolder(st, "fld-a", "Job")
	next = UpdateSection(next, "fld-a", "sec-2", "API keys")
	if f, _, _ := next.Tree.FindFolder("fld-a"); f.Name != "Job" {
		t.Fatalf("folder not renamed: %q", f.Name)
	}
	if s, _, _ := next.Tree.FindSection("fld-a", "sec-2"); s.Name != "API keys" {
		t.Fatalf("section not renamed: %q", s.Name)
	}
	if !reflect.DeepEqual(UpdateFolder(st, "nope", "x"), st) {
		t.Fatalf("expected no-op for missing folder")
	}
}

func TestDeleteItem(t *testing.T) {
	st := fixtureState()
	next := DeleteItem(st, "fld-a", "sec-1", "itm-1")
	s, _, _ := next.Tree.FindSection("fld-a", "sec-1")
	if len(s.Items) != 1 || s.Items[0].ID != "itm-2" {
		t.Fatalf("unexpected items: %#v", s.Items)
	}
	if !reflect.DeepEqual(DeleteItem(st, "fld-a", "sec-1", "itm-404"), st) {
		t.Fatalf("expected no-op for missing item")
	}
}

func TestDeleteSection_ReselectsFromOriginalOrdering(t *testing.T) {
	tests := []struct {
		name     string
		active   string
		delete   string
		want     string
		sections int
	}{
		{name: "middle selects predecessor", active: "sec-2", delete: "sec-2", want: "sec-1"},
		{name: "last selects predecessor", active: "sec-3", delete: "sec-3", want: "sec-2"},
		{name: "first selects former second", active: "sec-1", delete: "sec-1", want: "sec-2"},
		{name: "inactive keeps selection", active: "sec-3", delete: "sec-1", want: "sec-3"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			st := fixtureState()
			st.Selection = model.Selection{FolderID: "fld-a", SectionID: tt.active}
			next := DeleteSection(st, "fld-a", tt.delete)
			if next.Selection.SectionID != tt.want {
				t.Fatalf("expected active section %q; got %q", tt.want, next.Selection.SectionID)
			}
			if _, _, ok := next.Tree.FindSection("fld-a", tt.delete); ok {
				t.Fatalf("section was not deleted")
			}
		})
	}
}

func TestDeleteSection_LastRemainingClearsSelection(t *testing.T) {
	st := fixtureState()
	st.Selection = model.Selection{FolderID: "fld-b", SectionID: "sec-4"}
	next := DeleteSection(st, "fld-b", "sec-4")
	if next.Selection != (model.Selection{FolderID: "fld-b"}) {
		t.Fatalf("expected no active section; got %#v", next.Selection)
	}
}

func TestDeleteFolder_CascadesAndReselects(t *testing.T) {
	tests := []struct {
		name       string
		active     string
		delete     string
		wantFolder string
		wantSec    string
	}{
		{name: "first selects successor", active: "fld-a", delete: "fld-a", wantFolder: "fld-b", wantSec: "sec-4"},
		{name: "middle selects predecessor", active: "fld-b", delete: "fld-b", wantFolder: "fld-a", wantSec: "sec-1"},
		{name: "last selects predecessor", active: "fld-c", delete: "fld-c", wantFolder: "fld-b", wantSec: "sec-4"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			st := fixtureState()
			st = SelectFolder(st, tt.active)
			next := DeleteFolder(st, tt.delete)
			if next.Selection.FolderID != tt.wantFolder || next.Selection.SectionID != tt.wantSec {
				t.Fatalf("unexpected selection: %#v", next.Selection)
			}
			if _, _, ok := next.Tree.FindFolder(tt.delete); ok {
				t.Fatalf("folder was not deleted")
			}
		})
	}

	only := model.State{
		Tree:      model.Tree{{ID: "fld-x", Name: "Only", Sections: []model.Section{{ID: "sec-x", Name: "S"}}}},
		Selection: model.Selection{FolderID: "fld-x", SectionID: "sec-x"},
	}
	next := DeleteFolder(only, "fld-x")
	if len(next.Tree) != 0 || next.Selection != (model.Selection{}) {
		t.Fatalf("expected empty tree and selection; got %#v", next)
	}
}

func TestAddDelete_IDsStayUnique(t *testing.T) {
	st := model.State{}
	var folderIDs []string
	for i := 0; i < 20; i++ {
		var id string
		st, id = AddFolder(st, "folder-"+string(rune('a'+i)))
		folderIDs = append(folderIDs, id)
		for j := 0; j < 3; j++ {
			var sid string
			st, sid = AddSection(st, id, "s")
			for k := 0; k < 3; k++ {
				st, _ = AddItem(st, id, sid, "n", "v", true)
			}
		}
		if i%4 == 3 {
			st = DeleteFolder(st, folderIDs[i-1])
		}
	}

	seen := map[string]bool{}
	for _, f := range st.Tree {
		if seen[f.ID] {
			t.Fatalf("duplicate folder id %q", f.ID)
		}
		seen[f.ID] = true
		secSeen := map[string]bool{}
		for _, s := range f.Sections {
			if secSeen[s.ID] {
				t.Fatalf("duplicate section id %q", s.ID)
			}
			secSeen[s.ID] = true
			itemSeen := map[string]bool{}
			for _, it := range s.Items {
				if itemSeen[it.ID] {
					t.Fatalf("duplicate item id %q", it.ID)
				}
				itemSeen[it.ID] = true
			}
		}
	}
	if got := len(st.Tree); got != 15 {
		t.Fatalf("expected 15 folders; got %d", got)
	}
}
