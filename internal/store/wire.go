package store

import (
	"encoding/json"
	"strings"

	"saver-cli/internal/model"
)

// The stored shape predates the index and sensitive fields, so both are
// pointers here: absent is distinguishable from zero.
type wireItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Sensitive *bool  `json:"sensitive,omitempty"`
	Index     *int   `json:"index,omitempty"`
}

type wireSection struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []wireItem `json:"items"`
}

type wireFolder struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Sections []wireSection `json:"sections"`
	Index    *int          `json:"index,omitempty"`
}

// DecodeTree parses a stored payload and runs the migration pass over it.
// An empty or null payload decodes to an empty tree.
func DecodeTree(b []byte) (model.Tree, error) {
	if isNullOrEmpty(b) {
		return model.Tree{}, nil
	}
	var wire []wireFolder
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, err
	}
	return migrate(wire), nil
}

// EncodeTree is the storage encoding. Nil slices are written as [] so the
// payload always carries every field.
func EncodeTree(t model.Tree) ([]byte, error) {
	return json.Marshal(normalize(t))
}

// Migrate rewrites a stored payload into the current shape. Running it on its
// own output returns the same bytes.
func Migrate(b []byte) ([]byte, error) {
	t, err := DecodeTree(b)
	if err != nil {
		return nil, err
	}
	return EncodeTree(t)
}

// migrate fills defaults for fields older payloads lack: a folder without an
// index takes its array position, an item without a sensitive flag is
// sensitive, and an item without an index sorts as 0.
func migrate(wire []wireFolder) model.Tree {
	out := make(model.Tree, 0, len(wire))
	for fi, wf := range wire {
		f := model.Folder{
			ID:       wf.ID,
			Name:     wf.Name,
			Index:    fi,
			Sections: make([]model.Section, 0, len(wf.Sections)),
		}
		if wf.Index != nil {
			f.Index = *wf.Index
		}
		for _, ws := range wf.Sections {
			s := model.Section{ID: ws.ID, Name: ws.Name, Items: make([]model.Item, 0, len(ws.Items))}
			for _, wi := range ws.Items {
				it := model.Item{ID: wi.ID, Name: wi.Name, Value: wi.Value, Sensitive: true}
				if wi.Sensitive != nil {
					it.Sensitive = *wi.Sensitive
				}
				if wi.Index != nil {
					it.Index = *wi.Index
				}
				s.Items = append(s.Items, it)
			}
			f.Sections = append(f.Sections, s)
		}
		out = append(out, f)
	}
	return out
}

func normalize(t model.Tree) model.Tree {
	out := make(model.Tree, 0, len(t))
	for _, f := range t {
		secs := make([]model.Section, 0, len(f.Sections))
		for _, s := range f.Sections {
			if s.Items == nil {
				s.Items = []model.Item{}
			}
			secs = append(secs, s)
		}
		f.Sections = secs
		out = append(out, f)
	}
	return out
}

func isNullOrEmpty(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	s := strings.TrimSpace(string(b))
	return s == "" || s == "null"
}
