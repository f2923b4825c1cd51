package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	// Path locates the record, e.g. "Work/Logins/site".
	Path string `json:"path,omitempty"`
	ID   string `json:"id,omitempty"`
}

type DoctorReport struct {
	Key     string        `json:"key"`
	Empty   bool          `json:"empty"`
	Folders int           `json:"folders"`
	Items   int           `json:"items"`
	Issues  []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

var ErrDoctorIssuesFound = errors.New("doctor: issues found")

// Doctor inspects the raw payload under key without changing it. Load is
// lenient and papers over most of what is reported here; Doctor says what it
// would have to paper over.
func (s *Store) Doctor(ctx context.Context, key string) DoctorReport {
	rep := DoctorReport{Key: key, Issues: []DoctorIssue{}}
	add := func(level DoctorIssueLevel, code, path, id, format string, args ...any) {
		rep.Issues = append(rep.Issues, DoctorIssue{
			Level:   level,
			Code:    code,
			Message: fmt.Sprintf(format, args...),
			Path:    path,
			ID:      id,
		})
	}

	b, ok, err := s.slot.Get(ctx, key)
	if err != nil {
		add(DoctorIssueLevelError, "slot_unreadable", "", "", "read %s: %v", key, err)
		return rep
	}
	if !ok || isNullOrEmpty(b) {
		rep.Empty = true
		return rep
	}

	var wire []wireFolder
	if err := json.Unmarshal(b, &wire); err != nil {
		add(DoctorIssueLevelError, "invalid_json", "", "", "stored payload is not a folder array: %v", err)
		return rep
	}
	rep.Folders = len(wire)

	// Folder ids are unique tree-wide, section ids within their folder and
	// item ids within their section. Item ids reused across sections are
	// tolerated but reported.
	checkID := func(kind, id, path string, seen map[string]string) bool {
		if id == "" {
			add(DoctorIssueLevelError, "missing_id", path, "", "%s has no id", kind)
			return false
		}
		if prev, dup := seen[id]; dup {
			add(DoctorIssueLevelError, "duplicate_id", path, id, "%s id is also used by %s", kind, prev)
			return false
		}
		seen[id] = path
		return true
	}
	folderIDs := map[string]string{}
	itemIDs := map[string]string{}

	legacy := 0
	for fi, f := range wire {
		fpath := f.Name
		if fpath == "" {
			fpath = fmt.Sprintf("#%d", fi)
			add(DoctorIssueLevelWarn, "missing_name", fpath, f.ID, "folder has no name")
		}
		checkID("folder", f.ID, fpath, folderIDs)
		if f.Index == nil {
			legacy++
		}
		if f.Sections == nil {
			add(DoctorIssueLevelWarn, "null_sections", fpath, f.ID, "folder has no sections array")
		}

		sectionIDs := map[string]string{}
		for si, sec := range f.Sections {
			spath := fpath + "/" + sec.Name
			if sec.Name == "" {
				spath = fmt.Sprintf("%s/#%d", fpath, si)
				add(DoctorIssueLevelWarn, "missing_name", spath, sec.ID, "section has no name")
			}
			checkID("section", sec.ID, spath, sectionIDs)
			if sec.Items == nil {
				add(DoctorIssueLevelWarn, "null_items", spath, sec.ID, "section has no items array")
			}

			sectionItemIDs := map[string]string{}
			indices := map[int]string{}
			for ii, it := range sec.Items {
				rep.Items++
				ipath := spath + "/" + it.Name
				if it.Name == "" {
					ipath = fmt.Sprintf("%s/#%d", spath, ii)
					add(DoctorIssueLevelWarn, "missing_name", ipath, it.ID, "item has no name")
				}
				if checkID("item", it.ID, ipath, sectionItemIDs) {
					if other, shared := itemIDs[it.ID]; shared {
						add(DoctorIssueLevelWarn, "shared_item_id", ipath, it.ID, "item id is also used by %s", other)
					} else {
						itemIDs[it.ID] = ipath
					}
				}
				if it.Sensitive == nil || it.Index == nil {
					legacy++
				}
				idx := 0
				if it.Index != nil {
					idx = *it.Index
				}
				if other, clash := indices[idx]; clash {
					add(DoctorIssueLevelWarn, "index_collision", ipath, it.ID, "index %d is shared with %s; order between them follows storage", idx, other)
				} else {
					indices[idx] = ipath
				}
			}
		}
	}

	if legacy > 0 {
		add(DoctorIssueLevelWarn, "needs_migration", "", "", "%d record(s) lack index or sensitive fields; the next save writes them", legacy)
	}
	return rep
}
