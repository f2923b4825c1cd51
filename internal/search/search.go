// Package search scans a tree for a query and returns flattened
// (folder, section, item) matches.
package search

import (
	"strings"

	"saver-cli/internal/model"
)

// Match is one item surfaced by a query together with the path to it.
type Match struct {
	Folder  model.Folder  `json:"folder"`
	Section model.Section `json:"section"`
	Item    model.Item    `json:"item"`
}

// Result distinguishes "no query issued" (Searched=false) from "query issued,
// nothing found" (Searched=true, no Matches).
type Result struct {
	Query    string  `json:"query"`
	Searched bool    `json:"searched"`
	Matches  []Match `json:"matches"`
}

// Search does a case-insensitive substring scan in storage order. An item is
// included when the query occurs in its folder's name, its section's name, its
// own name or its value, so a folder or section match surfaces every item
// beneath it.
func Search(t model.Tree, query string) Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Matches: []Match{}}
	}
	term := strings.ToLower(q)
	res := Result{Query: q, Searched: true, Matches: []Match{}}
	for _, f := range t {
		folderHit := contains(f.Name, term)
		for _, s := range f.Sections {
			sectionHit := folderHit || contains(s.Name, term)
			for _, it := range s.Items {
				if sectionHit || contains(it.Name, term) || contains(it.Value, term) {
					res.Matches = append(res.Matches, Match{Folder: f, Section: s, Item: it})
				}
			}
		}
	}
	return res
}

func contains(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

// Path renders the match location as "Folder / Section / Item".
func (m Match) Path() string {
	return m.Folder.Name + " / " + m.Section.Name + " / " + m.Item.Name
}
