package mutate

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"saver-cli/internal/model"
)

const (
	folderIDPrefix  = "fld"
	sectionIDPrefix = "sec"
	itemIDPrefix    = "itm"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// newID returns an id that is not used anywhere in t.
// Generated ids are unique tree-wide even though sections and items only
// require uniqueness inside their parent.
func newID(t model.Tree, prefix string) string {
	for attempt := 0; ; attempt++ {
		id, err := newRandomID(prefix)
		if err != nil {
			id = fmt.Sprintf("%s-%08d", prefix, attempt)
		}
		if !idExists(t, id) {
			return id
		}
	}
}

func idExists(t model.Tree, id string) bool {
	for _, f := range t {
		if f.ID == id {
			return true
		}
		for _, s := range f.Sections {
			if s.ID == id {
				return true
			}
			for _, it := range s.Items {
				if it.ID == id {
					return true
				}
			}
		}
	}
	return false
}
