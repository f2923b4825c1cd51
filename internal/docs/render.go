package docs

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	rendererMu sync.Mutex
	// Keyed by style + wrap width. A fixed style avoids WithAutoStyle, which
	// can block on terminal background queries.
	renderers = map[string]*glamour.TermRenderer{}
)

// Style picks the glamour style: SAVER_MD_STYLE if set, "notty" when colors
// are disabled, otherwise "dark".
func Style() string {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("SAVER_MD_STYLE"))); v != "" {
		return v
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return "notty"
	}
	return "dark"
}

// Render formats markdown for a terminal of the given width. On any renderer
// error the markdown is returned unchanged.
func Render(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	style := Style()
	key := style + ":" + strconv.Itoa(width)

	rendererMu.Lock()
	r := renderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			rendererMu.Unlock()
			return md
		}
		renderers[key] = rr
		r = rr
	}
	rendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
