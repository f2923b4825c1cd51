package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"saver-cli/internal/publish"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	// Raw HTML is not passed through (no html.WithUnsafe).
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	// Trusted only because raw HTML is disabled above.
	return template.HTML(b.String())
}

var printPage = template.Must(template.New("print").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Saver</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: .3rem .6rem; text-align: left; }
td:last-child { font-family: ui-monospace, monospace; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

// handlePrint serves the Markdown sheet as a printable page. Values stay
// masked unless ?reveal=1; ?folder=<id> limits it to one folder.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	md, err := publish.RenderMarkdown(s.load(r.Context()).Tree, publish.RenderOptions{
		Reveal:   q.Get("reveal") == "1",
		FolderID: q.Get("folder"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := printPage.Execute(w, renderMarkdownHTML(md)); err != nil {
		s.log.Debug("write print page", zap.Error(err))
	}
}
