package publish

import (
	"bytes"
	"fmt"
	"strings"

	"saver-cli/internal/format"
	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
)

type RenderOptions struct {
	// Reveal prints sensitive values instead of the mask.
	Reveal bool
	// FolderID limits the sheet to one folder.
	FolderID string
}

// RenderMarkdown renders the tree as a printable sheet: one heading per folder
// and section, items as a name/value table in display order.
func RenderMarkdown(t model.Tree, opt RenderOptions) (string, error) {
	folders := model.SortedFolders(t)
	if id := strings.TrimSpace(opt.FolderID); id != "" {
		f, err := mutate.ResolveFolder(t, id)
		if err != nil {
			return "", err
		}
		folders = []model.Folder{f}
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	items := 0
	for _, f := range folders {
		for _, s := range f.Sections {
			items += len(s.Items)
		}
	}
	writeLn("# Saver")
	writeLn("")
	writeLn(fmt.Sprintf("%d folder(s), %d item(s).", len(folders), items))
	if !opt.Reveal {
		writeLn("Sensitive values are masked.")
	}

	for _, f := range folders {
		writeLn("")
		writeLn("## " + inline(f.Name))
		if len(f.Sections) == 0 {
			writeLn("")
			writeLn("_No sections._")
			continue
		}
		for _, s := range f.Sections {
			writeLn("")
			writeLn("### " + inline(s.Name))
			writeLn("")
			if len(s.Items) == 0 {
				writeLn("_No items._")
				continue
			}
			writeLn("| Name | Value |")
			writeLn("| --- | --- |")
			for _, it := range model.SortedItems(s) {
				writeLn("| " + cell(it.Name) + " | " + cell(format.Mask(it, opt.Reveal)) + " |")
			}
		}
	}
	return buf.String(), nil
}

var inlineEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"<", "&lt;",
	">", "&gt;",
)

// inline escapes text so markdown emphasis, links and HTML in names render
// literally.
func inline(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return inlineEscaper.Replace(s)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = inline(strings.ReplaceAll(s, "\n", " "))
	return strings.ReplaceAll(s, "|", "\\|")
}
