package tui

import (
	"fmt"
	"strings"

	"saver-cli/internal/docs"
	"saver-cli/internal/format"
	"saver-cli/internal/model"
	"saver-cli/internal/mutate"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const footerHints = "a add  r rename  d delete  space reveal  s sensitive  E editor  y copy  g grab  m move  / search  e export  i import  ? help  q quit"

func (m App) View() string {
	header := styleHeading().Render("saver") + styleMuted().Render("  "+m.key)

	var body string
	switch m.mode {
	case ModeHelp:
		md, _ := docs.Get("tui")
		body = docs.Render(md, m.width-4)
	case ModeExport:
		body = styleMuted().Render("Clipboard unavailable. Select the export by hand, esc to close.") + "\n\n" + m.exportText
	case ModeSearch:
		body = m.viewResults()
	case ModeMove:
		body = m.viewMoveTargets()
	default:
		body = m.viewColumns()
	}

	return strings.Join([]string{header, body, m.viewFooter()}, "\n\n")
}

func (m App) viewFooter() string {
	switch m.mode {
	case ModePrompt:
		return promptLabel(m.prompt, m.pendingName) + " " + m.input.View()
	case ModeConfirm:
		return "Delete " + m.confirm.label + "? (y/n)"
	}
	var lines []string
	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = styleError()
		}
		lines = append(lines, st.Render(truncate(m.status, m.width)))
	}
	lines = append(lines, styleMuted().Render(truncate(footerHints, m.width)))
	return strings.Join(lines, "\n")
}

func promptLabel(k promptKind, pending string) string {
	switch k {
	case promptAddFolder:
		return "New folder:"
	case promptAddSection:
		return "New section:"
	case promptAddItemName:
		return "Item name:"
	case promptAddItemValue, promptEditItemValue:
		return "Value for " + pending + ":"
	case promptRenameFolder:
		return "Rename folder:"
	case promptRenameSection:
		return "Rename section:"
	case promptEditItemName:
		return "Item name:"
	case promptSearch:
		return "Search:"
	case promptImport:
		return "Import file:"
	}
	return ">"
}

func (m App) columnWidth() int {
	// Two border columns and two padding columns per box.
	w := m.width/3 - 4
	if w < 12 {
		w = 12
	}
	return w
}

func (m App) visibleRows() int {
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m App) viewColumns() string {
	w := m.columnWidth()
	sel := m.state.Selection

	var folderRows []string
	folderCursor := -1
	for i, f := range model.SortedFolders(m.state.Tree) {
		label := f.Name
		if m.drag.Kind == mutate.DragFolder {
			label = dragMarker(f.ID == m.drag.SourceID, i == m.dragPos) + label
		}
		folderRows = append(folderRows, label)
		if f.ID == sel.FolderID {
			folderCursor = i
		}
	}

	var sectionRows []string
	sectionCursor := -1
	if f, ok := m.activeFolder(); ok {
		for i, s := range f.Sections {
			sectionRows = append(sectionRows, s.Name)
			if s.ID == sel.SectionID {
				sectionCursor = i
			}
		}
	}

	var itemRows []string
	for i, it := range m.activeItems() {
		label := it.Name + "  " + styleMuted().Render(format.Mask(it, m.revealed[it.ID]))
		if m.drag.Kind == mutate.DragItem {
			label = dragMarker(it.ID == m.drag.SourceID, i == m.dragPos) + label
		}
		itemRows = append(itemRows, label)
	}
	itemCursor := -1
	if len(itemRows) > 0 {
		itemCursor = m.itemCursor
		if m.drag.Kind == mutate.DragItem {
			itemCursor = m.dragPos
		}
	}
	if m.drag.Kind == mutate.DragFolder {
		folderCursor = m.dragPos
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderColumn("Folders", folderRows, folderCursor, m.focus == FocusFolders, w, "no folders, press a"),
		m.renderColumn("Sections", sectionRows, sectionCursor, m.focus == FocusSections, w, "no sections"),
		m.renderColumn("Items", itemRows, itemCursor, m.focus == FocusItems, w, "no items"),
	)
}

func dragMarker(source, over bool) string {
	switch {
	case source:
		return "≡ "
	case over:
		return "→ "
	}
	return "  "
}

func (m App) renderColumn(title string, rows []string, cursor int, focused bool, width int, empty string) string {
	lines := []string{styleHeading().Render(title)}
	if len(rows) == 0 {
		lines = append(lines, styleMuted().Render(empty))
	}

	visible := m.visibleRows()
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	for i := start; i < len(rows) && i < start+visible; i++ {
		row := truncate(rows[i], width)
		if i == cursor {
			if focused {
				row = styleSelected().Render(row)
			} else {
				row = lipgloss.NewStyle().Bold(true).Render(row)
			}
		}
		lines = append(lines, row)
	}
	return styleColumn(focused, width).Render(strings.Join(lines, "\n"))
}

func (m App) viewResults() string {
	r := m.results
	if !r.Searched {
		return styleMuted().Render("(no query)")
	}
	if len(r.Matches) == 0 {
		return styleMuted().Render(fmt.Sprintf("no matches for %q", r.Query))
	}
	lines := []string{styleHeading().Render(fmt.Sprintf("%d matches for %q", len(r.Matches), r.Query))}
	for i, hit := range r.Matches {
		row := truncate(hit.Path()+"  "+format.Mask(hit.Item, m.revealed[hit.Item.ID]), m.width-2)
		if i == m.resultCursor {
			row = styleSelected().Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m App) viewMoveTargets() string {
	it, _ := m.currentItem()
	lines := []string{styleHeading().Render("Move " + it.Name + " to")}
	for i, t := range m.moveTargets {
		row := truncate(t.label, m.width-2)
		if i == m.moveTargetCursor {
			row = styleSelected().Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
