package tui

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"saver-cli/internal/clipboard"
	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/search"
	"saver-cli/internal/transfer"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-20)
		return m, nil

	case treeMsg:
		m.adopt(msg.tree)
		return m, waitForTree(m.updates)

	case editorDoneMsg:
		m.applyEditorResult(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case ModePrompt:
			return m.updatePrompt(msg)
		case ModeConfirm:
			return m.updateConfirm(msg)
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeMove:
			return m.updateMove(msg)
		case ModeHelp, ModeExport:
			switch msg.String() {
			case "esc", "q", "?", "enter":
				m.mode = ModeNormal
				m.exportText = ""
			}
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

// adopt replaces the tree with one written elsewhere, keeping the local
// selection where it still resolves.
func (m *App) adopt(t model.Tree) {
	m.state = mutate.RepairSelection(model.State{Tree: t, Selection: m.state.Selection})
	if m.drag.Active() && !m.dragSourceExists() {
		m.drag.Cancel()
	}
	if m.mode == ModeConfirm || m.mode == ModeMove {
		m.mode = ModeNormal
	}
	m.clampCursor()
	m.setStatus("updated from another instance")
}

func (m App) dragSourceExists() bool {
	switch m.drag.Kind {
	case mutate.DragItem:
		_, _, ok := m.state.Tree.FindItem(m.drag.FolderID, m.drag.SectionID, m.drag.SourceID)
		return ok
	case mutate.DragFolder:
		_, _, ok := m.state.Tree.FindFolder(m.drag.SourceID)
		return ok
	}
	return false
}

func (m App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.drag.Active() {
		return m.updateDrag(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "l", "right":
		if m.focus < FocusItems {
			m.focus++
		}
	case "shift+tab", "h", "left":
		if m.focus > FocusFolders {
			m.focus--
		}
	case "enter":
		if m.focus < FocusItems {
			m.focus++
		}
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "a":
		m.startAdd()
	case "r":
		m.startRename()
	case "d":
		m.startDelete()
	case " ":
		if it, ok := m.currentItem(); ok && m.focus == FocusItems {
			m.revealed[it.ID] = !m.revealed[it.ID]
		}
	case "s":
		m.toggleSensitive()
	case "E":
		cmd := m.editValue()
		return m, cmd
	case "y":
		m.copyValue()
	case "g":
		m.startDrag()
	case "m":
		m.startMove()
	case "/":
		m.openPrompt(promptSearch, "")
	case "i":
		m.openPrompt(promptImport, "")
	case "e":
		m.export()
	case "?":
		m.mode = ModeHelp
	}
	return m, nil
}

func (m *App) moveCursor(delta int) {
	switch m.focus {
	case FocusFolders:
		folders := model.SortedFolders(m.state.Tree)
		pos := clamp(m.folderPos()+delta, 0, len(folders)-1)
		if pos >= 0 {
			m.state = mutate.SelectFolder(m.state, folders[pos].ID)
			m.itemCursor = 0
		}
	case FocusSections:
		f, ok := m.activeFolder()
		if !ok {
			return
		}
		pos := clamp(m.sectionPos()+delta, 0, len(f.Sections)-1)
		if pos >= 0 {
			m.state = mutate.SelectSection(m.state, f.ID, f.Sections[pos].ID)
			m.itemCursor = 0
		}
	case FocusItems:
		m.itemCursor = clamp(m.itemCursor+delta, 0, len(m.activeItems())-1)
		if m.itemCursor < 0 {
			m.itemCursor = 0
		}
	}
}

// clamp bounds v to [lo, hi]; an empty range (hi < lo) yields hi.
func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func (m *App) openPrompt(kind promptKind, value string) {
	m.mode = ModePrompt
	m.prompt = kind
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *App) startAdd() {
	sel := m.state.Selection
	switch m.focus {
	case FocusFolders:
		m.openPrompt(promptAddFolder, "")
	case FocusSections:
		if sel.FolderID == "" {
			m.setStatus("add a folder first")
			return
		}
		m.openPrompt(promptAddSection, "")
	case FocusItems:
		if sel.SectionID == "" {
			m.setStatus("add a section first")
			return
		}
		m.pendingName = ""
		m.openPrompt(promptAddItemName, "")
	}
}

func (m *App) startRename() {
	switch m.focus {
	case FocusFolders:
		if f, ok := m.activeFolder(); ok {
			m.openPrompt(promptRenameFolder, f.Name)
		}
	case FocusSections:
		if s, ok := m.activeSection(); ok {
			m.openPrompt(promptRenameSection, s.Name)
		}
	case FocusItems:
		if it, ok := m.currentItem(); ok {
			m.pendingName = ""
			m.openPrompt(promptEditItemName, it.Name)
		}
	}
}

func (m *App) startDelete() {
	sel := m.state.Selection
	switch m.focus {
	case FocusFolders:
		if f, ok := m.activeFolder(); ok {
			m.confirm = confirmTarget{kind: FocusFolders, folderID: f.ID, label: fmt.Sprintf("folder %q and everything in it", f.Name)}
			m.mode = ModeConfirm
		}
	case FocusSections:
		if s, ok := m.activeSection(); ok {
			m.confirm = confirmTarget{kind: FocusSections, folderID: sel.FolderID, sectionID: s.ID, label: fmt.Sprintf("section %q and its items", s.Name)}
			m.mode = ModeConfirm
		}
	case FocusItems:
		if it, ok := m.currentItem(); ok {
			m.confirm = confirmTarget{kind: FocusItems, folderID: sel.FolderID, sectionID: sel.SectionID, itemID: it.ID, label: fmt.Sprintf("item %q", it.Name)}
			m.mode = ModeConfirm
		}
	}
}

func (m *App) toggleSensitive() {
	it, ok := m.currentItem()
	if !ok || m.focus != FocusItems {
		return
	}
	flag := !it.Sensitive
	sel := m.state.Selection
	m.commit(mutate.UpdateItem(m.state, sel.FolderID, sel.SectionID, it.ID, mutate.ItemPatch{Sensitive: &flag}))
	if flag {
		m.setStatus(it.Name + " is now hidden")
	} else {
		m.setStatus(it.Name + " is now shown")
	}
}

func (m *App) copyValue() {
	it, ok := m.currentItem()
	if !ok || m.focus != FocusItems {
		return
	}
	if m.clip == nil {
		m.setError(clipboard.ErrUnavailable)
		return
	}
	if err := m.clip.WriteAll(it.Value); err != nil {
		m.log.Warn("copy failed", zap.Error(err))
		m.setError(fmt.Errorf("copy %s: %w", it.Name, err))
		return
	}
	m.setStatus("copied " + it.Name)
}

func (m *App) export() {
	b, err := transfer.Export(m.state.Tree)
	if err != nil {
		m.setError(err)
		return
	}
	var buf bytes.Buffer
	copied, err := clipboard.Deliver(m.clip, &buf, string(b))
	if err != nil {
		m.setError(err)
		return
	}
	if copied {
		m.setStatus(fmt.Sprintf("exported %d folders to the clipboard", len(m.state.Tree)))
		return
	}
	m.log.Warn("clipboard unavailable; showing export")
	m.exportText = buf.String()
	m.mode = ModeExport
}

func (m *App) startDrag() {
	switch m.focus {
	case FocusFolders:
		if f, ok := m.activeFolder(); ok {
			m.drag = mutate.StartFolderDrag(f.ID)
			m.dragPos = m.folderPos()
			m.setStatus("moving " + f.Name + ": j/k to place, g or enter to drop, esc to cancel")
		}
	case FocusItems:
		if it, ok := m.currentItem(); ok {
			sel := m.state.Selection
			m.drag = mutate.StartItemDrag(sel.FolderID, sel.SectionID, it.ID)
			m.dragPos = m.itemCursor
			m.setStatus("moving " + it.Name + ": j/k to place, g or enter to drop, esc to cancel")
		}
	}
}

func (m App) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.drag.Cancel()
		m.setStatus("move cancelled")
	case "j", "down":
		m.hover(1)
	case "k", "up":
		m.hover(-1)
	case "g", "enter":
		kind := m.drag.Kind
		pos := m.dragPos
		next, ok := m.drag.Drop(m.state)
		if !ok {
			m.setStatus("")
			return m, nil
		}
		m.commit(next)
		if kind == mutate.DragItem {
			m.itemCursor = pos
			m.clampCursor()
		}
		m.setStatus("moved")
	}
	return m, nil
}

func (m *App) hover(delta int) {
	switch m.drag.Kind {
	case mutate.DragFolder:
		folders := model.SortedFolders(m.state.Tree)
		m.dragPos = clamp(m.dragPos+delta, 0, len(folders)-1)
		m.drag.Hover(mutate.DropTarget{FolderID: folders[m.dragPos].ID})
	case mutate.DragItem:
		items := m.activeItems()
		if len(items) == 0 {
			return
		}
		m.dragPos = clamp(m.dragPos+delta, 0, len(items)-1)
		m.drag.Hover(mutate.DropTarget{
			FolderID:  m.drag.FolderID,
			SectionID: m.drag.SectionID,
			ItemID:    items[m.dragPos].ID,
		})
	}
}

func (m *App) startMove() {
	it, ok := m.currentItem()
	if !ok || m.focus != FocusItems {
		return
	}
	sel := m.state.Selection
	var targets []moveTarget
	for _, f := range model.SortedFolders(m.state.Tree) {
		for _, s := range f.Sections {
			if f.ID == sel.FolderID && s.ID == sel.SectionID {
				continue
			}
			targets = append(targets, moveTarget{folderID: f.ID, sectionID: s.ID, label: f.Name + " / " + s.Name})
		}
	}
	if len(targets) == 0 {
		m.setStatus("no other section to move " + it.Name + " to")
		return
	}
	m.moveTargets = targets
	m.moveTargetCursor = 0
	m.mode = ModeMove
}

func (m App) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeNormal
	case "j", "down":
		m.moveTargetCursor = clamp(m.moveTargetCursor+1, 0, len(m.moveTargets)-1)
	case "k", "up":
		m.moveTargetCursor = clamp(m.moveTargetCursor-1, 0, len(m.moveTargets)-1)
	case "enter":
		m.mode = ModeNormal
		it, ok := m.currentItem()
		if !ok || m.moveTargetCursor >= len(m.moveTargets) {
			return m, nil
		}
		dst := m.moveTargets[m.moveTargetCursor]
		sel := m.state.Selection
		d := mutate.StartItemDrag(sel.FolderID, sel.SectionID, it.ID)
		d.Hover(mutate.DropTarget{FolderID: dst.folderID, SectionID: dst.sectionID})
		if next, ok := d.Drop(m.state); ok {
			m.commit(next)
			m.setStatus("moved " + it.Name + " to " + dst.label)
		}
	}
	return m, nil
}

func (m App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		c := m.confirm
		m.mode = ModeNormal
		switch c.kind {
		case FocusFolders:
			m.commit(mutate.DeleteFolder(m.state, c.folderID))
		case FocusSections:
			m.commit(mutate.DeleteSection(m.state, c.folderID, c.sectionID))
		case FocusItems:
			m.commit(mutate.DeleteItem(m.state, c.folderID, c.sectionID, c.itemID))
		}
		m.setStatus("deleted " + c.label)
	case "n", "esc", "q":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m App) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		m.mode = ModeNormal
		m.input.Blur()
		m.submitPrompt(value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *App) submitPrompt(value string) {
	sel := m.state.Selection
	name := strings.TrimSpace(value)

	switch m.prompt {
	case promptAddFolder:
		if name == "" {
			m.setStatus("folder name is required")
			return
		}
		next, _ := mutate.AddFolder(m.state, name)
		m.commit(next)
		m.itemCursor = 0
	case promptAddSection:
		if name == "" {
			m.setStatus("section name is required")
			return
		}
		next, _ := mutate.AddSection(m.state, sel.FolderID, name)
		m.commit(next)
		m.itemCursor = 0
	case promptAddItemName:
		if name == "" {
			m.setStatus("item name is required")
			return
		}
		m.pendingName = name
		m.openPrompt(promptAddItemValue, "")
	case promptAddItemValue:
		next, _ := mutate.AddItem(m.state, sel.FolderID, sel.SectionID, m.pendingName, value, true)
		m.commit(next)
		m.itemCursor = len(m.activeItems()) - 1
		m.clampCursor()
		m.pendingName = ""
	case promptRenameFolder:
		if name != "" {
			m.commit(mutate.UpdateFolder(m.state, sel.FolderID, name))
		}
	case promptRenameSection:
		if name != "" {
			m.commit(mutate.UpdateSection(m.state, sel.FolderID, sel.SectionID, name))
		}
	case promptEditItemName:
		it, ok := m.currentItem()
		if !ok || name == "" {
			return
		}
		m.pendingName = name
		m.openPrompt(promptEditItemValue, it.Value)
	case promptEditItemValue:
		it, ok := m.currentItem()
		if !ok {
			return
		}
		newName := m.pendingName
		m.commit(mutate.UpdateItem(m.state, sel.FolderID, sel.SectionID, it.ID, mutate.ItemPatch{Name: &newName, Value: &value}))
		m.pendingName = ""
	case promptSearch:
		m.results = search.Search(m.state.Tree, value)
		m.resultCursor = 0
		m.mode = ModeSearch
	case promptImport:
		m.importFile(name)
	}
}

func (m *App) importFile(path string) {
	if path == "" {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		m.setError(err)
		return
	}
	next, err := transfer.Import(m.state, b)
	if err != nil {
		m.setError(err)
		return
	}
	m.commit(next)
	m.focus = FocusFolders
	m.itemCursor = 0
	m.setStatus(fmt.Sprintf("imported %d folders", len(next.Tree)))
}

func (m App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeNormal
	case "/":
		m.openPrompt(promptSearch, m.results.Query)
	case "j", "down":
		m.resultCursor = clamp(m.resultCursor+1, 0, len(m.results.Matches)-1)
	case "k", "up":
		m.resultCursor = clamp(m.resultCursor-1, 0, len(m.results.Matches)-1)
	case "enter":
		if m.resultCursor < 0 || m.resultCursor >= len(m.results.Matches) {
			return m, nil
		}
		hit := m.results.Matches[m.resultCursor]
		m.state = mutate.SelectSection(m.state, hit.Folder.ID, hit.Section.ID)
		m.focus = FocusItems
		m.itemCursor = 0
		for i, it := range m.activeItems() {
			if it.ID == hit.Item.ID {
				m.itemCursor = i
			}
		}
		m.mode = ModeNormal
	}
	return m, nil
}
