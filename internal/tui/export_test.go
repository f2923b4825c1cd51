package tui

import tea "github.com/charmbracelet/bubbletea"

var SplitCommand = splitCommand

// EditorDone builds the message the editor command reports when it exits.
func EditorDone(folderID, sectionID, itemID, path, before string, err error) tea.Msg {
	return editorDoneMsg{folderID: folderID, sectionID: sectionID, itemID: itemID, path: path, before: before, err: err}
}
