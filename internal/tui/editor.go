package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"saver-cli/internal/mutate"
)

// editorDoneMsg carries the temp file back once the editor exits. The item is
// addressed by id so a tree adopted meanwhile cannot redirect the write.
type editorDoneMsg struct {
	folderID, sectionID, itemID string

	path   string
	before string
	err    error
}

func editorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// editValue suspends the TUI and opens the current item's value in $VISUAL or
// $EDITOR.
func (m *App) editValue() tea.Cmd {
	it, ok := m.currentItem()
	if !ok || m.focus != FocusItems {
		return nil
	}
	argv := splitCommand(editorName())
	if len(argv) == 0 {
		argv = []string{"vi"}
	}

	f, err := os.CreateTemp("", "saver-value-*.txt")
	if err != nil {
		m.setError(err)
		return nil
	}
	path := f.Name()
	if _, err := f.WriteString(it.Value); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		m.setError(err)
		return nil
	}
	_ = f.Close()

	sel := m.state.Selection
	done := editorDoneMsg{folderID: sel.FolderID, sectionID: sel.SectionID, itemID: it.ID, path: path, before: it.Value}
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		done.err = err
		return done
	})
}

func (m *App) applyEditorResult(msg editorDoneMsg) {
	defer func() { _ = os.Remove(msg.path) }()

	if msg.err != nil {
		m.log.Warn("editor failed", zap.String("editor", editorName()), zap.Error(msg.err))
		m.setError(fmt.Errorf("editor failed: %w", msg.err))
		return
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		m.setError(fmt.Errorf("read edited value: %w", err))
		return
	}
	// Editors append a final newline the value never had.
	after := strings.TrimSuffix(string(b), "\n")
	if after == msg.before {
		m.setStatus("no changes from " + editorName())
		return
	}

	it, err := mutate.ResolveItem(m.state.Tree, msg.folderID, msg.sectionID, msg.itemID)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("updated " + it.Name + " from " + editorName())
	m.commit(mutate.UpdateItem(m.state, msg.folderID, msg.sectionID, msg.itemID, mutate.ItemPatch{Value: &after}))
}

// splitCommand turns an editor setting such as `code --wait` into argv.
// Quotes group words and a backslash escapes the next rune outside single
// quotes.
func splitCommand(s string) []string {
	var (
		args  []string
		word  strings.Builder
		quote rune
		inArg bool
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && quote != '\'' && i+1 < len(runes):
			i++
			word.WriteRune(runes[i])
			inArg = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			inArg = true
		case quote == 0 && (r == ' ' || r == '\t' || r == '\n'):
			if inArg {
				args = append(args, word.String())
				word.Reset()
				inArg = false
			}
		default:
			word.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, word.String())
	}
	return args
}
