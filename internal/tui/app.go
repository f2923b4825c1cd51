package tui

import (
	"context"
	"errors"

	"saver-cli/internal/clipboard"
	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/search"
	"saver-cli/internal/store"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Focus int

const (
	FocusFolders Focus = iota
	FocusSections
	FocusItems
)

type Mode int

const (
	ModeNormal Mode = iota
	ModePrompt
	ModeConfirm
	ModeSearch
	ModeMove
	ModeHelp
	ModeExport
)

type promptKind int

const (
	promptAddFolder promptKind = iota
	promptAddSection
	promptAddItemName
	promptAddItemValue
	promptRenameFolder
	promptRenameSection
	promptEditItemName
	promptEditItemValue
	promptSearch
	promptImport
)

// Options wires the TUI to a store. Store may be nil, in which case edits only
// live in memory.
type Options struct {
	Store     *store.Store
	Key       string
	Tree      model.Tree
	Clipboard clipboard.Writer
	Log       *zap.Logger
}

// treeMsg carries a tree adopted from another instance.
type treeMsg struct{ tree model.Tree }

type confirmTarget struct {
	kind      Focus
	folderID  string
	sectionID string
	itemID    string
	label     string
}

type moveTarget struct {
	folderID  string
	sectionID string
	label     string
}

type App struct {
	ctx     context.Context
	store   *store.Store
	key     string
	clip    clipboard.Writer
	log     *zap.Logger
	updates <-chan model.Tree

	state      model.State
	focus      Focus
	itemCursor int
	revealed   map[string]bool
	drag       mutate.Drag
	dragPos    int

	mode        Mode
	prompt      promptKind
	input       textinput.Model
	pendingName string
	confirm     confirmTarget

	results      search.Result
	resultCursor int

	moveTargets      []moveTarget
	moveTargetCursor int

	exportText string

	status    string
	statusErr bool

	width  int
	height int
}

func NewApp(opts Options) App {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	key := opts.Key
	if key == "" {
		key = store.DefaultKey
	}
	in := textinput.New()
	in.CharLimit = 500
	in.Width = 40

	return App{
		ctx:      context.Background(),
		store:    opts.Store,
		key:      key,
		clip:     opts.Clipboard,
		log:      log,
		state:    model.State{Tree: opts.Tree, Selection: mutate.SelectFirst(opts.Tree)},
		revealed: map[string]bool{},
		input:    in,
		width:    100,
		height:   30,
	}
}

// Run loads the tree, follows changes from other instances and blocks until
// the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	if opts.Store != nil {
		opts.Tree = opts.Store.Load(ctx, opts.Key, model.Tree{})
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.System{}
	}
	m := NewApp(opts)
	m.ctx = ctx

	if opts.Store != nil {
		ch, cancel, err := opts.Store.Subscribe(ctx, m.key)
		if err != nil {
			m.log.Warn("live updates disabled", zap.Error(err))
		} else {
			defer cancel()
			m.updates = ch
		}
	}

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// WithUpdates feeds trees from ch into the model as if they came from
// another instance.
func (m App) WithUpdates(ch <-chan model.Tree) App {
	m.updates = ch
	return m
}

func (m App) Init() tea.Cmd { return waitForTree(m.updates) }

func waitForTree(ch <-chan model.Tree) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return treeMsg{tree: t}
	}
}

func (m App) State() model.State { return m.state }
func (m App) Focus() Focus       { return m.focus }
func (m App) Mode() Mode         { return m.mode }
func (m App) ItemCursor() int    { return m.itemCursor }
func (m App) Status() string     { return m.status }
func (m App) Dragging() bool     { return m.drag.Active() }
func (m App) ExportText() string { return m.exportText }
func (m App) Results() []search.Match {
	return m.results.Matches
}

func (m App) Revealed(itemID string) bool { return m.revealed[itemID] }

// commit adopts next and persists it. A failed save keeps the in-memory
// state and reports the error in the status line.
func (m *App) commit(next model.State) {
	m.state = next
	m.clampCursor()
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.ctx, m.key, next.Tree); err != nil {
		m.setError(err)
	}
}

func (m *App) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *App) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m App) activeFolder() (model.Folder, bool) {
	f, _, ok := m.state.Tree.FindFolder(m.state.Selection.FolderID)
	return f, ok
}

func (m App) activeSection() (model.Section, bool) {
	s, _, ok := m.state.Tree.FindSection(m.state.Selection.FolderID, m.state.Selection.SectionID)
	return s, ok
}

func (m App) activeItems() []model.Item {
	s, ok := m.activeSection()
	if !ok {
		return nil
	}
	return model.SortedItems(s)
}

func (m App) currentItem() (model.Item, bool) {
	items := m.activeItems()
	if m.itemCursor < 0 || m.itemCursor >= len(items) {
		return model.Item{}, false
	}
	return items[m.itemCursor], true
}

func (m *App) clampCursor() {
	n := len(m.activeItems())
	if m.itemCursor >= n {
		m.itemCursor = n - 1
	}
	if m.itemCursor < 0 {
		m.itemCursor = 0
	}
}

func (m App) folderPos() int {
	for i, f := range model.SortedFolders(m.state.Tree) {
		if f.ID == m.state.Selection.FolderID {
			return i
		}
	}
	return -1
}

func (m App) sectionPos() int {
	f, ok := m.activeFolder()
	if !ok {
		return -1
	}
	_, idx, ok := f.FindSection(m.state.Selection.SectionID)
	if !ok {
		return -1
	}
	return idx
}
