// ABOUTME: Bubble Tea model for the chat interface
// ABOUTME: Sidebar of conversations, streaming chat viewport, question input

package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/tutorchat/internal/conversation"
	"github.com/2389/tutorchat/internal/export"
	"github.com/2389/tutorchat/internal/store"
	"github.com/2389/tutorchat/internal/transport"
)

// Core is the slice of the conversation controller the interface drives.
type Core interface {
	Ask(ctx context.Context, question string)
	Stop(ctx context.Context)
	CreateConversation(ctx context.Context) store.Conversation
	SelectConversation(ctx context.Context, id string)
	DeleteSelected(ctx context.Context)
	ToggleSelection(id string)
	Snapshot() conversation.Snapshot
	Subscribe(ctx context.Context) (<-chan conversation.Snapshot, string)
}

// focus identifies which pane receives key input.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Messages delivered into the Bubble Tea loop.
type (
	snapshotMsg  conversation.Snapshot
	connStateMsg transport.ConnState
	exportDoneMsg struct {
		path string
		err  error
	}
)

// Options configures the chat interface.
type Options struct {
	Core Core
	// ConnStates carries transport connection changes; may be nil.
	ConnStates <-chan transport.ConnState
	// RecommendedQuestions are offered when the conversation is empty.
	RecommendedQuestions []string
	// ExportDir receives transcripts written by the export key.
	ExportDir string
	Logger    *slog.Logger
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	core   Core
	logger *slog.Logger
	keys   KeyMap

	snapshots  <-chan conversation.Snapshot
	connStates <-chan transport.ConnState

	// Live state, refreshed from snapshots.
	snap      conversation.Snapshot
	connected bool

	// UI components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	markdown *renderer

	focus        focus
	cursor       int // sidebar row under the cursor
	showThoughts bool
	statusLine   string

	recommended []string
	exportDir   string

	width  int
	height int
	ready  bool
}

// New builds the chat interface model. The subscription context should
// outlive the program; cancelling it stops snapshot delivery.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textarea.New()
	input.Placeholder = "Ask your tutor..."
	input.CharLimit = 4000
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	snapshots, _ := opts.Core.Subscribe(ctx)

	return Model{
		core:        opts.Core,
		logger:      logger.With("component", "tui"),
		keys:        DefaultKeyMap(),
		snapshots:   snapshots,
		connStates:  opts.ConnStates,
		snap:        opts.Core.Snapshot(),
		input:       input,
		spinner:     sp,
		recommended: opts.RecommendedQuestions,
		exportDir:   opts.ExportDir,
	}
}

// Init starts the snapshot and connection-state pumps.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitSnapshot(), m.spinner.Tick, textarea.Blink}
	if m.connStates != nil {
		cmds = append(cmds, m.waitConnState())
	}
	return tea.Batch(cmds...)
}

// waitSnapshot blocks on the next state snapshot. Returns nil when the
// subscription channel closes (controller shutdown).
func (m Model) waitSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) waitConnState() tea.Cmd {
	ch := m.connStates
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return connStateMsg(state)
	}
}

// Update routes messages through the Bubble Tea loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case snapshotMsg:
		m.snap = conversation.Snapshot(msg)
		m.clampCursor()
		m.refreshViewport()
		return m, m.waitSnapshot()

	case connStateMsg:
		m.connected = transport.ConnState(msg) == transport.StateConnected
		return m, m.waitConnState()

	case exportDoneMsg:
		if msg.err != nil {
			m.statusLine = "export failed: " + msg.err.Error()
		} else {
			m.statusLine = "exported to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	m.statusLine = ""

	// Global bindings, active in either pane.
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NewChat):
		m.core.CreateConversation(ctx)
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	case key.Matches(msg, m.keys.StopStream):
		if m.snap.IsGenerating {
			m.core.Stop(ctx)
			return m, nil
		}
	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Export):
		return m, m.exportActive()
	case key.Matches(msg, m.keys.ToggleThoughts):
		m.showThoughts = !m.showThoughts
		m.refreshViewport()
		return m, nil
	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Conversations)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if conv, ok := m.cursorConversation(); ok {
			m.core.SelectConversation(ctx, conv.ID)
			m.focus = focusInput
			m.input.Focus()
		}
	case key.Matches(msg, m.keys.ToggleMark):
		if conv, ok := m.cursorConversation(); ok {
			m.core.ToggleSelection(conv.ID)
		}
	case key.Matches(msg, m.keys.DeleteMarked):
		m.core.DeleteSelected(ctx)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) && !msg.Alt {
		question := m.input.Value()
		m.input.Reset()
		m.core.Ask(context.Background(), question)
		return m, nil
	}

	// Digit keys pick a recommended question when the conversation is empty.
	if len(m.snap.Messages) == 0 && m.input.Value() == "" && len(msg.Runes) == 1 {
		if q, ok := m.recommendedAt(msg.Runes[0]); ok {
			m.core.Ask(context.Background(), q)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recommendedAt maps '1'..'9' to a recommended question.
func (m Model) recommendedAt(r rune) (string, bool) {
	if r < '1' || r > '9' {
		return "", false
	}
	i := int(r - '1')
	if i >= len(m.recommended) {
		return "", false
	}
	return m.recommended[i], true
}

func (m Model) cursorConversation() (store.Conversation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Conversations) {
		return store.Conversation{}, false
	}
	return m.snap.Conversations[m.cursor], true
}

func (m *Model) clampCursor() {
	if n := len(m.snap.Conversations); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// exportActive writes the active conversation's transcript asynchronously,
// in both formats.
func (m Model) exportActive() tea.Cmd {
	conv, ok := m.snap.ActiveConversation()
	if !ok {
		return nil
	}
	dir := m.exportDir
	return func() tea.Msg {
		mdPath, err := export.WriteFile(conv, export.FormatMarkdown, dir)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		if _, err := export.WriteFile(conv, export.FormatHTML, dir); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: mdPath}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	chatWidth := width - sidebarWidth - 4
	if chatWidth < 20 {
		chatWidth = 20
	}
	chatHeight := height - inputHeight - headerHeight - 2
	if chatHeight < 3 {
		chatHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = chatHeight
	}
	m.input.SetWidth(chatWidth)

	if r, err := newRenderer(chatWidth - 2); err == nil {
		m.markdown = r
	} else {
		m.logger.Warn("markdown renderer unavailable", "error", err)
	}
	m.refreshViewport()
}
