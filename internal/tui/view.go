// ABOUTME: Terminal layout and rendering for the chat interface
// ABOUTME: lipgloss styles for the header, sidebar, message view, and input

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389/tutorchat/internal/store"
)

const (
	sidebarWidth = 28
	inputHeight  = 5
	headerHeight = 1
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(lipgloss.Color("240"))

	sidebarCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	sidebarMarkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	sidebarDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	userLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tutorLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	thoughtStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240"))

	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// View renders the full interface.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderInput(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", chat)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderHeader() string {
	status := disconnectedStyle.Render("○ reconnecting")
	if m.connected {
		status = connectedStyle.Render("● connected")
	}
	title := headerStyle.Render("tutorchat")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + status
}

func (m Model) renderSidebar() string {
	var rows []string
	if len(m.snap.Conversations) == 0 {
		rows = append(rows, sidebarDimStyle.Render("no conversations"))
	}
	for i, conv := range m.snap.Conversations {
		title := conv.Title
		if title == "" {
			title = store.DefaultTitle
		}
		title = truncate(title, sidebarWidth-6)

		mark := "  "
		if m.snap.Selected[conv.ID] {
			mark = sidebarMarkedStyle.Render("✓ ")
		}
		cursor := "  "
		if m.focus == focusSidebar && i == m.cursor {
			cursor = sidebarCursorStyle.Render("> ")
		}

		row := cursor + mark + title
		if conv.ID == m.snap.ActiveConversationID {
			row = sidebarCursorStyle.Render(cursor+mark) + lipgloss.NewStyle().Bold(true).Render(title)
		}
		rows = append(rows, row)
	}

	height := m.height - headerHeight - 2
	if height < 1 {
		height = 1
	}
	return sidebarStyle.Height(height).Render(strings.Join(rows, "\n"))
}

// renderMessages builds the chat transcript for the viewport.
func (m Model) renderMessages() string {
	if len(m.snap.Messages) == 0 {
		return m.renderEmptyState()
	}

	var sb strings.Builder
	for _, msg := range m.snap.Messages {
		switch msg.Role {
		case store.RoleUser:
			sb.WriteString(userLabelStyle.Render("You"))
		case store.RoleAssistant:
			label := "Tutor"
			if msg.Status == store.StatusGenerating {
				label = "Tutor " + m.spinner.View()
			}
			sb.WriteString(tutorLabelStyle.Render(label))
		}
		sb.WriteString("\n")
		sb.WriteString(m.renderContent(msg))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// renderContent renders one message, folding or expanding <think> segments.
func (m Model) renderContent(msg store.Message) string {
	if msg.Role != store.RoleAssistant {
		return msg.Content
	}

	var sb strings.Builder
	for _, seg := range SplitThinking(msg.Content) {
		if seg.Thinking {
			if m.showThoughts {
				sb.WriteString(thoughtStyle.Render("▼ reasoning\n" + strings.TrimSpace(seg.Text)))
			} else {
				sb.WriteString(thoughtStyle.Render("▶ reasoning (ctrl+t to show)"))
			}
			sb.WriteString("\n")
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if m.markdown != nil {
			sb.WriteString(m.markdown.Render(text))
		} else {
			sb.WriteString(text)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderEmptyState() string {
	var sb strings.Builder
	sb.WriteString(sidebarDimStyle.Render("Ask your tutor anything."))
	if len(m.recommended) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(helpStyle.Render("Or press a number to start with:"))
		sb.WriteString("\n\n")
		for i, q := range m.recommended {
			if i >= 9 {
				break
			}
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, q))
		}
	}
	return sb.String()
}

func (m Model) renderInput() string {
	return m.input.View()
}

func (m Model) renderFooter() string {
	if m.statusLine != "" {
		return statusStyle.Render(m.statusLine)
	}

	parts := []string{
		"tab: switch pane",
		"ctrl+n: new chat",
		"ctrl+e: export",
		"ctrl+c: quit",
	}
	if m.snap.IsGenerating {
		parts = append([]string{"esc: stop response"}, parts...)
	}
	if m.focus == focusSidebar {
		parts = append([]string{"space: mark", "ctrl+d: delete marked"}, parts...)
	}
	return helpStyle.Render(strings.Join(parts, "  ·  "))
}

// refreshViewport re-renders the transcript and keeps the view pinned to
// the bottom while a response streams in.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.snap.IsGenerating {
		m.viewport.GotoBottom()
	}
}

func truncate(s string, max int) string {
	if max <= 3 {
		max = 3
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
