// ABOUTME: Markdown rendering for the chat viewport via glamour
// ABOUTME: Falls back to plain text when the terminal renderer fails

package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// renderer wraps a glamour terminal renderer at a fixed wrap width. The
// viewport recreates it on resize.
type renderer struct {
	glamour *glamour.TermRenderer
	width   int
}

func newRenderer(width int) (*renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(chatStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &renderer{glamour: gr, width: width}, nil
}

// Render converts Markdown to styled terminal output. On renderer failure
// the raw content is returned; a readable plain transcript beats an error.
func (r *renderer) Render(content string) string {
	if r == nil || r.glamour == nil {
		return content
	}
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// chatStyle trims glamour's default margins so messages sit flush inside
// the viewport.
func chatStyle() ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	return style
}
