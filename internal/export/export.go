// ABOUTME: Transcript export: renders a conversation to Markdown or HTML
// ABOUTME: Markdown is built directly; HTML goes through goldmark

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389/tutorchat/internal/store"
)

// Format selects the transcript output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Render produces the transcript bytes for one conversation. Conversations
// without messages are rejected; there is nothing to export.
func Render(conv store.Conversation, format Format) ([]byte, error) {
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation %q has no messages", conv.ID)
	}

	md := renderMarkdown(conv)
	switch format {
	case FormatMarkdown, "":
		return []byte(md), nil
	case FormatHTML:
		return renderHTML(conv.Title, md)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile renders the conversation and writes it under dir, creating the
// directory if needed. The filename combines the sanitized title and an
// export timestamp so repeated exports never collide. Returns the path.
func WriteFile(conv store.Conversation, format Format, dir string) (string, error) {
	content, err := Render(conv, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s",
		sanitizeFilename(conv.Title),
		time.Now().Format("20060102_150405"),
		format.Extension())
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}

// renderMarkdown builds the Markdown transcript: a title, a short metadata
// list, then each message under a role heading. Assistant content is
// already Markdown and is passed through untouched.
func renderMarkdown(conv store.Conversation) string {
	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = store.DefaultTitle
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("- **Started**: %s\n", conv.Created.Format("January 2, 2006 15:04")))
	sb.WriteString(fmt.Sprintf("- **Last updated**: %s\n", conv.LastUpdated.Format("January 2, 2006 15:04")))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n\n", len(conv.Messages)))
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
			roleLabel(msg.Role),
			msg.Timestamp.Format("15:04:05")))
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n\n")
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString(fmt.Sprintf("\n*Exported from tutorchat on %s*\n",
		time.Now().Format("January 2, 2006")))
	return sb.String()
}

func roleLabel(role store.Role) string {
	switch role {
	case store.RoleUser:
		return "You"
	case store.RoleAssistant:
		return "Tutor"
	default:
		return string(role)
	}
}

// sanitizeFilename keeps letters, digits, dash, and underscore; everything
// else collapses to underscores. Long titles are truncated.
func sanitizeFilename(title string) string {
	if title == "" {
		title = "conversation"
	}
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "conversation"
	}
	const maxLen = 48
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}
