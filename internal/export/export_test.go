// ABOUTME: Tests for transcript rendering and file export
// ABOUTME: Covers Markdown layout, HTML conversion, and filename sanitization

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutorchat/internal/store"
)

func sampleConversation() store.Conversation {
	created := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	return store.Conversation{
		ID:    "conv-1",
		Title: "what is recursion?",
		Messages: []store.Message{
			{
				ID:        "m1",
				Role:      store.RoleUser,
				Content:   "what is recursion?",
				Status:    store.StatusComplete,
				Timestamp: created,
			},
			{
				ID:        "m2",
				Role:      store.RoleAssistant,
				Content:   "Recursion is when a function **calls itself**.\n\n```python\ndef f(n):\n    return f(n - 1)\n```",
				Status:    store.StatusComplete,
				Timestamp: created.Add(time.Minute),
			},
		},
		Created:     created,
		LastUpdated: created.Add(time.Minute),
	}
}

func TestRender_Markdown(t *testing.T) {
	out, err := Render(sampleConversation(), FormatMarkdown)
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# what is recursion?\n"), "transcript starts with the title")
	assert.Contains(t, md, "### You <sub>14:30:00</sub>")
	assert.Contains(t, md, "### Tutor <sub>14:31:00</sub>")
	assert.Contains(t, md, "**Messages**: 2")
	// Assistant Markdown passes through untouched.
	assert.Contains(t, md, "```python\ndef f(n):")
}

func TestRender_HTML(t *testing.T) {
	out, err := Render(sampleConversation(), FormatHTML)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>what is recursion?</title>")
	assert.Contains(t, page, "<strong>calls itself</strong>")
	assert.Contains(t, page, "<pre>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(page), "</html>"))
}

func TestRender_HTMLEscapesTitle(t *testing.T) {
	conv := sampleConversation()
	conv.Title = "<script>alert(1)</script>"

	out, err := Render(conv, FormatHTML)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<title><script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestRender_EmptyConversationRejected(t *testing.T) {
	conv := store.Conversation{ID: "empty", Title: "empty"}
	_, err := Render(conv, FormatMarkdown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sampleConversation(), Format("pdf"))
	require.Error(t, err)
}

func TestWriteFile_CreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	path, err := WriteFile(sampleConversation(), FormatMarkdown, dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "what_is_recursion"), "filename derives from title, got %q", path)
	assert.True(t, strings.HasSuffix(path, ".md"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# what is recursion?")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"what is recursion?", "what_is_recursion"},
		{"../../etc/passwd", "etc_passwd"},
		{"", "conversation"},
		{"???", "conversation"},
		{strings.Repeat("a", 100), strings.Repeat("a", 48)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "input %q", tt.in)
	}
}
