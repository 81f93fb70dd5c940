// ABOUTME: Splits assistant content into visible text and <think> reasoning segments
// ABOUTME: Handles the unterminated trailing block that appears mid-stream

package tui

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// Segment is one slice of an assistant message: either visible answer text
// or internal reasoning the model emitted between <think> tags.
type Segment struct {
	Text     string
	Thinking bool
}

// SplitThinking parses assistant content into ordered segments. Reasoning
// models stream their scratch work inside <think>...</think>; the close tag
// may not have arrived yet, in which case everything after the open tag is
// one thinking segment. Empty segments are dropped. Content without tags
// comes back as a single text segment.
func SplitThinking(content string) []Segment {
	var segments []Segment
	rest := content

	for {
		open := strings.Index(rest, thinkOpen)
		if open < 0 {
			if rest != "" {
				segments = append(segments, Segment{Text: rest})
			}
			return segments
		}

		if before := rest[:open]; before != "" {
			segments = append(segments, Segment{Text: before})
		}
		rest = rest[open+len(thinkOpen):]

		end := strings.Index(rest, thinkClose)
		if end < 0 {
			// Still streaming inside the block.
			if rest != "" {
				segments = append(segments, Segment{Text: rest, Thinking: true})
			}
			return segments
		}
		if inner := rest[:end]; inner != "" {
			segments = append(segments, Segment{Text: inner, Thinking: true})
		}
		rest = rest[end+len(thinkClose):]
	}
}

// VisibleText returns the content with all thinking segments removed,
// for transcript previews and sidebar snippets.
func VisibleText(content string) string {
	var sb strings.Builder
	for _, seg := range SplitThinking(content) {
		if !seg.Thinking {
			sb.WriteString(seg.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
