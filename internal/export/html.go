// ABOUTME: HTML transcript rendering via goldmark
// ABOUTME: Wraps the converted Markdown in a small self-contained page

package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// htmlPage wraps the rendered body. Kept minimal and dependency-free: the
// transcript should open cleanly in any browser with no external assets.
const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem;
       font-family: system-ui, sans-serif; line-height: 1.6; color: #1a1a1a; }
pre { background: #f4f4f4; padding: 0.75rem; border-radius: 6px; overflow-x: auto; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
pre code { padding: 0; }
h3 { border-top: 1px solid #ddd; padding-top: 1rem; }
sub { color: #888; font-weight: normal; }
</style>
</head>
<body>
%s</body>
</html>
`

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

func renderHTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	page := fmt.Sprintf(htmlPage, html.EscapeString(title), body.String())
	return []byte(page), nil
}
