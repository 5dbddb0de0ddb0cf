package document

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// NormalizeMarkdown renders markdown (as returned by the OCR backend) and
// strips the markup down to plain text, keeping paragraph boundaries.
func NormalizeMarkdown(content []byte) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(content)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.Render(doc, renderer)

	return stripHTML(string(rendered))
}

// stripHTML removes tags from rendered HTML, mapping block elements to
// line breaks so the text keeps its structure.
func stripHTML(content string) string {
	replacements := []struct {
		old string
		new string
	}{
		{"<br>", "\n"}, {"<br/>", "\n"}, {"<br />", "\n"},
		{"</p>", "\n\n"}, {"</li>", "\n"}, {"<li>", "- "},
		{"</h1>", "\n\n"}, {"</h2>", "\n\n"}, {"</h3>", "\n\n"},
		{"</h4>", "\n\n"}, {"</h5>", "\n\n"}, {"</h6>", "\n\n"},
		{"</tr>", "\n"}, {"</td>", " "}, {"</th>", " "},
	}
	for _, r := range replacements {
		content = strings.ReplaceAll(content, r.old, r.new)
	}

	// Drop every remaining tag.
	var out strings.Builder
	inTag := false
	for _, ch := range content {
		switch {
		case ch == '<':
			inTag = true
		case ch == '>':
			inTag = false
		case !inTag:
			out.WriteRune(ch)
		}
	}

	return normalizeWhitespace(out.String())
}

// normalizeWhitespace collapses spaces within lines and caps blank-line runs
// at one, preserving paragraph boundaries for the splitter.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
