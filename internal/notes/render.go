package notes

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Note content supports a small inline markup: **bold**, *italic*,
// __underlined__ and line breaks. Storage always preserves the raw text;
// rendering happens only here.

// underlineSpan matches __text__ spans, which this app renders as
// underline rather than markdown's strong emphasis.
var underlineSpan = regexp.MustCompile(`__([^_\n]+)__`)

// contentPolicy keeps only the inline elements the markup can produce.
var contentPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "strong", "em", "u", "br")
	return p
}()

// RenderContentHTML renders note content's inline markup to sanitized
// HTML. Anything beyond the supported markup is treated as plain text.
func RenderContentHTML(content string) string {
	// Lift underline spans out before the markdown pass so they are not
	// swallowed as strong emphasis.
	prepared := underlineSpan.ReplaceAllString(content, "<u>$1</u>")

	extensions := parser.CommonExtensions | parser.HardLineBreak
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(prepared))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.Render(doc, renderer)

	return strings.TrimSpace(contentPolicy.Sanitize(string(rendered)))
}
