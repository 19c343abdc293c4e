package notes

import (
	"strings"
	"testing"
)

func TestRenderContentHTML_InlineMarkup(t *testing.T) {
	t.Parallel()

	got := RenderContentHTML("Make text **bold**, *italic*, or __underlined__.")
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Fatalf("bold not rendered: %q", got)
	}
	if !strings.Contains(got, "<em>italic</em>") {
		t.Fatalf("italic not rendered: %q", got)
	}
	if !strings.Contains(got, "<u>underlined</u>") {
		t.Fatalf("underline not rendered: %q", got)
	}
}

func TestRenderContentHTML_LineBreaks(t *testing.T) {
	t.Parallel()

	got := RenderContentHTML("first line\nsecond line")
	if !strings.Contains(got, "<br") {
		t.Fatalf("single newline not rendered as line break: %q", got)
	}
}

func TestRenderContentHTML_PlainText(t *testing.T) {
	t.Parallel()

	got := RenderContentHTML("just some plain text")
	if !strings.Contains(got, "just some plain text") {
		t.Fatalf("plain text lost: %q", got)
	}
}

func TestRenderContentHTML_SanitizesScripts(t *testing.T) {
	t.Parallel()

	got := RenderContentHTML(`hello <script>alert("x")</script> world`)
	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Fatalf("script content survived sanitization: %q", got)
	}
}

func TestRenderContentHTML_StripsDisallowedElements(t *testing.T) {
	t.Parallel()

	got := RenderContentHTML(`click <a href="https://example.com">here</a>`)
	if strings.Contains(got, "<a ") || strings.Contains(got, "href") {
		t.Fatalf("anchor survived sanitization: %q", got)
	}
	if !strings.Contains(got, "here") {
		t.Fatalf("anchor text lost: %q", got)
	}
}
