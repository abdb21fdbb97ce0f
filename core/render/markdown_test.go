package render

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/boarpig/core/xml"
)

const markdownSource = "(project (meta (title T)) (h One) (p Hello (i world).) (sb) (p Bye.))"

// TestMarkdownString verifies the Markdown body.
func TestMarkdownString(t *testing.T) {
	got, err := MarkdownString(mustParse(t, markdownSource))
	if err != nil {
		t.Fatalf("MarkdownString failed: %v", err)
	}
	want := "## One\n\nHello *world*.\n\n* * *\n\nBye.\n"
	if got != want {
		t.Errorf("MarkdownString = %q, want %q", got, want)
	}
}

// TestMarkdownInline verifies inline and block mappings.
func TestMarkdownInline(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"escape", "(project (p a*b_c))", "a\\*b\\_c\n"},
		{"bold", "(project (p (b x)))", "**x**\n"},
		{"square brackets", "(project (p (sbq x)))", "\\[x\\]\n"},
		{"correction", "(project (p (cor teh|the)))", "the\n"},
		{"title page heading", "(project (full-title (h Big)))", "# Big\n"},
		{"block quote", "(project (quote (p Verse one) (p Two)))", "> Verse one\n>\n> Two\n"},
		{"part name", "(project (p (nm-part Ode)))", "‘Ode’\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkdownString(mustParse(t, tt.src))
			if err != nil {
				t.Fatalf("MarkdownString failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("MarkdownString = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestMetadataBlock verifies the YAML metadata block.
func TestMetadataBlock(t *testing.T) {
	got := MetadataBlock(Meta{Title: "T", Author: "A", Subjects: []string{"x"}})
	want := "---\ntitle: \"T\"\nauthor: \"A\"\nsubject:\n  - \"x\"\ndocumentclass: book\n...\n"
	if got != want {
		t.Errorf("MetadataBlock = %q, want %q", got, want)
	}
}

// TestMarkdownHTML verifies conversion through goldmark.
func TestMarkdownHTML(t *testing.T) {
	files, err := MarkdownHTML(mustParse(t, markdownSource))
	if err != nil {
		t.Fatalf("MarkdownHTML failed: %v", err)
	}
	doc := string(files[0].Content)
	for _, want := range []string{
		`<h2 id="one">One</h2>`,
		"<p>Hello <em>world</em>.</p>",
		"<hr />",
		"<title>T</title>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("project.html missing %q\n%s", want, doc)
		}
	}
	if err := xml.Validate(files[0].Content).Err(); err != nil {
		t.Errorf("project.html is not well-formed: %v", err)
	}
}
