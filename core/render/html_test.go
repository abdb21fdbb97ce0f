package render

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/boarpig/core/xml"
)

// TestHTMLChapters verifies the multi-file layout and chapter bodies.
func TestHTMLChapters(t *testing.T) {
	files, err := HTML(mustParse(t, bookSource), false)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	m := fileMap(files)

	tests := []struct {
		file string
		want []string
	}{
		{"full-title_1.html", []string{
			`<article data-type="full-title"><h1>The Book</h1></article>`,
			`<title>The Book</title>`,
		}},
		{"chapter_1.html", []string{
			`<h2 id="Chapter_One">Chapter One</h2>`,
			`<p>Hello <em>world</em>.</p>`,
			`<p>A the cat.</p>`,
			`<title>Chapter One</title>`,
			`<link href="style.css" rel="stylesheet" type="text/css"/>`,
		}},
		{"chapter_2.html", []string{
			`<p>Seaside walk.</p>`,
			`<hr class="short"/></article>`,
		}},
	}
	for _, tt := range tests {
		doc, ok := m[tt.file]
		if !ok {
			t.Errorf("missing %s", tt.file)
			continue
		}
		for _, want := range tt.want {
			if !strings.Contains(doc, want) {
				t.Errorf("%s missing %q\n%s", tt.file, want, doc)
			}
		}
		if err := xml.Validate([]byte(doc)).Err(); err != nil {
			t.Errorf("%s is not well-formed: %v", tt.file, err)
		}
	}
	if m["style.css"] != Style {
		t.Error("style.css should hold the stylesheet")
	}
}

// TestHTMLTableOfContents verifies that the toc lists the headings that
// follow it, linking into their chapter files.
func TestHTMLTableOfContents(t *testing.T) {
	files, err := HTML(mustParse(t, bookSource), false)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	toc := fileMap(files)["toc_1.html"]
	want := `<nav><ul><li><a href="chapter_1.html#Chapter_One">Chapter One</a></li>` +
		`<li><a href="chapter_2.html#Chapter_Two">Chapter Two</a></li></ul></nav>`
	if !strings.Contains(toc, want) {
		t.Errorf("toc_1.html missing %q\n%s", want, toc)
	}
	if !strings.Contains(toc, "<title>Contents</title>") {
		t.Error("toc document should be titled Contents")
	}
}

// TestHTMLHeadingBeforeTOC verifies that headings ahead of the toc are
// anchored but not listed.
func TestHTMLHeadingBeforeTOC(t *testing.T) {
	files, err := HTML(mustParse(t, "(project (h Preface) (p a) (toc) (h One) (p b))"), false)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if got, want := paths(files), "chapter_1.html,toc_1.html,chapter_2.html,style.css"; got != want {
		t.Fatalf("paths = %q, want %q", got, want)
	}
	m := fileMap(files)
	if !strings.Contains(m["chapter_1.html"], `<h2 id="Preface">Preface</h2>`) {
		t.Errorf("chapter_1.html should anchor its heading:\n%s", m["chapter_1.html"])
	}
	toc := m["toc_1.html"]
	if want := `<nav><ul><li><a href="chapter_2.html#One">One</a></li></ul></nav>`; !strings.Contains(toc, want) {
		t.Errorf("toc_1.html missing %q\n%s", want, toc)
	}
	if strings.Contains(toc, "Preface") {
		t.Errorf("toc_1.html should not list a heading that precedes it:\n%s", toc)
	}
}

// TestHTMLSingle verifies the single-document layout.
func TestHTMLSingle(t *testing.T) {
	files, err := HTML(mustParse(t, bookSource), true)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if len(files) != 1 || files[0].Path != "book.html" {
		t.Fatalf("HTML single = %q, want book.html", paths(files))
	}
	doc := string(files[0].Content)
	for _, want := range []string{
		`<a href="#Chapter_One">Chapter One</a>`,
		`<style type="text/css">`,
		`lang="en" xml:lang="en"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("book.html missing %q", want)
		}
	}
	if strings.Contains(doc, "style.css") {
		t.Error("book.html should not link an external stylesheet")
	}
	if err := xml.Validate(files[0].Content).Err(); err != nil {
		t.Errorf("book.html is not well-formed: %v", err)
	}
}

// TestHTMLChapterKinds verifies front and body chapters around split
// elements.
func TestHTMLChapterKinds(t *testing.T) {
	src := `(project
(p Before)
(h One)
(p x)
(sec (h Part))
(p after))`
	files, err := HTML(mustParse(t, src), false)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if got, want := paths(files), "front_1.html,chapter_1.html,sec_1.html,body_1.html,style.css"; got != want {
		t.Errorf("paths = %q, want %q", got, want)
	}
	m := fileMap(files)
	if !strings.Contains(m["front_1.html"], `<article data-type="front"><p>Before</p></article>`) {
		t.Errorf("front_1.html = %s", m["front_1.html"])
	}
	if !strings.Contains(m["sec_1.html"], `<article data-type="sec"><h2>Part</h2></article>`) {
		t.Errorf("sec_1.html = %s", m["sec_1.html"])
	}
	if !strings.Contains(m["body_1.html"], `<article data-type="body"><p>after</p></article>`) {
		t.Errorf("body_1.html = %s", m["body_1.html"])
	}
}

// TestHTMLInline verifies inline rendering.
func TestHTMLInline(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"work name", "(project (p Read (nm-work The Sea,) now.))", "<p>Read <em>The Sea</em>, now.</p>"},
		{"part name", "(project (p See (nm-part Ode).))", "<p>See ‘Ode’.</p>"},
		{"bold", "(project (p (b Loud) voice))", "<p><strong>Loud</strong> voice</p>"},
		{"brackets", "(project (p a (bq b) (sbq c)))", "<p>a (b) [c]</p>"},
		{"line break", "(project (p a(lb)b))", "<p>a<br/>b</p>"},
		{"form-work between words", "(project (p End(fw (pg 7))here.))", "<p>End here.</p>"},
		{"form-work after a space", "(project (p End (fw (pg 7))here.))", "<p>End here.</p>"},
		{"join-word", "(project (p Sea(fw (sig B2)(jw))side))", "<p>Seaside</p>"},
		{"escaped text", "(project (p a & b < c))", "<p>a &amp; b &lt; c</p>"},
		{"inline quote", "(project (p He said (quote yes) twice))", `<p>He said <span class="quote">yes</span> twice</p>`},
		{"block quote", "(project (quote (p Verse)))", "<blockquote><p>Verse</p></blockquote>"},
		{"plain break", "(project (p a) (sb))", "<p>a</p><hr/>"},
		{"hidden leaves", "(project (p a) (pb) (cb) (p b))", "<p>a</p><p>b</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := renderHTML(mustParse(t, tt.src), false)
			if err != nil {
				t.Fatalf("renderHTML failed: %v", err)
			}
			var body strings.Builder
			for _, ch := range h.chapters {
				body.WriteString(ch.body.String())
			}
			if !strings.Contains(body.String(), tt.want) {
				t.Errorf("body = %q, want it to contain %q", body.String(), tt.want)
			}
		})
	}
}

// TestHTMLDuplicateIDs verifies that repeated headings get distinct ids.
func TestHTMLDuplicateIDs(t *testing.T) {
	h, err := renderHTML(mustParse(t, "(project (toc) (h Intro) (p a) (h Intro) (p b))"), true)
	if err != nil {
		t.Fatalf("renderHTML failed: %v", err)
	}
	if len(h.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(h.entries))
	}
	if h.entries[0].id != "Intro" || h.entries[1].id != "Intro_2" {
		t.Errorf("ids = %q, %q, want Intro, Intro_2", h.entries[0].id, h.entries[1].id)
	}
}

// TestFragmentText verifies heading label extraction.
func TestFragmentText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Chapter One", "Chapter One"},
		{"A <em>bold</em> move", "A bold move"},
		{"Line<br/>Two", "Line Two"},
		{"Fish &amp; Chips", "Fish & Chips"},
	}
	for _, tt := range tests {
		if got := fragmentText(tt.in); got != tt.want {
			t.Errorf("fragmentText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
