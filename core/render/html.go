package render

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/boarpig/core/ast"
	"github.com/FocuswithJustin/boarpig/core/encoding"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

const styleFile = "style.css"

// Style is the stylesheet shipped with HTML and EPUB output.
const Style = `body {
  font-family: Roboto, 'Noto Sans', 'DejaVu Sans', sans-serif;
  line-height: 1.67;
  overflow: auto;
  width: 70vw;
  margin: auto 15vw;
  font-size: 1.25em;
}
article {
  padding-top: 2vmin;
}
article[data-type="full-title"],
article[data-type="half-title"],
article[data-type="cover"] {
  text-align: center;
}
hr {
  height: 4vmax;
  width: 10%;
  margin: 2vmax auto;
  padding: 2vmax;
  overflow: visible;
  text-align: center;
  border: none;
}
hr::after {
  content: '⁂';
  padding: 0.25vmax;
  position: relative;
  margin: 1vmax;
  display: block;
  height: 5vmax;
  color: black;
}
hr.short {
  height: 0.1vh;
  padding: 0;
  background: black;
}
hr.short::after {
  content: none;
}
span.quote {
  display: block;
  margin: 1em 2em;
}
article[data-type="toc"] a {
  text-decoration: none;
}
article[data-type="toc"] li {
  list-style: circle;
}
`

var (
	reStyleIndent = regexp.MustCompile(`\n[\t ]*`)
	reStylePunct  = regexp.MustCompile(`[ ]*([:,;}{])[ ]*`)
)

func minifiedStyle() string {
	s := reStyleIndent.ReplaceAllString(Style, "")
	return reStylePunct.ReplaceAllString(s, "$1")
}

// chapter is one output file of the multi-file layout.
type chapter struct {
	kind  string
	n     int
	label string
	body  strings.Builder
	open  bool // an <article> is open and awaits its closing tag
}

func (c *chapter) file() string { return fmt.Sprintf("%s_%d.html", c.kind, c.n) }

// tocEntry is a resolved table-of-contents link.
type tocEntry struct {
	text string
	id   string
	ch   *chapter
}

// htmlRenderer is the accumulator threaded through ast.Process.
type htmlRenderer struct {
	single   bool
	w        *emitter
	chapters []*chapter
	cur      *chapter
	counts   map[string]int
	tocs     []*chapter
	entries  []tocEntry
	ids      map[string]int
	inline   int // depth of block content rendered inside inline wrappers
}

func (h *htmlRenderer) out() *emitter { return h.w }

func newHTMLRenderer(single bool) *htmlRenderer {
	return &htmlRenderer{
		single: single,
		w:      newEmitter(),
		counts: make(map[string]int),
		ids:    make(map[string]int),
	}
}

// startChapter closes the current chapter and makes a new one current.
func (h *htmlRenderer) startChapter(kind string) *chapter {
	h.closeChapter()
	h.counts[kind]++
	ch := &chapter{kind: kind, n: h.counts[kind]}
	h.chapters = append(h.chapters, ch)
	h.cur = ch
	h.w.bufs[0] = &ch.body
	return ch
}

func (h *htmlRenderer) closeChapter() {
	if h.cur != nil && h.cur.open {
		h.w.block("</article>")
		h.cur.open = false
	}
}

// ensureChapter opens a chapter for project-level content that follows a
// closed split element, or that precedes the first one.
func (h *htmlRenderer) ensureChapter() {
	if h.cur != nil && h.cur.open {
		return
	}
	kind := "body"
	if len(h.chapters) == 0 {
		kind = "front"
	}
	ch := h.startChapter(kind)
	ch.open = true
	h.w.block(`<article data-type="` + kind + `">`)
}

// uniqueID derives a fragment id from heading text, suffixing repeats.
func (h *htmlRenderer) uniqueID(text string, n int) string {
	id := encoding.FragmentID(text)
	if id == "" {
		id = fmt.Sprintf("chapter_%d", n)
	}
	h.ids[id]++
	if k := h.ids[id]; k > 1 {
		id = fmt.Sprintf("%s_%d", id, k)
	}
	return id
}

func htmlElement(s *ast.State[*htmlRenderer], e *markup.Element) error {
	h := s.Data
	w := h.w
	parent := s.ParentTag()
	atTop := parent == markup.TagProject

	switch e.Tag {
	case markup.TagProject:
		if err := s.VisitChildren(); err != nil {
			return err
		}
		h.closeChapter()

	case markup.TagMeta:

	case markup.TagFW:
		if !atTop {
			w.formWork(e)
		}

	case markup.TagFullTitle, markup.TagHalfTitle, markup.TagSec, markup.TagCover:
		h.startChapter(e.Tag.String())
		w.block(`<article data-type="` + e.Tag.String() + `">`)
		if err := s.VisitChildren(); err != nil {
			return err
		}
		w.block("</article>")

	case markup.TagTOC:
		h.tocs = append(h.tocs, h.startChapter("toc"))

	case markup.TagH:
		if !atTop {
			tag := "h2"
			switch parent {
			case markup.TagFullTitle, markup.TagHalfTitle, markup.TagCover, markup.TagTitle:
				tag = "h1"
			}
			w.block("<" + tag + ">")
			if err := s.VisitChildren(); err != nil {
				return err
			}
			w.block("</" + tag + ">")
			return nil
		}
		ch := h.startChapter("chapter")
		ch.open = true
		w.block(`<article data-type="chapter">`)
		w.push()
		if err := s.VisitChildren(); err != nil {
			return err
		}
		inner := w.pop()
		ch.label = fragmentText(inner)
		id := h.uniqueID(ch.label, ch.n)
		w.block(`<h2 id="` + encoding.EscapeXMLAttr(id) + `">` + inner)
		w.block("</h2>")
		if len(h.tocs) > 0 {
			h.entries = append(h.entries, tocEntry{text: ch.label, id: id, ch: ch})
		}

	case markup.TagP:
		if atTop {
			h.ensureChapter()
		}
		open, close := "<p>", "</p>"
		if h.inline > 0 {
			open, close = `<span class="p">`, "</span>"
		}
		w.block(open)
		if err := s.VisitChildren(); err != nil {
			return err
		}
		w.block(close)

	case markup.TagQuote:
		if atTop {
			h.ensureChapter()
		}
		if h.inline > 0 || parent == markup.TagP || parent == markup.TagBQ || parent == markup.TagSBQ {
			h.inline++
			w.inline(`<span class="quote">`)
			err := s.VisitChildren()
			w.write("</span>")
			h.inline--
			return err
		}
		w.block("<blockquote>")
		if err := s.VisitChildren(); err != nil {
			return err
		}
		w.block("</blockquote>")

	case markup.TagSB:
		if atTop {
			h.ensureChapter()
		}
		if e.Mark {
			w.block(`<hr class="short"/>`)
		} else {
			w.block("<hr/>")
		}

	case markup.TagPB, markup.TagCB, markup.TagJW, markup.TagPG, markup.TagSig:

	case markup.TagLB:
		w.inline("<br/>")

	case markup.TagI:
		return wrapInline(s, "<em>", "</em>")
	case markup.TagB:
		return wrapInline(s, "<strong>", "</strong>")
	case markup.TagBQ:
		return wrapInline(s, "(", ")")
	case markup.TagSBQ:
		return wrapInline(s, "[", "]")

	case markup.TagCor:
		w.push()
		if err := s.VisitChildren(); err != nil {
			return err
		}
		_, corrected := correction(w.pop())
		w.write(corrected)

	case markup.TagNmWork, markup.TagNmPart:
		w.push()
		if err := s.Visit(nameParts(e)); err != nil {
			return err
		}
		x := w.pop()
		if e.Tag == markup.TagNmWork {
			w.write(workTitle(x, "<em>", "</em>"))
		} else {
			w.write(partTitle(x))
		}

	case markup.TagTitle, markup.TagAuthor, markup.TagPublisher, markup.TagPrinter, markup.TagYear,
		markup.TagLang, markup.TagSource, markup.TagSubject, markup.TagID:
		w.block(`<div class="` + e.Tag.String() + `">`)
		if err := s.VisitChildren(); err != nil {
			return err
		}
		w.block("</div>")

	default:
		return errors.NewUnsupported("tag", e.Tag.String())
	}
	return nil
}

// wrapInline renders the children of the current element between open
// and close.
func wrapInline[A interface{ out() *emitter }](s *ast.State[A], open, close string) error {
	w := s.Data.out()
	w.inline(open)
	if err := s.VisitChildren(); err != nil {
		return err
	}
	w.write(close)
	return nil
}

func htmlText(s *ast.State[*htmlRenderer], t *markup.Text) error {
	s.Data.w.text(encoding.EscapeXMLText(t.Value))
	return nil
}

// fragmentText returns the literal text of a rendered fragment, with
// character references decoded and line breaks read as spaces.
func fragmentText(frag string) string {
	z := html.NewTokenizer(strings.NewReader(frag))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.SelfClosingTagToken, html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte(' ')
			}
		}
	}
}

// finish writes the table of contents into every toc chapter.
func (h *htmlRenderer) finish() {
	var b strings.Builder
	b.WriteString(`<article data-type="toc"><h2>CONTENTS</h2><nav><ul>`)
	for _, e := range h.entries {
		href := "#" + e.id
		if !h.single {
			href = e.ch.file() + href
		}
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, encoding.EscapeXMLAttr(href), encoding.EscapeXMLText(e.text))
	}
	b.WriteString(`</ul></nav></article>`)
	for _, toc := range h.tocs {
		toc.body.WriteString(b.String())
		toc.label = "Contents"
	}
}

// renderHTML runs the HTML visitor and returns its finished chapters.
func renderHTML(tree *markup.Element, single bool) (*htmlRenderer, error) {
	h := newHTMLRenderer(single)
	if err := ast.Process(htmlElement, htmlText, tree, h); err != nil {
		return nil, err
	}
	h.finish()
	return h, nil
}

// HTML renders tree as XHTML. In single mode the result is book.html with
// an inline stylesheet; otherwise one file per chapter plus style.css.
func HTML(tree *markup.Element, single bool) ([]FileInfo, error) {
	h, err := renderHTML(tree, single)
	if err != nil {
		return nil, err
	}
	meta := ReadMeta(tree)

	if single {
		parts := make([]string, len(h.chapters))
		for i, ch := range h.chapters {
			parts[i] = ch.body.String()
		}
		doc := xhtmlDocument(meta.Title, meta.language(), "", strings.Join(parts, "\n"))
		return []FileInfo{{Path: "book.html", Content: doc}}, nil
	}

	files := h.chapterFiles(meta)
	files = append(files, FileInfo{Path: styleFile, Content: []byte(Style)})
	return files, nil
}

// chapterFiles wraps every chapter in its own document linked to
// style.css.
func (h *htmlRenderer) chapterFiles(meta Meta) []FileInfo {
	files := make([]FileInfo, 0, len(h.chapters)+1)
	for _, ch := range h.chapters {
		title := ch.label
		if title == "" {
			title = meta.Title
		}
		files = append(files, FileInfo{
			Path:    ch.file(),
			Content: xhtmlDocument(title, meta.language(), styleFile, ch.body.String()),
		})
	}
	return files
}

// xhtmlDocument wraps body in a polyglot XHTML5 document. An empty
// stylesheet path inlines the style.
func xhtmlDocument(title, lang, stylesheet, body string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, `<html xmlns="http://www.w3.org/1999/xhtml" lang="%[1]s" xml:lang="%[1]s">`, encoding.EscapeXMLAttr(lang))
	b.WriteString(`<head><meta charset="utf-8"/>`)
	b.WriteString("<title>" + encoding.EscapeXMLText(title) + "</title>")
	if stylesheet == "" {
		b.WriteString(`<style type="text/css">` + minifiedStyle() + `</style>`)
	} else {
		b.WriteString(`<link href="` + encoding.EscapeXMLAttr(stylesheet) + `" rel="stylesheet" type="text/css"/>`)
	}
	b.WriteString("</head><body>\n")
	b.WriteString(body)
	b.WriteString("\n</body></html>\n")
	return []byte(b.String())
}
