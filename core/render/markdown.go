package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	mdhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/FocuswithJustin/boarpig/core/ast"
	"github.com/FocuswithJustin/boarpig/core/encoding"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

type mdRenderer struct {
	w *emitter
}

func (r *mdRenderer) out() *emitter { return r.w }

func mdBlock(s *ast.State[*mdRenderer], open, close string) error {
	s.Data.w.block(open)
	if err := s.VisitChildren(); err != nil {
		return err
	}
	s.Data.w.block(close)
	return nil
}

func mdElement(s *ast.State[*mdRenderer], e *markup.Element) error {
	w := s.Data.w
	parent := s.ParentTag()

	switch e.Tag {
	case markup.TagProject, markup.TagSec:
		return s.VisitChildren()
	case markup.TagMeta, markup.TagTOC, markup.TagPB, markup.TagCB, markup.TagJW, markup.TagPG, markup.TagSig:
	case markup.TagFW:
		if parent != markup.TagProject {
			w.formWork(e)
		}
	case markup.TagFullTitle, markup.TagHalfTitle, markup.TagCover:
		return mdBlock(s, "\n\n", "\n\n")
	case markup.TagTitle:
		return s.VisitChildren()
	case markup.TagH:
		prefix := "## "
		switch parent {
		case markup.TagFullTitle, markup.TagHalfTitle, markup.TagCover, markup.TagTitle:
			prefix = "# "
		}
		return mdBlock(s, "\n\n"+prefix, "\n\n")
	case markup.TagP, markup.TagAuthor, markup.TagPublisher, markup.TagPrinter, markup.TagYear,
		markup.TagLang, markup.TagSource, markup.TagSubject, markup.TagID:
		return mdBlock(s, "\n\n", "\n\n")
	case markup.TagQuote:
		if parent == markup.TagP || parent == markup.TagBQ || parent == markup.TagSBQ {
			return s.VisitChildren()
		}
		w.block("\n\n")
		w.push()
		if err := s.VisitChildren(); err != nil {
			return err
		}
		var lines []string
		for _, l := range strings.Split(strings.TrimSpace(w.pop()), "\n") {
			l = strings.TrimSpace(l)
			if l == "" && len(lines) > 0 && lines[len(lines)-1] == ">" {
				continue
			}
			lines = append(lines, strings.TrimRight("> "+l, " "))
		}
		w.block(strings.Join(lines, "\n") + "\n\n")
	case markup.TagSB:
		w.block("\n\n* * *\n\n")
	case markup.TagLB:
		w.inline("\\\n")
	case markup.TagI:
		return wrapInline(s, "*", "*")
	case markup.TagB:
		return wrapInline(s, "**", "**")
	case markup.TagBQ:
		return wrapInline(s, "(", ")")
	case markup.TagSBQ:
		return wrapInline(s, `\[`, `\]`)
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
			w.write(workTitle(x, "*", "*"))
		} else {
			w.write(partTitle(x))
		}
	default:
		return errors.NewUnsupported("tag", e.Tag.String())
	}
	return nil
}

func mdText(s *ast.State[*mdRenderer], t *markup.Text) error {
	s.Data.w.text(encoding.EscapeMarkdown(strings.ReplaceAll(t.Value, "\n", " ")))
	return nil
}

var reBlankRun = regexp.MustCompile(`\n{3,}`)

// MarkdownString renders the body of tree as Markdown.
func MarkdownString(tree *markup.Element) (string, error) {
	r := &mdRenderer{w: newEmitter()}
	if err := ast.Process(mdElement, mdText, tree, r); err != nil {
		return "", err
	}
	out := reBlankRun.ReplaceAllString(r.w.pop(), "\n\n")
	return strings.TrimSpace(out) + "\n", nil
}

// MetadataBlock renders m as a YAML metadata block.
func MetadataBlock(m Meta) string {
	var b strings.Builder
	b.WriteString("---\n")
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %q\n", k, v)
		}
	}
	field("title", m.Title)
	field("author", m.Author)
	field("publisher", m.Publisher)
	field("printer", m.Printer)
	field("date", m.Year)
	field("lang", m.Lang)
	if len(m.Subjects) > 0 {
		b.WriteString("subject:\n")
		for _, s := range m.Subjects {
			fmt.Fprintf(&b, "  - %q\n", s)
		}
	}
	b.WriteString("documentclass: book\n...\n")
	return b.String()
}

// Markdown renders project.md and its metadata block meta.md.
func Markdown(tree *markup.Element) ([]FileInfo, error) {
	body, err := MarkdownString(tree)
	if err != nil {
		return nil, err
	}
	return []FileInfo{
		{Path: "project.md", Content: []byte(body)},
		{Path: "meta.md", Content: []byte(MetadataBlock(ReadMeta(tree)))},
	}, nil
}

var markdownConverter = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(mdhtml.WithXHTML(), mdhtml.WithUnsafe()),
)

// MarkdownHTML converts the Markdown rendering of tree to a standalone
// XHTML document, project.html.
func MarkdownHTML(tree *markup.Element) ([]FileInfo, error) {
	body, err := MarkdownString(tree)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(body), &buf); err != nil {
		return nil, errors.Wrap(err, "converting markdown")
	}
	meta := ReadMeta(tree)
	doc := xhtmlDocument(meta.Title, meta.language(), "", buf.String())
	return []FileInfo{{Path: "project.html", Content: doc}}, nil
}
