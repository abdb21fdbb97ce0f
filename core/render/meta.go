package render

import (
	"strings"

	"github.com/FocuswithJustin/boarpig/core/markup"
)

// Meta is the bibliographic record read from a project's meta element.
type Meta struct {
	Title     string
	Author    string
	Publisher string
	Printer   string
	Year      string
	Lang      string
	Source    string
	ID        string
	Subjects  []string
}

// ReadMeta collects the first meta element of tree. Missing fields are
// left empty.
func ReadMeta(tree *markup.Element) Meta {
	var m Meta
	meta := tree.First(markup.TagMeta)
	if meta == nil {
		return m
	}
	for _, c := range meta.Children {
		el, ok := c.(*markup.Element)
		if !ok {
			continue
		}
		v := plainText(el)
		switch el.Tag {
		case markup.TagTitle:
			m.Title = firstNonEmpty(m.Title, v)
		case markup.TagAuthor:
			m.Author = firstNonEmpty(m.Author, v)
		case markup.TagPublisher:
			m.Publisher = firstNonEmpty(m.Publisher, v)
		case markup.TagPrinter:
			m.Printer = firstNonEmpty(m.Printer, v)
		case markup.TagYear:
			m.Year = firstNonEmpty(m.Year, v)
		case markup.TagLang:
			m.Lang = firstNonEmpty(m.Lang, v)
		case markup.TagSource:
			m.Source = firstNonEmpty(m.Source, v)
		case markup.TagID:
			m.ID = firstNonEmpty(m.ID, v)
		case markup.TagSubject:
			if v != "" {
				m.Subjects = append(m.Subjects, v)
			}
		}
	}
	return m
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// language returns the document language, defaulting to English.
func (m Meta) language() string {
	if m.Lang == "" {
		return "en"
	}
	return m.Lang
}

// plainText flattens n to its reading text: corrections resolve to the
// corrected half, form-work is dropped and line breaks become spaces.
func plainText(n markup.Node) string {
	var b strings.Builder
	writePlain(&b, n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func writePlain(b *strings.Builder, n markup.Node) {
	switch n := n.(type) {
	case *markup.Text:
		b.WriteString(n.Value)
	case *markup.Element:
		switch n.Tag {
		case markup.TagFW, markup.TagMeta:
			return
		case markup.TagLB:
			b.WriteByte(' ')
			return
		case markup.TagCor:
			var inner strings.Builder
			for _, c := range n.Children {
				writePlain(&inner, c)
			}
			_, corrected := correction(inner.String())
			b.WriteString(corrected)
			return
		case markup.TagBQ, markup.TagSBQ:
			open, close := "(", ")"
			if n.Tag == markup.TagSBQ {
				open, close = "[", "]"
			}
			b.WriteString(open)
			for _, c := range n.Children {
				writePlain(b, c)
			}
			b.WriteString(close)
			return
		}
		for _, c := range n.Children {
			writePlain(b, c)
		}
	}
}
