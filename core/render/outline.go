package render

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/boarpig/core/ast"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

type outlineLine struct {
	depth int
	label string
	paras int
}

type outliner struct {
	lines    []outlineLine
	depth    int
	chapters int
}

func (o *outliner) add(label string) {
	o.lines = append(o.lines, outlineLine{depth: o.depth, label: label})
}

func outlineElement(s *ast.State[*outliner], e *markup.Element) error {
	o := s.Data
	switch e.Tag {
	case markup.TagProject:
		return s.VisitChildren()
	case markup.TagMeta:
		if title := e.First(markup.TagTitle); title != nil {
			o.add(fmt.Sprintf("meta %q", plainText(title)))
		} else {
			o.add("meta")
		}
	case markup.TagFullTitle, markup.TagHalfTitle, markup.TagCover, markup.TagSec:
		o.add(e.Tag.String())
		o.depth++
		err := s.VisitChildren()
		o.depth--
		return err
	case markup.TagTOC:
		o.add("toc")
	case markup.TagH:
		if s.ParentTag() == markup.TagProject {
			o.chapters++
			o.add(fmt.Sprintf("chapter %d: %s", o.chapters, plainText(e)))
		} else {
			o.add("h: " + plainText(e))
		}
	case markup.TagP:
		if len(o.lines) == 0 {
			o.add("front")
		}
		o.lines[len(o.lines)-1].paras++
	case markup.TagQuote:
		return s.VisitChildren()
	}
	return nil
}

func outlineText(*ast.State[*outliner], *markup.Text) error { return nil }

// Outline summarizes the structure of tree, one line per structural
// element, indented by nesting, with paragraph counts.
func Outline(tree *markup.Element) (string, error) {
	o := &outliner{}
	if err := ast.Process(outlineElement, outlineText, tree, o); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, l := range o.lines {
		b.WriteString(strings.Repeat("  ", l.depth))
		b.WriteString(l.label)
		if l.paras > 0 {
			fmt.Fprintf(&b, " [%d p]", l.paras)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// OutlineFiles renders the outline as outline.txt.
func OutlineFiles(tree *markup.Element) ([]FileInfo, error) {
	s, err := Outline(tree)
	if err != nil {
		return nil, err
	}
	return []FileInfo{{Path: "outline.txt", Content: []byte(s)}}, nil
}
