package render

import (
	"strings"

	"github.com/FocuswithJustin/boarpig/core/ast"
	"github.com/FocuswithJustin/boarpig/core/encoding"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

type teiRenderer struct {
	w     *emitter
	meta  Meta
	inDiv bool // a chapter <div> opened by a project-level heading
}

func (r *teiRenderer) out() *emitter { return r.w }

func (r *teiRenderer) closeDiv() {
	if r.inDiv {
		r.w.block("</div>\n")
		r.inDiv = false
	}
}

func (r *teiRenderer) header() {
	m := r.meta
	w := r.w
	w.block("<teiHeader>\n<fileDesc>\n<titleStmt>\n")
	w.block("<title>" + encoding.EscapeXMLText(m.Title) + "</title>\n")
	if m.Author != "" {
		w.block("<author>" + encoding.EscapeXMLText(m.Author) + "</author>\n")
	}
	w.block("</titleStmt>\n<publicationStmt>\n")
	if m.Publisher == "" && m.Year == "" && m.ID == "" {
		w.block("<p>Unpublished transcription.</p>\n")
	}
	if m.Publisher != "" {
		w.block("<publisher>" + encoding.EscapeXMLText(m.Publisher) + "</publisher>\n")
	}
	if m.Year != "" {
		w.block("<date>" + encoding.EscapeXMLText(m.Year) + "</date>\n")
	}
	if m.ID != "" {
		w.block("<idno>" + encoding.EscapeXMLText(m.ID) + "</idno>\n")
	}
	w.block("</publicationStmt>\n<sourceDesc>\n")
	source := m.Source
	if source == "" {
		source = "Transcribed from page images."
	}
	w.block("<p>" + encoding.EscapeXMLText(source) + "</p>\n")
	w.block("</sourceDesc>\n</fileDesc>\n<profileDesc>\n")
	w.block(`<langUsage><language ident="` + encoding.EscapeXMLAttr(m.language()) + `"/></langUsage>` + "\n")
	if len(m.Subjects) > 0 {
		w.block("<textClass><keywords>")
		for _, s := range m.Subjects {
			w.block("<term>" + encoding.EscapeXMLText(s) + "</term>")
		}
		w.block("</keywords></textClass>\n")
	}
	w.block("</profileDesc>\n</teiHeader>\n")
}

// teiBlock renders the children of the current element inside a block
// element.
func teiBlock(s *ast.State[*teiRenderer], open, close string) error {
	s.Data.w.block(open)
	if err := s.VisitChildren(); err != nil {
		return err
	}
	s.Data.w.block(close)
	return nil
}

func teiElement(s *ast.State[*teiRenderer], e *markup.Element) error {
	r := s.Data
	w := r.w
	parent := s.ParentTag()
	atTop := parent == markup.TagProject

	switch e.Tag {
	case markup.TagProject:
		w.block(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
		w.block(`<TEI xmlns="http://www.tei-c.org/ns/1.0">` + "\n")
		r.header()
		w.block("<text>\n<body>\n")
		if err := s.VisitChildren(); err != nil {
			return err
		}
		r.closeDiv()
		w.block("</body>\n</text>\n</TEI>\n")

	case markup.TagMeta:

	case markup.TagFW:
		if !atTop {
			w.formWork(e)
		}

	case markup.TagFullTitle:
		r.closeDiv()
		return teiBlock(s, "<titlePage>\n", "</titlePage>\n")
	case markup.TagHalfTitle:
		r.closeDiv()
		return teiBlock(s, `<titlePage type="half-title">`+"\n", "</titlePage>\n")
	case markup.TagCover:
		r.closeDiv()
		return teiBlock(s, `<titlePage type="cover">`+"\n", "</titlePage>\n")
	case markup.TagSec:
		r.closeDiv()
		return teiBlock(s, `<div type="section">`+"\n", "</div>\n")
	case markup.TagTOC:
		r.closeDiv()
		w.block(`<divGen type="toc"/>` + "\n")

	case markup.TagH:
		if atTop {
			r.closeDiv()
			w.block("<div>\n")
			r.inDiv = true
		}
		return teiBlock(s, "<head>", "</head>\n")

	case markup.TagP:
		return teiBlock(s, "<p>", "</p>\n")
	case markup.TagQuote:
		if parent == markup.TagP || parent == markup.TagBQ || parent == markup.TagSBQ {
			return wrapInline(s, "<quote>", "</quote>")
		}
		return teiBlock(s, "<quote>", "</quote>\n")

	case markup.TagSB:
		if e.Mark {
			w.block(`<milestone unit="section" rend="short"/>` + "\n")
		} else {
			w.block(`<milestone unit="section"/>` + "\n")
		}
	case markup.TagPB:
		w.inline("<pb/>")
	case markup.TagCB:
		w.inline("<cb/>")
	case markup.TagLB:
		w.inline("<lb/>")
	case markup.TagJW, markup.TagPG, markup.TagSig:

	case markup.TagI:
		return wrapInline(s, "<emph>", "</emph>")
	case markup.TagB:
		return wrapInline(s, `<hi rend="bold">`, "</hi>")
	case markup.TagBQ:
		return wrapInline(s, "(", ")")
	case markup.TagSBQ:
		return wrapInline(s, "[", "]")

	case markup.TagCor:
		w.push()
		if err := s.VisitChildren(); err != nil {
			return err
		}
		original, corrected := correction(w.pop())
		w.write("<choice><sic>" + original + "</sic><corr>" + corrected + "</corr></choice>")

	case markup.TagNmWork, markup.TagNmPart:
		w.push()
		if err := s.Visit(nameParts(e)); err != nil {
			return err
		}
		x := w.pop()
		if e.Tag == markup.TagNmWork {
			w.write(workTitle(x, "<emph>", "</emph>"))
		} else {
			w.write(partTitle(x))
		}

	case markup.TagTitle:
		return teiBlock(s, "<docTitle><titlePart>", "</titlePart></docTitle>\n")
	case markup.TagAuthor:
		return teiBlock(s, "<docAuthor>", "</docAuthor>\n")
	case markup.TagPublisher:
		return teiBlock(s, "<docImprint><publisher>", "</publisher></docImprint>\n")
	case markup.TagPrinter:
		return teiBlock(s, `<docImprint><name type="printer">`, "</name></docImprint>\n")
	case markup.TagYear:
		return teiBlock(s, "<docDate>", "</docDate>\n")
	case markup.TagLang, markup.TagSource, markup.TagSubject, markup.TagID:
		return teiBlock(s, `<note type="`+e.Tag.String()+`">`, "</note>\n")

	default:
		return errors.NewUnsupported("tag", e.Tag.String())
	}
	return nil
}

func teiText(s *ast.State[*teiRenderer], t *markup.Text) error {
	s.Data.w.text(encoding.EscapeXMLText(t.Value))
	return nil
}

// TEI renders tree as a TEI P5 document, book.tei.xml.
func TEI(tree *markup.Element) ([]FileInfo, error) {
	doc, err := TEIString(tree)
	if err != nil {
		return nil, err
	}
	return []FileInfo{{Path: "book.tei.xml", Content: []byte(doc)}}, nil
}

// TEIString renders tree as a TEI document string.
func TEIString(tree *markup.Element) (string, error) {
	r := &teiRenderer{w: newEmitter(), meta: ReadMeta(tree)}
	if err := ast.Process(teiElement, teiText, tree, r); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.w.pop()) + "\n", nil
}
