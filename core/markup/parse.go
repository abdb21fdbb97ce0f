package markup

import (
	"strings"

	"github.com/FocuswithJustin/boarpig/core/errors"
)

// ParseProject lexes and parses a whole project document. A saved,
// already normalized project is parsed strictly; merged page text is
// parsed in autoformat mode.
func ParseProject(text string, normalized bool) (*Element, error) {
	tokens, err := Lex(text)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, !normalized)
}

// Parse builds the document tree from tokens. The token stream must hold
// exactly one project element surrounded by optional whitespace.
func Parse(tokens []Token, autoformat bool) (*Element, error) {
	p := &parser{toks: tokens, autoformat: autoformat}
	p.skipSpace()
	t, ok := p.peek()
	if !ok || t.Kind != KindExpr || t.Lexeme != TagProject.String() {
		pos := 0
		if ok {
			pos = t.Pos
		}
		return nil, errors.NewParse(pos, TagProject.String(), "document must be a single project element")
	}
	p.next()
	root, err := p.parseElement(t)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if t, ok := p.peek(); ok {
		return nil, errors.NewParse(t.Pos, TagProject.String(), "unexpected content after project")
	}
	return root, nil
}

type parser struct {
	toks       []Token
	pos        int
	autoformat bool
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func isSpaceToken(t Token) bool {
	return t.Kind == KindSymbol && (t.Lexeme == " " || t.Lexeme == "\n")
}

// skipSpace consumes whitespace symbols and reports how many it skipped.
func (p *parser) skipSpace() int {
	n := 0
	for {
		t, ok := p.peek()
		if !ok || !isSpaceToken(t) {
			return n
		}
		p.next()
		n++
	}
}

// skipBlanks consumes spaces but stops at paragraph breaks.
func (p *parser) skipBlanks() {
	for {
		t, ok := p.peek()
		if !ok || t.Kind != KindSymbol || t.Lexeme != " " {
			return
		}
		p.next()
	}
}

func (p *parser) expectClose(open Token, tag string) error {
	p.skipSpace()
	t, ok := p.peek()
	if !ok {
		return errors.NewParse(open.Pos, tag, "missing closing parenthesis")
	}
	if t.Kind != KindSymbol || t.Lexeme != ")" {
		return errors.NewParse(open.Pos, tag, "expected ) before "+t.Kind.String()+" "+quote(t.Lexeme))
	}
	p.next()
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, "\n", `\n`) + `"`
}

// parseElement parses the body of the element opened by the EXPR token
// open, which has already been consumed.
func (p *parser) parseElement(open Token) (*Element, error) {
	tag, ok := LookupTag(open.Lexeme)
	if !ok {
		return nil, &errors.UnrecognizedTagError{Position: open.Pos, Tag: open.Lexeme}
	}
	if open.Mark && tag != TagSB {
		return nil, &errors.UnrecognizedTagError{Position: open.Pos, Tag: open.Lexeme + "*"}
	}
	el := &Element{Tag: tag, Mark: open.Mark}

	switch {
	case tag.IsLeaf():
		p.skipSpace()
		if t, ok := p.peek(); ok && !(t.Kind == KindSymbol && t.Lexeme == ")") {
			return nil, errors.NewParse(open.Pos, tag.String(), "tag does not accept children")
		}
	case tag == TagPG:
		p.skipSpace()
		t, ok := p.peek()
		if !ok || t.Kind != KindWord {
			return nil, errors.NewParse(open.Pos, tag.String(), "expected a page number")
		}
		p.next()
		el.Children = []Node{&Text{Value: t.Lexeme}}
	default:
		skipped := p.skipSpace()
		if !p.autoformat && skipped == 0 {
			if t, ok := p.peek(); ok && !t.LineStart && !(t.Kind == KindSymbol && t.Lexeme == ")") {
				return nil, errors.NewParse(open.Pos, tag.String(), "expected whitespace after tag name")
			}
		}
		if err := p.parseContent(el, false); err != nil {
			return nil, err
		}
	}

	if err := p.expectClose(open, tag.String()); err != nil {
		return nil, err
	}
	return el, nil
}

// opensParagraph reports whether content that parent cannot hold directly
// but a paragraph can should be wrapped in a virtual paragraph.
func (p *parser) opensParagraph(parent *Element) bool {
	return p.autoformat && !parent.Tag.AcceptsText() && parent.Tag.Accepts(TagP)
}

// parseContent parses children of parent up to, but not including, the
// closing parenthesis. A virtual paragraph also ends at a paragraph break
// or at an element it cannot hold.
func (p *parser) parseContent(parent *Element, virtual bool) error {
	for {
		t, ok := p.peek()
		if !ok {
			return nil
		}

		switch t.Kind {
		case KindExpr:
			tag, known := LookupTag(t.Lexeme)
			if virtual && known {
				if tag == TagPB {
					p.next()
					return p.expectClose(t, tag.String())
				}
				if !TagP.Accepts(tag) {
					return nil
				}
			}
			if known && p.opensParagraph(parent) && !parent.Tag.Accepts(tag) && TagP.Accepts(tag) {
				if err := p.parseVirtualParagraph(parent); err != nil {
					return err
				}
				continue
			}
			p.next()
			el, err := p.parseElement(t)
			if err != nil {
				return err
			}
			if err := p.addElement(parent, el, t.LineStart); err != nil {
				return err
			}

		case KindSymbol:
			switch {
			case t.Lexeme == ")":
				return nil
			case t.Lexeme == "\n" && p.autoformat:
				if virtual {
					return nil
				}
				if p.opensParagraph(parent) {
					p.next()
					if err := p.parseVirtualParagraph(parent); err != nil {
						return err
					}
					continue
				}
				p.next()
				if err := p.addText(parent, " "); err != nil {
					return err
				}
			case p.opensParagraph(parent) && !isSpaceToken(t):
				if err := p.parseVirtualParagraph(parent); err != nil {
					return err
				}
			case t.Lexeme == "(" && p.autoformat:
				p.next()
				bq, err := p.parseBracket(t)
				if err != nil {
					return err
				}
				if err := p.addElement(parent, bq, t.LineStart); err != nil {
					return err
				}
			default:
				p.next()
				if err := p.addText(parent, t.Lexeme); err != nil {
					return err
				}
			}

		case KindWord:
			if p.opensParagraph(parent) {
				if err := p.parseVirtualParagraph(parent); err != nil {
					return err
				}
				continue
			}
			p.next()
			if err := p.addText(parent, t.Lexeme); err != nil {
				return err
			}

		default:
			return errors.Wrapf(errors.ErrInternal, "token %s has no kind", t)
		}
	}
}

// parseVirtualParagraph wraps the run of inline content at the cursor in a
// p element that has no explicit closing token.
func (p *parser) parseVirtualParagraph(parent *Element) error {
	para := &Element{Tag: TagP}
	p.skipBlanks()
	if err := p.parseContent(para, true); err != nil {
		return err
	}
	para.trimTrailingSpace()
	if len(para.Children) == 0 {
		return nil
	}
	return p.addElement(parent, para, false)
}

// parseBracket parses literal parenthetical text into a bq element.
func (p *parser) parseBracket(open Token) (*Element, error) {
	bq := &Element{Tag: TagBQ}
	p.skipBlanks()
	if err := p.parseContent(bq, false); err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok || t.Kind != KindSymbol || t.Lexeme != ")" {
		return nil, errors.NewParse(open.Pos, TagBQ.String(), "missing closing parenthesis")
	}
	p.next()
	return bq, nil
}

func (p *parser) addText(parent *Element, s string) error {
	if !parent.Tag.AcceptsText() {
		if strings.Trim(s, " \n") == "" && grammarOf(parent.Tag).spaces {
			return nil
		}
		return errors.NewInvalidChild(parent.Tag.String(), "text", s)
	}
	parent.appendText(s)
	return nil
}

func (p *parser) addElement(parent, el *Element, lineStart bool) error {
	if !parent.Tag.Accepts(el.Tag) {
		return errors.NewInvalidChild(parent.Tag.String(), el.Tag.String(), "")
	}
	if !p.autoformat {
		parent.Children = append(parent.Children, el)
		return nil
	}
	appendFormatted(parent, el, lineStart)
	return nil
}
