package markup

import "strings"

// Node is an element or a run of text in a parsed document.
type Node interface {
	node()
}

// Element is a tagged node owning an ordered list of children.
type Element struct {
	Tag      Tag
	Mark     bool // (sb*) variant
	Children []Node
}

// Text is a run of literal characters.
type Text struct {
	Value string
}

func (*Element) node() {}
func (*Text) node()    {}

// NewElement returns an element with the given children.
func NewElement(tag Tag, children ...Node) *Element {
	return &Element{Tag: tag, Children: children}
}

// NewText returns a text node.
func NewText(s string) *Text {
	return &Text{Value: s}
}

// Elements returns the direct children of e that are elements tagged t.
func (e *Element) Elements(t Tag) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Tag == t {
			out = append(out, el)
		}
	}
	return out
}

// First returns the first direct child element tagged t, or nil.
func (e *Element) First(t Tag) *Element {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Tag == t {
			return el
		}
	}
	return nil
}

// appendNode appends n, merging adjacent text runs.
func (e *Element) appendNode(n Node) {
	if t, ok := n.(*Text); ok {
		e.appendText(t.Value)
		return
	}
	e.Children = append(e.Children, n)
}

func (e *Element) appendText(s string) {
	if s == "" {
		return
	}
	if k := len(e.Children); k > 0 {
		if t, ok := e.Children[k-1].(*Text); ok {
			t.Value += s
			return
		}
	}
	e.Children = append(e.Children, &Text{Value: s})
}

// lastSignificant returns the index of the last child that is not
// whitespace-only text, or -1.
func (e *Element) lastSignificant() int {
	for i := len(e.Children) - 1; i >= 0; i-- {
		if !isBlankText(e.Children[i]) {
			return i
		}
	}
	return -1
}

func (e *Element) firstSignificant() int {
	for i, c := range e.Children {
		if !isBlankText(c) {
			return i
		}
	}
	return -1
}

// trimTrailingSpace drops trailing whitespace-only text and trims the
// right edge of the last text run.
func (e *Element) trimTrailingSpace() {
	for k := len(e.Children); k > 0; k = len(e.Children) {
		t, ok := e.Children[k-1].(*Text)
		if !ok {
			return
		}
		t.Value = strings.TrimRight(t.Value, " \n")
		if t.Value != "" {
			return
		}
		e.Children = e.Children[:k-1]
	}
}

func isBlankText(n Node) bool {
	t, ok := n.(*Text)
	return ok && strings.Trim(t.Value, " \n") == ""
}

func isElement(n Node, tag Tag) bool {
	el, ok := n.(*Element)
	return ok && el.Tag == tag
}

// Equal reports whether a and b have the same structure and text.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Text:
		bt, ok := b.(*Text)
		return ok && a.Value == bt.Value
	case *Element:
		be, ok := b.(*Element)
		if !ok || a.Tag != be.Tag || a.Mark != be.Mark || len(a.Children) != len(be.Children) {
			return false
		}
		for i := range a.Children {
			if !Equal(a.Children[i], be.Children[i]) {
				return false
			}
		}
		return true
	}
	return false
}
