package render

import (
	"strings"

	"github.com/FocuswithJustin/boarpig/core/markup"
)

// emitter is the output side shared by the XML-family renderers. Writes go
// to the top of a buffer stack so that a handler can render a subtree in
// isolation, transform the result, and append it to the enclosing buffer.
type emitter struct {
	bufs []*strings.Builder

	// space is set when suppressed form-work separated two words and a
	// space is owed before the next inline output.
	space bool
	// fresh is set right after a block opened, where no separator is owed.
	fresh bool
}

func newEmitter() *emitter {
	return &emitter{bufs: []*strings.Builder{new(strings.Builder)}, fresh: true}
}

func (w *emitter) top() *strings.Builder { return w.bufs[len(w.bufs)-1] }

// write appends raw markup without touching the separator state.
func (w *emitter) write(s string) { w.top().WriteString(s) }

// block writes a block-level tag. Block boundaries absorb owed spaces.
func (w *emitter) block(s string) {
	w.space = false
	w.fresh = true
	w.write(s)
}

// inline writes an inline tag or delimiter, paying any owed space first.
func (w *emitter) inline(s string) {
	w.flush()
	w.write(s)
}

// text writes escaped character data.
func (w *emitter) text(s string) {
	if s == "" {
		return
	}
	if w.space && (s[0] == ' ' || s[0] == '\n') {
		w.space = false
	}
	w.flush()
	w.write(s)
}

func (w *emitter) flush() {
	if w.space && !w.endsWithSpace() {
		w.write(" ")
	}
	w.space = false
	w.fresh = false
}

func (w *emitter) endsWithSpace() bool {
	s := w.top().String()
	return s == "" || s[len(s)-1] == ' ' || s[len(s)-1] == '\n'
}

// formWork records that a suppressed fw element sat between two words.
// A join-word inside the form-work means the words on either side belong
// together, so no separator is owed.
func (w *emitter) formWork(fw *markup.Element) {
	if fw.First(markup.TagJW) != nil {
		w.space = false
		return
	}
	if !w.fresh && !w.endsWithSpace() {
		w.space = true
	}
}

// push starts a scoped capture buffer.
func (w *emitter) push() {
	w.flush()
	w.bufs = append(w.bufs, new(strings.Builder))
}

// pop ends the innermost capture and returns what was written to it.
func (w *emitter) pop() string {
	b := w.top()
	w.bufs = w.bufs[:len(w.bufs)-1]
	return b.String()
}

// correction splits a rendered "original|corrected" pair. Without a bar
// both halves are the whole text.
func correction(s string) (original, corrected string) {
	if o, c, ok := strings.Cut(s, "|"); ok {
		return o, c
	}
	return s, s
}

// nameParts returns the children of a work or part name with emphasis
// wrappers flattened, leaving the tree untouched.
func nameParts(e *markup.Element) []markup.Node {
	out := make([]markup.Node, 0, len(e.Children))
	for _, c := range e.Children {
		if el, ok := c.(*markup.Element); ok && (el.Tag == markup.TagI || el.Tag == markup.TagB) {
			out = append(out, el.Children...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// trimQuotes strips curly quotes from both ends until none are left.
func trimQuotes(s string) string {
	for {
		n := len(s)
		s = strings.TrimPrefix(s, "‘")
		s = strings.TrimPrefix(s, "“")
		s = strings.TrimSuffix(s, "’")
		s = strings.TrimSuffix(s, "”")
		if len(s) == n {
			return s
		}
	}
}

// workTitle wraps a work name in open/close, moving a trailing comma
// outside the wrapper.
func workTitle(s, open, close string) string {
	s = trimQuotes(s)
	if body, ok := strings.CutSuffix(s, ","); ok {
		return open + body + close + ","
	}
	return open + s + close
}

// partTitle wraps a part name in single curly quotes.
func partTitle(s string) string {
	return "‘" + trimQuotes(s) + "’"
}
