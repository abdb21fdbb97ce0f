package markup

import "strings"

// UnparseOptions controls serialization.
type UnparseOptions struct {
	// Strip lists tags whose subtrees are left out.
	Strip TagSet
}

// Unparse serializes n back to canonical markup. Re-parsing the result in
// strict mode yields a tree equal to n.
func Unparse(n Node, opts UnparseOptions) string {
	var b strings.Builder
	writeNode(&b, n, opts)
	return b.String()
}

func writeNode(b *strings.Builder, n Node, opts UnparseOptions) {
	switch n := n.(type) {
	case *Text:
		b.WriteString(escapeText(n.Value))
	case *Element:
		writeElement(b, n, opts)
	}
}

func writeElement(b *strings.Builder, e *Element, opts UnparseOptions) {
	b.WriteByte('(')
	b.WriteString(e.Tag.String())
	if e.Mark {
		b.WriteByte('*')
	}
	if e.Tag.IsLeaf() {
		b.WriteByte(')')
		return
	}

	inline := e.Tag.AcceptsText()
	first := true
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			if opts.Strip.Has(el.Tag) {
				continue
			}
			if !inline || el.Tag.IsBlock() {
				b.WriteByte('\n')
			} else if first {
				b.WriteByte(' ')
			}
		} else if first {
			b.WriteByte(' ')
		}
		writeNode(b, c, opts)
		first = false
	}
	b.WriteByte(')')
}

// escapeText writes paragraph breaks kept as text back as blank lines.
func escapeText(s string) string {
	return strings.ReplaceAll(s, "\n", "\n\n")
}
