package markup

// appendFormatted appends el to parent and applies the autoformat
// rewrites that depend on the new sibling.
func appendFormatted(parent, el *Element, lineStart bool) {
	if lineStart && el.Tag.spacedAtLineStart() && parent.Tag.AcceptsText() && len(parent.Children) > 0 {
		if t, ok := parent.Children[len(parent.Children)-1].(*Text); !ok || !endsWithSpace(t.Value) {
			parent.appendText(" ")
		}
	}

	parent.Children = append(parent.Children, el)

	switch el.Tag {
	case TagH:
		hoistFormWork(parent)
	case TagP:
		coalesceParagraphs(parent)
	}
}

func endsWithSpace(s string) bool {
	return s != "" && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n')
}

// hoistFormWork rewrites p(... fw+) h(...) into p(...) fw+ h(...), and
// drops the paragraph if nothing else is left in it.
func hoistFormWork(parent *Element) {
	k := len(parent.Children)
	if k < 2 || !isElement(parent.Children[k-2], TagP) {
		return
	}
	h := parent.Children[k-1]
	p := parent.Children[k-2].(*Element)

	var fws []Node
	for {
		i := p.lastSignificant()
		if i < 0 || !isElement(p.Children[i], TagFW) {
			break
		}
		fws = append([]Node{p.Children[i]}, fws...)
		p.Children = p.Children[:i]
	}
	if len(fws) == 0 {
		return
	}
	p.trimTrailingSpace()

	out := parent.Children[:k-2]
	if len(p.Children) > 0 {
		out = append(out, p)
	}
	out = append(out, fws...)
	parent.Children = append(out, h)
}

// coalesceParagraphs joins the last two paragraphs of parent when form-work
// sits on their boundary: p(... fw) p(...) or p(...) p(fw ...). An empty
// trailing paragraph is dropped.
func coalesceParagraphs(parent *Element) {
	k := len(parent.Children)
	p := parent.Children[k-1].(*Element)
	if k >= 2 && isElement(parent.Children[k-2], TagP) {
		p0 := parent.Children[k-2].(*Element)
		last, first := p0.lastSignificant(), p.firstSignificant()
		if (last >= 0 && isElement(p0.Children[last], TagFW)) || (first >= 0 && isElement(p.Children[first], TagFW)) {
			for _, c := range p.Children {
				p0.appendNode(c)
			}
			p.Children = nil
		}
	}
	if len(p.Children) == 0 {
		parent.Children = parent.Children[:k-1]
	}
}
