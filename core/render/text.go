package render

import (
	"regexp"
	"slices"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/FocuswithJustin/boarpig/core/ast"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

// TextOptions controls Textify.
type TextOptions struct {
	// Plain emits reading text instead of canonical markup.
	Plain bool
	// Strip drops these tags with their subtrees.
	Strip markup.TagSet
	// Width wraps plain output at this column. Zero disables wrapping.
	Width int
}

// StripFormWork is the strip set of the no-fw and plain exports.
var StripFormWork = markup.NewTagSet(markup.TagFW, markup.TagMeta)

// Textify renders tree as text. In plain mode italics are marked with
// underscores, corrections resolve to their corrected half and blocks end
// in newlines; otherwise the result is canonical markup.
func Textify(tree *markup.Element, opts TextOptions) (string, error) {
	if !opts.Plain {
		return strings.TrimSpace(markup.Unparse(tree, markup.UnparseOptions{Strip: opts.Strip})), nil
	}
	t := &textWriter{strip: opts.Strip}
	if err := ast.Process(plainElement, plainTextRun, tree, t); err != nil {
		return "", err
	}
	out := strings.TrimSpace(t.b.String())
	if opts.Width > 0 {
		out = wordwrap.String(out, opts.Width)
	}
	return out, nil
}

type textWriter struct {
	b     strings.Builder
	strip markup.TagSet
}

func plainElement(s *ast.State[*textWriter], e *markup.Element) error {
	t := s.Data
	if t.strip.Has(e.Tag) {
		return nil
	}
	switch e.Tag {
	case markup.TagI:
		t.b.WriteString("_")
		if err := s.VisitChildren(); err != nil {
			return err
		}
		t.b.WriteString("_")
		return nil
	case markup.TagBQ, markup.TagSBQ:
		open, close := "(", ")"
		if e.Tag == markup.TagSBQ {
			open, close = "[", "]"
		}
		t.b.WriteString(open)
		if err := s.VisitChildren(); err != nil {
			return err
		}
		t.b.WriteString(close)
		return nil
	case markup.TagCor:
		_, corrected := correction(plainJoin(e))
		t.b.WriteString(corrected)
		return nil
	}

	if err := s.VisitChildren(); err != nil {
		return err
	}
	switch e.Tag {
	case markup.TagP, markup.TagSB, markup.TagCB:
		t.b.WriteString("\n")
	case markup.TagH:
		if s.ParentTag() == markup.TagProject {
			t.b.WriteString("\n\n")
		} else {
			t.b.WriteString("\n")
		}
	}
	return nil
}

func plainTextRun(s *ast.State[*textWriter], t *markup.Text) error {
	s.Data.b.WriteString(t.Value)
	return nil
}

// plainJoin concatenates the text children of e.
func plainJoin(e *markup.Element) string {
	var b strings.Builder
	for _, c := range e.Children {
		if t, ok := c.(*markup.Text); ok {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}

var reHyphenRun = regexp.MustCompile(`-+`)

// WordList collects the distinct words of text, split on the symbol set,
// and rejoins words that a page or line break hyphenated. A hyphenated
// word whose unhyphenated form occurs elsewhere is rewritten to it;
// failing that, a doubled hyphen collapses to one if that form occurs.
// It returns the rewritten text and the sorted list of remaining words.
func WordList(text string) (string, []string) {
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, markup.IsSymbol) {
		seen[w] = true
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	slices.Sort(words)

	var (
		list  []string
		pairs []string
	)
	for _, a := range words {
		if !strings.Contains(a, "-") {
			list = append(list, a)
			continue
		}
		joined := reHyphenRun.ReplaceAllString(a, "")
		single := reHyphenRun.ReplaceAllString(a, "-")
		switch {
		case seen[joined]:
			pairs = append(pairs, a, joined)
		case single != a && seen[single]:
			pairs = append(pairs, a, single)
		default:
			list = append(list, a)
		}
	}
	if len(pairs) > 0 {
		text = replaceWords(text, pairs)
	}
	return text, list
}

// replaceWords rewrites whole words only, so that rewriting "re--turn"
// leaves "re--turned" to its own entry.
func replaceWords(text string, pairs []string) string {
	to := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		to[pairs[i]] = pairs[i+1]
	}
	var b strings.Builder
	start := -1
	emit := func(end int) {
		w := text[start:end]
		if r, ok := to[w]; ok {
			w = r
		}
		b.WriteString(w)
		start = -1
	}
	for i, r := range text {
		if markup.IsSymbol(r) {
			if start >= 0 {
				emit(i)
			}
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		emit(len(text))
	}
	return b.String()
}

// TextBundle renders the text exports written next to a project:
// the canonical project, the form-work-free markup, the plain reading
// text and the word list.
func TextBundle(tree *markup.Element, width int) ([]FileInfo, error) {
	canonical, err := Textify(tree, TextOptions{})
	if err != nil {
		return nil, err
	}
	noFW, err := Textify(tree, TextOptions{Strip: StripFormWork})
	if err != nil {
		return nil, err
	}
	plain, err := Textify(tree, TextOptions{Plain: true, Strip: StripFormWork})
	if err != nil {
		return nil, err
	}
	noFW, words := WordList(noFW)
	plain, _ = WordList(plain)
	if width > 0 {
		plain = wordwrap.String(plain, width)
	}
	return []FileInfo{
		{Path: "project.bpp", Content: []byte(canonical + "\n")},
		{Path: "project.no-fw.txt.bpp", Content: []byte(strings.TrimSpace(noFW) + "\n")},
		{Path: "project.plain.txt.bpp", Content: []byte(strings.TrimSpace(plain) + "\n")},
		{Path: "words.txt.bpp", Content: []byte(strings.Join(words, "\n") + "\n")},
	}, nil
}
