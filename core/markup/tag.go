package markup

// Tag identifies an element kind. The vocabulary is closed: every tag the
// lexer may recognize is listed here, and the grammar and renderers switch
// over the same set.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagProject
	TagMeta
	TagTitle
	TagAuthor
	TagPublisher
	TagPrinter
	TagYear
	TagLang
	TagSource
	TagSubject
	TagID
	TagCover
	TagFullTitle
	TagHalfTitle
	TagTOC
	TagSec
	TagH
	TagP
	TagQuote
	TagSB
	TagPB
	TagCB
	TagLB
	TagJW
	TagFW
	TagPG
	TagSig
	TagI
	TagB
	TagCor
	TagNmWork
	TagNmPart
	TagBQ
	TagSBQ

	numTags
)

var tagNames = [numTags]string{
	TagInvalid:   "",
	TagProject:   "project",
	TagMeta:      "meta",
	TagTitle:     "title",
	TagAuthor:    "author",
	TagPublisher: "publisher",
	TagPrinter:   "printer",
	TagYear:      "year",
	TagLang:      "lang",
	TagSource:    "source",
	TagSubject:   "subject",
	TagID:        "id",
	TagCover:     "cover",
	TagFullTitle: "full-title",
	TagHalfTitle: "half-title",
	TagTOC:       "toc",
	TagSec:       "sec",
	TagH:         "h",
	TagP:         "p",
	TagQuote:     "quote",
	TagSB:        "sb",
	TagPB:        "pb",
	TagCB:        "cb",
	TagLB:        "lb",
	TagJW:        "jw",
	TagFW:        "fw",
	TagPG:        "pg",
	TagSig:       "sig",
	TagI:         "i",
	TagB:         "b",
	TagCor:       "cor",
	TagNmWork:    "nm-work",
	TagNmPart:    "nm-part",
	TagBQ:        "bq",
	TagSBQ:       "sbq",
}

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, numTags)
	for t := TagProject; t < numTags; t++ {
		m[tagNames[t]] = t
	}
	return m
}()

// LookupTag returns the tag named s.
func LookupTag(s string) (Tag, bool) {
	t, ok := tagsByName[s]
	return t, ok
}

// Tags returns every valid tag in declaration order.
func Tags() []Tag {
	ts := make([]Tag, 0, numTags-1)
	for t := TagProject; t < numTags; t++ {
		ts = append(ts, t)
	}
	return ts
}

func (t Tag) String() string {
	if t >= numTags {
		return "invalid"
	}
	return tagNames[t]
}

// Valid reports whether t belongs to the vocabulary.
func (t Tag) Valid() bool { return t > TagInvalid && t < numTags }

// IsLeaf reports whether t never has children.
func (t Tag) IsLeaf() bool {
	switch t {
	case TagJW, TagLB, TagPB, TagSB, TagCB, TagTOC:
		return true
	}
	return false
}

// IsBlock reports whether t is laid out on its own line when serialized.
func (t Tag) IsBlock() bool {
	switch t {
	case TagProject, TagMeta, TagTitle, TagAuthor, TagPublisher, TagPrinter,
		TagYear, TagLang, TagSource, TagSubject, TagID,
		TagCover, TagFullTitle, TagHalfTitle, TagTOC, TagSec, TagH, TagP,
		TagSB, TagPB, TagCB:
		return true
	}
	return false
}

// spacedAtLineStart reports whether an element of this kind that opened a
// source line is separated from the preceding sibling by a space.
func (t Tag) spacedAtLineStart() bool {
	switch t {
	case TagBQ, TagSBQ, TagNmWork, TagNmPart, TagCor, TagI, TagB:
		return true
	}
	return false
}

// TagSet is a set of tags.
type TagSet uint64

// NewTagSet returns a set holding ts.
func NewTagSet(ts ...Tag) TagSet {
	var s TagSet
	for _, t := range ts {
		s |= 1 << t
	}
	return s
}

// Has reports whether t is in s.
func (s TagSet) Has(t Tag) bool { return s&(1<<t) != 0 }

// With returns s plus ts.
func (s TagSet) With(ts ...Tag) TagSet { return s | NewTagSet(ts...) }

// rule is the admissible content of one element kind.
type rule struct {
	children TagSet
	text     bool // literal words and symbols
	spaces   bool // stray whitespace is dropped instead of rejected
}

var (
	inlineSet = NewTagSet(TagI, TagB, TagCor, TagNmWork, TagNmPart, TagLB, TagFW, TagBQ, TagSBQ, TagJW)
	metaSet   = NewTagSet(TagTitle, TagAuthor, TagPublisher, TagPrinter, TagYear, TagLang, TagSource, TagSubject, TagID)
	blockSet  = NewTagSet(TagH, TagP, TagQuote, TagSB, TagPB, TagCB, TagFW)
)

// grammarOf returns the content rule for t.
func grammarOf(t Tag) rule {
	switch t {
	case TagProject:
		return rule{children: blockSet.With(TagMeta, TagCover, TagFullTitle, TagHalfTitle, TagTOC, TagSec), spaces: true}
	case TagMeta:
		return rule{children: metaSet, spaces: true}
	case TagTitle:
		return rule{children: NewTagSet(TagI, TagB, TagLB, TagH, TagBQ, TagSBQ), text: true}
	case TagAuthor, TagPublisher, TagPrinter, TagYear, TagLang, TagSource, TagSubject, TagID:
		return rule{children: NewTagSet(TagI, TagB, TagLB, TagBQ, TagSBQ), text: true}
	case TagCover:
		return rule{children: NewTagSet(TagH, TagP, TagLB, TagFW, TagI, TagB, TagPB), text: true}
	case TagFullTitle, TagHalfTitle:
		return rule{children: blockSet.With(TagTitle, TagAuthor, TagPublisher, TagPrinter, TagYear, TagLB, TagI, TagB), text: true}
	case TagSec:
		return rule{children: blockSet, spaces: true}
	case TagH:
		return rule{children: inlineSet, text: true}
	case TagP:
		return rule{children: inlineSet.With(TagQuote), text: true}
	case TagQuote:
		return rule{children: inlineSet.With(TagP, TagSB, TagPB), text: true}
	case TagI, TagB:
		return rule{children: inlineSet, text: true}
	case TagNmWork, TagNmPart:
		return rule{children: NewTagSet(TagI, TagB, TagCor, TagLB, TagFW, TagJW), text: true}
	case TagBQ, TagSBQ:
		return rule{children: inlineSet.With(TagQuote), text: true}
	case TagFW:
		return rule{children: NewTagSet(TagPG, TagSig, TagJW, TagI, TagB, TagLB), text: true, spaces: true}
	case TagCor, TagSig, TagPG:
		return rule{text: true}
	case TagJW, TagLB, TagPB, TagSB, TagCB, TagTOC:
		return rule{}
	}
	return rule{}
}

// Accepts reports whether child may appear directly inside t.
func (t Tag) Accepts(child Tag) bool { return grammarOf(t).children.Has(child) }

// AcceptsText reports whether literal text may appear directly inside t.
func (t Tag) AcceptsText() bool { return grammarOf(t).text }
