package markup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/boarpig/core/errors"
)

// Kind classifies a token.
type Kind uint8

const (
	KindExpr   Kind = iota + 1 // start of a tagged element
	KindWord                   // maximal run of non-symbol characters
	KindSymbol                 // one character from the symbol set
)

func (k Kind) String() string {
	switch k {
	case KindExpr:
		return "EXPR"
	case KindWord:
		return "WORD"
	case KindSymbol:
		return "SYM"
	}
	return "INVALID"
}

// Token is one lexeme of normalized source text.
type Token struct {
	Kind   Kind
	Pos    int // byte offset of the token in the normalized text
	Lexeme string

	// LineStart is set on a token that began a source line. The line
	// break before it was dropped during normalization.
	LineStart bool

	// Mark is set on an EXPR written with a trailing star, as in (sb*).
	Mark bool
}

func (t Token) String() string {
	var flags string
	if t.LineStart {
		flags += " ^"
	}
	if t.Mark {
		flags += " *"
	}
	return fmt.Sprintf("%d %s %q%s", t.Pos, t.Kind, t.Lexeme, flags)
}

// Symbols is the fixed set of characters that always break words.
const Symbols = "?!.,:;–—‘’“”()\n "

// IsSymbol reports whether r is in the symbol set.
func IsSymbol(r rune) bool {
	return strings.ContainsRune(Symbols, r)
}

const (
	paraBreak = '\r'     // stands in for a blank line until the end of normalization
	lineMark  = '\uFDD0' // "(" opened a source line
)

var (
	reLineEnd  = regexp.MustCompile(`\r\n?`)
	reBlank    = regexp.MustCompile(`\n\n+`)
	reCloseRun = regexp.MustCompile(`\)\s+\)`)
	reHyphen   = regexp.MustCompile(`[ ]*-[ ]*`)
	reEnDash   = regexp.MustCompile(`[ ]*–[ ]*`)
	reEmDash   = regexp.MustCompile(`[ ]*—[ ]*`)
)

// Normalize applies the source rewrites that precede tokenization. The
// result is a single logical line in which "\n" only marks paragraph
// breaks and lineMark precedes parentheses that opened a source line.
func Normalize(raw string) string {
	x := norm.NFC.String(raw)
	x = strings.ReplaceAll(x, string(lineMark), "")
	x = reLineEnd.ReplaceAllString(x, "\n")
	x = reBlank.ReplaceAllString(x, string(paraBreak))
	x = strings.ReplaceAll(x, "-\n", "--\n")
	x = strings.ReplaceAll(x, "\n(", string(lineMark)+"(")
	for {
		y := reCloseRun.ReplaceAllString(x, "))")
		if y == x {
			break
		}
		x = y
	}
	x = strings.ReplaceAll(x, "\n", " ")
	x = reHyphen.ReplaceAllString(x, "-")
	x = reEnDash.ReplaceAllString(x, "–")
	x = reEmDash.ReplaceAllString(x, "—")
	return strings.ReplaceAll(x, string(paraBreak), "\n")
}

// Lex normalizes raw and splits it into tokens.
func Lex(raw string) ([]Token, error) {
	return tokenize(Normalize(raw))
}

func tokenize(x string) ([]Token, error) {
	var (
		tokens    []Token
		lineStart bool
	)
	emit := func(kind Kind, pos int, lexeme string, mark bool) error {
		if lexeme == "" {
			return errors.Wrapf(errors.ErrInternal, "empty %s token at %d", kind, pos)
		}
		tokens = append(tokens, Token{Kind: kind, Pos: pos, Lexeme: lexeme, LineStart: lineStart, Mark: mark})
		lineStart = false
		return nil
	}

	for i := 0; i < len(x); {
		r, w := utf8.DecodeRuneInString(x[i:])
		switch {
		case r == lineMark:
			lineStart = true
			i += w
			continue
		case r == '(':
			if name, mark, n, ok := readTag(x, i); ok {
				if err := emit(KindExpr, i, name, mark); err != nil {
					return nil, err
				}
				i += n
				continue
			}
			if err := emit(KindSymbol, i, "(", false); err != nil {
				return nil, err
			}
			i += w
		case IsSymbol(r):
			if err := emit(KindSymbol, i, string(r), false); err != nil {
				return nil, err
			}
			i += w
		default:
			word := readWord(x[i:])
			if word == "" {
				// unreachable: r is neither a symbol nor the line mark
				return nil, errors.Wrapf(errors.ErrInternal, "lexer stalled at %d", i)
			}
			if err := emit(KindWord, i, word, false); err != nil {
				return nil, err
			}
			i += len(word)
		}
	}
	return tokens, nil
}

func readWord(x string) string {
	for j, r := range x {
		if IsSymbol(r) || r == lineMark {
			return x[:j]
		}
	}
	return x
}

// readTag reports whether the "(" at x[i] opens an element. A colon
// prefix makes any word a tag lexeme so that unknown names are reported
// by the parser; a bare name must belong to the vocabulary.
func readTag(x string, i int) (name string, mark bool, n int, ok bool) {
	j := i + 1
	colon := j < len(x) && x[j] == ':'
	if colon {
		j++
	}
	word := readWord(x[j:])
	if word == "" {
		return "", false, 0, false
	}
	name = word
	if base, found := strings.CutSuffix(word, "*"); found {
		if _, known := LookupTag(base); known {
			name, mark = base, true
		}
	}
	if !colon {
		if _, known := LookupTag(name); !known {
			return "", false, 0, false
		}
	}
	return name, mark, j + len(word) - i, true
}
