// Package render turns a parsed project tree into output files.
//
// Every renderer is a visitor over core/ast. Renderers keep all of their
// bookkeeping in the accumulator they hand to ast.Process, so a Render call
// shares nothing with any other call.
package render

import (
	"strings"
	"time"

	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

// FileInfo is one rendered file.
type FileInfo struct {
	Path    string // relative, slash separated
	Content []byte
}

// Format names an output format.
type Format string

const (
	FormatHTML         Format = "html"        // one XHTML file per chapter plus style.css
	FormatHTMLSingle   Format = "html-single" // book.html with inline style
	FormatEPUB         Format = "epub"        // book.epub
	FormatTEI          Format = "tei"         // book.tei.xml
	FormatText         Format = "text"        // canonical, no-fw, plain text and word list
	FormatOutline      Format = "outline"     // structural summary
	FormatMarkdown     Format = "md"          // project.md and meta.md
	FormatMarkdownHTML Format = "md-html"     // Markdown body converted to XHTML
)

var formats = []Format{
	FormatHTML, FormatHTMLSingle, FormatEPUB, FormatTEI,
	FormatText, FormatOutline, FormatMarkdown, FormatMarkdownHTML,
}

// Formats returns every supported format.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", errors.NewUnsupported("format", s)
}

// Options tunes rendering. The zero value is usable.
type Options struct {
	// Assets are extra resources packed into an EPUB next to the chapters.
	Assets []FileInfo
	// Width wraps plain-text output at this column. Zero disables wrapping.
	Width int
	// Modified stamps the EPUB package. Zero means the time of the call.
	Modified time.Time
}

// Render renders tree in format f.
func Render(tree *markup.Element, f Format, opts Options) ([]FileInfo, error) {
	switch f {
	case FormatHTML:
		return HTML(tree, false)
	case FormatHTMLSingle:
		return HTML(tree, true)
	case FormatEPUB:
		return EPUB(tree, opts)
	case FormatTEI:
		return TEI(tree)
	case FormatText:
		return TextBundle(tree, opts.Width)
	case FormatOutline:
		return OutlineFiles(tree)
	case FormatMarkdown:
		return Markdown(tree)
	case FormatMarkdownHTML:
		return MarkdownHTML(tree)
	}
	return nil, errors.NewUnsupported("format", string(f))
}
