package render

import (
	"path"

	"github.com/FocuswithJustin/boarpig/core/epub"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

// EPUB renders tree as an EPUB 3 package, book.epub. Chapters come from
// the multi-file HTML layout; opts.Assets are added as resources and must
// have a known media type. An asset named style.css replaces the default
// stylesheet; any other clash with a generated file is an error.
func EPUB(tree *markup.Element, opts Options) ([]FileInfo, error) {
	h, err := renderHTML(tree, false)
	if err != nil {
		return nil, err
	}
	meta := ReadMeta(tree)

	book := epub.New()
	book.Metadata = epub.Metadata{
		Title:      meta.Title,
		Creator:    meta.Author,
		Language:   meta.language(),
		Identifier: meta.ID,
		Publisher:  meta.Publisher,
		Date:       meta.Year,
		Subjects:   meta.Subjects,
		Modified:   opts.Modified,
	}
	if book.Metadata.Identifier == "" {
		book.Metadata.Identifier = epub.Identifier([]byte(markup.Unparse(tree, markup.UnparseOptions{})))
	}

	for i, f := range h.chapterFiles(meta) {
		book.AddDocument(f.Path, f.Content)
		label := h.chapters[i].label
		if label == "" {
			label = h.chapters[i].kind
		}
		book.AddNav(label, f.Path)
	}
	style := []byte(Style)
	var assets []FileInfo
	for _, a := range opts.Assets {
		if _, err := epub.MediaType(a.Path); err != nil {
			return nil, err
		}
		p := path.Clean(a.Path)
		if p == styleFile {
			style = a.Content
			continue
		}
		assets = append(assets, FileInfo{Path: p, Content: a.Content})
	}
	book.AddResource(styleFile, style)
	for _, a := range assets {
		book.AddResource(a.Path, a.Content)
	}

	data, err := book.Build()
	if err != nil {
		return nil, err
	}
	return []FileInfo{{Path: "book.epub", Content: data}}, nil
}
