package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/boarpig/core/epub"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
)

// TestEPUB verifies the package built from a project.
func TestEPUB(t *testing.T) {
	tree := mustParse(t, bookSource)
	modified := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	files, err := EPUB(tree, Options{
		Modified: modified,
		Assets:   []FileInfo{{Path: "images/cover.png", Content: []byte{0x89, 'P', 'N', 'G'}}},
	})
	if err != nil {
		t.Fatalf("EPUB failed: %v", err)
	}
	if len(files) != 1 || files[0].Path != "book.epub" {
		t.Fatalf("EPUB = %q, want book.epub", paths(files))
	}

	pkg, err := epub.Inspect(files[0].Content)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if pkg.Metadata.Title != "The Book" || pkg.Metadata.Creator != "A. Writer" {
		t.Errorf("Metadata = %+v", pkg.Metadata)
	}
	want := epub.Identifier([]byte(markup.Unparse(tree, markup.UnparseOptions{})))
	if pkg.Metadata.Identifier != want {
		t.Errorf("Identifier = %q, want %q", pkg.Metadata.Identifier, want)
	}
	if !pkg.Metadata.Modified.Equal(modified) {
		t.Errorf("Modified = %v, want %v", pkg.Metadata.Modified, modified)
	}
	if got := strings.Join(pkg.Spine, ","); got != "full-title_1.html,toc_1.html,chapter_1.html,chapter_2.html" {
		t.Errorf("Spine = %q", got)
	}
	if pkg.Manifest["images/cover.png"] != "image/png" {
		t.Errorf("cover media type = %q, want image/png", pkg.Manifest["images/cover.png"])
	}
}

// TestEPUBExplicitIdentifier verifies that an id in meta wins.
func TestEPUBExplicitIdentifier(t *testing.T) {
	files, err := EPUB(mustParse(t, "(project (meta (id urn:isbn:123)) (h One) (p x))"), Options{})
	if err != nil {
		t.Fatalf("EPUB failed: %v", err)
	}
	pkg, err := epub.Inspect(files[0].Content)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if pkg.Metadata.Identifier != "urn:isbn:123" {
		t.Errorf("Identifier = %q, want urn:isbn:123", pkg.Metadata.Identifier)
	}
}

// TestEPUBRejectsAsset verifies the asset type check.
func TestEPUBRejectsAsset(t *testing.T) {
	_, err := EPUB(mustParse(t, bookSource), Options{
		Assets: []FileInfo{{Path: "font.woff", Content: []byte{1}}},
	})
	var unsupported *errors.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("EPUB with a font error = %v, want UnsupportedError", err)
	}
}

// TestEPUBStyleAsset verifies that a caller stylesheet replaces the default one.
func TestEPUBStyleAsset(t *testing.T) {
	custom := []byte("p { text-indent: 2em; }")
	files, err := EPUB(mustParse(t, bookSource), Options{
		Assets: []FileInfo{{Path: "./style.css", Content: custom}},
	})
	if err != nil {
		t.Fatalf("EPUB failed: %v", err)
	}
	data := files[0].Content
	if _, err := epub.Inspect(data); err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader failed: %v", err)
	}
	var styles [][]byte
	for _, f := range zr.File {
		if f.Name != "EPUB/style.css" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		styles = append(styles, b)
	}
	if len(styles) != 1 || !bytes.Equal(styles[0], custom) {
		t.Errorf("style.css entries = %q, want one with the caller stylesheet", styles)
	}
}

// TestEPUBAssetClash verifies that assets cannot overwrite chapters or leave the package.
func TestEPUBAssetClash(t *testing.T) {
	for _, p := range []string{"chapter_1.html", "../evil.png", "/evil.png"} {
		_, err := EPUB(mustParse(t, bookSource), Options{
			Assets: []FileInfo{{Path: p, Content: []byte{0x89, 'P', 'N', 'G'}}},
		})
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("EPUB with asset %q error = %v, want ErrInvalidInput", p, err)
		}
	}
}
