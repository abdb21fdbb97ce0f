// Package project is the glue between a project directory and the core
// packages: it merges page fragments, loads and parses the project, and
// writes, checks and bundles rendered outputs.
//
// A project directory looks like this:
//
//	DIR/proj/text/*.txt     page fragments, merged in name order
//	DIR/proj/project.bpp    the saved whole-project file, once made
//	DIR/out/FORMAT/         default output directory of gen
package project

import (
	"bytes"
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
	"github.com/FocuswithJustin/boarpig/core/render"
	"github.com/FocuswithJustin/boarpig/internal/logging"
	"github.com/FocuswithJustin/boarpig/internal/validation"
)

// Layout of a project directory, relative to its root.
const (
	ProjDir     = "proj"
	TextDir     = "proj/text"
	ProjectFile = "proj/project.bpp"
	OutDir      = "out"
)

// Merge wraps page fragments in a single project element. Pages are
// joined by one newline after dropping a single line ending from each, so
// a paragraph running over a page boundary continues while a page that
// ends in a blank line still closes its paragraph.
func Merge(pages []string) string {
	var b strings.Builder
	b.WriteString("(project\n")
	for _, p := range pages {
		p = strings.TrimSuffix(strings.TrimSuffix(p, "\n"), "\r")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// Source is the text a project was loaded from.
type Source struct {
	Text       string
	Normalized bool     // a saved project file, parsed strictly
	Pages      []string // page file names when merged from fragments
}

// ReadSource reads the saved project file when readExisting is set and
// the file exists; otherwise it merges the page fragments.
func ReadSource(dir string, readExisting bool) (*Source, error) {
	if readExisting {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ProjectFile)))
		if err == nil {
			return &Source{Text: string(data), Normalized: true}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewIO("read", ProjectFile, err)
		}
	}

	textDir := filepath.Join(dir, filepath.FromSlash(TextDir))
	entries, err := os.ReadDir(textDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFound("page text", textDir)
		}
		return nil, errors.NewIO("read", textDir, err)
	}

	src := &Source{}
	var pages []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		if err := validation.ValidateFilename(e.Name()); err != nil {
			return nil, errors.Wrapf(err, "page %q", e.Name())
		}
		data, err := os.ReadFile(filepath.Join(textDir, e.Name()))
		if err != nil {
			return nil, errors.NewIO("read", e.Name(), err)
		}
		pages = append(pages, string(data))
		src.Pages = append(src.Pages, e.Name())
	}
	if len(pages) == 0 {
		return nil, errors.NewNotFound("page text", textDir)
	}
	src.Text = Merge(pages)
	return src, nil
}

// Load reads and parses the project in dir. A saved project file is
// parsed strictly; merged pages are parsed with autoformatting.
func Load(ctx context.Context, dir string, readExisting bool) (*markup.Element, error) {
	src, err := ReadSource(dir, readExisting)
	if err != nil {
		return nil, err
	}
	logging.DebugContext(ctx, "project source",
		"saved", src.Normalized,
		"pages", len(src.Pages),
		"bytes", len(src.Text),
	)

	start := time.Now()
	tokens, err := markup.Lex(src.Text)
	if err != nil {
		logging.StageError(ctx, "lex", err)
		return nil, err
	}
	logging.Stage(ctx, "lex", time.Since(start), "tokens", len(tokens))

	start = time.Now()
	tree, err := markup.Parse(tokens, !src.Normalized)
	if err != nil {
		logging.StageError(ctx, "parse", err)
		return nil, err
	}
	logging.Stage(ctx, "parse", time.Since(start), "autoformat", !src.Normalized)
	return tree, nil
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteOutputs writes rendered files below outDir. Paths that would
// escape outDir are rejected before anything is written.
func WriteOutputs(ctx context.Context, outDir string, files []render.FileInfo) error {
	clean := make([]string, len(files))
	for i, f := range files {
		p, err := validation.SanitizePath(outDir, f.Path)
		if err != nil {
			return errors.Wrapf(err, "output %q", f.Path)
		}
		clean[i] = p
	}

	for i, f := range files {
		dst := filepath.Join(outDir, clean[i])
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.NewIO("mkdir", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, f.Content, 0644); err != nil {
			return errors.NewIO("write", dst, err)
		}
		logging.FileWritten(ctx, dst, len(f.Content), Digest(f.Content))
	}
	return nil
}

// LoadAssets reads EPUB assets from disk. Each must be a known type whose
// content matches its extension.
func LoadAssets(paths []string) ([]render.FileInfo, error) {
	var assets []render.FileInfo
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.NewIO("stat", p, err)
		}
		if info.Size() > validation.MaxAssetSize {
			return nil, errors.Wrapf(validation.ErrAssetTooLarge, "%s", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.NewIO("read", p, err)
		}
		if _, err := validation.ValidateAsset(bytes.NewReader(data), p); err != nil {
			return nil, errors.NewUnsupported("asset", err.Error())
		}
		assets = append(assets, render.FileInfo{Path: filepath.Base(p), Content: data})
	}
	return assets, nil
}
