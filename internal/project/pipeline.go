package project

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/boarpig/core/epub"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/render"
	"github.com/FocuswithJustin/boarpig/core/xml"
	"github.com/FocuswithJustin/boarpig/internal/archive"
	"github.com/FocuswithJustin/boarpig/internal/logging"
)

// MakeOptions configures Make.
type MakeOptions struct {
	// Clobber re-merges the page fragments even when a saved project
	// file exists, overwriting it.
	Clobber bool
	// Width wraps the plain-text export.
	Width int
}

// Make parses the project in dir and writes the text bundle, including
// the canonical project file, into dir/proj.
func Make(ctx context.Context, dir string, opts MakeOptions) ([]render.FileInfo, error) {
	ctx = logging.WithProject(ctx, dir)
	tree, err := Load(ctx, dir, !opts.Clobber)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	files, err := render.TextBundle(tree, opts.Width)
	if err != nil {
		logging.StageError(ctx, "render", err, "format", render.FormatText)
		return nil, err
	}
	logging.Stage(ctx, "render", time.Since(start), "format", render.FormatText, "files", len(files))

	if err := WriteOutputs(ctx, filepath.Join(dir, ProjDir), files); err != nil {
		return nil, err
	}
	return files, nil
}

// GenOptions configures Gen.
type GenOptions struct {
	Format render.Format
	// Out is the output directory. Empty means dir/out/FORMAT.
	Out string
	// Bundle packs the outputs into OUT/NAME-FORMAT.tar.{xz,gz} instead of
	// writing them as loose files. Empty writes loose files.
	Bundle archive.Compression
	// Assets are files packed into an EPUB next to the chapters.
	Assets []string
	// Check validates rendered XML, XHTML and EPUB outputs before they are
	// written.
	Check bool
	// Width wraps the plain-text export.
	Width int
	// Modified stamps the EPUB package and bundle entries. Zero means now.
	Modified time.Time
}

// Gen renders the project in dir and writes the result. It returns the
// paths it wrote.
func Gen(ctx context.Context, dir string, opts GenOptions) ([]string, error) {
	ctx = logging.WithProject(ctx, dir)
	tree, err := Load(ctx, dir, true)
	if err != nil {
		return nil, err
	}

	if len(opts.Assets) > 0 && opts.Format != render.FormatEPUB {
		logging.WarnContext(ctx, "assets are only packed into EPUB output", "format", opts.Format, "assets", len(opts.Assets))
	}
	assets, err := LoadAssets(opts.Assets)
	if err != nil {
		return nil, err
	}
	modified := opts.Modified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}

	start := time.Now()
	files, err := render.Render(tree, opts.Format, render.Options{
		Assets:   assets,
		Width:    opts.Width,
		Modified: modified,
	})
	if err != nil {
		logging.StageError(ctx, "render", err, "format", opts.Format)
		return nil, err
	}
	logging.Stage(ctx, "render", time.Since(start), "format", opts.Format, "files", len(files))

	if opts.Check {
		start = time.Now()
		if err := Check(files); err != nil {
			logging.StageError(ctx, "check", err)
			return nil, err
		}
		logging.Stage(ctx, "check", time.Since(start), "files", len(files))
	}

	out := opts.Out
	if out == "" {
		out = filepath.Join(dir, OutDir, string(opts.Format))
	}

	if opts.Bundle != "" {
		dst := filepath.Join(out, BundleFileName(dir, opts.Format, opts.Bundle))
		if err := archive.WriteBundle(dst, files, modified); err != nil {
			return nil, errors.NewIO("bundle", dst, err)
		}
		if opts.Check {
			if err := CheckBundle(dst); err != nil {
				return nil, errors.Wrapf(err, "%s", dst)
			}
		}
		logging.InfoContext(ctx, "bundle written", "path", dst, "files", len(files))
		return []string{dst}, nil
	}

	if err := WriteOutputs(ctx, out, files); err != nil {
		return nil, err
	}
	written := make([]string, len(files))
	for i, f := range files {
		written[i] = filepath.Join(out, filepath.FromSlash(f.Path))
	}
	return written, nil
}

// BundleFileName names the bundle of format f for the project in dir.
func BundleFileName(dir string, f render.Format, c archive.Compression) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		name = "project"
	}
	return name + "-" + string(f) + c.Ext()
}

// Check validates rendered outputs: XML and XHTML files must be
// well-formed and EPUB packages must read back with every content
// document well-formed.
func Check(files []render.FileInfo) error {
	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Path, ".html"), strings.HasSuffix(f.Path, ".xml"):
			if err := xml.Validate(f.Content).Err(); err != nil {
				return errors.Wrapf(err, "%s", f.Path)
			}
		case strings.HasSuffix(f.Path, ".epub"):
			if _, err := epub.Inspect(f.Content); err != nil {
				return errors.Wrapf(err, "%s", f.Path)
			}
		}
	}
	return nil
}

// CheckBundle reads a written bundle back and checks its files.
func CheckBundle(path string) error {
	files, err := archive.ReadBundle(path)
	if err != nil {
		return err
	}
	return Check(files)
}
