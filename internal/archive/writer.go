package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/render"
)

// Compression names a bundle compression.
type Compression string

const (
	CompressionXZ   Compression = "xz"
	CompressionGzip Compression = "gz"
)

// Ext returns the file extension of a bundle with compression c.
func (c Compression) Ext() string {
	return ".tar." + string(c)
}

// ParseCompression returns the compression named s.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(s)) {
	case CompressionXZ:
		return CompressionXZ, nil
	case CompressionGzip, "gzip":
		return CompressionGzip, nil
	}
	return "", errors.NewUnsupported("bundle compression", s)
}

// compressionOf reports the compression implied by a bundle path.
func compressionOf(path string) (Compression, bool) {
	for _, c := range []Compression{CompressionXZ, CompressionGzip} {
		if strings.HasSuffix(path, c.Ext()) {
			return c, true
		}
	}
	return "", false
}

// BundleName derives the directory name inside a bundle from its path by
// removing the compound extension.
func BundleName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".tar.xz", ".tar.gz", ".tar"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// WriteBundle packs rendered files into a compressed tar archive at
// dstPath, under a directory named after the archive. Compression follows
// the extension of dstPath. Every entry is stamped with modTime so that
// identical inputs give identical bundles.
func WriteBundle(dstPath string, files []render.FileInfo, modTime time.Time) error {
	c, ok := compressionOf(dstPath)
	if !ok {
		return errors.NewUnsupported("bundle format", dstPath)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create bundle file: %w", err)
	}
	defer outFile.Close()

	var cw io.WriteCloser
	if c == CompressionXZ {
		if cw, err = xz.NewWriter(outFile); err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
	} else {
		cw = gzip.NewWriter(outFile)
	}

	if err := writeTar(cw, BundleName(dstPath), files, modTime); err != nil {
		cw.Close()
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish bundle: %w", err)
	}
	return outFile.Close()
}

func writeTar(w io.Writer, baseDir string, files []render.FileInfo, modTime time.Time) error {
	tw := tar.NewWriter(w)
	dirs := map[string]bool{}

	for _, f := range files {
		name := baseDir + "/" + filepath.ToSlash(f.Path)

		// Parent directories come first, once each
		for dir := filepath.ToSlash(filepath.Dir(f.Path)); dir != "." && !dirs[dir]; dir = filepath.ToSlash(filepath.Dir(dir)) {
			dirs[dir] = true
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     baseDir + "/" + dir + "/",
				Mode:     0755,
				ModTime:  modTime,
			}); err != nil {
				return err
			}
		}

		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0644,
			Size:     int64(len(f.Content)),
			ModTime:  modTime,
		}); err != nil {
			return err
		}
		if _, err := tw.Write(f.Content); err != nil {
			return err
		}
	}
	return tw.Close()
}
