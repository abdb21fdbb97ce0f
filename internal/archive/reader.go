// Package archive writes rendered outputs as compressed tar bundles and
// reads them back. It supports the tar.gz and tar.xz formats.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/render"
)

// Reader reads the tar stream of a bundle, decompressing by extension.
type Reader struct {
	*tar.Reader
	closers []io.Closer
}

// NewReader opens the bundle at path. The compression is taken from the
// file extension, as WriteBundle chooses it.
func NewReader(path string) (*Reader, error) {
	c, ok := compressionOf(path)
	if !ok {
		return nil, errors.NewUnsupported("bundle format", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	r := &Reader{closers: []io.Closer{f}}
	var stream io.Reader
	switch c {
	case CompressionXZ:
		stream, err = xz.NewReader(f)
	case CompressionGzip:
		var gzr *gzip.Reader
		if gzr, err = gzip.NewReader(f); err == nil {
			stream = gzr
			r.closers = append(r.closers, gzr)
		}
	}
	if err != nil {
		f.Close()
		return nil, errors.NewIO(string(c)+" decode", path, err)
	}
	r.Reader = tar.NewReader(stream)
	return r, nil
}

// Close releases the decompressor and the file, reporting the first error.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading bundle entry")
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateBundle opens a bundle and iterates through its entries.
func IterateBundle(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// stripBase removes the leading bundle directory from an entry name.
func stripBase(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ReadBundle returns the regular files of a bundle in archive order, with
// paths relative to the bundle directory.
func ReadBundle(path string) ([]render.FileInfo, error) {
	var files []render.FileInfo
	err := IterateBundle(path, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return true, err
		}
		files = append(files, render.FileInfo{Path: stripBase(header.Name), Content: content})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile reads a specific file from the bundle.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := IterateBundle(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if stripBase(header.Name) == filename || header.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, errors.NewNotFound("bundle entry", filename)
	}
	return content, nil
}
