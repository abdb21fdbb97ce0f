// Package validation checks user-supplied paths and asset files before
// they reach the renderers or the output directory.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user-supplied input.
const (
	// MaxAssetSize is the maximum size of an asset packed into an EPUB (64 MB).
	MaxAssetSize = 64 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrAssetTooLarge    = errors.New("asset too large")
)

// SanitizePath validates a relative output path so that it cannot escape
// baseDir. It returns the cleaned path relative to baseDir.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(filepath.FromSlash(userPath))
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}

// ValidateFilename checks a single path element, such as a page file name.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	return nil
}

// ValidatePath checks length and characters of a path.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType is the detected type of an asset.
type FileType string

const (
	FileTypePNG     FileType = "png"
	FileTypeGIF     FileType = "gif"
	FileTypeJPEG    FileType = "jpeg"
	FileTypeCSS     FileType = "css"
	FileTypeHTML    FileType = "html"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures of the image assets.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypePNG, []byte{0x89, 'P', 'N', 'G'}},
	{FileTypeGIF, []byte("GIF8")},
	{FileTypeJPEG, []byte{0xff, 0xd8, 0xff}},
}

// ValidateAsset checks that the content of an asset matches the type its
// extension claims. Images are checked by magic bytes; stylesheets and
// documents must look like text.
func ValidateAsset(reader io.Reader, filename string) (FileType, error) {
	expected := fileTypeFromExtension(filename)
	if expected == FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("unknown asset type: %s", filename)
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read asset header: %w", err)
	}
	buf = buf[:n]

	detected := fileTypeFromMagic(buf)
	switch expected {
	case FileTypeCSS, FileTypeHTML:
		if detected != FileTypeUnknown || !isLikelyText(buf) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: %s is not text", filename)
		}
		return expected, nil
	}
	if detected != expected {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
	}
	return detected, nil
}

func fileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

func fileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return FileTypePNG
	case ".gif":
		return FileTypeGIF
	case ".jpg", ".jpeg":
		return FileTypeJPEG
	case ".css":
		return FileTypeCSS
	case ".html":
		return FileTypeHTML
	}
	return FileTypeUnknown
}

// isLikelyText reports whether buf is mostly printable. An empty buffer
// counts as text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else {
			control++
		}
	}
	return float64(printable)/float64(printable+control) > 0.95
}
