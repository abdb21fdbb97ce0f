package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestTarGz(t *testing.T, dir string) string {
	path := filepath.Join(dir, "test.tar.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	content := []byte("hello world")
	if err := tw.WriteHeader(&tar.Header{
		Name: "test/hello.txt",
		Mode: 0644,
		Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write content: %v", err)
	}

	tw.Close()
	gw.Close()
	return path
}

// TestNewReaderUnsupported verifies that unknown extensions are rejected.
func TestNewReaderUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.zip")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(path); err == nil {
		t.Error("NewReader should reject .zip")
	}
	if _, err := NewReader(filepath.Join(dir, "missing.tar.gz")); err == nil {
		t.Error("NewReader should fail for a missing file")
	}
}

// TestNewReaderCorrupt verifies that bad compressed data is rejected.
func TestNewReaderCorrupt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.tar.gz", "bad.tar.xz"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("not compressed"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewReader(path); err == nil {
			t.Errorf("NewReader(%s) should fail", name)
		}
	}
}

// TestReadFile verifies lookups with and without the bundle directory.
func TestReadFile(t *testing.T) {
	path := createTestTarGz(t, t.TempDir())

	for _, name := range []string{"hello.txt", "test/hello.txt"} {
		content, err := ReadFile(path, name)
		if err != nil {
			t.Fatalf("ReadFile(%q) failed: %v", name, err)
		}
		if string(content) != "hello world" {
			t.Errorf("ReadFile(%q) = %q, want %q", name, content, "hello world")
		}
	}

	if _, err := ReadFile(path, "missing.txt"); err == nil {
		t.Error("ReadFile should fail for a missing entry")
	}
}

// TestIterateStop verifies that a visitor can stop iteration early.
func TestIterateStop(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "b.tar.xz")
	if err := WriteBundle(dst, bundleFiles, time.Unix(0, 0)); err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}
	count := 0
	err := IterateBundle(dst, func(*tar.Header, io.Reader) (bool, error) {
		count++
		return count == 2, nil
	})
	if err != nil {
		t.Fatalf("IterateBundle failed: %v", err)
	}
	if count != 2 {
		t.Errorf("visited %d entries, want 2", count)
	}
}
