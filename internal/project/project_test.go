package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/boarpig/core/epub"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/markup"
	"github.com/FocuswithJustin/boarpig/core/render"
	"github.com/FocuswithJustin/boarpig/internal/archive"
)

// writeProject creates a project directory holding the given pages.
func writeProject(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	textDir := filepath.Join(dir, "proj", "text")
	if err := os.MkdirAll(textDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(textDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var samplePages = map[string]string{
	"0001.txt": "(meta (title Sea Tales))\n(h Chapter One)\n",
	"0002.txt": "It was a dark night.\n\nThe sea was calm.\n",
	"0003.txt": "(h Chapter Two)\nMorning came.\n",
	"notes.md": "ignored",
}

// TestMerge verifies how page fragments are wrapped.
func TestMerge(t *testing.T) {
	got := Merge([]string{"(p A)\n", "(p B)"})
	if want := "(project\n(p A)\n(p B)\n)"; got != want {
		t.Errorf("Merge = %q, want %q", got, want)
	}
	if got := Merge(nil); got != "(project\n)" {
		t.Errorf("Merge(nil) = %q", got)
	}
}

// TestMergePageBoundaries verifies paragraphs across page boundaries.
func TestMergePageBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		paras int
	}{
		{"blank line ends the paragraph", []string{"First paragraph ends here.\n\n", "Second paragraph starts.\n"}, 2},
		{"crlf blank line", []string{"First paragraph ends here.\r\n\r\n", "Second paragraph starts.\r\n"}, 2},
		{"single line ending continues", []string{"A sentence that\n", "goes on.\n"}, 1},
		{"no line ending continues", []string{"A sentence that", "goes on."}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := markup.ParseProject(Merge(tt.pages), false)
			if err != nil {
				t.Fatalf("ParseProject failed: %v", err)
			}
			if got := len(tree.Elements(markup.TagP)); got != tt.paras {
				t.Errorf("paragraphs = %d, want %d", got, tt.paras)
			}
		})
	}
}

// TestReadSourcePages verifies merging of page files in name order.
func TestReadSourcePages(t *testing.T) {
	dir := writeProject(t, samplePages)
	src, err := ReadSource(dir, true)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if src.Normalized {
		t.Error("merged pages should not be marked normalized")
	}
	if got := strings.Join(src.Pages, ","); got != "0001.txt,0002.txt,0003.txt" {
		t.Errorf("Pages = %q", got)
	}
	if !strings.HasPrefix(src.Text, "(project\n(meta") || !strings.HasSuffix(src.Text, "Morning came.\n)") {
		t.Errorf("Text = %q", src.Text)
	}
}

// TestReadSourceMissing verifies the error for a directory without pages.
func TestReadSourceMissing(t *testing.T) {
	if _, err := ReadSource(t.TempDir(), true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ReadSource(empty dir) error = %v, want ErrNotFound", err)
	}
	dir := writeProject(t, map[string]string{"readme.md": "x"})
	if _, err := ReadSource(dir, true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ReadSource(no .txt) error = %v, want ErrNotFound", err)
	}
}

// TestLoadAutoformat verifies that merged pages are autoformatted.
func TestLoadAutoformat(t *testing.T) {
	dir := writeProject(t, samplePages)
	tree, err := Load(context.Background(), dir, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(tree.Elements(markup.TagH)); got != 2 {
		t.Errorf("headings = %d, want 2", got)
	}
	if got := len(tree.Elements(markup.TagP)); got != 3 {
		t.Errorf("paragraphs = %d, want 3", got)
	}
}

// TestMakeThenLoad verifies that make writes a project file that later
// loads win over the pages, and that clobber re-merges them.
func TestMakeThenLoad(t *testing.T) {
	dir := writeProject(t, samplePages)
	files, err := Make(context.Background(), dir, MakeOptions{})
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("Make returned %d files, want 4", len(files))
	}
	for _, name := range []string{"project.bpp", "project.no-fw.txt.bpp", "project.plain.txt.bpp", "words.txt.bpp"} {
		if _, err := os.Stat(filepath.Join(dir, "proj", name)); err != nil {
			t.Errorf("missing proj/%s: %v", name, err)
		}
	}

	merged, err := Load(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("Load(pages) failed: %v", err)
	}
	saved, err := Load(context.Background(), dir, true)
	if err != nil {
		t.Fatalf("Load(saved) failed: %v", err)
	}
	if !markup.Equal(merged, saved) {
		t.Error("saved project should parse to the same tree as the merged pages")
	}

	// Hand edits to the saved file win until clobbered.
	edited := "(project\n(h Only))\n"
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}
	tree, err := Load(context.Background(), dir, true)
	if err != nil {
		t.Fatalf("Load(edited) failed: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Errorf("edited project has %d children, want 1", len(tree.Children))
	}
	if _, err := Make(context.Background(), dir, MakeOptions{Clobber: true}); err != nil {
		t.Fatalf("Make(clobber) failed: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ProjectFile))
	if strings.Contains(string(data), "(h Only)") {
		t.Error("clobber should overwrite the saved project")
	}
}

// TestLoadParseError verifies that parse errors surface unchanged.
func TestLoadParseError(t *testing.T) {
	dir := writeProject(t, map[string]string{"0001.txt": "(p unclosed\n"})
	_, err := Load(context.Background(), dir, true)
	var perr *errors.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Load error = %v, want ParseError", err)
	}
}

// TestWriteOutputs verifies writing and the traversal check.
func TestWriteOutputs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	files := []render.FileInfo{
		{Path: "a.html", Content: []byte("<p/>")},
		{Path: "images/b.png", Content: []byte{0x89}},
	}
	if err := WriteOutputs(context.Background(), out, files); err != nil {
		t.Fatalf("WriteOutputs failed: %v", err)
	}
	if data, err := os.ReadFile(filepath.Join(out, "images", "b.png")); err != nil || len(data) != 1 {
		t.Errorf("images/b.png = %v, %v", data, err)
	}

	bad := []render.FileInfo{
		{Path: "ok.txt", Content: []byte("x")},
		{Path: "../escape.txt", Content: []byte("x")},
	}
	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteOutputs(context.Background(), dir, bad); err == nil {
		t.Fatal("WriteOutputs should reject an escaping path")
	}
	if _, err := os.Stat(filepath.Join(dir, "ok.txt")); !os.IsNotExist(err) {
		t.Error("nothing should be written when a path is rejected")
	}
}

// TestDigest verifies the BLAKE3 hex digest.
func TestDigest(t *testing.T) {
	d := Digest([]byte("abc"))
	if len(d) != 64 {
		t.Errorf("len(Digest) = %d, want 64", len(d))
	}
	if d != Digest([]byte("abc")) || d == Digest([]byte("abd")) {
		t.Error("Digest should be deterministic and content-sensitive")
	}
}

// TestLoadAssets verifies asset loading and type checks.
func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "cover.png")
	fake := filepath.Join(dir, "fake.png")
	font := filepath.Join(dir, "font.woff")
	os.WriteFile(png, []byte{0x89, 'P', 'N', 'G', 0, 0}, 0644)
	os.WriteFile(fake, []byte("text"), 0644)
	os.WriteFile(font, []byte("wOFF"), 0644)

	assets, err := LoadAssets([]string{png})
	if err != nil {
		t.Fatalf("LoadAssets failed: %v", err)
	}
	if len(assets) != 1 || assets[0].Path != "cover.png" {
		t.Errorf("assets = %+v", assets)
	}

	for _, p := range []string{fake, font} {
		_, err := LoadAssets([]string{p})
		if !errors.Is(err, errors.ErrUnsupported) {
			t.Errorf("LoadAssets(%s) error = %v, want ErrUnsupported", filepath.Base(p), err)
		}
	}
	if _, err := LoadAssets([]string{filepath.Join(dir, "missing.png")}); err == nil {
		t.Error("LoadAssets should fail for a missing file")
	}
}

// TestGenFormats verifies loose-file output for every format with checks.
func TestGenFormats(t *testing.T) {
	dir := writeProject(t, samplePages)
	for _, f := range render.Formats() {
		t.Run(string(f), func(t *testing.T) {
			written, err := Gen(context.Background(), dir, GenOptions{Format: f, Check: true})
			if err != nil {
				t.Fatalf("Gen failed: %v", err)
			}
			if len(written) == 0 {
				t.Fatal("Gen wrote nothing")
			}
			for _, p := range written {
				if !strings.HasPrefix(p, filepath.Join(dir, "out", string(f))) {
					t.Errorf("%s is outside the default output directory", p)
				}
				if _, err := os.Stat(p); err != nil {
					t.Errorf("missing %s: %v", p, err)
				}
			}
		})
	}
}

// TestGenBundle verifies bundled output and its read-back check.
func TestGenBundle(t *testing.T) {
	dir := writeProject(t, samplePages)
	out := filepath.Join(t.TempDir(), "dist")
	stamp := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	written, err := Gen(context.Background(), dir, GenOptions{
		Format:   render.FormatHTML,
		Out:      out,
		Bundle:   archive.CompressionXZ,
		Check:    true,
		Modified: stamp,
	})
	if err != nil {
		t.Fatalf("Gen failed: %v", err)
	}
	want := filepath.Join(out, filepath.Base(dir)+"-html.tar.xz")
	if len(written) != 1 || written[0] != want {
		t.Fatalf("written = %q, want [%s]", written, want)
	}
	files, err := archive.ReadBundle(want)
	if err != nil {
		t.Fatalf("ReadBundle failed: %v", err)
	}
	if files[len(files)-1].Path != "style.css" {
		t.Errorf("last bundle file = %q, want style.css", files[len(files)-1].Path)
	}
}

// TestGenEPUBModified verifies that the stamp reaches the package.
func TestGenEPUBModified(t *testing.T) {
	dir := writeProject(t, samplePages)
	stamp := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	written, err := Gen(context.Background(), dir, GenOptions{Format: render.FormatEPUB, Modified: stamp})
	if err != nil {
		t.Fatalf("Gen failed: %v", err)
	}
	data, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := epub.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !pkg.Metadata.Modified.Equal(stamp) {
		t.Errorf("Modified = %v, want %v", pkg.Metadata.Modified, stamp)
	}
	if pkg.Metadata.Title != "Sea Tales" {
		t.Errorf("Title = %q, want Sea Tales", pkg.Metadata.Title)
	}
}

// TestCheck verifies output checks.
func TestCheck(t *testing.T) {
	good := []render.FileInfo{
		{Path: "a.html", Content: []byte("<html><body><br/></body></html>")},
		{Path: "notes.txt", Content: []byte("<not xml")},
	}
	if err := Check(good); err != nil {
		t.Errorf("Check(good) = %v", err)
	}
	if err := Check([]render.FileInfo{{Path: "b.xml", Content: []byte("<a><b></a>")}}); err == nil {
		t.Error("Check should reject malformed XML")
	}
	if err := Check([]render.FileInfo{{Path: "book.epub", Content: []byte("zip?")}}); err == nil {
		t.Error("Check should reject a broken EPUB")
	}
}

// TestBundleFileName verifies bundle naming.
func TestBundleFileName(t *testing.T) {
	got := BundleFileName("/books/sea-tales/", render.FormatEPUB, archive.CompressionGzip)
	if got != "sea-tales-epub.tar.gz" {
		t.Errorf("BundleFileName = %q", got)
	}
}
