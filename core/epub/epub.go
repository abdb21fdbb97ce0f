// Package epub assembles EPUB 3 packages from rendered XHTML chapters and
// reads back their package documents.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/boarpig/core/encoding"
	"github.com/FocuswithJustin/boarpig/core/errors"
	"github.com/FocuswithJustin/boarpig/core/xml"
)

// MimeType is the content of the mimetype entry.
const MimeType = "application/epub+zip"

// Root is the directory holding the package document and its content.
const Root = "EPUB"

// mediaTypes maps file extensions to manifest media types.
var mediaTypes = map[string]string{
	".html": "application/xhtml+xml",
	".css":  "text/css",
	".png":  "image/png",
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MediaType returns the manifest media type for name. Any extension
// outside the fixed table is unsupported.
func MediaType(name string) (string, error) {
	ext := strings.ToLower(path.Ext(name))
	if mt, ok := mediaTypes[ext]; ok {
		return mt, nil
	}
	return "", errors.NewUnsupported("asset type", name)
}

// Metadata is the package metadata written to content.opf.
type Metadata struct {
	Title      string
	Creator    string
	Language   string
	Identifier string
	Publisher  string
	Date       string
	Subjects   []string
	Modified   time.Time
}

// Item is a file inside the EPUB root directory.
type Item struct {
	Path string
	Data []byte
}

// NavPoint is one entry of the navigation document.
type NavPoint struct {
	Label string
	Href  string
}

// Book collects the parts of a package.
type Book struct {
	Metadata  Metadata
	Documents []Item // spine order
	Resources []Item // stylesheets and images
	Nav       []NavPoint
}

// New returns an empty book in English.
func New() *Book {
	return &Book{Metadata: Metadata{Language: "en"}}
}

// AddDocument appends a content document to the spine.
func (b *Book) AddDocument(p string, data []byte) {
	b.Documents = append(b.Documents, Item{Path: p, Data: data})
}

// AddResource adds a non-spine file.
func (b *Book) AddResource(p string, data []byte) {
	b.Resources = append(b.Resources, Item{Path: p, Data: data})
}

// AddNav appends a navigation entry.
func (b *Book) AddNav(label, href string) {
	b.Nav = append(b.Nav, NavPoint{Label: label, Href: href})
}

// Identifier derives a stable urn:uuid identifier from content: a
// name-based UUID over the BLAKE3 digest of the content.
func Identifier(content []byte) string {
	sum := blake3.Sum256(content)
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, sum[:]).String()
}

const navFile = "nav.html"

// Build writes the package as a zip archive: the stored mimetype entry
// first, then container.xml, the package document, the navigation
// document and every item, all deflated.
func (b *Book) Build() ([]byte, error) {
	if len(b.Documents) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "EPUB must have at least one content document")
	}
	if b.Metadata.Identifier == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "EPUB must have an identifier")
	}
	seen := map[string]bool{navFile: true}
	for _, it := range append(append([]Item(nil), b.Documents...), b.Resources...) {
		if err := checkItemPath(it.Path); err != nil {
			return nil, err
		}
		if _, err := MediaType(it.Path); err != nil {
			return nil, err
		}
		if seen[it.Path] {
			if it.Path == navFile {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "%s is reserved for the navigation document", navFile)
			}
			return nil, errors.Wrapf(errors.ErrInvalidInput, "duplicate item %s", it.Path)
		}
		seen[it.Path] = true
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, MimeType); err != nil {
		return nil, err
	}

	entries := []Item{
		{Path: "META-INF/container.xml", Data: []byte(containerXML)},
		{Path: Root + "/content.opf", Data: b.packageDocument()},
		{Path: Root + "/" + navFile, Data: b.navDocument()},
	}
	for _, it := range b.Documents {
		entries = append(entries, Item{Path: Root + "/" + it.Path, Data: it.Data})
	}
	for _, it := range b.Resources {
		entries = append(entries, Item{Path: Root + "/" + it.Path, Data: it.Data})
	}
	for _, it := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: it.Path, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(it.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkItemPath requires a clean relative path that stays inside Root.
func checkItemPath(p string) error {
	if p == "" || path.IsAbs(p) || strings.Contains(p, "\\") || path.Clean(p) != p {
		return errors.Wrapf(errors.ErrInvalidInput, "invalid item path %q", p)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return errors.Wrapf(errors.ErrInvalidInput, "item path %q leaves the package", p)
	}
	return nil
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="EPUB/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

func (b *Book) packageDocument() []byte {
	m := b.Metadata
	modified := m.Modified
	if modified.IsZero() {
		modified = time.Now()
	}
	lang := m.Language
	if lang == "" {
		lang = "en"
	}

	var meta strings.Builder
	dc := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&meta, "    <dc:%s>%s</dc:%s>\n", name, encoding.EscapeXML(value), name)
		}
	}
	fmt.Fprintf(&meta, "    <dc:identifier id=\"BookId\">%s</dc:identifier>\n", encoding.EscapeXML(m.Identifier))
	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	dc("title", title)
	dc("creator", m.Creator)
	dc("language", lang)
	dc("publisher", m.Publisher)
	dc("date", m.Date)
	for _, s := range m.Subjects {
		dc("subject", s)
	}
	fmt.Fprintf(&meta, "    <meta property=\"dcterms:modified\">%s</meta>\n", modified.UTC().Format("2006-01-02T15:04:05Z"))

	var manifest, spine strings.Builder
	fmt.Fprintf(&manifest, "    <item id=\"nav\" href=\"%s\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n", navFile)
	for i, it := range b.Documents {
		mt, _ := MediaType(it.Path)
		id := fmt.Sprintf("doc%d", i+1)
		fmt.Fprintf(&manifest, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"/>\n", id, encoding.EscapeXMLAttr(it.Path), mt)
		fmt.Fprintf(&spine, "    <itemref idref=\"%s\"/>\n", id)
	}
	for i, it := range b.Resources {
		mt, _ := MediaType(it.Path)
		fmt.Fprintf(&manifest, "    <item id=\"res%d\" href=\"%s\" media-type=\"%s\"/>\n", i+1, encoding.EscapeXMLAttr(it.Path), mt)
	}

	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="BookId" xml:lang="%s">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
%s  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>
`, encoding.EscapeXMLAttr(lang), meta.String(), manifest.String(), spine.String()))
}

func (b *Book) navDocument() []byte {
	nav := b.Nav
	if len(nav) == 0 {
		for _, it := range b.Documents {
			nav = append(nav, NavPoint{Label: strings.TrimSuffix(path.Base(it.Path), path.Ext(it.Path)), Href: it.Path})
		}
	}
	var items strings.Builder
	for _, n := range nav {
		fmt.Fprintf(&items, "      <li><a href=\"%s\">%s</a></li>\n", encoding.EscapeXMLAttr(n.Href), encoding.EscapeXMLText(n.Label))
	}
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <meta charset="utf-8"/>
  <title>%s</title>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Contents</h1>
    <ol>
%s    </ol>
  </nav>
</body>
</html>
`, encoding.EscapeXMLText(b.Metadata.Title), items.String()))
}

// Package is what Inspect reads back from an EPUB.
type Package struct {
	Metadata Metadata
	Manifest map[string]string // href to media type
	Spine    []string          // hrefs in reading order
	Files    []string          // zip entry names in archive order
}

// Inspect opens an EPUB and reads its package document. It checks that
// mimetype is the first, stored entry and that container.xml, the package
// document and every manifest item are present and well-formed.
func Inspect(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "invalid EPUB archive")
	}
	if len(zr.File) == 0 || zr.File[0].Name != "mimetype" || zr.File[0].Method != zip.Store {
		return nil, errors.Wrap(errors.ErrInvalidInput, "mimetype must be the first, stored entry")
	}

	files := make(map[string]*zip.File, len(zr.File))
	pkg := &Package{Manifest: make(map[string]string)}
	for _, f := range zr.File {
		if _, dup := files[f.Name]; dup {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "duplicate EPUB entry %s", f.Name)
		}
		files[f.Name] = f
		pkg.Files = append(pkg.Files, f.Name)
	}

	read := func(name string) ([]byte, error) {
		f, ok := files[name]
		if !ok {
			return nil, errors.NewNotFound("EPUB entry", name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	mt, err := read("mimetype")
	if err != nil {
		return nil, err
	}
	if string(mt) != MimeType {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "mimetype is %q", mt)
	}

	container, err := read("META-INF/container.xml")
	if err != nil {
		return nil, err
	}
	cdoc, err := xml.Parse(container)
	if err != nil {
		return nil, err
	}
	rootfile, err := cdoc.XPathFirst("//*[local-name()='rootfile']")
	if err != nil {
		return nil, err
	}
	if rootfile == nil || rootfile.Attr("full-path") == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "container.xml names no rootfile")
	}
	opfPath := rootfile.Attr("full-path")

	opf, err := read(opfPath)
	if err != nil {
		return nil, err
	}
	doc, err := xml.Parse(opf)
	if err != nil {
		return nil, err
	}

	first := func(name string) string {
		n, _ := doc.XPathFirst("//*[local-name()='metadata']/*[local-name()='" + name + "']")
		if n == nil {
			return ""
		}
		return strings.TrimSpace(n.Text())
	}
	pkg.Metadata = Metadata{
		Title:      first("title"),
		Creator:    first("creator"),
		Language:   first("language"),
		Identifier: first("identifier"),
		Publisher:  first("publisher"),
		Date:       first("date"),
	}
	if pkg.Metadata.Subjects, err = doc.Texts("//*[local-name()='metadata']/*[local-name()='subject']"); err != nil {
		return nil, err
	}
	if mod, _ := doc.XPathFirst("//*[local-name()='meta'][@property='dcterms:modified']"); mod != nil {
		if t, err := time.Parse("2006-01-02T15:04:05Z", strings.TrimSpace(mod.Text())); err == nil {
			pkg.Metadata.Modified = t
		}
	}

	base := path.Dir(opfPath)
	ids := make(map[string]string)
	items, err := doc.XPath("//*[local-name()='manifest']/*[local-name()='item']")
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		href := it.Attr("href")
		pkg.Manifest[href] = it.Attr("media-type")
		ids[it.Attr("id")] = href
		content, err := read(path.Join(base, href))
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(it.Attr("media-type"), "xml") {
			if err := xml.Validate(content).Err(); err != nil {
				return nil, errors.Wrapf(err, "%s", href)
			}
		}
	}
	refs, err := doc.XPath("//*[local-name()='spine']/*[local-name()='itemref']")
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		href, ok := ids[r.Attr("idref")]
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "spine references unknown item %q", r.Attr("idref"))
		}
		pkg.Spine = append(pkg.Spine, href)
	}
	return pkg, nil
}
