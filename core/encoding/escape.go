// Package encoding holds the escaping rules shared by the renderers.
package encoding

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// EscapeXML escapes s for XML content with xml.EscapeText, which also
// encodes quotes, tabs and newlines. Used for package metadata values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	mdEscaper   = strings.NewReplacer(
		`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
		"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
	)
)

// EscapeXMLText escapes the three characters that matter in character
// data. Quotes and whitespace pass through so rendered prose stays legible.
func EscapeXMLText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeXMLAttr escapes s for a double-quoted attribute value.
func EscapeXMLAttr(s string) string {
	return attrEscaper.Replace(s)
}

// FragmentID turns heading text into a fragment identifier: whitespace
// runs become underscores. The result still needs EscapeXMLAttr.
func FragmentID(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// EscapeMarkdown backslash-escapes the characters Markdown would read as
// emphasis, code, links or headings.
func EscapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}
