// Package markup implements the bracket-tag markup used for hand-corrected
// page text: a lexer, a recursive-descent parser and a serializer.
//
// # Syntax
//
// An element is written (tag content). The older (:tag content) spelling is
// still accepted on input and is always written back in the canonical form.
// Leaf tags (jw, lb, pb, sb, cb, toc) take no content; (sb*) marks the short
// separator variant. pg wraps exactly one word.
//
// # Parsing Modes
//
// Strict mode re-reads a saved project file and requires balanced,
// grammatical input. Autoformat mode ingests freshly merged page text:
//
//   - bare text at block level is wrapped in a paragraph
//   - a non-tag parenthesis opens a bq element
//   - a blank line ends the current paragraph
//   - form-work trailing a paragraph is hoisted out before a heading
//   - paragraphs split around form-work at a page boundary are joined
//
// Every error aborts the parse; no partial tree is returned.
package markup
