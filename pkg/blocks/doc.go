// Package blocks turns command content into workspace content blocks.
//
// Synthesize is a pure mapping from a domain.FormatType and raw text onto a
// Notion-shaped ContentBlock. Toggle children and fenced code are read with
// goldmark; everything else is plain rich text with bare URLs turned into links.
package blocks
