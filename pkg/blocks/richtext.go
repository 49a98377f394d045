package blocks

import "regexp"

// MaxRichTextLength is the largest number of runes a single rich text segment may carry.
const MaxRichTextLength = 2000

// RichText is one styled run of text.
type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent holds the literal text and an optional link.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink target.
type Link struct {
	URL string `json:"url"`
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+[^\s<>"'.,;:!?)\]]`)

// NewRichText splits s into segments no longer than MaxRichTextLength runes
// and turns bare URLs into links. The result is never nil.
func NewRichText(s string) []RichText {
	out := []RichText{}
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(s, -1) {
		out = appendChunks(out, s[last:loc[0]], nil)
		url := s[loc[0]:loc[1]]
		out = appendChunks(out, url, &Link{URL: url})
		last = loc[1]
	}
	return appendChunks(out, s[last:], nil)
}

// PlainRichText splits s like NewRichText but never creates links.
func PlainRichText(s string) []RichText {
	return appendChunks([]RichText{}, s, nil)
}

func appendChunks(out []RichText, s string, link *Link) []RichText {
	if s == "" {
		return out
	}
	runes := []rune(s)
	for start := 0; start < len(runes); start += MaxRichTextLength {
		end := min(start+MaxRichTextLength, len(runes))
		out = append(out, RichText{
			Type: "text",
			Text: TextContent{Content: string(runes[start:end]), Link: link},
		})
	}
	return out
}
