package domain

// Block is one node of a page's linearized content.
// StartIndex and EndIndex are rune offsets into DocumentStructure.Text.
type Block struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	HeadingLevel int    `json:"heading_level,omitempty"`
	Text         string `json:"text"`
	StartIndex   int    `json:"start_index"`
	EndIndex     int    `json:"end_index"`
	HasChildren  bool   `json:"has_children"`
}

// IsHeading reports whether the block delimits a section.
func (b Block) IsHeading() bool {
	return b.HeadingLevel > 0
}

// Section is a heading plus the half-open block range [StartIndex, EndIndex) it owns.
// Ownership stops at the next heading of any level, so sections partition the
// document. ScopeEnd extends to the next heading of equal-or-higher level and
// therefore includes nested subsections.
type Section struct {
	Heading      Block `json:"heading"`
	HeadingIndex int   `json:"heading_index"`
	StartIndex   int   `json:"start_index"`
	EndIndex     int   `json:"end_index"`
	ScopeEnd     int   `json:"scope_end"`
}

// Title is the heading text.
func (s Section) Title() string { return s.Heading.Text }

// Empty reports whether the section owns no content blocks.
func (s Section) Empty() bool { return s.EndIndex <= s.StartIndex }

// DocumentStructure is a derived, read-only view of a page's content.
type DocumentStructure struct {
	PageID   string    `json:"page_id"`
	Text     string    `json:"text"`
	Blocks   []Block   `json:"blocks"`
	Sections []Section `json:"sections"`
	// LeadingEnd is the block index where ungrouped leading content stops.
	LeadingEnd int `json:"leading_end"`
}

// Len is the number of blocks.
func (d *DocumentStructure) Len() int { return len(d.Blocks) }

// LastBlockID returns the ID of the final block, or "" for an empty page.
func (d *DocumentStructure) LastBlockID() string {
	if len(d.Blocks) == 0 {
		return ""
	}
	return d.Blocks[len(d.Blocks)-1].ID
}
