package resolver

import (
	"strings"
	"unicode/utf8"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// HeadingLevel returns 1-3 for heading block types and 0 otherwise.
func HeadingLevel(blockType string) int {
	return domain.FormatType(blockType).HeadingLevel()
}

// BuildStructure linearizes a page's children into a DocumentStructure.
// Each block owns the rune range of its text in doc.Text; blocks are joined by a newline.
func BuildStructure(pageID string, records []ports.BlockRecord) *domain.DocumentStructure {
	doc := &domain.DocumentStructure{
		PageID: pageID,
		Blocks: make([]domain.Block, 0, len(records)),
	}

	var sb strings.Builder
	offset := 0
	for i, r := range records {
		if i > 0 {
			sb.WriteByte('\n')
			offset++
		}
		n := utf8.RuneCountInString(r.Text)
		doc.Blocks = append(doc.Blocks, domain.Block{
			ID:           r.ID,
			Type:         r.Type,
			HeadingLevel: HeadingLevel(r.Type),
			Text:         r.Text,
			StartIndex:   offset,
			EndIndex:     offset + n,
			HasChildren:  r.HasChildren,
		})
		sb.WriteString(r.Text)
		offset += n
	}
	doc.Text = sb.String()
	doc.Sections, doc.LeadingEnd = sections(doc.Blocks)
	return doc
}

// sections partitions blocks at every heading. A section owns the blocks
// after its heading up to the next heading of any level; ScopeEnd runs to the
// next heading of equal or higher level.
func sections(blocks []domain.Block) ([]domain.Section, int) {
	var out []domain.Section
	leadingEnd := len(blocks)

	for i, b := range blocks {
		if !b.IsHeading() {
			continue
		}
		if len(out) == 0 {
			leadingEnd = i
		}
		end, scope := len(blocks), len(blocks)
		for j := i + 1; j < len(blocks); j++ {
			if !blocks[j].IsHeading() {
				continue
			}
			if end == len(blocks) {
				end = j
			}
			if blocks[j].HeadingLevel <= b.HeadingLevel {
				scope = j
				break
			}
		}
		out = append(out, domain.Section{
			Heading:      b,
			HeadingIndex: i,
			StartIndex:   i + 1,
			EndIndex:     end,
			ScopeEnd:     scope,
		})
	}
	return out, leadingEnd
}

// Insertion is a concrete write position: children go under ParentID,
// right after AfterID, or at the end when AfterID is empty.
type Insertion struct {
	ParentID string
	AfterID  string
}

// AppendAtEnd is the insertion point for writes without a section.
func AppendAtEnd(doc *domain.DocumentStructure) Insertion {
	return Insertion{ParentID: doc.PageID}
}

// InsertionPoint resolves a placement against a section.
//
// PlacementIn inserts as the first content under the heading, or as a child
// of the heading when the heading block carries children (toggle headings).
// PlacementBelow inserts after the section's last block, before the next heading.
func InsertionPoint(doc *domain.DocumentStructure, sec domain.Section, placement domain.Placement) Insertion {
	if placement == domain.PlacementBelow {
		last := sec.Heading.ID
		if !sec.Empty() {
			last = doc.Blocks[sec.EndIndex-1].ID
		}
		return Insertion{ParentID: doc.PageID, AfterID: last}
	}
	if sec.Heading.HasChildren {
		return Insertion{ParentID: sec.Heading.ID}
	}
	return Insertion{ParentID: doc.PageID, AfterID: sec.Heading.ID}
}
