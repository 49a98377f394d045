package resolver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

func records(lines ...string) []ports.BlockRecord {
	// "h1:Title" is a heading, anything else a paragraph.
	out := make([]ports.BlockRecord, 0, len(lines))
	for i, s := range lines {
		r := ports.BlockRecord{ID: fmt.Sprintf("b%d", i), Type: "paragraph", Text: s}
		if len(s) > 3 && s[0] == 'h' && s[2] == ':' {
			r.Type = "heading_" + string(s[1])
			r.Text = s[3:]
		}
		out = append(out, r)
	}
	return out
}

func TestBuildStructure(t *testing.T) {
	doc := BuildStructure("page", records("intro", "h2:Tasks", "buy milk", "h3:Sub", "x", "h2:Ideas", "idea"))

	require.Len(t, doc.Blocks, 7)
	assert.Equal(t, 1, doc.LeadingEnd)
	require.Len(t, doc.Sections, 3)

	tasks := doc.Sections[0]
	assert.Equal(t, "Tasks", tasks.Title())
	assert.Equal(t, 2, tasks.StartIndex)
	assert.Equal(t, 3, tasks.EndIndex)
	assert.Equal(t, 5, tasks.ScopeEnd, "scope includes the nested subsection")

	ideas := doc.Sections[2]
	assert.Equal(t, 6, ideas.StartIndex)
	assert.Equal(t, 7, ideas.EndIndex)

	// Rune offsets point back into the linearized text.
	b := doc.Blocks[2]
	assert.Equal(t, "buy milk", string([]rune(doc.Text)[b.StartIndex:b.EndIndex]))
}

func TestBuildStructure_RangeInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30)
		lines := make([]string, n)
		for i := range lines {
			if rng.Intn(3) == 0 {
				lines[i] = fmt.Sprintf("h%d:Heading %d", 1+rng.Intn(3), i)
			} else {
				lines[i] = fmt.Sprintf("text %d", i)
			}
		}
		doc := BuildStructure("p", records(lines...))

		covered := doc.LeadingEnd
		prevEnd := 0
		for _, s := range doc.Sections {
			assert.GreaterOrEqual(t, s.HeadingIndex, prevEnd, "sections overlap")
			assert.Equal(t, s.HeadingIndex+1, s.StartIndex)
			assert.LessOrEqual(t, s.StartIndex, s.EndIndex)
			assert.LessOrEqual(t, s.EndIndex, s.ScopeEnd)
			prevEnd = s.EndIndex
			covered += s.EndIndex - s.HeadingIndex
		}
		assert.Equal(t, doc.Len(), covered, "leading content plus sections cover the document")
	}
}

func TestFindSection(t *testing.T) {
	doc := BuildStructure("page", records("h2:Tasks", "a", "h2:My Day", "b", "h2:Tech Tasks", "c"))

	t.Run("Exact", func(t *testing.T) {
		m := FindSection(doc, "tasks")
		require.NotNil(t, m)
		assert.Equal(t, "Tasks", m.Section.Title())
		assert.Equal(t, MatchExact, m.Kind)
	})

	t.Run("Exact With Filler", func(t *testing.T) {
		m := FindSection(doc, "the Tech Tasks section")
		require.NotNil(t, m)
		assert.Equal(t, "Tech Tasks", m.Section.Title())
		assert.Equal(t, MatchExact, m.Kind)
	})

	t.Run("Day Section Is Not Exact", func(t *testing.T) {
		m := FindSection(doc, "day section")
		require.NotNil(t, m)
		assert.Equal(t, "My Day", m.Section.Title())
		assert.NotEqual(t, MatchExact, m.Kind)
		assert.False(t, m.Advisory())
	})

	t.Run("Substring Respects Word Boundaries", func(t *testing.T) {
		doc := BuildStructure("page", records("h2:Holiday Plans", "a", "h2:My Day", "b"))
		m := FindSection(doc, "day")
		require.NotNil(t, m)
		assert.Equal(t, "My Day", m.Section.Title())
		assert.Equal(t, MatchSubstring, m.Kind)
	})

	t.Run("Query Contains Heading", func(t *testing.T) {
		m := FindSection(doc, "tech tasks for this week")
		require.NotNil(t, m)
		assert.Equal(t, "Tech Tasks", m.Section.Title())
		assert.Equal(t, MatchSubstring, m.Kind)
	})

	t.Run("Synonym", func(t *testing.T) {
		m := FindSection(doc, "to-do")
		require.NotNil(t, m)
		assert.Equal(t, "Tasks", m.Section.Title())
		assert.Equal(t, MatchSynonym, m.Kind)
	})

	t.Run("Advisory", func(t *testing.T) {
		m := FindSection(doc, "somewhere", WithInstruction("add a tech reminder somewhere"))
		require.NotNil(t, m)
		assert.Equal(t, "Tech Tasks", m.Section.Title())
		assert.True(t, m.Advisory())
	})

	t.Run("Ambiguous Keyword Declines", func(t *testing.T) {
		m := FindSection(doc, "somewhere", WithInstruction("add tasks somewhere"))
		assert.Nil(t, m)
	})

	t.Run("Never Invents", func(t *testing.T) {
		assert.Nil(t, FindSection(doc, "Recipes"))
		assert.Nil(t, FindSection(BuildStructure("p", records("just text")), "Tasks"))
	})
}

func TestInsertionPoint(t *testing.T) {
	doc := BuildStructure("page", records("h2:Tasks", "a", "b", "h2:Empty", "h2:Ideas"))

	tasks := doc.Sections[0]
	assert.Equal(t, Insertion{ParentID: "page", AfterID: "b0"}, InsertionPoint(doc, tasks, domain.PlacementIn))
	assert.Equal(t, Insertion{ParentID: "page", AfterID: "b2"}, InsertionPoint(doc, tasks, domain.PlacementBelow))

	empty := doc.Sections[1]
	assert.Equal(t, Insertion{ParentID: "page", AfterID: "b3"}, InsertionPoint(doc, empty, domain.PlacementBelow))

	toggled := tasks
	toggled.Heading.HasChildren = true
	assert.Equal(t, Insertion{ParentID: "b0"}, InsertionPoint(doc, toggled, domain.PlacementIn))

	assert.Equal(t, Insertion{ParentID: "page"}, AppendAtEnd(doc))
}
