package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// pageIndex is a Workspace stub whose search is a loose substring filter.
type pageIndex struct {
	pages    []ports.PageRef
	err      error
	searches []string
}

func (p *pageIndex) SearchPages(_ context.Context, query string) ([]ports.PageRef, error) {
	p.searches = append(p.searches, query)
	if p.err != nil {
		return nil, p.err
	}
	var out []ports.PageRef
	for _, pg := range p.pages {
		if query == "" || strings.Contains(strings.ToLower(pg.Title), strings.ToLower(query)) {
			out = append(out, pg)
		}
	}
	return out, nil
}

func (p *pageIndex) CreatePage(context.Context, string, string) (ports.PageRef, error) {
	return ports.PageRef{}, errors.New("not implemented")
}

func (p *pageIndex) ListChildren(context.Context, string) ([]ports.BlockRecord, error) {
	return nil, nil
}

func (p *pageIndex) AppendChildren(context.Context, string, string, []blocks.ContentBlock) ([]string, error) {
	return nil, nil
}

func TestResolve_ExactWins(t *testing.T) {
	ws := &pageIndex{pages: []ports.PageRef{{ID: "2", Title: "Brunch Ideas"}, {ID: "1", Title: "Bruh"}}}
	r := NewTargetResolver(ws)

	m, err := r.Resolve(context.Background(), "bruh")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Bruh", m.Title)
	assert.Equal(t, 1.0, m.Score)
	assert.Equal(t, []string{"bruh"}, ws.searches, "exact hit on search needs no listing")
}

func TestResolve_Similarity(t *testing.T) {
	ws := &pageIndex{pages: []ports.PageRef{
		{ID: "1", Title: "Weekly Plan"},
		{ID: "2", Title: "Shopping List"},
	}}
	r := NewTargetResolver(ws)

	m, err := r.Resolve(context.Background(), "shoping list")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Shopping List", m.Title)
	assert.Less(t, m.Score, 1.0)
	assert.GreaterOrEqual(t, m.Score, DefaultThreshold)
}

func TestResolve_BelowThreshold(t *testing.T) {
	ws := &pageIndex{pages: []ports.PageRef{{ID: "1", Title: "Quarterly Taxes"}}}
	m, err := NewTargetResolver(ws).Resolve(context.Background(), "zoo")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolve_TieBreakFirstListed(t *testing.T) {
	ws := &pageIndex{pages: []ports.PageRef{{ID: "a", Title: "Notes A"}, {ID: "b", Title: "Notes B"}}}
	m, err := NewTargetResolver(ws).Resolve(context.Background(), "notes")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "a", m.ID)
}

func TestResolve_Error(t *testing.T) {
	ws := &pageIndex{err: &domain.ExternalError{Op: "search", StatusCode: 503}}
	_, err := NewTargetResolver(ws).Resolve(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("bruh", "Bruh"))
	assert.InDelta(t, 4.0/12.0+0.5, Similarity("brun", "Brunch Ideas"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("", "x"), 1e-9)
	assert.LessOrEqual(t, Similarity("ab", "abab"), 1.0)
}
