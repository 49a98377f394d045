package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
)

func texts(t *testing.T, ws *memory.Workspace, id string) []string {
	t.Helper()
	recs, err := ws.ListChildren(context.Background(), id)
	require.NoError(t, err)
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Text)
	}
	return out
}

func TestWorkspace_CreateAndSearch(t *testing.T) {
	ctx := context.Background()
	ws := memory.NewWorkspace()

	work, err := ws.CreatePage(ctx, "", "Work")
	require.NoError(t, err)
	proj, err := ws.CreatePage(ctx, work.ID, "Projects")
	require.NoError(t, err)
	assert.Equal(t, work.ID, proj.ParentID)

	all, err := ws.SearchPages(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Work", all[0].Title)

	hits, err := ws.SearchPages(ctx, "PROJ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, proj.ID, hits[0].ID)

	// The sub-page shows up as a child block of its parent.
	assert.Equal(t, []string{"Projects"}, texts(t, ws, work.ID))
}

func TestWorkspace_CreateUnderMissingParent(t *testing.T) {
	_, err := memory.NewWorkspace().CreatePage(context.Background(), "nope", "Child")
	assert.ErrorIs(t, err, domain.ErrPermanent)
}

func TestWorkspace_AppendAfter(t *testing.T) {
	ctx := context.Background()
	ws := memory.NewWorkspace()
	pg, err := ws.Seed(ctx, "", "Notes", "## Tasks", "first", "## Ideas")
	require.NoError(t, err)

	recs, err := ws.ListChildren(ctx, pg.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "heading_2", recs[0].Type)

	ids, err := ws.AppendChildren(ctx, pg.ID, recs[1].ID, []blocks.ContentBlock{
		blocks.Synthesize("second", domain.FormatToDo),
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, []string{"Tasks", "first", "second", "Ideas"}, texts(t, ws, pg.ID))

	_, err = ws.AppendChildren(ctx, pg.ID, "missing", nil)
	assert.Error(t, err)
}

func TestWorkspace_NestedChildren(t *testing.T) {
	ctx := context.Background()
	ws := memory.NewWorkspace()
	pg, err := ws.CreatePage(ctx, "", "Notes")
	require.NoError(t, err)

	ids, err := ws.AppendChildren(ctx, pg.ID, "", []blocks.ContentBlock{
		blocks.Synthesize("Groceries\n- milk\n- eggs", domain.FormatToggle),
	})
	require.NoError(t, err)

	recs, err := ws.ListChildren(ctx, pg.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].HasChildren)
	assert.Len(t, texts(t, ws, ids[0]), 2)
}

func TestWorkspace_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	ws := memory.NewWorkspace()
	pg, err := ws.Seed(ctx, "", "Shopping List", "milk", "eggs")
	require.NoError(t, err)
	recs, err := ws.ListChildren(ctx, pg.ID)
	require.NoError(t, err)

	require.NoError(t, ws.UpdateBlock(ctx, recs[0].ID, blocks.Synthesize("oat milk", domain.FormatToDo)))
	require.NoError(t, ws.DeleteBlock(ctx, recs[1].ID))

	recs, err = ws.ListChildren(ctx, pg.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "oat milk", recs[0].Text)
	assert.Equal(t, "to_do", recs[0].Type)

	require.NoError(t, ws.DeleteBlock(ctx, pg.ID))
	pages, err := ws.SearchPages(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pages)

	_, err = ws.ListChildren(ctx, pg.ID)
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
