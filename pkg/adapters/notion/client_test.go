package notion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/adapters/notion"
	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
)

func newServer(t *testing.T, r chi.Router) *notion.Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return notion.New("secret", notion.WithBaseURL(srv.URL), notion.WithRate(0), notion.WithRootPage("root"))
}

func pageJSON(id, title string) map[string]any {
	return map[string]any{
		"id":     id,
		"parent": map[string]string{"type": "page_id", "page_id": "root"},
		"properties": map[string]any{
			"Name": map[string]any{"type": "title", "title": []map[string]string{{"plain_text": title}}},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestSearchPages_Paginates(t *testing.T) {
	r := chi.NewRouter()
	var bodies []map[string]any
	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, notion.DefaultAPIVersion, r.Header.Get("Notion-Version"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		if body["start_cursor"] == nil {
			writeJSON(w, map[string]any{"results": []any{pageJSON("p1", "Shopping List")}, "has_more": true, "next_cursor": "c2"})
			return
		}
		writeJSON(w, map[string]any{"results": []any{pageJSON("p2", "Shopping Ideas")}, "has_more": false})
	})
	c := newServer(t, r)

	pages, err := c.SearchPages(context.Background(), "Shopping")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Shopping List", pages[0].Title)
	assert.Equal(t, "root", pages[0].ParentID)
	assert.Equal(t, "p2", pages[1].ID)

	require.Len(t, bodies, 2)
	assert.Equal(t, "Shopping", bodies[0]["query"])
	assert.Equal(t, "c2", bodies[1]["start_cursor"])
}

func TestListChildren_Paginates(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/blocks/{id}/children", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "page-1", chi.URLParam(r, "id"))
		if r.URL.Query().Get("start_cursor") == "" {
			writeJSON(w, map[string]any{
				"results": []any{
					map[string]any{"id": "b1", "type": "heading_2", "heading_2": map[string]any{"rich_text": []map[string]string{{"plain_text": "Tasks"}}}},
					map[string]any{"id": "b2", "type": "child_page", "has_children": true, "child_page": map[string]string{"title": "Sub"}},
				},
				"has_more": true, "next_cursor": "n",
			})
			return
		}
		writeJSON(w, map[string]any{
			"results": []any{
				map[string]any{"id": "b3", "type": "to_do", "to_do": map[string]any{"rich_text": []map[string]string{{"plain_text": "buy "}, {"plain_text": "milk"}}}},
			},
		})
	})
	c := newServer(t, r)

	recs, err := c.ListChildren(context.Background(), "page-1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Tasks", recs[0].Text)
	assert.Equal(t, "heading_2", recs[0].Type)
	assert.Equal(t, "Sub", recs[1].Text)
	assert.True(t, recs[1].HasChildren)
	assert.Equal(t, "buy milk", recs[2].Text)
}

func TestAppendChildren_AfterAndBody(t *testing.T) {
	r := chi.NewRouter()
	var got map[string]json.RawMessage
	r.Patch("/blocks/{id}/children", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, map[string]any{"results": []any{map[string]any{"id": "new-1", "type": "to_do"}}})
	})
	c := newServer(t, r)

	ids, err := c.AppendChildren(context.Background(), "page-1", "b1", []blocks.ContentBlock{
		blocks.Synthesize("milk", domain.FormatToDo),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"new-1"}, ids)
	assert.JSONEq(t, `"b1"`, string(got["after"]))

	var children []blocks.ContentBlock
	require.NoError(t, json.Unmarshal(got["children"], &children))
	require.Len(t, children, 1)
	assert.Equal(t, "milk", children[0].PlainText())
}

func TestCreatePage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/pages", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Parent map[string]string `json:"parent"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "root", body.Parent["page_id"], "empty parent uses the root page")
		writeJSON(w, map[string]any{"id": "p9", "parent": map[string]string{"page_id": "root"}, "properties": map[string]any{}})
	})
	c := newServer(t, r)

	pg, err := c.CreatePage(context.Background(), "", "Trip")
	require.NoError(t, err)
	assert.Equal(t, "p9", pg.ID)
	assert.Equal(t, "Trip", pg.Title)

	_, err = notion.New("x").CreatePage(context.Background(), "", "Trip")
	assert.ErrorIs(t, err, domain.ErrPermanent, "no root page")
}

func TestEditor(t *testing.T) {
	r := chi.NewRouter()
	var updated map[string]json.RawMessage
	deleted := ""
	r.Patch("/blocks/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
		writeJSON(w, map[string]any{"id": chi.URLParam(r, "id")})
	})
	r.Delete("/blocks/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = chi.URLParam(r, "id")
		writeJSON(w, map[string]any{"id": deleted, "archived": true})
	})
	c := newServer(t, r)

	require.NoError(t, c.UpdateBlock(context.Background(), "b1", blocks.Synthesize("oat milk", domain.FormatParagraph)))
	assert.Contains(t, updated, "paragraph")
	assert.NotContains(t, updated, "type", "the block type cannot change")

	require.NoError(t, c.DeleteBlock(context.Background(), "b1"))
	assert.Equal(t, "b1", deleted)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
	}
	for _, tt := range tests {
		r := chi.NewRouter()
		r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			writeJSON(w, map[string]string{"object": "error", "code": "some_code", "message": "it broke"})
		})
		c := newServer(t, r)

		_, err := c.SearchPages(context.Background(), "x")
		require.Error(t, err)
		assert.Equal(t, tt.transient, domain.IsTransient(err), "status %d", tt.status)
		assert.Contains(t, err.Error(), "it broke")

		var ext *domain.ExternalError
		require.ErrorAs(t, err, &ext)
		assert.Equal(t, tt.status, ext.StatusCode)
	}
}
