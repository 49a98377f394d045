package memory

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// RootID is the parent of pages created without one.
const RootID = "root"

type node struct {
	record   ports.BlockRecord
	parentID string
	page     bool
	title    string
}

// Workspace implements ports.Workspace and ports.BlockEditor in memory.
// Pages are children of their parent page, like Notion child_page blocks.
// Safe for concurrent use.
type Workspace struct {
	mu       sync.RWMutex
	nodes    map[string]*node
	children map[string][]string
	pages    []string // creation order
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		nodes:    make(map[string]*node),
		children: make(map[string][]string),
	}
}

func notFound(op, id string) error {
	return &domain.ExternalError{Op: op, StatusCode: http.StatusNotFound, Err: fmt.Errorf("object %q not found", id)}
}

// SearchPages matches titles case-insensitively by substring, in creation order.
func (w *Workspace) SearchPages(_ context.Context, query string) ([]ports.PageRef, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := []ports.PageRef{}
	for _, id := range w.pages {
		n := w.nodes[id]
		if q == "" || strings.Contains(strings.ToLower(n.title), q) {
			out = append(out, w.ref(n))
		}
	}
	return out, nil
}

func (w *Workspace) ref(n *node) ports.PageRef {
	parent := n.parentID
	if parent == RootID {
		parent = ""
	}
	return ports.PageRef{ID: n.record.ID, Title: n.title, ParentID: parent}
}

// CreatePage adds a page under parentID, or under the root when empty.
func (w *Workspace) CreatePage(_ context.Context, parentID, title string) (ports.PageRef, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ports.PageRef{}, &domain.ExternalError{Op: "create page", StatusCode: http.StatusBadRequest, Err: fmt.Errorf("title is required")}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if parentID == "" {
		parentID = RootID
	} else if n, ok := w.nodes[parentID]; !ok || !n.page {
		return ports.PageRef{}, notFound("create page", parentID)
	}
	n := &node{
		record:   ports.BlockRecord{ID: uuid.NewString(), Type: "child_page", Text: title},
		parentID: parentID,
		page:     true,
		title:    title,
	}
	w.nodes[n.record.ID] = n
	w.pages = append(w.pages, n.record.ID)
	if parentID != RootID {
		w.children[parentID] = append(w.children[parentID], n.record.ID)
	}
	return w.ref(n), nil
}

// ListChildren returns the ordered children of a page or block.
func (w *Workspace) ListChildren(_ context.Context, blockID string) ([]ports.BlockRecord, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.nodes[blockID]; !ok {
		return nil, notFound("list children", blockID)
	}
	ids := w.children[blockID]
	out := make([]ports.BlockRecord, 0, len(ids))
	for _, id := range ids {
		rec := w.nodes[id].record
		rec.HasChildren = len(w.children[id]) > 0
		out = append(out, rec)
	}
	return out, nil
}

// AppendChildren inserts children under parentID, after afterID when set.
func (w *Workspace) AppendChildren(_ context.Context, parentID, afterID string, children []blocks.ContentBlock) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.nodes[parentID]; !ok {
		return nil, notFound("append children", parentID)
	}
	pos := len(w.children[parentID])
	if afterID != "" {
		i := slices.Index(w.children[parentID], afterID)
		if i < 0 {
			return nil, &domain.ExternalError{Op: "append children", StatusCode: http.StatusBadRequest,
				Err: fmt.Errorf("block %q is not a child of %q", afterID, parentID)}
		}
		pos = i + 1
	}

	ids := make([]string, 0, len(children))
	for _, b := range children {
		ids = append(ids, w.add(parentID, b))
	}
	w.children[parentID] = slices.Insert(w.children[parentID], pos, ids...)
	return ids, nil
}

// add stores b and its nested children, returning b's ID. The caller links
// b into its parent.
func (w *Workspace) add(parentID string, b blocks.ContentBlock) string {
	id := uuid.NewString()
	w.nodes[id] = &node{
		record:   ports.BlockRecord{ID: id, Type: string(b.Type), Text: b.PlainText()},
		parentID: parentID,
	}
	for _, c := range b.Body.Children {
		w.children[id] = append(w.children[id], w.add(id, c))
	}
	return id
}

// UpdateBlock replaces the type and text of an existing block.
func (w *Workspace) UpdateBlock(_ context.Context, blockID string, block blocks.ContentBlock) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, ok := w.nodes[blockID]
	if !ok || n.page {
		return notFound("update block", blockID)
	}
	n.record.Type = string(block.Type)
	n.record.Text = block.PlainText()
	return nil
}

// DeleteBlock removes a block or page together with everything under it.
func (w *Workspace) DeleteBlock(_ context.Context, blockID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, ok := w.nodes[blockID]
	if !ok {
		return notFound("delete block", blockID)
	}
	w.children[n.parentID] = slices.DeleteFunc(w.children[n.parentID], func(id string) bool { return id == blockID })
	w.remove(blockID)
	return nil
}

func (w *Workspace) remove(id string) {
	for _, c := range w.children[id] {
		w.remove(c)
	}
	if w.nodes[id].page {
		w.pages = slices.DeleteFunc(w.pages, func(p string) bool { return p == id })
	}
	delete(w.children, id)
	delete(w.nodes, id)
}

// Seed creates a page with one block per line. A leading "#", "- [ ]", "-"
// or ">" marker picks the block format.
func (w *Workspace) Seed(ctx context.Context, parentID, title string, lines ...string) (ports.PageRef, error) {
	pg, err := w.CreatePage(ctx, parentID, title)
	if err != nil {
		return ports.PageRef{}, err
	}
	if len(lines) == 0 {
		return pg, nil
	}
	body := make([]blocks.ContentBlock, 0, len(lines))
	for _, l := range lines {
		body = append(body, seedLine(l))
	}
	if _, err := w.AppendChildren(ctx, pg.ID, "", body); err != nil {
		return ports.PageRef{}, err
	}
	return pg, nil
}

func seedLine(l string) blocks.ContentBlock {
	prefixes := []struct {
		p string
		f domain.FormatType
	}{
		{"### ", domain.FormatHeading3},
		{"## ", domain.FormatHeading2},
		{"# ", domain.FormatHeading1},
		{"- [ ] ", domain.FormatToDo},
		{"- ", domain.FormatBulleted},
		{"> ", domain.FormatQuote},
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(l, p.p); ok {
			return blocks.Synthesize(rest, p.f)
		}
	}
	return blocks.Synthesize(l, domain.FormatParagraph)
}

var (
	_ ports.Workspace   = (*Workspace)(nil)
	_ ports.BlockEditor = (*Workspace)(nil)
)
