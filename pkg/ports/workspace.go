package ports

import (
	"context"

	"github.com/aretw0/scribe/pkg/blocks"
)

// PageRef identifies a page in the workspace.
type PageRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ParentID string `json:"parent_id,omitempty"`
}

// BlockRecord is one child block as read back from the workspace.
type BlockRecord struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Text        string `json:"text"`
	HasChildren bool   `json:"has_children"`
}

// Workspace is the content collaborator. The resolvers and the planner use exactly these operations.
type Workspace interface {
	// SearchPages returns pages whose title matches query, in the workspace's listing order.
	// An empty query lists every page the integration can see.
	SearchPages(ctx context.Context, query string) ([]PageRef, error)

	// CreatePage creates a page titled title under parentID. An empty parentID
	// means the workspace's configured root.
	CreatePage(ctx context.Context, parentID, title string) (PageRef, error)

	// ListChildren returns the ordered children of a page or block, following pagination.
	ListChildren(ctx context.Context, blockID string) ([]BlockRecord, error)

	// AppendChildren inserts children under parentID. When afterID is set the
	// children are placed right after that sibling, otherwise at the end.
	// It returns the IDs of the created blocks.
	AppendChildren(ctx context.Context, parentID, afterID string, children []blocks.ContentBlock) ([]string, error)
}

// BlockEditor is implemented by workspaces that can change or remove existing blocks.
// Edit, delete and move actions require it.
type BlockEditor interface {
	UpdateBlock(ctx context.Context, blockID string, block blocks.ContentBlock) error
	DeleteBlock(ctx context.Context, blockID string) error
}
