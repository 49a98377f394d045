// Package notion implements the workspace ports against the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

const (
	DefaultBaseURL    = "https://api.notion.com/v1"
	DefaultAPIVersion = "2022-06-28"
	// DefaultRate is Notion's documented average request limit.
	DefaultRate = 3.0
	pageSize    = 100
)

// Client is a ports.Workspace and ports.BlockEditor backed by Notion.
type Client struct {
	http       *http.Client
	token      string
	baseURL    string
	apiVersion string
	rootPageID string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIVersion overrides the Notion-Version header.
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithRootPage sets the parent for pages created without one.
func WithRootPage(id string) Option {
	return func(c *Client) { c.rootPageID = id }
}

// WithRate limits requests per second. Zero or less disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client authenticated with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRate), 1),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.ExternalError{Op: op, Err: err}
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ExternalError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &domain.ExternalError{Op: op, Err: err}
	}
	c.logger.Debug("Notion request", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		msg := ae.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &domain.ExternalError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s: %s", ae.Code, msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type page struct {
	ID     string `json:"id"`
	Parent struct {
		Type   string `json:"type"`
		PageID string `json:"page_id"`
	} `json:"parent"`
	Properties map[string]struct {
		Type  string     `json:"type"`
		Title []richText `json:"title"`
	} `json:"properties"`
}

func (p page) ref() ports.PageRef {
	var title strings.Builder
	for _, prop := range p.Properties {
		if prop.Type != "title" {
			continue
		}
		for _, rt := range prop.Title {
			title.WriteString(rt.PlainText)
		}
		break
	}
	return ports.PageRef{ID: p.ID, Title: title.String(), ParentID: p.Parent.PageID}
}

type listing[T any] struct {
	Results    []T    `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// SearchPages follows pagination of the search endpoint, filtered to pages.
func (c *Client) SearchPages(ctx context.Context, query string) ([]ports.PageRef, error) {
	body := map[string]any{
		"filter":    map[string]string{"property": "object", "value": "page"},
		"page_size": pageSize,
	}
	if q := strings.TrimSpace(query); q != "" {
		body["query"] = q
	}

	var out []ports.PageRef
	for {
		var res listing[page]
		if err := c.do(ctx, "search pages", http.MethodPost, "/search", body, &res); err != nil {
			return nil, err
		}
		for _, p := range res.Results {
			out = append(out, p.ref())
		}
		if !res.HasMore || res.NextCursor == "" {
			return out, nil
		}
		body["start_cursor"] = res.NextCursor
	}
}

// CreatePage creates a titled page under parentID, or under the root page.
func (c *Client) CreatePage(ctx context.Context, parentID, title string) (ports.PageRef, error) {
	if parentID == "" {
		parentID = c.rootPageID
	}
	if parentID == "" {
		return ports.PageRef{}, &domain.ExternalError{Op: "create page", StatusCode: http.StatusBadRequest,
			Err: fmt.Errorf("no parent page given and no root page configured")}
	}
	body := map[string]any{
		"parent": map[string]string{"page_id": parentID},
		"properties": map[string]any{
			"title": map[string]any{"title": blocks.NewRichText(title)},
		},
	}
	var p page
	if err := c.do(ctx, "create page", http.MethodPost, "/pages", body, &p); err != nil {
		return ports.PageRef{}, err
	}
	ref := p.ref()
	if ref.Title == "" {
		ref.Title = title
	}
	return ref, nil
}

type block struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
	raw         json.RawMessage
}

func (b *block) UnmarshalJSON(data []byte) error {
	type plain block
	if err := json.Unmarshal(data, (*plain)(b)); err != nil {
		return err
	}
	b.raw = append(b.raw[:0], data...)
	return nil
}

// text extracts the block's plain text, or the title of child pages.
func (b block) text() string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(b.raw, &body); err != nil {
		return ""
	}
	var typed struct {
		RichText []richText `json:"rich_text"`
		Title    string     `json:"title"`
	}
	if err := json.Unmarshal(body[b.Type], &typed); err != nil {
		return ""
	}
	if typed.Title != "" {
		return typed.Title
	}
	var sb strings.Builder
	for _, rt := range typed.RichText {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// ListChildren returns every child of blockID in order.
func (c *Client) ListChildren(ctx context.Context, blockID string) ([]ports.BlockRecord, error) {
	var out []ports.BlockRecord
	cursor := ""
	for {
		q := url.Values{"page_size": {fmt.Sprint(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var res listing[block]
		path := "/blocks/" + url.PathEscape(blockID) + "/children?" + q.Encode()
		if err := c.do(ctx, "list children", http.MethodGet, path, nil, &res); err != nil {
			return nil, err
		}
		for _, b := range res.Results {
			out = append(out, ports.BlockRecord{ID: b.ID, Type: b.Type, Text: b.text(), HasChildren: b.HasChildren})
		}
		if !res.HasMore || res.NextCursor == "" {
			return out, nil
		}
		cursor = res.NextCursor
	}
}

// maxAppend is the largest children array the API accepts per call.
const maxAppend = 100

// AppendChildren appends in batches, chaining each batch after the last
// block of the previous one so order is kept.
func (c *Client) AppendChildren(ctx context.Context, parentID, afterID string, children []blocks.ContentBlock) ([]string, error) {
	var ids []string
	for start := 0; start < len(children); start += maxAppend {
		end := min(start+maxAppend, len(children))
		body := map[string]any{"children": children[start:end]}
		if afterID != "" {
			body["after"] = afterID
		}
		var res listing[block]
		path := "/blocks/" + url.PathEscape(parentID) + "/children"
		if err := c.do(ctx, "append children", http.MethodPatch, path, body, &res); err != nil {
			return ids, err
		}
		for _, b := range res.Results {
			ids = append(ids, b.ID)
		}
		if afterID != "" && len(ids) > 0 {
			afterID = ids[len(ids)-1]
		}
	}
	return ids, nil
}

// UpdateBlock replaces the text of a block. Notion cannot change a block's type.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, b blocks.ContentBlock) error {
	body := b.Body
	body.Children = nil
	if body.RichText == nil {
		body.RichText = []blocks.RichText{}
	}
	payload := map[string]any{string(b.Type): body}
	return c.do(ctx, "update block", http.MethodPatch, "/blocks/"+url.PathEscape(blockID), payload, nil)
}

// DeleteBlock archives a block or page.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, "delete block", http.MethodDelete, "/blocks/"+url.PathEscape(blockID), nil, nil)
}

var (
	_ ports.Workspace   = (*Client)(nil)
	_ ports.BlockEditor = (*Client)(nil)
)
