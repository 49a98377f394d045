package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/ports"
)

// DefaultThreshold is the lowest score Resolve accepts.
const DefaultThreshold = 0.5

// Match is a resolved page.
type Match struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// TargetResolver maps human page names onto workspace pages.
type TargetResolver struct {
	ws        ports.Workspace
	threshold float64
	logger    *slog.Logger
}

// TargetOption configures a TargetResolver.
type TargetOption func(*TargetResolver)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(th float64) TargetOption {
	return func(r *TargetResolver) {
		if th > 0 && th <= 1 {
			r.threshold = th
		}
	}
}

// WithTargetLogger sets the logger.
func WithTargetLogger(l *slog.Logger) TargetOption {
	return func(r *TargetResolver) { r.logger = l }
}

// NewTargetResolver creates a resolver over ws.
func NewTargetResolver(ws ports.Workspace, opts ...TargetOption) *TargetResolver {
	r := &TargetResolver{ws: ws, threshold: DefaultThreshold, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the best page for name, or nil when nothing scores at least
// the threshold. Workspace errors are returned unchanged for the retry policy.
func (r *TargetResolver) Resolve(ctx context.Context, name string) (*Match, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, nil
	}

	found, err := r.ws.SearchPages(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if m := exact(found, query); m != nil {
		return m, nil
	}

	all, err := r.ws.SearchPages(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	candidates := dedupe(found, all)
	if m := exact(candidates, query); m != nil {
		return m, nil
	}

	var best *Match
	for _, p := range candidates {
		score := Similarity(query, p.Title)
		if best == nil || score > best.Score {
			best = &Match{ID: p.ID, Title: p.Title, Score: score}
		}
	}
	if best == nil || best.Score < r.threshold {
		r.logger.Debug("Target not resolved", "target", query, "candidates", len(candidates))
		return nil, nil
	}
	r.logger.Debug("Target resolved by similarity", "target", query, "title", best.Title, "score", best.Score)
	return best, nil
}

func exact(pages []ports.PageRef, query string) *Match {
	for _, p := range pages {
		if strings.EqualFold(strings.TrimSpace(p.Title), query) {
			return &Match{ID: p.ID, Title: p.Title, Score: 1.0}
		}
	}
	return nil
}

// dedupe concatenates lists keeping the first occurrence of each page ID.
func dedupe(lists ...[]ports.PageRef) []ports.PageRef {
	seen := make(map[string]struct{})
	var out []ports.PageRef
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Similarity scores a candidate title against a query in [0, 1]: the shared
// character count over the longer length, plus 0.3 when the title contains the
// query and 0.2 more when it starts with it.
func Similarity(query, title string) float64 {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	c := []rune(strings.ToLower(strings.TrimSpace(title)))
	if len(q) == 0 || len(c) == 0 {
		return 0
	}

	counts := make(map[rune]int, len(c))
	for _, r := range c {
		counts[r]++
	}
	shared := 0
	for _, r := range q {
		if counts[r] > 0 {
			counts[r]--
			shared++
		}
	}
	score := float64(shared) / float64(max(len(q), len(c)))

	qs, cs := string(q), string(c)
	if strings.Contains(cs, qs) {
		score += 0.3
	}
	if strings.HasPrefix(cs, qs) {
		score += 0.2
	}
	return min(score, 1.0)
}
