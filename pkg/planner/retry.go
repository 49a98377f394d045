package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffStep = time.Second
	DefaultCallTimeout = 15 * time.Second
)

// RetryPolicy decides how external calls are retried.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay before retry number attempt (1-based).
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
	// CallTimeout bounds each attempt. A timed-out attempt is transient.
	CallTimeout time.Duration
}

// DefaultRetryPolicy retries transient failures twice, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     LinearBackoff(DefaultBackoffStep),
		Retryable:   domain.IsTransient,
		Sleep:       SleepContext,
		CallTimeout: DefaultCallTimeout,
	}
}

// LinearBackoff waits step × attempt.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration { return step * time.Duration(attempt) }
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = d.Backoff
	}
	if p.Retryable == nil {
		p.Retryable = d.Retryable
	}
	if p.Sleep == nil {
		p.Sleep = d.Sleep
	}
	return p
}

// Do runs fn until it succeeds, fails permanently or runs out of attempts.
// onRetry, when set, is called before each wait.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error, onRetry func(attempt int, delay time.Duration, err error)) error {
	p = p.withDefaults()
	for attempt := 1; ; attempt++ {
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || !p.Retryable(err) || ctx.Err() != nil {
			if attempt > 1 {
				return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, err)
			}
			return err
		}
		delay := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(context.Context) error) error {
	if p.CallTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return &domain.ExternalError{Op: "call", Err: fmt.Errorf("%w: %v", context.DeadlineExceeded, err)}
	}
	return err
}

func retryValue[T any](ctx context.Context, p RetryPolicy, op string, onRetry func(int, time.Duration, error), fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
		}
		return err
	}, onRetry)
	return out, err
}

// retryWorkspace applies a RetryPolicy to every call of the wrapped workspace.
type retryWorkspace struct {
	inner   ports.Workspace
	policy  RetryPolicy
	onRetry func(op string, attempt int, delay time.Duration, err error)
}

func (w *retryWorkspace) hook(op string) func(int, time.Duration, error) {
	if w.onRetry == nil {
		return nil
	}
	return func(attempt int, delay time.Duration, err error) { w.onRetry(op, attempt, delay, err) }
}

func (w *retryWorkspace) SearchPages(ctx context.Context, query string) ([]ports.PageRef, error) {
	return retryValue(ctx, w.policy, "search pages", w.hook("search_pages"), func(ctx context.Context) ([]ports.PageRef, error) {
		return w.inner.SearchPages(ctx, query)
	})
}

func (w *retryWorkspace) CreatePage(ctx context.Context, parentID, title string) (ports.PageRef, error) {
	return retryValue(ctx, w.policy, "create page", w.hook("create_page"), func(ctx context.Context) (ports.PageRef, error) {
		return w.inner.CreatePage(ctx, parentID, title)
	})
}

func (w *retryWorkspace) ListChildren(ctx context.Context, blockID string) ([]ports.BlockRecord, error) {
	return retryValue(ctx, w.policy, "list children", w.hook("list_children"), func(ctx context.Context) ([]ports.BlockRecord, error) {
		return w.inner.ListChildren(ctx, blockID)
	})
}

func (w *retryWorkspace) AppendChildren(ctx context.Context, parentID, afterID string, children []blocks.ContentBlock) ([]string, error) {
	return retryValue(ctx, w.policy, "append children", w.hook("append_children"), func(ctx context.Context) ([]string, error) {
		return w.inner.AppendChildren(ctx, parentID, afterID, children)
	})
}

// editor returns the retrying BlockEditor, or nil when the workspace has none.
func (w *retryWorkspace) editor() ports.BlockEditor {
	if _, ok := w.inner.(ports.BlockEditor); !ok {
		return nil
	}
	return retryEditor{w}
}

type retryEditor struct{ w *retryWorkspace }

func (e retryEditor) UpdateBlock(ctx context.Context, blockID string, block blocks.ContentBlock) error {
	ed := e.w.inner.(ports.BlockEditor)
	return e.w.policy.Do(ctx, "update block", func(ctx context.Context) error {
		return ed.UpdateBlock(ctx, blockID, block)
	}, e.w.hook("update_block"))
}

func (e retryEditor) DeleteBlock(ctx context.Context, blockID string) error {
	ed := e.w.inner.(ports.BlockEditor)
	return e.w.policy.Do(ctx, "delete block", func(ctx context.Context) error {
		return ed.DeleteBlock(ctx, blockID)
	}, e.w.hook("delete_block"))
}
