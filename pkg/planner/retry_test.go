package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/domain"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.True(t, p.Retryable(&domain.ExternalError{Op: "x", StatusCode: 503}))
	assert.False(t, p.Retryable(&domain.ExternalError{Op: "x", StatusCode: 404}))
}

func TestRetryPolicy_Do(t *testing.T) {
	transient := &domain.ExternalError{Op: "x", StatusCode: 500, Err: errors.New("oops")}

	t.Run("Succeeds After Transient Failures", func(t *testing.T) {
		calls := 0
		var seen []int
		err := RetryPolicy{Sleep: noSleep}.Do(context.Background(), "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		}, func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) })
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("Single Attempt Error Is Unwrapped", func(t *testing.T) {
		bad := errors.New("validation")
		err := RetryPolicy{Sleep: noSleep}.Do(context.Background(), "op", func(context.Context) error { return bad }, nil)
		assert.Same(t, bad, err)
	})

	t.Run("Custom Predicate", func(t *testing.T) {
		calls := 0
		p := RetryPolicy{MaxAttempts: 5, Sleep: noSleep, Retryable: func(error) bool { return true }}
		err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return errors.New("always")
		}, nil)
		assert.Error(t, err)
		assert.Equal(t, 5, calls)
		assert.Contains(t, err.Error(), "op failed after 5 attempts")
	})

	t.Run("Cancelled Sleep Stops", func(t *testing.T) {
		calls := 0
		p := RetryPolicy{Sleep: func(context.Context, time.Duration) error { return context.Canceled }}
		err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return transient
		}, nil)
		assert.ErrorIs(t, err, domain.ErrTransient)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryPolicy_CallTimeoutIsTransient(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxAttempts: 2, Sleep: noSleep, CallTimeout: 5 * time.Millisecond}
	err := p.Do(context.Background(), "slow", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, domain.IsTransient(err))
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, "", Aggregate(nil))
	assert.Equal(t, `Added "milk" to "List"`, Aggregate([]string{`Added "milk" to "List"`}))
	assert.Equal(t,
		`Created page "Trip" And added "milk" to "List" And I couldn't find a page named "Pantry"`,
		Aggregate([]string{`Created page "Trip"`, "", `Added "milk" to "List"`, `I couldn't find a page named "Pantry"`}),
	)
}

func TestClassifyReply(t *testing.T) {
	for _, s := range []string{"yes", "Y", " confirm ", "Proceed."} {
		assert.Equal(t, replyAffirm, classifyReply(s), s)
	}
	for _, s := range []string{"no", "N!", "cancel", "STOP"} {
		assert.Equal(t, replyNegate, classifyReply(s), s)
	}
	for _, s := range []string{"yes please add eggs", "nope", ""} {
		assert.Equal(t, replyOther, classifyReply(s), s)
	}
}

func TestQuoteContent(t *testing.T) {
	long := "a very long piece of content that keeps going well past the sixty rune limit"
	q := quoteContent(long)
	assert.Equal(t, 62, len([]rune(q)), "59 runes, an ellipsis and two quotes")
	assert.Equal(t, `"two words"`, quoteContent("two \n words"))
}
