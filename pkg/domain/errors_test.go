package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Rate Limited", &ExternalError{Op: "append", StatusCode: 429}, true},
		{"Server Error", &ExternalError{Op: "append", StatusCode: 503}, true},
		{"Request Timeout", &ExternalError{Op: "append", StatusCode: 408}, true},
		{"Unauthorized", &ExternalError{Op: "append", StatusCode: 401}, false},
		{"Not Found", &ExternalError{Op: "append", StatusCode: 404}, false},
		{"Deadline", context.DeadlineExceeded, true},
		{"Wrapped Deadline", &ExternalError{Op: "search", Err: context.DeadlineExceeded}, true},
		{"Net Timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"Canceled", context.Canceled, false},
		{"Plain", errors.New("boom"), false},
		{"Sentinel", fmt.Errorf("flaky: %w", ErrTransient), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestExternalError_Is(t *testing.T) {
	err := fmt.Errorf("write: %w", &ExternalError{Op: "append", StatusCode: 400, Err: errors.New("validation")})

	assert.ErrorIs(t, err, ErrPermanent)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.Contains(t, err.Error(), "status 400")
}

func TestTargetError(t *testing.T) {
	err := &TargetError{Kind: "section", Name: "Ideas", Page: "Journal", Err: ErrSectionNotFound}

	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.Equal(t, `section "Ideas" not found in "Journal"`, err.Error())

	page := &TargetError{Kind: "page", Name: "Groceries", Err: ErrTargetNotFound}
	assert.Equal(t, `page "Groceries" not found`, page.Error())
}
