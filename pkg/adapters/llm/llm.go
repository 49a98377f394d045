// Package llm provides ports.Completer implementations for the model tier.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/scribe/pkg/ports"
)

// Options selects and configures a provider.
type Options struct {
	Provider string // openai, gemini or none
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New returns the configured Completer, or nil for provider "none" or an empty one.
func New(ctx context.Context, opts Options) (ports.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "none", "off":
		return nil, nil
	case "openai":
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL, opts.Timeout), nil
	case "gemini":
		g, err := NewGemini(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", opts.Provider)
	}
}
