package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// DefaultModelTimeout bounds the model tier.
const DefaultModelTimeout = 20 * time.Second

// Parser turns one instruction into an ordered, non-empty command list.
//
// With a Completer and not offline it runs the model tier, then the rules,
// then falls back to a single unknown command. Otherwise it runs the rules,
// then the synthetic tier, which never declines.
type Parser struct {
	completer     ports.Completer
	offline       bool
	defaultTarget string
	serviceName   string
	timeout       time.Duration
	rules         []Rule
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithCompleter enables the model tier.
func WithCompleter(c ports.Completer) Option {
	return func(p *Parser) { p.completer = c }
}

// WithOffline forces the rules-then-synthetic chain even with a Completer.
func WithOffline(offline bool) Option {
	return func(p *Parser) { p.offline = offline }
}

// WithDefaultTarget sets the page used when an instruction names none.
func WithDefaultTarget(name string) Option {
	return func(p *Parser) { p.defaultTarget = name }
}

// WithServiceName sets the workspace product name that is never a page.
func WithServiceName(name string) Option {
	return func(p *Parser) { p.serviceName = name }
}

// WithTimeout bounds a model tier call.
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) { p.timeout = d }
}

// WithRules replaces DefaultRules.
func WithRules(rules []Rule) Option {
	return func(p *Parser) { p.rules = rules }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		defaultTarget: domain.DefaultTarget,
		serviceName:   domain.DefaultServiceName,
		timeout:       DefaultModelTimeout,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Networked reports whether the model tier is in use.
func (p *Parser) Networked() bool { return p.completer != nil && !p.offline }

// Result is a parse outcome with the tier that produced it.
type Result struct {
	Commands []domain.Command
	Tier     domain.Source
	// Declined is set when every tier declined and Commands holds the
	// fallback unknown command.
	Declined bool
}

// Parse returns the command list for input. It never fails and never
// returns an empty list.
func (p *Parser) Parse(ctx context.Context, input string) []domain.Command {
	return p.ParseResult(ctx, input).Commands
}

// ParseResult is Parse with tier information. An empty target falls back to
// the target argument, or the configured default when that is empty too.
func (p *Parser) ParseResult(ctx context.Context, input string, target ...string) Result {
	def := p.defaultTarget
	if len(target) > 0 && target[0] != "" {
		def = target[0]
	}
	clean := p.Preprocess(input)

	for _, t := range p.tiers() {
		cmds, err := p.try(ctx, t, clean)
		if err == nil && len(cmds) > 0 {
			return Result{Commands: p.postProcess(cmds, t.Source(), def), Tier: t.Source()}
		}
		p.logger.Debug("Parser tier declined", "tier", t.Source(), "err", err)
	}

	fallback := domain.Command{Action: domain.ActionUnknown, Content: clean, Source: domain.SourceFallback}
	return Result{
		Commands: p.postProcess(one(fallback), domain.SourceFallback, def),
		Tier:     domain.SourceFallback,
		Declined: true,
	}
}

// Preprocess cleans the input and drops the product location phrase.
func (p *Parser) Preprocess(input string) string {
	return StripServicePhrase(Clean(input), p.serviceName)
}

func (p *Parser) tiers() []Tier {
	rules := &RuleTier{Rules: p.rules}
	if p.Networked() {
		return []Tier{&ModelTier{Completer: p.completer}, rules}
	}
	return []Tier{rules, SyntheticTier{}}
}

// try isolates a tier: panics become declines and the model tier gets its
// own deadline.
func (p *Parser) try(ctx context.Context, t Tier, input string) (cmds []domain.Command, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Parser tier panicked", "tier", t.Source(), "panic", r)
			cmds, err = nil, fmt.Errorf("%w: tier %s panicked: %v", domain.ErrParseFailure, t.Source(), r)
		}
	}()
	if t.Source() == domain.SourceModel && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return t.Parse(ctx, input)
}

// postProcess cleans targets, flags follow-up commands and applies defaults.
func (p *Parser) postProcess(cmds []domain.Command, src domain.Source, defaultTarget string) []domain.Command {
	out := make([]domain.Command, 0, len(cmds))
	for i, c := range cmds {
		c.PrimaryTarget = p.cleanTarget(c.PrimaryTarget)
		c.SecondaryTarget = p.cleanTarget(c.SecondaryTarget)
		if c.Source == "" {
			c.Source = src
		}
		if i > 0 {
			c.IsMultiAction = true
		}
		out = append(out, c.Normalize(defaultTarget))
	}
	return out
}

func (p *Parser) cleanTarget(t string) string {
	t = CleanTarget(t)
	if p.serviceName != "" && strings.EqualFold(t, p.serviceName) {
		return ""
	}
	return t
}
