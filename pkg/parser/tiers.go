package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// Tier is one parsing stage. A tier declines by returning an error; the
// Parser then moves on to the next one.
type Tier interface {
	Source() domain.Source
	Parse(ctx context.Context, input string) ([]domain.Command, error)
}

// ModelTier asks a language model for the command list.
type ModelTier struct {
	Completer    ports.Completer
	Instructions string
}

func (t *ModelTier) Source() domain.Source { return domain.SourceModel }

func (t *ModelTier) Parse(ctx context.Context, input string) ([]domain.Command, error) {
	if t.Completer == nil {
		return nil, fmt.Errorf("%w: no completer configured", domain.ErrParseFailure)
	}
	system := t.Instructions
	if system == "" {
		system = extractionInstructions
	}
	reply, err := t.Completer.Complete(ctx, system, input)
	if err != nil {
		return nil, fmt.Errorf("model completion failed: %w", err)
	}
	return decodeCommands(reply)
}

// RuleTier tries an ordered rule list; the first rule that extracts wins.
type RuleTier struct {
	Rules []Rule
}

func (t *RuleTier) Source() domain.Source { return domain.SourceRules }

func (t *RuleTier) Parse(_ context.Context, input string) ([]domain.Command, error) {
	cmds, _, err := t.match(input)
	return cmds, err
}

// match also reports the name of the rule that fired.
func (t *RuleTier) match(input string) ([]domain.Command, string, error) {
	rules := t.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	for _, r := range rules {
		if cmds, ok := r.Match(input); ok && len(cmds) > 0 {
			for i := range cmds {
				cmds[i].Source = domain.SourceRules
			}
			return cmds, r.Name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: no rule matched", domain.ErrParseFailure)
}

var (
	syntheticSplit = regexp.MustCompile(`(?i)\s+(?:and\s+then|and|then)\s+|\s*[,;]\s*`)
	syntheticVerb  = regexp.MustCompile(`(?i)^(?:` + writeVerbs + `|create|make|also|too)\b\s*:?\s*`)
	keywordFormats = []struct {
		pattern *regexp.Regexp
		format  domain.FormatType
	}{
		{regexp.MustCompile(`(?i)\b(?:check\s?list|to-?do|todo|task)s?\b`), domain.FormatToDo},
		{regexp.MustCompile(`(?i)\bbullet(?:ed|s)?\b`), domain.FormatBulleted},
		{regexp.MustCompile(`(?i)\bnumbered\b`), domain.FormatNumbered},
		{regexp.MustCompile(`(?i)\btoggle\b`), domain.FormatToggle},
		{regexp.MustCompile(`(?i)\b(?:heading\s*1|h1)\b`), domain.FormatHeading1},
		{regexp.MustCompile(`(?i)\b(?:heading\s*3|h3)\b`), domain.FormatHeading3},
		{regexp.MustCompile(`(?i)\b(?:heading(?:\s*2)?|h2)\b`), domain.FormatHeading2},
		{regexp.MustCompile(`(?i)\bcode\b`), domain.FormatCode},
		{regexp.MustCompile(`(?i)\bcallout\b`), domain.FormatCallout},
		{regexp.MustCompile(`(?i)\bquote\b`), domain.FormatQuote},
	}
)

// SyntheticTier never declines. It splits on conjunctions and punctuation and
// writes each part to the default target, upgrading the format on keywords.
type SyntheticTier struct{}

func (SyntheticTier) Source() domain.Source { return domain.SourceSynthetic }

func (SyntheticTier) Parse(_ context.Context, input string) ([]domain.Command, error) {
	return synthesize(input), nil
}

func synthesize(input string) []domain.Command {
	var cmds []domain.Command
	m := mask(input)
	last := 0
	var parts []string
	for _, loc := range syntheticSplit.FindAllStringIndex(m, -1) {
		parts = append(parts, input[last:loc[0]])
		last = loc[1]
	}
	parts = append(parts, input[last:])

	for _, p := range parts {
		text := strings.TrimSpace(syntheticVerb.ReplaceAllString(strings.TrimSpace(p), ""))
		format, rest, ok := extractFormat(text)
		if !ok {
			format = keywordFormat(text)
		} else {
			text = rest
		}
		text = unquote(strings.Trim(text, " :-"))
		if text == "" {
			continue
		}
		cmds = append(cmds, domain.Command{
			Action:        domain.ActionWrite,
			Content:       text,
			FormatType:    format,
			Placement:     domain.PlacementIn,
			IsMultiAction: len(cmds) > 0,
			Source:        domain.SourceSynthetic,
		})
	}
	if len(cmds) == 0 {
		cmds = one(domain.Command{
			Action:     domain.ActionWrite,
			Content:    strings.TrimSpace(input),
			FormatType: domain.FormatParagraph,
			Placement:  domain.PlacementIn,
			Source:     domain.SourceSynthetic,
		})
	}
	return cmds
}

func keywordFormat(s string) domain.FormatType {
	for _, kf := range keywordFormats {
		if kf.pattern.MatchString(s) {
			return kf.format
		}
	}
	return domain.FormatParagraph
}
