package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
)

// Splitter recovers the commands a compound instruction implies when a parser
// tier returned fewer of them. It never removes or reorders commands.
type Splitter struct {
	detectors []Detector
	rules     *RuleTier
	logger    *slog.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithDetectors replaces DefaultDetectors.
func WithDetectors(d ...Detector) SplitterOption {
	return func(s *Splitter) { s.detectors = d }
}

// WithSplitterLogger sets the logger.
func WithSplitterLogger(l *slog.Logger) SplitterOption {
	return func(s *Splitter) { s.logger = l }
}

// NewSplitter creates a Splitter with the default detectors.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		detectors: DefaultDetectors(),
		rules:     &RuleTier{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	spanConnective = regexp.MustCompile(`(?i)^(?:and\s+then|and\s+also|and|then|also|plus)\s+`)
	spanVerb       = regexp.MustCompile(`(?i)^(?:` + writeVerbs + `)\b\s*:?\s*`)
)

// Split returns cmds extended with one derived command per sub-instruction
// no existing command accounts for. Split(Split(c, in), in) equals Split(c, in).
func (s *Splitter) Split(cmds []domain.Command, input string) []domain.Command {
	if len(cmds) == 0 {
		return cmds
	}
	spans, name := s.detect(input)
	if len(spans) <= len(cmds) {
		return cmds
	}

	out, err := s.expand(cmds, spans)
	if err != nil {
		s.logger.Debug("Compound split abandoned", "detector", name, "err", err)
		return cmds
	}
	s.logger.Debug("Compound instruction split",
		"detector", name,
		"spans", len(spans),
		"commands", len(out),
	)
	return out
}

func (s *Splitter) detect(input string) ([]Span, string) {
	var best []Span
	var name string
	for _, d := range s.detectors {
		if spans := d.Detect(input); len(spans) > len(best) {
			best, name = spans, d.Name
		}
	}
	return best, name
}

// expand interleaves existing commands with derived ones in span order.
func (s *Splitter) expand(cmds []domain.Command, spans []Span) ([]domain.Command, error) {
	assigned := assign(cmds, spans)
	first := cmds[0]

	out := make([]domain.Command, 0, len(cmds)+len(spans))
	next := 0
	for i, sp := range spans {
		if ci := assigned[i]; ci >= 0 {
			for ; next <= ci; next++ {
				c := cmds[next]
				if next == 0 && i == 0 && sp.Repair {
					c = repair(c, sp)
				}
				out = append(out, c)
			}
			continue
		}
		d, err := s.derive(sp, first)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	out = append(out, cmds[next:]...)
	for i := range out {
		out[i].IsMultiAction = i > 0
	}
	return out, nil
}

// assign maps each span to the command covering it, keeping command order
// monotonic. When nothing covers anything, commands take spans in order.
func assign(cmds []domain.Command, spans []Span) []int {
	assigned := make([]int, len(spans))
	next, hits := 0, 0
	for i, sp := range spans {
		assigned[i] = -1
		for ci := next; ci < len(cmds); ci++ {
			if covers(cmds[ci], sp.Text) {
				assigned[i] = ci
				next = ci + 1
				hits++
				break
			}
		}
	}
	if hits == 0 {
		for i := range assigned {
			if i < len(cmds) {
				assigned[i] = i
			}
		}
	}
	return assigned
}

func covers(c domain.Command, span string) bool {
	sp := strings.ToLower(span)
	if content := strings.ToLower(strings.TrimSpace(c.Content)); content != "" {
		if strings.Contains(sp, content) || strings.Contains(content, sp) {
			return true
		}
	}
	for _, t := range []string{c.PrimaryTarget, c.OldContent} {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(sp, t) && c.Content == "" {
			return true
		}
	}
	return false
}

func repair(c domain.Command, sp Span) domain.Command {
	item := strings.TrimSpace(sp.Text)
	if item != "" && c.Content != item && strings.Contains(c.Content, item) {
		c.Content = item
	}
	return c
}

// derive builds the command for an unaccounted span. Spans that start with a
// verb go through the rules; the rest are read as bare clauses.
func (s *Splitter) derive(sp Span, first domain.Command) (domain.Command, error) {
	text := strings.TrimSpace(spanConnective.ReplaceAllString(sp.Text, ""))

	var d domain.Command
	if cmds, _, err := s.rules.match(text); err == nil {
		d = cmds[0]
		if sp.InheritFormat && d.FormatType == domain.FormatParagraph && first.FormatType != "" {
			d.FormatType = first.FormatType
		}
	} else {
		c := parseClause(spanVerb.ReplaceAllString(text, ""))
		action := domain.ActionWrite
		if first.Action == domain.ActionAppend {
			action = domain.ActionAppend
		}
		d = fromClause(action, c)
		// "and this as a quote" repeats the first command's content.
		if c.Pronoun && c.Content == "" {
			d.Content = first.Content
		}
		if sp.InheritFormat && !c.FormatFound {
			d.FormatType = first.FormatType
		}
		if !c.SectionFound && first.SectionTarget != "" && sp.InheritFormat {
			d.SectionTarget, d.Placement = first.SectionTarget, first.Placement
		}
	}
	if d.PrimaryTarget == "" {
		d.PrimaryTarget = first.PrimaryTarget
	}
	if d.RequiresContent() && strings.TrimSpace(d.Content) == "" {
		return domain.Command{}, fmt.Errorf("%w: %q has no content", domain.ErrAmbiguousCompound, sp.Text)
	}
	d.Source = domain.SourceSplitter
	d.IsMultiAction = true
	return d, nil
}
