package parser

import (
	"context"
	"time"

	"github.com/aretw0/scribe/pkg/domain"
)

// Interpretation is the full reading of one instruction.
type Interpretation struct {
	Commands []domain.Command
	Tier     domain.Source
	Split    bool
	Declined bool
	Duration time.Duration
}

// Interpreter runs the Parser, then the Splitter, then normalizes again.
type Interpreter struct {
	Parser   *Parser
	Splitter *Splitter
	Hooks    domain.LifecycleHooks
}

// NewInterpreter pairs p with a default Splitter.
func NewInterpreter(p *Parser, opts ...SplitterOption) *Interpreter {
	if p == nil {
		p = New()
	}
	return &Interpreter{Parser: p, Splitter: NewSplitter(opts...)}
}

// Interpret reads input. defaultTarget overrides the parser's default page
// when non-empty.
func (in *Interpreter) Interpret(ctx context.Context, sessionID, input, defaultTarget string) Interpretation {
	start := time.Now()
	res := in.Parser.ParseResult(ctx, input, defaultTarget)
	if defaultTarget == "" {
		defaultTarget = in.Parser.defaultTarget
	}

	cmds := res.Commands
	split := false
	if !res.Declined {
		before := len(cmds)
		cmds = in.Splitter.Split(cmds, in.Parser.Preprocess(input))
		split = len(cmds) > before
		if split {
			cmds = in.Parser.postProcess(cmds, domain.SourceSplitter, defaultTarget)
		}
	}

	it := Interpretation{
		Commands: cmds,
		Tier:     res.Tier,
		Split:    split,
		Declined: res.Declined,
		Duration: time.Since(start),
	}
	if in.Hooks.OnParse != nil {
		in.Hooks.OnParse(ctx, &domain.ParseEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventParse, SessionID: sessionID},
			Tier:      it.Tier,
			Commands:  len(it.Commands),
			Split:     it.Split,
			Duration:  it.Duration,
		})
	}
	return it
}
