package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/parser"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/aretw0/scribe/pkg/resolver"
)

// Machine sequences, confirms and retries the commands of one turn.
// It owns the ConversationState it is handed for the duration of Handle;
// callers serialize turns per session (see session.Manager.Update).
type Machine struct {
	workspace   ports.Workspace
	interpreter *parser.Interpreter
	sections    *resolver.SectionResolver
	retry       RetryPolicy
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	threshold   float64

	sectionFallbackAppend bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithRetryPolicy replaces DefaultRetryPolicy. Zero fields keep their defaults.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(m *Machine) { m.retry = p.withDefaults() }
}

// WithHooks sets lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithSectionFallbackAppend writes to the end of the page when a requested
// section does not exist, instead of failing the command.
func WithSectionFallbackAppend(enabled bool) Option {
	return func(m *Machine) { m.sectionFallbackAppend = enabled }
}

// WithThreshold sets the fuzzy page-match threshold.
func WithThreshold(th float64) Option {
	return func(m *Machine) { m.threshold = th }
}

// WithSectionResolver replaces the default section resolver.
func WithSectionResolver(r *resolver.SectionResolver) Option {
	return func(m *Machine) { m.sections = r }
}

// New creates a Machine over ws. A nil interpreter gets an offline default.
func New(ws ports.Workspace, interp *parser.Interpreter, opts ...Option) *Machine {
	if interp == nil {
		interp = parser.NewInterpreter(parser.New())
	}
	m := &Machine{
		workspace:   ws,
		interpreter: interp,
		retry:       DefaultRetryPolicy(),
		logger:      logging.NewNop(),
		threshold:   resolver.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sections == nil {
		m.sections = resolver.NewSectionResolver(resolver.WithSectionLogger(m.logger))
	}
	return m
}

// Reply is the single user-facing answer to one turn.
type Reply struct {
	Content string       `json:"content"`
	Phase   domain.Phase `json:"phase"`
	// Results holds one entry per executed command, in order.
	Results []Result `json:"results,omitempty"`
	// Pending is the queue waiting for confirmation, if any.
	Pending []domain.Command `json:"pending,omitempty"`
}

// Handle processes one turn against state, mutating it in place.
// The returned error is reserved for state corruption; command failures
// are reported in the Reply.
func (m *Machine) Handle(ctx context.Context, state *domain.ConversationState, input string) (Reply, error) {
	if state.Phase == "" {
		state.Phase = domain.PhaseIdle
	}
	if state.Phase == domain.PhaseExecuting {
		m.logger.Warn("Recovering interrupted turn", "session_id", state.SessionID)
		if err := m.transition(ctx, state, domain.PhaseIdle); err != nil {
			return Reply{}, err
		}
	}

	if state.Phase == domain.PhaseAwaitingConfirmation {
		switch classifyReply(input) {
		case replyAffirm:
			pendingInput := state.PendingInput
			queue := state.Release()
			if len(queue) == 0 {
				if err := m.transition(ctx, state, domain.PhaseIdle); err != nil {
					return Reply{}, err
				}
				return Reply{Content: NothingPending, Phase: state.Phase}, nil
			}
			return m.run(ctx, state, pendingInput, queue)
		case replyNegate:
			state.Release()
			if err := m.transition(ctx, state, domain.PhaseIdle); err != nil {
				return Reply{}, err
			}
			m.logger.Info("Pending action cancelled", "session_id", state.SessionID)
			return Reply{Content: CancelMessage, Phase: state.Phase}, nil
		default:
			m.logger.Info("Dropping pending action for a new instruction", "session_id", state.SessionID)
			state.Release()
			if err := m.transition(ctx, state, domain.PhaseIdle); err != nil {
				return Reply{}, err
			}
		}
	} else if k := classifyReply(input); k != replyOther {
		return Reply{Content: NothingPending, Phase: state.Phase}, nil
	}

	it := m.interpreter.Interpret(ctx, state.SessionID, input, state.Target())
	cmds := it.Commands
	m.logger.Debug("Instruction interpreted",
		"session_id", state.SessionID,
		"tier", it.Tier,
		"commands", len(cmds),
		"split", it.Split,
	)

	if state.RequireConfirm && cmds[0].Action.IsDestructive() {
		if err := state.Hold(input, cmds[0], cmds[1:]); err != nil {
			return Reply{}, err
		}
		state.UpdatedAt = time.Now()
		m.emitTransition(ctx, state.SessionID, domain.PhaseIdle, domain.PhaseAwaitingConfirmation)
		return Reply{Content: ConfirmPrompt, Phase: state.Phase, Pending: cmds}, nil
	}
	return m.run(ctx, state, input, cmds)
}

// run executes queue and returns the machine to Idle whatever the outcome.
func (m *Machine) run(ctx context.Context, state *domain.ConversationState, input string, queue []domain.Command) (Reply, error) {
	if err := m.transition(ctx, state, domain.PhaseExecuting); err != nil {
		return Reply{}, err
	}
	results := m.newTurn(ctx, state, input).execute(ctx, queue)
	if err := m.transition(ctx, state, domain.PhaseIdle); err != nil {
		return Reply{}, err
	}

	msgs := make([]string, len(results))
	for i, r := range results {
		msgs[i] = r.Message
	}
	return Reply{Content: Aggregate(msgs), Phase: state.Phase, Results: results}, nil
}

func (m *Machine) transition(ctx context.Context, state *domain.ConversationState, to domain.Phase) error {
	from := state.Phase
	if err := state.Transition(to); err != nil {
		return fmt.Errorf("session %s: %w", state.SessionID, err)
	}
	state.UpdatedAt = time.Now()
	m.emitTransition(ctx, state.SessionID, from, to)
	return nil
}

func (m *Machine) emitTransition(ctx context.Context, sessionID string, from, to domain.Phase) {
	if m.hooks.OnTransition == nil {
		return
	}
	m.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, SessionID: sessionID},
		From:      from,
		To:        to,
	})
}
