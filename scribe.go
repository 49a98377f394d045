package scribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/parser"
	"github.com/aretw0/scribe/pkg/planner"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/aretw0/scribe/pkg/runner"
	"github.com/aretw0/scribe/pkg/session"
)

// Version is overridden at build time with -ldflags "-X github.com/aretw0/scribe.Version=...".
var Version = "0.1.0-dev"

// ErrNoSession is returned when a call names no session.
var ErrNoSession = errors.New("session id is required")

// ErrNoWorkspace is returned by New without a workspace.
var ErrNoWorkspace = errors.New("workspace is required")

// Reply is the answer to one conversational turn.
type Reply = planner.Reply

// Assistant is the high-level entry point: it turns free-text instructions
// into workspace edits, one serialized turn per session.
type Assistant struct {
	workspace   ports.Workspace
	store       ports.StateStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	completer   ports.Completer
	parserOpts  []parser.Option
	plannerOpts []planner.Option
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	requireConfirm bool
	defaultTarget  string
	maxInput       int

	sessions    *session.Manager
	interpreter *parser.Interpreter
	machine     *planner.Machine
}

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithStore persists conversation state. The default is an in-memory store.
func WithStore(s ports.StateStore) Option {
	return func(a *Assistant) { a.store = s }
}

// WithLocker serializes turns across processes sharing a store.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(a *Assistant) {
		a.locker = l
		a.lockTTL = ttl
	}
}

// WithCompleter enables the model parser tier.
func WithCompleter(c ports.Completer) Option {
	return func(a *Assistant) { a.completer = c }
}

// WithParserOptions passes extra options to the parser (offline mode, service name, rules...).
func WithParserOptions(opts ...parser.Option) Option {
	return func(a *Assistant) { a.parserOpts = append(a.parserOpts, opts...) }
}

// WithPlannerOptions passes extra options to the planner (retry policy, section fallback...).
func WithPlannerOptions(opts ...planner.Option) Option {
	return func(a *Assistant) { a.plannerOpts = append(a.plannerOpts, opts...) }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) { a.hooks = a.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

// WithRequireConfirm sets the confirmation default for new sessions.
func WithRequireConfirm(enabled bool) Option {
	return func(a *Assistant) { a.requireConfirm = enabled }
}

// WithDefaultTarget sets the page used for new sessions when an instruction names none.
func WithDefaultTarget(name string) Option {
	return func(a *Assistant) { a.defaultTarget = strings.TrimSpace(name) }
}

// WithMaxInputSize overrides the SCRIBE_MAX_INPUT_SIZE limit.
func WithMaxInputSize(n int) Option {
	return func(a *Assistant) { a.maxInput = n }
}

// New wires the parser, planner and session manager around ws.
func New(ws ports.Workspace, opts ...Option) (*Assistant, error) {
	if ws == nil {
		return nil, ErrNoWorkspace
	}
	a := &Assistant{
		workspace:      ws,
		requireConfirm: true,
		defaultTarget:  domain.DefaultTarget,
		maxInput:       runner.MaxInputSize(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}

	parserOpts := []parser.Option{
		parser.WithLogger(a.logger),
		parser.WithDefaultTarget(a.defaultTarget),
	}
	if a.completer != nil {
		parserOpts = append(parserOpts, parser.WithCompleter(a.completer))
	}
	parserOpts = append(parserOpts, a.parserOpts...)
	a.interpreter = parser.NewInterpreter(parser.New(parserOpts...), parser.WithSplitterLogger(a.logger))
	a.interpreter.Hooks = a.hooks

	plannerOpts := []planner.Option{planner.WithLogger(a.logger), planner.WithHooks(a.hooks)}
	a.machine = planner.New(ws, a.interpreter, append(plannerOpts, a.plannerOpts...)...)

	sessionOpts := []session.Option{session.WithLogger(a.logger), session.WithDefaults(a.applyDefaults)}
	if a.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(a.locker))
		if a.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(a.lockTTL))
		}
	}
	a.sessions = session.NewManager(a.store, sessionOpts...)
	return a, nil
}

func (a *Assistant) applyDefaults(st *domain.ConversationState) {
	st.RequireConfirm = a.requireConfirm
	st.DefaultTarget = a.defaultTarget
}

// Chat runs one turn for sessionID. Command failures are part of the reply;
// the error is for rejected input, storage and lock failures.
func (a *Assistant) Chat(ctx context.Context, sessionID, input string) (Reply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Reply{}, ErrNoSession
	}
	clean, err := runner.SanitizeInputLimit(input, a.maxInput)
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	err = a.sessions.Update(ctx, sessionID, func(ctx context.Context, st *domain.ConversationState) error {
		var err error
		reply, err = a.machine.Handle(ctx, st, clean)
		return err
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat %s: %w", sessionID, err)
	}
	a.logger.Debug("Turn complete", "session_id", sessionID, "phase", reply.Phase, "commands", len(reply.Results))
	return reply, nil
}

// Parse interprets input without touching any session or the workspace.
func (a *Assistant) Parse(ctx context.Context, input string) (parser.Interpretation, error) {
	clean, err := runner.SanitizeInputLimit(input, a.maxInput)
	if err != nil {
		return parser.Interpretation{}, err
	}
	return a.interpreter.Interpret(ctx, "", clean, ""), nil
}

// Get reads a session field. Unknown sessions report their defaults.
func (a *Assistant) Get(ctx context.Context, sessionID, key string) (string, error) {
	st, err := a.state(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return st.Get(key)
}

// State returns a copy of the session state. Unknown sessions report their defaults.
func (a *Assistant) State(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	st, err := a.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return st.Snapshot(), nil
}

func (a *Assistant) state(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNoSession
	}
	st, err := a.sessions.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		st = domain.NewConversationState(sessionID)
		a.applyDefaults(st)
		return st, nil
	}
	return st, err
}

// Set writes a session field, creating the session if needed.
func (a *Assistant) Set(ctx context.Context, sessionID, key, value string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrNoSession
	}
	return a.sessions.Update(ctx, sessionID, func(_ context.Context, st *domain.ConversationState) error {
		return st.Set(key, value)
	})
}

// Reset forgets a session.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrNoSession
	}
	return a.sessions.Delete(ctx, sessionID)
}

// Sessions lists the stored session IDs.
func (a *Assistant) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}

// Workspace returns the workspace the assistant edits.
func (a *Assistant) Workspace() ports.Workspace {
	return a.workspace
}
