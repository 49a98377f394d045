package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/adapters/file"
	"github.com/aretw0/scribe/internal/config"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/internal/metrics"
	"github.com/aretw0/scribe/pkg/adapters/llm"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/adapters/notion"
	"github.com/aretw0/scribe/pkg/adapters/redis"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/parser"
	"github.com/aretw0/scribe/pkg/persistence/middleware"
	"github.com/aretw0/scribe/pkg/planner"
	"github.com/aretw0/scribe/pkg/ports"
)

// ErrNoToken is returned when neither a workspace token nor demo mode is configured.
var ErrNoToken = errors.New("no workspace token: set NOTION_TOKEN (or workspace.token) or use --demo")

// Runtime is an assembled assistant plus the resources it owns.
type Runtime struct {
	Assistant *scribe.Assistant
	Store     ports.StateStore
	Workspace ports.Workspace
	Logger    *slog.Logger
	// Registry holds the scribe collectors when metrics are enabled.
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases connections opened by Build.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildOptions are the CLI switches that change how the runtime is assembled.
type BuildOptions struct {
	Demo    bool
	Debug   bool
	Metrics bool
	// Logger overrides the logger derived from the configuration.
	Logger *slog.Logger
}

// Build assembles an assistant from cfg.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	rt := &Runtime{Logger: opts.Logger}
	if rt.Logger == nil {
		rt.Logger = createLogger(cfg.Log, opts.Debug)
	}

	ws, err := buildWorkspace(ctx, cfg, opts.Demo, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.Workspace = ws

	assistantOpts := []scribe.Option{
		scribe.WithLogger(rt.Logger),
		scribe.WithRequireConfirm(cfg.Chat.RequireConfirm),
		scribe.WithDefaultTarget(cfg.Chat.DefaultTarget),
		scribe.WithParserOptions(parserOptions(cfg)...),
		scribe.WithPlannerOptions(
			planner.WithRetryPolicy(planner.RetryPolicy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				Backoff:     planner.LinearBackoff(cfg.Retry.Backoff),
				CallTimeout: cfg.Retry.CallTimeout,
			}),
			planner.WithSectionFallbackAppend(cfg.Chat.SectionFallbackAppend),
			planner.WithThreshold(cfg.Chat.MatchThreshold),
		),
	}

	store, storeOpts, err := rt.buildStore(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Store = store
	assistantOpts = append(assistantOpts, scribe.WithStore(store))
	assistantOpts = append(assistantOpts, storeOpts...)

	if !cfg.Chat.Offline {
		completer, err := llm.New(ctx, llm.Options{
			Provider: cfg.Model.Provider,
			APIKey:   cfg.Model.APIKey,
			Model:    cfg.Model.Model,
			BaseURL:  cfg.Model.BaseURL,
			Timeout:  cfg.Model.Timeout,
		})
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("model: %w", err)
		}
		if completer != nil {
			assistantOpts = append(assistantOpts, scribe.WithCompleter(completer))
		}
	}

	if opts.Debug {
		assistantOpts = append(assistantOpts, scribe.WithLifecycleHooks(createDebugHooks(rt.Logger)))
	}
	if opts.Metrics {
		rt.Registry = prometheus.NewRegistry()
		m, err := metrics.New(rt.Registry)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		assistantOpts = append(assistantOpts, scribe.WithLifecycleHooks(m.Hooks()))
	}

	a, err := scribe.New(ws, assistantOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Assistant = a
	return rt, nil
}

func parserOptions(cfg *config.Config) []parser.Option {
	opts := []parser.Option{parser.WithOffline(cfg.Chat.Offline)}
	if cfg.Chat.ServiceName != "" {
		opts = append(opts, parser.WithServiceName(cfg.Chat.ServiceName))
	}
	if cfg.Model.Timeout > 0 {
		opts = append(opts, parser.WithTimeout(cfg.Model.Timeout))
	}
	return opts
}

func buildWorkspace(ctx context.Context, cfg *config.Config, demo bool, logger *slog.Logger) (ports.Workspace, error) {
	if demo {
		ws := memory.NewWorkspace()
		if err := SeedDemo(ctx, ws); err != nil {
			return nil, fmt.Errorf("seed demo workspace: %w", err)
		}
		logger.Info("Using in-memory demo workspace")
		return ws, nil
	}
	if strings.TrimSpace(cfg.Workspace.Token) == "" {
		return nil, ErrNoToken
	}
	opts := []notion.Option{
		notion.WithRootPage(cfg.Workspace.RootPageID),
		notion.WithRate(cfg.Workspace.RatePerSecond),
		notion.WithLogger(logger),
	}
	if cfg.Workspace.BaseURL != "" {
		opts = append(opts, notion.WithBaseURL(cfg.Workspace.BaseURL))
	}
	if cfg.Workspace.APIVersion != "" {
		opts = append(opts, notion.WithAPIVersion(cfg.Workspace.APIVersion))
	}
	return notion.New(cfg.Workspace.Token, opts...), nil
}

// OpenStore opens the configured session store without a workspace, for
// tooling that only inspects sessions. The returned func releases it.
func OpenStore(cfg *config.Config) (ports.StateStore, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	rt := &Runtime{}
	store, _, err := rt.buildStore(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}
	return store, rt.Close, nil
}

// buildStore opens the configured session store and wraps it with the
// configured middleware. Extra assistant options (the distributed locker)
// are returned alongside.
func (rt *Runtime) buildStore(cfg *config.Config) (ports.StateStore, []scribe.Option, error) {
	var (
		store ports.StateStore
		extra []scribe.Option
	)
	switch cfg.Session.Store {
	case config.StoreFile:
		store = file.New(cfg.Session.Dir)
	case config.StoreRedis:
		rs := redis.New(cfg.Session.Redis.Addr, cfg.Session.Redis.Password, cfg.Session.Redis.DB,
			redis.WithTTL(cfg.Session.TTL),
			redis.WithPrefix(cfg.Session.Prefix),
		)
		rt.closers = append(rt.closers, rs.Close)
		store = rs
		extra = append(extra, scribe.WithLocker(redis.NewLocker(rs.Client(), cfg.Session.Prefix+"lock:"), cfg.Session.LockTTL))
	default:
		store = memory.NewStore()
	}

	mws, err := storeMiddleware(cfg.Session)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), extra, nil
}

func storeMiddleware(cfg config.SessionConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.Redact {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("session.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("session.fallback_keys: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// createLogger configures the application logger.
// Debug forces the debug level regardless of the configuration.
func createLogger(cfg config.LogConfig, debug bool) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Format)
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParse: func(ctx context.Context, e *domain.ParseEvent) {
			logger.Debug("Parsed", "session_id", e.SessionID, "tier", e.Tier, "commands", e.Commands, "split", e.Split, "duration", e.Duration)
		},
		OnCommandStart: func(ctx context.Context, e *domain.CommandEvent) {
			logger.Debug("Command Start", "session_id", e.SessionID, "index", e.Index, "action", e.Command.Action, "target", e.Command.PrimaryTarget)
		},
		OnCommandEnd: func(ctx context.Context, e *domain.CommandEvent) {
			if e.Err != nil {
				logger.Debug("Command End (Error)", "session_id", e.SessionID, "index", e.Index, "err", e.Err)
			} else {
				logger.Debug("Command End (Success)", "session_id", e.SessionID, "index", e.Index, "duration", e.Duration)
			}
		},
		OnRetry: func(ctx context.Context, e *domain.RetryEvent) {
			logger.Debug("Retry", "session_id", e.SessionID, "op", e.Op, "attempt", e.Attempt, "delay", e.Delay, "err", e.Err)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
	}
}
