package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/scribe/internal/config"
	"github.com/aretw0/scribe/pkg/domain"
)

// RunOptions contains all the configuration for the chat command.
type RunOptions struct {
	ConfigPath string
	LogLevel   string
	SessionID  string
	Headless   bool
	JSON       bool
	Debug      bool
	Demo       bool
	Fresh      bool
	Offline    bool
	// Yes answers the confirmation prompt of a one-shot instruction.
	Yes bool
}

// LoadConfig reads the configuration and applies the flag overrides in opts.
func LoadConfig(opts RunOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Offline {
		cfg.Chat.Offline = true
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// Execute handles the chat command: a one-shot instruction when input is
// non-empty, the interactive loop otherwise.
func Execute(ctx context.Context, opts RunOptions, input string) error {
	if opts.SessionID == "" {
		opts.SessionID = "cli-" + uuid.NewString()[:8]
	}
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	rt, err := Build(ctx, cfg, BuildOptions{Demo: opts.Demo, Debug: opts.Debug})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Warn("Failed to close runtime", "err", err)
		}
	}()

	if opts.Fresh {
		if err := rt.Assistant.Reset(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}

	if strings.TrimSpace(input) != "" {
		return RunOnce(ctx, rt, opts, input)
	}
	return RunSession(ctx, rt, opts)
}

// RunOnce sends a single instruction and prints the reply. With opts.Yes a
// confirmation prompt is answered automatically.
func RunOnce(ctx context.Context, rt *Runtime, opts RunOptions, input string) error {
	reply, err := rt.Assistant.Chat(ctx, opts.SessionID, input)
	if err != nil {
		return err
	}
	if reply.Phase == domain.PhaseAwaitingConfirmation && opts.Yes {
		rt.Logger.Debug("Auto-confirming", "session_id", opts.SessionID, "pending", len(reply.Pending))
		reply, err = rt.Assistant.Chat(ctx, opts.SessionID, "yes")
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, reply.Content)
	if reply.Phase == domain.PhaseAwaitingConfirmation && !opts.JSON && !opts.Headless {
		printSystemMessage(stdout, "Reply with: scribe chat --session %s yes", opts.SessionID)
	}
	return nil
}
