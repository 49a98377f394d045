package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat [instruction...]",
	Short: "Talk to the assistant",
	Long: `Starts an interactive conversation. When an instruction is given as
arguments it is sent once and the reply printed; pass --yes to confirm it
without a second invocation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Demo, _ = cmd.Flags().GetBool("demo")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Offline, _ = cmd.Flags().GetBool("offline")
		opts.Yes, _ = cmd.Flags().GetBool("yes")

		return cli.Execute(cmd.Context(), opts, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (a new one is generated if empty)")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no prompt)")
	chatCmd.Flags().Bool("fresh", false, "Clear the session before starting")
	chatCmd.Flags().Bool("offline", false, "Skip the language model and parse with local rules only")
	chatCmd.Flags().BoolP("yes", "y", false, "Confirm a one-shot instruction automatically")

	// 'scribe' with no subcommand opens a chat.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
