package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe/internal/cli"
)

var parseCmd = &cobra.Command{
	Use:   "parse <instruction...>",
	Short: "Show how an instruction is interpreted, without applying it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if offline, _ := cmd.Flags().GetBool("offline"); offline {
			cfg.Chat.Offline = true
		}
		debug, _ := cmd.Flags().GetBool("debug")
		// Parsing never touches pages, so the demo workspace stands in for a token.
		rt, err := cli.Build(cmd.Context(), cfg, cli.BuildOptions{Demo: true, Debug: debug})
		if err != nil {
			return err
		}
		defer rt.Close()

		interp, err := rt.Assistant.Parse(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(interp)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().Bool("offline", false, "Skip the language model and parse with local rules only")
}
