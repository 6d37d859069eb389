// Package main provides the govai command line client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/govai-bd/govai/internal/client"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "govai",
		Short: "GovAI Bangladesh - ask about government services from the terminal",
		Long: `govai talks to a running govai-server.

Examples:
  govai ask "passport korte ki ki lagbe?"
  govai ask --no-sources "জন্ম নিবন্ধন কিভাবে করব?"
  govai stats --window 7d --top 5
  govai logs --limit 20`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("server", envOr("GOVAI_SERVER_URL", client.DefaultConfig().BaseURL), "server base URL")
	rootCmd.PersistentFlags().String("admin-token", os.Getenv("GOVAI_ADMIN_TOKEN"), "admin bearer token")
	rootCmd.PersistentFlags().Duration("timeout", client.DefaultConfig().Timeout, "request timeout")
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")

	rootCmd.AddCommand(
		askCmd(),
		statsCmd(),
		logsCmd(),
		healthCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("admin-token")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(client.Config{
		BaseURL:    server,
		Timeout:    timeout,
		AdminToken: token,
	})
}

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format == "json"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noSources, _ := cmd.Flags().GetBool("no-sources")
			query := strings.Join(args, " ")

			resp, err := newClient(cmd).Ask(cmd.Context(), query, !noSources)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(resp)
			}
			return printRendered(answerMarkdown(resp))
		},
	}
	cmd.Flags().Bool("no-sources", false, "omit source links")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show query statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, _ := cmd.Flags().GetString("window")
			top, _ := cmd.Flags().GetInt("top")

			stats, err := newClient(cmd).Stats(cmd.Context(), window, top)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(stats)
			}
			return printRendered(statsMarkdown(stats))
		},
	}
	cmd.Flags().String("window", "all", `time window ("all", "24h", "7d")`)
	cmd.Flags().Int("top", 10, "number of top queries")
	return cmd
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			logs, err := newClient(cmd).Logs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(logs)
			}
			return printRendered(logsMarkdown(logs))
		},
	}
	cmd.Flags().Int("limit", 20, "number of records")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			h, err := newClient(cmd).Health(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", h.Status, h.Version)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("govai %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
