// Package main provides the GovAI server binary.
// The server answers government-service questions over HTTP and can run a
// worker that moves shipped query log records from the bus into the store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/govai-bd/govai/internal/config"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/querylog"
	"github.com/govai-bd/govai/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "govai-server",
		Short: "GovAI Bangladesh - government information assistant API",
		Long: `GovAI Bangladesh answers questions about government procedures in
Bangla, English and Banglish. Each query is searched on the web, answered
by an LLM grounded in the results, and recorded in the query log.

Examples:
  govai-server                         # Start with defaults on :8000
  govai-server --port 9000             # Custom port
  govai-server -c govai.yaml           # Load a config file
  govai-server querylog-worker         # Consume shipped query records`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().Int("port", 8000, "HTTP server port")
	rootCmd.Flags().String("host", "0.0.0.0", "server host")

	rootCmd.AddCommand(
		workerCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("govai-server %s\n", version)
				fmt.Printf("  commit: %s\n", commit)
				fmt.Printf("  built:  %s\n", date)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if f := cmd.Flags().Lookup("host"); f != nil && f.Changed {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if cfg.Log.File == "" {
		return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), func() {}, nil
	}
	log, closer, err := logger.NewWithFile(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, func() { _ = closer.Close() }, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info("Starting GovAI server",
		"version", version,
		"addr", cfg.Address(),
		"llm", cfg.LLM.Provider,
		"query_log", cfg.QueryLog.Store,
	)

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(server.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Version:     version,
		RateLimit:   cfg.Security.RateLimit,
		AdminToken:  cfg.Security.AdminToken,
		CORSOrigins: server.ParseOrigins(cfg.Security.CORSOrigins),
	}, a.pipeline, log, a.metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown incomplete", "error", err)
	}
	return nil
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "querylog-worker",
		Short: "Write query records shipped over the bus into the query log store",
		Long: `Subscribes to the query record topic and appends every record to the
configured query log store. Run it next to servers started with
query_log.ship enabled and bus.type kafka.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closeLog, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
			defer stop()

			store, err := querylog.NewStore(cfg.QueryLog)
			if err != nil {
				return fmt.Errorf("failed to open query log store: %w", err)
			}
			defer func() { _ = store.Close() }()

			b, err := newBus(cfg, log, nil)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			fwd := querylog.NewForwarder(store, log)
			if err := fwd.Start(ctx, b, cfg.Bus.Topic); err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", cfg.Bus.Topic, err)
			}
			log.Info("Query log worker started",
				"bus", cfg.Bus.Type,
				"topic", cfg.Bus.Topic,
				"store", cfg.QueryLog.Store,
			)

			<-ctx.Done()
			log.Info("Query log worker stopping")
			return nil
		},
	}
}
