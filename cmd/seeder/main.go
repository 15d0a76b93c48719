// Document seeder: inserts fake user documents through a document database API,
// re-reads every one to verify it and reports request latency.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doc-seeding/internal/backend"
	"github.com/doc-seeding/internal/config"
	"github.com/doc-seeding/internal/runner"
)

var rootCmd = &cobra.Command{
	Use:   "seeder [flags] " + config.Usage,
	Short: "Seed a document collection with fake users and verify them",
	Long: `Seed a document collection with fake users and verify them.

The endpoint scheme picks the backend: http(s) for an Appwrite-compatible
REST API, postgres://, clickhouse://, or sqlite://<path> for a local dry run.
Concurrency level is low (5 workers), medium (10) or high (20).

Example:
  seeder https://cloud.appwrite.io/v1 proj key db users 1000 medium`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(config.NumArgs)(cmd, args); err != nil {
			return fmt.Errorf("%w\nusage: %s", err, cmd.UseLine())
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tuning, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.FromArgs(args, tuning)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := backend.Open(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("opening backend: %w", err)
		}
		defer client.Close()

		runner.Run(ctx, cfg, client, logger)
		return nil
	},
}

func init() {
	registerTuningFlags(rootCmd)
	rootCmd.AddCommand(serveCmd)
}

func registerTuningFlags(cmd *cobra.Command) {
	defaults := config.DefaultTuning()
	f := cmd.PersistentFlags()
	f.String("config", "", "YAML file with tuning options")
	f.Int("verify-workers", 0, "Max concurrent verifications (0 = one per document)")
	f.Int("rate", 0, "Max inserts per second (0 = unlimited)")
	f.Duration("progress-interval", defaults.ProgressInterval, "Progress log interval (0 disables)")
	f.Duration("http-timeout", 0, "Per-request timeout for the REST backend (0 = none)")
	f.String("log-level", defaults.LogLevel, "debug, info, warn or error")
}

// loadTuning layers defaults, the config file, SEEDER_* env vars and
// explicitly set flags, in that order.
func loadTuning(cmd *cobra.Command) (config.Tuning, error) {
	t := config.DefaultTuning()
	f := cmd.Flags()

	if path, _ := f.GetString("config"); path != "" {
		if err := config.LoadFile(path, &t); err != nil {
			return t, err
		}
	}
	if err := config.ApplyEnv(&t, os.Getenv); err != nil {
		return t, err
	}

	if f.Changed("verify-workers") {
		t.VerifyWorkers, _ = f.GetInt("verify-workers")
	}
	if f.Changed("rate") {
		t.RateLimit, _ = f.GetInt("rate")
	}
	if f.Changed("progress-interval") {
		t.ProgressInterval, _ = f.GetDuration("progress-interval")
	}
	if f.Changed("http-timeout") {
		t.HTTPTimeout, _ = f.GetDuration("http-timeout")
	}
	if f.Changed("log-level") {
		t.LogLevel, _ = f.GetString("log-level")
	}
	return t, t.Validate()
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
