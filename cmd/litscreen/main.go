// Package main is the entry point for the litscreen CLI.
//
// litscreen screens the undecided records of a systematic review on the
// screening platform with a reasoning service, and resolves the platform's
// duplicate clusters. Each workflow is a subcommand; login and probe manage
// the captured browser session both workflows depend on.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/litscreen/pkg/config"
	"github.com/entrhq/litscreen/pkg/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// v carries environment and flag bindings; it is overlaid onto the YAML file.
var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "litscreen",
	Short: "AI-assisted title/abstract screening for systematic reviews",
	Long: `litscreen drives a review on the screening platform: it signs in through a
real browser to capture a session, pages through undecided records asking a
reasoning service for include/exclude decisions, and resolves duplicate
clusters by comparing each member against the cluster's first record.

Settings come from a YAML file (--config), environment variables such as
REVIEW_ID, RAYYAN_EMAIL, RAYYAN_PASSWORD and GEMINI_API_KEY, and flags.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (YAML)")
	flags.String("review-id", "", "review identifier (REVIEW_ID)")
	flags.String("provider", "", "reasoning service: gemini or openai")
	flags.String("session-dir", "", "directory holding headers.json and auth.json")
	flags.String("output-dir", "", "write run summaries to this directory")
	flags.String("log-level", "", "file log level: debug, info, warn, error")
	flags.String("verbosity", "", "console verbosity: quiet, normal, verbose, debug")
	flags.Bool("headless", false, "run the login browser without a window")

	bindFlag("review_id", "review-id")
	bindFlag("llm.provider", "provider")
	bindFlag("session.dir", "session-dir")
	bindFlag("artifacts.output_dir", "output-dir")
	bindFlag("logging.level", "log-level")
	bindFlag("logging.verbosity", "verbosity")
	bindFlag("session.headless", "headless")
}

func bindFlag(key, flag string) {
	// BindPFlag only fails for a nil flag, which would be a typo above.
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

// bindCommandFlag binds a subcommand's local flag. Only the running
// command's flags are ever marked changed, so subcommands may bind flags of
// the same name to different keys.
func bindCommandFlag(cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s %s: %v", cmd.Name(), flag, err))
	}
}

// loadConfig reads and validates the configuration for a command.
func loadConfig(cmd *cobra.Command, reqs ...config.Requirement) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(reqs...); err != nil {
		return nil, err
	}
	logging.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM so runs stop between
// records.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if config.IsConfigError(err) {
			fmt.Fprintln(os.Stderr, "Set the missing values in the environment or in the file passed with --config.")
		}
		os.Exit(1)
	}
}
