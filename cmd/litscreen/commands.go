package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/litscreen/pkg/config"
	"github.com/entrhq/litscreen/pkg/pipeline"
	"github.com/entrhq/litscreen/pkg/session"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen every undecided record in the review",
	Long: `screen pages through the review's undecided records, asks the reasoning
service for an include or exclude decision on each title and abstract, and
records the decision on the platform. Records the service cannot decide are
marked maybe with the failure reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.RequireReview, config.RequireAccount, config.RequireLLM)
		if err != nil {
			return err
		}

		return runWorkflow(cfg, func(ctx context.Context, a *app) (*pipeline.Summary, error) {
			deps, err := a.deps(ctx, pipeline.DelayPacer{Delay: cfg.Screening.Delay})
			if err != nil {
				return nil, err
			}
			return pipeline.NewScreener(deps, cfg.Screening.BatchSize).Run(ctx)
		})
	},
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Resolve the review's duplicate clusters",
	Long: `dedupe fetches every record the platform still marks as a possible
duplicate, groups them by cluster, and compares each member's abstract with
the first record of its cluster. The member is resolved as a duplicate or
not; the first record itself is never changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.RequireReview, config.RequireAccount, config.RequireLLM)
		if err != nil {
			return err
		}

		return runWorkflow(cfg, func(ctx context.Context, a *app) (*pipeline.Summary, error) {
			deps, err := a.deps(ctx, pipeline.DelayPacer{Delay: cfg.Dedupe.Delay})
			if err != nil {
				return nil, err
			}
			return pipeline.NewResolver(deps, cfg.Dedupe.FetchSize).Run(ctx)
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser and save a fresh session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.RequireReview, config.RequireAccount)
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := signalContext()
		defer cancel()

		cred, err := a.manager.Refresh(ctx)
		if err != nil {
			return explainSessionError(err)
		}
		headersPath, statePath := a.store.Paths()
		a.reporter.Infof("Captured %d headers", len(cred.Headers))
		a.reporter.Infof("Saved %s and %s", headersPath, statePath)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the saved session is still accepted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.RequireReview)
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := signalContext()
		defer cancel()

		cred, err := a.store.Load()
		if errors.Is(err, session.ErrNotFound) {
			a.reporter.Warnf("No saved session; run litscreen login")
			return err
		}
		if err != nil {
			return err
		}

		validity, err := a.validator.Probe(ctx, cred)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session %s\n", validity)
		if validity != session.Valid {
			return fmt.Errorf("saved session is %s", validity)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of litscreen",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "litscreen %s\n", version)
	},
}

func init() {
	screenCmd.Flags().Int("batch-size", pipeline.DefaultBatchSize, "records fetched per page")
	screenCmd.Flags().Duration("delay", 0, "pause after each record (default from config, 6s)")

	dedupeCmd.Flags().Int("fetch-size", pipeline.DefaultFetchSize, "maximum unresolved records fetched")
	dedupeCmd.Flags().Duration("delay", 0, "pause after each comparison (default from config, 5s)")

	bindCommandFlag(screenCmd, "screening.batch_size", "batch-size")
	bindCommandFlag(screenCmd, "screening.delay", "delay")
	bindCommandFlag(dedupeCmd, "dedupe.fetch_size", "fetch-size")
	bindCommandFlag(dedupeCmd, "dedupe.delay", "delay")

	rootCmd.AddCommand(screenCmd, dedupeCmd, loginCmd, probeCmd, versionCmd)
}

// runWorkflow wires the app, runs fn under a signal-aware context, and
// reports the outcome. An interrupted run still prints its partial summary.
func runWorkflow(cfg *config.Config, fn func(ctx context.Context, a *app) (*pipeline.Summary, error)) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := fn(ctx, a)
	if summary != nil {
		a.finish(summary)
	}
	if errors.Is(err, context.Canceled) {
		a.reporter.Warnf("Run interrupted")
		return nil
	}
	if err != nil {
		return explainSessionError(err)
	}
	return nil
}

func explainSessionError(err error) error {
	var le *session.LoginError
	switch {
	case errors.Is(err, session.ErrTimeout):
		return fmt.Errorf("%w: open the review in the browser window during login so its results request is seen", err)
	case errors.As(err, &le):
		return fmt.Errorf("%w: check RAYYAN_EMAIL and RAYYAN_PASSWORD", err)
	}
	return err
}
