package main

import (
	"context"
	"fmt"
	"os"

	"github.com/entrhq/litscreen/pkg/config"
	"github.com/entrhq/litscreen/pkg/llm"
	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/oracle"
	"github.com/entrhq/litscreen/pkg/pipeline"
	"github.com/entrhq/litscreen/pkg/platform"
	"github.com/entrhq/litscreen/pkg/session"
	"github.com/entrhq/litscreen/pkg/types"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	reporter  *pipeline.Reporter
	client    *platform.Client
	store     *session.FileStore
	validator *session.Validator
	manager   *session.Manager
	boot      *session.Bootstrapper
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewLogger("litscreen")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", err)
	}

	client := platform.NewClient(cfg.Platform.APIBaseURL, cfg.ReviewID,
		platform.WithTimeout(cfg.Platform.RequestTimeout),
		platform.WithLogger(logger.With("platform")),
	)

	store := session.NewFileStore(cfg.HeadersPath(), cfg.StatePath())
	boot, err := session.NewBootstrapper(session.BootstrapOptions{
		LoginURL: cfg.Platform.LoginURL,
		Account:  session.Account{Email: cfg.Account.Email, Password: cfg.Account.Password},
		Method:   cfg.Session.CaptureMethod,
		Pattern:  cfg.CaptureTarget(),
		Timeout:  cfg.Session.CaptureTimeout,
		Launch: session.LaunchOptions{
			Headless: cfg.Session.Headless,
			Timeout:  session.DefaultActionTimeout,
		},
	}, store, logger.With("session"))
	if err != nil {
		return nil, err
	}

	connect := func(cred *types.Credential) (session.BatchFetcher, error) {
		authorized, err := client.Authorize(cred)
		if err != nil {
			return nil, err
		}
		return authorized, nil
	}
	validator := session.NewValidator(connect, logger.With("session"))

	return &app{
		cfg:       cfg,
		logger:    logger,
		reporter:  pipeline.NewReporter(pipeline.ParseVerbosity(cfg.Logging.Verbosity), os.Stdout),
		client:    client,
		store:     store,
		validator: validator,
		manager:   session.NewManager(store, validator, boot, logger.With("session")),
		boot:      boot,
	}, nil
}

func (a *app) close() {
	if a.logger != nil {
		a.reporter.Verbosef("Log file: %s", a.logger.LogPath())
		_ = a.logger.Close()
	}
}

// classifier builds the reasoning-service backed oracle.
func (a *app) classifier(ctx context.Context) (*oracle.Oracle, error) {
	provider, err := config.BuildProvider(ctx, a.cfg)
	if err != nil {
		return nil, err
	}

	rubric, err := oracle.LoadRubric(a.cfg.Screening.RubricFile)
	if err != nil {
		return nil, err
	}

	a.logger.Infof("reasoning service %s, screening model %s, duplicate model %s",
		a.cfg.LLM.Provider, provider.GetModel(), a.cfg.LLM.DuplicateModel)

	return oracle.New(provider,
		oracle.WithRubric(rubric),
		oracle.WithDuplicateProvider(llm.WithModel(provider, a.cfg.LLM.DuplicateModel)),
		oracle.WithMaxAbstractTokens(a.cfg.LLM.MaxAbstractTokens),
		oracle.WithLogger(a.logger.With("oracle")),
	), nil
}

func (a *app) deps(ctx context.Context, delay pipeline.DelayPacer) (pipeline.Deps, error) {
	classifier, err := a.classifier(ctx)
	if err != nil {
		return pipeline.Deps{}, err
	}
	return pipeline.Deps{
		Sessions:   a.manager,
		Connect:    pipeline.ClientConnector(a.client),
		Classifier: classifier,
		Pacer:      delay,
		Reporter:   a.reporter,
		Logger:     a.logger.With("pipeline"),
		ReviewID:   a.cfg.ReviewID,
		RunID:      logging.GetRunID(),
	}, nil
}

// finish prints the summary and writes artifacts when configured.
func (a *app) finish(summary *pipeline.Summary) {
	a.reporter.Summary(summary)
	if summary == nil || a.cfg.Artifacts.OutputDir == "" {
		return
	}
	paths, err := pipeline.NewArtifactWriter(a.cfg.Artifacts.OutputDir).WriteAll(summary)
	if err != nil {
		a.reporter.Warnf("Failed to write run summary: %v", err)
		a.logger.Warnf("artifact write failed: %v", err)
		return
	}
	for _, p := range paths {
		a.reporter.Infof("Wrote %s", p)
	}
}
