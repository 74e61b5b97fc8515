package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

// Account is the platform login submitted through the login form.
type Account struct {
	Email    string
	Password string
}

// BootstrapOptions configures a Bootstrapper.
type BootstrapOptions struct {
	LoginURL string
	Account  Account

	// Method and Pattern select the request to harvest headers from.
	Method  string
	Pattern string

	// Timeout bounds the wait for a qualifying request after login.
	Timeout time.Duration

	Launch LaunchOptions
}

// Bootstrapper captures a fresh credential from a live browser login.
type Bootstrapper struct {
	opts    BootstrapOptions
	matcher *RequestMatcher
	store   Store
	launch  launchFunc
	logger  *logging.Logger
}

// NewBootstrapper creates a bootstrapper that persists captured credentials
// to store.
func NewBootstrapper(opts BootstrapOptions, store Store, logger *logging.Logger) (*Bootstrapper, error) {
	matcher, err := NewRequestMatcher(opts.Method, opts.Pattern)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("capture timeout must be positive")
	}

	return &Bootstrapper{
		opts:    opts,
		matcher: matcher,
		store:   store,
		launch:  launchPlaywright,
		logger:  logger,
	}, nil
}

// Bootstrap opens a visible browser, signs in, and waits for the first
// request matching the capture target that carries authorization. The
// captured headers and the browser's storage state are saved before the
// browser closes. The browser is closed on every return path.
//
// Returns ErrTimeout when nothing qualifying arrives within the timeout and
// a *LoginError when the login form cannot be driven.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (*types.Credential, error) {
	b.logger.Infof("Performing full setup: launching browser for login and header discovery")

	sess, err := b.launch(b.opts.Launch)
	if err != nil {
		return nil, &LoginError{Step: "launch", Err: err}
	}
	capture := newHeaderCapture(b.matcher, b.logger)
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			b.logger.Warnf("[BROWSER_WARN] error while closing browser: %v", closeErr)
		}
		// Reads still in flight fail once the browser is gone.
		capture.settle()
	}()

	sess.OnRequest(capture.observe)

	if err := sess.Login(ctx, b.opts.LoginURL, b.opts.Account.Email, b.opts.Account.Password); err != nil {
		var le *LoginError
		if !errors.As(err, &le) {
			err = &LoginError{Step: "login", Err: err}
		}
		return nil, err
	}

	if !capture.resolved() {
		b.logger.Infof("Login submitted. Open the review in the browser window; waiting up to %s for %s", b.opts.Timeout, b.matcher)
	}

	headers, err := capture.wait(ctx, b.opts.Timeout)
	if err != nil {
		return nil, err
	}

	state, err := sess.StorageState()
	if err != nil {
		return nil, err
	}

	cred := &types.Credential{Headers: headers, BrowserState: state}
	if err := b.store.Save(cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	b.logger.Infof("Setup complete. Headers and browser state saved")
	return cred, nil
}
