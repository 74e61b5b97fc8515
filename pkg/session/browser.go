package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// Login form controls, located by ARIA role and accessible name.
const (
	emailFieldName    = "Email"
	passwordFieldName = "Password"
	signInButtonName  = "Sign In"
)

// browserSession is the slice of a live browser the bootstrapper needs.
type browserSession interface {
	// OnRequest registers fn for every request the browser context sends.
	// fn is called on the goroutine that delivers browser events and must not
	// block; allHeaders waits on a reply from that same goroutine.
	OnRequest(fn func(method, url string, allHeaders func() (map[string]string, error)))

	// Login navigates to loginURL, submits the credentials, and waits for
	// the page to settle.
	Login(ctx context.Context, loginURL, email, password string) error

	// StorageState returns the context's cookies and origin storage as JSON.
	StorageState() ([]byte, error)

	// Close releases the page, context, browser, and driver.
	Close() error
}

// LaunchOptions configures the browser started for a bootstrap.
type LaunchOptions struct {
	Headless bool

	// Timeout is the default per-action timeout in milliseconds.
	Timeout float64

	// SkipInstall skips downloading the driver and Chromium.
	SkipInstall bool
}

// DefaultActionTimeout is the per-action timeout in milliseconds.
const DefaultActionTimeout = 30000.0

type launchFunc func(opts LaunchOptions) (browserSession, error)

// playwrightSession is a browserSession backed by playwright-go.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// launchPlaywright installs (if needed) and starts the Playwright driver,
// then opens Chromium with one context and one page.
func launchPlaywright(opts LaunchOptions) (browserSession, error) {
	// Keep driver chatter off the console.
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultActionTimeout
	}
	page.SetDefaultTimeout(timeout)

	return &playwrightSession{pw: pw, browser: browser, context: bctx, page: page}, nil
}

func (s *playwrightSession) OnRequest(fn func(method, url string, allHeaders func() (map[string]string, error))) {
	// playwright-go emits events inline on its connection's dispatch loop.
	// AllHeaders sends a protocol call whose reply arrives on that loop, so
	// calling it before fn returns deadlocks the driver.
	s.context.OnRequest(func(req playwright.Request) {
		fn(req.Method(), req.URL(), req.AllHeaders)
	})
}

func (s *playwrightSession) Login(ctx context.Context, loginURL, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.page.Goto(loginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return &LoginError{Step: "navigate", Err: err}
	}

	emailField := s.page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: emailFieldName})
	if err := emailField.Fill(email); err != nil {
		return &LoginError{Step: "fill email", Err: err}
	}

	pass := s.page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: passwordFieldName})
	if err := pass.Fill(password); err != nil {
		return &LoginError{Step: "fill password", Err: err}
	}

	submit := s.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: signInButtonName})
	if err := submit.Click(); err != nil {
		return &LoginError{Step: "submit", Err: err}
	}

	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return &LoginError{Step: "wait for load", Err: err}
	}

	return nil
}

func (s *playwrightSession) StorageState() ([]byte, error) {
	state, err := s.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage state: %w", err)
	}
	return data, nil
}

// Close tears down page, context, browser, then the driver, collecting
// every error.
func (s *playwrightSession) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return errors.Join(errs...)
}
