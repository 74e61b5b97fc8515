package session

import (
	"context"
	"errors"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

// CredentialSource produces a fresh credential, typically a *Bootstrapper.
type CredentialSource interface {
	Bootstrap(ctx context.Context) (*types.Credential, error)
}

// Manager hands out a credential that is known to work, re-bootstrapping
// only when the stored one is missing or rejected.
type Manager struct {
	store     Store
	prober    Prober
	bootstrap CredentialSource
	logger    *logging.Logger
}

// NewManager creates a session manager.
func NewManager(store Store, prober Prober, bootstrap CredentialSource, logger *logging.Logger) *Manager {
	return &Manager{store: store, prober: prober, bootstrap: bootstrap, logger: logger}
}

// Ensure returns a usable credential. It loads the stored pair and probes
// it; the bootstrapper runs only if the pair is absent, unreadable, lacks
// authorization, or the probe reports Invalid or fails.
func (m *Manager) Ensure(ctx context.Context) (*types.Credential, error) {
	cred, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNotFound):
		m.logger.Infof("No saved session found")
		return m.bootstrap.Bootstrap(ctx)
	case err != nil:
		m.logger.Warnf("Saved session unreadable: %v", err)
		return m.bootstrap.Bootstrap(ctx)
	case !cred.Usable():
		m.logger.Warnf("Saved session has no authorization header")
		return m.bootstrap.Bootstrap(ctx)
	}

	m.logger.Infof("Found existing session files. Testing session validity")
	validity, err := m.prober.Probe(ctx, cred)
	if err != nil {
		m.logger.Warnf("Session probe failed: %v", err)
		validity = Invalid
	}
	if validity == Invalid {
		cred.Invalidate()
		m.logger.Infof("Session test failed. Re-running setup")
		return m.bootstrap.Bootstrap(ctx)
	}

	m.logger.Infof("Existing session is valid")
	return cred, nil
}

// Refresh bootstraps a new credential without consulting the stored one.
// The store is overwritten only when the bootstrap succeeds; on failure the
// previous credential stays on disk.
func (m *Manager) Refresh(ctx context.Context) (*types.Credential, error) {
	return m.bootstrap.Bootstrap(ctx)
}
