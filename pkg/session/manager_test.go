package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

type stubProber struct {
	validity Validity
	err      error
	calls    int
}

func (p *stubProber) Probe(ctx context.Context, cred *types.Credential) (Validity, error) {
	p.calls++
	return p.validity, p.err
}

type stubSource struct {
	cred  *types.Credential
	err   error
	calls int
}

func (s *stubSource) Bootstrap(ctx context.Context) (*types.Credential, error) {
	s.calls++
	return s.cred, s.err
}

func fresh() *types.Credential {
	return &types.Credential{Headers: map[string]string{"authorization": "fresh"}, BrowserState: []byte(`{}`)}
}

func storeWith(t *testing.T, cred *types.Credential) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "headers.json"), filepath.Join(dir, "auth.json"))
	if cred != nil {
		require.NoError(t, store.Save(cred))
	}
	return store
}

func TestManagerEnsure(t *testing.T) {
	saved := &types.Credential{Headers: map[string]string{"authorization": "saved"}, BrowserState: []byte(`{}`)}

	tests := []struct {
		name          string
		stored        *types.Credential
		validity      Validity
		probeErr      error
		wantBootstrap bool
		wantProbe     bool
		wantAuth      string
	}{
		{"absent", nil, Valid, nil, true, false, "fresh"},
		{"no authorization", &types.Credential{Headers: map[string]string{"x-app": "web"}, BrowserState: []byte(`{}`)}, Valid, nil, true, false, "fresh"},
		{"valid", saved, Valid, nil, false, true, "saved"},
		{"invalid", saved, Invalid, nil, true, true, "fresh"},
		{"probe error", saved, Valid, errors.New("boom"), true, true, "fresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &stubProber{validity: tt.validity, err: tt.probeErr}
			source := &stubSource{cred: fresh()}
			m := NewManager(storeWith(t, tt.stored), prober, source, logging.Discard())

			cred, err := m.Ensure(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantAuth, cred.Headers["authorization"])
			assert.Equal(t, tt.wantBootstrap, source.calls == 1)
			assert.Equal(t, tt.wantProbe, prober.calls == 1)
		})
	}
}

func TestManagerEnsureBootstrapFailure(t *testing.T) {
	source := &stubSource{err: ErrTimeout}
	m := NewManager(storeWith(t, nil), &stubProber{}, source, logging.Discard())

	_, err := m.Ensure(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestManagerRefreshAlwaysBootstraps(t *testing.T) {
	source := &stubSource{cred: fresh()}
	prober := &stubProber{validity: Valid}
	m := NewManager(storeWith(t, fresh()), prober, source, logging.Discard())

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Zero(t, prober.calls)
}

func TestManagerRefreshFailureKeepsStoredCredential(t *testing.T) {
	saved := &types.Credential{Headers: map[string]string{"authorization": "saved"}, BrowserState: []byte(`{}`)}
	store := storeWith(t, saved)
	source := &stubSource{err: ErrTimeout}
	m := NewManager(store, &stubProber{validity: Valid}, source, logging.Discard())

	_, err := m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Headers["authorization"])
}
