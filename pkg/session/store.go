package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/litscreen/pkg/types"
)

// Store persists a credential between runs.
type Store interface {
	// Load returns the stored credential or ErrNotFound.
	Load() (*types.Credential, error)

	// Save replaces the stored credential wholesale.
	Save(cred *types.Credential) error
}

// FileStore keeps a credential as two files: a JSON header map and the
// browser's storage-state JSON. Both are required; one without the other is
// reported as ErrNotFound so the caller re-bootstraps.
type FileStore struct {
	headersPath string
	statePath   string
}

// NewFileStore creates a store over the given file paths.
func NewFileStore(headersPath, statePath string) *FileStore {
	return &FileStore{headersPath: headersPath, statePath: statePath}
}

// Load reads both files.
func (s *FileStore) Load() (*types.Credential, error) {
	headersData, err := readRequired(s.headersPath)
	if err != nil {
		return nil, err
	}
	state, err := readRequired(s.statePath)
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if err := json.Unmarshal(headersData, &headers); err != nil {
		return nil, fmt.Errorf("failed to decode headers file %s: %w", s.headersPath, err)
	}

	return &types.Credential{Headers: headers, BrowserState: state}, nil
}

func readRequired(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Save writes both files, each through a temp file and rename.
func (s *FileStore) Save(cred *types.Credential) error {
	if cred == nil {
		return fmt.Errorf("cannot save nil credential")
	}

	headersData, err := json.MarshalIndent(cred.Headers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	if err := writeAtomic(s.statePath, cred.BrowserState); err != nil {
		return err
	}
	return writeAtomic(s.headersPath, headersData)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Paths returns the header and state file locations.
func (s *FileStore) Paths() (headersPath, statePath string) {
	return s.headersPath, s.statePath
}
