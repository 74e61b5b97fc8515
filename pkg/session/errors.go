package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Store.Load when either persisted file is
	// missing.
	ErrNotFound = errors.New("session credential not found")

	// ErrTimeout is returned by Bootstrap when no qualifying request was
	// observed before the capture deadline.
	ErrTimeout = errors.New("timed out waiting for an authorized platform request")
)

// LoginError reports a failure while driving the login page.
type LoginError struct {
	Step string
	Err  error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed at %s: %v", e.Step, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
