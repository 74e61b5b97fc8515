package platform

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any FetchError or WriteError caused by a 401.
	ErrUnauthorized = errors.New("platform rejected credentials")

	// ErrUnknownVerdict is returned for decisions the writer has no mutation for.
	ErrUnknownVerdict = errors.New("unknown decision verdict")
)

// FetchError is a failed record fetch. Status is 0 when no response arrived.
type FetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch failed with status %d: %s", e.Status, e.Body)
}

func (e *FetchError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}

// WriteError is a failed decision write for one record.
type WriteError struct {
	RecordID int64
	Status   int
	Body     string
	Err      error
}

func (e *WriteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("failed to update record %d: %v", e.RecordID, e.Err)
	}
	return fmt.Sprintf("failed to update record %d: %d %s", e.RecordID, e.Status, e.Body)
}

func (e *WriteError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}
