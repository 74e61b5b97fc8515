package session

import (
	"context"
	"errors"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/platform"
	"github.com/entrhq/litscreen/pkg/types"
)

// Validity is the outcome of a credential probe.
type Validity int

const (
	Invalid Validity = iota // Invalid means the platform rejected the credential or did not answer.
	Valid                   // Valid means the platform answered with something other than 401.
)

func (v Validity) String() string {
	if v == Valid {
		return "valid"
	}
	return "invalid"
}

// BatchFetcher is the platform call used as a probe.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, cursor types.Cursor, mode platform.Mode) ([]types.Record, error)
}

// Connector builds a platform client authorized with cred.
type Connector func(cred *types.Credential) (BatchFetcher, error)

// Prober checks whether a credential is still accepted.
type Prober interface {
	Probe(ctx context.Context, cred *types.Credential) (Validity, error)
}

// Validator probes a credential with the smallest possible fetch.
type Validator struct {
	connect Connector
	logger  *logging.Logger
}

// NewValidator creates a validator using connect to build probe clients.
func NewValidator(connect Connector, logger *logging.Logger) *Validator {
	return &Validator{connect: connect, logger: logger}
}

// Probe fetches one undecided record with cred. A 401 or a transport failure
// is Invalid; any other HTTP answer, including an error status, is Valid.
// Errors are returned only when the probe could not be attempted at all, and
// callers should treat them as Invalid.
func (v *Validator) Probe(ctx context.Context, cred *types.Credential) (Validity, error) {
	if !cred.Usable() {
		return Invalid, nil
	}

	client, err := v.connect(cred)
	if err != nil {
		return Invalid, err
	}

	_, err = client.FetchBatch(ctx, types.Cursor{Start: 0, Size: 1}, platform.ModeUndecided)
	if err == nil {
		return Valid, nil
	}

	if errors.Is(err, platform.ErrUnauthorized) {
		v.logger.Infof("Session probe rejected with 401")
		return Invalid, nil
	}

	var fe *platform.FetchError
	if errors.As(err, &fe) {
		if fe.Status == 0 {
			v.logger.Warnf("Session probe got no response: %v", fe.Err)
			return Invalid, nil
		}
		v.logger.Warnf("Session probe returned status %d; treating session as valid", fe.Status)
		return Valid, nil
	}

	return Invalid, err
}
