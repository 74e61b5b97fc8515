package pipeline

import (
	"context"

	"github.com/entrhq/litscreen/pkg/platform"
	"github.com/entrhq/litscreen/pkg/types"
)

// Platform is the record source and decision writer the orchestrators use.
// *platform.Client implements it.
type Platform interface {
	FetchBatch(ctx context.Context, cursor types.Cursor, mode platform.Mode) ([]types.Record, error)
	WriteScreening(ctx context.Context, recordID int64, d types.Decision) error
	WriteDuplicate(ctx context.Context, recordID int64, isDuplicate bool) error
}

// Sessions hands out a working credential. *session.Manager implements it.
type Sessions interface {
	Ensure(ctx context.Context) (*types.Credential, error)
}

// Connector builds a Platform authorized with cred.
type Connector func(cred *types.Credential) (Platform, error)

// ClientConnector adapts a base platform client into a Connector.
func ClientConnector(base *platform.Client) Connector {
	return func(cred *types.Credential) (Platform, error) {
		client, err := base.Authorize(cred)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
