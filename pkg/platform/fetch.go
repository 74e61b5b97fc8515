package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/litscreen/pkg/types"
)

// Mode selects which records a fetch returns.
type Mode int

const (
	// ModeUndecided returns records without any screening decision.
	ModeUndecided Mode = iota
	// ModeDuplicateCluster returns records still carrying an unresolved
	// duplicate marker.
	ModeDuplicateCluster
)

func (m Mode) String() string {
	switch m {
	case ModeUndecided:
		return "undecided"
	case ModeDuplicateCluster:
		return "duplicate-cluster"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// searchRequest is the results endpoint's query body.
type searchRequest struct {
	Start               int            `json:"start"`
	Length              int            `json:"length"`
	Order               map[string]any `json:"order,omitempty"`
	ReturnFilteredTotal string         `json:"return_filtered_total"`
	Extra               map[string]any `json:"extra"`
}

type searchResponse struct {
	Data []json.RawMessage `json:"data"`
}

func newSearchRequest(cursor types.Cursor, mode Mode) (*searchRequest, error) {
	req := &searchRequest{
		Start:               cursor.Start,
		Length:              cursor.Size,
		ReturnFilteredTotal: "false",
	}
	switch mode {
	case ModeUndecided:
		req.Order = map[string]any{"0": map[string]string{"dir": "asc"}}
		req.Extra = map[string]any{"mode": "undecided"}
	case ModeDuplicateCluster:
		req.Extra = map[string]any{"dedup_result": 0}
	default:
		return nil, fmt.Errorf("unsupported fetch mode %v", mode)
	}
	return req, nil
}

// FetchBatch returns the page of records at cursor for mode, in platform
// order. An empty slice means the stream is exhausted. Non-2xx answers and
// transport failures are returned as *FetchError; a 401 also matches
// ErrUnauthorized.
//
// Rows that cannot be decoded are logged and skipped. A non-empty page with
// no decodable row is a *FetchError so it is never mistaken for the end.
func (c *Client) FetchBatch(ctx context.Context, cursor types.Cursor, mode Mode) ([]types.Record, error) {
	payload, err := newSearchRequest(cursor, mode)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	status, body, err := c.do(ctx, MethodSearch, c.reviewURL("results"), payload)
	if err != nil {
		return nil, &FetchError{Status: status, Err: err}
	}
	if !isSuccess(status) {
		return nil, &FetchError{Status: status, Body: truncateBody(body)}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Status: status, Err: fmt.Errorf("failed to decode results: %w", err)}
	}

	records, err := c.decodeRows(resp.Data)
	if err != nil {
		return nil, &FetchError{Status: status, Err: err}
	}

	c.logger.Debugf("fetched %d %s records at start=%d", len(records), mode, cursor.Start)
	return records, nil
}

func (c *Client) decodeRows(rows []json.RawMessage) ([]types.Record, error) {
	records := make([]types.Record, 0, len(rows))
	var lastErr error
	for i, raw := range rows {
		var rec types.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warnf("[FETCH_WARN] skipping result row %d: %v", i, err)
			lastErr = err
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 && lastErr != nil {
		return nil, fmt.Errorf("no decodable result rows: %w", lastErr)
	}
	return records, nil
}
