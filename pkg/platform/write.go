package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/entrhq/litscreen/pkg/types"
)

// exclusionReasonPrefix turns a reason string into its own tracked
// exclusion category on the platform.
const exclusionReasonPrefix = "__EXR__"

// Duplicate resolution actions understood by the duplicates endpoint.
const (
	duplicateActionConfirm = 1
	duplicateActionReject  = 2
)

type customizeRequest struct {
	ArticleID int64          `json:"article_id"`
	Plan      map[string]int `json:"plan"`
}

type duplicateRequest struct {
	DuplicateAction  int  `json:"duplicate_action"`
	IsDeletedArticle bool `json:"isDeletedArticle"`
}

// ScreeningPlan returns the plan delta that records d on the platform.
func ScreeningPlan(d types.Decision) (map[string]int, error) {
	switch d.Verdict {
	case types.VerdictInclude:
		return map[string]int{"included": 1}, nil
	case types.VerdictExclude:
		if d.Reason != "" {
			return map[string]int{exclusionReasonPrefix + d.Reason: 1}, nil
		}
		return map[string]int{"included": -1}, nil
	case types.VerdictMaybe:
		return map[string]int{"included": 0}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerdict, d.Verdict)
	}
}

// WriteScreening records a screening decision for a record. Unknown verdicts
// return ErrUnknownVerdict without contacting the platform. Failures are
// returned as *WriteError and are not retried.
func (c *Client) WriteScreening(ctx context.Context, recordID int64, d types.Decision) error {
	plan, err := ScreeningPlan(d)
	if err != nil {
		return err
	}

	payload := customizeRequest{ArticleID: recordID, Plan: plan}
	status, body, err := c.do(ctx, http.MethodPost, c.reviewURL("customize"), payload)
	if err != nil {
		return &WriteError{RecordID: recordID, Status: status, Err: err}
	}
	if !isSuccess(status) {
		return &WriteError{RecordID: recordID, Status: status, Body: truncateBody(body)}
	}
	return nil
}

// WriteDuplicate resolves a cluster member as a confirmed duplicate or as
// confirmed not a duplicate.
func (c *Client) WriteDuplicate(ctx context.Context, recordID int64, isDuplicate bool) error {
	action := duplicateActionReject
	if isDuplicate {
		action = duplicateActionConfirm
	}

	payload := duplicateRequest{DuplicateAction: action, IsDeletedArticle: false}
	url := c.reviewURL(fmt.Sprintf("duplicates/%d", recordID))
	status, body, err := c.do(ctx, http.MethodPatch, url, payload)
	if err != nil {
		return &WriteError{RecordID: recordID, Status: status, Err: err}
	}
	if !isSuccess(status) {
		return &WriteError{RecordID: recordID, Status: status, Body: truncateBody(body)}
	}
	return nil
}
