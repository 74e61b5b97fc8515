package pipeline

import (
	"time"

	"github.com/entrhq/litscreen/pkg/types"
)

// Workflow names recorded in a Summary.
const (
	WorkflowScreening = "screening"
	WorkflowDedupe    = "dedupe"
)

// Reasons a run stopped.
const (
	StopExhausted   = "exhausted"
	StopFetchFailed = "fetch failed"
	StopInterrupted = "interrupted"
)

// Summary tallies one orchestrator run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Workflow   string        `json:"workflow"`
	ReviewID   string        `json:"review_id"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	StopReason string        `json:"stop_reason"`
	Error      string        `json:"error,omitempty"`

	// Screening
	Batches   int            `json:"batches,omitempty"`
	Processed int            `json:"processed"`
	Included  int            `json:"included,omitempty"`
	Excluded  int            `json:"excluded,omitempty"`
	Maybe     int            `json:"maybe,omitempty"`
	Reasons   map[string]int `json:"reasons,omitempty"`

	// Duplicate resolution
	Fetched         int  `json:"fetched,omitempty"`
	Clusters        int  `json:"clusters,omitempty"`
	ClustersSkipped int  `json:"clusters_skipped,omitempty"`
	Duplicates      int  `json:"duplicates,omitempty"`
	NotDuplicates   int  `json:"not_duplicates,omitempty"`
	MayBeTruncated  bool `json:"may_be_truncated,omitempty"`

	WriteFailures int `json:"write_failures"`
}

func newSummary(workflow, runID, reviewID string, now time.Time) *Summary {
	return &Summary{
		RunID:     runID,
		Workflow:  workflow,
		ReviewID:  reviewID,
		StartTime: now,
		Reasons:   make(map[string]int),
	}
}

func (s *Summary) recordDecision(d types.Decision) {
	s.Processed++
	switch d.Verdict {
	case types.VerdictInclude:
		s.Included++
	case types.VerdictExclude:
		s.Excluded++
	case types.VerdictMaybe:
		s.Maybe++
	}
	if d.Reason != "" {
		s.Reasons[d.Reason]++
	}
}

func (s *Summary) recordVerdict(v types.DuplicateVerdict) {
	s.Processed++
	if v.IsDuplicate {
		s.Duplicates++
	} else {
		s.NotDuplicates++
	}
}

func (s *Summary) finish(reason string, err error, now time.Time) {
	s.StopReason = reason
	if err != nil {
		s.Error = err.Error()
	}
	s.EndTime = now
	s.Duration = s.EndTime.Sub(s.StartTime)
}
