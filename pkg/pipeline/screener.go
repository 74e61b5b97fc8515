package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/oracle"
	"github.com/entrhq/litscreen/pkg/platform"
	"github.com/entrhq/litscreen/pkg/types"
)

// DefaultBatchSize is the screening page size.
const DefaultBatchSize = 50

// Deps are the collaborators shared by both orchestrators.
type Deps struct {
	Sessions   Sessions
	Connect    Connector
	Classifier oracle.Classifier
	Pacer      Pacer
	Reporter   *Reporter
	Logger     *logging.Logger

	// ReviewID and RunID label the Summary.
	ReviewID string
	RunID    string

	now func() time.Time
}

func (d *Deps) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

// connect ensures a session and builds an authorized platform client.
func (d *Deps) connect(ctx context.Context) (Platform, error) {
	cred, err := d.Sessions.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}
	client, err := d.Connect(cred)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}
	return client, nil
}

// Screener classifies every undecided record in a review.
type Screener struct {
	deps      Deps
	batchSize int
}

// NewScreener creates a screening orchestrator. batchSize <= 0 selects
// DefaultBatchSize.
func NewScreener(deps Deps, batchSize int) *Screener {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if deps.Pacer == nil {
		deps.Pacer = DelayPacer{}
	}
	return &Screener{deps: deps, batchSize: batchSize}
}

// Run screens batches until the platform returns an empty page. For each
// record it classifies, writes the decision, and pauses. Write failures are
// counted and skipped. A fetch failure ends the run with a nil error and
// the reason recorded in the Summary.
//
// Session failures are returned as errors with a nil Summary. Cancellation
// returns the partial Summary along with ctx.Err().
func (s *Screener) Run(ctx context.Context) (*Summary, error) {
	d := &s.deps
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	summary := newSummary(WorkflowScreening, d.RunID, d.ReviewID, d.clock())
	d.Reporter.Header("Screening undecided records")

	cursor := types.Cursor{Start: 0, Size: s.batchSize}
	for {
		if err := ctx.Err(); err != nil {
			return s.stop(summary, StopInterrupted, err), err
		}

		d.Reporter.Section(fmt.Sprintf("Fetching records %d to %d", cursor.Start, cursor.Start+cursor.Size))
		records, err := client.FetchBatch(ctx, cursor, platform.ModeUndecided)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.stop(summary, StopInterrupted, ctxErr), ctxErr
			}
			d.Logger.Errorf("[FETCH_ERROR] start=%d: %v", cursor.Start, err)
			d.Reporter.Errorf("Failed to fetch records: %v", err)
			return s.stop(summary, StopFetchFailed, err), nil
		}

		if len(records) == 0 {
			d.Reporter.Infof("No more undecided records found")
			return s.stop(summary, StopExhausted, nil), nil
		}

		summary.Batches++
		d.Reporter.Infof("Processing %d records", len(records))

		for _, rec := range records {
			if err := s.screen(ctx, client, summary, rec); err != nil {
				return s.stop(summary, StopInterrupted, err), err
			}
		}

		cursor.Advance(len(records))
	}
}

// screen handles one record. It returns an error only on cancellation.
func (s *Screener) screen(ctx context.Context, client Platform, summary *Summary, rec types.Record) error {
	d := &s.deps

	decision := d.Classifier.Classify(ctx, rec)
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Logger.Infof("record %d: %s", rec.ID, decision)
	d.Reporter.Decision(rec, decision)

	if err := client.WriteScreening(ctx, rec.ID, decision); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, platform.ErrUnknownVerdict) {
			d.Logger.Warnf("[WARN] record %d: %v; skipping update", rec.ID, err)
		} else {
			d.Logger.Errorf("[WRITE_ERROR] record %d: %v", rec.ID, err)
		}
		d.Reporter.Errorf("Failed to update record %d: %v", rec.ID, err)
		summary.WriteFailures++
	}
	summary.recordDecision(decision)

	return d.Pacer.Pause(ctx)
}

func (s *Screener) stop(summary *Summary, reason string, err error) *Summary {
	summary.finish(reason, err, s.deps.clock())
	s.deps.Logger.Infof("screening stopped (%s): %d processed", reason, summary.Processed)
	return summary
}
