package pipeline

import (
	"context"

	"github.com/entrhq/litscreen/pkg/platform"
	"github.com/entrhq/litscreen/pkg/types"
)

// DefaultFetchSize is how many unresolved records one dedupe fetch asks for.
const DefaultFetchSize = 5000

// Resolver compares every duplicate-cluster member against its cluster's
// anchor and records the verdict on the member.
type Resolver struct {
	deps      Deps
	fetchSize int
}

// NewResolver creates a duplicate resolution orchestrator. fetchSize <= 0
// selects DefaultFetchSize.
func NewResolver(deps Deps, fetchSize int) *Resolver {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	if deps.Pacer == nil {
		deps.Pacer = DelayPacer{}
	}
	return &Resolver{deps: deps, fetchSize: fetchSize}
}

// Run fetches the unresolved set once, groups it into clusters in first-seen
// order, and resolves each cluster with at least two members. The anchor
// (first member) is never written. Error semantics match Screener.Run.
func (r *Resolver) Run(ctx context.Context) (*Summary, error) {
	d := &r.deps
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	summary := newSummary(WorkflowDedupe, d.RunID, d.ReviewID, d.clock())
	d.Reporter.Header("Resolving duplicate clusters")
	d.Reporter.Section("Fetching all unresolved duplicates")

	records, err := client.FetchBatch(ctx, types.Cursor{Start: 0, Size: r.fetchSize}, platform.ModeDuplicateCluster)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.stop(summary, StopInterrupted, ctxErr), ctxErr
		}
		d.Logger.Errorf("[FETCH_ERROR] duplicate list: %v", err)
		d.Reporter.Errorf("Failed to fetch unresolved duplicates: %v", err)
		return r.stop(summary, StopFetchFailed, err), nil
	}

	summary.Fetched = len(records)
	if len(records) == 0 {
		d.Reporter.Infof("No unresolved duplicates found")
		return r.stop(summary, StopExhausted, nil), nil
	}
	if len(records) >= r.fetchSize {
		summary.MayBeTruncated = true
		d.Logger.Warnf("duplicate fetch returned the full %d records; rerun to resolve the rest", r.fetchSize)
		d.Reporter.Warnf("Fetched the maximum of %d records; more may remain for a later run", r.fetchSize)
	}

	clusters := GroupClusters(records)
	summary.Clusters = len(clusters)
	d.Reporter.Section("Processing clusters")
	d.Reporter.Infof("Found %d records across %d clusters", len(records), len(clusters))

	for i, c := range clusters {
		if err := ctx.Err(); err != nil {
			return r.stop(summary, StopInterrupted, err), err
		}

		d.Reporter.Cluster(i+1, len(clusters), c)
		if !c.Comparable() {
			d.Reporter.Verbosef("Skipping cluster with only one record")
			summary.ClustersSkipped++
			continue
		}

		anchor := c.Anchor()
		for _, other := range c.Members[1:] {
			if err := r.resolve(ctx, client, summary, anchor, other); err != nil {
				return r.stop(summary, StopInterrupted, err), err
			}
		}
	}

	return r.stop(summary, StopExhausted, nil), nil
}

// resolve handles one comparison. It returns an error only on cancellation.
func (r *Resolver) resolve(ctx context.Context, client Platform, summary *Summary, anchor, other types.Record) error {
	d := &r.deps

	verdict := d.Classifier.CompareDuplicates(ctx, anchor, other)
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Logger.Infof("record %d vs anchor %d: duplicate=%t (%s)", other.ID, anchor.ID, verdict.IsDuplicate, verdict.Reason)
	d.Reporter.Comparison(anchor, other, verdict)

	if err := client.WriteDuplicate(ctx, other.ID, verdict.IsDuplicate); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		d.Logger.Errorf("[WRITE_ERROR] record %d: %v", other.ID, err)
		d.Reporter.Errorf("Failed to resolve record %d: %v", other.ID, err)
		summary.WriteFailures++
	}
	summary.recordVerdict(verdict)

	return d.Pacer.Pause(ctx)
}

func (r *Resolver) stop(summary *Summary, reason string, err error) *Summary {
	summary.finish(reason, err, r.deps.clock())
	r.deps.Logger.Infof("duplicate resolution stopped (%s): %d resolved", reason, summary.Processed)
	return summary
}
