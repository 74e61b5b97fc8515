// Package pipeline drives the two batch workflows against a review:
// screening undecided records and resolving duplicate clusters.
//
// Both orchestrators run on a single goroutine. Each record or comparison
// is classified, written, and followed by a pacing delay; every remote call
// and delay honors context cancellation so an interrupt stops the run
// between records. Per-record failures are logged and counted, never fatal.
// A failed fetch ends the run cleanly with the reason recorded in the
// Summary.
package pipeline
