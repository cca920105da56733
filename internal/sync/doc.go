// Package sync implements the Sync Orchestrator.
//
// The orchestrator drives batches of raw exchange payloads through
// Normalizer -> Resolver -> Committer and accounts for every input record
// in a BatchReport. One record's failure never aborts its siblings; only
// batch-level setup failures (store unreachable, adapter fetch failure)
// propagate to the caller.
//
// Duplicate market ids within a batch are processed sequentially in input
// order. Distinct keys are committed concurrently through a bounded worker
// pool. A batch deadline turns the records that were not reached into
// Skipped entries, distinct from Failed, so callers can re-submit exactly
// those.
package sync
