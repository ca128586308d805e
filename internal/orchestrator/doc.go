// Package orchestrator drives asynchronous semantic searches end to end.
//
// A search request returns a job immediately; a background task then
// initializes the embedding provider, syncs the index for the working
// directory, and runs the query engine, reporting progress milestones along
// the way. On a cold start the search job's own sync establishes the index.
// A sync failure over a non-empty index logs a warning and searches the
// stale chunks; a sync failure with nothing indexed waits a bounded grace
// period for a concurrent sync to land before failing with
// types.ErrIndexUnavailable.
//
// Completed results are served in 1-based pages with an optional minimum
// similarity filter.
package orchestrator
