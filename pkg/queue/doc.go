// Package queue provides the Queue type, an ordered set of named jobs
// executed together under shared run semantics.
//
// This package includes:
//   - Queue: job registration, Exec and Run, and interval/scheduled auto-runs
//   - Option: configuration for interval, first-result early exit, piping,
//     success/fail callbacks, logging and run recording
//   - Listener registration for job and queue outcomes
//   - Event subscription for monitoring
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// which re-exports Queue and all option functions.
package queue
