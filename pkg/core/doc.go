// Package core provides the fundamental types and interfaces for the queues package.
//
// This package contains:
//   - Result, the normalized outcome of a single job execution
//   - RunResults, the per-run record produced by a queue
//   - Event types for queue monitoring
//   - Error types shared by the other packages
//   - RunRecord and JobRecord persistence models for run history
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// instead of this package directly.
package core
