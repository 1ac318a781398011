// Package job provides Job, a single named unit of work wrapping a
// caller-supplied action.
//
// Running a Job always yields a core.Result: bare return values are
// normalized by truthiness, returned errors and panics become failed results,
// and results returned directly by the action pass through unchanged.
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// and add jobs through a Queue instead of using this package directly.
package job
