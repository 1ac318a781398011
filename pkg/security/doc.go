// Package security provides validation and sanitization for the queues package.
//
// This package includes:
//   - Input validation for job names and queue names
//   - Error message sanitization before messages land in results and run history
//   - Limits defining maximum name and message sizes
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// which re-exports these functions.
package security
