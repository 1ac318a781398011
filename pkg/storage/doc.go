// Package storage provides run-history persistence for queues.
//
// This package includes:
//   - GormStorage: a GORM-based core.Recorder supporting various databases
//   - Connection pool configuration helpers
//   - Retry with exponential backoff for transient write failures
//
// Run history records the outcome of each run. Queues never read it back;
// jobs and queue configuration are not persisted.
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// which provides NewGormStorage() to create storage instances.
package storage
