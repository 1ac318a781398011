// Package schedule provides schedules that drive a queue's recurring runs.
//
// This package includes:
//   - Schedule interface for computing the next run time
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() and ParseCron() for cron expression-based schedules
//
// Most users should import the root package github.com/jdziat/simple-job-queues
// which re-exports these functions.
package schedule
