package core

import "time"

// Event is the interface for all queue events.
type Event interface {
	eventMarker()
}

// JobSucceeded is emitted when a job executed by a queue reports Status true.
type JobSucceeded struct {
	Queue     string
	Job       string
	Result    Result
	Timestamp time.Time
}

func (*JobSucceeded) eventMarker() {}

// JobFailed is emitted when a job executed by a queue reports Status false,
// including lookups of unregistered job names.
type JobFailed struct {
	Queue     string
	Job       string
	Result    Result
	Timestamp time.Time
}

func (*JobFailed) eventMarker() {}

// QueueSucceeded is emitted once per run when at least one job succeeded.
type QueueSucceeded struct {
	Results   *RunResults
	Timestamp time.Time
}

func (*QueueSucceeded) eventMarker() {}

// QueueFailed is emitted once per run when no job succeeded.
type QueueFailed struct {
	Results   *RunResults
	Timestamp time.Time
}

func (*QueueFailed) eventMarker() {}

// QueueStarted is emitted when a queue's timer is armed.
type QueueStarted struct {
	Queue     string
	Timestamp time.Time
}

func (*QueueStarted) eventMarker() {}

// QueueStopped is emitted when a queue's timer is cancelled.
type QueueStopped struct {
	Queue     string
	Timestamp time.Time
}

func (*QueueStopped) eventMarker() {}
