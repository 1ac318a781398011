package core

import (
	"context"
	"time"
)

// JobResult pairs a job name with the Result it produced in a run.
type JobResult struct {
	Name   string
	Result Result
}

// RunResults is the record of one queue run. It is rebuilt from scratch by
// every run; a queue only ever holds the latest one.
type RunResults struct {
	ID     string
	Queue  string
	Input  any // value passed to Run
	Data   any // working input after the last job (differs from Input only when piping)
	Jobs   []JobResult
	Status bool // true if any job succeeded
	Early  bool // stopped at the first successful job

	StartedAt  time.Time
	FinishedAt time.Time
}

// Len returns the number of jobs evaluated in the run.
func (r *RunResults) Len() int {
	return len(r.Jobs)
}

// Get returns the result recorded for the named job.
func (r *RunResults) Get(name string) (Result, bool) {
	for _, jr := range r.Jobs {
		if jr.Name == name {
			return jr.Result, true
		}
	}
	return Result{}, false
}

// Succeeded returns the names of the jobs whose result has Status true.
func (r *RunResults) Succeeded() []string {
	var names []string
	for _, jr := range r.Jobs {
		if jr.Result.Status {
			names = append(names, jr.Name)
		}
	}
	return names
}

// Failed returns the names of the jobs whose result has Status false.
func (r *RunResults) Failed() []string {
	var names []string
	for _, jr := range r.Jobs {
		if !jr.Result.Status {
			names = append(names, jr.Name)
		}
	}
	return names
}

// Duration returns how long the run took.
func (r *RunResults) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clone returns a copy of r with its own Jobs slice.
func (r *RunResults) Clone() *RunResults {
	if r == nil {
		return nil
	}
	c := *r
	c.Jobs = append([]JobResult(nil), r.Jobs...)
	return &c
}

// Recorder receives every finished run. Implementations must be safe for
// concurrent use; a queue calls SaveRun after its listeners and callbacks.
type Recorder interface {
	SaveRun(ctx context.Context, run *RunResults) error
}
