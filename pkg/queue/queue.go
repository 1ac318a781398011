package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/job"
)

// Queue is an ordered collection of jobs run together. Jobs run strictly one
// after another in the order they were first added.
type Queue struct {
	name   string
	opts   *Options
	logger *slog.Logger

	mu      sync.RWMutex
	jobs    map[string]*job.Job
	order   []string
	results *core.RunResults

	// runMu serializes runs; a run owns it from the first job to the recorder.
	runMu sync.Mutex

	// Timer state, guarded by mu
	cancelTimer context.CancelFunc
	timerDone   chan struct{}

	// Listeners
	onJobSuccess   listeners[JobListener]
	onJobFail      listeners[JobListener]
	onQueueSuccess listeners[RunListener]
	onQueueFail    listeners[RunListener]

	// Event stream
	subMu     sync.RWMutex
	eventSubs []chan core.Event
}

// New creates a Queue. The name identifies the queue in events, logs and
// run history.
func New(name string, opts ...Option) *Queue {
	options := NewOptions()
	for _, opt := range opts {
		opt.Apply(options)
	}
	return &Queue{
		name:   name,
		opts:   options,
		logger: options.Logger.With("queue", name),
		jobs:   make(map[string]*job.Job),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Options returns a copy of the queue configuration.
func (q *Queue) Options() Options {
	return *q.opts
}

// Add wraps fn in a job named name and adds it to the queue. Re-adding an
// existing name replaces that job in place, keeping its position.
// Add panics if the name is invalid or fn is not a supported function;
// use TryAdd to get the error instead.
func (q *Queue) Add(name string, fn any) *Queue {
	if err := q.TryAdd(name, fn); err != nil {
		panic(err)
	}
	return q
}

// TryAdd is like Add but returns an error instead of panicking.
func (q *Queue) TryAdd(name string, fn any) error {
	j, err := job.New(name, fn)
	if err != nil {
		return fmt.Errorf("queue %q: %w", q.name, err)
	}
	j.SetLogger(q.logger)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[name]; !exists {
		q.order = append(q.order, name)
	}
	q.jobs[name] = j
	return nil
}

// Job returns the job registered under name.
func (q *Queue) Job(name string) (*job.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[name]
	return j, ok
}

// HasJob checks if a job is registered under name.
func (q *Queue) HasJob(name string) bool {
	_, ok := q.Job(name)
	return ok
}

// JobNames returns the job names in run order.
func (q *Queue) JobNames() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]string(nil), q.order...)
}

// Remove deletes the named job. It reports whether the job existed.
func (q *Queue) Remove(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[name]; !ok {
		return false
	}
	delete(q.jobs, name)
	for i, n := range q.order {
		if n == name {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Results returns the record of the latest completed run, or nil if the
// queue has not run yet.
func (q *Queue) Results() *core.RunResults {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.results.Clone()
}

// Exec runs the named job with input. An unknown name yields a failed result
// with the message "Job not found."; Exec never panics on behalf of a job.
func (q *Queue) Exec(ctx context.Context, name string, input any) core.Result {
	var res core.Result
	if j, ok := q.Job(name); ok {
		res = j.Run(ctx, input)
	} else {
		res = core.Failure(core.NotFoundMsg)
		res.Job = name
		res.Err = core.ErrJobNotFound
	}

	now := time.Now()
	if res.Status {
		for _, fn := range q.onJobSuccess.snapshot() {
			q.safeCall("job success listener", func() { fn(name, res) })
		}
		q.Emit(&core.JobSucceeded{Queue: q.name, Job: name, Result: res, Timestamp: now})
	} else {
		for _, fn := range q.onJobFail.snapshot() {
			q.safeCall("job fail listener", func() { fn(name, res) })
		}
		q.Emit(&core.JobFailed{Queue: q.name, Job: name, Result: res, Timestamp: now})
	}
	return res
}

// Run executes every job in order and returns the run's record.
//
// With FirstResult enabled the run stops after the first job whose result
// has Status true. With Piping enabled a job's result Data (when non-nil)
// becomes the next job's input; otherwise every job sees input.
//
// Exactly one of the queue success/fail notifications fires per run, and the
// matching OnSuccess/OnFail callback is invoked once. Runs of the same queue
// never overlap: a Run call waits for an in-flight run to finish. ctx is
// passed to the actions; the run itself is not aborted when ctx is done.
//
// Queue listeners, callbacks and the recorder are invoked after the run has
// released the queue, so they may call Run on the same queue. Job listeners
// (OnJobSuccess, OnJobFail) fire while the run is in flight and must not
// call Run on their own queue: that call would wait for itself forever.
func (q *Queue) Run(ctx context.Context, input any) *core.RunResults {
	q.runMu.Lock()
	res := q.run(ctx, input)
	q.runMu.Unlock()

	q.finish(ctx, res)
	return res
}

// run executes the jobs and stores the results. The caller must hold runMu
// and call finish after releasing it.
func (q *Queue) run(ctx context.Context, input any) *core.RunResults {
	res := &core.RunResults{
		ID:        uuid.New().String(),
		Queue:     q.name,
		Input:     input,
		StartedAt: time.Now(),
	}

	names := q.JobNames()
	q.logger.Debug("queue run started", "run_id", res.ID, "jobs", len(names))

	working := input
	for _, name := range names {
		r := q.Exec(ctx, name, working)
		res.Jobs = append(res.Jobs, core.JobResult{Name: name, Result: r})

		if q.opts.Piping && r.Data != nil {
			working = r.Data
		}
		if q.opts.FirstResult && r.Status {
			res.Early = true
			break
		}
	}

	res.Data = working
	for _, jr := range res.Jobs {
		if jr.Result.Status {
			res.Status = true
			break
		}
	}
	res.FinishedAt = time.Now()

	q.mu.Lock()
	q.results = res
	q.mu.Unlock()

	return res
}

// finish notifies listeners, emits the aggregate event, invokes the matching
// callback and hands the run to the recorder.
func (q *Queue) finish(ctx context.Context, res *core.RunResults) {
	q.logger.Debug("queue run finished",
		"run_id", res.ID,
		"status", res.Status,
		"early", res.Early,
		"jobs", res.Len(),
		"duration", res.Duration(),
	)

	if res.Status {
		for _, fn := range q.onQueueSuccess.snapshot() {
			q.safeCall("queue success listener", func() { fn(res) })
		}
		q.Emit(&core.QueueSucceeded{Results: res, Timestamp: res.FinishedAt})
		if cb := q.opts.OnSuccess; cb != nil {
			q.safeCall("success callback", func() { cb(ctx, res) })
		}
	} else {
		for _, fn := range q.onQueueFail.snapshot() {
			q.safeCall("queue fail listener", func() { fn(res) })
		}
		q.Emit(&core.QueueFailed{Results: res, Timestamp: res.FinishedAt})
		if cb := q.opts.OnFail; cb != nil {
			q.safeCall("fail callback", func() { cb(ctx, res) })
		}
	}

	if rec := q.opts.Recorder; rec != nil {
		if err := rec.SaveRun(ctx, res.Clone()); err != nil {
			q.logger.Error("failed to record run", "run_id", res.ID, "error", err)
		}
	}
}

// safeCall runs fn, logging instead of propagating a panic.
func (q *Queue) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Warn(what+" panicked", "panic", r)
		}
	}()
	fn()
}

// OnJobSuccess registers a listener for successful job results.
// The returned func removes it.
func (q *Queue) OnJobSuccess(fn JobListener) (remove func()) {
	return q.onJobSuccess.add(fn)
}

// OnJobFail registers a listener for failed job results, including lookups
// of unknown job names. The returned func removes it.
func (q *Queue) OnJobFail(fn JobListener) (remove func()) {
	return q.onJobFail.add(fn)
}

// OnQueueSuccess registers a listener for runs in which any job succeeded.
// The returned func removes it.
func (q *Queue) OnQueueSuccess(fn RunListener) (remove func()) {
	return q.onQueueSuccess.add(fn)
}

// OnQueueFail registers a listener for runs in which no job succeeded.
// The returned func removes it.
func (q *Queue) OnQueueFail(fn RunListener) (remove func()) {
	return q.onQueueFail.add(fn)
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.subMu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed. After Unsubscribe returns, no further events
// will be sent to the channel.
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.subMu.Lock()
	defer q.subMu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers.
func (q *Queue) Emit(e core.Event) {
	q.subMu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.subMu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full - this prevents blocking on slow consumers
		}
	}
}
