package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/internal/handler"
	"github.com/jdziat/simple-job-queues/pkg/security"
)

// Listener receives the normalized result of a job run.
type Listener func(core.Result)

// Job is a named unit of work. The name and action are fixed at creation.
type Job struct {
	name    string
	handler *handler.Handler
	logger  *slog.Logger

	mu        sync.RWMutex
	nextID    int
	onSuccess map[int]Listener
	onFail    map[int]Listener
	order     []int
}

// New creates a Job. fn must be a function; see handler.NewHandler for the
// accepted signatures.
func New(name string, fn any) (*Job, error) {
	if err := security.ValidateJobName(name); err != nil {
		return nil, err
	}
	h, err := handler.NewHandler(fn)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}
	return &Job{
		name:      name,
		handler:   h,
		logger:    slog.Default(),
		onSuccess: make(map[int]Listener),
		onFail:    make(map[int]Listener),
	}, nil
}

// Name returns the job name.
func (j *Job) Name() string {
	return j.name
}

// SetLogger sets the logger used to report panicking listeners.
func (j *Job) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	j.mu.Lock()
	j.logger = logger
	j.mu.Unlock()
}

// OnSuccess registers fn to be called with every successful result.
// The returned func removes the listener.
func (j *Job) OnSuccess(fn Listener) (remove func()) {
	return j.listen(j.onSuccess, fn)
}

// OnFail registers fn to be called with every failed result.
// The returned func removes the listener.
func (j *Job) OnFail(fn Listener) (remove func()) {
	return j.listen(j.onFail, fn)
}

func (j *Job) listen(set map[int]Listener, fn Listener) func() {
	j.mu.Lock()
	id := j.nextID
	j.nextID++
	set[id] = fn
	j.order = append(j.order, id)
	j.mu.Unlock()

	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := set[id]; !ok {
			return
		}
		delete(set, id)
		for i, v := range j.order {
			if v == id {
				j.order = append(j.order[:i], j.order[i+1:]...)
				break
			}
		}
	}
}

// Run executes the action with input and returns its normalized result.
// It never panics on behalf of the action.
func (j *Job) Run(ctx context.Context, input any) core.Result {
	res := j.execute(ctx, input)
	res.Job = j.name
	j.notify(res)
	return res
}

func (j *Job) execute(ctx context.Context, input any) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = core.FailureErr(&core.PanicError{Value: r})
		}
	}()

	value, err := j.handler.Call(ctx, input)
	if err != nil {
		return core.FailureErr(err)
	}
	if !j.handler.HasValue {
		return core.Result{Status: true}
	}
	return core.Normalize(value)
}

func (j *Job) notify(res core.Result) {
	set := j.onFail
	if res.Status {
		set = j.onSuccess
	}

	j.mu.RLock()
	listeners := make([]Listener, 0, len(set))
	for _, id := range j.order {
		if fn, ok := set[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	logger := j.logger
	j.mu.RUnlock()

	for _, fn := range listeners {
		safeCall(logger, j.name, fn, res)
	}
}

func safeCall(logger *slog.Logger, name string, fn Listener, res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("job listener panicked", "job", name, "panic", r)
		}
	}()
	fn(res)
}
