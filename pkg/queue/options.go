package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/schedule"
)

// RunCallback receives the aggregate results of a run. RunResults.Data holds
// the last working input.
type RunCallback func(ctx context.Context, results *core.RunResults)

// Options holds queue configuration.
type Options struct {
	Interval    time.Duration
	Schedule    schedule.Schedule
	FirstResult bool
	Piping      bool
	OnSuccess   RunCallback
	OnFail      RunCallback
	Logger      *slog.Logger
	Recorder    core.Recorder
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Logger: slog.Default(),
	}
}

// schedule returns the schedule Start should use, or nil if the queue has
// neither a schedule nor a positive interval.
func (o *Options) schedule() schedule.Schedule {
	if o.Schedule != nil {
		return o.Schedule
	}
	if o.Interval > 0 {
		return schedule.Every(o.Interval)
	}
	return nil
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// Interval makes Start run the queue every d. Non-positive values leave the
// queue without a timer.
func Interval(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Interval = d
	})
}

// WithSchedule makes Start run the queue on s. It takes precedence over Interval.
func WithSchedule(s schedule.Schedule) Option {
	return optionFunc(func(o *Options) {
		o.Schedule = s
	})
}

// FirstResult stops a run at the first job whose result has Status true.
func FirstResult(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.FirstResult = enabled
	})
}

// Piping feeds each job's result Data to the next job as its input.
func Piping(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.Piping = enabled
	})
}

// OnSuccess sets the callback invoked after a run in which any job succeeded.
func OnSuccess(fn RunCallback) Option {
	return optionFunc(func(o *Options) {
		o.OnSuccess = fn
	})
}

// OnFail sets the callback invoked after a run in which no job succeeded.
func OnFail(fn RunCallback) Option {
	return optionFunc(func(o *Options) {
		o.OnFail = fn
	})
}

// WithLogger sets the logger. nil keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	})
}

// WithRecorder hands every finished run to r.
func WithRecorder(r core.Recorder) Option {
	return optionFunc(func(o *Options) {
		o.Recorder = r
	})
}
