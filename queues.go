// Package queues provides ordered job queues with optional piping,
// first-result short-circuiting, timers and run history.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	q := queues.New("signup", queues.Piping(true)).
//	    Add("normalize", func(email string) string { return strings.ToLower(email) }).
//	    Add("send", func(ctx context.Context, email string) error {
//	        return sendWelcome(ctx, email)
//	    })
//
//	res := q.Run(ctx, "New.User@Example.com")
//	if !res.Status {
//	    log.Printf("failed jobs: %v", res.Failed())
//	}
//
// Queues with an interval or schedule can run themselves:
//
//	q := queues.New("heartbeat", queues.Interval(30*time.Second)).Add("ping", ping)
//	q.Start(ctx, nil)
//	defer q.Stop()
package queues

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/simple-job-queues/pkg/config"
	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/job"
	"github.com/jdziat/simple-job-queues/pkg/manager"
	"github.com/jdziat/simple-job-queues/pkg/queue"
	"github.com/jdziat/simple-job-queues/pkg/schedule"
	"github.com/jdziat/simple-job-queues/pkg/security"
	"github.com/jdziat/simple-job-queues/pkg/storage"
)

type (
	// Job wraps a function so it can be run by name.
	Job = job.Job

	// Result is the outcome of a single job.
	Result = core.Result

	// JobResult pairs a job name with its result.
	JobResult = core.JobResult

	// RunResults records one run of a queue.
	RunResults = core.RunResults

	// Recorder persists finished runs.
	Recorder = core.Recorder

	// PanicError wraps a value recovered from a panicking job.
	PanicError = core.PanicError

	// Event is the interface for all queue events.
	Event = core.Event

	// JobSucceeded is emitted when a job returns a successful result.
	JobSucceeded = core.JobSucceeded

	// JobFailed is emitted when a job fails or is not found.
	JobFailed = core.JobFailed

	// QueueSucceeded is emitted when a run has at least one successful job.
	QueueSucceeded = core.QueueSucceeded

	// QueueFailed is emitted when no job of a run succeeded.
	QueueFailed = core.QueueFailed

	// QueueStarted is emitted when a queue timer is armed.
	QueueStarted = core.QueueStarted

	// QueueStopped is emitted when a queue timer is disarmed.
	QueueStopped = core.QueueStopped

	// Queue is an ordered collection of jobs.
	Queue = queue.Queue

	// Option modifies queue Options.
	Option = queue.Option

	// Options holds queue configuration.
	Options = queue.Options

	// RunCallback is invoked with the results of a finished run.
	RunCallback = queue.RunCallback

	// JobListener observes individual job results on a queue.
	JobListener = queue.JobListener

	// RunListener observes finished runs.
	RunListener = queue.RunListener

	// Manager is a registry of named queues.
	Manager = manager.Manager

	// ManagerOption configures a Manager.
	ManagerOption = manager.Option

	// Schedule defines when a queue should run next.
	Schedule = schedule.Schedule

	// GormStorage records run history using GORM.
	GormStorage = storage.GormStorage

	// PoolOption configures the history connection pool.
	PoolOption = storage.PoolOption

	// Config is the YAML deployment configuration.
	Config = config.Config
)

// Security limits
const (
	MaxJobNameLength      = security.MaxJobNameLength
	MaxQueueNameLength    = security.MaxQueueNameLength
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrInvalidJobName     = core.ErrInvalidJobName
	ErrJobNameTooLong     = core.ErrJobNameTooLong
	ErrInvalidQueueName   = core.ErrInvalidQueueName
	ErrQueueNameTooLong   = core.ErrQueueNameTooLong
	ErrInvalidAction      = core.ErrInvalidAction
	ErrJobNotFound        = core.ErrJobNotFound
	ErrRunNotFound        = core.ErrRunNotFound
	ErrInputNotAssignable = core.ErrInputNotAssignable
)

// New creates a queue.
func New(name string, opts ...Option) *Queue {
	return queue.New(name, opts...)
}

// NewJob wraps fn in a standalone job.
func NewJob(name string, fn any) (*Job, error) {
	return job.New(name, fn)
}

// NewManager creates an empty queue registry.
func NewManager(opts ...ManagerOption) *Manager {
	return manager.New(opts...)
}

// NewGormStorage creates a GORM-backed run history.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewGormStorageWithPool configures the connection pool and creates a
// GORM-backed run history.
func NewGormStorageWithPool(db *gorm.DB, opts ...PoolOption) (*GormStorage, error) {
	return storage.NewGormStorageWithPool(db, opts...)
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Success builds a successful result carrying data.
func Success(data any) Result {
	return core.Success(data)
}

// Failure builds a failed result with a message.
func Failure(msg string) Result {
	return core.Failure(msg)
}

// ValidateJobName validates a job name.
func ValidateJobName(name string) error {
	return security.ValidateJobName(name)
}

// ValidateQueueName validates a queue name.
func ValidateQueueName(name string) error {
	return security.ValidateQueueName(name)
}

// Queue option functions

// Interval sets how often a started queue runs.
func Interval(d time.Duration) Option {
	return queue.Interval(d)
}

// WithSchedule sets the schedule of a started queue. It takes precedence
// over Interval.
func WithSchedule(s Schedule) Option {
	return queue.WithSchedule(s)
}

// FirstResult stops a run at the first successful job.
func FirstResult(enabled bool) Option {
	return queue.FirstResult(enabled)
}

// Piping feeds each job's result data to the next job.
func Piping(enabled bool) Option {
	return queue.Piping(enabled)
}

// OnSuccess sets the callback for runs with at least one successful job.
func OnSuccess(fn RunCallback) Option {
	return queue.OnSuccess(fn)
}

// OnFail sets the callback for runs in which no job succeeded.
func OnFail(fn RunCallback) Option {
	return queue.OnFail(fn)
}

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return queue.WithLogger(logger)
}

// WithRecorder persists every finished run to r.
func WithRecorder(r Recorder) Option {
	return queue.WithRecorder(r)
}

// Manager option functions

// WithManagerLogger sets the logger of a Manager and the queues it creates.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return manager.WithLogger(logger)
}

// WithDefaults sets options applied to every queue a Manager creates.
func WithDefaults(opts ...Option) ManagerOption {
	return manager.WithDefaults(opts...)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression. It panics on an invalid
// expression; use ParseCron to get the error instead.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// ParseCron parses a cron expression into a Schedule.
func ParseCron(expr string) (Schedule, error) {
	return schedule.ParseCron(expr)
}
