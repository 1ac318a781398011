package queue

import (
	"context"
	"time"

	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/schedule"
)

// Start arms a timer that runs the queue with input on every tick of the
// queue's schedule (or its Interval). It is a no-op when the queue has
// neither, or when the timer is already armed.
//
// A tick that fires while a previous run is still in flight is dropped.
// Cancelling ctx disarms the timer like Stop does; runs already in flight
// are not cancelled by either.
func (q *Queue) Start(ctx context.Context, input any) *Queue {
	sched := q.opts.schedule()
	if sched == nil {
		q.logger.Debug("queue has no interval or schedule, not starting")
		return q
	}

	q.mu.Lock()
	if q.cancelTimer != nil {
		q.mu.Unlock()
		q.logger.Debug("queue timer already running")
		return q
	}
	timerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	q.cancelTimer = cancel
	q.timerDone = done
	q.mu.Unlock()

	go q.runTimer(timerCtx, sched, input, done)

	q.logger.Info("queue timer started", "interval", schedule.Interval(sched))
	q.Emit(&core.QueueStarted{Queue: q.name, Timestamp: time.Now()})
	return q
}

// Stop disarms the queue's timer. It is safe to call on a queue that was
// never started. A run already in flight is allowed to finish.
func (q *Queue) Stop() *Queue {
	q.mu.Lock()
	cancel, done := q.cancelTimer, q.timerDone
	q.cancelTimer, q.timerDone = nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return q
	}
	cancel()
	<-done

	q.logger.Info("queue timer stopped")
	q.Emit(&core.QueueStopped{Queue: q.name, Timestamp: time.Now()})
	return q
}

// Running reports whether the queue's timer is armed.
func (q *Queue) Running() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.cancelTimer != nil
}

func (q *Queue) runTimer(ctx context.Context, sched schedule.Schedule, input any, done chan struct{}) {
	defer close(done)
	defer func() {
		// Disarm if the parent context ended rather than Stop.
		q.mu.Lock()
		if q.timerDone == done {
			q.cancelTimer()
			q.cancelTimer, q.timerDone = nil, nil
		}
		q.mu.Unlock()
	}()

	runCtx := context.WithoutCancel(ctx)

	for {
		next := sched.Next(time.Now())
		if next.IsZero() {
			q.logger.Warn("schedule has no next run time, stopping timer")
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			q.tick(runCtx, input)
		}
	}
}

// tick starts a run unless one is already in flight.
func (q *Queue) tick(ctx context.Context, input any) {
	if !q.runMu.TryLock() {
		q.logger.Debug("previous run still in progress, skipping tick")
		return
	}
	go func() {
		res := q.run(ctx, input)
		q.runMu.Unlock()
		q.finish(ctx, res)
	}()
}
