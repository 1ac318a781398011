package queue

import (
	"sync"

	"github.com/jdziat/simple-job-queues/pkg/core"
)

// JobListener receives the name and result of every job the queue executes.
type JobListener func(name string, result core.Result)

// RunListener receives the aggregate results of a run.
type RunListener func(results *core.RunResults)

// listeners is an ordered observer list whose entries can be removed.
type listeners[T any] struct {
	mu     sync.RWMutex
	nextID int
	ids    []int
	fns    map[int]T
}

func (l *listeners[T]) add(fn T) (remove func()) {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]T)
	}
	id := l.nextID
	l.nextID++
	l.ids = append(l.ids, id)
	l.fns[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
		for i, v := range l.ids {
			if v == id {
				l.ids = append(l.ids[:i], l.ids[i+1:]...)
				break
			}
		}
	}
}

// snapshot returns the registered listeners in registration order.
func (l *listeners[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, l.fns[id])
	}
	return out
}
