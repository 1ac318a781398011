package manager

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jdziat/simple-job-queues/pkg/queue"
	"github.com/jdziat/simple-job-queues/pkg/security"
)

// Manager is a registry of named queues.
type Manager struct {
	logger   *slog.Logger
	defaults []queue.Option

	mu     sync.RWMutex
	queues map[string]*queue.Queue
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager and passed to the queues it
// creates.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaults sets options applied to every queue created by Queue, before
// the options passed to that call.
func WithDefaults(opts ...queue.Option) Option {
	return func(m *Manager) {
		m.defaults = append(m.defaults, opts...)
	}
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		logger: slog.Default(),
		queues: make(map[string]*queue.Queue),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func normalize(name string) string {
	return strings.ToLower(name)
}

// Register stores q under name, replacing any queue already registered under
// it. A replaced queue is not stopped.
func (m *Manager) Register(name string, q *queue.Queue) *Manager {
	key := normalize(name)
	m.mu.Lock()
	_, replaced := m.queues[key]
	m.queues[key] = q
	m.mu.Unlock()

	if replaced {
		m.logger.Debug("queue replaced", "queue", key)
	}
	return m
}

// Get returns the queue registered under name.
func (m *Manager) Get(name string) (*queue.Queue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[normalize(name)]
	return q, ok
}

// Has checks if a queue is registered under name.
func (m *Manager) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Queue returns the queue registered under name, creating and registering a
// new one with opts if none exists. opts are ignored for an existing queue.
func (m *Manager) Queue(name string, opts ...queue.Option) (*queue.Queue, error) {
	key := normalize(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[key]; ok {
		return q, nil
	}
	if err := security.ValidateQueueName(name); err != nil {
		return nil, fmt.Errorf("queue %q: %w", name, err)
	}

	all := make([]queue.Option, 0, len(m.defaults)+len(opts)+1)
	all = append(all, queue.WithLogger(m.logger))
	all = append(all, m.defaults...)
	all = append(all, opts...)

	q := queue.New(key, all...)
	m.queues[key] = q
	m.logger.Debug("queue created", "queue", key)
	return q, nil
}

// Names returns the registered queue names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StopAll stops the timer of every registered queue.
func (m *Manager) StopAll() {
	m.mu.RLock()
	queues := make([]*queue.Queue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	for _, q := range queues {
		q.Stop()
	}
}
