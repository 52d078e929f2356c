// Package jobmgr runs named background jobs with cancellation, lifecycle
// reporting and in-memory tracking of what is running.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(ev jobmgr.Event) {
//	    log.Info().Str("job", ev.Job).Str("status", ev.Status).Msg("job")
//	})
//
//	err := jm.StartAsync(ctx, "health", monitor.Run)
//
//	// on shutdown
//	jm.StopAll()
package jobmgr

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	ErrAlreadyRunning = errors.New("job is already running")
	ErrNotRunning     = errors.New("job is not running")
)

// Job lifecycle statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Event is a job lifecycle notification.
type Event struct {
	Job    string
	Status string
	Err    error
}

// Reporter receives lifecycle events for jobs.
type Reporter func(Event)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	reporter Reporter
}

// NewManager creates a Manager. reporter may be nil.
func NewManager(reporter Reporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

// StartAsync runs runner on its own goroutine under a context derived from
// parent. Names are unique among running jobs; a finished job is removed.
func (m *Manager) StartAsync(parent context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return errors.Wrapf(ErrAlreadyRunning, "%q", name)
	}
	ctx, cancel := context.WithCancel(parent)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.mu.Unlock()

	go func() {
		defer close(j.done)
		defer cancel()
		m.report(Event{Job: name, Status: StatusRunning})

		err := runner(ctx)
		if err != nil {
			m.report(Event{Job: name, Status: StatusError, Err: err})
		} else {
			m.report(Event{Job: name, Status: StatusDone})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrNotRunning, "%q", name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every running job and waits for them.
func (m *Manager) StopAll() {
	for _, name := range m.List() {
		_ = m.Stop(name)
	}
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Status returns a human-readable summary, e.g. "Running jobs: health".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

func (m *Manager) report(ev Event) {
	if m.reporter != nil {
		m.reporter(ev)
	}
}
