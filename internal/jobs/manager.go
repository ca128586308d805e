package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

const (
	// DefaultSweepInterval is how often the manager scans for expired jobs
	DefaultSweepInterval = 5 * time.Minute
	// DefaultRetention is how long terminal jobs stay visible before the
	// sweeper deletes them
	DefaultRetention = time.Hour
)

// TaskFunc is the unit of work a submitted job runs. The context is
// cancelled when the job reaches a terminal state.
type TaskFunc func(ctx context.Context, job *Job) (any, error)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status Status
	Type   string
}

// ManagerConfig tunes job retention and persistence
type ManagerConfig struct {
	// Dir receives one JSON snapshot per job; empty disables persistence
	Dir           string
	SweepInterval time.Duration
	Retention     time.Duration
}

// Manager owns the job table: creation, lookup, cancellation, background
// execution, snapshot persistence, and expiry of old terminal jobs.
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*Job
	cfg  ManagerConfig

	cancels map[string]context.CancelFunc

	sweepStop chan struct{}
	sweepDone chan struct{}
	stopOnce  sync.Once
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	m := &Manager{
		jobs:      make(map[string]*Job),
		cfg:       cfg,
		cancels:   make(map[string]context.CancelFunc),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Create registers a new PENDING job and returns it
func (m *Manager) Create(jobType, name string, params map[string]any, timeout time.Duration) *Job {
	job := newJob(uuid.NewString(), jobType, name, params, timeout)
	job.onChange = m.persistSnapshot

	m.mu.Lock()
	m.jobs[job.id] = job
	m.mu.Unlock()

	m.persistSnapshot(job)
	return job
}

// Get returns the job with the given id
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrJobNotFound, id)
	}
	return job, nil
}

// List returns jobs matching the filter, newest first
func (m *Manager) List(filter Filter) []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if filter.Status != "" && job.Status() != filter.Status {
			continue
		}
		if filter.Type != "" && job.jobType != filter.Type {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.After(out[j].createdAt)
	})
	return out
}

// Cancel cancels a PENDING or RUNNING job. Terminal jobs cannot be
// cancelled.
func (m *Manager) Cancel(id string) error {
	job, err := m.Get(id)
	if err != nil {
		return err
	}
	if !job.Cancel() {
		return fmt.Errorf("%w: job %s is %s", types.ErrJobNotCancellable, id, job.Status())
	}
	m.stopTask(id)
	return nil
}

// Delete removes a terminal job from the table and its snapshot from disk
func (m *Manager) Delete(id string) error {
	job, err := m.Get(id)
	if err != nil {
		return err
	}
	if !job.Status().Terminal() {
		return fmt.Errorf("job %s is still %s, only terminal jobs can be deleted", id, job.Status())
	}

	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()

	m.removeSnapshot(id)
	return nil
}

// Submit creates a job and runs fn in a goroutine. The function's return
// value routes through Complete or Fail; the context passed to fn is
// cancelled as soon as the job turns terminal, whatever the cause.
func (m *Manager) Submit(jobType, name string, params map[string]any, timeout time.Duration, fn TaskFunc) *Job {
	job := m.Create(jobType, name, params, timeout)

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancels[job.id] = cancel
	m.mu.Unlock()

	go func() {
		<-job.Done()
		m.stopTask(job.id)
	}()

	go func() {
		job.Start()
		result, err := fn(ctx, job)
		if err != nil {
			job.Fail(err)
			return
		}
		job.Complete(result)
	}()

	return job
}

func (m *Manager) stopTask(id string) {
	m.mu.Lock()
	cancel, ok := m.cancels[id]
	if ok {
		delete(m.cancels, id)
	}
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown cancels every live job, stops the sweeper, and clears the table.
// Safe to call more than once.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		for _, job := range m.List(Filter{}) {
			if !job.Status().Terminal() {
				job.Cancel()
				m.stopTask(job.id)
			}
		}

		close(m.sweepStop)
		<-m.sweepDone

		m.mu.Lock()
		m.jobs = make(map[string]*Job)
		m.mu.Unlock()
	})
}

func (m *Manager) sweepLoop() {
	defer close(m.sweepDone)
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now())
		case <-m.sweepStop:
			return
		}
	}
}

// sweep deletes terminal jobs whose completion time is older than the
// retention window
func (m *Manager) sweep(now time.Time) {
	var expired []string
	m.mu.Lock()
	for id, job := range m.jobs {
		job.mu.Lock()
		old := job.status.Terminal() && now.Sub(job.completedAt) > m.cfg.Retention
		job.mu.Unlock()
		if old {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.jobs, id)
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.removeSnapshot(id)
	}
	if len(expired) > 0 {
		log.Printf("jobs: swept %d expired job(s)", len(expired))
	}
}
