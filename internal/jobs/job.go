package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusTimeout   Status = "TIMEOUT"
)

// Terminal reports whether a job in this status can never change state again
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// maxLogEntries bounds the output and warning logs exposed per job
const maxLogEntries = 100

// LogEntry is a timestamped line in a job's output or warning log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Job tracks a single asynchronous task through its lifecycle. All state
// transitions are guarded by the job mutex, and once a job reaches a terminal
// status every later transition is discarded.
type Job struct {
	mu sync.Mutex

	id      string
	jobType string
	name    string
	params  map[string]any
	timeout time.Duration

	status      Status
	progress    float64
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time

	result any
	err    error

	output        []LogEntry
	warnings      []LogEntry
	outputTotal   int
	warningTotal  int
	progressNotes []LogEntry

	timer *time.Timer
	done  chan struct{}

	// onChange fires after every state-changing call, outside no-ops
	onChange func(*Job)
}

func newJob(id, jobType, name string, params map[string]any, timeout time.Duration) *Job {
	return &Job{
		id:        id,
		jobType:   jobType,
		name:      name,
		params:    params,
		timeout:   timeout,
		status:    StatusPending,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func (j *Job) ID() string           { return j.id }
func (j *Job) Type() string         { return j.jobType }
func (j *Job) Name() string         { return j.name }
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// Done returns a channel closed when the job reaches a terminal status
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Result returns the job's result and error. Meaningful only after the job
// is terminal.
func (j *Job) Result() (any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Start moves a PENDING job to RUNNING and arms the timeout timer. Starting
// a job twice, or starting a terminal job, is a no-op.
func (j *Job) Start() {
	j.mu.Lock()
	if j.status != StatusPending {
		j.mu.Unlock()
		return
	}
	j.status = StatusRunning
	j.startedAt = time.Now()
	if j.timeout > 0 {
		j.timer = time.AfterFunc(j.timeout, j.expire)
	}
	j.mu.Unlock()
	j.notify()
}

// UpdateProgress records progress, clamped to [0, 100], with a timestamped
// note. Progress on a terminal job is discarded.
func (j *Job) UpdateProgress(percent float64, note string) {
	j.mu.Lock()
	if j.status.Terminal() {
		j.mu.Unlock()
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	j.progress = percent
	if note != "" {
		j.progressNotes = appendBounded(j.progressNotes, note)
	}
	j.mu.Unlock()
	j.notify()
}

// AddOutput appends a line to the output log, keeping the most recent
// maxLogEntries while counting every line ever added.
func (j *Job) AddOutput(line string) {
	j.mu.Lock()
	j.output = appendBounded(j.output, line)
	j.outputTotal++
	j.mu.Unlock()
	j.notify()
}

// AddWarning appends a line to the warning log with the same bounded
// retention as AddOutput.
func (j *Job) AddWarning(line string) {
	j.mu.Lock()
	j.warnings = appendBounded(j.warnings, line)
	j.warningTotal++
	j.mu.Unlock()
	j.notify()
}

// Output returns the retained output lines and the total count of lines
// ever added (retained and evicted).
func (j *Job) Output() ([]LogEntry, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]LogEntry, len(j.output))
	copy(out, j.output)
	return out, j.outputTotal
}

// Warnings returns the retained warning lines and the total warning count.
func (j *Job) Warnings() ([]LogEntry, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]LogEntry, len(j.warnings))
	copy(out, j.warnings)
	return out, j.warningTotal
}

// Complete finishes the job with a result. Only a RUNNING job can complete;
// a Complete on a pending or terminal job is discarded.
func (j *Job) Complete(result any) {
	j.finish(StatusCompleted, result, nil)
}

// Fail finishes the job with an error. Only a RUNNING job can fail; a Fail
// on a pending or terminal job is discarded.
func (j *Job) Fail(err error) {
	j.finish(StatusFailed, nil, err)
}

// Cancel moves a PENDING or RUNNING job to CANCELLED. Cancelling a terminal
// job is a no-op and reports false.
func (j *Job) Cancel() bool {
	return j.finish(StatusCancelled, nil, fmt.Errorf("job %s cancelled", j.id))
}

func (j *Job) expire() {
	j.finish(StatusTimeout, nil, fmt.Errorf("%w: job %s exceeded %v", types.ErrTimeout, j.id, j.timeout))
}

// finish performs the terminal transition. It reports false when the
// transition is not allowed, in which case nothing changes. Only CANCELLED
// may be reached from PENDING; the other terminal statuses require the job
// to have run. The timeout timer is only armed by Start, so TIMEOUT can
// never fire on a PENDING job.
func (j *Job) finish(status Status, result any, err error) bool {
	j.mu.Lock()
	if j.status.Terminal() {
		j.mu.Unlock()
		return false
	}
	if status != StatusCancelled && j.status != StatusRunning {
		j.mu.Unlock()
		return false
	}
	j.status = status
	j.result = result
	j.err = err
	j.progress = progressFor(status, j.progress)
	j.completedAt = time.Now()
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	close(j.done)
	j.mu.Unlock()
	j.notify()
	return true
}

func progressFor(status Status, current float64) float64 {
	if status == StatusCompleted {
		return 100
	}
	return current
}

// ETA estimates remaining time by linear extrapolation from elapsed runtime
// and current progress. It returns zero while the job has no progress or is
// not running.
func (j *Job) ETA() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning || j.progress <= 0 {
		return 0
	}
	elapsed := time.Since(j.startedAt)
	total := time.Duration(float64(elapsed) / (j.progress / 100))
	remaining := total - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Wait blocks until the job is terminal or the context ends, then returns
// the job's result and error.
func (j *Job) Wait(ctx context.Context) (any, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) notify() {
	if j.onChange != nil {
		j.onChange(j)
	}
}

func appendBounded(entries []LogEntry, message string) []LogEntry {
	entries = append(entries, LogEntry{Time: time.Now(), Message: message})
	if len(entries) > maxLogEntries {
		entries = entries[len(entries)-maxLogEntries:]
	}
	return entries
}
