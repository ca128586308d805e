// Package jobs provides a generic asynchronous job table with a strict state
// machine, bounded logs, snapshot persistence, and automatic expiry.
//
// # State Machine
//
// Jobs move through:
//
//	PENDING -> RUNNING -> COMPLETED | FAILED | CANCELLED | TIMEOUT
//
// The last four states are terminal. Transitions are monotonic: once a job is
// terminal, a late Complete, Fail, or progress update is silently discarded
// and Cancel is a no-op. This makes racing finishers safe; whoever reaches
// the job first wins.
//
// # Basic Usage
//
//	m := jobs.NewManager(jobs.ManagerConfig{Dir: "/var/lib/app/jobs"})
//	defer m.Shutdown()
//
//	job := m.Submit("search", "find auth", params, 30*time.Second,
//	    func(ctx context.Context, j *jobs.Job) (any, error) {
//	        j.UpdateProgress(50, "halfway")
//	        return doWork(ctx)
//	    })
//
//	result, err := job.Wait(ctx)
//
// Submit runs the task in a goroutine and routes its return value through
// Complete or Fail. The task context is cancelled the moment the job turns
// terminal, so a timed-out or cancelled task can stop early.
//
// # Timeouts
//
// A job created with a positive timeout arms a timer on Start. If the timer
// fires before a terminal transition, the job moves to TIMEOUT and Wait
// returns an error wrapping types.ErrTimeout.
//
// # Logs and Persistence
//
// Output and warning logs keep the most recent 100 entries in memory while
// counting every entry ever added. Each state change rewrites a per-job JSON
// snapshot (status, progress, timestamps, counts); the log lines themselves
// never reach disk.
//
// A background sweeper deletes terminal jobs older than the retention window
// (default one hour) along with their snapshots.
package jobs
