package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/semsearch-mcp/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{Dir: t.TempDir()})
	t.Cleanup(m.Shutdown)
	return m
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(t)

	job := m.Create("search", "find auth", map[string]any{"query": "auth"}, 0)
	assert.NotEmpty(t, job.ID())
	assert.Equal(t, StatusPending, job.Status())

	got, err := m.Get(job.ID())
	require.NoError(t, err)
	assert.Same(t, job, got)
}

func TestManagerGetUnknown(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get("no-such-id")
	assert.ErrorIs(t, err, types.ErrJobNotFound)
}

func TestManagerListFilters(t *testing.T) {
	m := newTestManager(t)

	a := m.Create("search", "a", nil, 0)
	b := m.Create("sync", "b", nil, 0)
	b.Start()
	b.Complete(nil)

	all := m.List(Filter{})
	assert.Len(t, all, 2)

	searches := m.List(Filter{Type: "search"})
	require.Len(t, searches, 1)
	assert.Equal(t, a.ID(), searches[0].ID())

	completed := m.List(Filter{Status: StatusCompleted})
	require.Len(t, completed, 1)
	assert.Equal(t, b.ID(), completed[0].ID())
}

func TestManagerCancelTerminalJob(t *testing.T) {
	m := newTestManager(t)

	job := m.Create("search", "done", nil, 0)
	job.Start()
	job.Complete(nil)

	err := m.Cancel(job.ID())
	assert.ErrorIs(t, err, types.ErrJobNotCancellable)
}

func TestManagerDeleteRequiresTerminal(t *testing.T) {
	m := newTestManager(t)

	job := m.Create("search", "live", nil, 0)
	job.Start()

	err := m.Delete(job.ID())
	assert.Error(t, err)

	job.Complete(nil)
	require.NoError(t, m.Delete(job.ID()))

	_, err = m.Get(job.ID())
	assert.ErrorIs(t, err, types.ErrJobNotFound)
}

func TestManagerSubmitCompletes(t *testing.T) {
	m := newTestManager(t)

	job := m.Submit("search", "quick", nil, time.Second, func(ctx context.Context, j *Job) (any, error) {
		j.UpdateProgress(50, "working")
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := job.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, StatusCompleted, job.Status())
	assert.Equal(t, 100.0, job.Progress())
}

func TestManagerSubmitFailure(t *testing.T) {
	m := newTestManager(t)

	boom := errors.New("boom")
	job := m.Submit("search", "broken", nil, time.Second, func(ctx context.Context, j *Job) (any, error) {
		return nil, boom
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := job.Wait(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, job.Status())
}

func TestManagerSubmitTimeout(t *testing.T) {
	m := newTestManager(t)

	job := m.Submit("search", "slow", nil, 100*time.Millisecond, func(ctx context.Context, j *Job) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "never", nil
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err := job.Wait(ctx)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.Equal(t, StatusTimeout, job.Status())
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestManagerCancelStopsTask(t *testing.T) {
	m := newTestManager(t)

	started := make(chan struct{})
	stopped := make(chan struct{})
	job := m.Submit("search", "cancellable", nil, 0, func(ctx context.Context, j *Job) (any, error) {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil, ctx.Err()
	})

	<-started
	require.NoError(t, m.Cancel(job.ID()))

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("task context not cancelled")
	}
	assert.Equal(t, StatusCancelled, job.Status())
}

func TestManagerSweepDeletesOldTerminalJobs(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{Dir: dir, Retention: 10 * time.Millisecond})
	t.Cleanup(m.Shutdown)

	old := m.Create("search", "old", nil, 0)
	old.Start()
	old.Complete(nil)
	live := m.Create("search", "live", nil, 0)

	time.Sleep(30 * time.Millisecond)
	m.sweep(time.Now())

	_, err := m.Get(old.ID())
	assert.ErrorIs(t, err, types.ErrJobNotFound)
	_, err = m.Get(live.ID())
	assert.NoError(t, err, "non-terminal jobs survive the sweep")

	_, err = os.Stat(filepath.Join(dir, old.ID()+".json"))
	assert.True(t, os.IsNotExist(err), "snapshot removed with the job")
}

func TestManagerShutdownCancelsRunning(t *testing.T) {
	m := NewManager(ManagerConfig{Dir: t.TempDir()})

	job := m.Submit("search", "running", nil, 0, func(ctx context.Context, j *Job) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	for job.Status() != StatusRunning {
		select {
		case <-ctx.Done():
			t.Fatal("job never started")
		case <-time.After(time.Millisecond):
		}
	}

	m.Shutdown()

	assert.Equal(t, StatusCancelled, job.Status())
	assert.Empty(t, m.List(Filter{}), "table cleared on shutdown")
}

func TestManagerPersistsSnapshots(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{Dir: dir})
	t.Cleanup(m.Shutdown)

	job := m.Create("search", "persisted", map[string]any{"query": "x"}, 0)
	job.Start()
	job.AddOutput("scanning")
	job.AddWarning("slow provider")
	job.Complete([]string{"r1"})

	data, err := os.ReadFile(filepath.Join(dir, job.ID()+".json"))
	require.NoError(t, err)

	snap := string(data)
	assert.Contains(t, snap, `"status": "COMPLETED"`)
	assert.Contains(t, snap, `"output_count": 1`)
	assert.Contains(t, snap, `"warning_count": 1`)
	assert.NotContains(t, snap, "scanning", "log lines never persisted")
	assert.NotContains(t, snap, "slow provider")
}
