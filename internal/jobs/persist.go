package jobs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the persisted view of a job. Output and warning logs are
// summarized as counts; full log lines never reach disk.
type Snapshot struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	Progress     float64   `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	Result       any       `json:"result,omitempty"`
	OutputCount  int       `json:"output_count"`
	WarningCount int       `json:"warning_count"`
}

// Snapshot captures the job's current state for persistence and status
// reporting.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	snap := Snapshot{
		ID:           j.id,
		Type:         j.jobType,
		Name:         j.name,
		Status:       j.status,
		Progress:     j.progress,
		CreatedAt:    j.createdAt,
		StartedAt:    j.startedAt,
		CompletedAt:  j.completedAt,
		Result:       j.result,
		OutputCount:  j.outputTotal,
		WarningCount: j.warningTotal,
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	if !j.startedAt.IsZero() {
		end := j.completedAt
		if end.IsZero() {
			end = time.Now()
		}
		snap.DurationMS = end.Sub(j.startedAt).Milliseconds()
	}
	return snap
}

// persistSnapshot rewrites the job's snapshot file. Persistence failures are
// logged, never fatal: the in-memory job table remains authoritative.
func (m *Manager) persistSnapshot(job *Job) {
	if m.cfg.Dir == "" {
		return
	}
	if err := writeSnapshot(m.cfg.Dir, job.Snapshot()); err != nil {
		log.Printf("jobs: persist %s: %v", job.ID(), err)
	}
}

func (m *Manager) removeSnapshot(id string) {
	if m.cfg.Dir == "" {
		return
	}
	path := filepath.Join(m.cfg.Dir, id+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("jobs: remove snapshot %s: %v", id, err)
	}
}

func writeSnapshot(dir string, snap Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create jobs dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, snap.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}

	final := filepath.Join(dir, snap.ID+".json")
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
