package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/codescout/semsearch-mcp/internal/embedder"
	"github.com/codescout/semsearch-mcp/internal/index"
	"github.com/codescout/semsearch-mcp/internal/jobs"
	"github.com/codescout/semsearch-mcp/internal/searcher"
	"github.com/codescout/semsearch-mcp/pkg/types"
)

const (
	// JobTypeSearch labels async search jobs in the manager
	JobTypeSearch = "search"

	// DefaultJobTimeout bounds a whole search job: provider init, index
	// sync, and the query itself
	DefaultJobTimeout = 2 * time.Minute

	// DefaultPageSize is used when a results request omits pageSize
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Config tunes orchestrated searches
type Config struct {
	JobTimeout  time.Duration
	GracePeriod time.Duration
}

// Syncer runs one index synchronization pass over a directory tree
type Syncer interface {
	Sync(ctx context.Context, root string) (*index.Stats, error)
}

// Orchestrator ties the pipeline together: it accepts a search request,
// returns a job immediately, and drives provider init, index sync, and the
// query engine in the background.
type Orchestrator struct {
	manager  *jobs.Manager
	store    *index.Store
	syncer   Syncer
	adapter  *embedder.Adapter
	searcher *searcher.Searcher
	cfg      Config
}

func New(manager *jobs.Manager, store *index.Store, syncer Syncer, adapter *embedder.Adapter, s *searcher.Searcher, cfg Config) *Orchestrator {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = index.DefaultGracePeriod
	}
	return &Orchestrator{
		manager:  manager,
		store:    store,
		syncer:   syncer,
		adapter:  adapter,
		searcher: s,
		cfg:      cfg,
	}
}

// Search validates the request and submits an async search job. The returned
// job is PENDING or RUNNING; poll it or call Results once it completes.
func (o *Orchestrator) Search(query, workingDir string, topK int) (*jobs.Job, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", types.ErrConfiguration)
	}
	info, err := os.Stat(workingDir)
	if err != nil {
		return nil, fmt.Errorf("%w: working directory %s: %v", types.ErrConfiguration, workingDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrConfiguration, workingDir)
	}

	params := map[string]any{
		"query":      query,
		"workingDir": workingDir,
		"topK":       topK,
	}
	job := o.manager.Submit(JobTypeSearch, query, params, o.cfg.JobTimeout,
		func(ctx context.Context, j *jobs.Job) (any, error) {
			return o.runSearch(ctx, j, query, workingDir, topK)
		})
	return job, nil
}

// runSearch is the background task body. Milestones mark progress through
// the pipeline so status polls show where a slow search is stuck.
func (o *Orchestrator) runSearch(ctx context.Context, job *jobs.Job, query, workingDir string, topK int) (any, error) {
	job.UpdateProgress(10, "initializing embedding provider")
	if err := o.adapter.Init(ctx); err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	job.UpdateProgress(25, "checking index readiness")
	if !o.store.Ready() {
		job.AddOutput("index cold, this search runs the initial sync")
	}

	// The sync runs regardless of readiness: on a cold start the search job
	// itself is what establishes the index.
	job.UpdateProgress(50, "syncing index")
	if _, err := o.syncer.Sync(ctx, workingDir); err != nil {
		switch {
		case o.store.Len() > 0:
			// Stale chunks beat no chunks. Record the failure and query
			// what we have.
			job.AddWarning(fmt.Sprintf("index sync failed, searching stale index: %v", err))
		case o.store.WaitReady(ctx, o.cfg.GracePeriod):
			// A concurrent sync delivered an index inside the grace window.
		default:
			return nil, fmt.Errorf("%w: sync failed with no indexed chunks: %v", types.ErrIndexUnavailable, err)
		}
	}

	job.UpdateProgress(90, "running query")
	results, err := o.searcher.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []types.QueryResult{}
	}

	job.UpdateProgress(100, "done")
	return results, nil
}

// Page is one page of search results for a completed job
type Page struct {
	Results  []types.QueryResult `json:"results"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	Total    int                 `json:"total"`
	HasMore  bool                `json:"hasMore"`
}

// Results returns a page of a completed search job's results, filtered by
// minimum similarity. Pages are 1-based.
func (o *Orchestrator) Results(jobID string, page, pageSize int, minSimilarity float64) (*Page, error) {
	job, err := o.manager.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status() != jobs.StatusCompleted {
		return nil, fmt.Errorf("job %s is %s, results are available only once it completes", jobID, job.Status())
	}

	result, _ := job.Result()
	all, ok := result.([]types.QueryResult)
	if !ok {
		return nil, fmt.Errorf("job %s holds no search results", jobID)
	}

	if minSimilarity > 0 {
		filtered := make([]types.QueryResult, 0, len(all))
		for _, r := range all {
			if r.Similarity >= minSimilarity {
				filtered = append(filtered, r)
			}
		}
		all = filtered
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return &Page{Results: []types.QueryResult{}, Page: page, PageSize: pageSize, Total: len(all)}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	return &Page{
		Results:  all[start:end],
		Page:     page,
		PageSize: pageSize,
		Total:    len(all),
		HasMore:  end < len(all),
	}, nil
}

// Status returns the job's persisted-shape snapshot
func (o *Orchestrator) Status(jobID string) (jobs.Snapshot, error) {
	job, err := o.manager.Get(jobID)
	if err != nil {
		return jobs.Snapshot{}, err
	}
	return job.Snapshot(), nil
}

// Cancel cancels a pending or running job
func (o *Orchestrator) Cancel(jobID string) error {
	return o.manager.Cancel(jobID)
}

// List returns jobs matching the filter, newest first
func (o *Orchestrator) List(filter jobs.Filter) []*jobs.Job {
	return o.manager.List(filter)
}
