package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codescout/semsearch-mcp/internal/chunker"
	"github.com/codescout/semsearch-mcp/internal/embedder"
	"github.com/codescout/semsearch-mcp/internal/index"
	"github.com/codescout/semsearch-mcp/internal/jobs"
	"github.com/codescout/semsearch-mcp/internal/orchestrator"
	"github.com/codescout/semsearch-mcp/internal/searcher"
	"github.com/codescout/semsearch-mcp/internal/walker"
)

const (
	// ServerName is the MCP server name
	ServerName = "semsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDataDir is the default location for index and job state
	DefaultDataDir = "~/.semsearch"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	store   *index.Store
	syncer  *index.Syncer
	adapter *embedder.Adapter
	manager *jobs.Manager
	orch    *orchestrator.Orchestrator
}

// NewServer creates a new MCP server instance
func NewServer(dataDir string) (*Server, error) {
	// Expand home directory if needed
	if dataDir == "" || dataDir == DefaultDataDir {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".semsearch")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Single shared adapter: sync and search hit the same embedding cache
	adapter, err := embedder.NewFromEnv(embedder.AdapterConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store := index.NewStore(filepath.Join(dataDir, "index.json"))
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	ch := chunker.New()
	syncer := index.NewSyncer(store, ch, adapter.Cache(), walker.Options{})
	srch := searcher.New(store, adapter, searcher.Config{})
	manager := jobs.NewManager(jobs.ManagerConfig{Dir: filepath.Join(dataDir, "jobs")})
	orch := orchestrator.New(manager, store, syncer, adapter, srch, orchestrator.Config{})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		store:   store,
		syncer:  syncer,
		adapter: adapter,
		manager: manager,
		orch:    orch,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()
	return server.ServeStdio(s.mcp)
}

// Close releases server resources: the job manager and the embedding
// provider.
func (s *Server) Close() {
	s.manager.Shutdown()
	_ = s.adapter.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getJobStatusTool(), s.handleGetJobStatus)
	s.mcp.AddTool(getJobResultsTool(), s.handleGetJobResults)
	s.mcp.AddTool(cancelJobTool(), s.handleCancelJob)
	s.mcp.AddTool(listJobsTool(), s.handleListJobs)
	s.mcp.AddTool(syncIndexTool(), s.handleSyncIndex)
	s.mcp.AddTool(getIndexStatusTool(), s.handleGetIndexStatus)
}
