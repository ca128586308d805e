package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/semsearch-mcp/internal/jobs"
	"github.com/codescout/semsearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeJobNotFound      = -32001 // No job with the given id
	ErrorCodeJobNotCancelable = -32002 // Job already reached a terminal state
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

// handleSearchCode starts an async search job and returns its id immediately
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	job, err := s.orch.Search(query, path, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "search rejected", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"job_id": job.ID(),
		"status": string(job.Status()),
		"query":  query,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetJobStatus reports a job's current state and progress
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	jobID, ok := args["job_id"].(string)
	if !ok || jobID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "job_id parameter is required", map[string]interface{}{
			"param":  "job_id",
			"reason": "missing or empty",
		})
	}

	snap, err := s.orch.Status(jobID)
	if err != nil {
		return nil, jobError(jobID, err)
	}

	job, err := s.manager.Get(jobID)
	if err != nil {
		return nil, jobError(jobID, err)
	}

	response := map[string]interface{}{
		"job_id":        snap.ID,
		"type":          snap.Type,
		"name":          snap.Name,
		"status":        string(snap.Status),
		"progress":      snap.Progress,
		"created_at":    snap.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"duration_ms":   snap.DurationMS,
		"output_count":  snap.OutputCount,
		"warning_count": snap.WarningCount,
	}
	if snap.Error != "" {
		response["error"] = snap.Error
	}
	if eta := job.ETA(); eta > 0 {
		response["eta_ms"] = eta.Milliseconds()
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetJobResults returns a page of a completed search job's results
func (s *Server) handleGetJobResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	jobID, ok := args["job_id"].(string)
	if !ok || jobID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "job_id parameter is required", map[string]interface{}{
			"param":  "job_id",
			"reason": "missing or empty",
		})
	}

	page := getIntDefault(args, "page", 1)
	pageSize := getIntDefault(args, "page_size", 10)
	minSimilarity := getFloatDefault(args, "min_similarity", 0)

	result, err := s.orch.Results(jobID, page, pageSize, minSimilarity)
	if err != nil {
		if errors.Is(err, types.ErrJobNotFound) {
			return nil, jobError(jobID, err)
		}
		return nil, newMCPError(ErrorCodeInvalidParams, "results unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"job_id":    jobID,
		"results":   result.Results,
		"page":      result.Page,
		"page_size": result.PageSize,
		"total":     result.Total,
		"has_more":  result.HasMore,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCancelJob cancels a pending or running job
func (s *Server) handleCancelJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	jobID, ok := args["job_id"].(string)
	if !ok || jobID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "job_id parameter is required", map[string]interface{}{
			"param":  "job_id",
			"reason": "missing or empty",
		})
	}

	if err := s.orch.Cancel(jobID); err != nil {
		return nil, jobError(jobID, err)
	}

	response := map[string]interface{}{
		"job_id":    jobID,
		"cancelled": true,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListJobs lists jobs, optionally filtered by status and type
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	filter := jobs.Filter{
		Status: jobs.Status(getStringDefault(args, "status", "")),
		Type:   getStringDefault(args, "type", ""),
	}

	listed := s.orch.List(filter)
	entries := make([]map[string]interface{}, 0, len(listed))
	for _, job := range listed {
		snap := job.Snapshot()
		entries = append(entries, map[string]interface{}{
			"job_id":     snap.ID,
			"type":       snap.Type,
			"name":       snap.Name,
			"status":     string(snap.Status),
			"progress":   snap.Progress,
			"created_at": snap.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	response := map[string]interface{}{
		"jobs":  entries,
		"count": len(entries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSyncIndex runs a synchronous index sync for a directory
func (s *Server) handleSyncIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	stats, err := s.syncer.Sync(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "sync failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"synced":         true,
		"skipped":        stats.Skipped,
		"files_scanned":  stats.FilesScanned,
		"files_chunked":  stats.FilesChunked,
		"files_failed":   stats.FilesFailed,
		"chunks_created": stats.ChunksCreated,
		"cache_cleared":  stats.CacheCleared,
		"duration_ms":    stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIndexStatus reports the index's chunk count and freshness
func (s *Server) handleGetIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chunks, freshness := s.store.Snapshot()

	byLanguage := map[string]int{}
	for _, chunk := range chunks {
		byLanguage[chunk.Language]++
	}

	response := map[string]interface{}{
		"indexed":      len(chunks) > 0,
		"chunk_count":  len(chunks),
		"freshness_ms": freshness,
		"by_language":  byLanguage,
		"provider":     s.adapter.Provider(),
		"dimension":    s.adapter.Dimension(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// jobError maps manager errors onto MCP error codes
func jobError(jobID string, err error) error {
	switch {
	case errors.Is(err, types.ErrJobNotFound):
		return newMCPError(ErrorCodeJobNotFound, "job not found", map[string]interface{}{
			"job_id": jobID,
		})
	case errors.Is(err, types.ErrJobNotCancellable):
		return newMCPError(ErrorCodeJobNotCancelable, "job is not cancellable", map[string]interface{}{
			"job_id": jobID,
			"reason": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "job operation failed", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
