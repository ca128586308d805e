// Package mcp implements the Model Context Protocol (MCP) server for semsearch.
//
// The server exposes the async search pipeline to AI coding assistants as a
// set of tools over JSON-RPC 2.0 on stdio:
//   - search_code: start an asynchronous semantic search, returns a job id
//   - get_job_status: poll a job's state, progress, and ETA
//   - get_job_results: page through a completed job's results
//   - cancel_job: cancel a pending or running job
//   - list_jobs: list jobs with optional status/type filters
//   - sync_index: synchronously rescan a directory into the index
//   - get_index_status: chunk counts, freshness, and provider info
//
// # Async Tool Flow
//
// search_code returns immediately with a job id; clients poll
// get_job_status until the job reaches a terminal state, then fetch pages
// with get_job_results:
//
//	{"name": "search_code", "arguments": {"query": "auth middleware", "path": "/src/app"}}
//	→ {"job_id": "3f2a...", "status": "PENDING"}
//
//	{"name": "get_job_status", "arguments": {"job_id": "3f2a..."}}
//	→ {"status": "RUNNING", "progress": 50, "eta_ms": 1200}
//
//	{"name": "get_job_results", "arguments": {"job_id": "3f2a...", "page": 1}}
//	→ {"results": [...], "total": 14, "has_more": true}
//
// # Transport
//
// The server reads MCP messages from stdin and writes responses to stdout,
// so all logging goes to stderr. Protocol errors use JSON-RPC codes:
// -32602 invalid params, -32603 internal, -32001 job not found, -32002 job
// not cancellable, -32004 empty query.
package mcp
