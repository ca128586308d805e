// Package walker enumerates indexable source files under a root directory.
//
// The walk is concurrent (bounded fan-out per directory), honors nested
// .gitignore files plus a built-in denylist of vendored, generated, and
// binary artifacts, and stops descending at a configurable depth and
// directory-count ceiling. Per-directory errors are logged and skipped so
// one unreadable subtree never fails the walk. Results come back sorted for
// deterministic downstream chunking.
package walker
