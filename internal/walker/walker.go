package walker

import (
	"bufio"
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Defaults bounding the walk on pathological trees
const (
	DefaultMaxDepth  = 12
	DefaultMaxDirs   = 5000
	DefaultMaxFanOut = 8
)

// Options configures a walk
type Options struct {
	Extensions     []string // Allowed extensions, with or without leading dot
	IgnorePatterns []string // Caller-supplied patterns, merged with nested .gitignore files
	MaxDepth       int      // Maximum directory depth (default: DefaultMaxDepth)
	MaxDirs        int      // Maximum number of directories visited (default: DefaultMaxDirs)
	MaxFanOut      int      // Bound on concurrent directory reads (default: DefaultMaxFanOut)
}

// defaultIgnoreDirs are always skipped in addition to caller patterns
var defaultIgnoreDirs = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".idea",
	".vscode",
	"dist",
	"build",
	"target",
}

// skipSuffixes excludes binary, lock, minified, and generated files
var skipSuffixes = []string{
	".min.js", ".min.css", ".map",
	".lock", ".sum",
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".pdf",
	".zip", ".tar", ".gz", ".bz2", ".7z",
	".exe", ".dll", ".so", ".dylib", ".a", ".o", ".wasm",
	".woff", ".woff2", ".ttf", ".eot",
	".pb.go", "_generated.go",
}

// skipBasenames excludes well-known lock and machine-written files by name
var skipBasenames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
	"cargo.lock":        true,
	"composer.lock":     true,
	"gemfile.lock":      true,
	"poetry.lock":       true,
}

// walkState carries shared state across concurrent directory reads
type walkState struct {
	opts     Options
	extSet   map[string]bool
	dirCount atomic.Int32

	mu    sync.Mutex
	files []string
}

// Walk enumerates candidate source files under root. Per-directory read
// errors are logged and skipped; they never abort the walk. The returned
// paths are absolute and sorted for a deterministic result.
func Walk(ctx context.Context, root string, opts Options) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxDirs <= 0 {
		opts.MaxDirs = DefaultMaxDirs
	}
	if opts.MaxFanOut <= 0 {
		opts.MaxFanOut = DefaultMaxFanOut
	}

	w := &walkState{
		opts:   opts,
		extSet: buildExtSet(opts.Extensions),
	}

	patterns := append([]string{}, defaultIgnoreDirs...)
	patterns = append(patterns, opts.IgnorePatterns...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxFanOut)

	w.walkDir(gctx, g, absRoot, patterns, 0)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(w.files)
	return w.files, nil
}

// walkDir processes one directory. Subdirectories are handed to the errgroup
// when a worker slot is free; otherwise they are walked synchronously to
// avoid deadlocking the bounded pool on deep recursion.
func (w *walkState) walkDir(ctx context.Context, g *errgroup.Group, dir string, patterns []string, depth int) {
	if ctx.Err() != nil {
		return
	}

	if depth > w.opts.MaxDepth {
		return
	}
	if int(w.dirCount.Add(1)) > w.opts.MaxDirs {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("walker: skipping %s: %v", dir, err)
		return
	}

	// Nested .gitignore patterns apply to this directory and below. Extend
	// into a fresh slice: sibling directories walk concurrently and share
	// the inherited backing array, so appending in place would race.
	if extra := loadGitignore(dir); len(extra) > 0 {
		merged := make([]string, 0, len(patterns)+len(extra))
		merged = append(merged, patterns...)
		merged = append(merged, extra...)
		patterns = merged
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if matchesIgnore(name, patterns) {
				continue
			}
			subPatterns := patterns
			subDepth := depth + 1
			if !g.TryGo(func() error {
				w.walkDir(ctx, g, path, subPatterns, subDepth)
				return nil
			}) {
				w.walkDir(ctx, g, path, subPatterns, subDepth)
			}
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if !w.wantFile(name, patterns) {
			continue
		}

		w.mu.Lock()
		w.files = append(w.files, path)
		w.mu.Unlock()
	}
}

// wantFile applies the extension allowlist and the suffix/basename denylists
func (w *walkState) wantFile(name string, patterns []string) bool {
	lower := strings.ToLower(name)

	if skipBasenames[lower] {
		return false
	}
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	if matchesIgnore(name, patterns) {
		return false
	}

	if len(w.extSet) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	return w.extSet[ext]
}

// buildExtSet normalizes extensions to lowercase with a leading dot
func buildExtSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// loadGitignore reads non-comment lines from a directory's .gitignore.
// Full gitignore grammar (negation, anchoring) is out of scope; patterns are
// matched by name and glob only.
func loadGitignore(dir string) []string {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns
}

// matchesIgnore checks a file or directory name against ignore patterns
func matchesIgnore(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
