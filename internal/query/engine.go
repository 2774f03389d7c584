// Package query implements the incremental, demand-driven computation
// fabric the analysis runs on: memoized query functions keyed by
// interned input handles and argument digests, dependency tracking
// against per-file revision counters, cycle recovery via a caller-
// supplied bottom value, and accumulator side-channels for diagnostics.
//
// The engine is held under a single mutex for the duration of one LSP
// handler dispatch; on a single-threaded event loop this lock
// is never contended; it exists only so the handler type satisfies the
// transport's Send requirement.
package query

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("djls.query")

// Engine owns every memo table and file revision counter in a session.
// There is exactly one Engine per workspace.
type Engine struct {
	mu sync.Mutex

	revisions map[string]uint64
	memo      map[memoKey]*entry

	// stack is the chain of in-flight query calls on the current
	// goroutine, used for cycle detection. Because the engine is only
	// ever driven from a single-threaded event loop, a plain slice
	// (rather than a per-goroutine map) is sufficient.
	stack []memoKey
}

type memoKey struct {
	query string
	args  uint64
}

type entry struct {
	value       any
	deps        map[string]uint64
	accumulated map[string][]any
}

// NewEngine returns an empty engine with no tracked files.
func NewEngine() *Engine {
	return &Engine{
		revisions: make(map[string]uint64),
		memo:      make(map[memoKey]*entry),
	}
}

// SetRevision bumps the revision counter for path, invalidating every
// memoized query that transitively depended on it. Bumping one path
// never disturbs the memo entries of unrelated paths.
func (e *Engine) SetRevision(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revisions[path]++
	logger.Tracef("revision bumped: %s -> %d", path, e.revisions[path])
}

// revisionLocked returns the current revision for path. Callers must
// hold e.mu.
func (e *Engine) revisionLocked(path string) uint64 {
	return e.revisions[path]
}

// digestArgs hashes a query's argument digest string into a uint64 memo
// key component. Using a hash rather than the raw string keeps memoKey
// a small, cheaply comparable value even for queries whose arguments
// are large (e.g. a slice of split-contents strings).
func digestArgs(s string) uint64 {
	return xxhash.Sum64String(s)
}
