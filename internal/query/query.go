package query

// Func is the shape every query function must have: a pure mapping from
// (the engine context, arguments) to a result. Implementations read
// their inputs exclusively through ctx.ReadFile / ctx.Get so the engine
// can record dependencies.
type Func[A any, O any] func(ctx *Ctx, args A) O

// Query bundles a query function with its identity and cycle-recovery
// bottom value. Construct one per logical query (source_text, python_ast,
// tag_rules, ...) at package init time and share it across calls.
type Query[A any, O any] struct {
	name   string
	keyFn  func(A) string
	bottom O
	fn     Func[A, O]
}

// New registers a query. keyFn must produce a distinct string for every
// distinct argument value the query will ever be called with; bottom is
// returned (without being memoized) when the engine detects that this
// query recursively depends on itself.
func New[A any, O any](name string, keyFn func(A) string, bottom O, fn Func[A, O]) *Query[A, O] {
	return &Query[A, O]{name: name, keyFn: keyFn, bottom: bottom, fn: fn}
}

// Ctx is handed to every running query function. It is the only way a
// query may read a file or call another query; both actions record a
// dependency edge used for invalidation.
type Ctx struct {
	engine *Engine
	key    memoKey
	deps   map[string]uint64
	accum  map[string][]any
}

// ReadFile records a dependency on path's current revision and returns
// it. Queries that read file content (internal/workspace's source_text)
// call this before consulting the VFS.
func (c *Ctx) ReadFile(path string) uint64 {
	c.engine.mu.Lock()
	rev := c.engine.revisionLocked(path)
	c.engine.mu.Unlock()
	c.deps[path] = rev
	return rev
}

// Emit appends a value to the named accumulator stream for the
// currently-running query. Readers recover the full transitive stream
// via Accumulated.
func (c *Ctx) Emit(accName string, value any) {
	c.accum[accName] = append(c.accum[accName], value)
}

// Get executes q(args) or returns its memoized value, recording q as a
// dependency (through q's own recorded file deps) of the caller.
func Get[A any, O any](ctx *Ctx, q *Query[A, O], args A) O {
	out, e := getOrCompute(ctx.engine, q, args)
	if e != nil {
		// Fold the callee's recorded file deps and accumulations into
		// the caller's frame so invalidation and accumulation are
		// transitive.
		for path, rev := range e.deps {
			if cur, ok := ctx.deps[path]; !ok || rev > cur {
				ctx.deps[path] = rev
			}
		}
		for name, vals := range e.accumulated {
			ctx.accum[name] = append(ctx.accum[name], vals...)
		}
	}
	return out
}

// Run executes q(args) from outside any other query (e.g. from the LSP
// handler or the CLI driver), returning its memoized value.
func Run[A any, O any](e *Engine, q *Query[A, O], args A) O {
	out, _ := getOrCompute(e, q, args)
	return out
}

// Accumulated re-executes q if stale and returns every accName-tagged
// value emitted by q's transitive call tree. This is how the validator's
// per-tag diagnostics reach the CLI driver.
func Accumulated[A any, O any](e *Engine, q *Query[A, O], args A, accName string) []any {
	_, ent := getOrCompute(e, q, args)
	if ent == nil {
		return nil
	}
	return ent.accumulated[accName]
}

// getOrCompute is the shared engine logic behind Get and Run. It
// returns the memoized *entry so the caller can fold its deps/
// accumulations upward; ent is nil only for a cycle-recovered bottom,
// which must never be memoized.
func getOrCompute[A any, O any](e *Engine, q *Query[A, O], args A) (O, *entry) {
	key := memoKey{query: q.name, args: digestArgs(q.keyFn(args))}

	e.mu.Lock()
	if ent, ok := e.memo[key]; ok && !e.staleLocked(ent) {
		out, _ := ent.value.(O)
		e.mu.Unlock()
		return out, ent
	}
	for _, frame := range e.stack {
		if frame == key {
			// Cycle: this query transitively depends on itself.
			// Recover with the designated bottom rather than
			// diverging. Not memoized, so the next non-cyclic caller
			// must still get a real answer.
			e.mu.Unlock()
			logger.Debugf("cycle detected for query %q, recovering with bottom", q.name)
			return q.bottom, nil
		}
	}
	e.stack = append(e.stack, key)
	e.mu.Unlock()

	ctx := &Ctx{engine: e, key: key, deps: make(map[string]uint64), accum: make(map[string][]any)}
	out := q.fn(ctx, args)

	e.mu.Lock()
	e.stack = e.stack[:len(e.stack)-1]
	ent := &entry{value: out, deps: ctx.deps, accumulated: ctx.accum}
	e.memo[key] = ent
	e.mu.Unlock()

	return out, ent
}

// staleLocked reports whether ent's recorded dependency revisions are
// behind the engine's current revisions. Callers must hold e.mu.
func (e *Engine) staleLocked(ent *entry) bool {
	for path, seenRev := range ent.deps {
		if e.revisions[path] > seenRev {
			return true
		}
	}
	return false
}
