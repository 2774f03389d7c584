package workspace

import (
	"sort"
	"sync"

	"github.com/juju/loggo"

	"github.com/djls-dev/djls/internal/query"
)

var logger = loggo.GetLogger("djls.workspace")

// moduleSetPath is the synthetic input the tag-spec database query
// depends on: its revision is bumped whenever the set of templatetag
// modules in the workspace changes, so adding or removing a module
// file invalidates the database without touching per-file revisions.
const moduleSetPath = "<module-set>"

// Workspace owns the query engine, the VFS overlay, and the list of
// discovered templatetag modules. All mutation goes through the
// document methods below, which are the only places file revisions are
// bumped (spec's revision discipline).
type Workspace struct {
	Engine *query.Engine
	FS     *VFS

	mu        sync.Mutex
	pyModules map[string]bool

	queries *queries
}

// New returns an empty workspace; call SetModules (or Discover +
// SetModules) before asking for diagnostics.
func New() *Workspace {
	w := &Workspace{
		Engine:    query.NewEngine(),
		FS:        NewVFS(),
		pyModules: make(map[string]bool),
	}
	w.queries = newQueries(w)
	return w
}

// SetModules replaces the set of templatetag module paths the database
// is built from.
func (w *Workspace) SetModules(paths []string) {
	w.mu.Lock()
	w.pyModules = make(map[string]bool, len(paths))
	for _, p := range paths {
		w.pyModules[p] = true
	}
	w.mu.Unlock()
	w.Engine.SetRevision(moduleSetPath)
}

// AddModule registers one templatetag module discovered after startup
// (a created file, a didOpen outside the scanned roots).
func (w *Workspace) AddModule(path string) {
	w.mu.Lock()
	known := w.pyModules[path]
	if !known {
		w.pyModules[path] = true
	}
	w.mu.Unlock()
	if !known {
		w.Engine.SetRevision(moduleSetPath)
	}
}

// Modules returns the current module set, sorted for deterministic
// iteration.
func (w *Workspace) Modules() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pyModules))
	for p := range w.pyModules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// OpenDocument installs an editor buffer for path. The revision bump
// invalidates any result computed from the disk copy.
func (w *Workspace) OpenDocument(path, text string) {
	w.FS.SetBuffer(path, text)
	w.Engine.SetRevision(path)
	if IsPythonModule(path) {
		w.AddModule(path)
	}
	logger.Debugf("opened %s (%d bytes)", path, len(text))
}

// ChangeDocument replaces the buffer content after an edit.
func (w *Workspace) ChangeDocument(path, text string) {
	w.FS.SetBuffer(path, text)
	w.Engine.SetRevision(path)
}

// CloseDocument drops the buffer so reads fall back to disk content.
func (w *Workspace) CloseDocument(path string) {
	w.FS.DropBuffer(path)
	w.Engine.SetRevision(path)
	logger.Debugf("closed %s", path)
}
