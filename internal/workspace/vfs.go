// Package workspace glues the analysis pipeline to a project on disk:
// a virtual filesystem that consults in-memory editor buffers before
// disk, the revision-bumping document controller, the project file
// scanner, and the memoized queries every front-end (LSP, CLI) drives.
package workspace

import (
	"os"
	"sync"

	"github.com/juju/errors"
)

// VFS reads file content through an overlay of open editor buffers: a
// path with an open buffer resolves to the buffer's text, everything
// else falls through to disk. It holds content only; revision counters
// live on the query engine.
type VFS struct {
	mu      sync.RWMutex
	buffers map[string]string
}

func NewVFS() *VFS {
	return &VFS{buffers: make(map[string]string)}
}

// SetBuffer installs (or replaces) the in-memory overlay for path.
func (v *VFS) SetBuffer(path, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buffers[path] = text
}

// DropBuffer removes the overlay so reads fall back to disk.
func (v *VFS) DropBuffer(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.buffers, path)
}

// Buffer returns the overlay text for path, if one is open.
func (v *VFS) Buffer(path string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	text, ok := v.buffers[path]
	return text, ok
}

// ReadFile returns path's current content: buffer first, then disk.
func (v *VFS) ReadFile(path string) (string, error) {
	if text, ok := v.Buffer(path); ok {
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Annotatef(err, "reading %s", path)
	}
	return string(data), nil
}
