// Package template validates parsed template node lists against the
// tag-spec database: load-state tracking, opaque-region computation,
// block balancing, if-expression checking, and extracted-rule
// evaluation all live here and share one diagnostic stream.
package template

import (
	"path/filepath"
	"strings"

	"github.com/djls-dev/djls/internal/span"
	"github.com/djls-dev/djls/internal/tmpllex"
)

// LoadKind discriminates a {% load %} statement's two forms.
type LoadKind int

const (
	// FullLoad is `{% load lib1 lib2 %}`.
	FullLoad LoadKind = iota
	// SelectiveImport is `{% load sym1 sym2 from lib %}`.
	SelectiveImport
)

// LoadStatement is one {% load %} tag, in template order.
type LoadStatement struct {
	Span span.Span
	Kind LoadKind

	// FullLoad: the library names. SelectiveImport: the single library.
	Libraries []string
	// SelectiveImport only: the imported symbol names.
	Symbols []string
}

// CollectLoads extracts every {% load %} statement from the node list,
// in source order. Malformed load tags (no arguments, `from` with no
// library) are skipped here and add nothing to the load state. They are
// reported only when an extracted rule for the load tag covers them;
// the built-in load tag carries no rule.
func CollectLoads(nodes []tmpllex.Node) []LoadStatement {
	var out []LoadStatement
	for _, n := range nodes {
		if n.Kind != tmpllex.NodeTag || n.Name != "load" || len(n.Bits) < 2 {
			continue
		}
		args := n.Bits[1:]
		fromIdx := -1
		for i, b := range args {
			if b == "from" {
				fromIdx = i
				break
			}
		}
		if fromIdx >= 0 {
			if fromIdx == 0 || fromIdx != len(args)-2 {
				continue
			}
			out = append(out, LoadStatement{
				Span:      n.Span,
				Kind:      SelectiveImport,
				Libraries: []string{args[len(args)-1]},
				Symbols:   append([]string{}, args[:fromIdx]...),
			})
			continue
		}
		out = append(out, LoadStatement{
			Span:      n.Span,
			Kind:      FullLoad,
			Libraries: append([]string{}, args...),
		})
	}
	return out
}

// LoadState is the set of libraries and selectively-imported symbols
// visible at a point in a template.
type LoadState struct {
	FullyLoaded map[string]bool
	Selective   map[string]map[string]bool
}

// NewLoadState returns the empty state at the top of a template.
func NewLoadState() *LoadState {
	return &LoadState{
		FullyLoaded: make(map[string]bool),
		Selective:   make(map[string]map[string]bool),
	}
}

// Apply folds one statement into the state: a full load inserts each
// library and clears any prior selective imports from it; a selective
// import unions its symbols unless the library is already fully loaded
// (in which case it is a no-op).
func (s *LoadState) Apply(stmt LoadStatement) {
	switch stmt.Kind {
	case FullLoad:
		for _, lib := range stmt.Libraries {
			s.FullyLoaded[lib] = true
			delete(s.Selective, lib)
		}
	case SelectiveImport:
		lib := stmt.Libraries[0]
		if s.FullyLoaded[lib] {
			return
		}
		if s.Selective[lib] == nil {
			s.Selective[lib] = make(map[string]bool)
		}
		for _, sym := range stmt.Symbols {
			s.Selective[lib][sym] = true
		}
	}
}

// StateAt folds every statement whose span ends at or before pos.
func StateAt(loads []LoadStatement, pos uint32) *LoadState {
	state := NewLoadState()
	for _, stmt := range loads {
		if stmt.Span.End <= pos {
			state.Apply(stmt)
		}
	}
	return state
}

// IsFullyLoaded reports whether library lib has been {% load %}ed in
// full.
func (s *LoadState) IsFullyLoaded(lib string) bool {
	return s.FullyLoaded[lib]
}

// IsSymbolAvailable reports whether symbol sym from library lib is
// visible: the library is fully loaded, or the symbol was selectively
// imported.
func (s *LoadState) IsSymbolAvailable(lib, sym string) bool {
	if s.FullyLoaded[lib] {
		return true
	}
	return s.Selective[lib][sym]
}

// LibraryName maps a templatetag module path to the name a template
// loads it by: the file's base name without extension
// ("myapp/templatetags/shop_tags.py" loads as "shop_tags").
func LibraryName(modulePath string) string {
	base := filepath.Base(modulePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
