package completion

import (
	"strings"

	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/template"
)

// Hover returns markdown documentation for the tag name under the
// cursor, or "" when the cursor is not on a known, visible tag inside
// a {% ... %} marker.
func Hover(text string, offset int, db *tagdb.Database, loads []template.LoadStatement) string {
	markerStart, ok := enclosingTagMarker(text, offset)
	if !ok {
		return ""
	}
	word := wordAt(text, offset)
	if word == "" {
		return ""
	}

	state := template.StateAt(loads, uint32(markerStart))
	for _, spec := range db.LookupByName(word, true) {
		if !tagdb.IsBuiltinModule(spec.Key.Module) &&
			!state.IsSymbolAvailable(template.LibraryName(spec.Key.Module), spec.Key.Name) {
			continue
		}
		var b strings.Builder
		b.WriteString("**")
		b.WriteString(spec.Key.Name)
		b.WriteString("** \u2014 ")
		b.WriteString(detailFor(spec))
		if doc := documentFor(spec); doc != "" {
			b.WriteString("\n\n")
			b.WriteString(doc)
		}
		return b.String()
	}
	return ""
}

// wordAt returns the identifier-like token covering offset.
func wordAt(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	isWord := func(c byte) bool {
		return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	}
	start := offset
	for start > 0 && isWord(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isWord(text[end]) {
		end++
	}
	return text[start:end]
}
