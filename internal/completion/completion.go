// Package completion builds tag-name completion items for a cursor
// position inside a {% ... %} marker, presenting each visible symbol
// with documentation derived from its extracted rule.
package completion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/template"
)

// Item is one completion candidate; the LSP layer presents every item
// with the keyword kind. InsertText carries whatever closing-brace
// suffix the context still needs.
type Item struct {
	Label         string
	Detail        string
	Documentation string
	InsertText    string
}

// closingState describes how much of the marker's closer is already
// typed to the right of the cursor.
type closingState int

const (
	closerMissing closingState = iota
	closerPartial              // a lone '%' is typed
	closerFull                 // '%}' is typed
)

// Completions returns the items for a cursor at byte offset in text.
// It returns nil when the cursor is not inside a {% ... %} marker.
func Completions(text string, offset int, db *tagdb.Database, loads []template.LoadStatement) []Item {
	markerStart, ok := enclosingTagMarker(text, offset)
	if !ok {
		return nil
	}
	closing := closerStateAfter(text, offset)
	state := template.StateAt(loads, uint32(markerStart))

	var items []Item
	for _, spec := range visibleTags(db, state) {
		items = append(items, buildItem(spec, closing))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// enclosingTagMarker scans left from offset for an unclosed '{%'.
func enclosingTagMarker(text string, offset int) (int, bool) {
	if offset > len(text) {
		offset = len(text)
	}
	for i := offset - 2; i >= 0; i-- {
		two := text[i:min(i+2, len(text))]
		switch two {
		case "%}", "}}", "{{", "{#":
			return 0, false
		case "{%":
			return i, true
		}
	}
	return 0, false
}

// closerStateAfter inspects the text to the right of the cursor on the
// same marker for an already-typed closer.
func closerStateAfter(text string, offset int) closingState {
	rest := text[min(offset, len(text)):]
	rest = strings.TrimLeft(rest, " \t")
	switch {
	case strings.HasPrefix(rest, "%}"):
		return closerFull
	case strings.HasPrefix(rest, "%"):
		return closerPartial
	default:
		return closerMissing
	}
}

func visibleTags(db *tagdb.Database, state *template.LoadState) []*tagdb.TagSpec {
	var out []*tagdb.TagSpec
	for _, spec := range db.AllSpecs() {
		if !spec.Key.IsTag {
			continue
		}
		if tagdb.IsBuiltinModule(spec.Key.Module) ||
			state.IsSymbolAvailable(template.LibraryName(spec.Key.Module), spec.Key.Name) {
			out = append(out, spec)
		}
	}
	return out
}

func buildItem(spec *tagdb.TagSpec, closing closingState) Item {
	item := Item{
		Label:  spec.Key.Name,
		Detail: detailFor(spec),
	}
	if doc := documentFor(spec); doc != "" {
		item.Documentation = doc
	}
	switch closing {
	case closerFull:
		item.InsertText = spec.Key.Name
	case closerPartial:
		item.InsertText = spec.Key.Name + " "
	default:
		item.InsertText = spec.Key.Name + " %}"
	}
	return item
}

func detailFor(spec *tagdb.TagSpec) string {
	if tagdb.IsBuiltinModule(spec.Key.Module) {
		return "built-in tag"
	}
	return fmt.Sprintf("tag from %s", template.LibraryName(spec.Key.Module))
}

// documentFor renders a short markdown signature from the extracted
// arguments, e.g. `{% for loopvar in seq %}`.
func documentFor(spec *tagdb.TagSpec) string {
	if spec.Rule == nil || len(spec.Rule.ExtractedArgs) == 0 {
		return ""
	}
	parts := []string{spec.Key.Name}
	for _, arg := range spec.Rule.ExtractedArgs {
		switch arg.Kind {
		case tagdb.ArgLiteral:
			parts = append(parts, arg.Literal)
		case tagdb.ArgChoice:
			parts = append(parts, strings.Join(arg.Choices, "|"))
		case tagdb.ArgVarArgs:
			parts = append(parts, "...")
		case tagdb.ArgKeywordArgs:
			parts = append(parts, "key=value...")
		default:
			name := arg.Name
			if name == "" {
				name = "arg"
			}
			if arg.Required {
				parts = append(parts, name)
			} else {
				parts = append(parts, "["+name+"]")
			}
		}
	}
	return fmt.Sprintf("```\n{%% %s %%}\n```", strings.Join(parts, " "))
}
