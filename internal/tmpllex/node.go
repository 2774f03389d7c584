// Package tmpllex turns Django template source into a flat node list:
// raw text, variables ({{ ... }}), comments ({# ... #}), tags
// ({% ... %}) and error markers for constructs the tokenizer could not
// close. The validator walks this list once; nothing here is lazy.
package tmpllex

import "github.com/djls-dev/djls/internal/span"

// NodeKind discriminates the finite node sum the validator consumes.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeVariable
	NodeComment
	NodeTag
	NodeError
)

func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeVariable:
		return "variable"
	case NodeComment:
		return "comment"
	case NodeTag:
		return "tag"
	case NodeError:
		return "error"
	default:
		return "unknown"
	}
}

// FilterRef is one `|name` or `|name:arg` application on a variable
// node. Span covers the filter name only, so a filter-arity diagnostic
// points at the filter rather than the whole variable.
type FilterRef struct {
	Name   string
	HasArg bool
	Span   span.Span
}

// Node is one element of the flat node list.
//
// Span always covers the whole construct including its delimiters
// ({{ ... }}, {% ... %}, {# ... #}); for text nodes it covers the text
// itself. For tag nodes, Bits is the whitespace-split token list with
// the tag name at index 0, split the way Django's smart_split does it
// (quoted sections stay together).
type Node struct {
	Kind NodeKind
	Span span.Span

	// NodeTag
	Name string
	Bits []string

	// NodeVariable
	Expr    string
	Filters []FilterRef

	// NodeError
	Message string
}
