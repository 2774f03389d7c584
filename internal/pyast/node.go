package pyast

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/djls-dev/djls/internal/span"
)

// Node is a tagged-variant facade: a thin reader
// over the concrete tree-sitter node that hands back a stable Kind/Text/
// field-access surface. Nothing downstream (internal/absint,
// internal/extract) ever imports tree-sitter directly.
type Node struct {
	node   *sitter.Node
	source []byte
}

// Kind returns the grammar's node type string, e.g. "function_definition",
// "if_statement", "call". internal/absint and internal/extract dispatch on
// this with plain switch statements rather than a dynamic-dispatch visitor
// interface; see the Kind* constants in kinds.go.
func (n *Node) Kind() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Kind()
}

// Text returns the exact source bytes spanned by the node.
func (n *Node) Text() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Utf8Text(n.source)
}

// Span returns the node's byte range within its source.
func (n *Node) Span() span.Span {
	if n == nil || n.node == nil {
		return span.Span{}
	}
	r := n.node.Range()
	return span.New(uint32(r.StartByte), uint32(r.EndByte))
}

// IsError reports whether tree-sitter could not make sense of this
// subtree. Callers fall back to Unknown/Opaque rather than aborting.
func (n *Node) IsError() bool {
	return n == nil || n.node == nil || n.node.IsError() || n.node.IsMissing()
}

// ChildCount returns the number of named children.
func (n *Node) ChildCount() int {
	if n == nil || n.node == nil {
		return 0
	}
	return int(n.node.NamedChildCount())
}

// Child returns the i'th named child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || n.node == nil {
		return nil
	}
	c := n.node.NamedChild(uint(i))
	if c == nil {
		return nil
	}
	return &Node{node: c, source: n.source}
}

// Children returns every named child.
func (n *Node) Children() []*Node {
	count := n.ChildCount()
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.Child(i))
	}
	return out
}

// ChildByFieldName returns the child bound to the grammar field (e.g.
// "condition", "consequence", "alternative", "body", "left", "right"),
// or nil if the field is absent on this node.
func (n *Node) ChildByFieldName(name string) *Node {
	if n == nil || n.node == nil {
		return nil
	}
	c := n.node.ChildByFieldName(name)
	if c == nil {
		return nil
	}
	return &Node{node: c, source: n.source}
}

// ChildrenByFieldName returns every child bound to the named field (some
// fields, like "alternative" on an if_statement with elif chains, or
// decorators on a decorated_definition, repeat).
func (n *Node) ChildrenByFieldName(name string) []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	cur := n.node.Walk()
	defer cur.Close()
	nodes := n.node.ChildrenByFieldName(name, cur)
	out := make([]*Node, 0, len(nodes))
	for i := range nodes {
		nd := nodes[i]
		out = append(out, &Node{node: &nd, source: n.source})
	}
	return out
}

// StringValue unquotes a Python string-literal node's text, stripping
// the surrounding quotes and any prefix (f/r/b/u). It does not process
// escape sequences beyond what's needed to compare against a literal:
// the extractor only ever compares recovered strings against other
// literal strings drawn the same way, so escape fidelity beyond quote
// stripping does not matter.
func (n *Node) StringValue() (string, bool) {
	if n == nil || n.Kind() != KindString {
		return "", false
	}
	// tree-sitter-python wraps the quoted body in a "string_content"
	// named child; prefer that when present, otherwise strip quotes by
	// hand from the raw text (handles simple cases and f-strings with
	// no interpolation).
	for _, c := range n.Children() {
		if c.Kind() == "string_content" {
			return c.Text(), true
		}
	}
	text := n.Text()
	text = strings.TrimLeft(text, "fFrRbBuU")
	for _, q := range []string{`"""`, "'''", `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)], true
		}
	}
	return "", false
}

// IntValue parses an integer-literal node.
func (n *Node) IntValue() (int64, bool) {
	if n == nil || n.Kind() != KindInteger {
		return 0, false
	}
	var v int64
	var neg bool
	text := n.Text()
	for i, r := range text {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int64(r-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

// TextBetween returns the raw source text between the end of the i'th
// named child and the start of the j'th named child (use i = -1 for
// "from the node's own start" and j = ChildCount() for "to the node's
// own end"). It's how the extractor recovers an infix operator
// (`==`, `in`, `not in`, `and`, ...) that tree-sitter represents as an
// anonymous token rather than a named child.
func (n *Node) TextBetween(i, j int) string {
	if n == nil || n.node == nil {
		return ""
	}
	start := n.node.StartByte()
	if i >= 0 {
		if c := n.node.NamedChild(uint(i)); c != nil {
			start = c.Range().EndByte
		}
	}
	end := n.node.EndByte()
	if j < n.ChildCount() {
		if c := n.node.NamedChild(uint(j)); c != nil {
			end = c.Range().StartByte
		}
	}
	if start > end || int(end) > len(n.source) {
		return ""
	}
	return strings.TrimSpace(string(n.source[start:end]))
}

// Walk visits n and every descendant in pre-order, calling visit for
// each. This is the "small visitor for the two places that walk the
// whole module" the design notes call for: the registration scanner and
// the helper-return collector both use Walk instead of bespoke
// recursion.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}
