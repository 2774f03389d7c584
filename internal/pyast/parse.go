// Package pyast is a thin, tagged-variant facade over tree-sitter's
// Python grammar. It exists so the rest of the pipeline
// never touches *sitter.Node directly: abstract interpretation and
// extraction walk a Node whose Kind/Text/ChildByFieldName surface is
// stable regardless of which grammar version produced the tree.
//
// Tree-sitter, rather than a pure-Go interpreter, was chosen so that
// modern syntax (match statements, walrus assignments, positional-only
// parameters) parses even though none of it is ever executed.
package pyast

import (
	"sync"

	"github.com/juju/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pyLang = sitter.NewLanguage(tree_sitter_python.Language())

var parserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		if err := p.SetLanguage(pyLang); err != nil {
			panic("pyast: failed to set python language: " + err.Error())
		}
		return p
	},
}

// Tree owns a parsed AST and the source bytes it was parsed from. The
// Node values it hands out borrow both for their lifetime; call Close
// once nothing derived from the tree is still in use.
type Tree struct {
	tree   *sitter.Tree
	source []byte
}

// Parse parses a Python source file. It never fails on syntactically
// invalid input: tree-sitter produces a best-effort tree sprinkled
// with ERROR nodes, which callers should treat the same as any other
// node whose shape didn't match what they expected (fall back to
// Unknown rather than aborting extraction for the whole file).
func Parse(source []byte) (*Tree, error) {
	p, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errors.New("pyast: parser pool returned wrong type")
	}
	defer parserPool.Put(p)
	p.Reset()

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, errors.New("pyast: tree-sitter returned no tree")
	}
	return &Tree{tree: tree, source: source}, nil
}

// Root returns the module-level node.
func (t *Tree) Root() *Node {
	return &Node{node: t.tree.RootNode(), source: t.source}
}

// Close releases the underlying tree-sitter tree. Node values derived
// from it must not be used afterward.
func (t *Tree) Close() {
	t.tree.Close()
}
