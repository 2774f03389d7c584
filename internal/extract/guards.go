package extract

import (
	"strings"

	"github.com/djls-dev/djls/internal/absint"
	"github.com/djls-dev/djls/internal/pyast"
)

// guardKind discriminates the recognized guard-condition shapes
// before they're folded into tagdb.ArgumentCountConstraint
// / tagdb.RequiredKeyword / tagdb.ChoiceAt.
type guardKind int

const (
	gExactArgCount guardKind = iota
	gMinArgCount
	gMaxArgCount
	gLiteralAt
	gChoiceAt
	gContainsLiteral
	gOpaque
)

type guardConstraint struct {
	kind     guardKind
	n        int
	position absint.SplitPosition
	literal  string
	values   []string
	negated  bool
	message  string
}

// CollectGuards walks every if/elif condition in body whose branch
// raises (anywhere below) and derives a guardConstraint from it.
// splitVar is the local variable bound to
// token.split_contents() (or an empty string if none was found, in
// which case every len()/subscript comparison against it will simply
// fail to match and contribute nothing).
func CollectGuards(body []*pyast.Node, splitVar string) []guardConstraint {
	var out []guardConstraint
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() == pyast.KindIf || n.Kind() == pyast.KindElifClaus {
				if cons := n.ChildByFieldName("consequence"); cons != nil && blockRaises(cons) {
					if cond := n.ChildByFieldName("condition"); cond != nil {
						if c, ok := condToConstraint(cond, splitVar); ok {
							c.message = raiseMessage(cons)
							out = append(out, c)
						}
					}
				}
			}
			return true
		})
	}
	return out
}

// blockRaises reports whether a raise statement appears anywhere within
// block, including inside nested ifs.
func blockRaises(block *pyast.Node) bool {
	found := false
	pyast.Walk(block, func(n *pyast.Node) bool {
		if n.Kind() == pyast.KindRaise {
			found = true
			return false
		}
		return true
	})
	return found
}

// raiseMessage recovers the string literal passed to the raise's
// exception constructor, when there is exactly one obvious candidate.
// f-strings and %-formatted messages come back with their static text
// only if the whole literal is static; otherwise empty.
func raiseMessage(block *pyast.Node) string {
	var msg string
	pyast.Walk(block, func(n *pyast.Node) bool {
		if msg != "" {
			return false
		}
		if n.Kind() != pyast.KindRaise {
			return true
		}
		pyast.Walk(n, func(c *pyast.Node) bool {
			if msg != "" {
				return false
			}
			if c.Kind() == pyast.KindString {
				if s, ok := c.StringValue(); ok {
					msg = s
					return false
				}
			}
			return true
		})
		return false
	})
	return msg
}

func condToConstraint(cond *pyast.Node, splitVar string) (guardConstraint, bool) {
	switch cond.Kind() {
	case pyast.KindParenExpr:
		if cond.ChildCount() == 1 {
			return condToConstraint(cond.Child(0), splitVar)
		}
	case pyast.KindNotOperator:
		if cond.ChildCount() == 1 {
			inner, ok := condToConstraint(cond.Child(0), splitVar)
			if !ok {
				return guardConstraint{}, false
			}
			inner.negated = !inner.negated
			return inner, true
		}
	case pyast.KindComparison:
		return compareToConstraint(cond, splitVar)
	}
	return guardConstraint{kind: gOpaque}, true
}

// compareToConstraint handles len(bits) OP n, bits[i] OP "literal",
// bits[i] in/not in (...), and "s" in/not in bits. Comparisons with the
// literal on the left (3 < len(bits)) are flipped first.
func compareToConstraint(cmp *pyast.Node, splitVar string) (guardConstraint, bool) {
	if cmp.ChildCount() < 2 {
		return guardConstraint{}, false
	}
	left := cmp.Child(0)
	right := cmp.Child(1)
	op := cmp.TextBetween(0, 1)

	// Flip literal-on-the-left comparisons: `3 < len(bits)` becomes
	// `len(bits) > 3`.
	if isIntLit(left) && isLenCall(right, splitVar) {
		left, right = right, left
		op = flipComparison(op)
	}

	if isLenCall(left, splitVar) {
		n, ok := intLitValue(right)
		if !ok {
			return guardConstraint{kind: gOpaque}, true
		}
		// These constraints encode the VALID range directly (i.e. the
		// guard's raise condition already inverted), not the raw
		// comparison: `len(bits) < n: raise` means the tag needs at
		// least n words, so it yields MinArgCount(n) rather than a
		// literal restatement of "< n".
		switch op {
		case "==":
			return guardConstraint{kind: gExactArgCount, n: n}, true
		case "!=":
			return guardConstraint{kind: gExactArgCount, n: n, negated: true}, true
		case "<":
			return guardConstraint{kind: gMinArgCount, n: n}, true
		case "<=":
			return guardConstraint{kind: gMinArgCount, n: n + 1}, true
		case ">":
			return guardConstraint{kind: gMaxArgCount, n: n}, true
		case ">=":
			return guardConstraint{kind: gMaxArgCount, n: n - 1}, true
		}
		return guardConstraint{kind: gOpaque}, true
	}

	if pos, ok := subscriptPosition(left, splitVar); ok {
		switch op {
		case "==":
			if s, ok := stringLitValue(right); ok {
				return guardConstraint{kind: gLiteralAt, position: pos, literal: s}, true
			}
		case "!=":
			if s, ok := stringLitValue(right); ok {
				return guardConstraint{kind: gLiteralAt, position: pos, literal: s, negated: true}, true
			}
		case "in":
			if vs, ok := stringTupleValues(right); ok {
				return guardConstraint{kind: gChoiceAt, position: pos, values: vs}, true
			}
		case "not in":
			if vs, ok := stringTupleValues(right); ok {
				return guardConstraint{kind: gChoiceAt, position: pos, values: vs, negated: true}, true
			}
		}
		return guardConstraint{kind: gOpaque}, true
	}

	// "s" in bits / "s" not in bits
	if left.Kind() == pyast.KindString && right.Text() == splitVar && splitVar != "" {
		if s, ok := stringLitValue(left); ok {
			switch op {
			case "in":
				return guardConstraint{kind: gContainsLiteral, literal: s}, true
			case "not in":
				return guardConstraint{kind: gContainsLiteral, literal: s, negated: true}, true
			}
		}
	}

	return guardConstraint{kind: gOpaque}, true
}

func flipComparison(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}

func isIntLit(n *pyast.Node) bool {
	_, ok := intLitValue(n)
	return ok
}

func intLitValue(n *pyast.Node) (int, bool) {
	if n.Kind() == pyast.KindInteger {
		if v, ok := n.IntValue(); ok {
			return int(v), true
		}
	}
	return 0, false
}

func stringLitValue(n *pyast.Node) (string, bool) {
	return n.StringValue()
}

func stringTupleValues(n *pyast.Node) ([]string, bool) {
	if n.Kind() != pyast.KindTuple && n.Kind() != pyast.KindList {
		return nil, false
	}
	var out []string
	for _, c := range n.Children() {
		s, ok := c.StringValue()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func isLenCall(n *pyast.Node, splitVar string) bool {
	if n.Kind() != pyast.KindCall || splitVar == "" {
		return false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != pyast.KindIdentifier || fn.Text() != "len" {
		return false
	}
	args := n.ChildByFieldName("arguments")
	return args != nil && args.ChildCount() == 1 && args.Child(0).Text() == splitVar
}

// subscriptPosition recognizes `bits[i]` and returns the SplitPosition
// it addresses: Forward(i) for i >= 0, Backward(-i) for i < 0.
func subscriptPosition(n *pyast.Node, splitVar string) (absint.SplitPosition, bool) {
	if n.Kind() != pyast.KindSubscript || splitVar == "" {
		return absint.SplitPosition{}, false
	}
	value := n.ChildByFieldName("value")
	if value == nil || value.Text() != splitVar {
		return absint.SplitPosition{}, false
	}
	children := n.Children()
	if len(children) < 2 {
		return absint.SplitPosition{}, false
	}
	idx := children[1]
	if i, ok := intLitValue(idx); ok {
		if i >= 0 {
			return absint.Forward(i), true
		}
		return absint.Backward(-i), true
	}
	// -n written as a unary_operator node
	if idx.Kind() == "unary_operator" && strings.TrimSpace(idx.Text()) != "" {
		inner := idx.Child(0)
		if inner != nil {
			if i, ok := intLitValue(inner); ok {
				return absint.Backward(i), true
			}
		}
	}
	return absint.SplitPosition{}, false
}
