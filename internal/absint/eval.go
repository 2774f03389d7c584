package absint

import (
	"strings"

	"github.com/djls-dev/djls/internal/pyast"
)

// Evaluator carries the context an expression evaluation needs beyond
// the immediate environment: the enclosing module (so a call to a
// module-local name can be resolved as a helper call)
// and an optional HelperResolver that performs that resolution through
// the query engine. A nil Resolver makes every helper call evaluate to
// Unknown, which is sufficient for callers that don't exercise
// inlining.
type Evaluator struct {
	Module   *pyast.Node
	Resolver HelperResolver
}

// HelperResolver resolves a call to a module-local function given its
// name and the caller's already-evaluated argument values. Implemented
// by internal/absint's resolver.go on top of internal/query so that
// identical (callee, args) pairs memoize and cycles recover to Unknown.
type HelperResolver func(ev *Evaluator, funcDef *pyast.Node, args []Value) Value

// Eval is a pattern-matching expression evaluator over the small
// abstract domain. Anything outside the modeled pattern vocabulary
// evaluates to Unknown.
func (ev *Evaluator) Eval(n *pyast.Node, env Env) Value {
	if n == nil {
		return Unknown()
	}
	switch n.Kind() {
	case pyast.KindIdentifier:
		return env.Get(n.Text())
	case pyast.KindInteger:
		if i, ok := n.IntValue(); ok {
			return Int64(i)
		}
		return Unknown()
	case pyast.KindTrue:
		return Int64(1)
	case pyast.KindFalse:
		return Int64(0)
	case pyast.KindNone:
		return Unknown()
	case pyast.KindString:
		if hasInterpolation(n) {
			return Unknown()
		}
		if s, ok := n.StringValue(); ok {
			return Str(s)
		}
		return Unknown()
	case pyast.KindParenExpr:
		if n.ChildCount() == 1 {
			return ev.Eval(n.Child(0), env)
		}
		return Unknown()
	case pyast.KindTuple:
		vals := make([]Value, 0, n.ChildCount())
		for _, c := range n.Children() {
			vals = append(vals, ev.Eval(c, env))
		}
		return TupleOf(vals...)
	case pyast.KindCall:
		return ev.evalCall(n, env)
	case pyast.KindAttribute:
		// A bare attribute access outside a call (e.g. passed as an
		// argument) has no modeled shape of its own; only the
		// call-dispatch patterns in evalCall interpret attribute
		// chains.
		return Unknown()
	case pyast.KindSubscript:
		return ev.evalSubscript(n, env)
	default:
		return Unknown()
	}
}

func hasInterpolation(n *pyast.Node) bool {
	for _, c := range n.Children() {
		if c.Kind() == pyast.KindInterpolation {
			return true
		}
	}
	return false
}

// evalCall implements the whitelist of attribute/method calls and
// builtins, plus helper-call resolution.
func (ev *Evaluator) evalCall(n *pyast.Node, env Env) Value {
	fn := n.ChildByFieldName("function")
	args := ev.evalPositionalArgs(n.ChildByFieldName("arguments"), env)

	switch fn.Kind() {
	case pyast.KindAttribute:
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return Unknown()
		}
		attrName := attr.Text()
		objVal := ev.Eval(obj, env)

		switch {
		case attrName == "split_contents" && objVal.Kind == KindToken:
			return SplitResult(0, 0)
		case attrName == "split_contents" && ev.isParserTokenAttr(obj, env):
			return SplitResult(0, 0)
		case attrName == "split" && ev.isTokenContentsAttr(obj, env):
			return ev.evalContentsSplit(args)
		case attrName == "pop" && objVal.Kind == KindSplitResult:
			// Pure-evaluation context (e.g. `bits.pop(0)` used as a
			// sub-expression): statement processing handles the
			// mutating form; here we just report the popped
			// element's shape for completeness.
			return splitPopElement(objVal, args)
		}
		return Unknown()
	case pyast.KindIdentifier:
		switch fn.Text() {
		case "len":
			if len(args) == 1 && args[0].Kind == KindSplitResult {
				return SplitLength(args[0].FrontPops, args[0].BackPops)
			}
			return Unknown()
		case "list":
			if len(args) == 1 {
				return args[0]
			}
			return Unknown()
		case "token_kwargs":
			// token_kwargs(bits, parser) mutates its first argument in
			// an unspecified way; modeled as producing Unknown and, at
			// the statement level, widening the bound variable.
			return Unknown()
		default:
			return ev.resolveHelperByName(fn.Text(), args)
		}
	default:
		return Unknown()
	}
}

func splitPopElement(sr Value, args []Value) Value {
	if len(args) == 0 {
		return SplitElement(Backward(1))
	}
	if args[0].Kind == KindInt && args[0].Int == 0 {
		return SplitElement(Forward(sr.FrontPops))
	}
	return SplitElement(Backward(1))
}

func (ev *Evaluator) isParserTokenAttr(n *pyast.Node, env Env) bool {
	if n == nil || n.Kind() != pyast.KindAttribute {
		return false
	}
	attr := n.ChildByFieldName("attribute")
	if attr == nil || attr.Text() != "token" {
		return false
	}
	base := ev.Eval(n.ChildByFieldName("object"), env)
	return base.Kind == KindParser
}

func (ev *Evaluator) isTokenContentsAttr(n *pyast.Node, env Env) bool {
	if n == nil || n.Kind() != pyast.KindAttribute {
		return false
	}
	attr := n.ChildByFieldName("attribute")
	if attr == nil || attr.Text() != "contents" {
		return false
	}
	base := ev.Eval(n.ChildByFieldName("object"), env)
	return base.Kind == KindToken
}

func (ev *Evaluator) evalContentsSplit(args []Value) Value {
	switch len(args) {
	case 0:
		return SplitResult(0, 0)
	case 2:
		if args[1].Kind == KindInt && args[1].Int == 1 {
			return TupleOf(SplitElement(Forward(0)), Unknown())
		}
		return Unknown()
	default:
		return Unknown()
	}
}

func (ev *Evaluator) evalPositionalArgs(argList *pyast.Node, env Env) []Value {
	if argList == nil {
		return nil
	}
	out := make([]Value, 0, argList.ChildCount())
	for _, c := range argList.Children() {
		if c.Kind() == pyast.KindKeywordArg {
			continue
		}
		out = append(out, ev.Eval(c, env))
	}
	return out
}

func (ev *Evaluator) resolveHelperByName(name string, args []Value) Value {
	if ev.Module == nil || ev.Resolver == nil {
		return Unknown()
	}
	funcDef := findModuleFunction(ev.Module, name)
	if funcDef == nil {
		return Unknown()
	}
	return ev.Resolver(ev, funcDef, args)
}

// findModuleFunction looks for a top-level (or class-nested) function
// definition named name. Inlining is bounded to the module; it never
// follows an import.
func findModuleFunction(module *pyast.Node, name string) *pyast.Node {
	var found *pyast.Node
	pyast.Walk(module, func(n *pyast.Node) bool {
		if found != nil {
			return false
		}
		k := n.Kind()
		if k == pyast.KindFunctionDef {
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil && nameNode.Text() == name {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func (ev *Evaluator) evalSubscript(n *pyast.Node, env Env) Value {
	base := ev.Eval(n.ChildByFieldName("value"), env)
	children := n.Children()
	if len(children) < 2 {
		return Unknown()
	}
	idx := children[1]

	if base.Kind != KindSplitResult {
		return Unknown()
	}
	if idx.Kind() == pyast.KindSlice {
		return ev.evalSliceOnSplit(base, idx, env)
	}
	if lit, neg, ok := literalIndex(idx); ok {
		if !neg {
			return SplitElement(Forward(base.FrontPops + lit))
		}
		return SplitElement(Backward(lit))
	}
	return Unknown()
}

// literalIndex recognizes an (optionally negated) integer literal
// subscript, returning the magnitude and whether it was negative.
func literalIndex(n *pyast.Node) (magnitude int, negative bool, ok bool) {
	if n.Kind() == pyast.KindInteger {
		if i, ok2 := n.IntValue(); ok2 {
			if i < 0 {
				return int(-i), true, true
			}
			return int(i), false, true
		}
	}
	if n.Kind() == pyast.KindUnaryOp && strings.TrimSpace(n.Text()) != "" {
		operand := n.ChildByFieldName("argument")
		if operand == nil && n.ChildCount() == 1 {
			operand = n.Child(0)
		}
		if operand != nil && operand.Kind() == pyast.KindInteger {
			if i, ok2 := operand.IntValue(); ok2 {
				return int(i), true, true
			}
		}
	}
	return 0, false, false
}

// evalSliceOnSplit handles [lo:], [:hi], and [:-hi] on a SplitResult.
// Tree-sitter's slice node carries no field names, so which side of the
// colon the single expression sits on is recovered from the raw text.
func (ev *Evaluator) evalSliceOnSplit(base Value, slice *pyast.Node, env Env) Value {
	children := slice.Children()
	if len(children) != 1 {
		return Unknown()
	}
	text := strings.TrimSpace(slice.Text())

	switch {
	case strings.HasSuffix(text, ":"):
		// [lo:] drops lo elements from the front.
		if lo, neg, ok := literalIndex(children[0]); ok && !neg {
			return SplitResult(base.FrontPops+lo, base.BackPops)
		}
		return Unknown()
	case strings.HasPrefix(text, ":"):
		// [:-hi] drops hi elements from the back; [:hi] with a
		// positive literal truncates by an amount the abstraction
		// cannot see, so the pops stay as they are.
		hi, neg, ok := literalIndex(children[0])
		if !ok {
			return Unknown()
		}
		if neg {
			return SplitResult(base.FrontPops, base.BackPops+hi)
		}
		return SplitResult(base.FrontPops, base.BackPops)
	default:
		return Unknown()
	}
}
