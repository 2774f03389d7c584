package absint

import "github.com/djls-dev/djls/internal/pyast"

// ProcessBody is the statement processor: a
// single sequential pass over a list of statements that mutates env in
// place. This is a may-analysis, not a must-analysis: branches are
// walked sequentially and the later-walked branch's assignment to a
// given variable wins; there is no flow-sensitive join.
func (ev *Evaluator) ProcessBody(stmts []*pyast.Node, env Env, returns *[]Value) {
	for _, stmt := range stmts {
		ev.processStmt(stmt, env, returns)
	}
}

func (ev *Evaluator) processStmt(stmt *pyast.Node, env Env, returns *[]Value) {
	if stmt == nil {
		return
	}
	switch stmt.Kind() {
	case pyast.KindExprStmt:
		// tree-sitter-python wraps assignments in an expression_statement.
		if stmt.ChildCount() > 0 {
			switch inner := stmt.Child(0); inner.Kind() {
			case pyast.KindAssign:
				ev.processAssign(inner, env)
			case pyast.KindAugAssign:
				Unpack(inner.ChildByFieldName("left"), Unknown(), env)
			default:
				ev.processExprEffect(inner, env)
			}
		}
	case pyast.KindAssign:
		ev.processAssign(stmt, env)
	case pyast.KindAugAssign:
		Unpack(stmt.ChildByFieldName("left"), Unknown(), env)
	case pyast.KindIf:
		ev.processIf(stmt, env, returns)
	case pyast.KindFor:
		ev.processLoop(stmt, env, returns, true)
	case pyast.KindWhile:
		ev.processLoop(stmt, env, returns, false)
	case pyast.KindTry:
		ev.processTry(stmt, env, returns)
	case pyast.KindWith:
		if body := blockOf(stmt); body != nil {
			ev.ProcessBody(body.Children(), env, returns)
		}
	case pyast.KindMatch:
		ev.processMatch(stmt, env, returns)
	case pyast.KindReturn:
		if stmt.ChildCount() > 0 {
			*returns = append(*returns, ev.Eval(stmt.Child(0), env))
		} else {
			*returns = append(*returns, Unknown())
		}
	default:
		// pass/break/continue/raise/global/nested def: no environment
		// effect tracked by this lattice.
	}
}

// processExprEffect models the tracked in-place mutations: bits.pop(0)/pop()/pop(-1) advance the SplitResult's
// pop counters, and token_kwargs(bits, parser) widens its first
// argument to Unknown since it mutates in an unspecified way.
func (ev *Evaluator) processExprEffect(call *pyast.Node, env Env) {
	if call == nil || call.Kind() != pyast.KindCall {
		return
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}

	if fn.Kind() == pyast.KindAttribute {
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj == nil || attr == nil || attr.Text() != "pop" || obj.Kind() != pyast.KindIdentifier {
			return
		}
		cur := env.Get(obj.Text())
		if cur.Kind != KindSplitResult {
			return
		}
		args := ev.evalPositionalArgs(call.ChildByFieldName("arguments"), env)
		switch {
		case len(args) == 0:
			env.Set(obj.Text(), SplitResult(cur.FrontPops, cur.BackPops+1))
		case len(args) == 1 && args[0].Kind == KindInt && args[0].Int == 0:
			env.Set(obj.Text(), SplitResult(cur.FrontPops+1, cur.BackPops))
		case len(args) == 1 && args[0].Kind == KindInt && args[0].Int < 0:
			env.Set(obj.Text(), SplitResult(cur.FrontPops, cur.BackPops+1))
		default:
			env.Set(obj.Text(), Unknown())
		}
		return
	}

	if fn.Kind() == pyast.KindIdentifier && fn.Text() == "token_kwargs" {
		argList := call.ChildByFieldName("arguments")
		if argList != nil && argList.ChildCount() > 0 {
			if first := argList.Child(0); first.Kind() == pyast.KindIdentifier {
				env.Set(first.Text(), Unknown())
			}
		}
	}
}

func (ev *Evaluator) processAssign(stmt *pyast.Node, env Env) {
	target := stmt.ChildByFieldName("left")
	rhs := stmt.ChildByFieldName("right")
	Unpack(target, ev.Eval(rhs, env), env)
}

// processIf walks the consequence and then every alternative clause
// into the same env, sequentially, per the may-analysis policy. The
// grammar hangs all elif and else clauses directly off the if
// statement as repeated "alternative" fields.
func (ev *Evaluator) processIf(stmt *pyast.Node, env Env, returns *[]Value) {
	if body := blockOf(stmt); body != nil {
		ev.ProcessBody(body.Children(), env, returns)
	}
	for _, alt := range stmt.ChildrenByFieldName("alternative") {
		if body := blockOf(alt); body != nil {
			ev.ProcessBody(body.Children(), env, returns)
		}
	}
}

func (ev *Evaluator) processTry(stmt *pyast.Node, env Env, returns *[]Value) {
	if body := blockOf(stmt); body != nil {
		ev.ProcessBody(body.Children(), env, returns)
	}
	for _, c := range stmt.Children() {
		switch c.Kind() {
		case pyast.KindExcept, pyast.KindElseClaus, pyast.KindFinally:
			if body := blockOf(c); body != nil {
				ev.ProcessBody(body.Children(), env, returns)
			}
		}
	}
}

func (ev *Evaluator) processMatch(stmt *pyast.Node, env Env, returns *[]Value) {
	body := blockOf(stmt)
	if body == nil {
		return
	}
	for _, c := range body.Children() {
		if c.Kind() != pyast.KindCase {
			continue
		}
		if caseBody := blockOf(c); caseBody != nil {
			ev.ProcessBody(caseBody.Children(), env, returns)
		}
	}
}

// processLoop walks a for/while body once (no fixpoint iteration), and
// then widens every name assigned anywhere within the body (plus, for
// a for-loop, the loop variable itself) to Unknown in the post-loop
// environment, regardless of what the single walked pass computed for
// it. A loop variable and any list built inside a loop are not
// data-flow-determined after one pass, so tracking them would be
// unsound.
func (ev *Evaluator) processLoop(stmt *pyast.Node, env Env, returns *[]Value, isFor bool) {
	body := blockOf(stmt)
	widened := map[string]bool{}
	if body != nil {
		collectAssignedNames(body, widened)
	}
	if isFor {
		collectTargetNames(stmt.ChildByFieldName("left"), widened)
	}

	if body != nil {
		ev.ProcessBody(body.Children(), env, returns)
	}
	if alt := stmt.ChildByFieldName("alternative"); alt != nil {
		if altBody := blockOf(alt); altBody != nil {
			ev.ProcessBody(altBody.Children(), env, returns)
		}
	}

	for name := range widened {
		env.Set(name, Unknown())
	}
}

// blockOf returns the statement's "body"/"consequence" block, trying
// the field names used by the different tree-sitter-python statement
// grammars that reach this helper. Clauses whose grammar names no
// field at all (except_clause, finally_clause) fall back to the first
// block-kind child.
func blockOf(stmt *pyast.Node) *pyast.Node {
	if b := stmt.ChildByFieldName("body"); b != nil {
		return b
	}
	if b := stmt.ChildByFieldName("consequence"); b != nil {
		return b
	}
	for _, c := range stmt.Children() {
		if c.Kind() == pyast.KindBlock {
			return c
		}
	}
	return nil
}

// collectAssignedNames walks a subtree gathering every name that is the
// target of an Assign, AugAssign, or for-loop binding within it.
func collectAssignedNames(n *pyast.Node, out map[string]bool) {
	pyast.Walk(n, func(node *pyast.Node) bool {
		switch node.Kind() {
		case pyast.KindAssign, pyast.KindAugAssign:
			collectTargetNames(node.ChildByFieldName("left"), out)
		case pyast.KindFor:
			collectTargetNames(node.ChildByFieldName("left"), out)
		}
		return true
	})
}

func collectTargetNames(target *pyast.Node, out map[string]bool) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case pyast.KindIdentifier:
		out[target.Text()] = true
	case pyast.KindTuple, kindPatternList:
		for _, c := range target.Children() {
			collectTargetNames(c, out)
		}
	case kindListSplatPattern:
		if target.ChildCount() > 0 {
			collectTargetNames(target.Child(0), out)
		}
	}
}
