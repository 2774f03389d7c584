package absint

import (
	"strings"

	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/query"
)

// helperCallArgs is the Query argument for analyzeHelper: a module-local
// function name together with the caller's already-evaluated argument
// values. File is part of the key so identically-named helpers in
// different modules never collide in the memo table.
type helperCallArgs struct {
	File     string
	Name     string
	Args     []Value
	FuncDef  *pyast.Node
	Module   *pyast.Node
	Resolver HelperResolver
}

func helperCallKey(a helperCallArgs) string {
	var b strings.Builder
	b.WriteString(a.File)
	b.WriteByte('|')
	b.WriteString(a.Name)
	for _, v := range a.Args {
		b.WriteByte('|')
		b.WriteString(v.String())
	}
	return b.String()
}

// AnalyzeHelperQuery memoizes the analysis of one helper call: the
// engine keys on (file, name, args digest) so identical calls share
// work, and cycles recover to Unknown via the bottom value passed to
// query.New rather than diverging on a call chain that recurses into
// itself.
var AnalyzeHelperQuery = query.New[helperCallArgs, Value]("analyze_helper", helperCallKey, Unknown(), runHelperAnalysis)

func runHelperAnalysis(ctx *query.Ctx, a helperCallArgs) Value {
	// The analysis reads nothing through the VFS itself, but its result
	// is derived from the module's current parse; record the file
	// dependency so an edit invalidates the memoized value.
	ctx.ReadFile(a.File)

	params := functionParamNames(a.FuncDef)
	env := make(Env, len(params))
	for i, p := range params {
		if i < len(a.Args) {
			env[p] = a.Args[i]
		} else {
			env[p] = Unknown()
		}
	}

	inner := &Evaluator{Module: a.Module, Resolver: a.Resolver}
	var returns []Value
	if body := blockOf(a.FuncDef); body != nil {
		inner.ProcessBody(body.Children(), env, &returns)
	}
	return reduceReturns(returns)
}

// reduceReturns folds a helper's collected return values: equal across
// the board wins outright; otherwise a single non-Unknown value that
// dominates (every other return is Unknown) wins; anything else
// collapses to Unknown.
func reduceReturns(returns []Value) Value {
	if len(returns) == 0 {
		return Unknown()
	}
	allEqual := true
	for _, r := range returns[1:] {
		if !r.Equal(returns[0]) {
			allEqual = false
			break
		}
	}
	if allEqual {
		return returns[0]
	}

	var dominant *Value
	for i := range returns {
		if returns[i].IsUnknown() {
			continue
		}
		if dominant != nil && !dominant.Equal(returns[i]) {
			return Unknown()
		}
		v := returns[i]
		dominant = &v
	}
	if dominant != nil {
		return *dominant
	}
	return Unknown()
}

// NewQueryResolver builds a HelperResolver backed by engine. The
// returned resolver closes over itself so that a helper calling another
// helper keeps going through the same memoized query.
func NewQueryResolver(engine *query.Engine, file string) HelperResolver {
	var resolver HelperResolver
	resolver = func(ev *Evaluator, funcDef *pyast.Node, args []Value) Value {
		return query.Run(engine, AnalyzeHelperQuery, helperCallArgs{
			File:     file,
			Name:     functionName(funcDef),
			Args:     args,
			FuncDef:  funcDef,
			Module:   ev.Module,
			Resolver: resolver,
		})
	}
	return resolver
}

func functionName(funcDef *pyast.Node) string {
	if funcDef == nil {
		return ""
	}
	if n := funcDef.ChildByFieldName("name"); n != nil {
		return n.Text()
	}
	return ""
}

// functionParamNames returns the positional parameter names of a
// function_definition in declaration order, skipping *args/**kwargs
// markers (helper inlining here only binds plain positional
// parameters; the simple_tag/inclusion_tag signature mapping in
// internal/extract handles *args/**kwargs explicitly for registration
// purposes).
func functionParamNames(funcDef *pyast.Node) []string {
	if funcDef == nil {
		return nil
	}
	params := funcDef.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	names := make([]string, 0, params.ChildCount())
	for _, p := range params.Children() {
		switch p.Kind() {
		case pyast.KindIdentifier:
			names = append(names, p.Text())
		case pyast.KindDefaultParam, pyast.KindTypedParam, pyast.KindTypedDefault:
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				names = append(names, nameNode.Text())
			} else if p.ChildCount() > 0 {
				// typed_parameter names no field; the identifier is the
				// first child.
				names = append(names, p.Child(0).Text())
			}
		}
	}
	return names
}
