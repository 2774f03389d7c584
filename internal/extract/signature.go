package extract

import (
	"strings"

	"github.com/djls-dev/djls/internal/absint"
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// param is one entry of a Python function's parameter list, flattened
// out of the various tree-sitter parameter node shapes.
type param struct {
	name       string
	hasDefault bool
	starArgs   bool // *args
	starKwargs bool // **kwargs
}

func functionParams(funcDef *pyast.Node) []param {
	paramsNode := funcDef.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var out []param
	for _, p := range paramsNode.Children() {
		switch p.Kind() {
		case pyast.KindIdentifier:
			out = append(out, param{name: p.Text()})
		case pyast.KindDefaultParam, pyast.KindTypedDefault:
			out = append(out, param{name: childText(p, "name"), hasDefault: true})
		case pyast.KindTypedParam:
			name := childText(p, "name")
			if name == "" && p.ChildCount() > 0 {
				name = p.Child(0).Text()
			}
			out = append(out, param{name: name})
		case pyast.KindListSplatParm:
			out = append(out, param{name: splatName(p), starArgs: true})
		case pyast.KindDictSplatParm:
			out = append(out, param{name: splatName(p), starKwargs: true})
		}
	}
	return out
}

func splatName(p *pyast.Node) string {
	if p.ChildCount() > 0 {
		return p.Child(0).Text()
	}
	return strings.TrimLeft(p.Text(), "*")
}

func childText(n *pyast.Node, field string) string {
	if c := n.ChildByFieldName(field); c != nil {
		return c.Text()
	}
	return ""
}

// SignatureRule derives a TagRule directly from a simple_tag /
// inclusion_tag / simple_block_tag function's Python signature, per
// spec'd decorator semantics: the first positional parameter is the
// context when takes_context=True; for simple_block_tag the last
// positional parameter is the rendered nodelist. Remaining positional
// parameters become Variable args (required iff no default), *args
// becomes VarArgs, **kwargs becomes KeywordArgs.
func SignatureRule(funcDef *pyast.Node, kind tagdb.RegistrationKind, takesContext bool) tagdb.TagRule {
	params := functionParams(funcDef)
	if takesContext && len(params) > 0 && !params[0].starArgs && !params[0].starKwargs {
		params = params[1:]
	}
	if kind == tagdb.SimpleBlockTag {
		for i := len(params) - 1; i >= 0; i-- {
			if !params[i].starArgs && !params[i].starKwargs {
				params = append(params[:i:i], params[i+1:]...)
				break
			}
		}
	}

	rule := tagdb.TagRule{AsVar: tagdb.AsVarStrip}
	required := 0
	variadic := false
	for _, p := range params {
		switch {
		case p.starArgs:
			variadic = true
			rule.ExtractedArgs = append(rule.ExtractedArgs, tagdb.ExtractedArg{
				Name: p.name, Kind: tagdb.ArgVarArgs,
			})
		case p.starKwargs:
			variadic = true
			rule.ExtractedArgs = append(rule.ExtractedArgs, tagdb.ExtractedArg{
				Name: p.name, Kind: tagdb.ArgKeywordArgs,
			})
		default:
			pos := len(rule.ExtractedArgs) + 1
			if !p.hasDefault {
				required++
			}
			rule.ExtractedArgs = append(rule.ExtractedArgs, tagdb.ExtractedArg{
				Name:     p.name,
				Required: !p.hasDefault,
				Kind:     tagdb.ArgVariable,
				Position: absint.Forward(pos),
			})
		}
	}

	rule.ArgConstraints = append(rule.ArgConstraints,
		tagdb.ArgumentCountConstraint{Kind: tagdb.MinCount, N: required + 1})
	if !variadic {
		rule.ArgConstraints = append(rule.ArgConstraints,
			tagdb.ArgumentCountConstraint{Kind: tagdb.MaxCount, N: len(rule.ExtractedArgs) + 1})
	}
	return rule
}

// SignatureFilterArity derives a filter's arity from its def: the first
// parameter is the piped value; a second positional parameter means the
// filter takes an argument, optional iff it carries a default.
func SignatureFilterArity(funcDef *pyast.Node) tagdb.FilterArity {
	params := functionParams(funcDef)
	var positional []param
	for _, p := range params {
		if !p.starArgs && !p.starKwargs {
			positional = append(positional, p)
		}
	}
	if len(positional) < 2 {
		return tagdb.FilterArity{}
	}
	return tagdb.FilterArity{ExpectsArg: true, ArgOptional: positional[1].hasDefault}
}
