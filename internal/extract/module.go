package extract

import (
	"github.com/juju/loggo"

	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

var logger = loggo.GetLogger("djls.extract")

// AnalyzeModule runs the full extraction pipeline over one parsed
// tag-library module: scan registrations, then recover rules, block
// structure, and filter arities per symbol. Symbols whose backing
// function cannot be found in the module (imported compile functions,
// lambdas) contribute nothing; absence of a rule is not an error.
func AnalyzeModule(module *pyast.Node, modulePath string) *tagdb.ExtractionResult {
	res := tagdb.NewExtractionResult()
	if module == nil {
		return res
	}

	for _, reg := range ScanRegistrations(module) {
		funcDef := findFunction(module, reg.FunctionName)
		if funcDef == nil {
			logger.Tracef("%s: no local def for %q, skipping", modulePath, reg.SymbolName)
			continue
		}
		key := tagdb.SymbolKey{
			Module: modulePath,
			Name:   reg.SymbolName,
			IsTag:  reg.RegistrationKind != tagdb.Filter,
		}

		switch reg.RegistrationKind {
		case tagdb.Tag:
			res.TagRules[key] = ExtractTagRule(funcDef)
			if block := InferBlockSpec(funcDef); !emptyBlock(block) {
				res.BlockSpecs[key] = block
			}
		case tagdb.SimpleTag, tagdb.InclusionTag:
			res.TagRules[key] = SignatureRule(funcDef, reg.RegistrationKind, reg.TakesContext)
		case tagdb.SimpleBlockTag:
			res.TagRules[key] = SignatureRule(funcDef, reg.RegistrationKind, reg.TakesContext)
			res.BlockSpecs[key] = tagdb.BlockSpec{EndTag: "end" + reg.SymbolName}
		case tagdb.Filter:
			res.FilterArity[key] = SignatureFilterArity(funcDef)
		}
	}
	return res
}

func emptyBlock(b tagdb.BlockSpec) bool {
	return b.EndTag == "" && !b.Dynamic && !b.Opaque && len(b.Intermediates) == 0
}

// findFunction locates a function definition named name anywhere in the
// module, including inside class bodies and under decorators.
func findFunction(module *pyast.Node, name string) *pyast.Node {
	if name == "" {
		return nil
	}
	var found *pyast.Node
	pyast.Walk(module, func(n *pyast.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == pyast.KindFunctionDef {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Text() == name {
				found = n
				return false
			}
		}
		return true
	})
	return found
}
