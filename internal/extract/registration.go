// Package extract implements the static extraction pipeline: recognizing @register.* decorators and register.*(...)
// call-statements, recovering TagRule/BlockSpec/FilterArity facts by
// pattern-matching compile-function bodies, and bounding inter-
// procedural inlining of module-local helpers.
package extract

import (
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// registrationDecoratorKinds enumerates the only decorator method names
// the scanner recognizes; nothing outside this list is recognized.
var registrationDecoratorKinds = map[string]tagdb.RegistrationKind{
	"tag":              tagdb.Tag,
	"simple_tag":       tagdb.SimpleTag,
	"inclusion_tag":    tagdb.InclusionTag,
	"simple_block_tag": tagdb.SimpleBlockTag,
	"filter":           tagdb.Filter,
}

// ScanRegistrations walks a parsed Python module and returns every
// @register.* decorator and register.*(...) call-statement it finds, in
// source order. The scanner recurses into class
// bodies so registrations attributed to class-based views are found
// too.
func ScanRegistrations(module *pyast.Node) []tagdb.RegistrationInfo {
	var out []tagdb.RegistrationInfo
	pyast.Walk(module, func(n *pyast.Node) bool {
		switch n.Kind() {
		case pyast.KindDecorated:
			if info, ok := scanDecorated(n); ok {
				out = append(out, info)
			}
		case pyast.KindExprStmt:
			if n.ChildCount() > 0 {
				if info, ok := scanCallStatement(n.Child(0)); ok {
					out = append(out, info)
				}
			}
		}
		return true
	})
	return out
}

func scanDecorated(decorated *pyast.Node) (tagdb.RegistrationInfo, bool) {
	def := decorated.ChildByFieldName("definition")
	if def == nil || def.Kind() != pyast.KindFunctionDef {
		return tagdb.RegistrationInfo{}, false
	}
	funcName := fieldText(def, "name")

	// Decorators are plain leading children of the decorated_definition
	// node, not a named field.
	for _, dec := range decorated.Children() {
		if dec.Kind() != pyast.KindDecorator {
			continue
		}
		expr := dec
		if expr.ChildCount() > 0 {
			expr = dec.Child(0)
		}

		var attr *pyast.Node
		var callArgs *pyast.Node
		switch expr.Kind() {
		case pyast.KindAttribute:
			attr = expr
		case pyast.KindCall:
			if fn := expr.ChildByFieldName("function"); fn != nil && fn.Kind() == pyast.KindAttribute {
				attr = fn
				callArgs = expr.ChildByFieldName("arguments")
			}
		}
		if attr == nil {
			continue
		}
		obj := attr.ChildByFieldName("object")
		method := fieldText(attr, "attribute")
		if obj == nil || obj.Text() != "register" {
			continue
		}
		kind, ok := registrationDecoratorKinds[method]
		if !ok {
			continue
		}
		name := resolveDecoratorName(callArgs, funcName)
		return tagdb.RegistrationInfo{
			SymbolName:       name,
			FunctionName:     funcName,
			RegistrationKind: kind,
			TakesContext:     hasTakesContext(callArgs),
		}, true
	}
	return tagdb.RegistrationInfo{}, false
}

func resolveDecoratorName(callArgs *pyast.Node, fallback string) string {
	if callArgs == nil {
		return fallback
	}
	for _, a := range callArgs.Children() {
		if a.Kind() == pyast.KindKeywordArg && fieldText(a, "name") == "name" {
			if v := a.ChildByFieldName("value"); v != nil {
				if s, ok := v.StringValue(); ok {
					return s
				}
			}
		}
	}
	return fallback
}

func hasTakesContext(callArgs *pyast.Node) bool {
	if callArgs == nil {
		return false
	}
	for _, a := range callArgs.Children() {
		if a.Kind() == pyast.KindKeywordArg && fieldText(a, "name") == "takes_context" {
			if v := a.ChildByFieldName("value"); v != nil && v.Kind() == pyast.KindTrue {
				return true
			}
		}
	}
	return false
}

// scanCallStatement recognizes `register.tag("name", func)` /
// `register.filter(...)` top-level call statements (as opposed to
// decorators).
func scanCallStatement(call *pyast.Node) (tagdb.RegistrationInfo, bool) {
	if call.Kind() != pyast.KindCall {
		return tagdb.RegistrationInfo{}, false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != pyast.KindAttribute {
		return tagdb.RegistrationInfo{}, false
	}
	obj := fn.ChildByFieldName("object")
	method := fieldText(fn, "attribute")
	if obj == nil || obj.Text() != "register" {
		return tagdb.RegistrationInfo{}, false
	}
	kind, ok := registrationDecoratorKinds[method]
	if !ok {
		return tagdb.RegistrationInfo{}, false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return tagdb.RegistrationInfo{}, false
	}

	var firstString string
	var haveFirstString bool
	var funcName string
	var explicitName string
	for _, a := range args.Children() {
		if a.Kind() == pyast.KindKeywordArg {
			if fieldText(a, "name") == "name" {
				if v := a.ChildByFieldName("value"); v != nil {
					if s, ok := v.StringValue(); ok {
						explicitName = s
					}
				}
			}
			continue
		}
		if a.Kind() == pyast.KindString && !haveFirstString {
			if s, ok := a.StringValue(); ok {
				firstString = s
				haveFirstString = true
			}
			continue
		}
		if a.Kind() == pyast.KindIdentifier && funcName == "" {
			funcName = a.Text()
		}
	}

	name := funcName
	if haveFirstString {
		name = firstString
	}
	if explicitName != "" {
		name = explicitName
	}
	if name == "" {
		return tagdb.RegistrationInfo{}, false
	}
	return tagdb.RegistrationInfo{SymbolName: name, FunctionName: funcName, RegistrationKind: kind}, true
}

func fieldText(n *pyast.Node, field string) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return c.Text()
}
