package extract

import (
	"strings"

	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// InferBlockSpec recovers a tag's block structure: parser.skip_past
// for opaque blocks, otherwise collect the stop-token set from every
// parser.parse((...)) call and classify each token as an intermediate
// (if the branch that reacts to it parses again) or an end-tag
// candidate.
func InferBlockSpec(funcDef *pyast.Node) tagdb.BlockSpec {
	body := bodyStatements(funcDef)
	parserVar := findParserVar(funcDef)

	if skip, ok := findSkipPast(body, parserVar); ok {
		return tagdb.BlockSpec{EndTag: skip, Opaque: true}
	}

	stopTokens, dynamic := collectStopTokens(body, parserVar)
	if len(stopTokens) == 0 {
		if dynamic {
			return tagdb.BlockSpec{Dynamic: true}
		}
		return tagdb.BlockSpec{}
	}

	intermediates, endCandidates := classifyStopTokens(body, stopTokens)

	switch {
	case dynamic:
		return tagdb.BlockSpec{Dynamic: true, Intermediates: intermediates}
	case len(endCandidates) == 1:
		return tagdb.BlockSpec{EndTag: endCandidates[0], Intermediates: intermediates}
	case len(endCandidates) > 1:
		// Fall back to lexical convention: a token starting with "end"
		// is the closer.
		var lexical []string
		for _, t := range endCandidates {
			if strings.HasPrefix(t, "end") {
				lexical = append(lexical, t)
			}
		}
		if len(lexical) == 1 {
			rest := append([]string{}, intermediates...)
			for _, t := range endCandidates {
				if t != lexical[0] {
					rest = append(rest, t)
				}
			}
			return tagdb.BlockSpec{EndTag: lexical[0], Intermediates: rest}
		}
		return tagdb.BlockSpec{Dynamic: true, Intermediates: append(intermediates, endCandidates...)}
	default:
		return tagdb.BlockSpec{Intermediates: intermediates}
	}
}

func findParserVar(funcDef *pyast.Node) string {
	params := funcDef.ChildByFieldName("parameters")
	if params == nil {
		return "parser"
	}
	for _, p := range params.Children() {
		name := p.Text()
		if p.Kind() == pyast.KindDefaultParam || p.Kind() == pyast.KindTypedParam {
			if n := p.ChildByFieldName("name"); n != nil {
				name = n.Text()
			}
		}
		if strings.Contains(strings.ToLower(name), "parser") {
			return name
		}
	}
	if params.ChildCount() > 0 {
		return params.Child(0).Text()
	}
	return "parser"
}

func findSkipPast(body []*pyast.Node, parserVar string) (string, bool) {
	var tag string
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if tag != "" || n.Kind() != pyast.KindCall {
				return tag == ""
			}
			fn := n.ChildByFieldName("function")
			if fn == nil || fn.Kind() != pyast.KindAttribute {
				return true
			}
			attr := fn.ChildByFieldName("attribute")
			obj := fn.ChildByFieldName("object")
			if attr == nil || attr.Text() != "skip_past" || obj == nil || !referencesParser(obj, parserVar) {
				return true
			}
			args := n.ChildByFieldName("arguments")
			if args != nil && args.ChildCount() > 0 {
				if s, ok := args.Child(0).StringValue(); ok {
					tag = s
				}
			}
			return false
		})
		if tag != "" {
			return tag, true
		}
	}
	return "", false
}

func referencesParser(n *pyast.Node, parserVar string) bool {
	text := n.Text()
	return text == parserVar || strings.HasSuffix(text, "."+parserVar) || strings.Contains(text, "parser")
}

// collectStopTokens gathers the union of string literals passed to
// parser.parse((...)) calls (receiver being the parser param,
// self.parser, or parser.parser). It reports dynamic=true if any
// element of the stop-token tuple is an f-string or a "%" formatted
// string rather than a plain literal.
func collectStopTokens(body []*pyast.Node, parserVar string) ([]string, bool) {
	var tokens []string
	dynamic := false
	seen := map[string]bool{}
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() != pyast.KindCall {
				return true
			}
			fn := n.ChildByFieldName("function")
			if fn == nil || fn.Kind() != pyast.KindAttribute {
				return true
			}
			attr := fn.ChildByFieldName("attribute")
			obj := fn.ChildByFieldName("object")
			if attr == nil || attr.Text() != "parse" || obj == nil || !referencesParser(obj, parserVar) {
				return true
			}
			args := n.ChildByFieldName("arguments")
			if args == nil || args.ChildCount() == 0 {
				return true
			}
			tupleArg := args.Child(0)
			if tupleArg.Kind() != pyast.KindTuple && tupleArg.Kind() != pyast.KindList {
				return true
			}
			for _, el := range tupleArg.Children() {
				if s, ok := el.StringValue(); ok {
					if hasInterpolation(el) {
						dynamic = true
						continue
					}
					if !seen[s] {
						seen[s] = true
						tokens = append(tokens, s)
					}
				} else if el.Kind() == pyast.KindBinaryOp {
					// "end%s" % name
					dynamic = true
				}
			}
			return true
		})
	}
	return tokens, dynamic
}

// classifyStopTokens walks string-literal comparisons against
// token.contents (or an equivalent captured-token variable) elsewhere
// in the body: if the triggered branch calls parser.parse again, the
// token is an intermediate; otherwise it's an end-tag candidate.
func classifyStopTokens(body []*pyast.Node, stopTokens []string) (intermediates, endCandidates []string) {
	tokenSet := map[string]bool{}
	for _, t := range stopTokens {
		tokenSet[t] = true
	}
	classified := map[string]bool{}

	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() != pyast.KindIf && n.Kind() != pyast.KindElifClaus {
				return true
			}
			cond := n.ChildByFieldName("condition")
			cons := n.ChildByFieldName("consequence")
			if cond == nil || cons == nil {
				return true
			}
			var lit string
			var found bool
			pyast.Walk(cond, func(c *pyast.Node) bool {
				if found {
					return false
				}
				if c.Kind() == pyast.KindString {
					if s, ok := c.StringValue(); ok && tokenSet[s] {
						lit, found = s, true
					}
				}
				return true
			})
			if !found || classified[lit] {
				return true
			}
			classified[lit] = true
			if callsParse(cons) {
				intermediates = append(intermediates, lit)
			} else {
				endCandidates = append(endCandidates, lit)
			}
			return true
		})
	}

	for _, t := range stopTokens {
		if !classified[t] {
			endCandidates = append(endCandidates, t)
		}
	}
	return intermediates, endCandidates
}

// hasInterpolation reports whether a string node is an f-string with
// at least one interpolated section.
func hasInterpolation(n *pyast.Node) bool {
	for _, c := range n.Children() {
		if c.Kind() == pyast.KindInterpolation {
			return true
		}
	}
	return false
}

func callsParse(n *pyast.Node) bool {
	found := false
	pyast.Walk(n, func(c *pyast.Node) bool {
		if found {
			return false
		}
		if c.Kind() == pyast.KindCall {
			if fn := c.ChildByFieldName("function"); fn != nil && fn.Kind() == pyast.KindAttribute {
				if attr := fn.ChildByFieldName("attribute"); attr != nil && attr.Text() == "parse" {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}
