package extract

import (
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// recognizeOptionLoop recognizes a trailing-option parse loop:
// a `while remaining_bits:` whose body dispatches on a fixed set of
// string literals and appends to local state. rejects_unknown is true
// when the chain's final else branch raises.
func recognizeOptionLoop(body []*pyast.Node) *tagdb.KnownOptions {
	var result *tagdb.KnownOptions
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if result != nil {
				return false
			}
			if n.Kind() != pyast.KindWhile {
				return true
			}
			loopBody := blockOf(n)
			if loopBody == nil {
				return true
			}
			var ifNode *pyast.Node
			for _, c := range loopBody.Children() {
				if c.Kind() == pyast.KindIf {
					ifNode = c
					break
				}
			}
			if ifNode == nil {
				return true
			}
			values, rejectsUnknown, allowDuplicates := analyzeOptionChain(ifNode)
			if len(values) > 0 {
				result = &tagdb.KnownOptions{Values: values, AllowDuplicates: allowDuplicates, RejectsUnknown: rejectsUnknown}
				return false
			}
			return true
		})
		if result != nil {
			break
		}
	}
	return result
}

func analyzeOptionChain(n *pyast.Node) (values []string, rejectsUnknown, allowDuplicates bool) {
	allowDuplicates = true
	clauses := append([]*pyast.Node{n}, n.ChildrenByFieldName("alternative")...)
	for _, clause := range clauses {
		switch clause.Kind() {
		case pyast.KindIf, pyast.KindElifClaus:
			if cond := clause.ChildByFieldName("condition"); cond != nil {
				collectLiteralStrings(cond, &values)
				if conditionGuardsDuplicate(cond) && consequenceRaises(clause) {
					allowDuplicates = false
				}
			}
		case pyast.KindElseClaus:
			if blockRaises(clause) {
				rejectsUnknown = true
			}
		}
	}
	return values, rejectsUnknown, allowDuplicates
}

func consequenceRaises(ifLike *pyast.Node) bool {
	cons := ifLike.ChildByFieldName("consequence")
	return cons != nil && blockRaises(cons)
}

// conditionGuardsDuplicate recognizes `x in seen` / `x in options` style
// membership checks against a non-split-contents accumulator, the
// idiom used to reject a repeated option.
func conditionGuardsDuplicate(cond *pyast.Node) bool {
	if cond.Kind() != pyast.KindComparison || cond.ChildCount() < 2 {
		return false
	}
	op := cond.TextBetween(0, 1)
	return op == "in" || op == "not in"
}

func collectLiteralStrings(n *pyast.Node, out *[]string) {
	pyast.Walk(n, func(node *pyast.Node) bool {
		if node.Kind() == pyast.KindString {
			if s, ok := node.StringValue(); ok {
				*out = append(*out, s)
			}
		}
		return true
	})
}

// recognizeMatchChoices recognizes a match statement dispatching on a
// split-contents element: `match bits[k]:` with string-literal `case "…":` arms
// produces ChoiceAt{k, values, negated=false} when every non-wildcard
// arm raises, or none do.
func recognizeMatchChoices(body []*pyast.Node, splitVar string) []tagdb.ChoiceAt {
	var out []tagdb.ChoiceAt
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() != pyast.KindMatch {
				return true
			}
			subject := n.ChildByFieldName("subject")
			if subject == nil {
				return true
			}
			pos, ok := subscriptPosition(subject, splitVar)
			if !ok {
				return true
			}
			values, uniform := matchCaseLiterals(n)
			if uniform && len(values) > 0 {
				out = append(out, tagdb.ChoiceAt{Position: pos, Values: values})
			}
			return true
		})
	}
	return out
}

func matchCaseLiterals(matchStmt *pyast.Node) (values []string, uniform bool) {
	raises := 0
	total := 0
	body := blockOf(matchStmt)
	if body == nil {
		return nil, false
	}
	for _, c := range body.Children() {
		if c.Kind() != pyast.KindCase {
			continue
		}
		// The case patterns are the clause's leading case_pattern
		// children; the consequence block follows them.
		var patterns []*pyast.Node
		for _, child := range c.Children() {
			if child.Kind() == pyast.KindCasePattern {
				patterns = append(patterns, child)
			}
		}
		isWildcard := len(patterns) == 1 && patterns[0].Text() == "_"
		if isWildcard {
			continue
		}
		for _, p := range patterns {
			collectLiteralStrings(p, &values)
		}
		total++
		if caseBody := blockOf(c); caseBody != nil && blockRaises(caseBody) {
			raises++
		}
	}
	uniform = total > 0 && (raises == 0 || raises == total)
	return values, uniform
}

func blockOf(n *pyast.Node) *pyast.Node {
	if b := n.ChildByFieldName("body"); b != nil {
		return b
	}
	if b := n.ChildByFieldName("consequence"); b != nil {
		return b
	}
	for _, c := range n.Children() {
		if c.Kind() == pyast.KindBlock {
			return c
		}
	}
	return nil
}
