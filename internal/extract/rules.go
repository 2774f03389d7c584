package extract

import (
	"strings"

	"github.com/djls-dev/djls/internal/absint"
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/tagdb"
)

// ExtractTagRule recovers a rule from a manually-written compile
// function: it finds the split-contents variable, collects raising
// guards, folds them into argument-count bounds, and reconstructs named
// arguments by a combination of literal-at-position guards and variable
// bindings found via tuple unpacking or indexed assignment.
func ExtractTagRule(funcDef *pyast.Node) tagdb.TagRule {
	body := bodyStatements(funcDef)
	splitVar := findSplitVar(body)
	guards := CollectGuards(body, splitVar)

	rule := tagdb.TagRule{AsVar: asVarPolicy(body, splitVar)}

	var constraints []tagdb.ArgumentCountConstraint
	for _, g := range guards {
		switch g.kind {
		case gExactArgCount:
			constraints = append(constraints, tagdb.ArgumentCountConstraint{
				Kind: tagdb.ExactCount, N: g.n, Negated: g.negated, Message: g.message,
			})
		case gMinArgCount:
			constraints = append(constraints, tagdb.ArgumentCountConstraint{Kind: tagdb.MinCount, N: g.n, Message: g.message})
		case gMaxArgCount:
			constraints = append(constraints, tagdb.ArgumentCountConstraint{Kind: tagdb.MaxCount, N: g.n, Message: g.message})
		case gLiteralAt:
			// Only the negated form constrains: `bits[i] != "s": raise`
			// requires "s" at i. The non-negated form forbids one
			// value, which TagRule has no field for; recording it as a
			// choice would invert its meaning.
			if g.negated {
				rule.RequiredKeyword = append(rule.RequiredKeyword, tagdb.RequiredKeyword{Position: g.position, Value: g.literal})
			}
		case gChoiceAt:
			if g.negated {
				rule.ChoiceAt = append(rule.ChoiceAt, tagdb.ChoiceAt{Position: g.position, Values: g.values})
			}
		case gContainsLiteral:
			// Recorded for completeness; known_options covers the only
			// checkable consequence, so no standalone rule is emitted.
		}
	}
	rule.ArgConstraints = constraints

	min, max := inferBounds(constraints)
	rule.ExtractedArgs = reconstructArgs(body, splitVar, min, max, rule)

	if opts := recognizeOptionLoop(body); opts != nil {
		rule.KnownOptions = opts
	}
	rule.ChoiceAt = append(rule.ChoiceAt, recognizeMatchChoices(body, splitVar)...)

	return rule
}

// inferBounds folds the argument-count constraints into (min, max) in
// split-contents terms.
func inferBounds(constraints []tagdb.ArgumentCountConstraint) (min int, max int) {
	max = -1 // -1 means "no upper bound discovered"
	for _, c := range constraints {
		switch c.Kind {
		case tagdb.ExactCount:
			if c.Negated {
				min = c.N
				max = c.N
			}
		case tagdb.MinCount:
			if c.N > min {
				min = c.N
			}
		case tagdb.MaxCount:
			if max < 0 || c.N < max {
				max = c.N
			}
		}
	}
	return min, max
}

// reconstructArgs is the "Slot filling" phase: allocate
// max(or min)-1 slots (split-contents length minus the tag name),
// fill required-literal slots from negated LiteralAt/ChoiceAt rules,
// then walk the body for tuple unpacking of splitVar and indexed
// assignments to bind slot names, falling back to generic argN names.
func reconstructArgs(body []*pyast.Node, splitVar string, min, max int, rule tagdb.TagRule) []tagdb.ExtractedArg {
	total := max
	if total < 0 {
		total = min
	}
	slots := total - 1
	if slots <= 0 {
		return nil
	}

	args := make([]tagdb.ExtractedArg, slots)
	filled := make([]bool, slots)
	for i := range args {
		args[i] = tagdb.ExtractedArg{Position: absint.Forward(i + 1), Kind: tagdb.ArgVariable, Required: i+1 < min}
	}

	for _, rk := range rule.RequiredKeyword {
		if idx, ok := rk.Position.ToBitsIndex(total); ok && idx < slots {
			args[idx] = tagdb.ExtractedArg{Name: rk.Value, Required: true, Kind: tagdb.ArgLiteral, Position: rk.Position, Literal: rk.Value}
			filled[idx] = true
		}
	}
	for _, ca := range rule.ChoiceAt {
		if idx, ok := ca.Position.ToBitsIndex(total); ok && idx < slots && !filled[idx] {
			args[idx] = tagdb.ExtractedArg{Required: true, Kind: tagdb.ArgChoice, Position: ca.Position, Choices: ca.Values}
			filled[idx] = true
		}
	}

	if splitVar != "" {
		bindSlotNamesFromUnpacking(body, splitVar, args, filled, slots)
		bindSlotNamesFromIndexing(body, splitVar, args, filled, slots)
	}

	for i := range args {
		if !filled[i] && args[i].Name == "" {
			args[i].Name = genericArgName(i + 1)
		}
	}
	return args
}

func genericArgName(n int) string {
	return "arg" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// bindSlotNamesFromUnpacking finds `tag_name, a, b, c = bits` (or
// `tag_name, *rest = bits`-style) assignments and binds plain-name
// targets into their corresponding slots.
func bindSlotNamesFromUnpacking(body []*pyast.Node, splitVar string, args []tagdb.ExtractedArg, filled []bool, slots int) {
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() != pyast.KindAssign {
				return true
			}
			rhs := n.ChildByFieldName("right")
			if rhs == nil || rhs.Text() != splitVar {
				return true
			}
			target := n.ChildByFieldName("left")
			if target == nil || (target.Kind() != pyast.KindTuple && target.Kind() != "pattern_list") {
				return true
			}
			names := target.Children()
			for i, nameNode := range names {
				if i == 0 {
					continue // tag-name slot
				}
				slot := i - 1
				if slot >= slots || filled[slot] {
					continue
				}
				if nameNode.Kind() == pyast.KindIdentifier && !strings.HasPrefix(nameNode.Text(), "_") {
					args[slot].Name = nameNode.Text()
				}
			}
			return false
		})
	}
}

// bindSlotNamesFromIndexing finds `name = bits[k]` assignments and
// binds the slot at k-1.
func bindSlotNamesFromIndexing(body []*pyast.Node, splitVar string, args []tagdb.ExtractedArg, filled []bool, slots int) {
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() != pyast.KindAssign {
				return true
			}
			target := n.ChildByFieldName("left")
			rhs := n.ChildByFieldName("right")
			if target == nil || rhs == nil || target.Kind() != pyast.KindIdentifier {
				return true
			}
			if rhs.Kind() != pyast.KindSubscript {
				return true
			}
			value := rhs.ChildByFieldName("value")
			if value == nil || value.Text() != splitVar {
				return true
			}
			children := rhs.Children()
			if len(children) < 2 {
				return true
			}
			k, ok := intLitValue(children[1])
			if !ok || k <= 0 {
				return true
			}
			slot := k - 1
			if slot >= slots || filled[slot] {
				return true
			}
			name := target.Text()
			if !strings.HasPrefix(name, "_") {
				args[slot].Name = name
			}
			return true
		})
	}
}

// findSplitVar scans for the first assignment whose right-hand side is
// token.split_contents() (in any of the whitelisted forms)
// and returns its target name.
func findSplitVar(body []*pyast.Node) string {
	var found string
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if found != "" {
				return false
			}
			if n.Kind() != pyast.KindAssign {
				return true
			}
			rhs := n.ChildByFieldName("right")
			target := n.ChildByFieldName("left")
			if rhs == nil || target == nil || target.Kind() != pyast.KindIdentifier {
				return true
			}
			if rhs.Kind() != pyast.KindCall {
				return true
			}
			fn := rhs.ChildByFieldName("function")
			if fn == nil || fn.Kind() != pyast.KindAttribute {
				return true
			}
			attr := fn.ChildByFieldName("attribute")
			if attr != nil && (attr.Text() == "split_contents" || attr.Text() == "split") {
				found = target.Text()
				return false
			}
			return true
		})
		if found != "" {
			break
		}
	}
	return found
}

// asVarPolicy detects whether the compile function strips a trailing
// `as <name>` clause before evaluating its constraints. Heuristic: any
// "as" string literal anywhere in the body selects AsVarStrip; where the
// literal sits (guard, slice, or elsewhere) is not inspected.
func asVarPolicy(body []*pyast.Node, splitVar string) tagdb.AsVarPolicy {
	strips := false
	for _, stmt := range body {
		pyast.Walk(stmt, func(n *pyast.Node) bool {
			if n.Kind() == pyast.KindString {
				if s, ok := n.StringValue(); ok && s == "as" {
					strips = true
					return false
				}
			}
			return true
		})
	}
	if strips {
		return tagdb.AsVarStrip
	}
	return tagdb.AsVarKeep
}

func bodyStatements(funcDef *pyast.Node) []*pyast.Node {
	block := funcDef.ChildByFieldName("body")
	if block == nil {
		return nil
	}
	return block.Children()
}
