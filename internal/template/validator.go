package template

import (
	"fmt"
	"strings"

	"github.com/juju/loggo"

	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/span"
	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/tmpllex"
)

var logger = loggo.GetLogger("djls.validate")

// Validator walks a template's node list once and reports every
// violation through Emit. It owns no state across templates; construct
// one per validation run.
type Validator struct {
	DB     *tagdb.Database
	Loads  []LoadStatement
	Opaque []span.Span

	// InspectorAttached gates the diagnostics whose codes carry
	// requires_inspector: without a Python inspector resolving the
	// workspace's tag libraries, "unknown tag" would fire on every
	// third-party symbol we simply haven't seen.
	InspectorAttached bool

	Emit func(diag.Diagnostic)
}

// Validate runs every check over the node list.
func (v *Validator) Validate(nodes []tmpllex.Node) {
	v.checkExtends(nodes)
	v.checkBlocks(nodes)

	for _, n := range nodes {
		if InOpaqueRegion(v.Opaque, n.Span.Start) {
			continue
		}
		switch n.Kind {
		case tmpllex.NodeError:
			v.Emit(diag.New(diag.TemplateParseError, n.Span, n.Message))
		case tmpllex.NodeTag:
			v.checkTag(n)
		case tmpllex.NodeVariable:
			v.checkVariable(n)
		}
	}
}

// checkTag validates one tag node: symbol visibility, if-expression
// syntax, and every extracted-rule constraint.
func (v *Validator) checkTag(n tmpllex.Node) {
	if n.Name == "if" || n.Name == "elif" {
		if msg := CheckIfExpression(n.Bits[1:]); msg != "" {
			v.Emit(diag.New(diag.ExpressionSyntaxError, n.Span, msg))
		}
	}

	spec := v.resolveTag(n)
	if spec == nil || spec.Rule == nil {
		return
	}
	rule := spec.Rule

	bits := n.Bits
	if rule.AsVar == tagdb.AsVarStrip && len(bits) >= 3 && bits[len(bits)-2] == "as" {
		bits = bits[:len(bits)-2]
	}
	length := len(bits)

	for _, c := range rule.ArgConstraints {
		if !c.Valid(length) {
			v.Emit(diag.New(diag.ExtractedRuleViolation, n.Span, constraintMessage(n.Name, c)))
		}
	}
	for _, rk := range rule.RequiredKeyword {
		idx, ok := rk.Position.ToBitsIndex(length)
		if !ok {
			continue
		}
		if bits[idx+1] != rk.Value {
			v.Emit(diag.New(diag.ExtractedRuleViolation, n.Span,
				fmt.Sprintf("'%s' expects '%s' here, found '%s'.", n.Name, rk.Value, bits[idx+1])))
		}
	}
	for _, ca := range rule.ChoiceAt {
		idx, ok := ca.Position.ToBitsIndex(length)
		if !ok {
			continue
		}
		if !containsString(ca.Values, bits[idx+1]) {
			v.Emit(diag.New(diag.ExtractedRuleViolation, n.Span,
				fmt.Sprintf("'%s' expects one of %s here, found '%s'.", n.Name, quoteJoin(ca.Values), bits[idx+1])))
		}
	}
	if rule.KnownOptions != nil {
		v.checkOptions(n, bits, rule)
	}
}

// checkOptions scans the tag's trailing arguments against a recovered
// option loop: duplicates when the loop rejects repeats, unknown
// tokens when the loop's else branch raises and an argument-count
// bound tells us where the fixed arguments end.
func (v *Validator) checkOptions(n tmpllex.Node, bits []string, rule *tagdb.TagRule) {
	opts := rule.KnownOptions
	if !opts.AllowDuplicates {
		seen := map[string]bool{}
		for _, b := range bits[1:] {
			if !containsString(opts.Values, b) {
				continue
			}
			if seen[b] {
				v.Emit(diag.New(diag.ExtractedRuleViolation, n.Span,
					fmt.Sprintf("'%s' received the option '%s' more than once.", n.Name, b)))
			}
			seen[b] = true
		}
	}
	if opts.RejectsUnknown {
		fixed := fixedArgCount(rule.ArgConstraints)
		if fixed < 0 {
			return
		}
		for _, b := range bits[fixed:] {
			if !containsString(opts.Values, b) {
				v.Emit(diag.New(diag.ExtractedRuleViolation, n.Span,
					fmt.Sprintf("'%s' received an unknown option: '%s'.", n.Name, b)))
			}
		}
	}
}

// fixedArgCount returns the split-contents length up to which arguments
// are positional rather than options, or -1 when no max bound was
// recovered.
func fixedArgCount(constraints []tagdb.ArgumentCountConstraint) int {
	for _, c := range constraints {
		if c.Kind == tagdb.MaxCount {
			return c.N
		}
		if c.Kind == tagdb.ExactCount && c.Negated {
			return c.N
		}
	}
	return -1
}

// checkVariable validates every filter application on a variable node
// against known filter arities.
func (v *Validator) checkVariable(n tmpllex.Node) {
	for _, f := range n.Filters {
		arity := v.resolveFilterArity(f, n)
		if arity == nil {
			continue
		}
		if arity.ExpectsArg && !arity.ArgOptional && !f.HasArg {
			v.Emit(diag.New(diag.FilterMissingArgument, f.Span,
				fmt.Sprintf("Filter '%s' requires an argument.", f.Name)))
		}
		if !arity.ExpectsArg && f.HasArg {
			v.Emit(diag.New(diag.FilterUnexpectedArg, f.Span,
				fmt.Sprintf("Filter '%s' does not take an argument.", f.Name)))
		}
	}
}

// resolveTag finds the TagSpec visible for a tag at its position, using
// the load state to pick among modules that register the same name.
// Built-ins are always visible. With no inspector attached, an
// unresolvable name stays silent (absence of a rule is not a bug).
func (v *Validator) resolveTag(n tmpllex.Node) *tagdb.TagSpec {
	candidates := v.DB.LookupByName(n.Name, true)
	if len(candidates) == 0 {
		if v.InspectorAttached && !isCloserOrIntermediate(n.Name) {
			v.Emit(diag.New(diag.UnknownTag, n.Span, fmt.Sprintf("Unknown tag '%s'.", n.Name)))
		}
		return nil
	}

	state := StateAt(v.Loads, n.Span.Start)
	var visible, hidden []*tagdb.TagSpec
	for _, c := range candidates {
		if v.isVisible(c.Key, state) {
			visible = append(visible, c)
		} else {
			hidden = append(hidden, c)
		}
	}

	switch {
	case len(visible) == 1:
		return visible[0]
	case len(visible) > 1:
		// Later loads shadow earlier ones in Django; with no ordering
		// information across modules, skip rule checks rather than
		// guess wrong.
		logger.Tracef("tag %q visible from %d modules, skipping rule checks", n.Name, len(visible))
		return nil
	}

	if v.InspectorAttached {
		switch len(hidden) {
		case 1:
			v.Emit(diag.New(diag.UnloadedTag, n.Span,
				fmt.Sprintf("Tag '%s' is provided by '%s', which is not loaded.", n.Name, LibraryName(hidden[0].Key.Module))))
		default:
			v.Emit(diag.New(diag.AmbiguousUnloadedTag, n.Span,
				fmt.Sprintf("Tag '%s' is provided by %d unloaded libraries.", n.Name, len(hidden))))
		}
	}
	return nil
}

func (v *Validator) resolveFilterArity(f tmpllex.FilterRef, n tmpllex.Node) *tagdb.FilterArity {
	candidates := v.DB.LookupByName(f.Name, false)
	if len(candidates) == 0 {
		if v.InspectorAttached {
			v.Emit(diag.New(diag.UnknownFilter, f.Span, fmt.Sprintf("Unknown filter '%s'.", f.Name)))
		}
		return nil
	}

	state := StateAt(v.Loads, n.Span.Start)
	var visible, hidden []*tagdb.TagSpec
	for _, c := range candidates {
		if v.isVisible(c.Key, state) {
			visible = append(visible, c)
		} else {
			hidden = append(hidden, c)
		}
	}

	if len(visible) == 1 {
		return visible[0].FilterArity
	}
	if len(visible) == 0 && v.InspectorAttached {
		switch len(hidden) {
		case 1:
			v.Emit(diag.New(diag.UnloadedFilter, f.Span,
				fmt.Sprintf("Filter '%s' is provided by '%s', which is not loaded.", f.Name, LibraryName(hidden[0].Key.Module))))
		default:
			v.Emit(diag.New(diag.AmbiguousUnloadedFilter, f.Span,
				fmt.Sprintf("Filter '%s' is provided by %d unloaded libraries.", f.Name, len(hidden))))
		}
	}
	return nil
}

// isVisible reports whether the symbol behind key is reachable at the
// given load state: built-ins always are; everything else needs its
// library fully loaded or the symbol selectively imported.
func (v *Validator) isVisible(key tagdb.SymbolKey, state *LoadState) bool {
	if tagdb.IsBuiltinModule(key.Module) {
		return true
	}
	return state.IsSymbolAvailable(LibraryName(key.Module), key.Name)
}

// checkExtends enforces that {% extends %} appears at most once and,
// when present, is the first non-text, non-comment node.
func (v *Validator) checkExtends(nodes []tmpllex.Node) {
	var first *tmpllex.Node
	seenOther := false
	for i := range nodes {
		n := nodes[i]
		switch n.Kind {
		case tmpllex.NodeText, tmpllex.NodeComment:
			continue
		case tmpllex.NodeTag:
			if n.Name == "extends" {
				if first == nil {
					first = &nodes[i]
					if seenOther {
						v.Emit(diag.New(diag.ExtendsMustBeFirst, n.Span,
							"{% extends %} must be the first tag in the template."))
					}
					continue
				}
				v.Emit(diag.New(diag.MultipleExtends, n.Span,
					"A template may contain at most one {% extends %}.").WithSecondary(first.Span))
				continue
			}
		}
		seenOther = true
	}
}

type openBlock struct {
	node tmpllex.Node
	spec *tagdb.BlockSpec
}

// checkBlocks balances block openers against closers and validates
// intermediate placement, skipping tags inside opaque regions.
func (v *Validator) checkBlocks(nodes []tmpllex.Node) {
	closerOf := map[string]string{}         // end tag -> opener
	intermediateOf := map[string][]string{} // intermediate -> openers accepting it
	for _, s := range v.DB.AllSpecs() {
		if s.Block == nil || s.Block.EndTag == "" {
			continue
		}
		closerOf[s.Block.EndTag] = s.Key.Name
		for _, im := range s.Block.Intermediates {
			intermediateOf[im] = append(intermediateOf[im], s.Key.Name)
		}
	}

	var stack []openBlock
	for _, n := range nodes {
		if n.Kind != tmpllex.NodeTag || InOpaqueRegion(v.Opaque, n.Span.Start) {
			continue
		}

		if opener, isCloser := closerOf[n.Name]; isCloser {
			v.popBlock(&stack, n, opener)
			continue
		}
		if openers, isIntermediate := intermediateOf[n.Name]; isIntermediate {
			if len(stack) == 0 || !containsString(openers, stack[len(stack)-1].node.Name) {
				v.Emit(diag.New(diag.OrphanedIntermediate, n.Span,
					fmt.Sprintf("'%s' must appear inside %s.", n.Name, quoteJoin(openers))))
			}
			continue
		}
		// Opaque blocks participate in balancing too: their body tags
		// are skipped by the opaque-region check above, but the opener
		// and closer themselves sit on the region's boundary.
		if spec := v.blockSpecFor(n.Name); spec != nil && spec.EndTag != "" {
			stack = append(stack, openBlock{node: n, spec: spec})
		}
	}

	for _, open := range stack {
		v.Emit(diag.New(diag.UnclosedTag, open.node.Span,
			fmt.Sprintf("Unclosed tag '%s': expected '%s'.", open.node.Name, open.spec.EndTag)))
	}
}

// popBlock closes the innermost matching open block, reporting blocks
// skipped over as unclosed and a closer with no opener as unbalanced.
func (v *Validator) popBlock(stack *[]openBlock, closer tmpllex.Node, opener string) {
	s := *stack
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].node.Name != opener {
			continue
		}
		for _, skipped := range s[i+1:] {
			v.Emit(diag.New(diag.UnclosedTag, skipped.node.Span,
				fmt.Sprintf("Unclosed tag '%s': expected '%s' before '%s'.",
					skipped.node.Name, skipped.spec.EndTag, closer.Name)).WithSecondary(closer.Span))
		}
		if closer.Name == "endblock" && len(closer.Bits) >= 2 && len(s[i].node.Bits) >= 2 &&
			closer.Bits[1] != s[i].node.Bits[1] {
			v.Emit(diag.New(diag.UnmatchedEndblockName, closer.Span,
				fmt.Sprintf("'{%% endblock %s %%}' does not match '{%% block %s %%}'.",
					closer.Bits[1], s[i].node.Bits[1])).WithSecondary(s[i].node.Span))
		}
		*stack = s[:i]
		return
	}
	v.Emit(diag.New(diag.UnbalancedStructure, closer.Span,
		fmt.Sprintf("'%s' closes a '%s' block that was never opened.", closer.Name, opener)))
}

// blockSpecFor returns the first block spec found among the modules
// that register the tag name; when several do, which one is returned
// is not defined.
func (v *Validator) blockSpecFor(name string) *tagdb.BlockSpec {
	for _, c := range v.DB.LookupByName(name, true) {
		if c.Block != nil && (c.Block.EndTag != "" || c.Block.Opaque || len(c.Block.Intermediates) > 0) {
			return c.Block
		}
	}
	return nil
}

// isCloserOrIntermediate is the unknown-tag check's escape hatch: end
// tags and intermediates are never themselves registered symbols.
func isCloserOrIntermediate(name string) bool {
	return strings.HasPrefix(name, "end") ||
		name == "else" || name == "elif" || name == "empty" || name == "plural"
}

func containsString(vs []string, s string) bool {
	for _, v := range vs {
		if v == s {
			return true
		}
	}
	return false
}

func quoteJoin(vs []string) string {
	quoted := make([]string, len(vs))
	for i, v := range vs {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}

// constraintMessage prefers the message recovered from the compile
// function's own raise statement, falling back to a generic phrasing.
func constraintMessage(tag string, c tagdb.ArgumentCountConstraint) string {
	if c.Message != "" {
		return c.Message
	}
	switch c.Kind {
	case tagdb.ExactCount:
		if c.Negated {
			return fmt.Sprintf("'%s' takes exactly %d arguments.", tag, c.N-1)
		}
		return fmt.Sprintf("'%s' got an invalid number of arguments.", tag)
	case tagdb.MinCount:
		return fmt.Sprintf("'%s' takes at least %d arguments.", tag, c.N-1)
	case tagdb.MaxCount:
		return fmt.Sprintf("'%s' takes at most %d arguments.", tag, c.N-1)
	default:
		return fmt.Sprintf("'%s' got an invalid number of arguments.", tag)
	}
}
