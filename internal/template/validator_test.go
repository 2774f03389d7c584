package template

import (
	stdtesting "testing"

	"github.com/kr/pretty"
	gc "gopkg.in/check.v1"

	"github.com/djls-dev/djls/internal/absint"
	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/tmpllex"
)

func Test(t *stdtesting.T) { gc.TestingT(t) }

type ValidatorSuite struct {
	db *tagdb.Database
}

var _ = gc.Suite(&ValidatorSuite{})

func (s *ValidatorSuite) SetUpTest(c *gc.C) {
	s.db = tagdb.NewDatabase()

	// The for-tag rule as extraction recovers it from defaulttags.py.
	res := tagdb.NewExtractionResult()
	res.TagRules[tagdb.SymbolKey{Module: "defaulttags.py", Name: "for", IsTag: true}] = tagdb.TagRule{
		ArgConstraints: []tagdb.ArgumentCountConstraint{
			{Kind: tagdb.MinCount, N: 4, Message: "'for' statements should have at least four words"},
		},
		RequiredKeyword: []tagdb.RequiredKeyword{
			{Position: absint.Forward(2), Value: "in"},
		},
	}
	s.db.MergeExtraction(res)
}

// validate runs the whole pipeline over source the way the workspace
// query does, with no inspector attached.
func (s *ValidatorSuite) validate(c *gc.C, source string) []diag.Diagnostic {
	nodes := tmpllex.Tokenize(source)
	var out []diag.Diagnostic
	v := &Validator{
		DB:    s.db,
		Loads: CollectLoads(nodes),
		Opaque: OpaqueRegions(nodes, func(name string) *tagdb.BlockSpec {
			for _, spec := range s.db.LookupByName(name, true) {
				if spec.Block != nil {
					return spec.Block
				}
			}
			return nil
		}, uint32(len(source))),
		Emit: func(d diag.Diagnostic) { out = append(out, d) },
	}
	v.Validate(nodes)
	return out
}

func codes(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func (s *ValidatorSuite) TestWellFormedForLoop(c *gc.C) {
	diags := s.validate(c, `{% for item in items %}{{ item }}{% endfor %}`)
	c.Check(diags, gc.HasLen, 0, gc.Commentf("%s", pretty.Sprint(diags)))
}

func (s *ValidatorSuite) TestForMissingWords(c *gc.C) {
	source := `{% for item %}{% endfor %}`
	diags := s.validate(c, source)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.ExtractedRuleViolation})
	c.Check(diags[0].Message, gc.Equals, "'for' statements should have at least four words")
	covered := source[diags[0].Primary.Start:diags[0].Primary.End]
	c.Check(covered, gc.Equals, `{% for item %}`)
}

func (s *ValidatorSuite) TestForWrongKeyword(c *gc.C) {
	diags := s.validate(c, `{% for item of items %}{% endfor %}`)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.ExtractedRuleViolation})
	c.Check(diags[0].Message, gc.Matches, `.*'in'.*'of'.*`)
}

func (s *ValidatorSuite) TestIfExpressionError(c *gc.C) {
	source := `{% if x and %}a{% endif %}`
	diags := s.validate(c, source)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.ExpressionSyntaxError})
	c.Check(diags[0].Message, gc.Equals, "Unexpected end of expression in if tag.")
	c.Check(source[diags[0].Primary.Start:diags[0].Primary.End], gc.Equals, `{% if x and %}`)
}

func (s *ValidatorSuite) TestOpaqueRegionSuppressesFilterCheck(c *gc.C) {
	diags := s.validate(c, `{% verbatim %}{{ value|truncatewords }}{% endverbatim %}`)
	c.Check(diags, gc.HasLen, 0, gc.Commentf("%s", pretty.Sprint(diags)))
}

func (s *ValidatorSuite) TestFilterMissingArgument(c *gc.C) {
	source := `{{ value|default }}`
	diags := s.validate(c, source)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.FilterMissingArgument})
	c.Check(source[diags[0].Primary.Start:diags[0].Primary.End], gc.Equals, "default")
}

func (s *ValidatorSuite) TestFilterUnexpectedArgument(c *gc.C) {
	diags := s.validate(c, `{{ value|upper:"x" }}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.FilterUnexpectedArg})
}

func (s *ValidatorSuite) TestFilterOptionalArgument(c *gc.C) {
	c.Check(s.validate(c, `{{ value|floatformat }}`), gc.HasLen, 0)
	c.Check(s.validate(c, `{{ value|floatformat:2 }}`), gc.HasLen, 0)
}

func (s *ValidatorSuite) TestUnclosedBlock(c *gc.C) {
	diags := s.validate(c, `{% for item in items %}{{ item }}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.UnclosedTag})
}

func (s *ValidatorSuite) TestStrayCloser(c *gc.C) {
	diags := s.validate(c, `{% endfor %}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.UnbalancedStructure})
}

func (s *ValidatorSuite) TestOrphanedIntermediate(c *gc.C) {
	diags := s.validate(c, `{% else %}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.OrphanedIntermediate})
}

func (s *ValidatorSuite) TestIntermediateInWrongBlock(c *gc.C) {
	diags := s.validate(c, `{% for x in xs %}{% elif y %}{% endfor %}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.OrphanedIntermediate})
}

func (s *ValidatorSuite) TestEndblockNameMismatch(c *gc.C) {
	diags := s.validate(c, `{% block content %}x{% endblock footer %}`)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.UnmatchedEndblockName})
	c.Check(diags[0].Secondary, gc.NotNil)
}

func (s *ValidatorSuite) TestEndblockNameMatch(c *gc.C) {
	c.Check(s.validate(c, `{% block content %}x{% endblock content %}`), gc.HasLen, 0)
	c.Check(s.validate(c, `{% block content %}x{% endblock %}`), gc.HasLen, 0)
}

func (s *ValidatorSuite) TestInterleavedBlocks(c *gc.C) {
	diags := s.validate(c, `{% block a %}{% for x in xs %}{% endblock %}`)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.UnclosedTag})
	c.Check(diags[0].Message, gc.Matches, `.*'for'.*`)
}

func (s *ValidatorSuite) TestExtendsMustBeFirst(c *gc.C) {
	diags := s.validate(c, `{% load i18n %}{% extends "base.html" %}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.ExtendsMustBeFirst})
}

func (s *ValidatorSuite) TestExtendsAfterTextAndCommentOK(c *gc.C) {
	diags := s.validate(c, "  {# header #}\n{% extends \"base.html\" %}")
	c.Check(diags, gc.HasLen, 0, gc.Commentf("%s", pretty.Sprint(diags)))
}

func (s *ValidatorSuite) TestMultipleExtends(c *gc.C) {
	diags := s.validate(c, `{% extends "a.html" %}{% extends "b.html" %}`)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.MultipleExtends})
	c.Check(diags[0].Secondary, gc.NotNil)
}

// TestRuleGatedByLoadState pins symbol visibility: a rule extracted
// from a third-party library only fires once the library is loaded.
func (s *ValidatorSuite) TestRuleGatedByLoadState(c *gc.C) {
	res := tagdb.NewExtractionResult()
	res.TagRules[tagdb.SymbolKey{Module: "app/templatetags/shop.py", Name: "shout", IsTag: true}] = tagdb.TagRule{
		ArgConstraints: []tagdb.ArgumentCountConstraint{
			{Kind: tagdb.ExactCount, N: 2, Negated: true, Message: "shout takes one argument"},
		},
	}
	s.db.MergeExtraction(res)

	// Not loaded: the symbol is invisible, so no rule check fires.
	c.Check(s.validate(c, `{% shout %}`), gc.HasLen, 0)

	// Loaded: the extracted constraint applies.
	diags := s.validate(c, `{% load shop %}{% shout %}`)
	c.Assert(codes(diags), gc.DeepEquals, []string{diag.ExtractedRuleViolation})
	c.Check(diags[0].Message, gc.Equals, "shout takes one argument")

	// Selective import also makes it visible.
	diags = s.validate(c, `{% load shout from shop %}{% shout a b %}`)
	c.Check(codes(diags), gc.DeepEquals, []string{diag.ExtractedRuleViolation})
}

func (s *ValidatorSuite) TestOutOfRangeKeywordPositionSkipped(c *gc.C) {
	res := tagdb.NewExtractionResult()
	res.TagRules[tagdb.SymbolKey{Module: "app/templatetags/x.py", Name: "pin", IsTag: true}] = tagdb.TagRule{
		RequiredKeyword: []tagdb.RequiredKeyword{
			{Position: absint.Forward(5), Value: "with"},
		},
	}
	s.db.MergeExtraction(res)

	// bits has length 2; position 5 cannot be resolved, so the
	// constraint is silently skipped.
	c.Check(s.validate(c, `{% load x %}{% pin a %}`), gc.HasLen, 0)
}
