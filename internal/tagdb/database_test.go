package tagdb

import "testing"

func TestBuiltinsSeeded(t *testing.T) {
	db := NewDatabase()
	specs := db.LookupByName("for", true)
	if len(specs) != 1 || specs[0].Block == nil || specs[0].Block.EndTag != "endfor" {
		t.Fatalf("for: got %+v", specs)
	}
	filters := db.LookupByName("default", false)
	if len(filters) != 1 || filters[0].FilterArity == nil || !filters[0].FilterArity.ExpectsArg {
		t.Fatalf("default: got %+v", filters)
	}
}

func TestMergeReplacesBuiltinRule(t *testing.T) {
	db := NewDatabase()
	res := NewExtractionResult()
	res.TagRules[SymbolKey{Module: "django/template/defaulttags.py", Name: "for", IsTag: true}] = TagRule{
		ArgConstraints: []ArgumentCountConstraint{{Kind: MinCount, N: 4}},
	}
	db.MergeExtraction(res)

	specs := db.LookupByName("for", true)
	if len(specs) != 1 {
		t.Fatalf("extraction for a built-in name must not add a second symbol: %d", len(specs))
	}
	if specs[0].Rule == nil || len(specs[0].Rule.ArgConstraints) != 1 {
		t.Fatalf("rule not merged onto built-in: %+v", specs[0])
	}
	if specs[0].Block == nil || specs[0].Block.EndTag != "endfor" {
		t.Fatalf("built-in block structure lost: %+v", specs[0].Block)
	}
}

func TestMergeKeepsBuiltinBlockOverDynamic(t *testing.T) {
	db := NewDatabase()
	res := NewExtractionResult()
	res.BlockSpecs[SymbolKey{Module: "x.py", Name: "if", IsTag: true}] = BlockSpec{Dynamic: true}
	db.MergeExtraction(res)

	specs := db.LookupByName("if", true)
	if len(specs) != 1 || specs[0].Block.EndTag != "endif" {
		t.Fatalf("dynamic result must not overwrite known block: %+v", specs[0].Block)
	}
}

func TestMergeRightWins(t *testing.T) {
	left := NewExtractionResult()
	key := SymbolKey{Module: "m.py", Name: "x", IsTag: true}
	left.TagRules[key] = TagRule{AsVar: AsVarKeep}
	right := NewExtractionResult()
	right.TagRules[key] = TagRule{AsVar: AsVarStrip}

	left.Merge(right)
	if left.TagRules[key].AsVar != AsVarStrip {
		t.Fatal("right operand should win key collisions")
	}
}

func TestRekeyModule(t *testing.T) {
	res := NewExtractionResult()
	res.TagRules[SymbolKey{Module: "old.py", Name: "a", IsTag: true}] = TagRule{}
	res.FilterArity[SymbolKey{Module: "old.py", Name: "f"}] = FilterArity{}
	res.RekeyModule("new.py")

	if _, ok := res.TagRules[SymbolKey{Module: "new.py", Name: "a", IsTag: true}]; !ok {
		t.Fatal("tag rule not rekeyed")
	}
	if _, ok := res.FilterArity[SymbolKey{Module: "new.py", Name: "f"}]; !ok {
		t.Fatal("filter arity not rekeyed")
	}
	if len(res.TagRules) != 1 {
		t.Fatalf("unexpected extra keys: %v", res.TagRules)
	}
}

func TestLookupCacheInvalidatedByMerge(t *testing.T) {
	db := NewDatabase()
	if got := db.LookupByName("mytag", true); len(got) != 0 {
		t.Fatalf("unexpected specs: %v", got)
	}
	res := NewExtractionResult()
	res.TagRules[SymbolKey{Module: "m.py", Name: "mytag", IsTag: true}] = TagRule{}
	db.MergeExtraction(res)
	if got := db.LookupByName("mytag", true); len(got) != 1 {
		t.Fatalf("cache not invalidated after merge: %v", got)
	}
}
