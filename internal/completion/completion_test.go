package completion

import (
	"strings"
	"testing"

	"github.com/djls-dev/djls/internal/span"
	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/template"
)

func find(items []Item, label string) *Item {
	for i := range items {
		if items[i].Label == label {
			return &items[i]
		}
	}
	return nil
}

func TestCompletionsInsideMarker(t *testing.T) {
	db := tagdb.NewDatabase()
	text := `{% fo`
	items := Completions(text, len(text), db, nil)
	forItem := find(items, "for")
	if forItem == nil {
		t.Fatalf("no 'for' item in %d items", len(items))
	}
	if forItem.InsertText != "for %}" {
		t.Errorf("missing closer: got insert %q", forItem.InsertText)
	}
	if forItem.Detail != "built-in tag" {
		t.Errorf("detail: got %q", forItem.Detail)
	}
}

func TestCompletionsCloserHandling(t *testing.T) {
	db := tagdb.NewDatabase()

	full := `{% fo %}`
	items := Completions(full, 5, db, nil)
	if it := find(items, "for"); it == nil || it.InsertText != "for" {
		t.Errorf("full closer: got %+v", it)
	}

	partial := `{% fo %`
	items = Completions(partial, 5, db, nil)
	if it := find(items, "for"); it == nil || it.InsertText != "for " {
		t.Errorf("partial closer: got %+v", it)
	}
}

func TestCompletionsOutsideMarker(t *testing.T) {
	db := tagdb.NewDatabase()
	for _, text := range []string{`plain text`, `{{ value }}`, `{% if x %} after`} {
		if items := Completions(text, len(text), db, nil); items != nil {
			t.Errorf("%q: expected no completions, got %d", text, len(items))
		}
	}
}

func TestCompletionsRespectLoadState(t *testing.T) {
	db := tagdb.NewDatabase()
	res := tagdb.NewExtractionResult()
	res.TagRules[tagdb.SymbolKey{Module: "app/templatetags/shop.py", Name: "pricetag", IsTag: true}] = tagdb.TagRule{}
	db.MergeExtraction(res)

	// Without the load, only built-ins complete.
	bare := `{% pr`
	if it := find(Completions(bare, len(bare), db, nil), "pricetag"); it != nil {
		t.Error("unloaded tag offered")
	}

	loaded := `{% load shop %}{% pr`
	loads := []template.LoadStatement{{
		Span:      span.New(0, 15),
		Kind:      template.FullLoad,
		Libraries: []string{"shop"},
	}}
	if it := find(Completions(loaded, len(loaded), db, loads), "pricetag"); it == nil {
		t.Error("loaded tag not offered")
	} else if !strings.Contains(it.Detail, "shop") {
		t.Errorf("detail: got %q", it.Detail)
	}
}

func TestDocumentationFromExtractedArgs(t *testing.T) {
	db := tagdb.NewDatabase()
	res := tagdb.NewExtractionResult()
	res.TagRules[tagdb.SymbolKey{Module: "django.template.defaulttags", Name: "for", IsTag: true}] = tagdb.TagRule{
		ExtractedArgs: []tagdb.ExtractedArg{
			{Name: "loopvar", Required: true, Kind: tagdb.ArgVariable},
			{Kind: tagdb.ArgLiteral, Literal: "in"},
			{Name: "seq", Required: true, Kind: tagdb.ArgVariable},
		},
	}
	db.MergeExtraction(res)

	text := `{% fo`
	it := find(Completions(text, len(text), db, nil), "for")
	if it == nil {
		t.Fatal("no 'for' item")
	}
	if !strings.Contains(it.Documentation, "{% for loopvar in seq %}") {
		t.Errorf("documentation: got %q", it.Documentation)
	}
}
