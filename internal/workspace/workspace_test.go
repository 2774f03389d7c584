package workspace

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"golang.org/x/tools/txtar"
	yaml "gopkg.in/yaml.v2"
)

// TestCorpus replays every archive under testdata/corpus: each holds a
// handful of templates and templatetag modules plus an expected.yaml
// mapping template path to the diagnostic codes it must produce. All
// file content is installed as buffers, so no fixture touches disk
// paths at validation time.
func TestCorpus(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "corpus", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no corpus archives found")
	}

	for _, archive := range archives {
		archive := archive
		t.Run(filepath.Base(archive), func(t *testing.T) {
			ar, err := txtar.ParseFile(archive)
			if err != nil {
				t.Fatal(err)
			}

			ws := New()
			var templates []string
			expected := map[string][]string{}

			for _, f := range ar.Files {
				if f.Name == "expected.yaml" {
					if err := yaml.Unmarshal(f.Data, &expected); err != nil {
						t.Fatalf("expected.yaml: %v", err)
					}
					continue
				}
				ws.OpenDocument(f.Name, string(f.Data))
				if IsTemplate(f.Name) {
					templates = append(templates, f.Name)
				}
			}

			for _, tmpl := range templates {
				want, listed := expected[tmpl]
				if !listed {
					t.Errorf("%s: template not listed in expected.yaml", tmpl)
					continue
				}
				diags := ws.Diagnose(tmpl)
				got := make([]string, 0, len(diags))
				for _, d := range diags {
					got = append(got, d.Code)
				}
				if len(got) == 0 && len(want) == 0 {
					continue
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("%s: got %v, want %v\n%s", tmpl, got, want, pretty.Sprint(diags))
				}
			}
		})
	}
}

func TestDiagnoseMemoized(t *testing.T) {
	ws := New()
	ws.OpenDocument("t.html", `{{ value|default }}`)

	first := ws.Diagnose("t.html")
	second := ws.Diagnose("t.html")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("memoized run differs: %v vs %v", first, second)
	}
	if len(first) != 1 {
		t.Fatalf("want one diagnostic, got %v", first)
	}

	ws.ChangeDocument("t.html", `{{ value|default:"x" }}`)
	third := ws.Diagnose("t.html")
	if len(third) != 0 {
		t.Fatalf("after fix: want no diagnostics, got %v", third)
	}

	// Closing falls back to disk; the file doesn't exist, so content
	// becomes empty and the diagnostics disappear rather than sticking
	// to the stale buffer.
	ws.CloseDocument("t.html")
	if got := ws.SourceText("t.html"); got != "" {
		t.Fatalf("after close: want empty disk fallback, got %q", got)
	}
}

func TestModuleSetInvalidation(t *testing.T) {
	ws := New()
	ws.OpenDocument("a.html", `{% load demo %}{% shout x y %}`)

	if diags := ws.Diagnose("a.html"); len(diags) != 0 {
		t.Fatalf("no modules yet: want no diagnostics, got %v", diags)
	}

	// A templatetag module appearing afterwards must invalidate the
	// database and make the extracted rule fire.
	ws.OpenDocument("app/templatetags/demo.py", `
from django import template

register = template.Library()

@register.tag
def shout(parser, token):
    bits = token.split_contents()
    if len(bits) != 2:
        raise template.TemplateSyntaxError("shout takes exactly one argument")
    return ShoutNode(bits[1])
`)
	diags := ws.Diagnose("a.html")
	if len(diags) != 1 || diags[0].Code != "S113" {
		t.Fatalf("want one S113, got %s", pretty.Sprint(diags))
	}
	if diags[0].Message != "shout takes exactly one argument" {
		t.Fatalf("message: got %q", diags[0].Message)
	}
}

func TestClassification(t *testing.T) {
	if !IsTemplate("a/b/page.html") || !IsTemplate("X.HTM") {
		t.Error("template classification failed")
	}
	if IsTemplate("script.py") {
		t.Error("python file classified as template")
	}
	if !IsPythonModule("app/templatetags/shop.py") {
		t.Error("templatetags module not recognized")
	}
	if IsPythonModule("app/models.py") {
		t.Error("non-templatetags python recognized")
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := "/work/app/templates/index.html"
	uri := URIFromPath(path)
	back, err := PathFromURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if back != path {
		t.Fatalf("round trip: %q -> %q -> %q", path, uri, back)
	}
	if _, err := PathFromURI("untitled:Untitled-1"); err == nil {
		t.Fatal("non-file URI should error")
	}
}
