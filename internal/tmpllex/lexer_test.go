package tmpllex

import "testing"

func kinds(nodes []Node) []NodeKind {
	out := make([]NodeKind, len(nodes))
	for i, n := range nodes {
		out[i] = n.Kind
	}
	return out
}

func TestTokenizeMixedContent(t *testing.T) {
	source := `<p>{{ user.name }}</p>{# note #}{% if flag %}x{% endif %}`
	nodes := Tokenize(source)

	want := []NodeKind{NodeText, NodeVariable, NodeText, NodeComment, NodeTag, NodeText, NodeTag}
	got := kinds(nodes)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("node %d: got %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}

	ifTag := nodes[4]
	if ifTag.Name != "if" {
		t.Errorf("tag name: got %q, want %q", ifTag.Name, "if")
	}
	if len(ifTag.Bits) != 2 || ifTag.Bits[1] != "flag" {
		t.Errorf("bits: got %v", ifTag.Bits)
	}
	if string(source[ifTag.Span.Start:ifTag.Span.End]) != "{% if flag %}" {
		t.Errorf("span covers %q", source[ifTag.Span.Start:ifTag.Span.End])
	}
}

func TestVariableFilters(t *testing.T) {
	source := `{{ value|default:"a|b"|upper }}`
	nodes := Tokenize(source)
	if len(nodes) != 1 || nodes[0].Kind != NodeVariable {
		t.Fatalf("got %v", kinds(nodes))
	}
	v := nodes[0]
	if v.Expr != "value" {
		t.Errorf("expr: got %q", v.Expr)
	}
	if len(v.Filters) != 2 {
		t.Fatalf("filters: got %v", v.Filters)
	}
	if v.Filters[0].Name != "default" || !v.Filters[0].HasArg {
		t.Errorf("filter 0: got %+v", v.Filters[0])
	}
	if v.Filters[1].Name != "upper" || v.Filters[1].HasArg {
		t.Errorf("filter 1: got %+v", v.Filters[1])
	}
	if got := source[v.Filters[0].Span.Start:v.Filters[0].Span.End]; got != "default" {
		t.Errorf("filter 0 span covers %q", got)
	}
	if got := source[v.Filters[1].Span.Start:v.Filters[1].Span.End]; got != "upper" {
		t.Errorf("filter 1 span covers %q", got)
	}
}

func TestUnclosedMarker(t *testing.T) {
	nodes := Tokenize(`ok {% if x`)
	if len(nodes) != 2 {
		t.Fatalf("got %v", kinds(nodes))
	}
	if nodes[1].Kind != NodeError {
		t.Fatalf("want NodeError, got %v", nodes[1].Kind)
	}
}

func TestSmartSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`for item in items`, []string{"for", "item", "in", "items"}},
		{`tag "quoted arg" plain`, []string{"tag", `"quoted arg"`, "plain"}},
		{`url name key="a b" x`, []string{"url", "name", `key="a b"`, "x"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{`mix 'single quoted' end`, []string{"mix", `'single quoted'`, "end"}},
	}
	for _, tc := range cases {
		got := SmartSplit(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%q: bit %d got %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
