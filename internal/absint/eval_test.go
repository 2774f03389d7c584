package absint

import (
	"testing"

	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/query"
)

// runCompileFunc parses source, finds the first function definition,
// binds its first two parameters to Parser and Token, and processes its
// body. The returned environment is the function's post-state.
func runCompileFunc(t *testing.T, source string) Env {
	t.Helper()
	tree, err := pyast.Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(tree.Close)

	fn := firstFunction(tree.Root())
	if fn == nil {
		t.Fatalf("no function definition in source")
	}
	params := functionParamNames(fn)
	var parserParam, tokenParam string
	if len(params) > 0 {
		parserParam = params[0]
	}
	if len(params) > 1 {
		tokenParam = params[1]
	}
	env := NewEnv(parserParam, tokenParam)

	engine := query.NewEngine()
	ev := &Evaluator{Module: tree.Root(), Resolver: NewQueryResolver(engine, "test.py")}
	var returns []Value
	if body := blockOf(fn); body != nil {
		ev.ProcessBody(body.Children(), env, &returns)
	}
	return env
}

func firstFunction(module *pyast.Node) *pyast.Node {
	var fn *pyast.Node
	pyast.Walk(module, func(n *pyast.Node) bool {
		if fn != nil {
			return false
		}
		if n.Kind() == pyast.KindFunctionDef {
			fn = n
			return false
		}
		return true
	})
	return fn
}

func TestSplitContentsUnpack(t *testing.T) {
	env := runCompileFunc(t, `
def do_for(parser, token):
    bits = token.split_contents()
    tag_name, a, b, c = bits
`)
	for name, want := range map[string]SplitPosition{
		"tag_name": Forward(0),
		"a":        Forward(1),
		"b":        Forward(2),
		"c":        Forward(3),
	} {
		got := env.Get(name)
		if got.Kind != KindSplitElement || got.Position != want {
			t.Errorf("%s: want SplitElement{%v}, got %v", name, want, got)
		}
	}
}

func TestStarredUnpack(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.split_contents()
    first, *rest, last = bits
`)
	if got := env.Get("first"); got.Kind != KindSplitElement || got.Position != Forward(0) {
		t.Errorf("first: want Forward(0), got %v", got)
	}
	if got := env.Get("rest"); !got.Equal(SplitResult(1, 1)) {
		t.Errorf("rest: want SplitResult{1,1}, got %v", got)
	}
	if got := env.Get("last"); got.Kind != KindSplitElement || got.Position != Backward(1) {
		t.Errorf("last: want Backward(1), got %v", got)
	}
}

func TestPopThenSliceAbsorption(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.split_contents()
    bits.pop(0)
    rest = bits[1:]
`)
	if got := env.Get("rest"); !got.Equal(SplitResult(2, 0)) {
		t.Errorf("rest: want SplitResult{2,0}, got %v", got)
	}
}

func TestBackPops(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.split_contents()
    bits.pop()
    head = bits[:-1]
`)
	if got := env.Get("bits"); !got.Equal(SplitResult(0, 1)) {
		t.Errorf("bits: want SplitResult{0,1}, got %v", got)
	}
	if got := env.Get("head"); !got.Equal(SplitResult(0, 2)) {
		t.Errorf("head: want SplitResult{0,2}, got %v", got)
	}
}

func TestUnmodeledCallYieldsUnknown(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.contents.rsplit()
    other = some.module.call(token)
`)
	if got := env.Get("bits"); !got.IsUnknown() {
		t.Errorf("bits: want Unknown, got %v", got)
	}
	if got := env.Get("other"); !got.IsUnknown() {
		t.Errorf("other: want Unknown, got %v", got)
	}
}

func TestContentsSplitMaxsplit(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    pair = token.contents.split(None, 1)
`)
	got := env.Get("pair")
	if got.Kind != KindTuple || len(got.Tuple) != 2 {
		t.Fatalf("pair: want 2-tuple, got %v", got)
	}
	if got.Tuple[0].Kind != KindSplitElement || got.Tuple[0].Position != Forward(0) {
		t.Errorf("pair[0]: want Forward(0), got %v", got.Tuple[0])
	}
	if !got.Tuple[1].IsUnknown() {
		t.Errorf("pair[1]: want Unknown, got %v", got.Tuple[1])
	}
}

// TestLoopWidensAssignedNames pins the open-question resolution: any
// variable assigned inside a for/while body, and the loop variable
// itself, is Unknown in the post-loop environment even when a single
// walked pass would have computed something more precise.
func TestLoopWidensAssignedNames(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.split_contents()
    args = bits[1:]
    for bit in bits:
        args = bit
`)
	if got := env.Get("args"); !got.IsUnknown() {
		t.Errorf("args: want Unknown after loop, got %v", got)
	}
	if got := env.Get("bit"); !got.IsUnknown() {
		t.Errorf("bit: want Unknown after loop, got %v", got)
	}
	if got := env.Get("bits"); !got.Equal(SplitResult(0, 0)) {
		t.Errorf("bits: loop must not disturb unassigned names, got %v", got)
	}
}

func TestTokenKwargsWidens(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = token.split_contents()
    token_kwargs(bits, parser)
`)
	if got := env.Get("bits"); !got.IsUnknown() {
		t.Errorf("bits: want Unknown after token_kwargs, got %v", got)
	}
}

func TestHelperInlining(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    bits = helper(token)

def helper(token):
    return token.split_contents()
`)
	if got := env.Get("bits"); !got.Equal(SplitResult(0, 0)) {
		t.Errorf("bits: want SplitResult{0,0} from inlined helper, got %v", got)
	}
}

func TestHelperCycleRecoversToUnknown(t *testing.T) {
	env := runCompileFunc(t, `
def do_tag(parser, token):
    x = ping(token)

def ping(token):
    return pong(token)

def pong(token):
    return ping(token)
`)
	if got := env.Get("x"); !got.IsUnknown() {
		t.Errorf("x: want Unknown from cyclic helpers, got %v", got)
	}
}

func TestJoinCollapsesDisagreement(t *testing.T) {
	if got := Join(Int64(1), Int64(2)); !got.IsUnknown() {
		t.Fatalf("expected disagreement to collapse to Unknown, got %v", got)
	}
	if got := Join(Str("x"), Str("x")); !got.Equal(Str("x")) {
		t.Fatalf("expected agreement to be preserved, got %v", got)
	}
}
