package query

import "testing"

func TestMemoizationAvoidsRecompute(t *testing.T) {
	e := NewEngine()
	calls := 0
	q := New("double", func(n int) string { return string(rune('0' + n)) }, 0, func(ctx *Ctx, n int) int {
		calls++
		return n * 2
	})

	if got := Run(e, q, 3); got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
	if got := Run(e, q, 3); got != 6 {
		t.Fatalf("got %d, want 6", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 execution, got %d", calls)
	}

	// Different args is a different memo entry.
	if got := Run(e, q, 4); got != 8 {
		t.Fatalf("got %d, want 8", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 executions total, got %d", calls)
	}
}

func TestRevisionInvalidation(t *testing.T) {
	e := NewEngine()
	calls := 0
	readFile := New("readFile", func(path string) string { return path }, "", func(ctx *Ctx, path string) string {
		calls++
		ctx.ReadFile(path)
		return path
	})

	Run(e, readFile, "a.py")
	Run(e, readFile, "a.py")
	if calls != 1 {
		t.Fatalf("expected memoized, got %d calls", calls)
	}

	e.SetRevision("a.py")
	Run(e, readFile, "a.py")
	if calls != 2 {
		t.Fatalf("expected re-execution after revision bump, got %d calls", calls)
	}

	// Bumping an unrelated file must not invalidate a.py's memo entry.
	e.SetRevision("b.py")
	Run(e, readFile, "a.py")
	if calls != 2 {
		t.Fatalf("unrelated revision bump should not invalidate, got %d calls", calls)
	}
}

func TestCycleRecoveryReturnsBottom(t *testing.T) {
	e := NewEngine()
	var self *Query[int, int]
	self = New("selfref", func(n int) string { return "k" }, -1, func(ctx *Ctx, n int) int {
		return Get(ctx, self, n) + 1
	})

	got := Run(e, self, 1)
	if got != 0 {
		// bottom (-1) + 1 == 0: the cycle recovers to bottom, and the
		// outer frame still applies its own logic on top of it.
		t.Fatalf("got %d, want 0 (bottom -1 + 1)", got)
	}
}

func TestAccumulatorCollectsTransitiveEmissions(t *testing.T) {
	e := NewEngine()
	diag := NewAccumulator[string]("diagnostics")

	leaf := New("leaf", func(n int) string { return "leaf" }, 0, func(ctx *Ctx, n int) int {
		diag.Emit(ctx, "leaf-error")
		return n
	})
	root := New("root", func(n int) string { return "root" }, 0, func(ctx *Ctx, n int) int {
		Get(ctx, leaf, n)
		diag.Emit(ctx, "root-error")
		return n
	})

	errs := Collect(e, root, 1, diag)
	if len(errs) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(errs), errs)
	}
	if errs[0] != "leaf-error" || errs[1] != "root-error" {
		t.Fatalf("unexpected order: %v", errs)
	}

	// Re-running without invalidation must return the same accumulated
	// stream without re-executing.
	errs2 := Collect(e, root, 1, diag)
	if len(errs2) != 2 {
		t.Fatalf("second collect: got %d, want 2", len(errs2))
	}
}
