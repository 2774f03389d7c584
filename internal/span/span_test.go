package span

import "testing"

func TestSpanContains(t *testing.T) {
	s := New(10, 20)
	if !s.Contains(10) {
		t.Error("expected span to contain its start offset")
	}
	if s.Contains(20) {
		t.Error("half-open span must not contain its end offset")
	}
	if s.Contains(9) || s.Contains(21) {
		t.Error("span contained an offset outside its range")
	}
}

func TestSpanExpand(t *testing.T) {
	s := New(10, 20)
	got := s.Expand(2, 2)
	if got.Start != 8 || got.End != 22 {
		t.Errorf("Expand(2,2) = %+v, want {8 22}", got)
	}

	// Expanding past zero clamps rather than underflowing.
	s2 := New(1, 5)
	got2 := s2.Expand(5, 0)
	if got2.Start != 0 {
		t.Errorf("Expand clamp: got start %d, want 0", got2.Start)
	}
}

func TestSpanValidFor(t *testing.T) {
	s := New(0, 10)
	if !s.ValidFor(10) {
		t.Error("span equal to content length should be valid")
	}
	if s.ValidFor(9) {
		t.Error("span beyond content length should be invalid")
	}
}

func TestFileString(t *testing.T) {
	f := File{Path: "a/b.html", Revision: 3}
	if f.String() != "a/b.html@3" {
		t.Errorf("got %q", f.String())
	}
}
