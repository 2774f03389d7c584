package workspace

import "testing"

func TestOffsetFromPosition(t *testing.T) {
	text := "ab\ncd\xF0\x9F\x98\x80e\nf" // line 1 contains an emoji (2 UTF-16 units)
	cases := []struct {
		line, char, want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 99, 2}, // clamped to line end
		{1, 0, 3},
		{1, 2, 5},
		{1, 4, 9}, // past the emoji's two UTF-16 units
		{2, 0, 11},
		{9, 0, 12}, // past last line clamps to len
	}
	for _, tc := range cases {
		if got := OffsetFromPosition(text, tc.line, tc.char); got != tc.want {
			t.Errorf("(%d,%d): got %d, want %d", tc.line, tc.char, got, tc.want)
		}
	}
}

func TestPositionFromOffset(t *testing.T) {
	text := "ab\ncd\xF0\x9F\x98\x80e\nf"
	line, char := PositionFromOffset(text, 9)
	if line != 1 || char != 4 {
		t.Fatalf("offset 9: got (%d,%d), want (1,4)", line, char)
	}
	line, char = PositionFromOffset(text, 0)
	if line != 0 || char != 0 {
		t.Fatalf("offset 0: got (%d,%d)", line, char)
	}
}

func TestApplyChange(t *testing.T) {
	text := "hello\nworld\n"
	got := ApplyChange(text, 1, 0, 1, 5, "there")
	if got != "hello\nthere\n" {
		t.Fatalf("got %q", got)
	}
	// Insertion at a point.
	got = ApplyChange(text, 0, 5, 0, 5, "!")
	if got != "hello!\nworld\n" {
		t.Fatalf("got %q", got)
	}
}
