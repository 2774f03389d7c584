package template

import "testing"

func TestCheckIfExpression(t *testing.T) {
	cases := []struct {
		bits []string
		want string
	}{
		{[]string{"x"}, ""},
		{[]string{"x", "and", "y"}, ""},
		{[]string{"not", "x"}, ""},
		{[]string{"x", "or", "not", "y"}, ""},
		{[]string{"a", "in", "b"}, ""},
		{[]string{"a", "not", "in", "b"}, ""},
		{[]string{"a", "is", "not", "b"}, ""},
		{[]string{"a", "==", "b", "and", "c", "<", "d"}, ""},
		{[]string{"x", "and", "y", "or", "z"}, ""},

		{[]string{"x", "and"}, "Unexpected end of expression in if tag."},
		{[]string{"not"}, "Unexpected end of expression in if tag."},
		{[]string{}, "Unexpected end of expression in if tag."},
		{[]string{"x", "y"}, "Unused 'y' at end of if expression."},
		{[]string{"and", "x"}, "Not expecting 'and' in this position in if tag."},
		{[]string{"x", "or", "=="}, "Not expecting '==' in this position in if tag."},
	}
	for _, tc := range cases {
		if got := CheckIfExpression(tc.bits); got != tc.want {
			t.Errorf("%v: got %q, want %q", tc.bits, got, tc.want)
		}
	}
}
