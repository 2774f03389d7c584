package absint

import "fmt"

// SplitPosition addresses one element of a tag's split-contents list,
// either counted from the front (0 = the tag name itself) or from the
// back (1-based). It is the lattice's address type, used both inside
// Value.Position and directly in extracted TagRule constraints.
type SplitPosition struct {
	Backward bool
	N        int
}

func Forward(n int) SplitPosition  { return SplitPosition{Backward: false, N: n} }
func Backward(n int) SplitPosition { return SplitPosition{Backward: true, N: n} }

func (p SplitPosition) String() string {
	if p.Backward {
		return fmt.Sprintf("Backward(%d)", p.N)
	}
	return fmt.Sprintf("Forward(%d)", p.N)
}

// ToBitsIndex resolves the position to a 0-based index into the
// arguments list (split contents minus the tag name at index 0), given
// the total split-contents length. It returns (0, false) when the
// position is out of range or addresses the tag-name slot itself;
// callers (the validator, the extractor's slot filler) must silently
// skip the constraint in that case.
func (p SplitPosition) ToBitsIndex(splitLen int) (int, bool) {
	if p.Backward {
		idx := splitLen - p.N
		if idx <= 0 || idx >= splitLen {
			return 0, false
		}
		return idx - 1, true
	}
	if p.N <= 0 || p.N >= splitLen {
		return 0, false
	}
	return p.N - 1, true
}
