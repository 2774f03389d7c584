// Package span defines the file and byte-range primitives shared by every
// other package in djls. A File's identity is its path; its content is
// never stored here; see internal/workspace for the VFS that produces
// content for a given revision.
package span

import "fmt"

// File identifies a source file by path together with a revision number.
// Nothing in djls maintains Revision: the live per-path counters are
// kept by the query engine, which the workspace bumps on every open,
// change, and close.
type File struct {
	Path     string
	Revision int
}

func (f File) String() string {
	return fmt.Sprintf("%s@%d", f.Path, f.Revision)
}

// Span is a half-open byte range [Start, End) into a specific file's
// content.
type Span struct {
	Start uint32
	End   uint32
}

// New builds a Span, panicking if start > end; callers are expected to
// have already validated offsets against content length.
func New(start, end uint32) Span {
	if start > end {
		panic(fmt.Sprintf("span: start %d > end %d", start, end))
	}
	return Span{Start: start, End: end}
}

// Len reports the number of bytes covered by the span.
func (s Span) Len() uint32 {
	return s.End - s.Start
}

// Contains reports whether the half-open span covers byte offset pos.
func (s Span) Contains(pos uint32) bool {
	return pos >= s.Start && pos < s.End
}

// Expand pads the span symmetrically by l bytes on the left and r bytes
// on the right. Used to widen a tag-name span out to cover its {% %}
// delimiters for diagnostic display.
func (s Span) Expand(l, r uint32) Span {
	start := s.Start
	if l > start {
		start = 0
	} else {
		start -= l
	}
	return Span{Start: start, End: s.End + r}
}

// ValidFor reports whether the span is a legal half-open range into
// content of the given length.
func (s Span) ValidFor(contentLen int) bool {
	return s.Start <= s.End && int(s.End) <= contentLen
}
