package tmpllex

import "github.com/djls-dev/djls/internal/span"

func mkSpan(start, end int) span.Span {
	return span.New(uint32(start), uint32(end))
}
