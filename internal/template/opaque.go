package template

import (
	"github.com/djls-dev/djls/internal/span"
	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/tmpllex"
)

// OpaqueRegions computes the byte spans whose contents the template
// parser treats as raw text: verbatim and comment blocks plus any
// extracted tag whose BlockSpec says opaque. Each region extends from
// the opener's end to the matching closer's start; an opener with no
// closer is opaque to end of input (the unclosed-tag diagnostic is the
// block balancer's job, not ours).
func OpaqueRegions(nodes []tmpllex.Node, specFor func(name string) *tagdb.BlockSpec, inputLen uint32) []span.Span {
	var regions []span.Span

	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if n.Kind != tmpllex.NodeTag {
			continue
		}
		spec := specFor(n.Name)
		if spec == nil || !spec.Opaque || spec.EndTag == "" {
			continue
		}

		closerIdx := -1
		for j := i + 1; j < len(nodes); j++ {
			c := nodes[j]
			if c.Kind == tmpllex.NodeTag && c.Name == spec.EndTag {
				closerIdx = j
				break
			}
		}
		if closerIdx < 0 {
			regions = append(regions, span.Span{Start: n.Span.End, End: inputLen})
			break
		}
		regions = append(regions, span.Span{Start: n.Span.End, End: nodes[closerIdx].Span.Start})
		i = closerIdx
	}
	return regions
}

// InOpaqueRegion reports whether pos falls inside any of the regions.
func InOpaqueRegion(regions []span.Span, pos uint32) bool {
	for _, r := range regions {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}
