package absint

import "github.com/djls-dev/djls/internal/pyast"

const kindPatternList = "pattern_list"
const kindListSplatPattern = "list_splat_pattern"

// Unpack binds a target (a bare name, a
// tuple/pattern-list, or a starred tuple) against a right-hand-side
// abstract value. It mutates env in place.
func Unpack(target *pyast.Node, value Value, env Env) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case pyast.KindIdentifier:
		env.Set(target.Text(), value)
	case pyast.KindTuple, kindPatternList:
		unpackTuple(target.Children(), value, env)
	default:
		// Attribute targets, subscript targets, etc. carry no tracked
		// binding in this lattice.
	}
}

func unpackTuple(targets []*pyast.Node, value Value, env Env) {
	starIdx := -1
	for i, t := range targets {
		if t.Kind() == kindListSplatPattern {
			starIdx = i
			break
		}
	}

	if starIdx < 0 {
		switch value.Kind {
		case KindSplitResult:
			for i, t := range targets {
				Unpack(t, SplitElement(Forward(value.FrontPops+i)), env)
			}
		case KindTuple:
			for i, t := range targets {
				if i < len(value.Tuple) {
					Unpack(t, value.Tuple[i], env)
				} else {
					Unpack(t, Unknown(), env)
				}
			}
		default:
			for _, t := range targets {
				Unpack(t, Unknown(), env)
			}
		}
		return
	}

	n := len(targets)
	k := starIdx
	starredTarget := starredInner(targets[k])

	switch value.Kind {
	case KindSplitResult:
		for i := 0; i < k; i++ {
			Unpack(targets[i], SplitElement(Forward(value.FrontPops+i)), env)
		}
		Unpack(starredTarget, SplitResult(value.FrontPops+k, value.BackPops+(n-k-1)), env)
		for i := k + 1; i < n; i++ {
			Unpack(targets[i], SplitElement(Backward(n-i)), env)
		}
	default:
		for i := 0; i < k; i++ {
			Unpack(targets[i], Unknown(), env)
		}
		Unpack(starredTarget, Unknown(), env)
		for i := k + 1; i < n; i++ {
			Unpack(targets[i], Unknown(), env)
		}
	}
}

// starredInner unwraps `*rest` down to the bare `rest` name node.
func starredInner(n *pyast.Node) *pyast.Node {
	if n.ChildCount() >= 1 {
		return n.Child(0)
	}
	return n
}
