// Package absint implements the abstract interpreter that runs over a
// tag library's compile functions: a small value lattice
// tracking token/parser handles and the shape of token.split_contents(),
// an environment, an expression evaluator, and a statement processor with
// a may-analysis branch policy.
package absint

import "fmt"

// Kind discriminates the abstract value lattice. Every Value carries exactly one Kind; the other
// fields are meaningful only for the Kinds that use them.
type Kind int

const (
	// KindUnknown is the lattice's top element: "could be anything".
	KindUnknown Kind = iota
	// KindToken is the token object passed to a compile function.
	KindToken
	// KindParser is the parser object passed to a compile function.
	KindParser
	// KindSplitResult abstracts a list derived from
	// token.split_contents(), tracking how many elements have been
	// removed from the front and back.
	KindSplitResult
	// KindSplitElement abstracts a single element read out of a
	// SplitResult at a fixed position.
	KindSplitElement
	// KindSplitLength abstracts len(<SplitResult>).
	KindSplitLength
	KindInt
	KindStr
	KindTuple
)

// Value is the tagged-union abstract value. Construct one via the
// constructor functions below (Unknown, SplitResult, ...) rather than a
// struct literal, so call sites stay readable.
type Value struct {
	Kind Kind

	// SplitResult / SplitLength
	FrontPops int
	BackPops  int

	// SplitElement
	Position SplitPosition

	Int int64
	Str string

	Tuple []Value
}

func Unknown() Value      { return Value{Kind: KindUnknown} }
func Token() Value        { return Value{Kind: KindToken} }
func Parser() Value       { return Value{Kind: KindParser} }
func Int64(i int64) Value { return Value{Kind: KindInt, Int: i} }
func Str(s string) Value  { return Value{Kind: KindStr, Str: s} }
func TupleOf(vs ...Value) Value {
	return Value{Kind: KindTuple, Tuple: vs}
}

func SplitResult(front, back int) Value {
	return Value{Kind: KindSplitResult, FrontPops: front, BackPops: back}
}

func SplitLength(front, back int) Value {
	return Value{Kind: KindSplitLength, FrontPops: front, BackPops: back}
}

func SplitElement(pos SplitPosition) Value {
	return Value{Kind: KindSplitElement, Position: pos}
}

func (v Value) IsUnknown() bool { return v.Kind == KindUnknown }

// Join implements the lattice's only combinator: any disagreement
// collapses to Unknown. There is no meet; branches overapproximate
// with Unknown rather than narrowing.
func Join(a, b Value) Value {
	if a.Equal(b) {
		return a
	}
	return Unknown()
}

// Equal performs a structural comparison, used by Join and by tests that
// assert evaluator invariants.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindSplitResult, KindSplitLength:
		return v.FrontPops == o.FrontPops && v.BackPops == o.BackPops
	case KindSplitElement:
		return v.Position == o.Position
	case KindInt:
		return v.Int == o.Int
	case KindStr:
		return v.Str == o.Str
	case KindTuple:
		if len(v.Tuple) != len(o.Tuple) {
			return false
		}
		for i := range v.Tuple {
			if !v.Tuple[i].Equal(o.Tuple[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindUnknown:
		return "Unknown"
	case KindToken:
		return "Token"
	case KindParser:
		return "Parser"
	case KindSplitResult:
		return fmt.Sprintf("SplitResult{front:%d,back:%d}", v.FrontPops, v.BackPops)
	case KindSplitElement:
		return fmt.Sprintf("SplitElement{%s}", v.Position)
	case KindSplitLength:
		return fmt.Sprintf("SplitLength{front:%d,back:%d}", v.FrontPops, v.BackPops)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.Int)
	case KindStr:
		return fmt.Sprintf("Str(%q)", v.Str)
	case KindTuple:
		return fmt.Sprintf("Tuple(%v)", v.Tuple)
	default:
		return "?"
	}
}
