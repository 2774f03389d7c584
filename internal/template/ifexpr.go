package template

import "fmt"

// CheckIfExpression runs Django's small if-tag expression grammar over
// the tag's argument bits. It returns an error message in Django's own
// phrasing when the expression is malformed, or "" when it parses.
//
// The grammar is a Pratt parser with left binding powers:
// or (6), and (7), prefix not (8), in / not in (9), and the
// comparisons is / is not / == / != / > / >= / < / <= (10). The
// compound tokens `is not` and `not in` are assembled by lookahead
// before parsing begins.
func CheckIfExpression(bits []string) string {
	p := &ifParser{tokens: combineCompound(bits)}
	if msg := p.expression(0); msg != "" {
		return msg
	}
	if p.pos < len(p.tokens) {
		return fmt.Sprintf("Unused '%s' at end of if expression.", p.tokens[p.pos])
	}
	return ""
}

// infixPower maps each operator token to its left binding power. A
// token absent from this map is an operand.
var infixPower = map[string]int{
	"or":     6,
	"and":    7,
	"in":     9,
	"not in": 9,
	"is":     10,
	"is not": 10,
	"==":     10,
	"!=":     10,
	">":      10,
	">=":     10,
	"<":      10,
	"<=":     10,
}

const notPower = 8

func combineCompound(bits []string) []string {
	var out []string
	for i := 0; i < len(bits); i++ {
		if i+1 < len(bits) {
			if bits[i] == "is" && bits[i+1] == "not" {
				out = append(out, "is not")
				i++
				continue
			}
			if bits[i] == "not" && bits[i+1] == "in" {
				out = append(out, "not in")
				i++
				continue
			}
		}
		out = append(out, bits[i])
	}
	return out
}

type ifParser struct {
	tokens []string
	pos    int
}

// expression parses one expression whose operators all bind tighter
// than rbp, returning "" on success or the error message.
func (p *ifParser) expression(rbp int) string {
	if msg := p.operand(); msg != "" {
		return msg
	}
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		lbp, isOp := infixPower[tok]
		if !isOp || lbp <= rbp {
			break
		}
		p.pos++
		if msg := p.expression(lbp); msg != "" {
			return msg
		}
	}
	return ""
}

func (p *ifParser) operand() string {
	if p.pos >= len(p.tokens) {
		return "Unexpected end of expression in if tag."
	}
	tok := p.tokens[p.pos]
	if tok == "not" {
		p.pos++
		return p.expression(notPower)
	}
	if _, isOp := infixPower[tok]; isOp {
		return fmt.Sprintf("Not expecting '%s' in this position in if tag.", tok)
	}
	p.pos++
	return ""
}
