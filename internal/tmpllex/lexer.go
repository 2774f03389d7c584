package tmpllex

import (
	"strings"

	"github.com/djls-dev/djls/internal/span"
)

const (
	markerVariableOpen  = "{{"
	markerVariableClose = "}}"
	markerTagOpen       = "{%"
	markerTagClose      = "%}"
	markerCommentOpen   = "{#"
	markerCommentClose  = "#}"
)

// lexer scans template source once, front to back, emitting flat nodes.
// Unlike a rendering engine's lexer it never errors out as a whole: an
// unterminated marker becomes a NodeError that covers the rest of the
// input, and every node before it is still emitted.
type lexer struct {
	input string
	pos   int
	nodes []Node
}

// Tokenize scans source into its flat node list.
func Tokenize(source string) []Node {
	l := &lexer{input: source}
	l.run()
	return l.nodes
}

func (l *lexer) run() {
	textStart := l.pos
	for l.pos < len(l.input) {
		rest := l.input[l.pos:]
		var open, close string
		switch {
		case strings.HasPrefix(rest, markerCommentOpen):
			open, close = markerCommentOpen, markerCommentClose
		case strings.HasPrefix(rest, markerVariableOpen):
			open, close = markerVariableOpen, markerVariableClose
		case strings.HasPrefix(rest, markerTagOpen):
			open, close = markerTagOpen, markerTagClose
		default:
			l.pos++
			continue
		}

		l.flushText(textStart, l.pos)
		l.lexMarker(open, close)
		textStart = l.pos
	}
	l.flushText(textStart, l.pos)
}

func (l *lexer) flushText(start, end int) {
	if end > start {
		l.nodes = append(l.nodes, Node{Kind: NodeText, Span: mkSpan(start, end)})
	}
}

// lexMarker consumes one {{ }}, {% %}, or {# #} construct starting at
// l.pos. If the closing delimiter never appears the rest of the input
// is consumed into a NodeError, matching how Django reports an
// unclosed marker against everything that follows it.
func (l *lexer) lexMarker(open, close string) {
	start := l.pos
	idx := strings.Index(l.input[start+len(open):], close)
	if idx < 0 {
		l.pos = len(l.input)
		l.nodes = append(l.nodes, Node{
			Kind:    NodeError,
			Span:    mkSpan(start, l.pos),
			Message: "Unclosed '" + open + "' marker.",
		})
		return
	}

	contentStart := start + len(open)
	contentEnd := contentStart + idx
	end := contentEnd + len(close)
	l.pos = end

	content := l.input[contentStart:contentEnd]
	full := mkSpan(start, end)

	switch open {
	case markerCommentOpen:
		l.nodes = append(l.nodes, Node{Kind: NodeComment, Span: full})
	case markerVariableOpen:
		l.nodes = append(l.nodes, l.lexVariable(content, contentStart, full))
	case markerTagOpen:
		l.nodes = append(l.nodes, l.lexTag(content, full))
	}
}

// lexTag splits the marker contents into bits the way Django's
// smart_split does: on whitespace, except that quoted sections (and
// tokens a quoted section is embedded in, like key="a b") stay
// together.
func (l *lexer) lexTag(content string, full span.Span) Node {
	bits := SmartSplit(content)
	if len(bits) == 0 {
		return Node{Kind: NodeError, Span: full, Message: "Empty tag marker."}
	}
	return Node{Kind: NodeTag, Span: full, Name: bits[0], Bits: bits}
}

// lexVariable splits `expr|filter:arg|filter2` on top-level pipes and
// records a FilterRef (with a name-covering span) per filter.
func (l *lexer) lexVariable(content string, contentStart int, full span.Span) Node {
	parts, offsets := splitPipes(content)
	if len(parts) == 0 {
		return Node{Kind: NodeVariable, Span: full}
	}

	node := Node{Kind: NodeVariable, Span: full, Expr: strings.TrimSpace(parts[0])}
	for i := 1; i < len(parts); i++ {
		raw := parts[i]
		name, hasArg := splitFilterArg(raw)

		trimmed := strings.TrimSpace(name)
		nameOff := offsets[i] + leadingSpace(raw)
		start := contentStart + nameOff
		node.Filters = append(node.Filters, FilterRef{
			Name:   trimmed,
			HasArg: hasArg,
			Span:   mkSpan(start, start+len(trimmed)),
		})
	}
	return node
}

// splitPipes splits on '|' outside quoted strings, returning the parts
// and each part's byte offset within content.
func splitPipes(content string) ([]string, []int) {
	var parts []string
	var offsets []int
	start := 0
	var quote byte
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '|':
			parts = append(parts, content[start:i])
			offsets = append(offsets, start)
			start = i + 1
		}
	}
	parts = append(parts, content[start:])
	offsets = append(offsets, start)
	return parts, offsets
}

// splitFilterArg separates `name:arg` at the first top-level colon.
func splitFilterArg(part string) (name string, hasArg bool) {
	var quote byte
	for i := 0; i < len(part); i++ {
		c := part[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ':':
			return part[:i], true
		}
	}
	return part, false
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n\r"))
}

// SmartSplit splits a tag's contents on whitespace while keeping quoted
// sections intact, including quotes embedded mid-token (key="a b"
// stays one bit). This mirrors django.utils.text.smart_split, which is
// what produces the bits a compile function sees.
func SmartSplit(s string) []string {
	var bits []string
	i := 0
	n := len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		var quote byte
		for i < n {
			c := s[i]
			switch {
			case quote != 0:
				if c == quote && (i == 0 || s[i-1] != '\\') {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case isSpace(c):
				goto done
			}
			i++
		}
	done:
		bits = append(bits, s[start:i])
	}
	return bits
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
