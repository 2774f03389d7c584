// Package diag defines the structured diagnostic model: an error kind
// with a stable textual code, a primary span, an optional secondary
// span, and a severity that per-code configuration can override.
package diag

import (
	"fmt"

	"github.com/djls-dev/djls/internal/span"
)

// Severity is the rendered weight of a diagnostic. Off suppresses the
// diagnostic entirely; the CLI's exit status counts only Error-severity
// diagnostics that survive filtering.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
	Off
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	case Off:
		return "off"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a configuration string to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "error":
		return Error, true
	case "warning":
		return Warning, true
	case "info":
		return Info, true
	case "hint":
		return Hint, true
	case "off":
		return Off, true
	}
	return Error, false
}

// Diagnostic is one reported problem in one file. Code is a stable
// external identifier from the registry in codes.go; Message is the
// human-readable text; Primary points at the offending range and
// Secondary, when present, at a related range (e.g. the opening tag of
// an unbalanced block).
type Diagnostic struct {
	Code      string
	Primary   span.Span
	Message   string
	Secondary *span.Span
	Severity  Severity
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%d..%d]: %s", d.Code, d.Primary.Start, d.Primary.End, d.Message)
}

// New builds a diagnostic with the code's default severity.
func New(code string, primary span.Span, message string) Diagnostic {
	return Diagnostic{Code: code, Primary: primary, Message: message, Severity: DefaultSeverity(code)}
}

// WithSecondary attaches a related span.
func (d Diagnostic) WithSecondary(s span.Span) Diagnostic {
	d.Secondary = &s
	return d
}
