package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/workspace"
)

// renderer writes diagnostics as `path:line:col: CODE message`, styled
// when stdout is a terminal and plain when piped.
type renderer struct {
	out    io.Writer
	styled bool

	codeColor map[diag.Severity]*color.Color
	pathColor *color.Color
}

func newRenderer(out io.Writer, styled bool) *renderer {
	r := &renderer{out: out, styled: styled}
	if styled {
		r.codeColor = map[diag.Severity]*color.Color{
			diag.Error:   color.New(color.FgRed, color.Bold),
			diag.Warning: color.New(color.FgYellow, color.Bold),
			diag.Info:    color.New(color.FgBlue),
			diag.Hint:    color.New(color.FgCyan),
		}
		r.pathColor = color.New(color.Bold)
	}
	return r
}

func (r *renderer) render(path, content string, d diag.Diagnostic) {
	line, col := workspace.PositionFromOffset(content, int(d.Primary.Start))
	location := fmt.Sprintf("%s:%d:%d", path, line+1, col+1)
	if !r.styled {
		fmt.Fprintf(r.out, "%s: %s %s\n", location, d.Code, d.Message)
		return
	}
	fmt.Fprintf(r.out, "%s: %s %s\n",
		r.pathColor.Sprint(location),
		r.codeColor[d.Severity].Sprint(d.Code),
		d.Message)
}

func (r *renderer) summary(errorCount int) {
	noun := "errors"
	if errorCount == 1 {
		noun = "error"
	}
	if r.styled {
		fmt.Fprintf(r.out, "\n%s\n", color.New(color.Bold).Sprintf("%d %s found", errorCount, noun))
		return
	}
	fmt.Fprintf(r.out, "\n%d %s found\n", errorCount, noun)
}

func renderConfigError(out io.Writer, err error) {
	fmt.Fprintf(out, "%s: %v\n", diag.ConfigError, err)
}
