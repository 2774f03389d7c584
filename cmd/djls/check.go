package main

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/djls-dev/djls/internal/config"
	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/workspace"
)

// stdinPath is the synthetic file the piped-stdin template is checked
// as: the content is installed as a buffer, so no disk read happens.
const stdinPath = "<stdin>.html"

func newCheckCommand() *cobra.Command {
	var selectCodes, ignoreCodes []string

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate templates under the given paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args, selectCodes, ignoreCodes)
		},
	}
	cmd.Flags().StringSliceVar(&selectCodes, "select", nil, "only report these diagnostic codes")
	cmd.Flags().StringSliceVar(&ignoreCodes, "ignore", nil, "suppress these diagnostic codes")
	return cmd
}

func runCheck(out io.Writer, paths, selectCodes, ignoreCodes []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Trace(err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		renderConfigError(out, err)
		os.Exit(1)
	}

	ws := workspace.New()
	var templates []string

	switch {
	case len(paths) > 0:
		templates, err = discoverInto(ws, paths)
		if err != nil {
			return errors.Trace(err)
		}
	case !isatty.IsTerminal(os.Stdin.Fd()):
		// No paths and piped stdin: treat the input as one HTML
		// template. Tag modules still come from the project scan so
		// extraction-backed rules apply.
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Trace(err)
		}
		if _, err := discoverInto(ws, cfg.TemplateDirs(cwd)); err != nil {
			return errors.Trace(err)
		}
		ws.OpenDocument(stdinPath, string(data))
		templates = []string{stdinPath}
	default:
		templates, err = discoverInto(ws, cfg.TemplateDirs(cwd))
		if err != nil {
			return errors.Trace(err)
		}
	}

	renderer := newRenderer(out, isatty.IsTerminal(os.Stdout.Fd()))
	filter := newCodeFilter(cfg, selectCodes, ignoreCodes)

	errorCount := 0
	for _, path := range templates {
		diags := ws.Diagnose(path)
		sort.SliceStable(diags, func(i, j int) bool {
			return diags[i].Primary.Start < diags[j].Primary.Start
		})
		for _, d := range diags {
			sev, keep := filter.apply(d)
			if !keep {
				continue
			}
			d.Severity = sev
			renderer.render(path, ws.SourceText(path), d)
			if sev == diag.Error {
				errorCount++
			}
		}
	}

	if errorCount > 0 {
		renderer.summary(errorCount)
		os.Exit(1)
	}
	return nil
}

// discoverInto scans roots, registers discovered tag modules with the
// workspace, and returns the template list.
func discoverInto(ws *workspace.Workspace, roots []string) ([]string, error) {
	var templates []string
	var modules []string
	for _, root := range roots {
		// A path argument may be a single template file rather than a
		// directory.
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			if workspace.IsTemplate(root) {
				templates = append(templates, root)
			}
			if workspace.IsPythonModule(root) {
				modules = append(modules, root)
			}
			continue
		}
		t, m, err := workspace.Discover([]string{root})
		if err != nil {
			return nil, errors.Trace(err)
		}
		templates = append(templates, t...)
		modules = append(modules, m...)
	}
	ws.SetModules(modules)
	return templates, nil
}

// codeFilter applies --select / --ignore over the TOML severity
// overrides: CLI selection wins.
type codeFilter struct {
	cfg      *config.Config
	selected map[string]bool
	ignored  map[string]bool
}

func newCodeFilter(cfg *config.Config, selectCodes, ignoreCodes []string) *codeFilter {
	f := &codeFilter{cfg: cfg}
	if len(selectCodes) > 0 {
		f.selected = codeSet(selectCodes)
	}
	if len(ignoreCodes) > 0 {
		f.ignored = codeSet(ignoreCodes)
	}
	return f
}

func codeSet(codes []string) map[string]bool {
	out := make(map[string]bool, len(codes))
	for _, c := range codes {
		for _, part := range strings.Split(c, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out[strings.ToUpper(part)] = true
			}
		}
	}
	return out
}

func (f *codeFilter) apply(d diag.Diagnostic) (diag.Severity, bool) {
	if f.ignored[d.Code] {
		return 0, false
	}
	if f.selected != nil {
		if !f.selected[d.Code] {
			return 0, false
		}
		// Explicit selection overrides any TOML downgrade.
		return diag.Error, true
	}
	sev := f.cfg.SeverityFor(d.Code)
	if sev == diag.Off {
		return 0, false
	}
	return sev, true
}
