package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/djls-dev/djls/internal/diag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadMissingFileIsDefault(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.SeverityFor("S100"); got != diag.Error {
		t.Fatalf("default severity: got %v", got)
	}
	root := "/proj"
	if dirs := cfg.TemplateDirs(root); len(dirs) != 1 || dirs[0] != root {
		t.Fatalf("default dirs: got %v", dirs)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := writeConfig(t, `
[templates]
dirs = ["templates", "/abs/templates"]

[severity]
S104 = "off"
S111 = "warning"

[python]
venv = ".venv"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.SeverityFor("S104"); got != diag.Off {
		t.Errorf("S104: got %v", got)
	}
	if got := cfg.SeverityFor("S111"); got != diag.Warning {
		t.Errorf("S111: got %v", got)
	}
	if got := cfg.SeverityFor("S100"); got != diag.Error {
		t.Errorf("S100 should keep its default, got %v", got)
	}

	dirs := cfg.TemplateDirs(dir)
	if len(dirs) != 2 || dirs[0] != filepath.Join(dir, "templates") || dirs[1] != "/abs/templates" {
		t.Errorf("dirs: got %v", dirs)
	}
	if cfg.Python.Venv != ".venv" {
		t.Errorf("venv: got %q", cfg.Python.Venv)
	}
}

func TestLoadRejectsBadSeverity(t *testing.T) {
	dir := writeConfig(t, `
[severity]
S104 = "loud"
`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := writeConfig(t, `[severity`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
