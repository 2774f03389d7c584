// Package config loads the project-root djls.toml: template
// directories, per-code severity overrides, and virtual-environment
// discovery hints for a future Python inspector.
package config

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/pelletier/go-toml"

	"github.com/djls-dev/djls/internal/diag"
)

// FileName is the configuration file looked up at the project root.
const FileName = "djls.toml"

// Config is the parsed project configuration. The zero value is a
// valid default for a project with no djls.toml.
type Config struct {
	Templates TemplatesConfig   `toml:"templates"`
	Severity  map[string]string `toml:"severity"`
	Python    PythonConfig      `toml:"python"`
}

type TemplatesConfig struct {
	// Dirs lists template directories relative to the project root.
	// Empty means "discover by scanning the whole project".
	Dirs []string `toml:"dirs"`
}

type PythonConfig struct {
	// Venv is a hint for locating the project's virtual environment,
	// consumed by an inspector when one is attached.
	Venv string `toml:"venv"`
}

// Load reads djls.toml under root. A missing file yields the default
// configuration and no error; a malformed file is an error the caller
// reports as a T901.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", FileName)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing %s", FileName)
	}
	for code, sev := range cfg.Severity {
		if _, ok := diag.ParseSeverity(sev); !ok {
			return nil, errors.NotValidf("severity %q for code %s", sev, code)
		}
	}
	return &cfg, nil
}

// SeverityFor resolves a code's severity: the TOML override when
// present, the registry default otherwise.
func (c *Config) SeverityFor(code string) diag.Severity {
	if c != nil {
		if s, ok := c.Severity[code]; ok {
			if sev, ok := diag.ParseSeverity(s); ok {
				return sev
			}
		}
	}
	return diag.DefaultSeverity(code)
}

// TemplateDirs resolves the configured template directories against
// root, falling back to root itself when none are configured.
func (c *Config) TemplateDirs(root string) []string {
	if c == nil || len(c.Templates.Dirs) == 0 {
		return []string{root}
	}
	out := make([]string, 0, len(c.Templates.Dirs))
	for _, d := range c.Templates.Dirs {
		if filepath.IsAbs(d) {
			out = append(out, d)
		} else {
			out = append(out, filepath.Join(root, d))
		}
	}
	return out
}
