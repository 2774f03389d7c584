package workspace

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// templateExtensions are the file extensions treated as Django
// templates when scanning a project.
var templateExtensions = map[string]bool{
	".html":   true,
	".htm":    true,
	".djhtml": true,
	".txt":    true,
}

// IsTemplate classifies a path as a template file by extension.
func IsTemplate(path string) bool {
	return templateExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsPythonModule classifies a path as a templatetag module candidate: a
// .py file somewhere under a templatetags directory.
func IsPythonModule(path string) bool {
	if filepath.Ext(path) != ".py" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "templatetags" {
			return true
		}
	}
	return false
}

// Discover walks the given roots and returns every template file and
// every templatetag module beneath them. Hidden directories, node
// modules, and Python virtual environments are skipped. Unreadable
// subtrees are skipped silently; a completely unreadable root is an
// error the caller surfaces (CLI check on a missing path).
func Discover(roots []string) (templates, pyModules []string, err error) {
	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				return nil
			}
			if d.IsDir() {
				name := d.Name()
				if strings.HasPrefix(name, ".") && name != "." ||
					name == "node_modules" || name == "__pycache__" ||
					name == "venv" || name == ".venv" {
					return filepath.SkipDir
				}
				return nil
			}
			switch {
			case IsTemplate(path):
				templates = append(templates, path)
			case IsPythonModule(path):
				pyModules = append(pyModules, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, errors.Annotatef(walkErr, "scanning %s", root)
		}
	}
	return templates, pyModules, nil
}
