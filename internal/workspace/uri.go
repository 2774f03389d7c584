package workspace

import (
	"net/url"
	"strings"

	"github.com/juju/errors"
)

// PathFromURI maps an LSP file URI to a filesystem path.
func PathFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file://") {
		return "", errors.NotValidf("non-file URI %q", uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Annotatef(err, "parsing URI %q", uri)
	}
	path := u.Path
	if path == "" {
		return "", errors.NotValidf("empty path in URI %q", uri)
	}
	return path, nil
}

// URIFromPath maps a filesystem path to a file URI.
func URIFromPath(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
