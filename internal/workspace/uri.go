package workspace

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URIToPath converts a file: URI to an absolute filesystem path.
// untitled: URIs keep their opaque name so diagnostics can still be
// scoped to the document.
func URIToPath(uri string) string {
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, "untitled:") {
		return uri
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// PathToURI converts a filesystem path to a file: URI.
func PathToURI(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "untitled:") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
