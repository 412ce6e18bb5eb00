package stubs

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ushlint/internal/settings"
)

// BundledDir is the stub directory shipped beside the executable.
const BundledDir = "Stubs/Generated"

// Resolver produces the metadata reference set for the compilation.
type Resolver struct {
	log     *slog.Logger
	baseDir string
}

// NewResolver builds a resolver; baseDir is the directory holding the
// bundled Stubs tree (normally the executable's directory).
func NewResolver(log *slog.Logger, baseDir string) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{log: log, baseDir: baseDir}
}

// Resolve returns the catalogs for the configured Unity API surface: the
// base runtime set always, plus every loadable .dll under the bundled or
// custom stub directory. Missing directories warn but do not fail.
func (r *Resolver) Resolve(s settings.Settings) []*Catalog {
	catalogs := Base()
	switch s.UnityAPISurface {
	case settings.SurfaceBundled:
		dir := filepath.Join(r.baseDir, filepath.FromSlash(BundledDir))
		catalogs = append(catalogs, r.loadDir(dir)...)
	case settings.SurfaceCustom:
		catalogs = append(catalogs, r.loadDir(s.CustomStubPath)...)
	case settings.SurfaceNone:
	}
	return catalogs
}

func (r *Resolver) loadDir(dir string) []*Catalog {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		r.log.Warn("stub directory missing", "dir", dir, "error", err)
		return nil
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn("stub walk failed", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dll") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		r.log.Warn("stub directory unreadable", "dir", dir, "error", err)
		return nil
	}
	sort.Strings(paths)
	out := make([]*Catalog, 0, len(paths))
	for _, path := range paths {
		cat, err := ReadFile(path)
		if err != nil {
			r.log.Warn("stub catalog unloadable, skipping", "path", path, "error", err)
			continue
		}
		out = append(out, cat)
	}
	return out
}
