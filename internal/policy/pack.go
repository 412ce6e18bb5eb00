package policy

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ushlint/internal/diag"
)

// packFile mirrors the on-disk policy pack shape.
type packFile struct {
	Rules []packRule `json:"rules"`
}

type packRule struct {
	ID              string                         `json:"id"`
	Title           string                         `json:"title"`
	Message         string                         `json:"message"`
	Category        string                         `json:"category"`
	DefaultSeverity string                         `json:"defaultSeverity"`
	HelpURI         string                         `json:"helpUri,omitempty"`
	HasCodeFix      bool                           `json:"hasCodeFix,omitempty"`
	Profiles        map[string]string              `json:"profiles,omitempty"`
	Documentation   map[string]map[string]string   `json:"documentation,omitempty"`
}

// Loader reads policy packs from a bundled directory and explicit paths.
type Loader struct {
	log *slog.Logger
}

func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log}
}

// Load enumerates every .json under bundledDir (recursively) and every
// explicit path that exists, merging rule definitions last-wins by ID.
// Malformed files and rule entries are logged and skipped; the valid
// remainder is returned.
func (l *Loader) Load(bundledDir string, extraPaths []string) map[string]Definition {
	merged := make(map[string]Definition)
	if bundledDir != "" {
		if _, err := os.Stat(bundledDir); err != nil {
			l.log.Warn("bundled policy pack directory missing", "dir", bundledDir, "error", err)
		} else {
			l.loadDir(bundledDir, merged)
		}
	}
	for _, path := range extraPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			l.log.Warn("policy pack path missing", "path", path, "error", err)
			continue
		}
		l.loadFile(path, merged)
	}
	return merged
}

func (l *Loader) loadDir(dir string, merged map[string]Definition) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("policy pack walk failed", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		l.log.Warn("policy pack directory unreadable", "dir", dir, "error", err)
		return
	}
	// Deterministic merge order: packs later in lexical order win.
	for _, path := range files {
		l.loadFile(path, merged)
	}
}

func (l *Loader) loadFile(path string, merged map[string]Definition) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from configuration
	if err != nil {
		l.log.Warn("policy pack unreadable", "path", path, "error", err)
		return
	}
	var pack packFile
	if err := json.Unmarshal(data, &pack); err != nil {
		l.log.Warn("policy pack malformed", "path", path, "error", err)
		return
	}
	if pack.Rules == nil {
		l.log.Warn("policy pack has no rules array", "path", path)
		return
	}
	for _, raw := range pack.Rules {
		definition, ok := l.convert(path, raw)
		if !ok {
			continue
		}
		merged[definition.ID] = definition
	}
}

func (l *Loader) convert(path string, raw packRule) (Definition, bool) {
	id := NormalizeID(raw.ID)
	if id == "" || raw.Title == "" || raw.Message == "" || raw.Category == "" || raw.DefaultSeverity == "" {
		l.log.Warn("policy pack rule missing required fields", "path", path, "id", raw.ID)
		return Definition{}, false
	}
	sev, ok := diag.ParseSeverity(raw.DefaultSeverity)
	if !ok {
		l.log.Warn("policy pack rule has invalid defaultSeverity", "path", path, "id", id, "defaultSeverity", raw.DefaultSeverity)
		return Definition{}, false
	}
	definition := Definition{
		ID:              id,
		Title:           raw.Title,
		MessageTemplate: raw.Message,
		Category:        raw.Category,
		DefaultSeverity: sev,
		HelpURI:         raw.HelpURI,
		HasCodeFix:      raw.HasCodeFix,
	}
	if len(raw.Profiles) > 0 {
		definition.Profiles = make(map[string]diag.Severity, len(raw.Profiles))
		for profile, sevRaw := range raw.Profiles {
			profileSev, ok := diag.ParseSeverity(sevRaw)
			if !ok {
				l.log.Warn("policy pack rule has invalid profile severity", "path", path, "id", id, "profile", profile)
				continue
			}
			definition.Profiles[profile] = profileSev
		}
	}
	if len(raw.Documentation) > 0 {
		definition.Documentation = make(map[string]DocEntry, len(raw.Documentation))
		for locale, fields := range raw.Documentation {
			markdown, ok := fields["markdown"]
			if !ok || markdown == "" {
				l.log.Warn("policy pack documentation entry missing markdown", "path", path, "id", id, "locale", locale)
				continue
			}
			definition.Documentation[locale] = DocEntry{
				Title:    fields["title"],
				Markdown: markdown,
			}
		}
	}
	return definition, true
}
