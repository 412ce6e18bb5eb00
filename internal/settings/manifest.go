package settings

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
)

// ManifestName is the optional workspace manifest carrying default
// configuration. LSP-provided values win over manifest values.
const ManifestName = "udonsharp-linter.toml"

type manifestConfig struct {
	Profile         string            `toml:"profile"`
	UnityAPISurface string            `toml:"unity_api_surface"`
	CustomStubPath  string            `toml:"custom_stub_path"`
	PolicyPackPaths []string          `toml:"policy_pack_paths"`
	RuleOverrides   map[string]string `toml:"rule_overrides"`
	LogLevel        string            `toml:"log_level"`
	MaxDiagnostics  int               `toml:"max_diagnostics"`
}

// loadManifest layers udonsharp-linter.toml (if present at the workspace
// root) over the given defaults. A malformed manifest warns and is ignored.
func loadManifest(log *slog.Logger, workspaceRoot string, base Settings) Settings {
	path := filepath.Join(workspaceRoot, ManifestName)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("manifest unreadable", "path", path, "error", err)
		}
		return base
	}
	var cfg manifestConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		log.Warn("manifest malformed, ignoring", "path", path, "error", err)
		return base
	}
	out := base
	if cfg.Profile != "" {
		out.Profile = cfg.Profile
	}
	switch strings.ToLower(cfg.UnityAPISurface) {
	case SurfaceBundled, SurfaceCustom, SurfaceNone:
		out.UnityAPISurface = strings.ToLower(cfg.UnityAPISurface)
	case "":
	default:
		log.Warn("manifest has invalid unity_api_surface", "value", cfg.UnityAPISurface)
	}
	if cfg.CustomStubPath != "" {
		out.CustomStubPath = absJoin(workspaceRoot, cfg.CustomStubPath)
	}
	if len(cfg.PolicyPackPaths) > 0 {
		out.PolicyPackPaths = make([]string, 0, len(cfg.PolicyPackPaths))
		for _, p := range cfg.PolicyPackPaths {
			if p == "" {
				continue
			}
			out.PolicyPackPaths = append(out.PolicyPackPaths, absJoin(workspaceRoot, p))
		}
	}
	if len(cfg.RuleOverrides) > 0 {
		out.RuleOverrides = make(map[string]diag.Severity, len(cfg.RuleOverrides))
		for id, sevRaw := range cfg.RuleOverrides {
			sev, ok := diag.ParseSeverity(sevRaw)
			if !ok {
				log.Warn("manifest rule override has invalid severity", "rule", id, "severity", sevRaw)
				continue
			}
			out.RuleOverrides[policy.NormalizeID(id)] = sev
		}
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
		out.LogLevel = strings.ToLower(cfg.LogLevel)
	case "":
	default:
		log.Warn("manifest has invalid log_level", "value", cfg.LogLevel)
	}
	if cfg.MaxDiagnostics > 0 {
		out.MaxDiagnostics = cfg.MaxDiagnostics
	}
	if out.UnityAPISurface != SurfaceCustom {
		out.CustomStubPath = ""
	}
	return out
}

func absJoin(root, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}
