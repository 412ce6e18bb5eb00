package settings

import (
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
)

// payload mirrors the udonsharpLinter configuration namespace on the wire.
// Unknown keys are ignored by json decoding.
type payload struct {
	Profile            *string           `json:"profile"`
	RuleOverrides      map[string]string `json:"ruleOverrides"`
	UnityAPISurface    *string           `json:"unityApiSurface"`
	CustomStubPath     *string           `json:"customStubPath"`
	AllowRefOut        *bool             `json:"allowRefOut"`
	CodeActionsEnabled *bool             `json:"codeActionsEnabled"`
	Telemetry          *string           `json:"telemetry"`
	PolicyPackPaths    []string          `json:"policyPackPaths"`
	LogLevel           *string           `json:"logLevel"`
	MaxDiagnostics     *int              `json:"maxDiagnostics"`
}

// Resolver turns raw configuration payloads into settings snapshots.
type Resolver struct {
	log           *slog.Logger
	workspaceRoot string
	base          Settings
	current       Settings
}

// NewResolver builds a resolver rooted at the workspace directory. The
// manifest defaults (if any) are layered over the built-in defaults.
func NewResolver(log *slog.Logger, workspaceRoot string) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	base := Default()
	if workspaceRoot != "" {
		base = loadManifest(log, workspaceRoot, base)
	}
	return &Resolver{
		log:           log,
		workspaceRoot: workspaceRoot,
		base:          base,
		current:       base,
	}
}

// Current returns the active snapshot.
func (r *Resolver) Current() Settings {
	return r.current
}

// ExtractSection pulls the udonsharpLinter object out of a configuration
// payload that may either be the whole settings tree or already scoped.
func ExtractSection(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	if section, ok := tree[ConfigSection]; ok {
		return section
	}
	return raw
}

// Apply normalises a configuration payload into a new snapshot. The second
// return is true when the snapshot differs structurally from the previous
// one (the caller's change event).
func (r *Resolver) Apply(raw json.RawMessage) (Settings, bool) {
	next := r.normalize(raw)
	if err := next.Validate(); err != nil {
		r.log.Warn("settings failed validation, reverting invalid fields", "error", err)
		next = r.revertInvalid(next)
	}
	changed := !r.current.Equal(next)
	if changed {
		r.current = next
	}
	return r.current, changed
}

func (r *Resolver) normalize(raw json.RawMessage) Settings {
	out := r.base
	out.RuleOverrides = maps.Clone(r.base.RuleOverrides)
	out.PolicyPackPaths = append([]string(nil), r.base.PolicyPackPaths...)
	if len(raw) == 0 {
		return out
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		r.log.Warn("settings payload malformed", "error", err)
		return out
	}
	if p.Profile != nil && strings.TrimSpace(*p.Profile) != "" {
		out.Profile = strings.TrimSpace(*p.Profile)
	}
	if p.RuleOverrides != nil {
		out.RuleOverrides = make(map[string]diag.Severity, len(p.RuleOverrides))
		for id, sevRaw := range p.RuleOverrides {
			sev, ok := diag.ParseSeverity(sevRaw)
			if !ok {
				r.log.Warn("ignoring rule override with invalid severity", "rule", id, "severity", sevRaw)
				continue
			}
			out.RuleOverrides[policy.NormalizeID(id)] = sev
		}
	}
	if p.UnityAPISurface != nil {
		surface := strings.ToLower(strings.TrimSpace(*p.UnityAPISurface))
		switch surface {
		case SurfaceBundled, SurfaceCustom, SurfaceNone:
			out.UnityAPISurface = surface
		default:
			r.log.Warn("invalid unityApiSurface, keeping previous", "value", *p.UnityAPISurface)
		}
	}
	if p.CustomStubPath != nil {
		out.CustomStubPath = r.resolvePath(*p.CustomStubPath)
	}
	if p.AllowRefOut != nil {
		out.AllowRefOut = *p.AllowRefOut
	}
	if p.CodeActionsEnabled != nil {
		out.CodeActionsEnabled = *p.CodeActionsEnabled
	}
	if p.Telemetry != nil {
		tel := strings.ToLower(strings.TrimSpace(*p.Telemetry))
		switch tel {
		case TelemetryOff, TelemetryMinimal:
			out.Telemetry = tel
		default:
			r.log.Warn("invalid telemetry mode, keeping previous", "value", *p.Telemetry)
		}
	}
	if p.PolicyPackPaths != nil {
		out.PolicyPackPaths = make([]string, 0, len(p.PolicyPackPaths))
		for _, path := range p.PolicyPackPaths {
			if resolved := r.resolvePath(path); resolved != "" {
				out.PolicyPackPaths = append(out.PolicyPackPaths, resolved)
			}
		}
	}
	if p.LogLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*p.LogLevel))
		switch level {
		case "debug", "info", "warn", "error":
			out.LogLevel = level
		default:
			r.log.Warn("invalid logLevel, keeping previous", "value", *p.LogLevel)
		}
	}
	if p.MaxDiagnostics != nil && *p.MaxDiagnostics > 0 {
		out.MaxDiagnostics = *p.MaxDiagnostics
	}
	// customStubPath is only meaningful for the custom surface.
	if out.UnityAPISurface != SurfaceCustom {
		out.CustomStubPath = ""
	} else if out.CustomStubPath == "" {
		r.log.Warn("unityApiSurface is custom-stubs but customStubPath is empty, falling back to none")
		out.UnityAPISurface = SurfaceNone
	}
	return out
}

// resolvePath expands ~ and resolves workspace-relative paths to absolute.
func (r *Resolver) resolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	if !filepath.IsAbs(path) && r.workspaceRoot != "" {
		path = filepath.Join(r.workspaceRoot, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// revertInvalid restores defaults for any enum field that failed
// validation, keeping the rest of the snapshot.
func (r *Resolver) revertInvalid(s Settings) Settings {
	defaults := Default()
	if s.Profile == "" {
		s.Profile = defaults.Profile
	}
	switch s.UnityAPISurface {
	case SurfaceBundled, SurfaceCustom, SurfaceNone:
	default:
		s.UnityAPISurface = defaults.UnityAPISurface
	}
	switch s.Telemetry {
	case TelemetryOff, TelemetryMinimal:
	default:
		s.Telemetry = defaults.Telemetry
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		s.LogLevel = defaults.LogLevel
	}
	if s.MaxDiagnostics <= 0 {
		s.MaxDiagnostics = defaults.MaxDiagnostics
	}
	return s
}
