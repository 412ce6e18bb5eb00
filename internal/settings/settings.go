// Package settings resolves user configuration into immutable snapshots.
//
// Configuration arrives scoped under the "udonsharpLinter" key from LSP
// initializationOptions and workspace/didChangeConfiguration payloads; an
// optional udonsharp-linter.toml manifest at the workspace root supplies
// defaults. A snapshot is replaced atomically or not at all.
package settings

import (
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"

	"ushlint/internal/diag"
)

// ConfigSection is the configuration namespace consumed by the server.
const ConfigSection = "udonsharpLinter"

// Unity API surface modes.
const (
	SurfaceBundled = "bundled-stubs"
	SurfaceCustom  = "custom-stubs"
	SurfaceNone    = "none"
)

// Telemetry modes.
const (
	TelemetryOff     = "off"
	TelemetryMinimal = "minimal"
)

// Settings is an immutable configuration snapshot.
type Settings struct {
	Profile            string `validate:"required"`
	RuleOverrides      map[string]diag.Severity
	UnityAPISurface    string `validate:"oneof=bundled-stubs custom-stubs none"`
	CustomStubPath     string
	AllowRefOut        bool
	CodeActionsEnabled bool
	Telemetry          string `validate:"oneof=off minimal"`
	PolicyPackPaths    []string
	LogLevel           string `validate:"oneof=debug info warn error"`
	MaxDiagnostics     int    `validate:"gt=0"`
}

var validate = validator.New()

// Default returns the built-in settings snapshot.
func Default() Settings {
	return Settings{
		Profile:            "latest",
		RuleOverrides:      map[string]diag.Severity{},
		UnityAPISurface:    SurfaceBundled,
		CodeActionsEnabled: true,
		Telemetry:          TelemetryOff,
		LogLevel:           "info",
		MaxDiagnostics:     200,
	}
}

// Validate checks enum membership on the snapshot.
func (s Settings) Validate() error {
	return validate.Struct(s)
}

// Equal reports structural equality between two snapshots; the resolver
// emits a change event only when it returns false.
func (s Settings) Equal(other Settings) bool {
	return s.Profile == other.Profile &&
		s.UnityAPISurface == other.UnityAPISurface &&
		s.CustomStubPath == other.CustomStubPath &&
		s.AllowRefOut == other.AllowRefOut &&
		s.CodeActionsEnabled == other.CodeActionsEnabled &&
		s.Telemetry == other.Telemetry &&
		s.LogLevel == other.LogLevel &&
		s.MaxDiagnostics == other.MaxDiagnostics &&
		maps.Equal(s.RuleOverrides, other.RuleOverrides) &&
		slices.Equal(s.PolicyPackPaths, other.PolicyPackPaths)
}

// ReferencesChanged reports whether the reference set must be rebuilt when
// moving from s to next.
func (s Settings) ReferencesChanged(next Settings) bool {
	return s.UnityAPISurface != next.UnityAPISurface || s.CustomStubPath != next.CustomStubPath
}
