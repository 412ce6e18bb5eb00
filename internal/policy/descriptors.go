package policy

import (
	"strings"

	"ushlint/internal/diag"
)

// Rule categories as they appear in policy packs and the rules/list payload.
const (
	CategoryNetwork    = "Network"
	CategorySync       = "Synchronization"
	CategoryAPI        = "ApiExposure"
	CategoryRuntime    = "RuntimeRestriction"
	CategoryLanguage   = "LanguageConstraint"
	CategoryAttributes = "Attributes"
	CategoryStructure  = "Structure"
	CategoryPractice   = "BestPractice"
)

// Recognised profile names. Unknown profiles fall back to rule defaults.
const (
	ProfileLatest = "latest"
	ProfileLegacy = "legacy_0.x"
	ProfileStrict = "strict_experimental"
)

const helpBase = "https://udonsharp.docs.vrchat.com/diagnostics#"

// Canonical rule identifiers.
const (
	USH0001 = "USH0001"
	USH0002 = "USH0002"
	USH0003 = "USH0003"
	USH0004 = "USH0004"
	USH0005 = "USH0005"
	USH0006 = "USH0006"
	USH0007 = "USH0007"
	USH0008 = "USH0008"
	USH0009 = "USH0009"
	USH0010 = "USH0010"
	USH0011 = "USH0011"
	USH0012 = "USH0012"
	USH0013 = "USH0013"
	USH0014 = "USH0014"
	USH0015 = "USH0015"
	USH0016 = "USH0016"
	USH0017 = "USH0017"
	USH0018 = "USH0018"
	USH0019 = "USH0019"
	USH0020 = "USH0020"
	USH0021 = "USH0021"
	USH0022 = "USH0022"
	USH0023 = "USH0023"
	USH0024 = "USH0024"
	USH0025 = "USH0025"
	USH0026 = "USH0026"
	USH0027 = "USH0027"
	USH0028 = "USH0028"
	USH0029 = "USH0029"
	USH0030 = "USH0030"
	USH0031 = "USH0031"
	USH0032 = "USH0032"
	USH0033 = "USH0033"
	USH0034 = "USH0034"
	USH0035 = "USH0035"
	USH0036 = "USH0036"
	USH0037 = "USH0037"
	USH0038 = "USH0038"
	USH0039 = "USH0039"
	USH0040 = "USH0040"
	USH0041 = "USH0041"
	USH0042 = "USH0042"
	USH0043 = "USH0043"
	USH0044 = "USH0044"
	USH0045 = "USH0045"
)

func def(id, title, message, category string, sev diag.Severity) Definition {
	return Definition{
		ID:              id,
		Title:           title,
		MessageTemplate: message,
		Category:        category,
		DefaultSeverity: sev,
		HelpURI:         helpBase + strings.ToLower(id),
	}
}

func withFix(d Definition) Definition {
	d.HasCodeFix = true
	return d
}

func withProfiles(d Definition, profiles map[string]diag.Severity) Definition {
	d.Profiles = profiles
	return d
}

// Descriptors returns the canonical rule table. The bundled policy pack is
// generated from this table; it also serves as the fallback catalogue when
// no pack directory is present.
func Descriptors() []Definition {
	return []Definition{
		def(USH0001, "Custom event target does not exist", "Target method '{0}' does not exist on type '{1}'", CategoryNetwork, diag.SevError),
		withFix(def(USH0002, "Custom event target is not public", "Target method '{0}' exists on type '{1}' but is not declared public", CategoryNetwork, diag.SevError)),
		withFix(def(USH0003, "Network event target starts with underscore", "Network event target '{0}' must not start with an underscore", CategoryNetwork, diag.SevError)),
		withProfiles(def(USH0004, "Network event payload without NetworkCallable", "Network event '{0}' carries arguments but no candidate target on '{1}' has the NetworkCallable attribute", CategoryNetwork, diag.SevError),
			map[string]diag.Severity{ProfileLegacy: diag.SevWarning}),
		def(USH0005, "Network event argument type mismatch", "Argument {0} of network event '{1}' cannot be converted to parameter type '{2}'", CategoryNetwork, diag.SevError),
		def(USH0006, "Network event sent to non-synced behaviour", "Network event sent to type '{0}' which is declared with SyncMode.None", CategoryNetwork, diag.SevError),
		def(USH0007, "Synced field on NoVariableSync behaviour", "UdonSynced field '{0}' is not allowed when the behaviour is declared NoVariableSync", CategorySync, diag.SevError),
		def(USH0008, "Unsupported synced field type", "Type '{0}' of synced field '{1}' is not supported for synchronization", CategorySync, diag.SevError),
		def(USH0009, "Synced array requires manual sync", "Synced array field '{0}' requires BehaviourSyncMode.Manual", CategorySync, diag.SevError),
		def(USH0010, "Tweening not allowed in manual sync", "Tweened synced field '{0}' is not allowed in manual sync mode", CategorySync, diag.SevError),
		def(USH0011, "Linear tweening unsupported for type", "Linear tweening does not support type '{0}'", CategorySync, diag.SevError),
		def(USH0012, "Smooth tweening unsupported for type", "Smooth tweening does not support type '{0}'", CategorySync, diag.SevError),
		def(USH0013, "Method is not exposed to Udon", "Method '{0}' is not exposed to Udon", CategoryAPI, diag.SevError),
		def(USH0014, "Member is not exposed to Udon", "Member '{0}' is not exposed to Udon", CategoryAPI, diag.SevError),
		def(USH0015, "Type is not exposed to Udon", "Type '{0}' is not exposed to Udon", CategoryAPI, diag.SevError),
		def(USH0016, "Malformed runtime event signature", "Event method '{0}' must be declared public override with a single VRCPlayerApi parameter", CategoryRuntime, diag.SevError),
		def(USH0017, "Instantiate of a non-GameObject", "Instantiate may only be used with GameObject arguments", CategoryRuntime, diag.SevError),
		def(USH0018, "'is' operator is not supported", "The 'is' operator is not supported by UdonSharp", CategoryRuntime, diag.SevError),
		def(USH0019, "'as' operator is not supported", "The 'as' operator is not supported by UdonSharp", CategoryRuntime, diag.SevError),
		def(USH0020, "Exception handling is not supported", "Exception handling (try/catch/finally) is not supported by UdonSharp", CategoryRuntime, diag.SevError),
		def(USH0021, "'throw' is not supported", "The 'throw' statement is not supported by UdonSharp", CategoryRuntime, diag.SevError),
		def(USH0022, "Nullable value types are not supported", "Nullable value types are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0023, "Null-conditional access is not supported", "Null-conditional operators are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0024, "Multidimensional arrays are not supported", "Multidimensional arrays are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0025, "Multi-index element access is not supported", "Element access with more than one index is not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0026, "Local functions are not supported", "Local functions are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0027, "Nested types are not supported", "Nested type declarations are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0028, "Constructors are not supported", "User-defined constructors are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0029, "Generic methods are not supported", "Generic method declarations are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0030, "Interfaces are not supported", "Interface implementation is not supported by UdonSharp ('{0}')", CategoryLanguage, diag.SevError),
		def(USH0031, "Method hiding is not supported", "Method '{0}' hides a base method; UdonSharp does not support method hiding", CategoryLanguage, diag.SevError),
		def(USH0032, "Initializer expressions are not supported", "Object and collection initializers are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0033, "typeof on behaviour types is not supported", "typeof is not supported on UdonSharp behaviour types ('{0}')", CategoryLanguage, diag.SevError),
		def(USH0034, "Static members are not supported", "Static fields and properties are not supported by UdonSharp ('{0}')", CategoryLanguage, diag.SevError),
		def(USH0035, "Partial methods are not supported", "Partial methods are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0036, "'goto' is not supported", "The 'goto' statement is not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0037, "Labeled statements are not supported", "Labeled statements are not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0038, "'goto case' is not supported", "'goto case' is not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0039, "'goto default' is not supported", "'goto default' is not supported by UdonSharp", CategoryLanguage, diag.SevError),
		def(USH0040, "Duplicate FieldChangeCallback target", "Property '{0}' is referenced by more than one FieldChangeCallback attribute", CategoryAttributes, diag.SevError),
		def(USH0041, "FieldChangeCallback target missing", "FieldChangeCallback target property '{0}' does not exist on type '{1}'", CategoryAttributes, diag.SevError),
		def(USH0042, "FieldChangeCallback type mismatch", "FieldChangeCallback property '{0}' of type '{1}' does not match field type '{2}'", CategoryAttributes, diag.SevError),
		withProfiles(withFix(def(USH0043, "Prefer nameof for event names", "Use nameof instead of a string literal for the event name", CategoryPractice, diag.SevInfo)),
			map[string]diag.Severity{ProfileStrict: diag.SevWarning, ProfileLegacy: diag.SevHidden}),
		withProfiles(withFix(def(USH0044, "Behaviour outside a namespace", "UdonSharp behaviour '{0}' should be declared inside a namespace", CategoryStructure, diag.SevWarning)),
			map[string]diag.Severity{ProfileStrict: diag.SevError, ProfileLegacy: diag.SevHidden}),
		withProfiles(def(USH0045, "Class name does not match file name", "Class name '{0}' does not match file name '{1}'", CategoryStructure, diag.SevWarning),
			map[string]diag.Severity{ProfileStrict: diag.SevError, ProfileLegacy: diag.SevHidden}),
	}
}
