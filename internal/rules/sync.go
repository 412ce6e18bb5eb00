package rules

import (
	"strings"

	"ushlint/internal/policy"
	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// Behaviour sync modes as written in the UdonBehaviourSyncMode attribute.
const (
	syncModeNone           = "None"
	syncModeManual         = "Manual"
	syncModeNoVariableSync = "NoVariableSync"
)

// syncedTypes is the fixed set of field types UdonSharp can replicate:
// the primitives, string, the math types, a handful of engine object
// references and the player handle. Arrays of these are permitted too.
var syncedTypes = map[string]bool{
	"System.Boolean": true,
	"System.Byte":    true,
	"System.SByte":   true,
	"System.Int16":   true,
	"System.UInt16":  true,
	"System.Int32":   true,
	"System.UInt32":  true,
	"System.Int64":   true,
	"System.UInt64":  true,
	"System.Single":  true,
	"System.Double":  true,
	"System.Char":    true,
	"System.String":  true,
	"Vector2":        true,
	"Vector3":        true,
	"Vector4":        true,
	"Quaternion":     true,
	"Color":          true,
	"Color32":        true,
	"GameObject":     true,
	"Transform":      true,
	"VRCUrl":         true,
	"VRCPlayerApi":   true,
}

// Tweened interpolation supports narrower sets.
var linearTweenTypes = map[string]bool{
	"System.Single": true,
	"Vector2":       true,
	"Vector3":       true,
	"Vector4":       true,
	"Quaternion":    true,
}

var smoothTweenTypes = map[string]bool{
	"System.Single": true,
	"System.Int32":  true,
	"Vector2":       true,
	"Vector3":       true,
	"Quaternion":    true,
}

// syncRule covers USH0007-USH0012: constraints on UdonSynced fields.
func syncRule() Rule {
	return Rule{
		Name: "synchronization",
		IDs: []string{
			policy.USH0007, policy.USH0008, policy.USH0009,
			policy.USH0010, policy.USH0011, policy.USH0012,
		},
		PerType: checkSyncedFields,
	}
}

func checkSyncedFields(rc *RunContext, tc *TypeContext) {
	mode := workspace.SyncModeOf(tc.Decl)
	for _, field := range tc.Decl.Fields {
		attr := FindAttr(field.Attrs, "UdonSynced")
		if attr == nil {
			continue
		}
		if mode == syncModeNoVariableSync {
			rc.ReportNode(policy.USH0007, field.NameNode, field.Name)
		}

		fieldType := NormalizeTypeName(field.Type)
		isArray := strings.HasSuffix(fieldType, "[]")
		elemType := fieldType
		if isArray {
			elemType = NormalizeTypeName(strings.TrimSuffix(fieldType, "[]"))
		}
		if !syncedTypeSupported(elemType) {
			rc.ReportNode(policy.USH0008, field.NameNode, field.Type, field.Name)
		}
		if isArray && mode != syncModeManual {
			rc.ReportNode(policy.USH0009, field.NameNode, field.Name)
		}

		tween := tweenModeOf(attr)
		if tween == "" {
			continue
		}
		if mode == syncModeManual {
			rc.ReportNode(policy.USH0010, field.NameNode, field.Name)
		}
		switch tween {
		case "Linear":
			if !typeInSet(elemType, linearTweenTypes) {
				rc.ReportNode(policy.USH0011, field.NameNode, field.Type)
			}
		case "Smooth":
			if !typeInSet(elemType, smoothTweenTypes) {
				rc.ReportNode(policy.USH0012, field.NameNode, field.Type)
			}
		}
	}
}

// tweenModeOf extracts Linear/Smooth from the UdonSynced argument
// (positional or named), "" for default sync.
func tweenModeOf(attr *syntax.Attr) string {
	for _, arg := range attr.Args {
		mode := syntax.LastSegment(arg.Text)
		if mode == "Linear" || mode == "Smooth" {
			return mode
		}
	}
	return ""
}

func syncedTypeSupported(normalized string) bool {
	return typeInSet(normalized, syncedTypes)
}

// typeInSet matches a normalized type name against a support set that
// mixes metadata names and engine simple names.
func typeInSet(normalized string, set map[string]bool) bool {
	if set[normalized] {
		return true
	}
	return set[syntax.LastSegment(normalized)]
}
