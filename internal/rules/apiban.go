package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/policy"
	"ushlint/internal/syntax"
)

// deniedNamespaces are namespace prefixes never exposed to Udon.
var deniedNamespaces = []string{
	"System.IO",
	"System.Net",
	"System.Reflection",
	"System.Threading",
	"System.Diagnostics",
	"System.Security",
	"System.Runtime.InteropServices",
	"System.Web",
	"UnityEditor",
}

// deniedTypes are specific fully-qualified types outside the denied
// namespaces that are still unavailable.
var deniedTypes = map[string]bool{
	"System.AppDomain":   true,
	"System.Activator":   true,
	"System.Environment": true,
	"System.GC":          true,
}

// deniedComponentMembers are member accesses banned on Component and
// GameObject receivers.
var deniedComponentMembers = map[string]bool{
	"GetComponent":  true,
	"GetComponents": true,
}

// apiRule covers USH0013-USH0015: the Udon API exposure deny-lists for
// invocations, member accesses and declared types.
func apiRule() Rule {
	return Rule{
		Name: "api-exposure",
		IDs:  []string{policy.USH0013, policy.USH0014, policy.USH0015},
		Kinds: []string{
			"invocation_expression",
			"member_access_expression",
			"variable_declaration",
			"parameter",
			"property_declaration",
		},
		PerNode: checkAPIExposure,
	}
}

func checkAPIExposure(rc *RunContext, tc *TypeContext, n *sitter.Node) {
	switch n.Type() {
	case "invocation_expression":
		checkDeniedInvocation(rc, tc, n)
	case "member_access_expression":
		checkDeniedMemberAccess(rc, tc, n)
	case "variable_declaration", "parameter", "property_declaration":
		checkDeniedDeclaredType(rc, n)
	}
}

func checkDeniedInvocation(rc *RunContext, tc *TypeContext, inv *sitter.Node) {
	src := rc.Src()
	fn := syntax.FieldAny(inv, "function")
	if fn == nil {
		return
	}
	if fn.Type() == "member_access_expression" {
		full := strings.TrimSpace(syntax.Text(fn, src))
		if name, ok := deniedQualified(rc, full); ok {
			rc.ReportNode(policy.USH0013, inv, name)
			return
		}
	}
	// GetComponent/GetComponents on Component- or GameObject-typed
	// receivers (a bare call inside a behaviour targets the component
	// itself). The generic form is checked the same way.
	name := calleeName(inv, src)
	if !deniedComponentMembers[name] {
		return
	}
	recvType := ""
	switch fn.Type() {
	case "identifier", "generic_name":
		recvType = tc.Decl.FullName()
	case "member_access_expression":
		recvType = inferExprType(rc, tc, syntax.FieldAny(fn, "expression"))
	}
	if recvType == "" {
		return
	}
	if isComponentLike(rc, recvType) {
		rc.ReportNode(policy.USH0013, inv, name)
	}
}

func checkDeniedMemberAccess(rc *RunContext, tc *TypeContext, n *sitter.Node) {
	// Invocations report through USH0013; inner segments of a dotted
	// chain report once at the outermost access.
	if parent := n.Parent(); parent != nil {
		switch parent.Type() {
		case "member_access_expression":
			return
		case "invocation_expression":
			if fn := syntax.FieldAny(parent, "function"); fn != nil &&
				fn.StartByte() == n.StartByte() && fn.EndByte() == n.EndByte() {
				return
			}
		}
	}
	src := rc.Src()
	full := strings.TrimSpace(syntax.Text(n, src))
	if name, ok := deniedQualified(rc, full); ok {
		rc.ReportNode(policy.USH0014, n, name)
	}
}

func checkDeniedDeclaredType(rc *RunContext, n *sitter.Node) {
	typeNode := syntax.FieldAny(n, "type")
	if typeNode == nil {
		return
	}
	src := rc.Src()
	typeName := NormalizeTypeName(strings.TrimSpace(syntax.Text(typeNode, src)))
	typeName = strings.TrimSuffix(typeName, "[]")
	if typeName == "" || typeName == "var" {
		return
	}
	if name, ok := deniedTypeName(rc, typeName); ok {
		rc.ReportNode(policy.USH0015, typeNode, name)
	}
}

// deniedQualified checks a dotted expression against the namespace and
// type deny-lists, resolving unqualified prefixes through the file's
// using directives.
func deniedQualified(rc *RunContext, expr string) (string, bool) {
	if expr == "" || !strings.Contains(expr, ".") {
		return "", false
	}
	for _, candidate := range qualifiedCandidates(rc, expr) {
		for _, ns := range deniedNamespaces {
			if strings.HasPrefix(candidate, ns+".") {
				return candidate, true
			}
		}
		for denied := range deniedTypes {
			if candidate == denied || strings.HasPrefix(candidate, denied+".") {
				return candidate, true
			}
		}
	}
	return "", false
}

// deniedTypeName checks a declared type name the same way.
func deniedTypeName(rc *RunContext, typeName string) (string, bool) {
	for _, candidate := range qualifiedCandidates(rc, typeName) {
		for _, ns := range deniedNamespaces {
			if strings.HasPrefix(candidate, ns+".") {
				return candidate, true
			}
		}
		if deniedTypes[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// qualifiedCandidates expands a name through the file's using directives:
// "File.ReadAllText" with `using System.IO;` also tries
// "System.IO.File.ReadAllText".
func qualifiedCandidates(rc *RunContext, name string) []string {
	out := []string{name}
	for _, using := range rc.Doc.File.Usings {
		out = append(out, using+"."+name)
	}
	return out
}

// isComponentLike reports whether a type resolves to GameObject or a
// Component-derived type.
func isComponentLike(rc *RunContext, typeName string) bool {
	normalized := NormalizeTypeName(typeName)
	simple := syntax.LastSegment(normalized)
	if simple == "GameObject" || simple == "Component" {
		return true
	}
	entry := rc.Index().Lookup(normalized)
	if entry == nil {
		return false
	}
	return rc.Index().InheritsFrom(entry, "Component")
}
