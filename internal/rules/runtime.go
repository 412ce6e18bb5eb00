package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/policy"
	"ushlint/internal/syntax"
)

// playerEventNames are the VR-runtime events that require the
// (VRCPlayerApi) public override signature.
var playerEventNames = map[string]bool{
	"OnStationEntered":       true,
	"OnStationExited":        true,
	"OnOwnershipTransferred": true,
	"OnPlayerJoined":         true,
	"OnPlayerLeft":           true,
}

// runtimeRule covers USH0016-USH0021: runtime event signatures,
// Instantiate arguments and the banned statement forms.
func runtimeRule() Rule {
	return Rule{
		Name: "runtime-restrictions",
		IDs: []string{
			policy.USH0016, policy.USH0017, policy.USH0018,
			policy.USH0019, policy.USH0020, policy.USH0021,
		},
		Kinds: []string{
			"invocation_expression",
			"is_expression",
			"is_pattern_expression",
			"as_expression",
			"binary_expression",
			"try_statement",
			"throw_statement",
			"throw_expression",
		},
		PerType: checkPlayerEvents,
		PerNode: checkRuntimeNode,
	}
}

func checkPlayerEvents(rc *RunContext, tc *TypeContext) {
	for _, m := range tc.Decl.Methods {
		if !playerEventNames[m.Name] {
			continue
		}
		if playerEventWellFormed(m) {
			continue
		}
		node := m.NameNode
		if node == nil {
			node = m.Node
		}
		rc.ReportNode(policy.USH0016, node, m.Name)
	}
}

func playerEventWellFormed(m *syntax.MethodDecl) bool {
	if len(m.Params) != 1 {
		return false
	}
	if syntax.LastSegment(NormalizeTypeName(m.Params[0].Type)) != "VRCPlayerApi" {
		return false
	}
	return m.HasModifier("public") && m.HasModifier("override")
}

func checkRuntimeNode(rc *RunContext, tc *TypeContext, n *sitter.Node) {
	switch n.Type() {
	case "invocation_expression":
		checkInstantiate(rc, tc, n)
	case "is_expression", "is_pattern_expression":
		rc.ReportNode(policy.USH0018, n)
	case "as_expression":
		rc.ReportNode(policy.USH0019, n)
	case "binary_expression":
		// some grammar versions surface is/as as plain binary operators
		switch binaryOperator(rc, n) {
		case "is":
			rc.ReportNode(policy.USH0018, n)
		case "as":
			rc.ReportNode(policy.USH0019, n)
		}
	case "try_statement":
		rc.ReportNode(policy.USH0020, n)
	case "throw_statement", "throw_expression":
		rc.ReportNode(policy.USH0021, n)
	}
}

// checkInstantiate implements USH0017: Object.Instantiate fires unless
// the sole generic argument or the first argument is GameObject (arrays
// of GameObject accepted).
func checkInstantiate(rc *RunContext, tc *TypeContext, inv *sitter.Node) {
	src := rc.Src()
	if calleeName(inv, src) != "Instantiate" {
		return
	}
	fn := syntax.FieldAny(inv, "function")
	if fn != nil && fn.Type() == "member_access_expression" {
		recv := strings.TrimSpace(syntax.Text(syntax.FieldAny(fn, "expression"), src))
		// Only the engine's static Instantiate is restricted.
		if recv != "" && recv != "Object" && recv != "UnityEngine.Object" && recv != "this" {
			recvType := inferExprType(rc, tc, syntax.FieldAny(fn, "expression"))
			if syntax.LastSegment(NormalizeTypeName(recvType)) != "Object" {
				return
			}
		}
	}
	if genArgs := genericArgsOf(fn); len(genArgs) == 1 {
		if isGameObjectType(strings.TrimSpace(syntax.Text(genArgs[0], src))) {
			return
		}
		rc.ReportNode(policy.USH0017, inv)
		return
	}
	args := invocationArgs(inv)
	if len(args) == 0 {
		return
	}
	argType := inferExprType(rc, tc, argExpr(args[0]))
	if isGameObjectType(argType) {
		return
	}
	rc.ReportNode(policy.USH0017, inv)
}

func binaryOperator(rc *RunContext, n *sitter.Node) string {
	if op := syntax.FieldAny(n, "operator"); op != nil {
		return strings.TrimSpace(syntax.Text(op, rc.Src()))
	}
	return ""
}

func isGameObjectType(typeName string) bool {
	normalized := strings.TrimSuffix(NormalizeTypeName(typeName), "[]")
	return syntax.LastSegment(normalized) == "GameObject"
}

func genericArgsOf(fn *sitter.Node) []*sitter.Node {
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "generic_name":
		return firstGenericArgs(fn)
	case "member_access_expression":
		if name := syntax.FieldAny(fn, "name"); name != nil && name.Type() == "generic_name" {
			return firstGenericArgs(name)
		}
	}
	return nil
}
