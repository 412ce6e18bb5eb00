package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/policy"
	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// Event-send API families. The method-name argument sits at position 0
// for the custom family and position 1 (after the target) for the
// network family.
var customEventMethods = map[string]bool{
	"SendCustomEvent":               true,
	"SendCustomEventDelayedSeconds": true,
	"SendCustomEventDelayedFrames":  true,
}

var networkEventMethods = map[string]bool{
	"SendCustomNetworkEvent":               true,
	"SendCustomNetworkEventDelayedSeconds": true,
	"SendCustomNetworkEventDelayedFrames":  true,
}

const networkCallableAttr = "NetworkCallable"

// networkRule covers USH0001-USH0006 and USH0043: validation of
// SendCustomEvent*/SendCustomNetworkEvent* call sites.
func networkRule() Rule {
	return Rule{
		Name: "network-events",
		IDs: []string{
			policy.USH0001, policy.USH0002, policy.USH0003, policy.USH0004,
			policy.USH0005, policy.USH0006, policy.USH0043,
		},
		Kinds:   []string{"invocation_expression"},
		PerNode: checkEventSend,
	}
}

func checkEventSend(rc *RunContext, tc *TypeContext, inv *sitter.Node) {
	src := rc.Src()
	callee := calleeName(inv, src)
	isCustom := customEventMethods[callee]
	isNetwork := networkEventMethods[callee]
	if !isCustom && !isNetwork {
		return
	}
	args := invocationArgs(inv)
	nameIdx := 0
	if isNetwork {
		nameIdx = 1
	}
	if len(args) <= nameIdx {
		return
	}
	nameArg := argExpr(args[nameIdx])
	name, literal, ok := ConstantString(nameArg, src, tc.Decl)
	if !ok {
		return
	}

	if literal {
		rc.ReportNode(policy.USH0043, nameArg)
	}
	if isNetwork && strings.HasPrefix(name, "_") {
		rc.ReportNode(policy.USH0003, nameArg, name)
	}

	tgt := resolveTarget(rc, tc, inv, nameArg)
	if tgt == nil {
		// The target type could not be identified; absence of the type is
		// not absence of the method.
		return
	}
	if isNetwork && tgt.SyncMode == "None" {
		rc.ReportNode(policy.USH0006, inv, tgt.Display)
	}

	candidates := tgt.MethodsNamed(name)
	if len(candidates) == 0 {
		rc.ReportNode(policy.USH0001, nameArg, name, tgt.Display)
		return
	}
	if !anyPublic(candidates) {
		rc.ReportNode(policy.USH0002, nameArg, name, tgt.Display)
	}
	if !isNetwork {
		return
	}

	payload := args[nameIdx+1:]
	if len(payload) == 0 {
		return
	}
	if !anyNetworkCallable(candidates) {
		rc.ReportNode(policy.USH0004, inv, name, tgt.Display)
	}
	checkPayloadTypes(rc, tc, inv, name, candidates, payload)
}

// checkPayloadTypes implements USH0005: payload arguments must
// implicitly convert to a candidate's parameter types. The first
// mismatching argument is reported 1-indexed; an arity with no candidate
// is reported against the whole call with index 0.
func checkPayloadTypes(rc *RunContext, tc *TypeContext, inv *sitter.Node, name string, candidates []workspace.MethodEntry, payload []*sitter.Node) {
	var arityMatches []workspace.MethodEntry
	for _, cand := range candidates {
		if len(cand.Params) == len(payload) {
			arityMatches = append(arityMatches, cand)
		}
	}
	if len(arityMatches) == 0 {
		rc.ReportNode(policy.USH0005, inv, 0, name, paramListText(candidates[0]))
		return
	}

	type mismatch struct {
		index int
		want  string
		node  *sitter.Node
	}
	var first *mismatch
	for _, cand := range arityMatches {
		matched := true
		for i, arg := range payload {
			expr := argExpr(arg)
			argType := inferExprType(rc, tc, expr)
			want := cand.Params[i].Type
			convertible := ImplicitlyConvertible(argType, want)
			if cand.Params[i].ByRef && !rc.Settings.AllowRefOut {
				convertible = false
			}
			if !convertible {
				matched = false
				if first == nil {
					first = &mismatch{index: i + 1, want: DisplayTypeName(NormalizeTypeName(want)), node: expr}
				}
				break
			}
		}
		if matched {
			return
		}
	}
	if first != nil {
		rc.ReportNode(policy.USH0005, first.node, first.index, name, first.want)
	}
}

func anyPublic(methods []workspace.MethodEntry) bool {
	for _, m := range methods {
		if m.Public {
			return true
		}
	}
	return false
}

func anyNetworkCallable(methods []workspace.MethodEntry) bool {
	for _, m := range methods {
		if HasAttr(m.Attrs, networkCallableAttr) {
			return true
		}
	}
	return false
}

func paramListText(m workspace.MethodEntry) string {
	parts := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		parts = append(parts, DisplayTypeName(NormalizeTypeName(p.Type)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// calleeName extracts the invoked method's simple name.
func calleeName(inv *sitter.Node, src []byte) string {
	fn := syntax.FieldAny(inv, "function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return syntax.Text(fn, src)
	case "generic_name":
		return syntax.Text(fn.NamedChild(0), src)
	case "member_access_expression":
		name := syntax.FieldAny(fn, "name")
		if name != nil && name.Type() == "generic_name" {
			return syntax.Text(name.NamedChild(0), src)
		}
		return syntax.Text(name, src)
	}
	return ""
}

// invocationArgs returns the argument nodes of an invocation.
func invocationArgs(inv *sitter.Node) []*sitter.Node {
	args := syntax.FieldAny(inv, "arguments")
	if args == nil {
		return nil
	}
	return syntax.ChildrenOfKind(args, "argument")
}

// argExpr unwraps an argument node to its expression.
func argExpr(arg *sitter.Node) *sitter.Node {
	if arg == nil {
		return nil
	}
	named := syntax.NamedChildren(arg)
	if len(named) == 0 {
		return arg
	}
	return named[len(named)-1]
}
