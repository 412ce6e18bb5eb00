package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/policy"
	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// languageRule covers USH0022-USH0039: the C# feature surface UdonSharp
// does not compile.
func languageRule() Rule {
	return Rule{
		Name: "language-constraints",
		IDs: []string{
			policy.USH0022, policy.USH0023, policy.USH0024, policy.USH0025,
			policy.USH0026, policy.USH0027, policy.USH0028, policy.USH0029,
			policy.USH0030, policy.USH0031, policy.USH0032, policy.USH0033,
			policy.USH0034, policy.USH0035, policy.USH0036, policy.USH0037,
			policy.USH0038, policy.USH0039,
		},
		Kinds: []string{
			"nullable_type",
			"conditional_access_expression",
			"array_rank_specifier",
			"element_access_expression",
			"local_function_statement",
			"constructor_declaration",
			"initializer_expression",
			"typeof_expression",
			"goto_statement",
			"labeled_statement",
		},
		PerType: checkTypeShape,
		PerNode: checkLanguageNode,
	}
}

func checkLanguageNode(rc *RunContext, tc *TypeContext, n *sitter.Node) {
	src := rc.Src()
	switch n.Type() {
	case "nullable_type":
		if nullableOfValueType(rc, n) {
			rc.ReportNode(policy.USH0022, n)
		}
	case "conditional_access_expression":
		rc.ReportNode(policy.USH0023, n)
	case "array_rank_specifier":
		if strings.Contains(syntax.Text(n, src), ",") {
			rc.ReportNode(policy.USH0024, n)
		}
	case "element_access_expression":
		if indexCount(n) > 1 {
			rc.ReportNode(policy.USH0025, n)
		}
	case "local_function_statement":
		rc.ReportNode(policy.USH0026, n)
	case "constructor_declaration":
		// Implicit parameterless constructors do not appear in source;
		// anything that does is user-written.
		rc.ReportNode(policy.USH0028, n)
	case "initializer_expression":
		if initializerOnCreation(n) {
			rc.ReportNode(policy.USH0032, n)
		}
	case "typeof_expression":
		checkTypeofScript(rc, n)
	case "goto_statement":
		text := syntax.Text(n, src)
		switch {
		case strings.Contains(text, "goto case"):
			rc.ReportNode(policy.USH0038, n)
		case strings.Contains(text, "goto default"):
			rc.ReportNode(policy.USH0039, n)
		default:
			rc.ReportNode(policy.USH0036, n)
		}
	case "labeled_statement":
		rc.ReportNode(policy.USH0037, n)
	}
}

// nullableOfValueType keeps USH0022 scoped to nullable value types: the
// annotation on a resolved reference type is legal C# 8 and not flagged.
func nullableOfValueType(rc *RunContext, n *sitter.Node) bool {
	inner := NormalizeTypeName(strings.TrimSuffix(strings.TrimSpace(syntax.Text(n, rc.Src())), "?"))
	if inner == "System.String" || inner == "System.Object" {
		return false
	}
	if entry := rc.Index().Lookup(inner); entry != nil {
		return entry.Kind == "struct" || entry.Kind == "enum"
	}
	return true
}

func indexCount(n *sitter.Node) int {
	for _, child := range syntax.NamedChildren(n) {
		if child.Type() == "bracketed_argument_list" {
			return len(syntax.ChildrenOfKind(child, "argument"))
		}
	}
	return 0
}

// initializerOnCreation distinguishes object/collection initializers
// from array initializers, which stay legal.
func initializerOnCreation(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "object_creation_expression", "implicit_object_creation_expression", "with_expression":
		return true
	}
	return false
}

func checkTypeofScript(rc *RunContext, n *sitter.Node) {
	typeNode := syntax.FieldAny(n, "type")
	if typeNode == nil {
		return
	}
	name := strings.TrimSpace(syntax.Text(typeNode, rc.Src()))
	if entry := rc.Index().Lookup(NormalizeTypeName(name)); entry != nil {
		if rc.Index().InheritsFrom(entry, markerBaseType) {
			rc.ReportNode(policy.USH0033, n, entry.Name)
		}
		return
	}
	if decl := declInFile(rc.Doc.File, syntax.LastSegment(name)); decl != nil && IsUdonScript(rc.Index(), decl) {
		rc.ReportNode(policy.USH0033, n, decl.Name)
	}
}

// checkTypeShape covers the declaration-level constraints: nested types,
// generic and partial methods, interfaces in the base list, method
// hiding and static members.
func checkTypeShape(rc *RunContext, tc *TypeContext) {
	reportNested(rc, tc.Decl)

	for _, m := range tc.Decl.Methods {
		node := m.NameNode
		if node == nil {
			node = m.Node
		}
		if m.Generic {
			rc.ReportNode(policy.USH0029, node)
		}
		if m.HasModifier("partial") {
			rc.ReportNode(policy.USH0035, node)
		}
	}

	checkInterfaceBases(rc, tc)
	checkMethodHiding(rc, tc)

	for _, f := range tc.Decl.Fields {
		if f.HasModifier("static") {
			rc.ReportNode(policy.USH0034, f.NameNode, f.Name)
		}
	}
	for _, p := range tc.Decl.Props {
		if p.HasModifier("static") {
			node := p.NameNode
			if node == nil {
				node = p.Node
			}
			rc.ReportNode(policy.USH0034, node, p.Name)
		}
	}
}

func reportNested(rc *RunContext, decl *syntax.TypeDecl) {
	for _, nested := range decl.Nested {
		node := nested.NameNode
		if node == nil {
			node = nested.Node
		}
		rc.ReportNode(policy.USH0027, node)
		reportNested(rc, nested)
	}
}

// checkInterfaceBases flags interfaces in the base list, by resolved
// kind or by the conventional I-prefix when unresolved.
func checkInterfaceBases(rc *RunContext, tc *TypeContext) {
	for i, base := range tc.Decl.BaseNames {
		simple := syntax.LastSegment(base)
		node := tc.Decl.Node
		if i < len(tc.Decl.BaseNodes) {
			node = tc.Decl.BaseNodes[i]
		}
		if entry := rc.Index().Lookup(NormalizeTypeName(base)); entry != nil {
			if entry.Kind == "interface" {
				rc.ReportNode(policy.USH0030, node, base)
			}
			continue
		}
		if len(simple) > 1 && simple[0] == 'I' && simple[1] >= 'A' && simple[1] <= 'Z' {
			rc.ReportNode(policy.USH0030, node, base)
		}
	}
}

// checkMethodHiding flags a non-override method whose name and parameter
// types coincide with a base-class method.
func checkMethodHiding(rc *RunContext, tc *TypeContext) {
	if tc.Entry == nil {
		return
	}
	ix := rc.Index()
	chain := ix.BaseChain(tc.Entry)
	if len(chain) == 0 {
		return
	}
	for _, m := range tc.Decl.Methods {
		if m.HasModifier("override") || m.HasModifier("static") {
			continue
		}
		if hidesBaseMethod(m, chain) {
			node := m.NameNode
			if node == nil {
				node = m.Node
			}
			rc.ReportNode(policy.USH0031, node, m.Name)
		}
	}
}

func hidesBaseMethod(m *syntax.MethodDecl, chain []*workspace.TypeEntry) bool {
	for _, base := range chain {
		for _, bm := range base.Methods {
			if bm.Name != m.Name || len(bm.Params) != len(m.Params) {
				continue
			}
			same := true
			for i := range bm.Params {
				if !SameType(bm.Params[i].Type, m.Params[i].Type) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}
