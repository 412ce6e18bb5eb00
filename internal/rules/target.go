package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// target is the resolved destination of an event send. The semantic
// resolver answers from the index (base chain included); the syntax-only
// resolver degrades to the declarations visible in the current file.
type target struct {
	Display  string
	SyncMode string
	Semantic bool
	methods  func(name string) []workspace.MethodEntry
}

func (t *target) MethodsNamed(name string) []workspace.MethodEntry {
	if t == nil || t.methods == nil {
		return nil
	}
	return t.methods(name)
}

// resolveTarget determines the target type of an event-send invocation.
// Semantic resolution is attempted first; when the receiver's type cannot
// be resolved to an index entry, the syntax-only fallback searches the
// current file for a declaration matching the nameof reference or owning
// the invocation. nil means the type could not be identified at all — in
// that case absence-of-method must not be reported.
func resolveTarget(rc *RunContext, tc *TypeContext, inv *sitter.Node, nameArg *sitter.Node) *target {
	src := rc.Src()
	typeName := receiverTypeName(rc, tc, inv)
	if typeName != "" {
		if entry := rc.Index().Lookup(NormalizeTypeName(typeName)); entry != nil {
			return semanticTarget(rc, entry)
		}
	}
	// Syntax-only fallback: a nameof(X.Y) reference names the type.
	if ref := NameofRef(nameArg, src); strings.Contains(ref, ".") {
		qualifier := ref[:strings.LastIndex(ref, ".")]
		if decl := declInFile(rc.Doc.File, syntax.LastSegment(qualifier)); decl != nil {
			return syntacticTarget(decl)
		}
	}
	// A bare or this-qualified call targets the enclosing type.
	if typeName == tc.Decl.FullName() || typeName == "" && isSelfCall(inv, src) {
		return syntacticTarget(tc.Decl)
	}
	if typeName != "" {
		if decl := declInFile(rc.Doc.File, syntax.LastSegment(typeName)); decl != nil {
			return syntacticTarget(decl)
		}
	}
	return nil
}

func semanticTarget(rc *RunContext, entry *workspace.TypeEntry) *target {
	ix := rc.Index()
	return &target{
		Display:  entry.Name,
		SyncMode: entry.SyncMode,
		Semantic: true,
		methods: func(name string) []workspace.MethodEntry {
			return ix.MethodsNamed(entry, name)
		},
	}
}

func syntacticTarget(decl *syntax.TypeDecl) *target {
	return &target{
		Display:  decl.Name,
		SyncMode: workspace.SyncModeOf(decl),
		methods: func(name string) []workspace.MethodEntry {
			var out []workspace.MethodEntry
			for _, m := range decl.Methods {
				if m.Name != name {
					continue
				}
				entry := workspace.MethodEntry{
					Name:       m.Name,
					ReturnType: m.ReturnType,
					Public:     m.IsPublic(),
				}
				for _, attr := range m.Attrs {
					entry.Attrs = append(entry.Attrs, attr.Name)
				}
				for _, param := range m.Params {
					entry.Params = append(entry.Params, workspace.ParamEntry{Type: param.Type, ByRef: param.ByRef})
				}
				out = append(out, entry)
			}
			return out
		},
	}
}

func declInFile(file *syntax.File, name string) *syntax.TypeDecl {
	for _, decl := range file.Types {
		if decl.Name == name {
			return decl
		}
	}
	return nil
}

// isSelfCall reports a bare (unqualified) or this-qualified invocation.
func isSelfCall(inv *sitter.Node, src []byte) bool {
	fn := syntax.FieldAny(inv, "function")
	if fn == nil {
		return false
	}
	switch fn.Type() {
	case "identifier":
		return true
	case "member_access_expression":
		recv := syntax.FieldAny(fn, "expression")
		return recv != nil && recv.Type() == "this_expression"
	}
	return false
}

// receiverTypeName resolves the static type name of the receiver of an
// event-send invocation. Returns "" when unknown.
func receiverTypeName(rc *RunContext, tc *TypeContext, inv *sitter.Node) string {
	fn := syntax.FieldAny(inv, "function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return tc.Decl.FullName()
	case "member_access_expression":
		recv := syntax.FieldAny(fn, "expression")
		return inferExprType(rc, tc, recv)
	}
	return ""
}

// inferExprType determines the static type of an expression as far as the
// syntactic context allows. Returns "" when unknown.
func inferExprType(rc *RunContext, tc *TypeContext, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	src := rc.Src()
	switch n.Type() {
	case "this_expression":
		return tc.Decl.FullName()
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return "System.String"
	case "character_literal":
		return "System.Char"
	case "boolean_literal":
		return "System.Boolean"
	case "integer_literal":
		return integerLiteralType(syntax.Text(n, src))
	case "real_literal":
		return realLiteralType(syntax.Text(n, src))
	case "null_literal":
		return ""
	case "parenthesized_expression":
		return inferExprType(rc, tc, n.NamedChild(0))
	case "cast_expression":
		return strings.TrimSpace(syntax.Text(syntax.FieldAny(n, "type"), src))
	case "as_expression":
		return strings.TrimSpace(syntax.Text(syntax.FieldAny(n, "right"), src))
	case "object_creation_expression", "implicit_object_creation_expression":
		return strings.TrimSpace(syntax.Text(syntax.FieldAny(n, "type"), src))
	case "identifier":
		return identifierType(rc, tc, n)
	case "member_access_expression":
		return memberAccessType(rc, tc, n)
	case "invocation_expression":
		return invocationResultType(rc, tc, n)
	case "element_access_expression":
		base := inferExprType(rc, tc, syntax.FieldAny(n, "expression"))
		return strings.TrimSuffix(base, "[]")
	}
	return ""
}

func integerLiteralType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.HasSuffix(lower, "ul"), strings.HasSuffix(lower, "lu"):
		return "System.UInt64"
	case strings.HasSuffix(lower, "l"):
		return "System.Int64"
	case strings.HasSuffix(lower, "u"):
		return "System.UInt32"
	case strings.HasSuffix(lower, "f"):
		return "System.Single"
	case strings.HasSuffix(lower, "d"):
		return "System.Double"
	case strings.HasSuffix(lower, "m"):
		return "System.Decimal"
	}
	return "System.Int32"
}

func realLiteralType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.HasSuffix(lower, "f"):
		return "System.Single"
	case strings.HasSuffix(lower, "m"):
		return "System.Decimal"
	}
	return "System.Double"
}

// identifierType resolves a simple name: method locals and parameters
// first, then fields and properties of the enclosing type, then a type
// name used for static access.
func identifierType(rc *RunContext, tc *TypeContext, n *sitter.Node) string {
	src := rc.Src()
	name := syntax.Text(n, src)
	if typ := localVarType(n, name, src); typ != "" {
		return typ
	}
	for _, f := range tc.Decl.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	for _, p := range tc.Decl.Props {
		if p.Name == name {
			return p.Type
		}
	}
	if entry := rc.Index().Lookup(name); entry != nil {
		return entry.FullName()
	}
	return ""
}

// localVarType scans the enclosing method for a parameter or local
// variable declaration with the given name.
func localVarType(n *sitter.Node, name string, src []byte) string {
	method := syntax.Ancestor(n, "method_declaration", "constructor_declaration", "local_function_statement")
	if method == nil {
		return ""
	}
	if params := syntax.FieldAny(method, "parameters"); params != nil {
		for _, param := range syntax.ChildrenOfKind(params, "parameter") {
			pn := syntax.FieldAny(param, "name")
			if syntax.Text(pn, src) == name {
				return strings.TrimSpace(syntax.Text(syntax.FieldAny(param, "type"), src))
			}
		}
	}
	var found string
	syntax.Walk(method, func(cur *sitter.Node) bool {
		if found != "" {
			return false
		}
		if cur.Type() != "variable_declaration" {
			return true
		}
		typeNode := syntax.FieldAny(cur, "type")
		for _, declarator := range syntax.ChildrenOfKind(cur, "variable_declarator") {
			nameNode := syntax.FieldAny(declarator, "name")
			if nameNode == nil {
				nameNode = declarator.NamedChild(0)
			}
			if syntax.Text(nameNode, src) == name {
				typ := strings.TrimSpace(syntax.Text(typeNode, src))
				if typ == "var" {
					typ = ""
				}
				found = typ
				return false
			}
		}
		return true
	})
	return found
}

func memberAccessType(rc *RunContext, tc *TypeContext, n *sitter.Node) string {
	src := rc.Src()
	recvType := inferExprType(rc, tc, syntax.FieldAny(n, "expression"))
	member := syntax.Text(syntax.FieldAny(n, "name"), src)
	if recvType == "" || member == "" {
		return ""
	}
	entry := rc.Index().Lookup(NormalizeTypeName(recvType))
	if entry == nil {
		return ""
	}
	ix := rc.Index()
	for _, e := range append([]*workspace.TypeEntry{entry}, ix.BaseChain(entry)...) {
		for _, f := range e.Fields {
			if f.Name == member {
				return f.Type
			}
		}
		for _, p := range e.Props {
			if p.Name == member {
				return p.Type
			}
		}
	}
	return ""
}

// invocationResultType handles the common GetComponent<T>() pattern and
// falls back to the indexed return type.
func invocationResultType(rc *RunContext, tc *TypeContext, n *sitter.Node) string {
	src := rc.Src()
	fn := syntax.FieldAny(n, "function")
	if fn == nil {
		return ""
	}
	var nameNode *sitter.Node
	switch fn.Type() {
	case "generic_name":
		nameNode = fn
	case "member_access_expression":
		nameNode = syntax.FieldAny(fn, "name")
	case "identifier":
		nameNode = fn
	}
	if nameNode == nil {
		return ""
	}
	if nameNode.Type() == "generic_name" {
		if args := firstGenericArgs(nameNode); len(args) == 1 {
			return strings.TrimSpace(syntax.Text(args[0], src))
		}
	}
	return ""
}

func firstGenericArgs(n *sitter.Node) []*sitter.Node {
	for _, child := range syntax.NamedChildren(n) {
		if child.Type() == "type_argument_list" {
			return syntax.NamedChildren(child)
		}
	}
	return nil
}
