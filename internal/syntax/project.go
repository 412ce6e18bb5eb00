package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Type declaration node kinds.
var typeDeclKinds = map[string]string{
	"class_declaration":     "class",
	"struct_declaration":    "struct",
	"interface_declaration": "interface",
	"enum_declaration":      "enum",
}

// BuildFile projects the parsed tree into the declaration model.
func BuildFile(path string, tree *Tree) *File {
	file := &File{Path: path, Tree: tree}
	src := tree.Src()
	Walk(tree.Root(), func(n *sitter.Node) bool {
		if n.Type() == "using_directive" {
			name := FieldAny(n, "name")
			if name == nil {
				// older grammars expose the name as the sole named child
				for _, child := range NamedChildren(n) {
					if child.Type() == "identifier" || child.Type() == "qualified_name" {
						name = child
						break
					}
				}
			}
			if text := strings.TrimSpace(Text(name, src)); text != "" {
				file.Usings = append(file.Usings, text)
			}
			return false
		}
		// usings only appear at the top or namespace level
		switch n.Type() {
		case "compilation_unit", "namespace_declaration", "file_scoped_namespace_declaration":
			return true
		}
		return false
	})
	collectTypes(tree.Root(), src, "", func(t *TypeDecl) {
		file.Types = append(file.Types, t)
	})
	return file
}

// collectTypes walks namespaces and top-level declarations; nested types
// are attached to their parent, not reported at top level.
func collectTypes(n *sitter.Node, src []byte, namespace string, emit func(*TypeDecl)) {
	// A file-scoped namespace applies to every following sibling, so the
	// effective namespace is threaded through the iteration.
	current := namespace
	for _, child := range NamedChildren(n) {
		switch child.Type() {
		case "using_directive":
			// handled by BuildFile
		case "namespace_declaration":
			name := Text(FieldAny(child, "name"), src)
			ns := joinNamespace(current, name)
			collectTypes(child, src, ns, emit)
		case "file_scoped_namespace_declaration":
			name := Text(FieldAny(child, "name"), src)
			current = joinNamespace(current, name)
			// some grammar versions nest the declarations inside
			collectTypes(child, src, current, emit)
		case "declaration_list":
			collectTypes(child, src, current, emit)
		default:
			if _, ok := typeDeclKinds[child.Type()]; ok {
				emit(buildType(child, src, current))
			}
		}
	}
}

func joinNamespace(outer, name string) string {
	if name == "" {
		return outer
	}
	if outer == "" {
		return name
	}
	return outer + "." + name
}

func buildType(n *sitter.Node, src []byte, namespace string) *TypeDecl {
	decl := &TypeDecl{
		Node:      n,
		Namespace: namespace,
		Kind:      typeDeclKinds[n.Type()],
		Attrs:     attributes(n, src),
		Modifiers: Modifiers(n, src),
	}
	if nameNode := FieldAny(n, "name"); nameNode != nil {
		decl.NameNode = nameNode
		decl.Name = Text(nameNode, src)
	}
	bases := FieldAny(n, "bases")
	if bases == nil {
		bases = firstOfKind(n, "base_list")
	}
	if bases != nil {
		for _, base := range NamedChildren(bases) {
			decl.BaseNames = append(decl.BaseNames, strings.TrimSpace(Text(base, src)))
			decl.BaseNodes = append(decl.BaseNodes, base)
		}
	}
	body := FieldAny(n, "body")
	if body == nil {
		return decl
	}
	for _, member := range NamedChildren(body) {
		switch member.Type() {
		case "field_declaration":
			decl.Fields = append(decl.Fields, buildFields(member, src)...)
		case "method_declaration":
			decl.Methods = append(decl.Methods, buildMethod(member, src))
		case "property_declaration":
			decl.Props = append(decl.Props, buildProp(member, src))
		default:
			if _, ok := typeDeclKinds[member.Type()]; ok {
				nested := buildType(member, src, namespace)
				decl.Nested = append(decl.Nested, nested)
			}
		}
	}
	return decl
}

func buildFields(n *sitter.Node, src []byte) []*FieldDecl {
	attrs := attributes(n, src)
	mods := Modifiers(n, src)
	varDecl := firstOfKind(n, "variable_declaration")
	if varDecl == nil {
		return nil
	}
	typeNode := FieldAny(varDecl, "type")
	if typeNode == nil {
		typeNode = varDecl.NamedChild(0)
	}
	typeText := strings.TrimSpace(Text(typeNode, src))
	var out []*FieldDecl
	for _, declarator := range ChildrenOfKind(varDecl, "variable_declarator") {
		nameNode := FieldAny(declarator, "name")
		if nameNode == nil {
			nameNode = declarator.NamedChild(0)
		}
		out = append(out, &FieldDecl{
			Node:      n,
			NameNode:  nameNode,
			TypeNode:  typeNode,
			Name:      Text(nameNode, src),
			Type:      typeText,
			Attrs:     attrs,
			Modifiers: mods,
		})
	}
	return out
}

func buildMethod(n *sitter.Node, src []byte) *MethodDecl {
	method := &MethodDecl{
		Node:      n,
		Attrs:     attributes(n, src),
		Modifiers: Modifiers(n, src),
	}
	if nameNode := FieldAny(n, "name"); nameNode != nil {
		method.NameNode = nameNode
		method.Name = Text(nameNode, src)
	}
	if ret := FieldAny(n, "returns", "type"); ret != nil {
		method.ReturnType = strings.TrimSpace(Text(ret, src))
	}
	if firstOfKind(n, "type_parameter_list") != nil {
		method.Generic = true
	}
	if params := FieldAny(n, "parameters"); params != nil {
		for _, param := range ChildrenOfKind(params, "parameter") {
			method.Params = append(method.Params, buildParam(param, src))
		}
	}
	return method
}

func buildParam(n *sitter.Node, src []byte) ParamDecl {
	out := ParamDecl{Node: n}
	if nameNode := FieldAny(n, "name"); nameNode != nil {
		out.Name = Text(nameNode, src)
	}
	if typeNode := FieldAny(n, "type"); typeNode != nil {
		out.Type = strings.TrimSpace(Text(typeNode, src))
	}
	text := Text(n, src)
	if strings.HasPrefix(text, "ref ") || strings.HasPrefix(text, "out ") ||
		strings.Contains(text, " ref ") || strings.Contains(text, " out ") {
		out.ByRef = true
	}
	return out
}

func buildProp(n *sitter.Node, src []byte) *PropDecl {
	prop := &PropDecl{
		Node:      n,
		Attrs:     attributes(n, src),
		Modifiers: Modifiers(n, src),
	}
	if nameNode := FieldAny(n, "name"); nameNode != nil {
		prop.NameNode = nameNode
		prop.Name = Text(nameNode, src)
	}
	if typeNode := FieldAny(n, "type"); typeNode != nil {
		prop.Type = strings.TrimSpace(Text(typeNode, src))
	}
	return prop
}

// attributes collects the attribute usages declared directly on n.
func attributes(n *sitter.Node, src []byte) []Attr {
	var out []Attr
	for _, list := range ChildrenOfKind(n, "attribute_list") {
		for _, attr := range ChildrenOfKind(list, "attribute") {
			built := Attr{Node: attr}
			if nameNode := FieldAny(attr, "name"); nameNode != nil {
				built.Name = strings.TrimSpace(Text(nameNode, src))
			}
			if argList := firstOfKind(attr, "attribute_argument_list"); argList != nil {
				for _, arg := range ChildrenOfKind(argList, "attribute_argument") {
					built.Args = append(built.Args, buildAttrArg(arg, src))
				}
			}
			out = append(out, built)
		}
	}
	return out
}

func buildAttrArg(n *sitter.Node, src []byte) AttrArg {
	arg := AttrArg{Node: n, Text: strings.TrimSpace(Text(n, src))}
	// Named argument: Mode = X or name: X.
	if eq := firstOfKind(n, "name_equals"); eq != nil {
		arg.Name = strings.TrimSpace(Text(eq.NamedChild(0), src))
		arg.Text = strings.TrimSpace(Text(n, src))
		if idx := strings.Index(arg.Text, "="); idx >= 0 {
			arg.Text = strings.TrimSpace(arg.Text[idx+1:])
		}
	} else if colon := firstOfKind(n, "name_colon"); colon != nil {
		arg.Name = strings.TrimSpace(Text(colon.NamedChild(0), src))
		if idx := strings.Index(arg.Text, ":"); idx >= 0 {
			arg.Text = strings.TrimSpace(arg.Text[idx+1:])
		}
	}
	return arg
}

func firstOfKind(n *sitter.Node, kind string) *sitter.Node {
	for _, child := range NamedChildren(n) {
		if child.Type() == kind {
			return child
		}
	}
	return nil
}
