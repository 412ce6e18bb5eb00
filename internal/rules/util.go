package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// markerBaseType is the UdonSharp script marker base type.
const markerBaseType = "UdonSharpBehaviour"

// primitiveAliases maps C# keyword aliases to metadata names.
var primitiveAliases = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"float":   "System.Single",
	"double":  "System.Double",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"string":  "System.String",
	"object":  "System.Object",
}

// metadataToSimple is the reverse alias table, used for display.
var metadataToSimple = func() map[string]string {
	out := make(map[string]string, len(primitiveAliases))
	for simple, full := range primitiveAliases {
		out[full] = simple
	}
	return out
}()

// numericFamily contains the numeric primitives treated as mutually
// compatible for argument-type checking.
var numericFamily = map[string]bool{
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
	"System.Decimal": true,
}

// UnwrapNullable removes one Nullable layer: T?, Nullable<T> and
// System.Nullable<T> all unwrap to T.
func UnwrapNullable(typeName string) string {
	typeName = strings.TrimSpace(typeName)
	if strings.HasSuffix(typeName, "?") {
		return strings.TrimSpace(strings.TrimSuffix(typeName, "?"))
	}
	for _, prefix := range []string{"System.Nullable<", "Nullable<"} {
		if strings.HasPrefix(typeName, prefix) && strings.HasSuffix(typeName, ">") {
			return strings.TrimSpace(typeName[len(prefix) : len(typeName)-1])
		}
	}
	return typeName
}

// NormalizeTypeName canonicalises a type name for comparison: trims,
// strips global::, unwraps one Nullable layer and resolves primitive
// aliases to their metadata names.
func NormalizeTypeName(typeName string) string {
	typeName = strings.TrimSpace(typeName)
	typeName = strings.TrimPrefix(typeName, "global::")
	typeName = UnwrapNullable(typeName)
	if full, ok := primitiveAliases[typeName]; ok {
		return full
	}
	return typeName
}

// DisplayTypeName renders a normalized name back to the familiar alias.
func DisplayTypeName(typeName string) string {
	if simple, ok := metadataToSimple[typeName]; ok {
		return simple
	}
	return typeName
}

// SameType reports type-name equality up to aliasing, comparing either
// fully or by last segment when one side is unqualified.
func SameType(a, b string) bool {
	na, nb := NormalizeTypeName(a), NormalizeTypeName(b)
	if na == nb {
		return true
	}
	return syntax.LastSegment(na) == syntax.LastSegment(nb) &&
		(strings.Contains(na, ".") != strings.Contains(nb, "."))
}

// ImplicitlyConvertible reports whether an argument of type from can be
// passed where to is expected. All numeric primitives are mutually
// compatible; an unknown argument type never mismatches.
func ImplicitlyConvertible(from, to string) bool {
	if from == "" || to == "" {
		return true
	}
	nf, nt := NormalizeTypeName(from), NormalizeTypeName(to)
	if SameType(nf, nt) {
		return true
	}
	return numericFamily[nf] && numericFamily[nt]
}

// IsUdonScript implements the enclosing-type predicate: the inheritance
// chain contains UdonSharpBehaviour, OR (when semantic lookup fails) the
// base list syntactically names it, OR the type's attributes or member
// attributes contain an "Udon" token.
func IsUdonScript(ix *workspace.Index, decl *syntax.TypeDecl) bool {
	if decl == nil || decl.Kind != "class" {
		return false
	}
	if ix != nil {
		if entry := ix.Lookup(decl.FullName()); entry != nil && entry.Source == decl {
			if ix.InheritsFrom(entry, markerBaseType) {
				return true
			}
		}
	}
	for _, base := range decl.BaseNames {
		if syntax.LastSegment(base) == markerBaseType {
			return true
		}
	}
	if attrsMentionUdon(decl.Attrs) {
		return true
	}
	for _, f := range decl.Fields {
		if attrsMentionUdon(f.Attrs) {
			return true
		}
	}
	for _, m := range decl.Methods {
		if attrsMentionUdon(m.Attrs) {
			return true
		}
	}
	for _, p := range decl.Props {
		if attrsMentionUdon(p.Attrs) {
			return true
		}
	}
	return false
}

func attrsMentionUdon(attrs []syntax.Attr) bool {
	for _, attr := range attrs {
		if strings.Contains(strings.ToLower(attr.Name), "udon") {
			return true
		}
	}
	return false
}

// FindAttr returns the first attribute matching the canonical simple name.
func FindAttr(attrs []syntax.Attr, simple string) *syntax.Attr {
	for i := range attrs {
		if workspace.AttrNamed(attrs[i].Name, simple) {
			return &attrs[i]
		}
	}
	return nil
}

// HasAttr reports whether a name list (index entries keep attribute
// names only) contains the canonical simple name.
func HasAttr(names []string, simple string) bool {
	for _, name := range names {
		if workspace.AttrNamed(name, simple) {
			return true
		}
	}
	return false
}

// ConstantString resolves the method-name argument of an event send to a
// compile-time string: a string literal, a nameof(X.Y) reference, or a
// const string field of the enclosing type. literal reports whether the
// value came from a bare string literal.
func ConstantString(n *sitter.Node, src []byte, enclosing *syntax.TypeDecl) (value string, literal bool, ok bool) {
	if n == nil {
		return "", false, false
	}
	switch n.Type() {
	case "string_literal", "verbatim_string_literal", "raw_string_literal":
		return syntax.StripQuotes(syntax.Text(n, src)), true, true
	case "invocation_expression":
		fn := syntax.FieldAny(n, "function")
		if syntax.Text(fn, src) == "nameof" {
			args := syntax.FieldAny(n, "arguments")
			named := syntax.NamedChildren(args)
			if len(named) == 1 {
				ref := strings.TrimSpace(syntax.Text(named[0], src))
				return syntax.LastSegment(ref), false, true
			}
		}
	case "identifier":
		if enclosing != nil {
			if v, found := constFieldValue(enclosing, syntax.Text(n, src), src); found {
				return v, false, true
			}
		}
	case "argument":
		named := syntax.NamedChildren(n)
		if len(named) > 0 {
			return ConstantString(named[len(named)-1], src, enclosing)
		}
	}
	return "", false, false
}

// constFieldValue finds `const string Name = "...";` on the type.
func constFieldValue(decl *syntax.TypeDecl, name string, src []byte) (string, bool) {
	for _, f := range decl.Fields {
		if f.Name != name || !f.HasModifier("const") {
			continue
		}
		if NormalizeTypeName(f.Type) != "System.String" {
			return "", false
		}
		var value string
		found := false
		syntax.Walk(f.Node, func(n *sitter.Node) bool {
			if found {
				return false
			}
			if n.Type() == "variable_declarator" {
				nameNode := syntax.FieldAny(n, "name")
				if nameNode == nil {
					nameNode = n.NamedChild(0)
				}
				if syntax.Text(nameNode, src) != name {
					return false
				}
				syntax.Walk(n, func(inner *sitter.Node) bool {
					switch inner.Type() {
					case "string_literal", "verbatim_string_literal":
						value = syntax.StripQuotes(syntax.Text(inner, src))
						found = true
						return false
					}
					return !found
				})
				return false
			}
			return true
		})
		return value, found
	}
	return "", false
}

// NameofRef returns the full dotted reference inside nameof(...), or "".
func NameofRef(n *sitter.Node, src []byte) string {
	if n == nil || n.Type() != "invocation_expression" {
		return ""
	}
	fn := syntax.FieldAny(n, "function")
	if syntax.Text(fn, src) != "nameof" {
		return ""
	}
	args := syntax.FieldAny(n, "arguments")
	named := syntax.NamedChildren(args)
	if len(named) != 1 {
		return ""
	}
	return strings.TrimSpace(syntax.Text(named[0], src))
}
