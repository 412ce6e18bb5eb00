package syntax

import (
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/diag"
)

// Text returns the source text of a node.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// Locate fills 1-based start/end positions of n into a diagnostic.
func Locate(d diag.Diagnostic, n *sitter.Node, path string) diag.Diagnostic {
	d.FilePath = path
	if n == nil {
		return d
	}
	start := n.StartPoint()
	end := n.EndPoint()
	d.StartLine = pointCoord(start.Row) + 1
	d.StartCol = pointCoord(start.Column) + 1
	d.EndLine = pointCoord(end.Row) + 1
	d.EndCol = pointCoord(end.Column) + 1
	return d
}

func pointCoord(v uint32) int {
	coord, err := safecast.Conv[int](v)
	if err != nil {
		return 0
	}
	return coord
}

// Walk visits n and its named descendants depth-first. The visitor
// returns false to skip a subtree.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		Walk(n.NamedChild(i), visit)
	}
}

// NamedChildren returns all named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// ChildrenOfKind returns the named children of n with the given kind.
func ChildrenOfKind(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range NamedChildren(n) {
		if child.Type() == kind {
			out = append(out, child)
		}
	}
	return out
}

// FieldAny returns the first non-nil child for any of the field names.
// Grammar versions disagree on some field names, so lookups are tolerant.
func FieldAny(n *sitter.Node, names ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if child := n.ChildByFieldName(name); child != nil {
			return child
		}
	}
	return nil
}

// Ancestor walks up from n until a node of one of the kinds is found.
func Ancestor(n *sitter.Node, kinds ...string) *sitter.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		for _, kind := range kinds {
			if cur.Type() == kind {
				return cur
			}
		}
	}
	return nil
}

// HasModifier reports whether a declaration node carries the modifier
// keyword (public, static, override, partial, ...).
func HasModifier(n *sitter.Node, src []byte, modifier string) bool {
	if n == nil {
		return false
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "modifier", modifier:
			if strings.TrimSpace(Text(child, src)) == modifier {
				return true
			}
		}
	}
	return false
}

// Modifiers collects the modifier keywords of a declaration node.
func Modifiers(n *sitter.Node, src []byte) []string {
	if n == nil {
		return nil
	}
	var out []string
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "modifier" {
			out = append(out, strings.TrimSpace(Text(child, src)))
		}
	}
	return out
}

// StripQuotes removes the quoting of a C# string literal, including the
// verbatim @ prefix.
func StripQuotes(lit string) string {
	lit = strings.TrimSpace(lit)
	lit = strings.TrimPrefix(lit, "@")
	lit = strings.TrimPrefix(lit, "\"")
	lit = strings.TrimSuffix(lit, "\"")
	return lit
}

// LastSegment returns the final dotted segment of a name
// (BehaviourSyncMode.None -> None).
func LastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
