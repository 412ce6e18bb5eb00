package rules

import (
	"ushlint/internal/policy"
	"ushlint/internal/syntax"
)

// fieldChangeRule covers USH0040-USH0042: FieldChangeCallback attributes
// must reference exactly one existing property of a compatible type.
func fieldChangeRule() Rule {
	return Rule{
		Name:    "field-change-callbacks",
		IDs:     []string{policy.USH0040, policy.USH0041, policy.USH0042},
		PerType: checkFieldChangeCallbacks,
	}
}

func checkFieldChangeCallbacks(rc *RunContext, tc *TypeContext) {
	src := rc.Src()
	seen := make(map[string]string) // property name -> first field
	for _, field := range tc.Decl.Fields {
		attr := FindAttr(field.Attrs, "FieldChangeCallback")
		if attr == nil || len(attr.Args) == 0 {
			continue
		}
		propName := callbackTarget(attr, src, tc.Decl)
		if propName == "" {
			continue
		}
		node := field.NameNode
		if node == nil {
			node = field.Node
		}
		if _, dup := seen[propName]; dup {
			rc.ReportNode(policy.USH0040, node, propName)
		} else {
			seen[propName] = field.Name
		}

		prop := propNamed(rc, tc, propName)
		if prop == nil {
			rc.ReportNode(policy.USH0041, node, propName, tc.Decl.Name)
			continue
		}
		if !SameType(prop.Type, field.Type) {
			rc.ReportNode(policy.USH0042, node, propName, prop.Type, field.Type)
		}
	}
}

// callbackTarget resolves the attribute argument to the property name:
// a string literal or a nameof reference.
func callbackTarget(attr *syntax.Attr, src []byte, enclosing *syntax.TypeDecl) string {
	arg := attr.Args[0]
	if arg.Node != nil {
		named := syntax.NamedChildren(arg.Node)
		if len(named) > 0 {
			if value, _, ok := ConstantString(named[len(named)-1], src, enclosing); ok {
				return value
			}
		}
	}
	return syntax.StripQuotes(arg.Text)
}

type propView struct {
	Name string
	Type string
}

func propNamed(rc *RunContext, tc *TypeContext, name string) *propView {
	for _, p := range tc.Decl.Props {
		if p.Name == name {
			return &propView{Name: p.Name, Type: p.Type}
		}
	}
	if tc.Entry != nil {
		if p := rc.Index().PropNamed(tc.Entry, name); p != nil {
			return &propView{Name: p.Name, Type: p.Type}
		}
	}
	return nil
}
