package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// File is the declaration projection of one parsed source file.
type File struct {
	Path   string
	Tree   *Tree
	Usings []string
	Types  []*TypeDecl
}

// TypeDecl is a class/struct/interface/enum declaration.
type TypeDecl struct {
	Node      *sitter.Node
	NameNode  *sitter.Node
	Name      string
	Namespace string
	Kind      string // class, struct, interface, enum
	BaseNames []string
	BaseNodes []*sitter.Node
	Attrs     []Attr
	Modifiers []string
	Fields    []*FieldDecl
	Methods   []*MethodDecl
	Props     []*PropDecl
	Nested    []*TypeDecl
}

// FullName returns the namespace-qualified name.
func (t *TypeDecl) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// HasModifier reports whether the declaration carries the modifier.
func (t *TypeDecl) HasModifier(m string) bool {
	for _, mod := range t.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// FieldDecl is one declared field (one declarator; a multi-declarator
// field declaration projects into several FieldDecls).
type FieldDecl struct {
	Node      *sitter.Node // the field_declaration
	NameNode  *sitter.Node
	TypeNode  *sitter.Node
	Name      string
	Type      string
	Attrs     []Attr
	Modifiers []string
}

func (f *FieldDecl) HasModifier(m string) bool {
	for _, mod := range f.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// MethodDecl is one declared method.
type MethodDecl struct {
	Node       *sitter.Node
	NameNode   *sitter.Node
	Name       string
	ReturnType string
	Params     []ParamDecl
	Attrs      []Attr
	Modifiers  []string
	Generic    bool
}

func (m *MethodDecl) HasModifier(mod string) bool {
	for _, mm := range m.Modifiers {
		if mm == mod {
			return true
		}
	}
	return false
}

// IsPublic reports the public modifier.
func (m *MethodDecl) IsPublic() bool { return m.HasModifier("public") }

// ParamDecl is one method parameter.
type ParamDecl struct {
	Node  *sitter.Node
	Name  string
	Type  string
	ByRef bool // ref or out
}

// PropDecl is one declared property.
type PropDecl struct {
	Node      *sitter.Node
	NameNode  *sitter.Node
	Name      string
	Type      string
	Attrs     []Attr
	Modifiers []string
}

func (p *PropDecl) HasModifier(m string) bool {
	for _, mod := range p.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// Attr is one attribute usage: [Name(arg, Name = value)].
type Attr struct {
	Node *sitter.Node
	Name string
	Args []AttrArg
}

// AttrArg is one attribute argument, kept as raw text plus an optional
// name for named arguments (Mode = BehaviourSyncMode.Manual).
type AttrArg struct {
	Node *sitter.Node
	Name string
	Text string
}
