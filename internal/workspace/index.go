package workspace

import (
	"strings"

	"ushlint/internal/stubs"
	"ushlint/internal/syntax"
)

// ParamEntry is one parameter of an indexed method.
type ParamEntry struct {
	Type  string
	ByRef bool
}

// MethodEntry is one method of an indexed type.
type MethodEntry struct {
	Name       string
	ReturnType string
	Params     []ParamEntry
	Public     bool
	Static     bool
	Attrs      []string
}

// FieldEntry is one field of an indexed type.
type FieldEntry struct {
	Name   string
	Type   string
	Public bool
	Static bool
	Attrs  []string
}

// PropEntry is one property of an indexed type.
type PropEntry struct {
	Name   string
	Type   string
	Public bool
}

// TypeEntry is one type known to the compilation, merged from stub
// catalogs and open-document declarations. Source declarations keep a
// pointer into the syntax projection; stub entries have Source nil.
type TypeEntry struct {
	Name      string
	Namespace string
	Base      string
	Kind      string
	Methods   []MethodEntry
	Fields    []FieldEntry
	Props     []PropEntry
	Attrs     []string
	SyncMode  string
	Source    *syntax.TypeDecl
	File      string
}

// FullName returns the namespace-qualified name.
func (t *TypeEntry) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Index resolves type names across stub catalogs and source files.
// Open-document declarations shadow stub types of the same full name.
type Index struct {
	byFull   map[string]*TypeEntry
	bySimple map[string][]*TypeEntry
}

// NewIndex builds the semantic index. Catalogs are added first so that
// source declarations win on collision.
func NewIndex(catalogs []*stubs.Catalog, files []*syntax.File) *Index {
	ix := &Index{
		byFull:   make(map[string]*TypeEntry),
		bySimple: make(map[string][]*TypeEntry),
	}
	for _, cat := range catalogs {
		for i := range cat.Types {
			ix.add(fromStub(&cat.Types[i]))
		}
	}
	for _, file := range files {
		for _, decl := range file.Types {
			ix.add(fromSource(decl, file))
		}
	}
	return ix
}

func (ix *Index) add(entry *TypeEntry) {
	full := entry.FullName()
	if prev, ok := ix.byFull[full]; ok {
		// Source shadows stubs; drop the previous simple-name slot.
		simples := ix.bySimple[prev.Name]
		for i, e := range simples {
			if e == prev {
				ix.bySimple[prev.Name] = append(simples[:i], simples[i+1:]...)
				break
			}
		}
	}
	ix.byFull[full] = entry
	ix.bySimple[entry.Name] = append(ix.bySimple[entry.Name], entry)
}

// Lookup resolves a possibly-qualified type name. A simple name resolves
// only when unambiguous.
func (ix *Index) Lookup(name string) *TypeEntry {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if entry, ok := ix.byFull[name]; ok {
		return entry
	}
	candidates := ix.bySimple[syntax.LastSegment(name)]
	if len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// BaseChain returns the inheritance chain of t, excluding t itself.
// Cycles and unresolved bases terminate the walk.
func (ix *Index) BaseChain(t *TypeEntry) []*TypeEntry {
	var chain []*TypeEntry
	seen := map[*TypeEntry]bool{t: true}
	for cur := t; cur != nil && cur.Base != ""; {
		next := ix.Lookup(cur.Base)
		if next == nil || seen[next] {
			break
		}
		seen[next] = true
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// InheritsFrom reports whether t's chain (or its own base name, when the
// base cannot be resolved) contains the named type.
func (ix *Index) InheritsFrom(t *TypeEntry, name string) bool {
	simple := syntax.LastSegment(name)
	for cur := t; cur != nil && cur.Base != ""; {
		if cur.Base == name || syntax.LastSegment(cur.Base) == simple {
			return true
		}
		next := ix.Lookup(cur.Base)
		if next == nil || next == cur {
			return false
		}
		cur = next
	}
	return false
}

// MethodsNamed collects methods with the given name on t and its base
// chain, nearest first.
func (ix *Index) MethodsNamed(t *TypeEntry, name string) []MethodEntry {
	var out []MethodEntry
	for _, entry := range append([]*TypeEntry{t}, ix.BaseChain(t)...) {
		for _, m := range entry.Methods {
			if m.Name == name {
				out = append(out, m)
			}
		}
	}
	return out
}

// PropNamed finds a property on t or its base chain.
func (ix *Index) PropNamed(t *TypeEntry, name string) *PropEntry {
	for _, entry := range append([]*TypeEntry{t}, ix.BaseChain(t)...) {
		for i := range entry.Props {
			if entry.Props[i].Name == name {
				return &entry.Props[i]
			}
		}
	}
	return nil
}

func fromStub(def *stubs.TypeDef) *TypeEntry {
	entry := &TypeEntry{
		Name:      def.Name,
		Namespace: def.Namespace,
		Base:      def.Base,
		Kind:      def.Kind.String(),
		Attrs:     def.Attrs,
	}
	for _, m := range def.Members {
		switch m.Kind {
		case stubs.MemberMethod:
			method := MethodEntry{
				Name:       m.Name,
				ReturnType: m.Type,
				Public:     m.Public,
				Static:     m.Static,
				Attrs:      m.Attrs,
			}
			for _, param := range m.Params {
				method.Params = append(method.Params, ParamEntry{Type: param.Type, ByRef: param.ByRef})
			}
			entry.Methods = append(entry.Methods, method)
		case stubs.MemberField:
			entry.Fields = append(entry.Fields, FieldEntry{
				Name: m.Name, Type: m.Type, Public: m.Public, Static: m.Static, Attrs: m.Attrs,
			})
		case stubs.MemberProperty:
			entry.Props = append(entry.Props, PropEntry{Name: m.Name, Type: m.Type, Public: m.Public})
		}
	}
	return entry
}

func fromSource(decl *syntax.TypeDecl, file *syntax.File) *TypeEntry {
	entry := &TypeEntry{
		Name:      decl.Name,
		Namespace: decl.Namespace,
		Kind:      decl.Kind,
		Source:    decl,
		File:      file.Path,
		SyncMode:  SyncModeOf(decl),
	}
	if len(decl.BaseNames) > 0 {
		entry.Base = decl.BaseNames[0]
	}
	for _, attr := range decl.Attrs {
		entry.Attrs = append(entry.Attrs, attr.Name)
	}
	for _, m := range decl.Methods {
		method := MethodEntry{
			Name:       m.Name,
			ReturnType: m.ReturnType,
			Public:     m.IsPublic(),
			Static:     m.HasModifier("static"),
		}
		for _, attr := range m.Attrs {
			method.Attrs = append(method.Attrs, attr.Name)
		}
		for _, param := range m.Params {
			method.Params = append(method.Params, ParamEntry{Type: param.Type, ByRef: param.ByRef})
		}
		entry.Methods = append(entry.Methods, method)
	}
	for _, f := range decl.Fields {
		field := FieldEntry{
			Name:   f.Name,
			Type:   f.Type,
			Public: f.HasModifier("public"),
			Static: f.HasModifier("static"),
		}
		for _, attr := range f.Attrs {
			field.Attrs = append(field.Attrs, attr.Name)
		}
		entry.Fields = append(entry.Fields, field)
	}
	for _, p := range decl.Props {
		entry.Props = append(entry.Props, PropEntry{
			Name: p.Name, Type: p.Type, Public: p.HasModifier("public"),
		})
	}
	return entry
}

// SyncModeOf extracts the behaviour sync mode from the
// UdonBehaviourSyncMode attribute, by positional or Mode= argument.
// Returns "" when the attribute is absent.
func SyncModeOf(decl *syntax.TypeDecl) string {
	for _, attr := range decl.Attrs {
		if !AttrNamed(attr.Name, "UdonBehaviourSyncMode") {
			continue
		}
		for _, arg := range attr.Args {
			if arg.Name != "" && arg.Name != "Mode" {
				continue
			}
			if mode := syntax.LastSegment(arg.Text); mode != "" {
				return mode
			}
		}
	}
	return ""
}

// AttrNamed matches an attribute usage name against a canonical simple
// name: the simple name itself, the "Attribute"-suffixed form, and either
// with any qualifier prefix.
func AttrNamed(used, simple string) bool {
	used = syntax.LastSegment(strings.TrimSpace(used))
	return strings.EqualFold(used, simple) || strings.EqualFold(used, simple+"Attribute")
}
