package policy

import (
	"sort"
	"sync/atomic"

	"golang.org/x/text/language"

	"ushlint/internal/diag"
)

const fallbackLocale = "en-US"

type catalog struct {
	byID  map[string]Definition
	order []string
}

// Repository holds the merged rule catalogue. The catalogue is swapped
// atomically on reload; readers always see a complete snapshot.
type Repository struct {
	current atomic.Pointer[catalog]
}

// NewRepository builds a repository over the given definitions. Keys are
// normalised upper-case.
func NewRepository(defs map[string]Definition) *Repository {
	r := &Repository{}
	r.Replace(defs)
	return r
}

// FromDescriptors builds a repository from the built-in descriptor table.
func FromDescriptors() *Repository {
	defs := make(map[string]Definition)
	for _, d := range Descriptors() {
		defs[d.ID] = d
	}
	return NewRepository(defs)
}

// Replace swaps the catalogue atomically.
func (r *Repository) Replace(defs map[string]Definition) {
	byID := make(map[string]Definition, len(defs))
	order := make([]string, 0, len(defs))
	for id, def := range defs {
		norm := NormalizeID(id)
		def.ID = norm
		byID[norm] = def
		order = append(order, norm)
	}
	sort.Strings(order)
	r.current.Store(&catalog{byID: byID, order: order})
}

// AllRules returns every definition in stable order by ID.
func (r *Repository) AllRules() []Definition {
	cat := r.current.Load()
	out := make([]Definition, 0, len(cat.order))
	for _, id := range cat.order {
		out = append(out, cat.byID[id])
	}
	return out
}

// Rule looks up a definition by case-insensitive ID.
func (r *Repository) Rule(id string) (Definition, bool) {
	cat := r.current.Load()
	def, ok := cat.byID[NormalizeID(id)]
	return def, ok
}

// Len returns the number of rules in the catalogue.
func (r *Repository) Len() int {
	return len(r.current.Load().order)
}

// Severity resolves the effective severity of a rule: user override first,
// then the rule's profile entry, then the rule default. Unknown rules
// resolve to Hidden.
func (r *Repository) Severity(id, profile string, overrides map[string]diag.Severity) diag.Severity {
	def, ok := r.Rule(id)
	if !ok {
		return diag.SevHidden
	}
	if sev, ok := overrides[NormalizeID(id)]; ok {
		return sev
	}
	if sev, ok := def.Profiles[profile]; ok {
		return sev
	}
	return def.DefaultSeverity
}

// Documentation resolves a rule's documentation for the requested locale:
// best language match first, then en-US, then nil.
func (r *Repository) Documentation(id, locale string) *DocEntry {
	def, ok := r.Rule(id)
	if !ok || len(def.Documentation) == 0 {
		return nil
	}
	if entry, ok := def.Documentation[locale]; ok {
		return &entry
	}
	if matched := matchLocale(def.Documentation, locale); matched != "" {
		entry := def.Documentation[matched]
		return &entry
	}
	if entry, ok := def.Documentation[fallbackLocale]; ok {
		return &entry
	}
	return nil
}

// matchLocale picks the closest available locale via language matching.
func matchLocale(docs map[string]DocEntry, locale string) string {
	if locale == "" {
		return ""
	}
	want, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	keys := make([]string, 0, len(docs))
	tags := make([]language.Tag, 0, len(docs))
	for key := range docs {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		keys = append(keys, key)
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return ""
	}
	sort.Sort(&localeSorter{keys: keys, tags: tags})
	matcher := language.NewMatcher(tags)
	_, index, conf := matcher.Match(want)
	if conf == language.No {
		return ""
	}
	return keys[index]
}

type localeSorter struct {
	keys []string
	tags []language.Tag
}

func (s *localeSorter) Len() int           { return len(s.keys) }
func (s *localeSorter) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s *localeSorter) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.tags[i], s.tags[j] = s.tags[j], s.tags[i]
}
