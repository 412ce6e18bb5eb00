package policy

import (
	"encoding/json"
)

// ExportPack serialises the current catalogue back into the policy pack
// file format, used by `ushlint rules --export`.
func (r *Repository) ExportPack() ([]byte, error) {
	pack := packFile{Rules: make([]packRule, 0, r.Len())}
	for _, def := range r.AllRules() {
		raw := packRule{
			ID:              def.ID,
			Title:           def.Title,
			Message:         def.MessageTemplate,
			Category:        def.Category,
			DefaultSeverity: def.DefaultSeverity.String(),
			HelpURI:         def.HelpURI,
			HasCodeFix:      def.HasCodeFix,
		}
		if len(def.Profiles) > 0 {
			raw.Profiles = make(map[string]string, len(def.Profiles))
			for profile, sev := range def.Profiles {
				raw.Profiles[profile] = sev.String()
			}
		}
		if len(def.Documentation) > 0 {
			raw.Documentation = make(map[string]map[string]string, len(def.Documentation))
			for locale, entry := range def.Documentation {
				fields := map[string]string{"markdown": entry.Markdown}
				if entry.Title != "" {
					fields["title"] = entry.Title
				}
				raw.Documentation[locale] = fields
			}
		}
		pack.Rules = append(pack.Rules, raw)
	}
	return json.MarshalIndent(pack, "", "  ")
}
