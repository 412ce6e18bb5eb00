package lsp

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
	"ushlint/internal/settings"
	"ushlint/internal/version"
)

const missingDocumentation = "Documentation not available."

// descriptionOf surfaces the localised markdown body in rules/list, when
// the catalogue carries one.
func descriptionOf(repo *policy.Repository, id, locale string) string {
	if entry := repo.Documentation(id, locale); entry != nil {
		return entry.Markdown
	}
	return ""
}

func (s *Server) handleRulesList(msg *rpcMessage) error {
	cfg := s.currentSettings()
	defs := s.repo.AllRules()
	out := make([]ruleListEntry, 0, len(defs))
	for _, def := range defs {
		entry := ruleListEntry{
			ID:              def.ID,
			Title:           def.Title,
			Category:        def.Category,
			DefaultSeverity: def.DefaultSeverity.LSP(),
			Description:     descriptionOf(s.repo, def.ID, s.locale()),
			HelpLink:        def.HelpURI,
			HasCodeFix:      def.HasCodeFix && cfg.CodeActionsEnabled,
		}
		if len(def.Profiles) > 0 {
			entry.ProfileSeverity = make(map[string]int, len(def.Profiles))
			for profile, sev := range def.Profiles {
				entry.ProfileSeverity[profile] = sev.LSP()
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return s.sendResponse(msg.ID, out)
}

func (s *Server) handleRulesDocumentation(msg *rpcMessage) error {
	var params ruleDocumentationParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	locale := params.Locale
	if locale == "" {
		locale = s.locale()
	}
	result := ruleDocumentationResult{
		ID:       policy.NormalizeID(params.RuleID),
		Locale:   locale,
		Markdown: missingDocumentation,
	}
	if def, ok := s.repo.Rule(params.RuleID); ok {
		result.Title = def.Title
		if entry := s.repo.Documentation(def.ID, locale); entry != nil {
			result.Markdown = entry.Markdown
			if entry.Title != "" {
				result.Title = entry.Title
			}
		}
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleServerStatus(msg *rpcMessage) error {
	cfg := s.currentSettings()
	disabled := 0
	for _, def := range s.repo.AllRules() {
		if s.repo.Severity(def.ID, cfg.Profile, cfg.RuleOverrides) == diag.SevHidden {
			disabled++
		}
	}
	return s.sendResponse(msg.ID, serverStatusResult{
		Profile:           cfg.Profile,
		DisabledRuleCount: disabled,
		TotalRuleCount:    s.repo.Len(),
		ServerVersion:     version.Version,
	})
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.mu.Lock()
	resolver := s.resolver
	s.mu.Unlock()
	if resolver == nil {
		return nil
	}
	prev := resolver.Current()
	section := settings.ExtractSection(params.Settings)
	cfg, changed := resolver.Apply(section)
	if !changed {
		return nil
	}
	s.log.Info("configuration changed", "profile", cfg.Profile, "surface", cfg.UnityAPISurface)
	s.applyLogLevel(cfg)
	s.metrics.SetEnabled(cfg.Telemetry == settings.TelemetryMinimal)
	s.reloadPolicyPacks(cfg)
	if prev.ReferencesChanged(cfg) {
		if err := s.manager.Initialise(cfg); err != nil {
			s.log.Error("reference rebuild failed, keeping previous references", "error", err)
		}
	}
	s.restartWatcher(cfg)
	s.analyzeAllOpen()
	return nil
}

// reloadPolicyPacks merges the bundled pack directory with the
// configured extra paths and swaps the repository atomically. An empty
// merge result keeps the built-in descriptor table so the server never
// runs without a catalogue.
func (s *Server) reloadPolicyPacks(cfg settings.Settings) {
	bundled := ""
	if s.baseDir != "" {
		bundled = filepath.Join(s.baseDir, PolicyPackDir)
	}
	merged := s.loader.Load(bundled, cfg.PolicyPackPaths)
	if len(merged) == 0 {
		s.log.Warn("no policy packs loaded, falling back to built-in catalogue")
		defaults := make(map[string]policy.Definition)
		for _, def := range policy.Descriptors() {
			defaults[def.ID] = def
		}
		s.repo.Replace(defaults)
		return
	}
	s.repo.Replace(merged)
	s.log.Info("policy packs loaded", "rules", len(merged))
}

// startWatcher observes policy pack locations for hot reload.
func (s *Server) startWatcher(cfg settings.Settings) {
	paths := make([]string, 0, len(cfg.PolicyPackPaths)+1)
	if s.baseDir != "" {
		paths = append(paths, filepath.Join(s.baseDir, PolicyPackDir))
	}
	paths = append(paths, cfg.PolicyPackPaths...)
	watcher, err := policy.NewWatcher(s.log, paths, func() {
		s.log.Info("policy packs changed on disk, reloading")
		s.reloadPolicyPacks(s.currentSettings())
		s.analyzeAllOpen()
	})
	if err != nil {
		s.log.Warn("policy pack watcher unavailable", "error", err)
		return
	}
	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()
}

func (s *Server) restartWatcher(cfg settings.Settings) {
	s.stopWatcher()
	s.startWatcher(cfg)
}

func (s *Server) stopWatcher() {
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			s.log.Debug("watcher close failed", "error", err)
		}
	}
}

func (s *Server) locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientLocale != "" {
		return s.clientLocale
	}
	return "en-US"
}
