// Package telemetry aggregates in-process usage counters when the
// minimal telemetry mode is enabled. Nothing ever leaves the process;
// the aggregate is written to the structured log on shutdown.
package telemetry

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// EnvDisable is the environment kill-switch: when set to "0" telemetry
// aggregation is disabled regardless of settings.
const EnvDisable = "UDONSHARP_LINTER_TELEMETRY"

// Aggregator collects counters for one server session.
type Aggregator struct {
	session string
	enabled bool

	mu          sync.Mutex
	analyses    uint64
	cancelled   uint64
	diagnostics uint64
	perRule     map[string]uint64
}

// New builds an aggregator. enabled reflects the settings value; the
// environment kill-switch wins.
func New(enabled bool) *Aggregator {
	if os.Getenv(EnvDisable) == "0" {
		enabled = false
	}
	return &Aggregator{
		session: uuid.NewString(),
		enabled: enabled,
		perRule: make(map[string]uint64),
	}
}

// Session returns the session identifier used to tag log lines.
func (a *Aggregator) Session() string {
	return a.session
}

// SetEnabled flips aggregation with the settings snapshot; the
// environment kill-switch still wins.
func (a *Aggregator) SetEnabled(enabled bool) {
	if os.Getenv(EnvDisable) == "0" {
		enabled = false
	}
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
}

// RecordAnalysis counts one completed analysis and its diagnostics.
func (a *Aggregator) RecordAnalysis(ruleIDs []string, cancelled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		return
	}
	if cancelled {
		a.cancelled++
		return
	}
	a.analyses++
	a.diagnostics += uint64(len(ruleIDs))
	for _, id := range ruleIDs {
		a.perRule[id]++
	}
}

// Flush writes the aggregate to the logger.
func (a *Aggregator) Flush(log *slog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled || log == nil {
		return
	}
	rules := make([]string, 0, len(a.perRule))
	for id := range a.perRule {
		rules = append(rules, id)
	}
	sort.Strings(rules)
	attrs := []any{
		"session", a.session,
		"analyses", a.analyses,
		"cancelled", a.cancelled,
		"diagnostics", a.diagnostics,
	}
	for _, id := range rules {
		attrs = append(attrs, "rule_"+id, a.perRule[id])
	}
	log.Info("telemetry aggregate", attrs...)
}
