package rules

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
	"ushlint/internal/settings"
	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// TypeContext is the enclosing type a rule currently inspects.
type TypeContext struct {
	Decl     *syntax.TypeDecl
	Entry    *workspace.TypeEntry
	IsScript bool
}

// RunContext carries everything one rule execution needs. The policy
// repository and settings snapshot are explicit parameters; rules share
// no global state.
type RunContext struct {
	Ctx      context.Context
	Snapshot *workspace.Snapshot
	Doc      *workspace.DocView
	Settings settings.Settings
	Log      *slog.Logger

	repo     *policy.Repository
	reporter diag.Reporter
}

// Src returns the source bytes of the analysed document.
func (rc *RunContext) Src() []byte {
	return rc.Doc.File.Tree.Src()
}

// Index returns the semantic index of the snapshot.
func (rc *RunContext) Index() *workspace.Index {
	return rc.Snapshot.Index
}

// Severity resolves the effective severity of a rule under the current
// settings.
func (rc *RunContext) Severity(id string) diag.Severity {
	return rc.repo.Severity(id, rc.Settings.Profile, rc.Settings.RuleOverrides)
}

// ReportNode emits a diagnostic for the rule at the node's location,
// formatting the catalogue message template with args. Hidden rules and
// rules absent from the catalogue are suppressed.
func (rc *RunContext) ReportNode(id string, n *sitter.Node, args ...any) {
	def, ok := rc.repo.Rule(id)
	if !ok {
		return
	}
	sev := rc.Severity(id)
	if sev == diag.SevHidden {
		return
	}
	d := diag.Diagnostic{
		ID:       def.ID,
		Message:  def.Format(args...),
		Severity: sev,
	}
	d = syntax.Locate(d, n, rc.Doc.Doc.Path)
	rc.reporter.Report(d)
}
