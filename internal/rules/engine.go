// Package rules implements the diagnostic rule engine: ~30 discrete
// syntactic/semantic checks that walk parsed C# trees and emit
// diagnostics with stable USH rule IDs.
//
// Rules are plain values carrying their ID set, the node kinds they
// subscribe to and per-type/per-node callbacks; the engine is a simple
// dispatcher. A rule that panics is isolated: it contributes nothing for
// the document and the others continue.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"ushlint/internal/diag"
	"ushlint/internal/policy"
	"ushlint/internal/settings"
	"ushlint/internal/syntax"
	"ushlint/internal/workspace"
)

// Rule is one rule family: the IDs it may emit, the syntax node kinds it
// subscribes to and its callbacks.
type Rule struct {
	Name    string
	IDs     []string
	Kinds   []string
	PerType func(rc *RunContext, tc *TypeContext)
	PerNode func(rc *RunContext, tc *TypeContext, n *sitter.Node)
}

// All returns the registered rule families.
func All() []Rule {
	return []Rule{
		networkRule(),
		syncRule(),
		apiRule(),
		runtimeRule(),
		languageRule(),
		fieldChangeRule(),
		structureRule(),
	}
}

// Engine dispatches the enabled rule set over a document snapshot.
type Engine struct {
	log   *slog.Logger
	repo  *policy.Repository
	rules []Rule
}

func NewEngine(log *slog.Logger, repo *policy.Repository) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log, repo: repo, rules: All()}
}

// Analyze runs every enabled rule against the document identified by uri
// in the snapshot. Cancellation returns an empty set and the context
// error; per-rule failures are logged and skipped.
func (e *Engine) Analyze(ctx context.Context, snap *workspace.Snapshot, uri string, s settings.Settings) ([]diag.Diagnostic, error) {
	doc, ok := snap.Docs[uri]
	if !ok {
		return nil, nil
	}
	typeContexts := e.typeContexts(snap, doc)

	bag := diag.NewBag(s.MaxDiagnostics)
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	for _, rule := range e.rules {
		if !e.anyEnabled(rule, s) {
			continue
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			local := diag.NewBag(s.MaxDiagnostics)
			rc := &RunContext{
				Ctx:      groupCtx,
				Snapshot: snap,
				Doc:      doc,
				Settings: s,
				Log:      e.log,
				repo:     e.repo,
				reporter: diag.NewDedupReporter(diag.BagReporter{Bag: local}),
			}
			if err := e.runRule(rc, rule, typeContexts); err != nil {
				return err
			}
			mu.Lock()
			for _, d := range local.Items() {
				bag.Add(d)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	bag.Sort()
	bag.Dedup()
	return e.scopeToDocument(bag.Items(), doc), nil
}

// runRule executes one family with panic isolation.
func (e *Engine) runRule(rc *RunContext, rule Rule, typeContexts []*TypeContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("rule panicked, suppressing its diagnostics", "rule", rule.Name, "panic", fmt.Sprint(r))
			err = nil
		}
	}()
	kinds := make(map[string]bool, len(rule.Kinds))
	for _, kind := range rule.Kinds {
		kinds[kind] = true
	}
	for _, tc := range typeContexts {
		if err := rc.Ctx.Err(); err != nil {
			return err
		}
		if !tc.IsScript {
			continue
		}
		if rule.PerType != nil {
			rule.PerType(rc, tc)
		}
		if rule.PerNode == nil || len(kinds) == 0 {
			continue
		}
		syntax.Walk(tc.Decl.Node, func(n *sitter.Node) bool {
			if kinds[n.Type()] {
				rule.PerNode(rc, tc, n)
			}
			return true
		})
	}
	return nil
}

func (e *Engine) typeContexts(snap *workspace.Snapshot, doc *workspace.DocView) []*TypeContext {
	out := make([]*TypeContext, 0, len(doc.File.Types))
	for _, decl := range doc.File.Types {
		tc := &TypeContext{Decl: decl}
		if entry := snap.Index.Lookup(decl.FullName()); entry != nil && entry.Source == decl {
			tc.Entry = entry
		}
		tc.IsScript = IsUdonScript(snap.Index, decl)
		out = append(out, tc)
	}
	return out
}

// anyEnabled reports whether at least one of the family's IDs resolves to
// a visible severity, so fully-hidden families are skipped outright.
func (e *Engine) anyEnabled(rule Rule, s settings.Settings) bool {
	for _, id := range rule.IDs {
		if e.repo.Severity(id, s.Profile, s.RuleOverrides) != diag.SevHidden {
			return true
		}
	}
	return false
}

// scopeToDocument keeps diagnostics located in the analysed file or
// carrying no location at all.
func (e *Engine) scopeToDocument(items []diag.Diagnostic, doc *workspace.DocView) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(items))
	for _, d := range items {
		if d.FilePath == "" || d.FilePath == doc.Doc.Path {
			out = append(out, d)
		}
	}
	return out
}
