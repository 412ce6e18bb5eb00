package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ushlint/internal/diag"
	"ushlint/internal/rules"
	"ushlint/internal/settings"
	"ushlint/internal/ui"
	"ushlint/internal/workspace"
)

type analyzeOutcome struct {
	diags []diag.Diagnostic
	err   error
}

// analyzeWithUI runs the analysis behind a progress view. uris and files
// are parallel slices: the URI identifies the document, the path labels
// the progress row.
func analyzeWithUI(ctx context.Context, engine *rules.Engine, snap *workspace.Snapshot, uris, files []string, cfg settings.Settings) ([]diag.Diagnostic, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)
	pathByURI := make(map[string]string, len(uris))
	for i, uri := range uris {
		pathByURI[uri] = files[i]
	}

	go func() {
		report := func(uri string, diags []diag.Diagnostic, err error) {
			path := pathByURI[uri]
			switch {
			case err != nil:
				events <- ui.Event{Path: path, Status: ui.StatusFailed}
			case len(diags) == 0:
				events <- ui.Event{Path: path, Status: ui.StatusClean}
			default:
				events <- ui.Event{Path: path, Status: ui.StatusIssues, Diagnostics: len(diags)}
			}
		}
		for _, path := range files {
			events <- ui.Event{Path: path, Status: ui.StatusAnalyzing}
		}
		diags, err := analyzeAll(ctx, engine, snap, uris, cfg, 0, report)
		outcomeCh <- analyzeOutcome{diags: diags, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("analyzing UdonSharp scripts", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.diags, uiErr
	}
	return outcome.diags, outcome.err
}
