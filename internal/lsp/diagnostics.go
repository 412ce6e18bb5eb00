package lsp

import (
	"context"
	"errors"
	"time"

	"ushlint/internal/diag"
)

// diagnosticSource is the source tag attached to every published
// diagnostic.
const diagnosticSource = "UdonSharp"

// scheduleDiagnostics debounces analysis per document URI. A newer
// update cancels the in-flight analysis for that URI before starting a
// new one; diagnostics are published in notification-arrival order.
func (s *Server) scheduleDiagnostics(uri string) {
	s.mu.Lock()
	if s.shutdownRequested {
		s.mu.Unlock()
		return
	}
	s.seqs[uri]++
	seq := s.seqs[uri]
	if cancel, ok := s.cancels[uri]; ok {
		cancel()
		delete(s.cancels, uri)
	}
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.debounce, func() {
		s.runDiagnostics(uri, seq)
	})
	s.mu.Unlock()
}

func (s *Server) runDiagnostics(uri string, seq uint64) {
	s.mu.Lock()
	if s.shutdownRequested || seq != s.seqs[uri] || s.baseCtx == nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[uri] = cancel
	s.mu.Unlock()

	s.inflight.Add(1)
	defer s.inflight.Done()
	defer cancel()

	cfg := s.currentSettings()
	snap, err := s.manager.Snapshot(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("snapshot failed", "uri", uri, "error", err)
		}
		return
	}
	diags, err := s.engine.Analyze(ctx, snap, uri, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// A cancelled run publishes nothing.
			s.metrics.RecordAnalysis(nil, true)
			return
		}
		s.log.Error("analysis failed", "uri", uri, "error", err)
		return
	}
	ruleIDs := make([]string, 0, len(diags))
	for _, d := range diags {
		ruleIDs = append(ruleIDs, d.ID)
	}
	s.metrics.RecordAnalysis(ruleIDs, false)

	s.mu.Lock()
	if seq != s.seqs[uri] || s.shutdownRequested {
		s.mu.Unlock()
		return
	}
	if len(diags) > 0 {
		s.published[uri] = struct{}{}
	} else {
		delete(s.published, uri)
	}
	s.mu.Unlock()

	if err := s.sendPublish(uri, toWire(diags)); err != nil {
		s.log.Warn("failed to publish diagnostics", "uri", uri, "error", err)
		return
	}
	s.log.Debug("published diagnostics", "uri", uri, "count", len(diags), "seq", seq)
}

// analyzeAllOpen re-publishes diagnostics for every open document, used
// after configuration or policy pack changes.
func (s *Server) analyzeAllOpen() {
	for _, uri := range s.manager.OpenURIs() {
		s.scheduleDiagnostics(uri)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for uri := range prev {
		if err := s.sendPublish(uri, nil); err != nil {
			s.log.Warn("failed to clear diagnostics", "uri", uri, "error", err)
		}
	}
}

// toWire converts engine diagnostics to the LSP wire shape: 0-based
// positions, severity mapping Error=1..Hidden=4, synthetic locations
// clamped to (0,0)-(0,0).
func toWire(diags []diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		startLine := maxZero(d.StartLine - 1)
		startCol := maxZero(d.StartCol - 1)
		endLine := maxZero(d.EndLine - 1)
		endCol := maxZero(d.EndCol - 1)
		if d.Synthetic() {
			startLine, startCol, endLine, endCol = 0, 0, 0, 0
		}
		out = append(out, lspDiagnostic{
			Range: lspRange{
				Start: position{Line: startLine, Character: startCol},
				End:   position{Line: endLine, Character: endCol},
			},
			Severity: d.Severity.LSP(),
			Code:     d.ID,
			Source:   diagnosticSource,
			Message:  d.Message,
		})
	}
	return out
}

func maxZero(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
