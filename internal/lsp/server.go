// Package lsp implements the stdio JSON-RPC language server: document
// synchronisation, diagnostic publishing and the udonsharp/* custom
// methods. stdout carries wire framing only; all logging goes through
// the structured logger.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"ushlint/internal/logging"
	"ushlint/internal/policy"
	"ushlint/internal/rules"
	"ushlint/internal/settings"
	"ushlint/internal/telemetry"
	"ushlint/internal/version"
	"ushlint/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// PolicyPackDir is the bundled policy pack directory beside the
// executable.
const PolicyPackDir = "PolicyPacks"

// shutdownGrace bounds how long a graceful stop waits for in-flight
// analysis to quiesce.
const shutdownGrace = 2 * time.Second

// ServerOptions configures server behaviour.
type ServerOptions struct {
	// BaseDir locates the bundled PolicyPacks and Stubs trees
	// (normally the executable's directory).
	BaseDir string
	// Debounce delays analysis after a document change.
	Debounce time.Duration
	// Log receives structured server logs; never stdout.
	Log *slog.Logger
	// OnLogLevel, when set, is invoked with the resolved logLevel each
	// time settings are applied.
	OnLogLevel func(slog.Level)
}

// Server handles stdio JSON-RPC for the UdonSharp linter.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	log        *slog.Logger
	baseDir    string
	debounce   time.Duration
	onLogLevel func(slog.Level)

	resolver *settings.Resolver
	loader   *policy.Loader
	repo     *policy.Repository
	manager  *workspace.Manager
	engine   *rules.Engine
	metrics  *telemetry.Aggregator
	watcher  *policy.Watcher

	workspaceRoot     string
	clientLocale      string
	shutdownRequested bool
	baseCtx           context.Context

	versions  map[string]int
	published map[string]struct{}
	timers    map[string]*time.Timer
	cancels   map[string]context.CancelFunc
	seqs      map[string]uint64
	inflight  sync.WaitGroup
}

// NewServer constructs a server over the given streams.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	repo := policy.FromDescriptors()
	return &Server{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		log:        log,
		baseDir:    opts.BaseDir,
		debounce:   debounce,
		onLogLevel: opts.OnLogLevel,
		loader:    policy.NewLoader(log),
		repo:      repo,
		manager:   workspace.NewManager(log, opts.BaseDir),
		engine:    rules.NewEngine(log, repo),
		metrics:   telemetry.New(false),
		versions:  make(map[string]int),
		published: make(map[string]struct{}),
		timers:    make(map[string]*time.Timer),
		cancels:   make(map[string]context.CancelFunc),
		seqs:      make(map[string]uint64),
	}
}

// Run serves LSP requests until shutdown or stream end.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	defer s.stopWatcher()
	defer s.metrics.Flush(s.log)
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("failed to parse message", "error", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "udonsharp/rules/list":
		return s.handleRulesList(msg)
	case "udonsharp/rules/documentation":
		return s.handleRulesDocumentation(msg)
	case "udonsharp/server/status", "udonsharp/status":
		return s.handleServerStatus(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = workspace.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = workspace.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.clientLocale = params.Locale
	s.resolver = settings.NewResolver(s.log, root)
	s.mu.Unlock()

	section := settings.ExtractSection(params.InitializationOptions)
	cfg, _ := s.resolver.Apply(section)
	s.applyLogLevel(cfg)
	s.metrics.SetEnabled(cfg.Telemetry == settings.TelemetryMinimal)
	s.reloadPolicyPacks(cfg)
	if err := s.manager.Initialise(cfg); err != nil {
		return fmt.Errorf("initialise workspace: %w", err)
	}
	s.startWatcher(cfg)
	s.log.Info("server initialised",
		"session", s.metrics.Session(),
		"profile", cfg.Profile,
		"surface", cfg.UnityAPISurface,
		"rules", s.repo.Len())

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    1, // full sync
				Save: saveOptions{
					IncludeText: true,
				},
			},
			DocumentSelector: []documentFilter{
				{Language: "csharp", Scheme: "file"},
				{Language: "csharp", Scheme: "untitled"},
			},
			CodeActionProvider: cfg.CodeActionsEnabled,
		},
		ServerInfo: &serverInfo{Name: "ushlint", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	for uri, cancel := range s.cancels {
		cancel()
		delete(s.cancels, uri)
	}
	for uri, timer := range s.timers {
		timer.Stop()
		delete(s.timers, uri)
	}
	s.mu.Unlock()
	s.waitQuiesce()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

// waitQuiesce waits up to the grace period for in-flight analysis.
func (s *Server) waitQuiesce() {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.log.Warn("analysis did not quiesce before shutdown grace expired")
	}
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.manager.OpenOrUpdate(uri, params.TextDocument.Text, params.TextDocument.Version)
	s.mu.Lock()
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri := params.TextDocument.URI
	if uri == "" || len(params.ContentChanges) == 0 {
		return nil
	}
	doc := s.manager.Get(uri)
	text := ""
	if doc != nil {
		text = doc.Text
	}
	text = applyChanges(text, params.ContentChanges)
	s.manager.OpenOrUpdate(uri, text, params.TextDocument.Version)
	s.mu.Lock()
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	if params.Text != nil {
		doc := s.manager.Get(uri)
		ver := 0
		if doc != nil {
			ver = doc.Version
		}
		s.manager.OpenOrUpdate(uri, *params.Text, ver)
	}
	s.scheduleDiagnostics(uri)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	s.manager.Remove(uri)
	s.mu.Lock()
	delete(s.versions, uri)
	if cancel, ok := s.cancels[uri]; ok {
		cancel()
		delete(s.cancels, uri)
	}
	if timer, ok := s.timers[uri]; ok {
		timer.Stop()
		delete(s.timers, uri)
	}
	delete(s.published, uri)
	s.mu.Unlock()
	// Closing always clears the client's diagnostics for the URI.
	if err := s.sendPublish(uri, nil); err != nil {
		s.log.Warn("failed to clear diagnostics", "uri", uri, "error", err)
	}
	return nil
}

func (s *Server) applyLogLevel(cfg settings.Settings) {
	if s.onLogLevel != nil {
		s.onLogLevel(logging.ParseLevel(cfg.LogLevel))
	}
}

func (s *Server) currentSettings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolver == nil {
		return settings.Default()
	}
	return s.resolver.Current()
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
