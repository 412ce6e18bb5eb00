package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, out *bytes.Buffer) *Server {
	t.Helper()
	server := NewServer(bytes.NewReader(nil), out, ServerOptions{
		BaseDir:  t.TempDir(),
		Debounce: time.Hour, // tests drive analysis explicitly
	})
	server.baseCtx = context.Background()
	return server
}

func initialize(t *testing.T, server *Server, root string) {
	t.Helper()
	params := initializeParams{RootURI: "file://" + filepath.ToSlash(root)}
	payload, _ := json.Marshal(params)
	if err := server.handleInitialize(&rpcMessage{ID: json.RawMessage("1"), Method: "initialize", Params: payload}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func openDoc(t *testing.T, server *Server, uri, text string) {
	t.Helper()
	params := didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "csharp", Version: 1, Text: text},
	}
	payload, _ := json.Marshal(params)
	if err := server.handleDidOpen(&rpcMessage{Method: "textDocument/didOpen", Params: payload}); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
}

// readMessages decodes every framed JSON-RPC message in the buffer.
func readMessages(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if err != nil {
			break
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func stopTimers(server *Server) {
	server.mu.Lock()
	for _, timer := range server.timers {
		timer.Stop()
	}
	server.mu.Unlock()
}

func TestInitializeAdvertisesFullSync(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())

	msgs := readMessages(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d", len(msgs))
	}
	var result initializeResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Capabilities.TextDocumentSync.Change != 1 {
		t.Fatalf("expected full sync, got %d", result.Capabilities.TextDocumentSync.Change)
	}
	if !result.Capabilities.TextDocumentSync.Save.IncludeText {
		t.Fatal("expected save.includeText")
	}
}

func TestPublishDiagnosticsMapping(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	path := filepath.Join(t.TempDir(), "A.cs")
	uri := "file://" + filepath.ToSlash(path)
	openDoc(t, server, uri, `
namespace W {
    class A : UdonSharpBehaviour
    {
        void Go() { SendCustomEvent("Missing"); }
    }
}
`)
	stopTimers(server)
	server.runDiagnostics(uri, 1)

	msgs := readMessages(t, &out)
	if len(msgs) != 1 {
		t.Fatalf("expected one publish, got %d", len(msgs))
	}
	if msgs[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("unexpected method %q", msgs[0].Method)
	}
	raw, _ := json.Marshal(msgs[0])
	var wrapper struct {
		Params publishDiagnosticsParams `json:"params"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	params := wrapper.Params
	if params.URI != uri {
		t.Fatalf("unexpected uri %q", params.URI)
	}
	if len(params.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	found := false
	for _, d := range params.Diagnostics {
		if d.Code == "USH0001" {
			found = true
			if d.Source != "UdonSharp" {
				t.Fatalf("unexpected source %q", d.Source)
			}
			if d.Severity != 1 {
				t.Fatalf("expected error severity, got %d", d.Severity)
			}
			if d.Range.Start.Line != 4 {
				t.Fatalf("expected 0-based line 4, got %d", d.Range.Start.Line)
			}
		}
	}
	if !found {
		t.Fatal("expected USH0001")
	}
}

func TestCloseClearsDiagnostics(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	uri := "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "A.cs"))
	openDoc(t, server, uri, "class A : UdonSharpBehaviour { }")
	stopTimers(server)

	params := didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: uri}}
	payload, _ := json.Marshal(params)
	if err := server.handleDidClose(&rpcMessage{Method: "textDocument/didClose", Params: payload}); err != nil {
		t.Fatalf("didClose: %v", err)
	}

	msgs := readMessages(t, &out)
	empties := 0
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		raw, _ := json.Marshal(msg)
		var wrapper struct {
			Params publishDiagnosticsParams `json:"params"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			t.Fatalf("decode params: %v", err)
		}
		if wrapper.Params.URI == uri && len(wrapper.Params.Diagnostics) == 0 {
			empties++
		}
	}
	if empties != 1 {
		t.Fatalf("expected exactly one empty publish, got %d", empties)
	}
	if server.manager.Get(uri) != nil {
		t.Fatal("document should be removed")
	}
}

func TestStaleRunDoesNotPublish(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	uri := "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "A.cs"))
	openDoc(t, server, uri, "class A : UdonSharpBehaviour { }")
	openDoc(t, server, uri, "class A : UdonSharpBehaviour { int x; }")
	stopTimers(server)

	// seq 1 is stale; only seq 2 may publish.
	server.runDiagnostics(uri, 1)
	if msgs := readMessages(t, &out); len(msgs) != 0 {
		t.Fatalf("stale run published %d messages", len(msgs))
	}
	server.runDiagnostics(uri, 2)
	if msgs := readMessages(t, &out); len(msgs) != 1 {
		t.Fatalf("expected one publish from the live run, got %d", len(msgs))
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	err := server.handleMessage(&rpcMessage{ID: json.RawMessage("7"), Method: "textDocument/codeLens"})
	if err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	msgs := readMessages(t, &out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != -32601 {
		t.Fatalf("expected -32601 error, got %+v", msgs)
	}
}

func TestRulesListSortedAndComplete(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	if err := server.handleRulesList(&rpcMessage{ID: json.RawMessage("2"), Method: "udonsharp/rules/list"}); err != nil {
		t.Fatalf("rules/list: %v", err)
	}
	msgs := readMessages(t, &out)
	var entries []ruleListEntry
	if err := json.Unmarshal(msgs[0].Result, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 45 {
		t.Fatalf("expected 45 rules, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].ID >= entries[i].ID {
			t.Fatalf("entries not sorted: %s >= %s", entries[i-1].ID, entries[i].ID)
		}
	}
}

func TestRulesDocumentationStub(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	params, _ := json.Marshal(ruleDocumentationParams{RuleID: "USH9999", Locale: "en-US"})
	if err := server.handleRulesDocumentation(&rpcMessage{ID: json.RawMessage("3"), Params: params}); err != nil {
		t.Fatalf("documentation: %v", err)
	}
	msgs := readMessages(t, &out)
	var result ruleDocumentationResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Markdown != missingDocumentation {
		t.Fatalf("expected stub markdown, got %q", result.Markdown)
	}
	if result.ID != "USH9999" {
		t.Fatalf("expected normalised id, got %q", result.ID)
	}
}

func TestServerStatusAndLegacyAlias(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	for _, method := range []string{"udonsharp/server/status", "udonsharp/status"} {
		if err := server.handleMessage(&rpcMessage{ID: json.RawMessage("4"), Method: method}); err != nil {
			t.Fatalf("%s: %v", method, err)
		}
	}
	msgs := readMessages(t, &out)
	if len(msgs) != 2 {
		t.Fatalf("expected two responses, got %d", len(msgs))
	}
	var first, second serverStatusResult
	if err := json.Unmarshal(msgs[0].Result, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(msgs[1].Result, &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first != second {
		t.Fatalf("legacy alias must resolve identically: %+v vs %+v", first, second)
	}
	if first.TotalRuleCount != 45 {
		t.Fatalf("expected 45 rules, got %d", first.TotalRuleCount)
	}
	if first.Profile != "latest" {
		t.Fatalf("expected latest profile, got %q", first.Profile)
	}
}

func TestConfigurationChangeDisablesRule(t *testing.T) {
	var out bytes.Buffer
	server := newTestServer(t, &out)
	initialize(t, server, t.TempDir())
	out.Reset()

	raw := json.RawMessage(`{"settings":{"udonsharpLinter":{"ruleOverrides":{"USH0043":"off"}}}}`)
	var params didChangeConfigurationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		t.Fatal(err)
	}
	payload, _ := json.Marshal(params)
	if err := server.handleDidChangeConfiguration(&rpcMessage{Method: "workspace/didChangeConfiguration", Params: payload}); err != nil {
		t.Fatalf("didChangeConfiguration: %v", err)
	}
	stopTimers(server)
	out.Reset()

	if err := server.handleMessage(&rpcMessage{ID: json.RawMessage("5"), Method: "udonsharp/server/status"}); err != nil {
		t.Fatalf("status: %v", err)
	}
	msgs := readMessages(t, &out)
	var status serverStatusResult
	if err := json.Unmarshal(msgs[0].Result, &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The USH0043 override; no rule resolves hidden by default under the latest profile.
	if status.DisabledRuleCount < 1 {
		t.Fatalf("expected at least one disabled rule, got %d", status.DisabledRuleCount)
	}
}

func TestJSONRPCFraming(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"jsonrpc":"2.0","method":"x"}`)
	if err := writeMessage(&buf, payload); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "Content-Length: 30\r\n\r\n") {
		t.Fatalf("unexpected framing: %q", buf.String())
	}
	got, err := readMessage(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestApplyChangesFullSync(t *testing.T) {
	text := applyChanges("old", []textDocumentContentChangeEvent{{Text: "new content"}})
	if text != "new content" {
		t.Fatalf("full replace failed: %q", text)
	}
}
