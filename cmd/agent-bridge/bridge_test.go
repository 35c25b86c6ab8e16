package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

// --- invocationRequest tests ---

func TestInvocationRequest_TextPreference(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		expect string
	}{
		{"prompt only", `{"prompt":"hello"}`, "hello"},
		{"input only", `{"input":"world"}`, "world"},
		{"prompt wins", `{"prompt":"hello","input":"world"}`, "hello"},
		{"both empty", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req invocationRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := req.text(); got != tt.expect {
				t.Errorf("text() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestInvocationRequest_ExtraFields(t *testing.T) {
	body := `{"prompt":"hello","user_id":"u123","metadata":{"session":"s1"}}`
	var req invocationRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	md := req.allMetadata()
	if md["session"] != "s1" {
		t.Errorf("metadata[session] = %v, want s1", md["session"])
	}
	payload, ok := md["payload"].(map[string]any)
	if !ok {
		t.Fatal("expected payload key in merged metadata")
	}
	if payload["user_id"] != "u123" {
		t.Errorf("payload[user_id] = %v, want u123", payload["user_id"])
	}
}

func TestInvocationRequest_NoMetadata(t *testing.T) {
	var req invocationRequest
	if err := json.Unmarshal([]byte(`{"prompt":"hello"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if md := req.allMetadata(); md != nil {
		t.Errorf("expected nil metadata, got %v", md)
	}
}

// --- bridge tests against a fake agent process ---

// newTestBridge starts a fake agent backend and returns a bridge
// pointing at it.
func newTestBridge(t *testing.T, agent http.HandlerFunc) *bridge {
	t.Helper()
	backend := httptest.NewServer(agent)
	t.Cleanup(backend.Close)

	u, err := url.Parse(backend.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}

	cfg := &bridgeConfig{
		Port:       defaultBridgePort,
		AgentHost:  u.Hostname(),
		AgentPort:  port,
		InvokePath: defaultInvoke,
		StreamPath: defaultStream,
	}
	return newBridge(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleInvocation_Success(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != defaultInvoke {
			t.Errorf("agent path = %q, want %q", r.URL.Path, defaultInvoke)
		}
		var req agentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("agent received bad request: %v", err)
		}
		if req.Prompt != "hello" || req.SessionID != "session-abc" {
			t.Errorf("agent request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(agentResponse{
			Output: "hi there",
			Usage:  &usageInfo{InputTokens: 3, OutputTokens: 5},
		})
	})

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	r.Header.Set(sessionHeader, "session-abc")
	w := httptest.NewRecorder()

	b.handleInvocation(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp invocationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Response != "hi there" || resp.Status != "success" {
		t.Errorf("response = %+v", resp)
	}
	if resp.SessionID != "session-abc" {
		t.Errorf("session_id = %q", resp.SessionID)
	}
	if resp.Usage == nil || resp.Usage.OutputTokens != 5 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestHandleInvocation_AgentError(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(agentResponse{Error: "model refused"})
	})

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	w := httptest.NewRecorder()
	b.handleInvocation(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp invocationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "error" || resp.Response != "model refused" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleInvocation_BadRequests(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("agent should not be called")
	})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"prompt":`},
		{"missing prompt", `{"metadata":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, invocationsPath, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			b.handleInvocation(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleInvocation_AgentDown(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, _ *http.Request) {})
	b.cfg.AgentPort = 1 // nothing listens here

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	w := httptest.NewRecorder()
	b.handleInvocation(w, r)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
