package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
)

// invocationsPath is the AgentCore HTTP contract endpoint.
const invocationsPath = "/invocations"

// sessionHeader carries the AgentCore session ID.
const sessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// invocationRequest is the payload sent by InvokeAgentRuntime callers.
// Both "prompt" and "input" are accepted; extra top-level fields are
// captured and forwarded to the agent as metadata.
type invocationRequest struct {
	Prompt   string         `json:"prompt"`
	Input    string         `json:"input"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Extra    map[string]any `json:"-"`
}

// UnmarshalJSON captures unknown top-level fields alongside the known ones.
func (r *invocationRequest) UnmarshalJSON(data []byte) error {
	type alias invocationRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = invocationRequest(a)

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "prompt")
	delete(raw, "input")
	delete(raw, "metadata")
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// text returns the user's message, preferring "prompt" over "input".
func (r *invocationRequest) text() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Input
}

// allMetadata merges explicit metadata with extra top-level fields,
// namespacing the extras under "payload" to avoid collisions.
func (r *invocationRequest) allMetadata() map[string]any {
	if len(r.Metadata) == 0 && len(r.Extra) == 0 {
		return nil
	}
	merged := make(map[string]any, len(r.Metadata)+1)
	maps.Copy(merged, r.Metadata)
	if len(r.Extra) > 0 {
		merged["payload"] = r.Extra
	}
	return merged
}

// agentRequest is the JSON body forwarded to the agent process.
type agentRequest struct {
	Prompt    string         `json:"prompt"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// agentResponse is the agent process's reply.
type agentResponse struct {
	Output   string         `json:"output"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Usage    *usageInfo     `json:"usage,omitempty"`
}

// usageInfo holds token usage reported by the agent.
type usageInfo struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// invocationResponse is what the bridge returns to AgentCore callers.
type invocationResponse struct {
	Response  string         `json:"response"`
	Status    string         `json:"status"`
	SessionID string         `json:"session_id,omitempty"`
	Usage     *usageInfo     `json:"usage,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// bridge forwards AgentCore protocol requests to the local agent process.
type bridge struct {
	cfg *bridgeConfig
	log *slog.Logger
}

func newBridge(cfg *bridgeConfig, log *slog.Logger) *bridge {
	return &bridge{cfg: cfg, log: log}
}

// handleInvocation serves POST /invocations. Clients that accept
// text/event-stream get the streamed variant.
func (b *bridge) handleInvocation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var req invocationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		b.log.Error("invalid JSON in invocation", "error", err)
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.text() == "" {
		http.Error(w, "prompt or input is required", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	b.log.Info("invocation received", "session", sessionID, "bytes", len(body))

	if wantsSSE(r) {
		b.handleStreamingInvocation(w, r, &req, sessionID)
		return
	}

	resp, err := b.forwardToAgent(&agentRequest{
		Prompt:    req.text(),
		SessionID: sessionID,
		Metadata:  req.allMetadata(),
	})
	if err != nil {
		b.log.Error("agent forward failed", "error", err)
		http.Error(w, "agent unavailable", http.StatusBadGateway)
		return
	}

	b.writeInvocationResponse(w, resp, sessionID)
}

// forwardToAgent posts a blocking request to the agent process.
func (b *bridge) forwardToAgent(req *agentRequest) (*agentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := b.cfg.agentBaseURL() + b.cfg.InvokePath
	httpResp, err := http.Post(url, "application/json", bytes.NewReader(body)) //nolint:noctx,gosec // loopback
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned %d: %s", httpResp.StatusCode, respBody)
	}

	var resp agentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid agent response: %w", err)
	}
	return &resp, nil
}

// writeInvocationResponse converts the agent reply to the protocol format.
func (b *bridge) writeInvocationResponse(w http.ResponseWriter, resp *agentResponse, sessionID string) {
	w.Header().Set("Content-Type", "application/json")

	if resp.Error != "" {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(invocationResponse{
			Response:  resp.Error,
			Status:    "error",
			SessionID: sessionID,
		})
		return
	}

	_ = json.NewEncoder(w).Encode(invocationResponse{
		Response:  resp.Output,
		Status:    "success",
		SessionID: sessionID,
		Usage:     resp.Usage,
		Metadata:  resp.Metadata,
	})
}

// handleUnknown logs unmatched requests for debugging.
func (b *bridge) handleUnknown(w http.ResponseWriter, r *http.Request) {
	b.log.Warn("unmatched request", "method", r.Method, "path", r.URL.Path)
	http.Error(w, "not found", http.StatusNotFound)
}
