package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sseContentType is the MIME type for Server-Sent Events.
const sseContentType = "text/event-stream"

// streamEvent is a single SSE chunk, in both the agent's stream and the
// bridge's relay to the client.
type streamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Stream event types emitted by the agent process.
const (
	eventText  = "text"
	eventError = "error"
	eventDone  = "done"
)

// wantsSSE returns true if the client accepts text/event-stream.
func wantsSSE(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), sseContentType)
}

// handleStreamingInvocation forwards the request to the agent's streaming
// endpoint and relays its SSE events to the client.
func (b *bridge) handleStreamingInvocation(
	w http.ResponseWriter, r *http.Request, req *invocationRequest, sessionID string,
) {
	body, err := json.Marshal(&agentRequest{
		Prompt:    req.text(),
		SessionID: sessionID,
		Metadata:  req.allMetadata(),
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	url := b.cfg.agentBaseURL() + b.cfg.StreamPath
	b.log.Info("forwarding stream to agent", "url", url, "session", sessionID)

	agentResp, err := http.Post(url, "application/json", bytes.NewReader(body)) //nolint:noctx,gosec // loopback
	if err != nil {
		b.log.Error("agent stream forward failed", "error", err)
		http.Error(w, "agent unavailable", http.StatusBadGateway)
		return
	}
	defer func() { _ = agentResp.Body.Close() }()

	b.relayStream(w, r, agentResp.Body)
}

// relayStream copies agent SSE events to the client until a terminal
// event or EOF. A done event is injected if the agent stream ends
// without one.
func (b *bridge) relayStream(w http.ResponseWriter, r *http.Request, body io.Reader) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", sseContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var evt streamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			b.log.Warn("unparseable stream event", "data", data, "error", err)
			continue
		}

		if err := writeStreamEvent(w, flusher, &evt); err != nil {
			b.log.Error("sse write failed", "error", err)
			return
		}
		if evt.Type == eventDone || evt.Type == eventError {
			return
		}
		if r.Context().Err() != nil {
			b.log.Info("client disconnected during stream")
			return
		}
	}

	_ = writeStreamEvent(w, flusher, &streamEvent{Type: eventDone})
}

// writeStreamEvent writes a single SSE event and flushes.
func writeStreamEvent(w http.ResponseWriter, flusher http.Flusher, evt *streamEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
