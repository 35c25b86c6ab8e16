package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWantsSSE(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, invocationsPath, nil)
	if wantsSSE(r) {
		t.Error("no Accept header should not request SSE")
	}
	r.Header.Set("Accept", "text/event-stream")
	if !wantsSSE(r) {
		t.Error("Accept: text/event-stream not detected")
	}
}

// readStreamEvents collects the relayed SSE events from a response body.
func readStreamEvents(t *testing.T, body string) []streamEvent {
	t.Helper()
	var events []streamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("bad SSE line %q: %v", line, err)
		}
		events = append(events, evt)
	}
	return events
}

func TestStreamingInvocation_Relay(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != defaultStream {
			t.Errorf("agent path = %q, want %q", r.URL.Path, defaultStream)
		}
		w.Header().Set("Content-Type", sseContentType)
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"hel\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"lo\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	})

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	r.Header.Set("Accept", sseContentType)
	w := httptest.NewRecorder()

	b.handleInvocation(w, r)

	if ct := w.Header().Get("Content-Type"); ct != sseContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	events := readStreamEvents(t, w.Body.String())
	if len(events) != 3 {
		t.Fatalf("relayed %d events, want 3: %+v", len(events), events)
	}
	if events[0].Content+events[1].Content != "hello" {
		t.Errorf("text chunks = %+v", events[:2])
	}
	if events[2].Type != eventDone {
		t.Errorf("terminal event = %+v", events[2])
	}
}

func TestStreamingInvocation_InjectsDone(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"partial\"}\n\n")
		// Stream ends without a terminal event.
	})

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	r.Header.Set("Accept", sseContentType)
	w := httptest.NewRecorder()
	b.handleInvocation(w, r)

	events := readStreamEvents(t, w.Body.String())
	if len(events) == 0 || events[len(events)-1].Type != eventDone {
		t.Errorf("stream did not end with done: %+v", events)
	}
}

func TestStreamingInvocation_StopsOnError(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"error\",\"content\":\"model unavailable\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"should not relay\"}\n\n")
	})

	r := httptest.NewRequest(http.MethodPost, invocationsPath,
		strings.NewReader(`{"prompt":"hello"}`))
	r.Header.Set("Accept", sseContentType)
	w := httptest.NewRecorder()
	b.handleInvocation(w, r)

	events := readStreamEvents(t, w.Body.String())
	if len(events) != 1 || events[0].Type != eventError {
		t.Errorf("events = %+v, want a single error event", events)
	}
}
