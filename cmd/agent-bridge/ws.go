package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// wsReadLimit is the maximum message size for WebSocket reads.
const wsReadLimit = 1 << 20 // 1 MiB

// wsBufferSize is the read/write buffer size for WebSocket connections.
const wsBufferSize = 4096

// upgrader configures the WebSocket upgrade with permissive origin checks;
// the bridge is only reachable from inside the runtime's network.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsRequest is the WebSocket message payload from the client.
type wsRequest struct {
	Prompt    string         `json:"prompt"`
	Input     string         `json:"input"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// text returns the user's message, preferring "prompt" over "input".
func (r *wsRequest) text() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return r.Input
}

// wsResponse is the WebSocket message payload sent to the client.
type wsResponse struct {
	Type      string     `json:"type"`
	Content   string     `json:"content,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Usage     *usageInfo `json:"usage,omitempty"`
}

// handleWebSocket upgrades the connection and processes messages. Each
// message is forwarded to the agent process as a blocking invocation.
func (b *bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(wsReadLimit)
	b.log.Info("websocket connection established")

	for {
		_, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				b.log.Error("websocket read error", "error", readErr)
			}
			return
		}
		b.processWSMessage(conn, msg)
	}
}

// processWSMessage forwards one WebSocket message to the agent and writes
// the reply followed by a done marker.
func (b *bridge) processWSMessage(conn *websocket.Conn, msg []byte) {
	var req wsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		b.writeWSError(conn, "invalid JSON")
		return
	}
	if req.text() == "" {
		b.writeWSError(conn, "prompt or input is required")
		return
	}

	resp, err := b.forwardToAgent(&agentRequest{
		Prompt:    req.text(),
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		b.log.Error("agent forward failed", "error", err)
		b.writeWSError(conn, "agent unavailable")
		return
	}
	if resp.Error != "" {
		b.writeWSError(conn, resp.Error)
		return
	}

	b.writeWSJSON(conn, wsResponse{
		Type:      eventText,
		Content:   resp.Output,
		SessionID: req.SessionID,
		Usage:     resp.Usage,
	})
	b.writeWSJSON(conn, wsResponse{Type: eventDone})
}

// writeWSError writes an error message to the WebSocket connection.
func (b *bridge) writeWSError(conn *websocket.Conn, msg string) {
	b.writeWSJSON(conn, wsResponse{Type: eventError, Content: msg})
}

// writeWSJSON writes a JSON message to the WebSocket connection.
func (b *bridge) writeWSJSON(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		b.log.Error("websocket write error", "error", err)
	}
}
