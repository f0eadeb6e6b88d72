package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

func readyPayload(now time.Time) []byte {
	data, _ := json.Marshal(map[string]any{"status": "ok", "at": now.UnixMilli()})
	return data
}

// handleSSE streams frames as server-sent events. The client gets a ready
// event on connect and one message event per frame.
func (h *Handlers) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, frames := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	if _, err := fmt.Fprintf(w, "event: ready\ndata: %s\n\n", readyPayload(time.Now())); err != nil {
		h.hub.Prune(id)
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame); err != nil {
				h.logFn("www: sse write: %v", err)
				h.hub.Prune(id)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.hub.Prune(id)
				return
			}
			flusher.Flush()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from the surrounding app's origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const wsWriteWait = 10 * time.Second

// handleWebSocket carries the same frames over a websocket. A read pump
// only watches for the client going away.
func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logFn("www: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, frames := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msgType int, data []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(msgType, data); err != nil {
			h.logFn("www: websocket write: %v", err)
			h.hub.Prune(id)
			return false
		}
		return true
	}

	ready := fmt.Sprintf(`{"type":"ready","data":%s}`, readyPayload(time.Now()))
	if !write(websocket.TextMessage, []byte(ready)) {
		return
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-gone:
			return
		case frame, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			}
			if !write(websocket.TextMessage, frame) {
				return
			}
		case <-keepalive.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}
