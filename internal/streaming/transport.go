package streaming

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServeSSE streams requestID's events to w as Server-Sent Events, replaying
// anything after the client's Last-Event-ID header (served from the
// in-memory ring, falling back to durable when provided) before switching
// to live delivery. Returns once the stream's subscriber channel closes
// (Manager.Close) or the client disconnects.
func ServeSSE(m *Manager, durable *RedisDurability, w http.ResponseWriter, r *http.Request, requestID string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var since uint64
	if id := r.Header.Get("Last-Event-ID"); id != "" {
		if parsed, err := strconv.ParseUint(id, 10, 64); err == nil {
			since = parsed
		}
	}

	replay := m.ReplaySince(requestID, since)
	// Fall back to the durable list only when the ring holds nothing for
	// this request or has already evicted the event right after since.
	if durable != nil && (len(replay) == 0 || replay[0].Seq > since+1) {
		if replayed, err := durable.ReplaySince(r.Context(), requestID, since); err == nil && len(replayed) > 0 {
			replay = replayed
		}
	}
	for _, evt := range replay {
		writeSSEEvent(w, evt)
	}
	flusher.Flush()

	ch := m.Subscribe(requestID, 64)
	defer m.Unsubscribe(requestID, ch)

	for {
		select {
		case evt, open := <-ch:
			if !open {
				return
			}
			writeSSEEvent(w, evt)
			flusher.Flush()
			if evt.Type == EventFinish {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt Event) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Seq, evt.Type, evt.Marshal())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWebSocket is the second progress-stream transport: the same typed
// events as ServeSSE, framed as individual WebSocket text messages. It
// delivers live events only; events published before the connection
// subscribed are not replayed.
func ServeWebSocket(m *Manager, w http.ResponseWriter, r *http.Request, requestID string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("streaming: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := m.Subscribe(requestID, 64)
	defer m.Unsubscribe(requestID, ch)

	conn.SetReadDeadline(time.Now().Add(24 * time.Hour))
	for evt := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, evt.Marshal()); err != nil {
			return
		}
		if evt.Type == EventFinish {
			return
		}
	}
}
