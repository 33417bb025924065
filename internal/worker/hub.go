package worker

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// JobUpdate is one progress event broadcast to connected watchers.
type JobUpdate struct {
	Type      string `json:"type"` // "job_start", "job_complete", "job_failed"
	JobID     string `json:"job_id,omitempty"`
	EntitySet string `json:"entity_set,omitempty"`
	Rows      int64  `json:"rows,omitempty"`
	Status    string `json:"status,omitempty"`
	Location  string `json:"location,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Hub fans job progress out to websocket watchers. A nil *Hub is valid and
// broadcasts nowhere.
type Hub struct {
	watchers map[*websocket.Conn]bool
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		watchers: make(map[*websocket.Conn]bool),
	}
}

// Handler upgrades incoming connections and registers them as watchers. The
// connection is read-drained only to detect close.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		h.register(conn)
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.unregister(conn)
					return
				}
			}
		}()
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.watchers[conn] = true
	slog.Info("progress watcher connected", "total", len(h.watchers))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[conn]; ok {
		delete(h.watchers, conn)
		conn.Close()
		slog.Info("progress watcher disconnected", "total", len(h.watchers))
	}
}

// Broadcast sends the update to every watcher, dropping connections that
// fail to write.
func (h *Hub) Broadcast(update JobUpdate) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	payload, _ := json.Marshal(update)
	for conn := range h.watchers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Error("progress broadcast failed", "error", err)
			conn.Close()
			delete(h.watchers, conn)
		}
	}
}
