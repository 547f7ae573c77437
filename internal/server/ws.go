package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/trail"
)

// writeWait bounds a single message write to a slow client.
const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// TrailSource provides the per-hand trails of the last completed cycle.
type TrailSource interface {
	Trails() map[detector.Label][]trail.Point
}

type trailPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	T    int64   `json:"t"`
	Note string  `json:"note,omitempty"`
}

type trailsMessage struct {
	Trails    map[detector.Label][]trailPoint `json:"trails"`
	Timestamp int64                           `json:"timestamp"`
}

// TrailsHandler broadcasts the live trails via WebSocket so a browser can
// draw its own overlay.
type TrailsHandler struct {
	source   TrailSource
	interval time.Duration
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTrailsHandler creates a TrailsHandler and starts broadcasting.
func NewTrailsHandler(source TrailSource, fps int) *TrailsHandler {
	if fps <= 0 {
		fps = 15
	}
	h := &TrailsHandler{
		source:   source,
		interval: time.Second / time.Duration(fps),
		clients:  make(map[*websocket.Conn]bool),
		stopCh:   make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *TrailsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *TrailsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting.
func (h *TrailsHandler) Close() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func encodeTrails(trails map[detector.Label][]trail.Point, now time.Time) ([]byte, error) {
	msg := trailsMessage{
		Trails:    make(map[detector.Label][]trailPoint, len(detector.Labels)),
		Timestamp: now.UnixMilli(),
	}
	for _, label := range detector.Labels {
		pts := make([]trailPoint, 0, len(trails[label]))
		for _, p := range trails[label] {
			pts = append(pts, trailPoint{X: p.X, Y: p.Y, T: p.T.UnixMilli(), Note: string(p.Note)})
		}
		msg.Trails[label] = pts
	}
	return json.Marshal(msg)
}

// broadcast sends trail data to all connected clients. While both hands are
// idle only the first empty message is sent.
func (h *TrailsHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	idle := false
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			idle = false
			continue
		}

		trails := h.source.Trails()
		empty := len(trails[detector.Left]) == 0 && len(trails[detector.Right]) == 0
		if empty && idle {
			continue
		}
		idle = empty

		msg, err := encodeTrails(trails, time.Now())
		if err != nil {
			log.Printf("Error encoding trails: %v", err)
			continue
		}
		h.send(msg)
	}
}

// send writes msg to every client, dropping those that fail. The write lock
// is held throughout: gorilla connections allow one writer.
func (h *TrailsHandler) send(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
