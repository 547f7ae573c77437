package audio

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const writeWait = time.Second

// clientMessage is what browser synths send back; "ready" once samples are loaded.
type clientMessage struct {
	Type string `json:"type"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	ready   bool
	writeMu sync.Mutex
}

func (c *client) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub forwards voice events to connected browser synths over WebSocket.
// A hub is ready once at least one client has reported its samples loaded.
type Hub struct {
	clients map[*websocket.Conn]*client
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
	}
}

// ServeHTTP handles WebSocket upgrade requests from synth clients.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{id: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	log.Printf("synth client %s connected", c.id)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		log.Printf("synth client %s disconnected", c.id)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ready" {
			h.mu.Lock()
			c.ready = true
			h.mu.Unlock()
			log.Printf("synth client %s ready", c.id)
		}
	}
}

// Ready reports whether any connected client has loaded its samples.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.ready {
			return true
		}
	}
	return false
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every ready client. Clients that fail to
// receive it are disconnected.
func (h *Hub) Broadcast(ev Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.ready {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			log.Printf("synth client %s write error: %v", c.id, err)
			c.conn.Close()
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
}

// Voice returns a Voice that plays through this hub on behalf of one hand.
func (h *Hub) Voice(hand string) *HubVoice {
	return &HubVoice{hub: h, hand: hand}
}

// HubVoice is a Voice backed by the browser synths attached to a Hub.
type HubVoice struct {
	hub  *Hub
	hand string
}

// Attack implements Voice.
func (v *HubVoice) Attack(note Note, velocity float64) error {
	return v.hub.Broadcast(newEvent(KindAttack, v.hand, note, velocity, 0))
}

// Release implements Voice.
func (v *HubVoice) Release(note Note) error {
	return v.hub.Broadcast(newEvent(KindRelease, v.hand, note, 0, 0))
}

// AttackRelease implements Voice.
func (v *HubVoice) AttackRelease(note Note, duration time.Duration, velocity float64) error {
	return v.hub.Broadcast(newEvent(KindAttackRelease, v.hand, note, velocity, duration))
}

// Ready implements Voice.
func (v *HubVoice) Ready() bool {
	return v.hub.Ready()
}
