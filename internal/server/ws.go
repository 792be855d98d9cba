package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/takeru/kujiin/internal/jutsu"
	"github.com/takeru/kujiin/internal/seal"
)

// EventsHandler broadcasts seal events and jutsu completions to every
// connected websocket client. Producers hand messages off through a
// buffered channel so the recognition pipeline never blocks on a slow
// client.
type EventsHandler struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	out      chan []byte
}

// sealMessage is the wire form of a confirmed seal.
type sealMessage struct {
	Type      string `json:"type"`
	Seal      string `json:"seal"`
	Display   string `json:"display"`
	Timestamp int64  `json:"timestamp"`
}

// completionMessage is the wire form of a completed jutsu.
type completionMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Jutsu     string `json:"jutsu"`
	Display   string `json:"display"`
	Element   string `json:"element"`
	Timestamp int64  `json:"timestamp"`
}

// NewEventsHandler creates an EventsHandler and starts its writer.
func NewEventsHandler() *EventsHandler {
	h := &EventsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local presentation surface, same-origin policy is not useful.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		out:     make(chan []byte, 64),
	}
	go h.writeLoop()
	return h
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away. Incoming messages are drained and discarded.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *EventsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *EventsHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastSeal sends a confirmed seal event to all clients.
func (h *EventsHandler) BroadcastSeal(ev seal.Event) {
	h.broadcast(sealMessage{
		Type:      "seal",
		Seal:      string(ev.Label),
		Display:   ev.Label.Display(),
		Timestamp: ev.Timestamp.UnixMilli(),
	})
}

// BroadcastCompletion sends a jutsu completion to all clients.
func (h *EventsHandler) BroadcastCompletion(c jutsu.Completion) {
	h.broadcast(completionMessage{
		Type:      "jutsu",
		ID:        c.ID,
		Jutsu:     c.Name,
		Display:   c.Display,
		Element:   c.Element,
		Timestamp: c.Timestamp.UnixMilli(),
	})
}

// broadcast queues one message for delivery. When the queue is full the
// message is dropped; the event stream is presentation, not record.
func (h *EventsHandler) broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	select {
	case h.out <- data:
	default:
		log.Println("Event stream backlogged, dropping event")
	}
}

// writeLoop delivers queued messages to every connected client. A
// client that fails a write is dropped.
func (h *EventsHandler) writeLoop() {
	for data := range h.out {
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}
