package websocket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Event types pushed to browsers
const (
	EventLedgerSynced    = "LEDGER_SYNCED"
	EventLineItemUpdated = "LINE_ITEM_UPDATED"
	EventPOCompleted     = "PO_COMPLETED"
	EventBacklogResolved = "BACKLOG_RESOLVED"
	EventNotification    = "NOTIFICATION"
)

// Event is the envelope of every server-pushed message
type Event struct {
	Type      string      `json:"type"`
	PONumber  string      `json:"poNumber,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of connected portals and fans events out to them
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	stop       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		stop:       make(chan struct{}),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				close(old.send)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Portal connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.ID]; ok && current == client {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("📴 Portal disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.fanOut(event)

		case <-h.stop:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run
func (h *Hub) Stop() {
	close(h.stop)
}

// Broadcast queues an event for every client watching po (or all POs).
// It never blocks; events are dropped when the queue is full.
func (h *Hub) Broadcast(eventType, po string, payload interface{}) {
	event := Event{Type: eventType, PONumber: strings.TrimSpace(po), Payload: payload, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("⚠️  WS: broadcast queue full, dropping %s", eventType)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.wants(event.PONumber) {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead
		}
	}
}
