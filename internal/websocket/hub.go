package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/rebuttal/api/internal/model"
	"github.com/rebuttal/api/internal/service"
)

// Client represents a WebSocket client
type Client struct {
	FileID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans pipeline progress out to subscribers of a fileId
type Hub struct {
	// Clients grouped by file ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	FileID  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.FileID] == nil {
				h.clients[client.FileID] = make(map[*Client]bool)
			}
			h.clients[client.FileID][client] = true
			h.mu.Unlock()
			log.Printf("[WS] Client subscribed to %s", client.FileID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("[WS] Client unsubscribed from %s", client.FileID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.FileID] {
				select {
				case client.Send <- msg.Message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.FileID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.FileID)
	}
}

// Subscribers returns how many clients follow fileID
func (h *Hub) Subscribers(fileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[fileID])
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Progress implements service.ProgressReporter
func (h *Hub) Progress(fileID string, percent int, stage string) {
	h.send(fileID, model.WSProgressMessage{
		Type:        model.WSMessageTypeProgress,
		FileID:      fileID,
		Progress:    percent,
		Status:      model.JobStatusProcessing,
		CurrentStep: stage,
	})
}

// Complete implements service.ProgressReporter
func (h *Hub) Complete(fileID, finalVideoURL string) {
	h.send(fileID, model.WSCompleteMessage{
		Type:          model.WSMessageTypeComplete,
		FileID:        fileID,
		FinalVideoURL: finalVideoURL,
	})
}

// Fail implements service.ProgressReporter
func (h *Hub) Fail(fileID string, kind service.Kind, message string) {
	h.send(fileID, model.WSErrorMessage{
		Type:   model.WSMessageTypeError,
		FileID: fileID,
		Error: model.WSError{
			Code:    string(kind),
			Message: message,
		},
	})
}

// send never blocks the pipeline; updates are dropped when the queue is full
func (h *Hub) send(fileID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{FileID: fileID, Message: data}:
	default:
		log.Printf("[WS] Broadcast queue full, dropping update for %s", fileID)
	}
}

// reply sends data to one client if it is still registered
func (h *Hub) reply(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.FileID][client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, fileID string) {
	client := &Client{
		FileID: fileID,
		Conn:   c,
		Send:   make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Writer
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Connection error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			h.reply(client, data)
		}
	}
}
