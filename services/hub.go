package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"quizadmin/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans notifications out to the admin clients connected over websocket.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	userID   string
	userName string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// outbound is a message queued for delivery. An empty userID reaches everyone.
type outbound struct {
	userID string
	data   []byte
}

const (
	MessageToast   = "toast"
	MessageChanged = "content_changed"
)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client registered: %s (user %s: %s) - Total clients: %d", client.id, client.userID, client.userName, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s (user %s) - Total clients: %d", client.id, client.userID, len(h.clients))
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) deliver(msg outbound) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if msg.userID != "" && client.userID != msg.userID {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			log.Printf("Client %s send buffer full, closing connection", client.id)
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) enqueue(userID, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}
	select {
	case h.broadcast <- outbound{userID: userID, data: data}:
	default:
		log.Printf("warning: hub queue full, dropping %s message", messageType)
	}
}

// Notify sends a toast to the clients of the acting user, or to everyone
// when ctx carries no actor.
func (h *Hub) Notify(ctx context.Context, level Level, message string) {
	userID := ""
	if actor := models.ActorFrom(ctx); actor != nil {
		userID = actor.ID
	}
	h.enqueue(userID, MessageToast, map[string]string{"level": string(level), "message": message})
}

// ContentChanged tells every connected admin that the collections changed.
func (h *Hub) ContentChanged(reason string, total int) {
	h.enqueue("", MessageChanged, map[string]interface{}{"reason": reason, "totalQuestions": total})
}

// ConnectedUsers returns the ids of users with at least one open connection.
func (h *Hub) ConnectedUsers() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for client := range h.clients {
		if !seen[client.userID] {
			seen[client.userID] = true
			ids = append(ids, client.userID)
		}
	}
	return ids
}

func (h *Hub) RegisterClient(conn *websocket.Conn, user *models.Actor) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, 256),
		userID:   user.ID,
		userName: user.Name,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.hub.enqueue(c.userID, "pong", "pong")
	default:
		log.Printf("Unknown message type: %s from user %s", msg.Type, c.userID)
	}
}
