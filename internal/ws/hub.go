package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event is the wire envelope pushed to subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types emitted by the server.
const (
	EventMessage         = "message"
	EventMessageRecalled = "message_recalled"
	EventReadStatus      = "read_status"
	EventUserStatus      = "user_status"
	EventNotification    = "notification"
	EventError           = "error"
)

// Client is one live connection bound to an authenticated user. A user
// may hold several clients (multiple devices).
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub fans events out to room topics and per-user private topics.
// Delivery is fire-and-forget: a slow or absent subscriber misses the
// event, it is never queued for replay.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
	rooms map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users: map[string]map[*Client]struct{}{},
		rooms: map[string]map[*Client]struct{}{},
	}
}

func newClient(userID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = map[*Client]struct{}{}
	}
	h.users[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

// AddClient binds a connection to a user identity and starts its write
// and keepalive loops.
func (h *Hub) AddClient(userID string, conn *websocket.Conn) *Client {
	c := newClient(userID, conn)
	h.register(c)

	go c.writeLoop()
	go c.keepAliveLoop()

	return c
}

// RemoveClient drops the connection from the user set and every room it
// subscribed to, and closes it.
func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	if set, ok := h.users[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.UserID)
		}
	}
	for roomID, set := range h.rooms {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	if c.Conn != nil {
		_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

// Subscribe adds the client to a room topic. The caller is responsible
// for the participant check.
func (h *Hub) Subscribe(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = map[*Client]struct{}{}
	}
	h.rooms[roomID][c] = struct{}{}
}

// Unsubscribe removes the client from a room topic.
func (h *Hub) Unsubscribe(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.rooms[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// PublishToRoom delivers an event to every current subscriber of the
// room topic. Full send buffers drop the event for that client.
func (h *Hub) PublishToRoom(roomID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		select {
		case c.Send <- ev:
		default:
			log.Printf("ws: dropping %s event for user %s, send buffer full", ev.Type, c.UserID)
		}
	}
}

// PublishToUser delivers an event to every connection of the user's
// private topic, regardless of which room is open.
func (h *Hub) PublishToUser(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		select {
		case c.Send <- ev:
		default:
			log.Printf("ws: dropping %s event for user %s, send buffer full", ev.Type, c.UserID)
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := wsjson.Write(writeCtx, c.Conn, ev); err != nil {
				log.Printf("ws: write to user %s failed: %v", c.UserID, err)
			}
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}
