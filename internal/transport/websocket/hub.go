// Package websocket streams game events to browser clients, one channel per slot.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/merge-tycoon/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer      = 64
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to clients.
type Message struct {
	Slot         string        `json:"slot"`
	Event        string        `json:"event"`
	State        *session.View `json:"state,omitempty"`
	Achievements []string      `json:"achievements,omitempty"`
}

// Client is one connected socket.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	slot string
}

// Hub tracks clients per slot. Only the Run goroutine touches the client map.
type Hub struct {
	slots map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *log.Logger
}

// NewHub creates a hub. Call Run before serving clients.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		slots:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithPrefix("ws"),
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, clients := range h.slots {
				for c := range clients {
					close(c.send)
				}
			}
			h.slots = make(map[string]map[*Client]bool)
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// ServeWS upgrades the request and subscribes the socket to slot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, slot string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		slot: slot,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Publish queues msg for the clients of msg.Slot. It never blocks: when the queue
// is full the message is dropped, since the next state update supersedes it.
func (h *Hub) Publish(msg *Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Debug("broadcast queue full, dropping", "slot", msg.Slot, "event", msg.Event)
	}
}

// HandleEvent forwards a session event. Subscribe it to every session.
func (h *Hub) HandleEvent(s *session.Session, ev session.Event) {
	view := s.ViewOf(ev)
	h.Publish(&Message{
		Slot:         view.Slot,
		Event:        string(ev.Kind),
		State:        &view,
		Achievements: ev.Achievements,
	})
}

// Attach subscribes the hub to s and returns the unsubscribe function.
func (h *Hub) Attach(s *session.Session) func() {
	return s.Subscribe(func(ev session.Event) { h.HandleEvent(s, ev) })
}

func (h *Hub) registerClient(c *Client) {
	if h.slots[c.slot] == nil {
		h.slots[c.slot] = make(map[*Client]bool)
	}
	h.slots[c.slot][c] = true
	h.logger.Debug("client registered", "slot", c.slot, "clients", len(h.slots[c.slot]))
}

func (h *Hub) unregisterClient(c *Client) {
	clients, ok := h.slots[c.slot]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.slots, c.slot)
	}
	h.logger.Debug("client unregistered", "slot", c.slot, "clients", len(clients))
}

func (h *Hub) broadcastMessage(msg *Message) {
	clients, ok := h.slots[msg.Slot]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			// Slow reader
			h.unregisterClient(c)
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("read failed", "slot", c.slot, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
