package main

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Broadcaster is how the game core reaches clients: one connection by id, or
// every member of a session group. The core announces group membership
// (Join/Leave/DropSession) as sessions change; delivery is fire-and-forget
// with no acknowledgement and no retry.
type Broadcaster interface {
	SendTo(connID string, msg any)
	SendToSession(sessionID string, msg any)
	Join(sessionID, connID string)
	Leave(sessionID, connID string)
	DropSession(sessionID string)
}

// ClientMessage is the inbound event envelope.
type ClientMessage struct {
	Type      string `json:"type"` // "createCooperative", "joinCooperative", "submitAction", "advanceStage", "startQuiz", "submitAnswer", "advanceQuestion"
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty"`
	Value     string `json:"value,omitempty"`
}

type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string
}

// wsHub implements Broadcaster over live websocket connections. Its lock is a
// leaf: nothing here calls back into the registry or the game core.
type wsHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]struct{} // sessionID -> member connIDs
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *wsHub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.connID] = c
}

// remove drops a client from the table and closes its send channel, exactly
// once even when the read pump and a slow-consumer drop race.
func (h *wsHub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.connID]; ok && cur == c {
		delete(h.clients, c.connID)
		close(c.send)
	}
}

func (h *wsHub) Join(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[sessionID]
	if !ok {
		group = make(map[string]struct{})
		h.groups[sessionID] = group
	}
	group[connID] = struct{}{}
}

func (h *wsHub) Leave(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, ok := h.groups[sessionID]; ok {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, sessionID)
		}
	}
}

func (h *wsHub) DropSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.groups, sessionID)
}

func (h *wsHub) SendTo(connID string, msg any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		// Slow consumers are dropped rather than blocking the sender.
		h.remove(c)
		_ = c.conn.Close()
	}
}

func (h *wsHub) SendToSession(sessionID string, msg any) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.groups[sessionID]))
	for connID := range h.groups[sessionID] {
		ids = append(ids, connID)
	}
	h.mu.RUnlock()

	for _, connID := range ids {
		h.SendTo(connID, msg)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades a connection, assigns it an opaque id, and pumps events
// between the socket and the game core.
func serveWS(cfg *Config, hub *wsHub, game *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
		}
		hub.add(client)

		logf(cfg, "SERVE: Websocket connection %s from %s", client.connID, realIP(r))

		go client.writePump()
		client.readPump(hub, game)
	}
}

func (c *Client) readPump(h *wsHub, g *Game) {
	defer func() {
		h.remove(c)
		g.Disconnect(c.connID)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		sessionID := strings.ToUpper(strings.TrimSpace(msg.SessionID))

		switch msg.Type {
		case "createCooperative":
			g.CreateRoom(c.connID)
		case "joinCooperative":
			g.JoinRoom(sessionID, c.connID)
		case "submitAction":
			g.SubmitAction(sessionID, c.connID, msg.Role, msg.Value)
		case "advanceStage":
			g.AdvanceStage(sessionID)
		case "startQuiz":
			g.StartQuiz(c.connID)
		case "submitAnswer":
			g.SubmitAnswer(sessionID, msg.Value)
		case "advanceQuestion":
			g.AdvanceQuestion(sessionID)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
