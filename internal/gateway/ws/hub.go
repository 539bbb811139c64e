package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/chat"
	"github.com/dohr-michael/secretary/internal/secretary"
)

// DefaultSession is used when a send_message request names no session.
const DefaultSession = "default"

// SessionKey maps a gateway session id to a coordinator session key.
func SessionKey(id string) string {
	if id == "" {
		id = DefaultSession
	}
	return "gateway:" + id
}

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub manages WebSocket clients and routes their requests to the secretary.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	handler chat.Handler
	tasks   board.Store
}

// NewHub creates a new WebSocket hub.
func NewHub(handler chat.Handler, tasks board.Store) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		handler: handler,
		tasks:   tasks,
	}
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := NewEventFrame(event, "", payload)
	if err != nil {
		slog.Error("marshal event frame", "error", err)
		return
	}
	data, err := MarshalFrame(frame)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	h.broadcast(data)
}

// Post broadcasts a digest to all clients.
func (h *Hub) Post(_ context.Context, text string) error {
	h.Broadcast(EventDigest, ReplyPayload{Text: text})
	return nil
}

// broadcast sends data to all connected clients.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

// register adds a client to the hub.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

// unregister removes a client from the hub.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

// readPump reads frames from the WS connection and dispatches them.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Error("ws unmarshal frame", "error", err)
			continue
		}

		if frame.Type != FrameTypeRequest {
			slog.Debug("ws unknown frame type", "type", frame.Type)
			continue
		}
		c.handleRequest(ctx, frame)
	}
}

// handleRequest processes a request frame (method dispatch). Requests of one
// client run in order.
func (c *Client) handleRequest(ctx context.Context, frame Frame) {
	switch Method(frame.Method) {
	case MethodSendMessage:
		var params SendMessageParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			c.respond(frame.ID, false, nil, "invalid params")
			return
		}

		sessionID := params.SessionID
		if sessionID == "" {
			sessionID = DefaultSession
		}
		replies := 0
		replier := secretary.ReplierFunc(func(_ context.Context, text string) error {
			replies++
			c.event(EventReply, sessionID, ReplyPayload{Text: text})
			return nil
		})
		in := secretary.Inbound{
			SessionKey: SessionKey(sessionID),
			Author:     params.Author,
			Text:       params.Text,
			Timezone:   params.Timezone,
		}
		if err := c.hub.handler.Handle(ctx, in, replier); err != nil {
			slog.Error("ws send_message failed", "session", sessionID, "error", err)
			c.respond(frame.ID, false, nil, "message could not be handled")
			return
		}
		c.respond(frame.ID, true, SendMessageResult{Replies: replies}, "")

	case MethodListTasks:
		var params ListTasksParams
		if len(frame.Params) > 0 {
			if err := json.Unmarshal(frame.Params, &params); err != nil {
				c.respond(frame.ID, false, nil, "invalid params")
				return
			}
		}
		loc := board.LoadLocation(params.Timezone)
		cards, err := c.hub.tasks.Tasks(ctx, loc)
		if err != nil {
			slog.Error("ws list_tasks failed", "error", err)
			c.respond(frame.ID, false, nil, "tasks unavailable")
			return
		}
		c.respond(frame.ID, true, board.Views(cards, loc), "")

	default:
		c.respond(frame.ID, false, nil, "unknown method: "+frame.Method)
	}
}

// writePump writes queued messages to the WS connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) event(event, sessionID string, payload any) {
	f, err := NewEventFrame(event, sessionID, payload)
	if err != nil {
		return
	}
	c.enqueue(f)
}

func (c *Client) respond(id string, ok bool, payload any, errMsg string) {
	f, err := NewResponseFrame(id, ok, payload, errMsg)
	if err != nil {
		return
	}
	c.enqueue(f)
}

func (c *Client) enqueue(f Frame) {
	data, err := MarshalFrame(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
