// Package ws provides a WebSocket client for the secretary gateway.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/dohr-michael/secretary/internal/board"
	wsprotocol "github.com/dohr-michael/secretary/internal/gateway/ws"
)

// Client is a WebSocket client for the secretary gateway.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// SendMessage sends a user message and returns the request id.
func (c *Client) SendMessage(params wsprotocol.SendMessageParams) (string, error) {
	return c.request(wsprotocol.MethodSendMessage, params)
}

// ListTasks asks for the open tasks and returns the request id.
func (c *Client) ListTasks(timezone string) (string, error) {
	return c.request(wsprotocol.MethodListTasks, wsprotocol.ListTasksParams{Timezone: timezone})
}

func (c *Client) request(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame, err := wsprotocol.NewRequestFrame(id, method, params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}
	return id, c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Ask sends one message and collects the replies pushed before the response.
func (c *Client) Ask(params wsprotocol.SendMessageParams) ([]string, error) {
	id, err := c.SendMessage(params)
	if err != nil {
		return nil, err
	}

	var replies []string
	for {
		frame, err := c.ReadFrame()
		if err != nil {
			return replies, err
		}
		switch {
		case frame.Type == wsprotocol.FrameTypeEvent && frame.Event == wsprotocol.EventReply:
			var p wsprotocol.ReplyPayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil {
				return replies, fmt.Errorf("decode reply: %w", err)
			}
			replies = append(replies, p.Text)
		case frame.Type == wsprotocol.FrameTypeResponse && frame.ID == id:
			if frame.OK == nil || !*frame.OK {
				return replies, errors.New(frame.Error)
			}
			return replies, nil
		}
	}
}

// Tasks lists the open tasks with due dates in timezone, skipping events
// that arrive before the response.
func (c *Client) Tasks(timezone string) ([]board.TaskView, error) {
	id, err := c.ListTasks(timezone)
	if err != nil {
		return nil, err
	}
	for {
		frame, err := c.ReadFrame()
		if err != nil {
			return nil, err
		}
		if frame.Type != wsprotocol.FrameTypeResponse || frame.ID != id {
			continue
		}
		if frame.OK == nil || !*frame.OK {
			return nil, errors.New(frame.Error)
		}
		var views []board.TaskView
		if err := json.Unmarshal(frame.Payload, &views); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
		return views, nil
	}
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
