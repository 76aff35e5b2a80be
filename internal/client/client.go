// Package client talks to a run21 server over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/server" // Reuse message types
	"github.com/gorilla/websocket"
)

// Client represents a WebSocket connection to a run21 server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once
	requests  int
}

// ServerError is an error message the server sent in reply to a request
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// Reply is everything received while waiting for a request to be answered
type Reply struct {
	// Response is the state or hint message carrying the request ID
	Response *server.Message
	// Events are the other messages that arrived first, such as score and
	// game_over pushes or clock driven state updates
	Events []*server.Message
}

// State decodes the response as a board
func (r *Reply) State() (server.StateData, error) {
	var state server.StateData
	if r.Response == nil || r.Response.Type != server.MessageTypeState {
		return state, fmt.Errorf("reply is not a state message")
	}
	if err := json.Unmarshal(r.Response.Data, &state); err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// GameOver returns the game over report if one arrived with the reply
func (r *Reply) GameOver() (*server.GameOverData, bool) {
	if r == nil {
		return nil, false
	}
	for _, msg := range r.Events {
		if msg.Type != server.MessageTypeGameOver {
			continue
		}
		var data server.GameOverData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, false
		}
		return &data, true
	}
	return nil, false
}

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 256),
		receive:   make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Send queues a request and returns the request ID the server will echo
func (c *Client) Send(msgType server.MessageType, data any) (string, error) {
	if err := c.ctx.Err(); err != nil {
		return "", fmt.Errorf("connection closed: %w", err)
	}
	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.requests++
	msg.RequestID = "req-" + strconv.Itoa(c.requests)
	c.mu.Unlock()

	select {
	case c.send <- msg:
		return msg.RequestID, nil
	case <-c.ctx.Done():
		return "", c.ctx.Err()
	default:
		return "", fmt.Errorf("send buffer full")
	}
}

// Next returns the next message from the server
func (c *Client) Next(ctx context.Context) (*server.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, fmt.Errorf("connection closed")
	}
}

// Call sends a request and waits for the state, hint or error message that
// answers it. An error reply is returned as a *ServerError.
func (c *Client) Call(ctx context.Context, msgType server.MessageType, data any) (*Reply, error) {
	id, err := c.Send(msgType, data)
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return reply, fmt.Errorf("waiting for %s reply: %w", msgType, err)
		}
		if msg.RequestID != id {
			reply.Events = append(reply.Events, msg)
			continue
		}

		switch msg.Type {
		case server.MessageTypeState, server.MessageTypeHint:
			reply.Response = msg
			return reply, nil
		case server.MessageTypeError:
			var data server.ErrorData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return reply, fmt.Errorf("decode error reply: %w", err)
			}
			return reply, &ServerError{Code: data.Code, Message: data.Message}
		default:
			reply.Events = append(reply.Events, msg)
		}
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
