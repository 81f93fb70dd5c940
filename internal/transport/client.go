// ABOUTME: Reconnecting WebSocket client for the tutor backend
// ABOUTME: Decodes JSON frames into a single-consumer buffered event queue

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// eventBufferSize is the channel buffer for the inbound event queue.
	eventBufferSize = 64
	// stateBufferSize is the channel buffer for connection state changes.
	stateBufferSize = 8
	// DefaultReconnectDelay is the fixed retry interval after a dropped
	// connection. No backoff growth.
	DefaultReconnectDelay = 3 * time.Second
)

// Client maintains a WebSocket connection to the tutor backend, redialling
// on a fixed interval whenever the connection drops. Inbound frames are
// decoded into Events() in arrival order; the queue has exactly one
// consumer (the controller's event pump).
type Client struct {
	url            string
	reconnectDelay time.Duration
	logger         *slog.Logger

	mu   sync.RWMutex
	conn *websocket.Conn

	events chan Event
	states chan ConnState
}

// ClientConfig holds construction parameters for the Client.
type ClientConfig struct {
	// URL is the WebSocket endpoint, e.g. ws://localhost:8050/ws/llm.
	URL string
	// ReconnectDelay overrides the fixed redial interval. Zero means
	// DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewClient creates a Client. Call Run to start the connection loop.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Client{
		url:            cfg.URL,
		reconnectDelay: delay,
		logger:         logger.With("component", "transport"),
		events:         make(chan Event, eventBufferSize),
		states:         make(chan ConnState, stateBufferSize),
	}
}

// Events returns the inbound event queue. Closed when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// States returns connection state changes. Slow consumers lose
// intermediate transitions, never the queue itself.
func (c *Client) States() <-chan ConnState {
	return c.states
}

// Ready reports whether the connection is currently established.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Run dials the backend and keeps the connection alive until ctx is
// cancelled, redialling after the fixed delay on every drop. It owns the
// events channel and closes it on return.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	for {
		if err := c.connectAndRead(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("connection lost", "error", err)
		}
		if ctx.Err() != nil {
			return
		}

		c.pushState(StateDisconnected)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

// connectAndRead dials once and pumps frames until the connection fails.
func (c *Client) connectAndRead(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("connected", "url", c.url)
	c.pushState(StateConnected)

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.CloseNow()
	}()

	for {
		var ev Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		if !ev.known() {
			c.logger.Warn("dropping unknown event type", "type", ev.Type)
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SendQuestion submits a question for the given conversation.
func (c *Client) SendQuestion(ctx context.Context, question, conversationID string) error {
	return c.send(ctx, Command{
		Type:           CommandQuestion,
		Question:       question,
		ConversationID: conversationID,
	})
}

// SendStop requests cancellation of the given generation task.
func (c *Client) SendStop(ctx context.Context, taskID string) error {
	return c.send(ctx, Command{
		Type:   CommandStop,
		TaskID: taskID,
	})
}

func (c *Client) send(ctx context.Context, cmd Command) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := wsjson.Write(ctx, conn, cmd); err != nil {
		return fmt.Errorf("sending %s command: %w", cmd.Type, err)
	}
	return nil
}

// pushState delivers a state change without ever blocking the read loop.
func (c *Client) pushState(s ConnState) {
	select {
	case c.states <- s:
	default:
		c.logger.Debug("state change dropped, consumer behind", "state", s)
	}
}
