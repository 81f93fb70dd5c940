// ABOUTME: Minimal fake tutor backend for local development and E2E testing
// ABOUTME: Speaks the WebSocket protocol: task_started, streamed llm_response, stop handling

package fakeserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/2389/tutorchat/internal/transport"
)

// ReplyFunc produces the scripted assistant reply for a question.
type ReplyFunc func(question string) string

// EchoReply is the default script: acknowledge the question in markdown.
func EchoReply(question string) string {
	return "You asked: **" + question + "**\n\nHere is a study plan:\n\n1. Fundamentals\n2. Practice\n3. Review"
}

// Config holds fake server construction parameters.
type Config struct {
	// Reply defaults to EchoReply.
	Reply ReplyFunc
	// FragmentDelay is the pause between streamed fragments. Zero means
	// no pause, which is what tests want.
	FragmentDelay time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is an http.Handler that accepts WebSocket connections and answers
// question commands with a word-by-word llm_response stream. A stop command
// acknowledges with command_sent and terminates the stream with an
// interrupted event, exercising both cancellation paths clients must handle.
type Server struct {
	reply         ReplyFunc
	fragmentDelay time.Duration
	logger        *slog.Logger
}

// New creates a fake backend server.
func New(cfg Config) *Server {
	reply := cfg.Reply
	if reply == nil {
		reply = EchoReply
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		reply:         reply,
		fragmentDelay: cfg.FragmentDelay,
		logger:        logger.With("component", "fakeserver"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	c := &clientConn{
		server: s,
		conn:   conn,
		asked:  make(map[string]bool),
	}
	c.run(r.Context())
}

// clientConn tracks one connected client and its in-flight task.
type clientConn struct {
	server *Server
	conn   *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	stopTask chan struct{} // non-nil while a generation task is streaming
	taskID   string

	asked map[string]bool // conversation IDs that already asked once
}

func (c *clientConn) run(ctx context.Context) {
	for {
		var cmd transport.Command
		if err := wsjson.Read(ctx, c.conn, &cmd); err != nil {
			return
		}

		switch cmd.Type {
		case transport.CommandQuestion:
			c.startTask(ctx, cmd)
		case transport.CommandStop:
			c.handleStop(ctx, cmd.TaskID)
		default:
			c.server.logger.Warn("unknown command", "type", cmd.Type)
		}
	}
}

func (c *clientConn) startTask(ctx context.Context, cmd transport.Command) {
	taskID := uuid.New().String()
	isFollowup := c.asked[cmd.ConversationID]
	c.asked[cmd.ConversationID] = true

	stop := make(chan struct{})
	c.mu.Lock()
	c.stopTask = stop
	c.taskID = taskID
	c.mu.Unlock()

	c.write(ctx, transport.Event{
		Type:       transport.EventTaskStarted,
		TaskID:     taskID,
		IsFollowup: isFollowup,
	})

	go c.streamReply(ctx, cmd.Question, stop)
}

func (c *clientConn) streamReply(ctx context.Context, question string, stop <-chan struct{}) {
	c.write(ctx, transport.Event{Type: transport.EventLLMResponse, Phase: transport.PhaseStart})

	reply := c.server.reply(question)
	for _, word := range strings.SplitAfter(reply, " ") {
		select {
		case <-stop:
			c.write(ctx, transport.Event{Type: transport.EventLLMResponse, Phase: transport.PhaseInterrupted})
			c.clearTask()
			return
		case <-ctx.Done():
			return
		default:
		}

		c.write(ctx, transport.Event{
			Type:  transport.EventLLMResponse,
			Phase: transport.PhaseMessage,
			Data:  word,
		})

		if c.server.fragmentDelay > 0 {
			time.Sleep(c.server.fragmentDelay)
		}
	}

	c.write(ctx, transport.Event{Type: transport.EventLLMResponse, Phase: transport.PhaseEnd})
	c.clearTask()
}

func (c *clientConn) handleStop(ctx context.Context, taskID string) {
	c.mu.Lock()
	stop := c.stopTask
	current := c.taskID
	c.stopTask = nil
	c.mu.Unlock()

	c.write(ctx, transport.Event{
		Type:    transport.EventCommandSent,
		Command: transport.CommandStop,
	})

	if stop != nil && taskID == current {
		close(stop)
	}
}

func (c *clientConn) clearTask() {
	c.mu.Lock()
	c.stopTask = nil
	c.mu.Unlock()
}

func (c *clientConn) write(ctx context.Context, ev transport.Event) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wsjson.Write(ctx, c.conn, ev); err != nil {
		c.server.logger.Debug("write failed", "error", err)
	}
}
