// ABOUTME: Tests for the reconnecting WebSocket client against the fake backend
// ABOUTME: Verifies dialing, ordered event delivery, stop handling, and redial after drop

package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutorchat/internal/fakeserver"
	"github.com/2389/tutorchat/internal/transport"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startClient(t *testing.T, url string) *transport.Client {
	t.Helper()
	client := transport.NewClient(transport.ClientConfig{
		URL:            url,
		ReconnectDelay: 20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go client.Run(ctx)
	return client
}

func awaitState(t *testing.T, client *transport.Client, want transport.ConnState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-client.States():
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func nextEvent(t *testing.T, client *transport.Client) transport.Event {
	t.Helper()
	select {
	case ev := <-client.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return transport.Event{}
	}
}

func TestClient_SendBeforeConnect(t *testing.T) {
	client := transport.NewClient(transport.ClientConfig{URL: "ws://127.0.0.1:1/ws/llm"})

	assert.False(t, client.Ready())
	err := client.SendQuestion(context.Background(), "hi", "conv-1")
	assert.ErrorIs(t, err, transport.ErrNotConnected)
	err = client.SendStop(context.Background(), "task-1")
	assert.ErrorIs(t, err, transport.ErrNotConnected)
}

func TestClient_QuestionStreamsInOrder(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(fakeserver.Config{}))
	defer srv.Close()

	client := startClient(t, wsURL(srv))
	awaitState(t, client, transport.StateConnected)
	require.True(t, client.Ready())

	require.NoError(t, client.SendQuestion(context.Background(), "hello", "conv-1"))

	started := nextEvent(t, client)
	require.Equal(t, transport.EventTaskStarted, started.Type)
	assert.NotEmpty(t, started.TaskID)
	assert.False(t, started.IsFollowup)

	start := nextEvent(t, client)
	require.Equal(t, transport.EventLLMResponse, start.Type)
	require.Equal(t, transport.PhaseStart, start.Phase)

	var content strings.Builder
	for {
		ev := nextEvent(t, client)
		require.Equal(t, transport.EventLLMResponse, ev.Type)
		if ev.Phase == transport.PhaseEnd {
			break
		}
		require.Equal(t, transport.PhaseMessage, ev.Phase)
		content.WriteString(ev.Data)
	}
	assert.Equal(t, fakeserver.EchoReply("hello"), content.String())
}

func TestClient_FollowupFlagOnSecondQuestion(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(fakeserver.Config{}))
	defer srv.Close()

	client := startClient(t, wsURL(srv))
	awaitState(t, client, transport.StateConnected)

	require.NoError(t, client.SendQuestion(context.Background(), "first", "conv-1"))
	drainUntilEnd(t, client)

	require.NoError(t, client.SendQuestion(context.Background(), "second", "conv-1"))
	started := nextEvent(t, client)
	require.Equal(t, transport.EventTaskStarted, started.Type)
	assert.True(t, started.IsFollowup)
}

func TestClient_StopInterruptsStream(t *testing.T) {
	srv := httptest.NewServer(fakeserver.New(fakeserver.Config{
		Reply:         func(string) string { return strings.Repeat("word ", 200) },
		FragmentDelay: 5 * time.Millisecond,
	}))
	defer srv.Close()

	client := startClient(t, wsURL(srv))
	awaitState(t, client, transport.StateConnected)

	require.NoError(t, client.SendQuestion(context.Background(), "long one", "conv-1"))

	started := nextEvent(t, client)
	require.Equal(t, transport.EventTaskStarted, started.Type)

	// Let a few fragments through, then cancel.
	sawFragment := false
	for i := 0; i < 3; i++ {
		ev := nextEvent(t, client)
		if ev.Phase == transport.PhaseMessage {
			sawFragment = true
		}
	}
	require.True(t, sawFragment)
	require.NoError(t, client.SendStop(context.Background(), started.TaskID))

	var sawAck, sawInterrupted bool
	for !sawAck || !sawInterrupted {
		ev := nextEvent(t, client)
		switch {
		case ev.Type == transport.EventCommandSent:
			assert.Equal(t, transport.CommandStop, ev.Command)
			sawAck = true
		case ev.Type == transport.EventLLMResponse && ev.Phase == transport.PhaseInterrupted:
			sawInterrupted = true
		}
	}
}

func TestClient_RedialsAfterDrop(t *testing.T) {
	fake := fakeserver.New(fakeserver.Config{})
	var drops atomic.Int32

	// First connection is accepted and immediately torn down; later ones
	// are handed to the fake backend.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if drops.Add(1) == 1 {
			conn, err := websocket.Accept(w, r, nil)
			if err == nil {
				conn.CloseNow()
			}
			return
		}
		fake.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := startClient(t, wsURL(srv))

	awaitState(t, client, transport.StateConnected)
	awaitState(t, client, transport.StateDisconnected)
	awaitState(t, client, transport.StateConnected)

	require.NoError(t, client.SendQuestion(context.Background(), "after reconnect", "conv-1"))
	started := nextEvent(t, client)
	assert.Equal(t, transport.EventTaskStarted, started.Type)
}

func drainUntilEnd(t *testing.T, client *transport.Client) {
	t.Helper()
	for {
		ev := nextEvent(t, client)
		if ev.Type == transport.EventLLMResponse && ev.Phase == transport.PhaseEnd {
			return
		}
	}
}
