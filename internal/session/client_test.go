// ABOUTME: Tests for the generator session client
// ABOUTME: Covers handshake, chunk routing, and connection-loss reporting
package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/protocol"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// fakeGenerator runs a minimal generator endpoint for one connection
func fakeGenerator(t *testing.T, serve func(conn *websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Consume client/hello, answer server/hello
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var hello protocol.Message
		if err := json.Unmarshal(data, &hello); err != nil || hello.Type != "client/hello" {
			t.Errorf("expected client/hello, got %s", data)
			return
		}

		reply, _ := json.Marshal(protocol.Message{
			Type:    "server/hello",
			Payload: protocol.ServerHello{ServerID: "gen-1", Name: "test", Version: 1},
		})
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			return
		}

		if serve != nil {
			serve(conn)
		}
	}))
	t.Cleanup(srv.Close)

	return strings.TrimPrefix(srv.URL, "http://")
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	c := NewClient(Config{ServerAddr: addr, Name: "test-player", Version: 1}, log.New(io.Discard))
	t.Cleanup(c.Close)
	return c
}

func TestConnectHandshake(t *testing.T) {
	addr := fakeGenerator(t, nil)
	c := newTestClient(t, addr)

	require.NoError(t, c.Connect())
	assert.True(t, c.IsConnected())
}

func TestConnectRefused(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1")
	assert.Error(t, c.Connect())
}

func TestChunkRouting(t *testing.T) {
	addr := fakeGenerator(t, func(conn *websocket.Conn) {
		for seq := uint64(0); seq < 3; seq++ {
			wire := protocol.EncodeChunkFrame(seq, []byte{byte(seq), 0})
			if err := conn.WriteMessage(websocket.BinaryMessage, wire); err != nil {
				return
			}
		}
		// Hold the connection open until the test finishes
		conn.ReadMessage()
	})

	c := newTestClient(t, addr)
	require.NoError(t, c.Connect())

	for seq := uint64(0); seq < 3; seq++ {
		select {
		case frame := <-c.Chunks:
			assert.Equal(t, seq, frame.Seq)
			assert.Equal(t, []byte{byte(seq), 0}, frame.Data)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for chunk %d", seq)
		}
	}
}

func TestStreamStartRouting(t *testing.T) {
	addr := fakeGenerator(t, func(conn *websocket.Conn) {
		msg, _ := json.Marshal(protocol.Message{
			Type: "stream/start",
			Payload: protocol.StreamStart{
				Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16,
			},
		})
		conn.WriteMessage(websocket.TextMessage, msg)
		conn.ReadMessage()
	})

	c := newTestClient(t, addr)
	require.NoError(t, c.Connect())

	select {
	case start := <-c.StreamStart:
		assert.Equal(t, "pcm", start.Codec)
		assert.Equal(t, 48000, start.SampleRate)
		assert.Equal(t, 2, start.Channels)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream/start")
	}
}

func TestSessionErrorRouting(t *testing.T) {
	addr := fakeGenerator(t, func(conn *websocket.Conn) {
		msg, _ := json.Marshal(protocol.Message{
			Type:    "session/error",
			Payload: protocol.SessionError{Code: "overloaded", Message: "try later"},
		})
		conn.WriteMessage(websocket.TextMessage, msg)
		conn.ReadMessage()
	})

	c := newTestClient(t, addr)
	require.NoError(t, c.Connect())

	select {
	case err := <-c.Errors:
		assert.Contains(t, err.Error(), "overloaded")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session error")
	}
}

func TestConnectionLossReported(t *testing.T) {
	addr := fakeGenerator(t, func(conn *websocket.Conn) {
		// Close immediately after the handshake
	})

	c := newTestClient(t, addr)
	require.NoError(t, c.Connect())

	select {
	case err := <-c.Errors:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loss report")
	}
	assert.False(t, c.IsConnected())
}

func TestCommandsRequireConnection(t *testing.T) {
	c := newTestClient(t, "127.0.0.1:1")
	assert.Error(t, c.Play())
	assert.Error(t, c.Pause())
	assert.Error(t, c.Stop())
	assert.Error(t, c.SetPrompt("jazz", 1.0))
}
