// ABOUTME: WebSocket client for the generator session
// ABOUTME: Handles connection, handshake, control commands, and chunk routing
package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/protocol"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds session client configuration
type Config struct {
	ServerAddr string
	Name       string
	Version    int
	APIKey     string
}

// Client is the WebSocket client for one generation session. Inbound
// messages are routed onto channels; the engine must tolerate arbitrary
// inter-message delay and loss, so a dropped chunk is only a gap.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Chunks      chan protocol.ChunkFrame
	StreamStart chan protocol.StreamStart
	Errors      chan error

	connected bool
	done      chan struct{}
	closeOnce sync.Once

	logger *log.Logger
}

// NewClient creates a session client
func NewClient(config Config, logger *log.Logger) *Client {
	return &Client{
		config:      config,
		Chunks:      make(chan protocol.ChunkFrame, 100),
		StreamStart: make(chan protocol.StreamStart, 1),
		Errors:      make(chan error, 1),
		done:        make(chan struct{}),
		logger:      logger.WithPrefix("session"),
	}
}

// Connect establishes the WebSocket connection and performs the
// handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/session"}
	c.logger.Info("connecting", "url", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake performs the client/hello exchange
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: uuid.New().String(),
		Name:     c.config.Name,
		Version:  c.config.Version,
		APIKey:   c.config.APIKey,
	}

	if err := c.sendJSON(protocol.Message{Type: "client/hello", Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != "server/hello" {
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	c.logger.Info("handshake complete")
	return nil
}

// Play asks the generator to start or resume producing chunks
func (c *Client) Play() error {
	return c.sendCommand("play")
}

// Pause asks the generator to suspend production
func (c *Client) Pause() error {
	return c.sendCommand("pause")
}

// Stop ends the generation session
func (c *Client) Stop() error {
	return c.sendCommand("stop")
}

func (c *Client) sendCommand(cmd string) error {
	return c.sendJSON(protocol.Message{
		Type:    "session/command",
		Payload: protocol.SessionCommand{Command: cmd},
	})
}

// SetPrompt steers generation with a weighted text prompt
func (c *Client) SetPrompt(text string, weight float64) error {
	return c.sendJSON(protocol.Message{
		Type:    "session/prompt",
		Payload: protocol.PromptUpdate{Text: text, Weight: weight},
	})
}

// SetParams tunes the generative process
func (c *Client) SetParams(params protocol.GenerationParams) error {
	return c.sendJSON(protocol.Message{
		Type:    "session/params",
		Payload: params,
	})
}

func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes inbound messages until the connection
// drops
func (c *Client) readMessages() {
	defer c.reportLost()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Warn("read error", "err", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

// reportLost surfaces a dropped connection as a session error
func (c *Client) reportLost() {
	c.mu.RLock()
	wasConnected := c.connected
	c.mu.RUnlock()

	if wasConnected {
		select {
		case c.Errors <- fmt.Errorf("session connection lost"):
		default:
		}
	}
	c.Close()
}

// handleBinaryMessage routes audio chunk frames
func (c *Client) handleBinaryMessage(data []byte) {
	frame, err := protocol.DecodeChunkFrame(data)
	if err != nil {
		c.logger.Warn("dropping invalid binary message", "err", err)
		return
	}

	select {
	case c.Chunks <- frame:
	case <-c.done:
	}
}

// handleJSONMessage routes control messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("failed to parse message", "err", err)
		return
	}

	payload, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case "stream/start":
		var start protocol.StreamStart
		if err := json.Unmarshal(payload, &start); err != nil {
			c.logger.Warn("bad stream/start payload", "err", err)
			return
		}
		select {
		case c.StreamStart <- start:
		case <-c.done:
		}

	case "session/error":
		var serr protocol.SessionError
		if err := json.Unmarshal(payload, &serr); err != nil {
			c.logger.Warn("bad session/error payload", "err", err)
			return
		}
		select {
		case c.Errors <- fmt.Errorf("generator error %s: %s", serr.Code, serr.Message):
		default:
		}

	default:
		c.logger.Debug("ignoring message", "type", msg.Type)
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close closes the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
		c.connected = false
		c.logger.Info("connection closed")
	})
}
