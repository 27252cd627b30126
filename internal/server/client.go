// Package server manages WebSocket clients, handling the read pump, ping
// keepalives, rate limiting, and lifecycle control for each connection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat/internal/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is a WebSocket connection attached to one chat user. The chat
// Connection is the only writer of data frames; pings go through
// WriteControl, which gorilla allows concurrently.
type Client struct {
	conn   *websocket.Conn
	server *Server
	userID string
	addr   string
	log    logrus.FieldLogger
}

// NewClient creates a Client for userID on an upgraded connection.
func NewClient(conn *websocket.Conn, s *Server, userID, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	return &Client{
		conn:   conn,
		server: s,
		userID: userID,
		addr:   addr,
		log:    s.log.WithField("user_id", userID),
	}
}

// WebSocketHandler upgrades a joined user's request to a bidirectional
// stream. Outbound frames carry the same events as the SSE stream; inbound
// frames post messages and typing updates.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	chatConn, err := s.hub.Attach(userID)
	if err != nil {
		s.log.Debugf("Rejected WebSocket stream: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, s, userID, r.RemoteAddr)
	client.log.Infof("WebSocket client registered from %s", client.addr)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		client.readPump()
	}()
	go client.pingPump(ctx)

	err = chatConn.Serve(ctx, client)
	cancel()
	client.closeConnection()
	s.limiters.forget(userID)

	if err != nil && !isExpectedCloseError(err) {
		client.log.Warnf("WebSocket stream from %s ended with error: %v", client.addr, err)
		return
	}
	client.log.Infof("WebSocket client unregistered from %s", client.addr)
}

// Send writes ev as a JSON text frame.
func (c *Client) Send(ev chat.Event) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Keepalive sends a ping when the stream has been idle.
func (c *Client) Keepalive() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warnf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// handleReadError logs the reason the read loop is ending.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warnf("Message from %s exceeded maximum size of %d bytes", c.addr, c.server.cfg.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Debugf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debugf("Client %s connection closed: %v", c.addr, err)
	default:
		c.log.Warnf("WebSocket read error from %s: %v", c.addr, err)
	}
}

func (c *Client) readPump() {
	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warnf("Error extending read deadline for %s: %v", c.addr, err)
		}
		c.processFrame(raw)
	}
}

// processFrame applies one inbound frame. Malformed or throttled frames are
// logged and dropped.
func (c *Client) processFrame(raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Debugf("Invalid frame from %s: %v", c.addr, err)
		return
	}

	hub := c.server.hub
	var err error
	switch frame.Type {
	case frameMessage:
		if strings.TrimSpace(frame.Text) == "" {
			return
		}
		if !c.server.limiters.allow(c.userID) {
			c.log.Warnf("Rate limit exceeded for %s (%d messages per %s); discarding message",
				c.addr, c.server.cfg.RateLimit.Burst, c.server.cfg.RateLimit.RefillInterval)
			return
		}
		err = hub.Dispatch(c.userID, frame.Text)
	case frameTyping:
		err = hub.SetTyping(c.userID, true)
	case frameStopTyping:
		err = hub.SetTyping(c.userID, false)
	default:
		c.log.Debugf("Unknown frame type %q from %s", frame.Type, c.addr)
		return
	}

	if err != nil && !errors.Is(err, chat.ErrInvalidSender) {
		c.log.Warnf("Error handling %s frame from %s: %v", frame.Type, c.addr, err)
	}
}

// pingPump keeps busy streams alive; idle streams are also pinged through
// Keepalive.
func (c *Client) pingPump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Keepalive(); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warnf("Error writing ping message to %s: %v", c.addr, err)
				}
				return
			}
		}
	}
}

// closeConnection sends a close frame and closes the socket.
func (c *Client) closeConnection() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		if !isExpectedCloseError(err) && !errors.Is(err, websocket.ErrCloseSent) {
			c.log.Debugf("Error writing close message to %s: %v", c.addr, err)
		}
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warnf("Error closing connection for %s: %v", c.addr, err)
	}
}
