// Package server defines the JSON request and response payloads of the REST
// API and utility helpers shared by the transports.
package server

import (
	"strings"

	"github.com/Tyrowin/gochat/internal/chat"
)

type joinRequest struct {
	Username string `json:"username"`
}

// JoinResponse is returned by POST /api/join.
type JoinResponse struct {
	UserID   string              `json:"userId"`
	Username string              `json:"username"`
	History  []chat.MessageEvent `json:"history"`
}

type messageRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type typingRequest struct {
	UserID   string `json:"userId"`
	IsTyping *bool  `json:"isTyping"`
}

// StatusResponse acknowledges a successful call.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Users    int    `json:"users"`
	Messages int    `json:"messages"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// inboundFrame is a client-to-server WebSocket message.
type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	frameMessage    = "message"
	frameTyping     = "typing"
	frameStopTyping = "stop_typing"
)

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
