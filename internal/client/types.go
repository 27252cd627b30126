package client

import (
	"fmt"
	"time"
)

// JoinResponse is returned by Join.
type JoinResponse struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	History  []Frame `json:"history"`
}

// HealthResponse is returned by Health.
type HealthResponse struct {
	Status   string `json:"status"`
	Users    int    `json:"users"`
	Messages int    `json:"messages"`
}

// Presence is one entry of a user_list frame.
type Presence struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Event types carried in Frame.Type.
const (
	TypeSystem          = "system"
	TypeMessage         = "message"
	TypeUserList        = "user_list"
	TypeTypingIndicator = "typing_indicator"
)

// Frame is any server event, flattened. Only the fields of Type are set.
type Frame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// message
	ID              uint64  `json:"id"`
	Text            string  `json:"text"`
	Sender          string  `json:"sender"`
	UserID          string  `json:"userId"`
	IsDirectMessage bool    `json:"isDirectMessage"`
	Recipient       *string `json:"recipient"`

	// system
	Message string `json:"message"`

	// user_list
	Users []Presence `json:"users"`

	// typing_indicator
	TypingUsers []string `json:"typingUsers"`
}

type joinRequest struct {
	Username string `json:"username"`
}

type messageRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

type typingRequest struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}
