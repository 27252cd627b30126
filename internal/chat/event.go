package chat

import (
	"encoding/json"
	"time"
)

// Kind identifies the variant of an Event on the wire.
type Kind string

// Event kinds emitted to clients.
const (
	KindSystem          Kind = "system"
	KindMessage         Kind = "message"
	KindUserList        Kind = "user_list"
	KindTypingIndicator Kind = "typing_indicator"
)

// Event is an immutable outbound notification. The concrete types are
// SystemEvent, MessageEvent, UserListEvent and TypingEvent; each marshals
// to JSON with a "type" discriminator.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

// SystemEvent is a human-readable notice such as a join or leave.
type SystemEvent struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageEvent is a chat message, either broadcast or direct.
type MessageEvent struct {
	ID              uint64    `json:"id"`
	Text            string    `json:"text"`
	Sender          string    `json:"sender"`
	UserID          string    `json:"userId"`
	Timestamp       time.Time `json:"timestamp"`
	IsDirectMessage bool      `json:"isDirectMessage"`
	Recipient       *string   `json:"recipient"`
}

// Presence is one entry of the online user list.
type Presence struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// UserListEvent carries the current presence list.
type UserListEvent struct {
	Users     []Presence `json:"users"`
	Timestamp time.Time  `json:"timestamp"`
}

// TypingEvent carries the display names of everyone currently typing.
type TypingEvent struct {
	TypingUsers []string  `json:"typingUsers"`
	Timestamp   time.Time `json:"timestamp"`
}

func (SystemEvent) Kind() Kind   { return KindSystem }
func (MessageEvent) Kind() Kind  { return KindMessage }
func (UserListEvent) Kind() Kind { return KindUserList }
func (TypingEvent) Kind() Kind   { return KindTypingIndicator }

func (e SystemEvent) OccurredAt() time.Time   { return e.Timestamp }
func (e MessageEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e UserListEvent) OccurredAt() time.Time { return e.Timestamp }
func (e TypingEvent) OccurredAt() time.Time   { return e.Timestamp }

// MarshalJSON adds the "type" discriminator.
func (e SystemEvent) MarshalJSON() ([]byte, error) {
	type fields SystemEvent
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindSystem, fields(e)})
}

// MarshalJSON adds the "type" discriminator.
func (e MessageEvent) MarshalJSON() ([]byte, error) {
	type fields MessageEvent
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindMessage, fields(e)})
}

// MarshalJSON adds the "type" discriminator. A nil user list is encoded
// as an empty array.
func (e UserListEvent) MarshalJSON() ([]byte, error) {
	type fields UserListEvent
	if e.Users == nil {
		e.Users = []Presence{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindUserList, fields(e)})
}

// MarshalJSON adds the "type" discriminator. A nil typing list is encoded
// as an empty array.
func (e TypingEvent) MarshalJSON() ([]byte, error) {
	type fields TypingEvent
	if e.TypingUsers == nil {
		e.TypingUsers = []string{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindTypingIndicator, fields(e)})
}
