// Package chat implements the presence and event fan-out core of GoChat.
//
// A Hub owns the registry of connected users, each user's outbound event
// queue, and the bounded history of broadcast messages. Transports turn
// inbound calls into Hub operations and drain a user's queue through a
// Connection, writing each event to a Sink.
package chat
