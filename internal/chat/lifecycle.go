package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultUsername is used when a user joins without a display name.
const DefaultUsername = "Anonymous"

// JoinResult is what a freshly joined client needs to render the room.
type JoinResult struct {
	UserID   string
	Username string
	History  []MessageEvent
}

// Sink receives the events drained from a user's queue. Implementations
// write to the underlying transport and return an error once it is gone.
type Sink interface {
	Send(ev Event) error
	Keepalive() error
}

// Join registers a new user and announces them to everyone, including
// themselves. An empty display name becomes DefaultUsername.
func (h *Hub) Join(displayName string) (JoinResult, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = DefaultUsername
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return JoinResult{}, ErrHubClosed
	}
	user := h.users.join(name)
	history := h.history.Snapshot()
	total := h.users.len()
	h.mu.Unlock()

	h.log.WithField("user_id", user.ID).Infof("%s joined. Total users: %d", name, total)
	h.BroadcastSystemAndPresence(name + " joined the chat")

	return JoinResult{UserID: user.ID, Username: name, History: history}, nil
}

// Disconnect removes userID and announces their departure. It reports
// whether a user was removed; disconnecting an absent id does nothing.
func (h *Hub) Disconnect(userID string) bool {
	h.mu.Lock()
	user, ok := h.users.remove(userID)
	if ok {
		user.queue.Close()
	}
	total := h.users.len()
	h.mu.Unlock()

	if !ok {
		return false
	}

	h.log.WithField("user_id", userID).Infof("%s disconnected. Total users: %d", user.Name, total)
	h.BroadcastSystemAndPresence(user.Name + " left the chat")
	return true
}

// Connection is an attached event stream for one user.
type Connection struct {
	hub  *Hub
	user *User
}

// Attach prepares a stream for a previously joined user. It returns
// ErrUnknownUser if the id never joined or has already disconnected.
func (h *Hub) Attach(userID string) (*Connection, error) {
	user, ok := h.Lookup(userID)
	if !ok {
		return nil, fmt.Errorf("attach %q: %w", userID, ErrUnknownUser)
	}
	return &Connection{hub: h, user: user}, nil
}

// UserID returns the id of the attached user.
func (c *Connection) UserID() string { return c.user.ID }

// Username returns the display name of the attached user.
func (c *Connection) Username() string { return c.user.Name }

// Serve drains the user's queue into sink until ctx is done, the user is
// removed, or sink fails. When nothing arrives within the hub's keepalive
// interval a keepalive is written instead. The user is disconnected when
// Serve returns, whatever the reason.
func (c *Connection) Serve(ctx context.Context, sink Sink) error {
	c.hub.streams.Add(1)
	defer c.hub.streams.Done()
	defer c.hub.Disconnect(c.user.ID)

	log := c.hub.log.WithField("user_id", c.user.ID)
	log.Debugf("Stream attached for %s", c.user.Name)

	for {
		ev, err := c.user.queue.Pop(ctx, c.hub.keepalive)
		switch {
		case err == nil:
			if err := sink.Send(ev); err != nil {
				return fmt.Errorf("send %s event: %w", ev.Kind(), err)
			}
		case errors.Is(err, ErrPopTimeout):
			if err := sink.Keepalive(); err != nil {
				return fmt.Errorf("send keepalive: %w", err)
			}
		case errors.Is(err, ErrQueueClosed):
			log.Debugf("Stream for %s ended: user removed", c.user.Name)
			return nil
		default:
			log.Debugf("Stream for %s ended: %v", c.user.Name, err)
			return nil
		}
	}
}
