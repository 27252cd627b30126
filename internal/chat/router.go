package chat

import (
	"fmt"
	"regexp"
)

// directMessagePattern matches "@name text", "@ name, text" and
// "@name: text". The first group is the recipient, the second the body.
var directMessagePattern = regexp.MustCompile(`^@\s*([\p{L}\p{N}_]+)[,:\s]*(.*)`)

// parseDirectMessage reports whether text addresses a single recipient.
func parseDirectMessage(text string) (recipient, body string, ok bool) {
	m := directMessagePattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Dispatch routes a chat message from senderID. Text addressed with a
// leading "@name" goes only to that user and back to the sender; anything
// else is stored in history and broadcast to everyone. Either way the
// sender's typing flag is cleared and a fresh typing indicator is
// broadcast. It returns ErrInvalidSender if the sender is not registered.
func (h *Hub) Dispatch(senderID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sender, ok := h.users.lookup(senderID)
	if !ok {
		return fmt.Errorf("dispatch from %q: %w", senderID, ErrInvalidSender)
	}

	now := h.now()
	msg := MessageEvent{
		ID:        h.nextMessageID,
		Text:      text,
		Sender:    sender.Name,
		UserID:    sender.ID,
		Timestamp: now,
	}
	h.nextMessageID++

	if name, body, direct := parseDirectMessage(text); direct {
		msg.IsDirectMessage = true
		msg.Recipient = &name
		h.routeDirectLocked(sender, name, body, msg)
	} else {
		h.history.Append(msg)
		h.broadcastLocked(msg)
		h.log.WithField("user_id", sender.ID).Debugf("%s: %s", sender.Name, text)
	}

	h.users.setTyping(sender.ID, false)
	h.broadcastLocked(TypingEvent{TypingUsers: h.users.typingNames(), Timestamp: now})
	return nil
}

func (h *Hub) routeDirectLocked(sender *User, name, body string, msg MessageEvent) {
	recipient, found := h.users.findByName(name)
	if !found {
		h.log.WithField("user_id", sender.ID).Debugf("Direct message from %s to unknown user @%s", sender.Name, name)
		h.deliver(sender, SystemEvent{
			Message:   fmt.Sprintf("User @%s not found", name),
			Timestamp: msg.Timestamp,
		})
		return
	}

	h.log.WithField("user_id", sender.ID).Debugf("Direct message from %s to %s: %s", sender.Name, recipient.Name, body)
	h.deliver(recipient, msg)
	if recipient != sender {
		h.deliver(sender, msg)
	}
}

// SetTyping updates userID's typing flag and broadcasts the recomputed
// typing indicator. It returns ErrInvalidSender for unknown users.
func (h *Hub) SetTyping(userID string, typing bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.users.setTyping(userID, typing) {
		return fmt.Errorf("set typing for %q: %w", userID, ErrInvalidSender)
	}
	h.broadcastLocked(TypingEvent{TypingUsers: h.users.typingNames(), Timestamp: h.now()})
	return nil
}

// BroadcastSystemAndPresence sends a system notice to every user, followed
// by the current presence list. The two broadcasts are separate critical
// sections, so other operations may interleave between them.
func (h *Hub) BroadcastSystemAndPresence(text string) {
	h.mu.Lock()
	h.broadcastLocked(SystemEvent{Message: text, Timestamp: h.now()})
	h.mu.Unlock()

	h.mu.Lock()
	h.broadcastLocked(UserListEvent{Users: h.users.snapshot(), Timestamp: h.now()})
	h.mu.Unlock()
}

func (h *Hub) broadcastLocked(ev Event) {
	h.users.each(func(u *User) {
		h.deliver(u, ev)
	})
}

// deliver pushes ev to u's queue. Delivery is best effort: a queue that
// was closed by a concurrent disconnect just drops the event.
func (h *Hub) deliver(u *User, ev Event) {
	if err := u.queue.Push(ev); err != nil {
		h.log.WithField("user_id", u.ID).Debugf("Dropped %s event: %v", ev.Kind(), err)
	}
}
