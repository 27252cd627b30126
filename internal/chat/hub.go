package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultKeepaliveInterval is how long a stream waits for an event before
// emitting a keepalive.
const DefaultKeepaliveInterval = 30 * time.Second

// Options configures a Hub. Zero values select the defaults.
type Options struct {
	HistoryLimit      int
	KeepaliveInterval time.Duration
	Logger            logrus.FieldLogger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Hub owns every piece of shared chat state: the user registry, the
// broadcast history and the message id counter. All of it is guarded by a
// single mutex.
type Hub struct {
	mu            sync.Mutex
	users         *registry
	history       *History
	nextMessageID uint64
	closed        bool

	keepalive time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
	streams   sync.WaitGroup
}

// Stats summarises hub state for health checks.
type Stats struct {
	Users    int
	Messages int
}

// NewHub creates a Hub ready to accept joins.
func NewHub(opts Options) *Hub {
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		opts.Logger = discard
	}

	return &Hub{
		users:     newRegistry(opts.NewID),
		history:   NewHistory(opts.HistoryLimit),
		keepalive: opts.KeepaliveInterval,
		now:       opts.Now,
		log:       opts.Logger,
	}
}

// Lookup returns the registered user with the given id.
func (h *Hub) Lookup(id string) (*User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.lookup(id)
}

// FindByName returns a registered user whose display name matches name
// case-insensitively. Which user is returned when names collide is
// unspecified.
func (h *Hub) FindByName(name string) (*User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.findByName(name)
}

// Presence returns the current online user list in no particular order.
func (h *Hub) Presence() []Presence {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.snapshot()
}

// TypingUsers returns the display names of users currently typing.
func (h *Hub) TypingUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.typingNames()
}

// History returns the replayable broadcast history, oldest first.
func (h *Hub) History() []MessageEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.Snapshot()
}

// Stats reports the number of online users and stored messages.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Users: h.users.len(), Messages: h.history.Len()}
}

// Shutdown removes every user, closing their queues so that all running
// streams return, and waits for those streams until ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Info("Initiating hub shutdown...")

	h.mu.Lock()
	h.closed = true
	var dropped int
	h.users.each(func(u *User) {
		u.queue.Close()
		dropped++
	})
	h.users = newRegistry(h.users.newID)
	h.mu.Unlock()

	h.log.Infof("Closed %d user queues", dropped)

	done := make(chan struct{})
	go func() {
		h.streams.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-ctx.Done():
		h.log.Warn("Hub shutdown timeout reached, some streams may still be running")
		return ctx.Err()
	}
}
