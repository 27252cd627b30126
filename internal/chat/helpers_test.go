package chat_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Tyrowin/gochat/internal/chat"
)

func newTestHub(t *testing.T, opts chat.Options) *chat.Hub {
	t.Helper()
	if opts.Logger == nil {
		logger, _ := test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		opts.Logger = logger
	}
	return chat.NewHub(opts)
}

// drain pops every event currently pending on the user's queue.
func drain(t *testing.T, h *chat.Hub, id string) []chat.Event {
	t.Helper()
	u, ok := h.Lookup(id)
	if !ok {
		t.Fatalf("user %q is not registered", id)
	}
	var events []chat.Event
	for {
		ev, err := u.Queue().Pop(context.Background(), 10*time.Millisecond)
		if errors.Is(err, chat.ErrPopTimeout) {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected pop error: %v", err)
		}
		events = append(events, ev)
	}
}

func join(t *testing.T, h *chat.Hub, name string) string {
	t.Helper()
	res, err := h.Join(name)
	if err != nil {
		t.Fatalf("Join(%q) failed: %v", name, err)
	}
	return res.UserID
}

func messages(events []chat.Event) []chat.MessageEvent {
	var out []chat.MessageEvent
	for _, ev := range events {
		if m, ok := ev.(chat.MessageEvent); ok {
			out = append(out, m)
		}
	}
	return out
}

func systemTexts(events []chat.Event) []string {
	var out []string
	for _, ev := range events {
		if s, ok := ev.(chat.SystemEvent); ok {
			out = append(out, s.Message)
		}
	}
	return out
}

func lastTyping(t *testing.T, events []chat.Event) chat.TypingEvent {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if ev, ok := events[i].(chat.TypingEvent); ok {
			return ev
		}
	}
	t.Fatal("no typing_indicator event received")
	return chat.TypingEvent{}
}

// recordingSink captures what a Connection writes.
type recordingSink struct {
	mu         sync.Mutex
	events     []chat.Event
	keepalives int
	sent       chan chat.Event
	pinged     chan struct{}
	failSend   error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		sent:   make(chan chat.Event, 64),
		pinged: make(chan struct{}, 64),
	}
}

func (s *recordingSink) Send(ev chat.Event) error {
	if s.failSend != nil {
		return s.failSend
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.sent <- ev
	return nil
}

func (s *recordingSink) Keepalive() error {
	s.mu.Lock()
	s.keepalives++
	s.mu.Unlock()
	s.pinged <- struct{}{}
	return nil
}

func (s *recordingSink) keepaliveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keepalives
}

var errTransportGone = io.ErrClosedPipe
