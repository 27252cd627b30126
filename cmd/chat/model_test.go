package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tyrowin/gochat/internal/client"
)

type fakeSession struct {
	mu     sync.Mutex
	sent   []string
	typing []bool
	closed bool
}

func (f *fakeSession) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSession) SetTyping(_ context.Context, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, typing)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// joinedModel returns a model already in the chat screen as Alice.
func joinedModel(t *testing.T, conn *fakeSession, history ...client.Frame) model {
	t.Helper()
	m := newModel(client.New("http://localhost:3003"), "")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	frames := make(chan client.Frame)
	updated, _ = updated.Update(joinedMsg{
		res:    &client.JoinResponse{UserID: "alice-id", Username: "Alice", History: history},
		stream: conn,
		frames: frames,
	})
	return updated.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(model), cmd
}

// runCmd executes cmd and any batched commands, skipping ticks and
// blocking reads that would not return in a test.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				runCmd(c)
			}
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinRendersHistory(t *testing.T) {
	conn := &fakeSession{}
	m := joinedModel(t, conn,
		client.Frame{Type: client.TypeMessage, Text: "earlier", Sender: "Bob", UserID: "bob-id"},
	)

	if m.state != stateChat || m.me != "Alice" {
		t.Fatalf("expected chat screen as Alice, got state %v as %q", m.state, m.me)
	}
	if len(m.chatLines) != 1 || !strings.Contains(m.chatLines[0], "earlier") {
		t.Errorf("expected history line, got %v", m.chatLines)
	}
}

func TestHandleFrames(t *testing.T) {
	m := joinedModel(t, &fakeSession{})

	m, _ = update(t, m, frameMsg(client.Frame{Type: client.TypeSystem, Message: "Bob joined the chat"}))
	m, _ = update(t, m, frameMsg(client.Frame{
		Type:  client.TypeUserList,
		Users: []client.Presence{{UserID: "alice-id", Username: "Alice"}, {UserID: "bob-id", Username: "Bob"}},
	}))
	m, _ = update(t, m, frameMsg(client.Frame{Type: client.TypeTypingIndicator, TypingUsers: []string{"Alice", "Bob"}}))

	recipient := "Alice"
	m, _ = update(t, m, frameMsg(client.Frame{
		Type: client.TypeMessage, Text: "@Alice psst", Sender: "Bob", UserID: "bob-id",
		IsDirectMessage: true, Recipient: &recipient,
	}))

	if m.online != 2 {
		t.Errorf("expected 2 online, got %d", m.online)
	}
	if got := m.typingLine(); got != "Bob is typing…" {
		t.Errorf("expected only Bob in the typing line, got %q", got)
	}
	if len(m.chatLines) != 2 {
		t.Fatalf("expected 2 chat lines, got %d", len(m.chatLines))
	}
	if !strings.Contains(m.chatLines[0], "Bob joined the chat") {
		t.Errorf("unexpected system line %q", m.chatLines[0])
	}
	if !strings.Contains(m.chatLines[1], "[DM]") || !strings.Contains(m.chatLines[1], "psst") {
		t.Errorf("unexpected direct message line %q", m.chatLines[1])
	}
}

// TestTypingAndSend verifies the first keystroke signals typing once and
// Enter sends the trimmed text.
func TestTypingAndSend(t *testing.T) {
	conn := &fakeSession{}
	m := joinedModel(t, conn)

	var cmd tea.Cmd
	for _, r := range "hi" {
		m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		runCmd(cmd)
	}
	if !m.typing {
		t.Fatal("expected typing after keystrokes")
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.typing) != 1 || !conn.typing[0] {
		t.Errorf("expected a single typing signal, got %v", conn.typing)
	}
	if len(conn.sent) != 1 || conn.sent[0] != "hi" {
		t.Errorf("expected to send %q, got %v", "hi", conn.sent)
	}
	if m.typing || m.chatInput.Value() != "" {
		t.Errorf("expected input reset and typing cleared, got typing=%v input=%q", m.typing, m.chatInput.Value())
	}
}

func TestTypingIdle(t *testing.T) {
	conn := &fakeSession{}
	m := joinedModel(t, conn)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	stale := m.typingSeq
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})

	m, cmd := update(t, m, typingIdleMsg{seq: stale})
	if cmd != nil || !m.typing {
		t.Fatal("a stale idle tick must not stop typing")
	}

	m, cmd = update(t, m, typingIdleMsg{seq: m.typingSeq})
	runCmd(cmd)
	if m.typing {
		t.Fatal("expected typing to stop after the idle tick")
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if n := len(conn.typing); n == 0 || conn.typing[n-1] {
		t.Errorf("expected a stop typing signal, got %v", conn.typing)
	}
}

func TestQuitClosesStream(t *testing.T) {
	conn := &fakeSession{}
	m := joinedModel(t, conn)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !conn.closed {
		t.Error("expected the stream to be closed")
	}
}
