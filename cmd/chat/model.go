package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tyrowin/gochat/internal/client"
)

const (
	requestTimeout = 10 * time.Second
	typingIdle     = 2 * time.Second
)

var (
	purple = lipgloss.Color("99")
	cyan   = lipgloss.Color("86")
	red    = lipgloss.Color("196")
	yellow = lipgloss.Color("220")
	gray   = lipgloss.Color("241")
	white  = lipgloss.Color("255")
	orange = lipgloss.Color("214")
	blue   = lipgloss.Color("75")
	pink   = lipgloss.Color("205")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(purple).
			Foreground(white).
			Padding(0, 1)

	footerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(gray).
				Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(purple).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Width(10)

	hintStyle = lipgloss.NewStyle().
			Foreground(gray).
			Italic(true)

	errorStyle  = lipgloss.NewStyle().Foreground(red)
	sysStyle    = lipgloss.NewStyle().Foreground(yellow).Italic(true)
	tsStyle     = lipgloss.NewStyle().Foreground(gray)
	myNameStyle = lipgloss.NewStyle().Bold(true).Foreground(orange)
	peerStyle   = lipgloss.NewStyle().Bold(true).Foreground(blue)
	dmStyle     = lipgloss.NewStyle().Foreground(pink)
)

// session is the open stream used for writing once joined.
type session interface {
	Send(ctx context.Context, text string) error
	SetTyping(ctx context.Context, typing bool) error
	Close() error
}

type joinedMsg struct {
	res    *client.JoinResponse
	stream session
	frames <-chan client.Frame
}

type frameMsg client.Frame
type disconnectedMsg struct{}
type errMsg struct{ err error }

// typingIdleMsg fires after a quiet period; seq ties it to the keystroke
// that scheduled it.
type typingIdleMsg struct{ seq int }

type appState int

const (
	stateLogin appState = iota
	stateChat
)

type model struct {
	api    *client.Client
	conn   session
	frames <-chan client.Frame

	state     appState
	me        string
	userID    string
	nameInput textinput.Model
	statusMsg string

	ready     bool
	viewport  viewport.Model
	chatInput textinput.Model
	chatLines []string
	online    int
	typers    []string

	typing    bool
	typingSeq int

	width, height int
}

func newModel(api *client.Client, name string) model {
	ni := textinput.New()
	ni.Placeholder = "your name"
	ni.Focus()
	ni.CharLimit = 32
	ni.Width = 32
	ni.SetValue(name)

	ci := textinput.New()
	ci.Placeholder = "Type a message, or @name to whisper…"
	ci.CharLimit = 500

	return model{
		api:       api,
		state:     stateLogin,
		nameInput: ni,
		chatInput: ci,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.vpHeight())
			m.viewport.SetContent(strings.Join(m.chatLines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.vpHeight()
		}
		m.chatInput.Width = msg.Width - 4
		return m, nil

	case joinedMsg:
		m.state = stateChat
		m.me = msg.res.Username
		m.userID = msg.res.UserID
		m.conn = msg.stream
		m.frames = msg.frames
		m.statusMsg = ""
		m.nameInput.Blur()
		m.chatInput.Focus()
		for _, f := range msg.res.History {
			m.appendChat(m.renderMessage(f))
		}
		return m, tea.Batch(textinput.Blink, waitForFrame(m.frames))

	case frameMsg:
		m.handleFrame(client.Frame(msg))
		return m, waitForFrame(m.frames)

	case typingIdleMsg:
		if msg.seq == m.typingSeq && m.typing {
			m.typing = false
			return m, m.setTyping(false)
		}
		return m, nil

	case errMsg:
		if m.state == stateLogin {
			m.statusMsg = msg.err.Error()
		} else {
			m.appendChat(errorStyle.Render("⚠ " + msg.err.Error()))
		}
		return m, nil

	case disconnectedMsg:
		m.appendChat(errorStyle.Render("⚠ disconnected from server"))
		return m, tea.Quit

	case tea.KeyMsg:
		switch m.state {
		case stateLogin:
			return m.handleLoginKey(msg)
		case stateChat:
			return m.handleChatKey(msg)
		}
	}
	return m, nil
}

// vpHeight returns the number of lines available for the chat viewport.
func (m model) vpHeight() int {
	// header, typing line, footer border and footer input
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m model) handleLoginKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		m.statusMsg = "Joining…"
		return m, joinCmd(m.api, strings.TrimSpace(m.nameInput.Value()))
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m model) handleChatKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return m, tea.Quit

	case tea.KeyEnter:
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" {
			return m, nil
		}
		m.chatInput.Reset()
		// The server clears the typing flag on every message.
		m.typing = false
		m.typingSeq++
		return m, m.send(text)

	case tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return m, nil
	}

	before := m.chatInput.Value()
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	if m.chatInput.Value() == before {
		return m, cmd
	}

	m.typingSeq++
	cmds := []tea.Cmd{cmd, typingIdleCmd(m.typingSeq)}
	if !m.typing {
		m.typing = true
		cmds = append(cmds, m.setTyping(true))
	}
	return m, tea.Batch(cmds...)
}

func (m *model) handleFrame(f client.Frame) {
	switch f.Type {
	case client.TypeMessage:
		m.appendChat(m.renderMessage(f))
	case client.TypeSystem:
		m.appendChat(sysStyle.Render("⚡ " + f.Message))
	case client.TypeUserList:
		m.online = len(f.Users)
	case client.TypeTypingIndicator:
		typers := make([]string, 0, len(f.TypingUsers))
		for _, name := range f.TypingUsers {
			if name != m.me {
				typers = append(typers, name)
			}
		}
		m.typers = typers
	}
}

func (m model) renderMessage(f client.Frame) string {
	ts := tsStyle.Render("[" + f.Timestamp.Local().Format("15:04:05") + "]")
	var name string
	if f.UserID == m.userID {
		name = myNameStyle.Render(f.Sender)
	} else {
		name = peerStyle.Render(f.Sender)
	}
	line := ts + " " + name + ": " + f.Text
	if f.IsDirectMessage {
		line = dmStyle.Render("[DM] ") + line
	}
	return line
}

// appendChat adds a rendered line and scrolls the viewport to the bottom.
func (m *model) appendChat(line string) {
	m.chatLines = append(m.chatLines, line)
	if m.ready {
		m.viewport.SetContent(strings.Join(m.chatLines, "\n"))
		m.viewport.GotoBottom()
	}
}

func (m model) typingLine() string {
	switch len(m.typers) {
	case 0:
		return ""
	case 1:
		return m.typers[0] + " is typing…"
	default:
		return strings.Join(m.typers, ", ") + " are typing…"
	}
}

func (m model) View() string {
	switch m.state {
	case stateLogin:
		return m.viewLogin()
	case stateChat:
		return m.viewChat()
	}
	return ""
}

func (m model) viewLogin() string {
	if m.width == 0 {
		return "\n  Starting…"
	}

	status := ""
	if m.statusMsg != "" {
		if strings.HasPrefix(m.statusMsg, "Joining") {
			status = hintStyle.Render(m.statusMsg)
		} else {
			status = errorStyle.Render(m.statusMsg)
		}
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("  GoChat Terminal  "),
		"",
		labelStyle.Render("Name")+"  "+m.nameInput.View(),
		"",
		hintStyle.Render("Enter: join (empty joins as Anonymous)   Esc: quit"),
		"",
		status,
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

func (m model) viewChat() string {
	if !m.ready {
		return "\n  Connecting…"
	}

	hdr := headerStyle.
		Width(m.width).
		Render(fmt.Sprintf(" GoChat  ·  %s  ·  %d online  ·  PgUp/Dn: Scroll  Ctrl+C: Quit", m.me, m.online))

	footer := footerBorderStyle.
		Width(m.width - 2).
		Render(m.chatInput.View())

	return lipgloss.JoinVertical(lipgloss.Left, hdr, m.viewport.View(), hintStyle.Render(m.typingLine()), footer)
}

func (m model) send(text string) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := conn.Send(ctx, text); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m model) setTyping(typing bool) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := conn.SetTyping(ctx, typing); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func typingIdleCmd(seq int) tea.Cmd {
	return tea.Tick(typingIdle, func(time.Time) tea.Msg {
		return typingIdleMsg{seq: seq}
	})
}

// joinCmd registers the user and opens the stream. Frames are pumped into
// a channel that the event loop drains through waitForFrame.
func joinCmd(api *client.Client, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := api.Join(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		stream, err := api.Stream(ctx, res.UserID)
		if err != nil {
			return errMsg{err}
		}

		frames := make(chan client.Frame, 64)
		go func() {
			defer close(frames)
			for {
				f, err := stream.Next(context.Background())
				if err != nil {
					return
				}
				frames <- f
			}
		}()
		return joinedMsg{res: res, stream: stream, frames: frames}
	}
}

// waitForFrame blocks until the next frame arrives on ch. When ch is closed
// it returns disconnectedMsg.
func waitForFrame(ch <-chan client.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg(f)
	}
}
