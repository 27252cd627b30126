package client

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// Stream is an open WebSocket event stream. Next must be called by a
// single goroutine; Send and SetTyping may be called concurrently with it.
type Stream struct {
	ws *websocket.Conn
}

func newStream(ws *websocket.Conn) *Stream {
	return &Stream{ws: ws}
}

// Next blocks for the next event. It returns io.EOF once the server has
// closed the stream.
func (s *Stream) Next(ctx context.Context) (Frame, error) {
	var frame Frame
	if err := wsjson.Read(ctx, s.ws, &frame); err != nil {
		if isExpectedDisconnect(err) {
			return Frame{}, io.EOF
		}
		return Frame{}, err
	}
	return frame, nil
}

// Send posts text over the socket.
func (s *Stream) Send(ctx context.Context, text string) error {
	return s.write(ctx, inboundFrame{Type: "message", Text: text})
}

// SetTyping updates the typing flag over the socket.
func (s *Stream) SetTyping(ctx context.Context, typing bool) error {
	if typing {
		return s.write(ctx, inboundFrame{Type: "typing"})
	}
	return s.write(ctx, inboundFrame{Type: "stop_typing"})
}

// Close ends the stream, which disconnects the user.
func (s *Stream) Close() error {
	return s.ws.Close(websocket.StatusNormalClosure, "client close")
}

func (s *Stream) write(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.ws, v)
}

func isExpectedDisconnect(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
