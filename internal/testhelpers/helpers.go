// Package testhelpers provides common utilities and helper functions for testing the GoChat server.
//
// It provides functions for creating test servers, making HTTP requests,
// reading event streams and asserting response properties to reduce code
// duplication in test files.
package testhelpers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// NullLogger returns a logger that discards output, for handing to
// components under test.
func NullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

// CreateTestServer creates a test HTTP server with the given handler.
// The server is closed when the test ends.
func CreateTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// PostJSON sends body as JSON to url. A string body is sent verbatim.
func PostJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var payload []byte
	switch v := body.(type) {
	case string:
		payload = []byte(v)
	default:
		var err error
		if payload, err = json.Marshal(v); err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Failed to post to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection, the handshake response and any dial error.
func ConnectWebSocket(url string, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// WebSocketURL rewrites an http test server URL to the ws scheme.
func WebSocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// ReceiveEvent reads one JSON event from the WebSocket connection.
func ReceiveEvent(conn *websocket.Conn, timeout time.Duration) (map[string]any, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	var event map[string]any
	err := conn.ReadJSON(&event)
	return event, err
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// EventStream reads a text/event-stream body frame by frame.
type EventStream struct {
	body   io.ReadCloser
	frames chan Frame
}

// Frame is one SSE frame. Data is empty for comment frames.
type Frame struct {
	Data    string
	Comment string
}

// OpenEventStream issues a GET against url and starts reading frames.
// The stream is closed when the test ends.
func OpenEventStream(t *testing.T, url string) (*EventStream, *http.Response) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to open event stream: %v", err)
	}
	s := &EventStream{body: resp.Body, frames: make(chan Frame, 64)}
	t.Cleanup(s.Close)
	if resp.StatusCode == http.StatusOK {
		go s.read()
	} else {
		close(s.frames)
	}
	return s, resp
}

func (s *EventStream) read() {
	defer close(s.frames)

	scanner := bufio.NewScanner(s.body)
	var frame Frame
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if frame != (Frame{}) {
				s.frames <- frame
			}
			frame = Frame{}
		case strings.HasPrefix(line, "data: "):
			frame.Data += strings.TrimPrefix(line, "data: ")
		case strings.HasPrefix(line, ":"):
			frame.Comment = strings.TrimSpace(strings.TrimPrefix(line, ":"))
		}
	}
}

// Next returns the next frame, failing the test after timeout.
func (s *EventStream) Next(t *testing.T, timeout time.Duration) Frame {
	t.Helper()
	select {
	case frame, ok := <-s.frames:
		if !ok {
			t.Fatalf("Event stream ended unexpectedly")
		}
		return frame
	case <-time.After(timeout):
		t.Fatalf("Timed out after %s waiting for an event frame", timeout)
	}
	return Frame{}
}

// NextEvent skips comment frames and decodes the next data frame.
func (s *EventStream) NextEvent(t *testing.T, timeout time.Duration) map[string]any {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		frame := s.Next(t, time.Until(deadline))
		if frame.Data == "" {
			continue
		}
		var event map[string]any
		if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
			t.Fatalf("Failed to decode event %q: %v", frame.Data, err)
		}
		return event
	}
}

// WaitClosed waits for the server to end the stream.
func (s *EventStream) WaitClosed(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-s.frames:
			if !ok {
				return nil
			}
		case <-timer.C:
			return errors.New("event stream still open")
		}
	}
}

// Close closes the response body, which ends the stream client side.
func (s *EventStream) Close() {
	_ = s.body.Close()
}

// AssertEventType checks the discriminator of a decoded event.
func AssertEventType(t *testing.T, event map[string]any, expected string) {
	t.Helper()
	if got, _ := event["type"].(string); got != expected {
		t.Errorf("Expected event type %q, got %q (%v)", expected, got, event)
	}
}
