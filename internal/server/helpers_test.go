package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyrowin/gochat/internal/server"
	"github.com/Tyrowin/gochat/internal/testhelpers"
)

const eventTimeout = 2 * time.Second

// newTestServer starts the full route table over a fresh chat server.
func newTestServer(t *testing.T, customize func(cfg *server.Config)) (*server.Server, *httptest.Server) {
	t.Helper()
	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}
	s := server.New(cfg, testhelpers.NullLogger())
	ts := testhelpers.CreateTestServer(t, server.SetupRoutes(s))
	return s, ts
}

func joinUser(t *testing.T, baseURL, name string) server.JoinResponse {
	t.Helper()
	resp := testhelpers.PostJSON(t, baseURL+"/api/join", map[string]string{"username": name})
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	var joined server.JoinResponse
	testhelpers.DecodeJSON(t, resp, &joined)
	if joined.UserID == "" {
		t.Fatalf("join for %q returned no user id", name)
	}
	return joined
}

func postMessage(t *testing.T, baseURL, userID, text string) *http.Response {
	t.Helper()
	return testhelpers.PostJSON(t, baseURL+"/api/message", map[string]string{"userId": userID, "text": text})
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body server.ErrorResponse
	testhelpers.DecodeJSON(t, resp, &body)
	return body.Error
}

// waitForEvent reads the stream until an event matches, skipping the rest.
func waitForEvent(t *testing.T, stream *testhelpers.EventStream, match func(map[string]any) bool) map[string]any {
	t.Helper()
	deadline := time.Now().Add(eventTimeout)
	for time.Now().Before(deadline) {
		event := stream.NextEvent(t, time.Until(deadline))
		if match(event) {
			return event
		}
	}
	t.Fatalf("no matching event within %s", eventTimeout)
	return nil
}

func isSystem(text string) func(map[string]any) bool {
	return func(ev map[string]any) bool {
		return ev["type"] == "system" && ev["message"] == text
	}
}

func isMessage(text string) func(map[string]any) bool {
	return func(ev map[string]any) bool {
		return ev["type"] == "message" && ev["text"] == text
	}
}

// eventually polls cond until it holds or the timeout passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(eventTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", eventTimeout, msg)
}
