package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestOriginPolicy(t *testing.T) {
	logger, hook := test.NewNullLogger()
	policy := newOriginPolicy([]string{" HTTP://Allowed.Example ", "not-a-url", "", "https://second.example:8443"}, logger)

	if len(hook.Entries) != 1 {
		t.Errorf("expected one warning for the invalid origin, got %d", len(hook.Entries))
	}

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://allowed.example", true},
		{"http://ALLOWED.example", true},
		{"https://allowed.example", false},
		{"https://second.example:8443", true},
		{"https://second.example", false},
		{"http://evil.example", false},
		{"://broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := policy.isAllowed(tt.origin); got != tt.allowed {
				t.Errorf("isAllowed(%q) = %v, want %v", tt.origin, got, tt.allowed)
			}
		})
	}
}

func TestOriginPolicyWildcard(t *testing.T) {
	logger, _ := test.NewNullLogger()
	policy := newOriginPolicy([]string{"*"}, logger)

	if !policy.isAllowed("http://anything.example") {
		t.Error("wildcard should allow every origin")
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	logger, hook := test.NewNullLogger()
	policy := newOriginPolicy([]string{"http://allowed.example"}, logger)

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"no origin header", "", true},
		{"allowed origin", "http://allowed.example", true},
		{"disallowed origin", "http://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws/someone", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := policy.checkWebSocketOrigin(req); got != tt.allowed {
				t.Errorf("checkWebSocketOrigin with %q = %v, want %v", tt.origin, got, tt.allowed)
			}
		})
	}

	if last := hook.LastEntry(); last == nil || last.Message == "" {
		t.Error("expected the blocked origin to be logged")
	}
}

// TestCORSMiddleware verifies response headers for simple and preflight
// requests.
func TestCORSMiddleware(t *testing.T) {
	logger, _ := test.NewNullLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("explicit origin", func(t *testing.T) {
		handler := newOriginPolicy([]string{"http://allowed.example"}, logger).middleware(next)

		req := httptest.NewRequest(http.MethodPost, "/api/message", http.NoBody)
		req.Header.Set("Origin", "http://allowed.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusTeapot {
			t.Errorf("expected the wrapped handler to run, got %d", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
			t.Errorf("unexpected Access-Control-Allow-Origin %q", got)
		}
		if got := rr.Header().Get("Vary"); got != "Origin" {
			t.Errorf("expected Vary: Origin, got %q", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		handler := newOriginPolicy([]string{"http://allowed.example"}, logger).middleware(next)

		req := httptest.NewRequest(http.MethodPost, "/api/message", http.NoBody)
		req.Header.Set("Origin", "http://evil.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		handler := newOriginPolicy([]string{"*"}, logger).middleware(next)

		req := httptest.NewRequest(http.MethodOptions, "/api/join", http.NoBody)
		req.Header.Set("Origin", "http://anywhere.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard origin, got %q", got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("unexpected Access-Control-Allow-Headers %q", got)
		}
	})
}
