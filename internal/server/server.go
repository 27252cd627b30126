// Package server wires the chat hub to its HTTP surface: the REST API, the
// Server-Sent Events stream and the WebSocket stream.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/gochat/internal/chat"
)

// Server owns the chat hub and the per-user state of the HTTP transports.
type Server struct {
	cfg      Config
	hub      *chat.Hub
	log      logrus.FieldLogger
	origins  *originPolicy
	limiters *limiterSet
	upgrader websocket.Upgrader
}

// New creates a Server from cfg. A nil cfg uses the defaults and a nil
// logger uses one built from cfg.
func New(cfg *Config, logger logrus.FieldLogger) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := sanitizeConfig(*cfg)
	if logger == nil {
		logger = NewLogger(sanitized)
	}

	s := &Server{
		cfg: sanitized,
		hub: chat.NewHub(chat.Options{
			HistoryLimit:      sanitized.HistoryLimit,
			KeepaliveInterval: sanitized.KeepaliveInterval,
			Logger:            logger,
		}),
		log:      logger,
		origins:  newOriginPolicy(sanitized.AllowedOrigins, logger),
		limiters: newLimiterSet(sanitized.RateLimit),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkWebSocketOrigin,
	}
	return s
}

// Hub returns the chat hub served by s.
func (s *Server) Hub() *chat.Hub {
	return s.hub
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config {
	cfg := s.cfg
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// Shutdown ends every open stream and stops accepting joins.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hub.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnf("Error writing JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
