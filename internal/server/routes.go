// Package server wires HTTP handlers into a ServeMux for the GoChat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures the application routes for s and wraps them with
// the CORS policy.
func SetupRoutes(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.HealthHandler)
	mux.HandleFunc("POST /api/join", s.JoinHandler)
	mux.HandleFunc("POST /api/message", s.MessageHandler)
	mux.HandleFunc("POST /api/typing", s.TypingHandler)
	mux.HandleFunc("GET /api/events/{userId}", s.EventsHandler)
	mux.HandleFunc("GET /api/ws/{userId}", s.WebSocketHandler)
	mux.HandleFunc("GET /test", s.TestPageHandler)
	return s.origins.middleware(mux)
}
