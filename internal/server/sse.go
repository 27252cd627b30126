package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tyrowin/gochat/internal/chat"
)

// sseSink writes events as Server-Sent Events frames.
type sseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (s *sseSink) Send(ev chat.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseSink) Keepalive() error {
	if _, err := io.WriteString(s.w, ": keepalive\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// EventsHandler attaches a text/event-stream for a joined user. The stream
// lasts until the client goes away, at which point the user is
// disconnected.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	conn, err := s.hub.Attach(userID)
	if err != nil {
		s.log.Debugf("Rejected event stream: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	rc := http.NewResponseController(w)
	// The server's WriteTimeout would otherwise cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.log.Warnf("Error clearing write deadline for %s: %v", r.RemoteAddr, err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warnf("Error flushing event stream headers for %s: %v", r.RemoteAddr, err)
	}

	log := s.log.WithField("user_id", userID)
	log.Infof("Event stream opened from %s", r.RemoteAddr)

	err = conn.Serve(r.Context(), &sseSink{w: w, rc: rc})
	s.limiters.forget(userID)

	if err != nil && !isExpectedCloseError(err) {
		log.Warnf("Event stream from %s ended with error: %v", r.RemoteAddr, err)
		return
	}
	log.Infof("Event stream from %s closed", r.RemoteAddr)
}
