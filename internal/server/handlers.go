// Package server exposes HTTP handlers for the REST API, health checks, and
// the built-in test page.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Tyrowin/gochat/internal/chat"
)

var errEmptyBody = errors.New("empty request body")

// decodeBody reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded. An empty body is
// accepted when allowEmpty is set.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxMessageSize)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		err = errEmptyBody
		if allowEmpty {
			return true
		}
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.log.Warnf("Request to %s from %s exceeded maximum size of %d bytes", r.URL.Path, r.RemoteAddr, s.cfg.MaxMessageSize)
		s.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}

	s.log.Debugf("Invalid request body from %s: %v", r.RemoteAddr, err)
	s.writeError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

// HealthHandler reports server status with the online user count and the
// stored history length.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := s.hub.Stats()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Users:    stats.Users,
		Messages: stats.Messages,
	})
}

// JoinHandler registers a user and returns their id along with the recent
// broadcast history.
func (s *Server) JoinHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !s.decodeBody(w, r, &req, true) {
		return
	}

	res, err := s.hub.Join(req.Username)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	s.writeJSON(w, http.StatusOK, JoinResponse{
		UserID:   res.UserID,
		Username: res.Username,
		History:  res.History,
	})
}

// MessageHandler posts a chat message on behalf of a joined user.
func (s *Server) MessageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	if _, ok := s.hub.Lookup(req.UserID); !ok {
		s.writeError(w, http.StatusBadRequest, "Invalid user")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "Message text is required")
		return
	}

	if !s.limiters.allow(req.UserID) {
		s.log.WithField("user_id", req.UserID).Warnf("Rate limit exceeded (%d messages per %s); rejecting message",
			s.cfg.RateLimit.Burst, s.cfg.RateLimit.RefillInterval)
		s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	if err := s.hub.Dispatch(req.UserID, req.Text); err != nil {
		if errors.Is(err, chat.ErrInvalidSender) {
			s.writeError(w, http.StatusBadRequest, "Invalid user")
			return
		}
		s.log.Errorf("Dispatch failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// TypingHandler updates a user's typing state. Unknown users are ignored.
func (s *Server) TypingHandler(w http.ResponseWriter, r *http.Request) {
	var req typingRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	typing := true
	if req.IsTyping != nil {
		typing = *req.IsTyping
	}

	if err := s.hub.SetTyping(req.UserID, typing); err != nil {
		s.log.Debugf("Ignoring typing update: %v", err)
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// TestPageHandler serves an HTML page for exercising the API and the event
// stream from a browser.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		s.log.Warnf("Error writing HTML response: %v", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>GoChat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .dm { color: purple; }
        .system { color: gray; font-style: italic; }
        #typing { color: gray; height: 1.2em; }
    </style>
</head>
<body>
    <h1>GoChat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="nameInput" placeholder="Your name">
        <button id="joinButton" onclick="join()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message, or @name to whisper" disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="users"></div>
    <div id="messages"></div>
    <div id="typing"></div>

    <script>
        let userId = null;
        let stream = null;
        let typingTimer = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');

        function addLine(text, cls) {
            const el = document.createElement('div');
            el.textContent = text;
            if (cls) el.className = cls;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function render(ev) {
            switch (ev.type) {
            case 'message':
                addLine((ev.isDirectMessage ? '[DM] ' : '') + ev.sender + ': ' + ev.text, ev.isDirectMessage ? 'dm' : '');
                break;
            case 'system':
                addLine(ev.message, 'system');
                break;
            case 'user_list':
                document.getElementById('users').textContent =
                    'Online: ' + ev.users.map(u => u.username).join(', ');
                break;
            case 'typing_indicator':
                document.getElementById('typing').textContent =
                    ev.typingUsers.length ? ev.typingUsers.join(', ') + ' typing...' : '';
                break;
            }
        }

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body)
            }).then(r => r.json());
        }

        function join() {
            const username = document.getElementById('nameInput').value.trim();
            post('/api/join', { username }).then(res => {
                userId = res.userId;
                res.history.forEach(render);
                stream = new EventSource('/api/events/' + userId);
                stream.onmessage = e => render(JSON.parse(e.data));
                stream.onerror = () => {
                    statusDiv.textContent = 'Disconnected';
                    statusDiv.className = 'status disconnected';
                };
                statusDiv.textContent = 'Connected as ' + res.username;
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
            });
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && userId) {
                post('/api/message', { userId, text });
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('input', function() {
            if (!userId) return;
            if (!typingTimer) post('/api/typing', { userId, isTyping: true });
            clearTimeout(typingTimer);
            typingTimer = setTimeout(() => {
                post('/api/typing', { userId, isTyping: false });
                typingTimer = null;
            }, 2000);
        });

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
