package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shopchat/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect cross-origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

type wsInbound struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// socketWriter serializes writes to one connection; the chunk emitter and
// the ping loop write concurrently.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socketWriter) sendJSON(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(v); err != nil {
		slog.Warn("websocket write error", "error", err)
	}
}

func (s *socketWriter) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// chatSocket upgrades to a websocket and runs conversational turns over it.
// Each inbound frame is one user message; chunks stream back as JSON frames,
// the same shapes the SSE endpoint sends. The session token arrives as a
// query parameter because browsers cannot set headers on websocket upgrades.
// GET /api/ws?token=...
func (h *apiHandler) chatSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	sessionID, err := h.deps.Tokens.Verify(token)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid session token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	out := &socketWriter{conn: conn}
	stop := make(chan struct{})
	defer close(stop)
	go pingLoop(out, stop)

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		h.runSocketTurn(r, out, sessionID, in)
	}
}

// runSocketTurn executes one turn and writes each chunk as a JSON frame.
func (h *apiHandler) runSocketTurn(r *http.Request, out *socketWriter, sessionID string, in wsInbound) {
	conv := h.deps.Conversations.Get(in.ConversationID)
	if conv == nil || conv.SessionID != sessionID {
		out.sendJSON(map[string]any{"type": "error", "error": "conversation not found", "done": true})
		return
	}
	if in.Content == "" {
		out.sendJSON(map[string]any{"type": "error", "error": "content must not be empty", "done": true})
		return
	}

	tc := &agent.TurnContext{
		SessionID:      sessionID,
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	}

	h.deps.Router.RouteStream(r.Context(), in.Content, tc, func(c agent.Chunk) {
		out.sendJSON(c)
	})

	h.deps.Conversations.SaveMessages(conv.ID, tc.Messages)
}

func pingLoop(out *socketWriter, stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
