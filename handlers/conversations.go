package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shopchat/agent"
	"shopchat/sse"
)

// createConversation starts a new conversation bound to the caller's session.
// POST /api/conversations
func (h *apiHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	conv := h.deps.Conversations.Create(sessionID)
	writeJSON(w, http.StatusCreated, conv)
}

// getConversation returns a conversation with its full message log.
// GET /api/conversations/{id}
func (h *apiHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	conv := h.deps.Conversations.Get(r.PathValue("id"))
	if conv == nil || conv.SessionID != sessionID {
		writeJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// deleteConversation removes a conversation.
// DELETE /api/conversations/{id}
func (h *apiHandler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	conv := h.deps.Conversations.Get(r.PathValue("id"))
	if conv == nil || conv.SessionID != sessionID {
		writeJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	h.deps.Conversations.Delete(conv.ID)
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Content string `json:"content"`
}

// postMessage runs one conversational turn and streams the chunks back over
// SSE. The conversation's message log is persisted once the turn completes.
// POST /api/conversations/{id}/messages
func (h *apiHandler) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	conv := h.deps.Conversations.Get(r.PathValue("id"))
	if conv == nil || conv.SessionID != sessionID {
		writeJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}

	// All validation happens before this point: NewWriter commits a 200.
	sseWriter := sse.NewWriter(w)
	if sseWriter == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	tc := &agent.TurnContext{
		SessionID:      sessionID,
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	}

	h.deps.Router.RouteStream(r.Context(), content, tc, func(c agent.Chunk) {
		sseWriter.SendChunk(c)
	})

	h.deps.Conversations.SaveMessages(conv.ID, tc.Messages)
}
