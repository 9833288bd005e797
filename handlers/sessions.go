package handlers

import (
	"log/slog"
	"net/http"

	"shopchat/session"
)

// createSession mints a new anonymous shopper session and its signed token.
// POST /api/sessions
func (h *apiHandler) createSession(w http.ResponseWriter, r *http.Request) {
	sessionID := session.NewSessionID()
	token, err := h.deps.Tokens.Issue(sessionID)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sessionID,
		"token":      token,
	})
}
