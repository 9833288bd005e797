package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shopchat/router"
	"shopchat/session"
	"shopchat/store"
)

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Router        *router.Router
	Conversations *session.Store
	Tokens        *session.Issuer
	Catalog       *store.Catalog
	Baskets       *store.BasketStore
	Orders        *store.OrderStore

	// EventBus broadcasts store-wide events (catalog reloads, order updates)
	// to /api/events subscribers.
	EventBus *EventBus
}

// RegisterRoutes registers all /api/ routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.EventBus == nil {
		deps.EventBus = NewEventBus()
	}

	h := &apiHandler{deps: deps}

	mux.HandleFunc("POST /api/sessions", h.createSession)

	mux.HandleFunc("POST /api/conversations", h.createConversation)
	mux.HandleFunc("GET /api/conversations/{id}", h.getConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.deleteConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", h.postMessage)

	mux.HandleFunc("GET /api/ws", h.chatSocket)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/basket", h.getBasket)
	mux.HandleFunc("GET /api/orders/{number}", h.getOrder)

	mux.HandleFunc("POST /api/webhooks/payments", h.paymentWebhook)

	mux.HandleFunc("GET /api/events", h.storeEvents)
}

type apiHandler struct {
	deps *Deps
}

// resolveSession extracts and verifies the bearer session token. An empty
// string means the request carried no valid session.
func (h *apiHandler) resolveSession(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return ""
	}
	sessionID, err := h.deps.Tokens.Verify(token)
	if err != nil {
		return ""
	}
	return sessionID
}

// requireSession resolves the session or writes a 401.
func (h *apiHandler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := h.resolveSession(r)
	if sessionID == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid session token")
		return "", false
	}
	return sessionID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
