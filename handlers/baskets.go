package handlers

import "net/http"

// getBasket returns the caller's basket.
// GET /api/basket
func (h *apiHandler) getBasket(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Baskets.Get(sessionID))
}

// getOrder returns one of the caller's orders by order number.
// GET /api/orders/{number}
func (h *apiHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	o, err := h.deps.Orders.Get(r.PathValue("number"))
	if err != nil || o.SessionID != sessionID {
		writeJSONError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}
