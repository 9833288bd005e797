package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"shopchat/store"
)

type paymentEvent struct {
	Type string `json:"type"` // "payment.succeeded" or "payment.failed"
	Data struct {
		OrderNumber string  `json:"order_number"`
		PaymentID   string  `json:"payment_id"`
		Amount      float64 `json:"amount"`
		Method      string  `json:"method"`
	} `json:"data"`
}

// paymentWebhook processes payment provider callbacks. A succeeded payment
// confirms the order and clears the shopper's basket; a failed payment
// cancels the order and releases its reservation. The provider retries on
// non-2xx, so already-confirmed orders answer 200.
// POST /api/webhooks/payments
func (h *apiHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var evt paymentEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if evt.Data.OrderNumber == "" {
		writeJSONError(w, http.StatusBadRequest, "order_number is required")
		return
	}

	var status string
	switch evt.Type {
	case "payment.succeeded":
		status = "succeeded"
	case "payment.failed":
		status = "failed"
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown event type: "+evt.Type)
		return
	}

	payment := store.Payment{
		PaymentID: evt.Data.PaymentID,
		Amount:    evt.Data.Amount,
		Method:    evt.Data.Method,
		Status:    status,
	}
	if err := h.deps.Orders.RecordPayment(evt.Data.OrderNumber, payment); err != nil {
		writeJSONError(w, http.StatusNotFound, "order not found")
		return
	}

	var (
		order *store.Order
		err   error
	)
	if status == "succeeded" {
		order, err = h.deps.Orders.Confirm(evt.Data.OrderNumber)
	} else {
		order, err = h.deps.Orders.Cancel(evt.Data.OrderNumber)
	}
	if err != nil {
		// Expired orders and bad state transitions are permanent failures;
		// a 422 tells the provider not to retry.
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.Info("payment webhook processed",
		"order", order.Number, "event", evt.Type, "status", order.Status)
	h.deps.EventBus.Broadcast("order_" + order.Status)

	writeJSON(w, http.StatusOK, map[string]any{
		"order_number": order.Number,
		"status":       order.Status,
	})
}
