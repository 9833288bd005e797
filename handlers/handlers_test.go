package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopchat/agent"
	"shopchat/agents"
	"shopchat/llm"
	"shopchat/router"
	"shopchat/session"
	"shopchat/store"
)

// scriptedClient replays a fixed response sequence, one per provider call.
type scriptedClient struct {
	responses []llm.Response
	calls     int
}

func (c *scriptedClient) next() llm.Response {
	resp := c.responses[len(c.responses)-1]
	if c.calls < len(c.responses) {
		resp = c.responses[c.calls]
	}
	c.calls++
	return resp
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp := c.next()
	return &resp, nil
}

func (c *scriptedClient) Stream(ctx context.Context, req llm.Request, ch chan<- llm.Delta) error {
	defer close(ch)
	resp := c.next()
	if resp.Content != "" {
		ch <- llm.Delta{Content: resp.Content}
	}
	for i, tc := range resp.ToolCalls {
		ch <- llm.Delta{ToolCalls: []llm.ToolCallDelta{
			{Index: i, ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments},
		}}
	}
	finish := resp.FinishReason
	if finish == "" {
		finish = llm.FinishStop
	}
	ch <- llm.Delta{FinishReason: finish}
	return nil
}

// testServer builds the full handler stack over a scripted provider.
func testServer(t *testing.T, client llm.Client) (*httptest.Server, *Deps) {
	t.Helper()

	catalog := store.NewCatalog()
	catalog.Replace([]store.Product{
		{ID: 1, Name: "Red Shirt", Description: "A cotton shirt", Price: 19.99,
			Category: "clothing", Inventory: 10},
	})
	baskets := store.NewBasketStore(catalog)
	orders := store.NewOrderStore(catalog, baskets)

	conversations := session.NewStore(time.Hour)
	t.Cleanup(conversations.Close)

	if client == nil {
		client = &scriptedClient{responses: []llm.Response{
			{Content: "general_conversation", FinishReason: llm.FinishStop},
		}}
	}
	opts := agents.Options{Client: client, Model: "m"}
	rt := router.New(
		router.NewClassifier(client, "m"),
		agents.NewCartAgent(opts, baskets, orders),
		agents.NewProductSearchAgent(opts, catalog),
		agents.NewGeneralAgent(opts),
	)

	deps := &Deps{
		Router:        rt,
		Conversations: conversations,
		Tokens:        session.NewIssuer("test-secret", time.Hour),
		Catalog:       catalog,
		Baskets:       baskets,
		Orders:        orders,
		EventBus:      NewEventBus(),
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, deps
}

func createSession(t *testing.T, srv *httptest.Server) (string, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.SessionID == "" || body.Token == "" {
		t.Fatalf("incomplete session response %+v", body)
	}
	return body.SessionID, body.Token
}

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestConversationLifecycle(t *testing.T) {
	srv, _ := testServer(t, nil)
	_, token := createSession(t, srv)

	// Create.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var conv session.Conversation
	json.NewDecoder(resp.Body).Decode(&conv)
	resp.Body.Close()
	if conv.ID == "" {
		t.Fatal("expected conversation id")
	}

	// Show.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/conversations/"+conv.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("show: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/conversations/"+conv.ID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/conversations/"+conv.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConversationRequiresSession(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/conversations", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConversationIsolatedAcrossSessions(t *testing.T) {
	srv, _ := testServer(t, nil)
	_, tokenA := createSession(t, srv)
	_, tokenB := createSession(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", tokenA, nil)
	var conv session.Conversation
	json.NewDecoder(resp.Body).Decode(&conv)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/conversations/"+conv.ID, tokenB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign session must get 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data map[string]any
}

func readSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var events []sseEvent
	scanner := bufio.NewScanner(resp.Body)
	var current sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err != nil {
				t.Fatalf("bad SSE data %q: %v", line, err)
			}
			current.data = data
		case line == "":
			if current.name != "" || current.data != nil {
				events = append(events, current)
				current = sseEvent{}
			}
		}
	}
	return events
}

func TestPostMessageStreamsChunks(t *testing.T) {
	// First call classifies, the rest run the general agent.
	client := &scriptedClient{responses: []llm.Response{
		{Content: "general_conversation", FinishReason: llm.FinishStop},
		{Content: "Hello! How can I help?", FinishReason: llm.FinishStop},
	}}
	srv, deps := testServer(t, client)
	_, token := createSession(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, nil)
	var conv session.Conversation
	json.NewDecoder(resp.Body).Decode(&conv)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/conversations/"+conv.ID+"/messages",
		token, map[string]string{"content": "hi"})
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE response, got %q", ct)
	}

	events := readSSE(t, resp)
	if len(events) < 3 {
		t.Fatalf("expected agent_selected, content, done; got %+v", events)
	}
	if events[0].name != agent.ChunkAgentSelected || events[0].data["agent_type"] != "general" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	last := events[len(events)-1]
	if last.name != agent.ChunkDone || last.data["done"] != true {
		t.Fatalf("unexpected terminal event %+v", last)
	}
	if last.data["content"] != "Hello! How can I help?" {
		t.Fatalf("unexpected done content %+v", last.data)
	}

	// The turn log was persisted: user message plus assistant reply.
	stored := deps.Conversations.Get(conv.ID)
	if len(stored.Messages) != 2 {
		t.Fatalf("expected persisted log of 2, got %d", len(stored.Messages))
	}
	if stored.Messages[0].Role != agent.RoleUser || stored.Messages[0].Content != "hi" {
		t.Fatalf("unexpected first stored message %+v", stored.Messages[0])
	}
}

func TestPostMessageValidation(t *testing.T) {
	srv, _ := testServer(t, nil)
	_, token := createSession(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/conversations", token, nil)
	var conv session.Conversation
	json.NewDecoder(resp.Body).Decode(&conv)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/conversations/"+conv.ID+"/messages",
		token, map[string]string{"content": "   "})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("blank content: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/conversations/missing/messages",
		token, map[string]string{"content": "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown conversation: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProductEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/products?query=shirt")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Products []store.Product `json:"products"`
		Count    int             `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if list.Count != 1 || list.Products[0].Name != "Red Shirt" {
		t.Fatalf("unexpected search result %+v", list)
	}

	resp, err = http.Get(srv.URL + "/api/products/1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/api/products/999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/api/products/abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPaymentWebhook(t *testing.T) {
	srv, deps := testServer(t, nil)
	sessionID, token := createSession(t, srv)

	if _, err := deps.Baskets.AddItem(sessionID, 1, 2); err != nil {
		t.Fatal(err)
	}
	order, err := deps.Orders.CreateFromBasket(sessionID)
	if err != nil {
		t.Fatal(err)
	}

	webhook := func(eventType, orderNumber string) *http.Response {
		payload := map[string]any{
			"type": eventType,
			"data": map[string]any{
				"order_number": orderNumber,
				"payment_id":   "pay_1",
				"amount":       order.TotalAmount,
				"method":       "card",
			},
		}
		return doJSON(t, http.MethodPost, srv.URL+"/api/webhooks/payments", "", payload)
	}

	// Success confirms the order and clears the basket.
	resp := webhook("payment.succeeded", order.Number)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body["status"] != store.OrderCompleted {
		t.Fatalf("unexpected webhook response %+v", body)
	}

	confirmed, _ := deps.Orders.Get(order.Number)
	if confirmed.Payment == nil || confirmed.Payment.Status != "succeeded" {
		t.Fatalf("payment not recorded: %+v", confirmed.Payment)
	}
	if deps.Baskets.Get(sessionID).ItemCount() != 0 {
		t.Fatal("basket must be cleared after successful payment")
	}

	// The order is visible to its session afterwards.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+order.Number, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown order and unknown event type.
	resp = webhook("payment.succeeded", "ORD-MISSING")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = webhook("payment.unknown", order.Number)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPaymentWebhookFailureCancelsOrder(t *testing.T) {
	srv, deps := testServer(t, nil)
	sessionID, _ := createSession(t, srv)

	if _, err := deps.Baskets.AddItem(sessionID, 1, 2); err != nil {
		t.Fatal(err)
	}
	order, err := deps.Orders.CreateFromBasket(sessionID)
	if err != nil {
		t.Fatal(err)
	}

	payload := map[string]any{
		"type": "payment.failed",
		"data": map[string]any{"order_number": order.Number, "payment_id": "pay_2"},
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/webhooks/payments", "", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	cancelled, _ := deps.Orders.Get(order.Number)
	if cancelled.Status != store.OrderCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}
	// Basket survives a failed payment.
	if deps.Baskets.Get(sessionID).ItemCount() != 2 {
		t.Fatal("basket must survive a failed payment")
	}
}

func TestGetBasket(t *testing.T) {
	srv, deps := testServer(t, nil)
	sessionID, token := createSession(t, srv)

	if _, err := deps.Baskets.AddItem(sessionID, 1, 3); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/basket", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var basket store.Basket
	json.NewDecoder(resp.Body).Decode(&basket)
	resp.Body.Close()
	if basket.ItemCount() != 3 {
		t.Fatalf("unexpected basket %+v", basket)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/basket", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEventBusBroadcast(t *testing.T) {
	eb := NewEventBus()
	ch := eb.Subscribe()
	defer eb.Unsubscribe(ch)

	eb.Broadcast(EventCatalogReloaded)
	select {
	case got := <-ch:
		if got != EventCatalogReloaded {
			t.Fatalf("unexpected event %q", got)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}
