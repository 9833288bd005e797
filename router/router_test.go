package router

import (
	"context"
	"errors"
	"testing"

	"shopchat/agent"
)

// recordingAgent captures the prompt it was delegated and emits one done
// chunk.
type recordingAgent struct {
	name    string
	prompts []string
}

func (a *recordingAgent) RunStream(ctx context.Context, prompt string, tc *agent.TurnContext, emit agent.EmitFunc) {
	a.prompts = append(a.prompts, prompt)
	emit(agent.Chunk{Type: agent.ChunkDone, Content: a.name, Done: true})
}

func newTestRouter(classifierReply string, err error) (*Router, *recordingAgent, *recordingAgent, *recordingAgent) {
	cart := &recordingAgent{name: "cart"}
	product := &recordingAgent{name: "product_search"}
	general := &recordingAgent{name: "general"}
	r := New(NewClassifier(&fixedClient{content: classifierReply, err: err}, "m"), cart, product, general)
	return r, cart, product, general
}

func TestRouter_EmitsAgentSelectedThenDelegates(t *testing.T) {
	r, cart, _, _ := newTestRouter("cart_management", nil)

	var chunks []agent.Chunk
	r.RouteStream(context.Background(), "add it to my basket", &agent.TurnContext{}, func(c agent.Chunk) {
		chunks = append(chunks, c)
	})

	if len(chunks) < 2 {
		t.Fatalf("expected agent_selected plus delegated chunks, got %+v", chunks)
	}
	if chunks[0].Type != agent.ChunkAgentSelected || chunks[0].AgentType != AgentCart {
		t.Fatalf("first chunk must announce the selection, got %+v", chunks[0])
	}
	if len(cart.prompts) != 1 || cart.prompts[0] != "add it to my basket" {
		t.Fatalf("cart agent not delegated the prompt: %v", cart.prompts)
	}
}

func TestRouter_ClassifierErrorFallsBackToDefault(t *testing.T) {
	r, cart, product, general := newTestRouter("", errors.New("provider down"))

	var chunks []agent.Chunk
	r.RouteStream(context.Background(), "anything", &agent.TurnContext{}, func(c agent.Chunk) {
		chunks = append(chunks, c)
	})

	if chunks[0].AgentType != DefaultAgentType {
		t.Fatalf("expected default agent on classifier error, got %q", chunks[0].AgentType)
	}
	if len(general.prompts) != 1 {
		t.Fatal("default agent must handle the turn")
	}
	if len(cart.prompts) != 0 || len(product.prompts) != 0 {
		t.Fatal("no other agent may run")
	}
}

func TestRouter_UnrecognizedClassificationFallsBackToDefault(t *testing.T) {
	r, _, _, general := newTestRouter("no recognizable keywords here at all", nil)

	var first agent.Chunk
	seen := false
	r.RouteStream(context.Background(), "hm", &agent.TurnContext{}, func(c agent.Chunk) {
		if !seen {
			first, seen = c, true
		}
	})

	if first.AgentType != DefaultAgentType {
		t.Fatalf("expected default selection, got %q", first.AgentType)
	}
	if len(general.prompts) != 1 {
		t.Fatal("default agent must handle the turn")
	}
}
