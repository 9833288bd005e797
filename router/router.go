package router

import (
	"context"
	"log/slog"

	"shopchat/agent"
)

// DomainAgent is a preconfigured agent handling one conversational domain.
type DomainAgent interface {
	RunStream(ctx context.Context, prompt string, tc *agent.TurnContext, emit agent.EmitFunc)
}

// Router classifies each inbound turn and dispatches it to the matching
// domain agent. Per turn: classify, announce the selection, delegate the
// stream unchanged. Classification never fails a turn; any error falls back
// to the default agent deterministically.
type Router struct {
	classifier *Classifier
	agents     map[string]DomainAgent
}

// New creates a router over the three domain agents.
func New(classifier *Classifier, cart, productSearch, general DomainAgent) *Router {
	return &Router{
		classifier: classifier,
		agents: map[string]DomainAgent{
			AgentCart:          cart,
			AgentProductSearch: productSearch,
			AgentGeneral:       general,
		},
	}
}

// RouteStream handles one streaming turn end to end. All chunks from the
// selected domain agent are forwarded unchanged, preceded by a single
// agent_selected chunk.
func (r *Router) RouteStream(ctx context.Context, message string, tc *agent.TurnContext, emit agent.EmitFunc) {
	agentType := r.classify(ctx, message, tc)

	emit(agent.Chunk{Type: agent.ChunkAgentSelected, AgentType: agentType})

	selected, ok := r.agents[agentType]
	if !ok {
		selected = r.agents[DefaultAgentType]
	}
	selected.RunStream(ctx, message, tc, emit)
}

func (r *Router) classify(ctx context.Context, message string, tc *agent.TurnContext) string {
	agentType, err := r.classifier.Classify(ctx, message, tc)
	if err != nil {
		slog.Error("classification error, falling back to default agent", "error", err)
		return DefaultAgentType
	}
	return agentType
}
