package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shopchat/agent"
	"shopchat/llm"
)

// Agent type labels, one per conversational domain.
const (
	AgentCart          = "cart"
	AgentProductSearch = "product_search"
	AgentGeneral       = "general"
)

// DefaultAgentType is the deterministic fallback when classification fails
// or produces nothing recognizable.
const DefaultAgentType = AgentGeneral

// contextWindow is how many trailing messages the classifier sees.
const contextWindow = 5

const classifierPrompt = `You are a message classifier for an e-commerce shopping assistant.
Your job is to analyze the last few messages of a conversation and correctly determine which specialized agent should handle them.
Emphasize the latest user message.

Available agents:
1. cart_management - Handles shopping cart operations (add, remove, view basket, update quantities, checkout, order)
2. product_search - Handles product discovery (search, filter, view details, recommendations)
3. general_conversation - Handles greetings, policies, support questions, general chat

Classification rules:
- If the message is about adding, removing, viewing, or managing items in the cart/basket/order, answer cart_management
- If the message is about finding, searching, browsing, or viewing products, answer product_search
- If the message is about policies, shipping, returns, support, or general questions, answer general_conversation
- If the message is a greeting or casual conversation, answer general_conversation

Respond with ONLY the agent name: cart_management, product_search, or general_conversation`

// Classifier decides which domain agent should handle a turn. It is a
// zero-tool agent plus a best-effort keyword parse of the reply; the parse
// is a heuristic, not a guarantee, and always lands on some label.
type Classifier struct {
	agent *agent.Agent
}

// NewClassifier builds the classifier around a chat-completion client.
func NewClassifier(client llm.Client, model string) *Classifier {
	return &Classifier{
		agent: agent.New(agent.Config{
			SystemPrompt: classifierPrompt,
			Model:        model,
		}, client),
	}
}

// Classify returns the agent type label for a message given the conversation
// so far. The classifier turn is throwaway: nothing is recorded on tc.
func (c *Classifier) Classify(ctx context.Context, message string, tc *agent.TurnContext) (string, error) {
	prompt := fmt.Sprintf("CONTEXT:\n%s\n\nUser message: %q\n\nWhich agent should handle this? Respond with ONLY: cart_management, product_search, or general_conversation",
		contextSummary(tc), message)

	result, err := c.agent.Run(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return ParseAgentType(result.Content), nil
}

// contextSummary builds a compact textual summary of the last few messages:
// role, optional name, content.
func contextSummary(tc *agent.TurnContext) string {
	if tc == nil || len(tc.Messages) == 0 {
		return ""
	}

	msgs := tc.Messages
	if len(msgs) > contextWindow {
		msgs = msgs[len(msgs)-contextWindow:]
	}

	var sb strings.Builder
	sb.WriteString("Recent conversation:\n")
	for _, m := range msgs {
		if m.Name != "" {
			fmt.Fprintf(&sb, "%s (%s): %s\n", m.Role, m.Name, m.Content)
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}
	return sb.String()
}

// agentTypeRules is the ordered pattern list for parsing classifier output.
// Earlier families win when the reply mentions several.
var agentTypeRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"cart_management", "cart", "basket"}, AgentCart},
	{[]string{"product_search", "product"}, AgentProductSearch},
	{[]string{"general_conversation", "general", "chitchat"}, AgentGeneral},
}

// ParseAgentType maps free-text classifier output to an agent type label.
// Matching is case-insensitive and keyword-based, in fixed priority order;
// anything unrecognized (including an empty reply) falls back to
// DefaultAgentType.
func ParseAgentType(content string) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if normalized == "" {
		return DefaultAgentType
	}

	for _, rule := range agentTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.label
			}
		}
	}

	slog.Warn("unclear classification result, using default", "content", content)
	return DefaultAgentType
}
