package agents

import (
	"context"

	"shopchat/agent"
)

const generalPrompt = `You are a friendly customer service assistant for an online store.

You handle greetings, small talk, and general questions about the store. Use
the store information tools to answer questions about policies, opening
hours, payment methods, and how to get in touch. Keep answers short and
warm.

If the customer asks about specific products or their basket, let them know
you can help with that too and invite them to describe what they need.`

// Static store information, served without external lookups.
var (
	storePolicies = map[string]any{
		"returns":  "Items can be returned within 30 days of delivery in their original condition for a full refund.",
		"shipping": "Standard shipping takes 3-5 business days. Orders over 50.00 ship free.",
		"privacy":  "We only use your data to fulfil orders. We never sell customer data to third parties.",
		"warranty": "All products carry a 12-month warranty against manufacturing defects.",
	}

	storeHours = map[string]any{
		"online":  "The online store is open 24/7.",
		"support": "Customer support is available Monday to Friday, 9:00-18:00, and Saturday 10:00-16:00.",
	}

	paymentMethods = []string{
		"Credit and debit cards (Visa, Mastercard, American Express)",
		"PayPal",
		"Apple Pay",
		"Google Pay",
	}

	contactInfo = map[string]any{
		"email": "support@shopchat.example",
		"phone": "+1 555 0100",
		"chat":  "Right here! Ask me anything.",
	}
)

// GeneralAgent handles greetings and store questions. It carries no UI
// actions; its tools return static store information.
type GeneralAgent struct {
	agent *agent.Agent
}

func NewGeneralAgent(o Options) *GeneralAgent {
	cfg := agent.Config{
		Name:          "general",
		SystemPrompt:  generalPrompt,
		Model:         o.Model,
		MaxIterations: o.MaxIterations,
		Tools: []agent.ToolDefinition{
			{
				Name:        "get_store_policy",
				Description: "Store policies: returns, shipping, privacy, warranty. Without a topic, all policies are returned.",
				Parameters: map[string]any{
					"topic": map[string]any{"type": "string", "enum": []string{"returns", "shipping", "privacy", "warranty"}},
				},
			},
			{
				Name:        "get_store_hours",
				Description: "Opening hours for the store and customer support.",
			},
			{
				Name:        "get_payment_methods",
				Description: "Accepted payment methods.",
			},
			{
				Name:        "get_contact_info",
				Description: "How to contact the store.",
			},
		},
	}

	a := agent.New(cfg, o.Client)
	a.RegisterTool("get_store_policy", "", storePolicyHandler)
	a.RegisterTool("get_store_hours", "", func(map[string]any, *agent.TurnContext) (any, error) {
		return map[string]any{"hours": storeHours}, nil
	})
	a.RegisterTool("get_payment_methods", "", func(map[string]any, *agent.TurnContext) (any, error) {
		return map[string]any{"payment_methods": paymentMethods}, nil
	})
	a.RegisterTool("get_contact_info", "", func(map[string]any, *agent.TurnContext) (any, error) {
		return map[string]any{"contact": contactInfo}, nil
	})
	return &GeneralAgent{agent: a}
}

func (a *GeneralAgent) RunStream(ctx context.Context, prompt string, tc *agent.TurnContext, emit agent.EmitFunc) {
	a.agent.RunStream(ctx, prompt, tc, emit)
}

func storePolicyHandler(args map[string]any, _ *agent.TurnContext) (any, error) {
	topic := argString(args, "topic")
	if topic == "" {
		return map[string]any{"policies": storePolicies}, nil
	}
	policy, ok := storePolicies[topic]
	if !ok {
		return map[string]any{"success": false, "error": "Unknown policy topic: " + topic}, nil
	}
	return map[string]any{"policy": map[string]any{topic: policy}}, nil
}
