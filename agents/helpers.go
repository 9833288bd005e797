package agents

import (
	"fmt"

	"shopchat/agent"
	"shopchat/llm"
	"shopchat/store"
)

// Options carries the shared knobs for building a domain agent.
type Options struct {
	Client        llm.Client
	Model         string
	MaxIterations int // 0 means agent.DefaultMaxIterations
}

// Argument accessors for parsed tool arguments. JSON numbers arrive as
// float64; these tolerate the types a model actually sends.

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func argInt(args map[string]any, key string, def int) int {
	if v, ok := argFloat(args, key); ok {
		return int(v)
	}
	return def
}

func argIntPtr(args map[string]any, key string) *int {
	if v, ok := argFloat(args, key); ok {
		n := int(v)
		return &n
	}
	return nil
}

func argAttributes(args map[string]any, key string) map[string]string {
	obj, ok := args[key].(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// --- result rendering ---

func productMap(p store.Product) map[string]any {
	return map[string]any{
		"id":                 p.ID,
		"name":               p.Name,
		"description":        p.Description,
		"price":              p.Price,
		"category":           p.Category,
		"attributes":         p.Attributes,
		"in_stock":           p.Available() > 0,
		"available_quantity": p.Available(),
	}
}

func basketMap(b store.Basket, message string) map[string]any {
	items := make([]map[string]any, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, map[string]any{
			"product_id":        item.ProductID,
			"product_name":      item.ProductName,
			"quantity":          item.Quantity,
			"price_at_addition": item.PriceAtAddition,
			"line_total":        item.LineTotal(),
		})
	}
	result := map[string]any{
		"basket": map[string]any{
			"session_id":  b.SessionID,
			"items":       items,
			"item_count":  b.ItemCount(),
			"total_price": b.TotalPrice(),
		},
	}
	if message != "" {
		result["message"] = message
	}
	return result
}

func orderMap(o *store.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"quantity":     item.Quantity,
			"price":        item.Price,
		})
	}
	result := map[string]any{
		"order": map[string]any{
			"order_number": o.Number,
			"status":       o.Status,
			"total_amount": o.TotalAmount,
			"items":        items,
			"created_at":   o.CreatedAt,
			"expires_at":   o.ExpiresAt,
		},
	}
	if o.Payment != nil {
		result["payment"] = map[string]any{
			"payment_id": o.Payment.PaymentID,
			"status":     o.Payment.Status,
			"method":     o.Payment.Method,
		}
	}
	return result
}

// renderUIHandler builds the render_ui tool handler shared by the domain
// agents. The handler only echoes a validated render request; the agent core
// resolves the data_source reference against prior tool results.
func renderUIHandler(validActions []string) agent.Handler {
	allowed := make(map[string]bool, len(validActions))
	for _, a := range validActions {
		allowed[a] = true
	}
	return func(args map[string]any, _ *agent.TurnContext) (any, error) {
		action := argString(args, "action")
		if !allowed[action] {
			return map[string]any{"success": false, "error": "Invalid UI action: " + action}, nil
		}
		return map[string]any{
			"ui_action":   action,
			"data_source": argString(args, "data_source"),
			"success":     true,
		}, nil
	}
}
