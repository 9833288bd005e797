package agents

import (
	"context"
	"errors"

	"shopchat/agent"
	"shopchat/store"
)

const cartPrompt = `You are a shopping basket assistant for an online store.

You manage the customer's basket and orders. Available operations:
- view_basket shows the current basket contents.
- add_item_to_basket adds a product by id (quantity defaults to 1).
- remove_item_from_basket removes a quantity of an item, or the whole line.
- update_basket_item sets an item's quantity.
- clear_basket empties the basket.
- get_basket_summary gives a quick count and total.
- create_order turns the basket into a pending order awaiting payment.
- view_order looks up an order by its order number.

After changing the basket, call render_ui with action "show_basket" and the
data_source of the tool you just called. After create_order, use action
"show_order_payment" so the customer can pay. Use "show_order_confirmation"
once an order is paid, and "show_order_details" with data_source
"view_order" for an existing order.

Confirm every change conversationally and mention the new basket total. If a
tool reports insufficient inventory, tell the customer how many are
available. Never claim a change succeeded when the tool reported an error.`

var cartUIActions = []string{
	"show_basket",
	"show_order_payment",
	"show_order_confirmation",
	"show_order_details",
}

// CartAgent manages the session's basket and the basket-to-order flow.
type CartAgent struct {
	agent *agent.Agent
}

func NewCartAgent(o Options, baskets *store.BasketStore, orders *store.OrderStore) *CartAgent {
	cfg := agent.Config{
		Name:          "cart",
		SystemPrompt:  cartPrompt,
		Model:         o.Model,
		MaxIterations: o.MaxIterations,
		Tools: []agent.ToolDefinition{
			{
				Name:        "view_basket",
				Description: "Show the current basket: items, quantities, and total price.",
			},
			{
				Name:        "add_item_to_basket",
				Description: "Add a product to the basket. Fails when the requested quantity exceeds available inventory.",
				Parameters: map[string]any{
					"product_id": map[string]any{"type": "integer", "description": "The product id"},
					"quantity":   map[string]any{"type": "integer", "description": "How many to add, default 1"},
				},
				Required: []string{"product_id"},
			},
			{
				Name:        "remove_item_from_basket",
				Description: "Remove a product from the basket. Without a quantity the whole line is removed.",
				Parameters: map[string]any{
					"product_id": map[string]any{"type": "integer", "description": "The product id"},
					"quantity":   map[string]any{"type": "integer", "description": "How many to remove"},
				},
				Required: []string{"product_id"},
			},
			{
				Name:        "update_basket_item",
				Description: "Set the quantity of a basket item. A quantity of zero removes the line.",
				Parameters: map[string]any{
					"product_id": map[string]any{"type": "integer", "description": "The product id"},
					"quantity":   map[string]any{"type": "integer", "description": "The new quantity"},
				},
				Required: []string{"product_id", "quantity"},
			},
			{
				Name:        "clear_basket",
				Description: "Remove everything from the basket.",
			},
			{
				Name:        "get_basket_summary",
				Description: "Quick basket summary: item count and total price.",
			},
			{
				Name:        "create_order",
				Description: "Create a pending order from the basket. Inventory is reserved until payment or expiry.",
			},
			{
				Name:        "view_order",
				Description: "Look up an order by its order number.",
				Parameters: map[string]any{
					"order_number": map[string]any{"type": "string", "description": "The order number, e.g. ORD-20260831-AB12CD34"},
				},
				Required: []string{"order_number"},
			},
			{
				Name:        "render_ui",
				Description: "Render a UI component from a previous tool result.",
				Parameters: map[string]any{
					"action":      map[string]any{"type": "string", "enum": cartUIActions},
					"data_source": map[string]any{"type": "string", "description": "Name of the tool whose result should be rendered"},
				},
				Required: []string{"action", "data_source"},
			},
		},
	}

	a := agent.New(cfg, o.Client)
	a.RegisterTool("view_basket", "Checking basket", viewBasketHandler(baskets))
	a.RegisterTool("add_item_to_basket", "Adding to basket", addItemHandler(baskets))
	a.RegisterTool("remove_item_from_basket", "Removing from basket", removeItemHandler(baskets))
	a.RegisterTool("update_basket_item", "Updating basket", updateItemHandler(baskets))
	a.RegisterTool("clear_basket", "Clearing basket", clearBasketHandler(baskets))
	a.RegisterTool("get_basket_summary", "", basketSummaryHandler(baskets))
	a.RegisterTool("create_order", "Creating order", createOrderHandler(orders))
	a.RegisterTool("view_order", "Looking up order", viewOrderHandler(orders))
	a.RegisterTool("render_ui", "", renderUIHandler(cartUIActions))
	return &CartAgent{agent: a}
}

func (a *CartAgent) RunStream(ctx context.Context, prompt string, tc *agent.TurnContext, emit agent.EmitFunc) {
	a.agent.RunStream(ctx, prompt, tc, emit)
}

func viewBasketHandler(baskets *store.BasketStore) agent.Handler {
	return func(_ map[string]any, tc *agent.TurnContext) (any, error) {
		return basketMap(baskets.Get(tc.SessionID), ""), nil
	}
}

func addItemHandler(baskets *store.BasketStore) agent.Handler {
	return func(args map[string]any, tc *agent.TurnContext) (any, error) {
		id, ok := argFloat(args, "product_id")
		if !ok {
			return map[string]any{"success": false, "error": "product_id is required"}, nil
		}
		quantity := argInt(args, "quantity", 1)

		b, err := baskets.AddItem(tc.SessionID, int(id), quantity)
		if err != nil {
			return basketErrorMap(err, int(id)), nil
		}
		return basketMap(b, "Item added to basket"), nil
	}
}

func removeItemHandler(baskets *store.BasketStore) agent.Handler {
	return func(args map[string]any, tc *agent.TurnContext) (any, error) {
		id, ok := argFloat(args, "product_id")
		if !ok {
			return map[string]any{"success": false, "error": "product_id is required"}, nil
		}

		b, err := baskets.RemoveItem(tc.SessionID, int(id), argIntPtr(args, "quantity"))
		if err != nil {
			return basketErrorMap(err, int(id)), nil
		}
		return basketMap(b, "Item removed from basket"), nil
	}
}

func updateItemHandler(baskets *store.BasketStore) agent.Handler {
	return func(args map[string]any, tc *agent.TurnContext) (any, error) {
		id, okID := argFloat(args, "product_id")
		quantity, okQty := argFloat(args, "quantity")
		if !okID || !okQty {
			return map[string]any{"success": false, "error": "product_id and quantity are required"}, nil
		}

		if int(quantity) == 0 {
			b, err := baskets.RemoveItem(tc.SessionID, int(id), nil)
			if err != nil {
				return basketErrorMap(err, int(id)), nil
			}
			return basketMap(b, "Item removed from basket"), nil
		}

		b, err := baskets.UpdateQuantity(tc.SessionID, int(id), int(quantity))
		if err != nil {
			return basketErrorMap(err, int(id)), nil
		}
		return basketMap(b, "Basket updated"), nil
	}
}

func clearBasketHandler(baskets *store.BasketStore) agent.Handler {
	return func(_ map[string]any, tc *agent.TurnContext) (any, error) {
		return basketMap(baskets.Clear(tc.SessionID), "Basket cleared"), nil
	}
}

func basketSummaryHandler(baskets *store.BasketStore) agent.Handler {
	return func(_ map[string]any, tc *agent.TurnContext) (any, error) {
		b := baskets.Get(tc.SessionID)
		return map[string]any{
			"item_count":  b.ItemCount(),
			"total_price": b.TotalPrice(),
		}, nil
	}
}

func createOrderHandler(orders *store.OrderStore) agent.Handler {
	return func(_ map[string]any, tc *agent.TurnContext) (any, error) {
		o, err := orders.CreateFromBasket(tc.SessionID)
		if err != nil {
			if errors.Is(err, store.ErrBasketEmpty) {
				return map[string]any{"success": false, "error": "Basket is empty"}, nil
			}
			return basketErrorMap(err, 0), nil
		}
		out := orderMap(o)
		out["message"] = "Order created. It is reserved for 15 minutes pending payment."
		return out, nil
	}
}

func viewOrderHandler(orders *store.OrderStore) agent.Handler {
	return func(args map[string]any, _ *agent.TurnContext) (any, error) {
		number := argString(args, "order_number")
		if number == "" {
			return map[string]any{"success": false, "error": "order_number is required"}, nil
		}

		o, err := orders.Get(number)
		if err != nil {
			return map[string]any{
				"success":      false,
				"error":        "Order not found",
				"order_number": number,
			}, nil
		}
		return orderMap(o), nil
	}
}

// basketErrorMap converts the store's basket errors into structured tool
// results the model can relay to the customer.
func basketErrorMap(err error, productID int) map[string]any {
	var insufficient *store.InsufficientInventoryError
	switch {
	case errors.As(err, &insufficient):
		return map[string]any{
			"success":   false,
			"error":     err.Error(),
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		}
	case errors.Is(err, store.ErrProductNotFound):
		return map[string]any{"success": false, "error": "Product not found", "product_id": productID}
	case errors.Is(err, store.ErrItemNotInBasket):
		return map[string]any{"success": false, "error": "Item is not in the basket", "product_id": productID}
	default:
		return map[string]any{"success": false, "error": err.Error()}
	}
}
