package agents

import (
	"context"

	"shopchat/agent"
	"shopchat/store"
)

const productSearchPrompt = `You are a product search assistant for an online store.

Help the customer find products that match what they describe. Use
search_products to look up the catalog and get_product_details when they ask
about one specific item. Filter by category, price range, and attributes
(such as color or size) when the customer mentions them.

After finding products, call render_ui to display them:
- Use action "show_product_list" with data_source "search_products" after a search.
- Use action "show_product_details" with data_source "get_product_details" for a single product.

Then summarize the results conversationally. Mention prices and availability.
If nothing matches, say so and suggest broadening the search. Never invent
products that are not in the tool results.`

var productSearchUIActions = []string{"show_product_list", "show_product_details"}

// ProductSearchAgent answers catalog queries: free-text search with filters
// and per-product detail lookups.
type ProductSearchAgent struct {
	agent *agent.Agent
}

func NewProductSearchAgent(o Options, catalog *store.Catalog) *ProductSearchAgent {
	cfg := agent.Config{
		Name:          "product_search",
		SystemPrompt:  productSearchPrompt,
		Model:         o.Model,
		MaxIterations: o.MaxIterations,
		Tools: []agent.ToolDefinition{
			{
				Name:        "search_products",
				Description: "Search the product catalog. All filters are optional; only in-stock products are returned.",
				Parameters: map[string]any{
					"query":      map[string]any{"type": "string", "description": "Free-text search over product name and description"},
					"category":   map[string]any{"type": "string", "description": "Exact category name, case-insensitive"},
					"min_price":  map[string]any{"type": "number", "description": "Minimum price, inclusive"},
					"max_price":  map[string]any{"type": "number", "description": "Maximum price, inclusive"},
					"attributes": map[string]any{"type": "object", "description": "Attribute filters, e.g. {\"color\": \"red\"}"},
					"limit":      map[string]any{"type": "integer", "description": "Results per page, default 20, max 100"},
					"page":       map[string]any{"type": "integer", "description": "Page number, starting at 1"},
				},
			},
			{
				Name:        "get_product_details",
				Description: "Fetch full details for one product by its id.",
				Parameters: map[string]any{
					"product_id": map[string]any{"type": "integer", "description": "The product id"},
				},
				Required: []string{"product_id"},
			},
			{
				Name:        "render_ui",
				Description: "Render a UI component from a previous tool result.",
				Parameters: map[string]any{
					"action":      map[string]any{"type": "string", "enum": productSearchUIActions},
					"data_source": map[string]any{"type": "string", "description": "Name of the tool whose result should be rendered"},
				},
				Required: []string{"action", "data_source"},
			},
		},
	}

	a := agent.New(cfg, o.Client)
	a.RegisterTool("search_products", "Searching products", searchProductsHandler(catalog))
	a.RegisterTool("get_product_details", "Looking up product", productDetailsHandler(catalog))
	a.RegisterTool("render_ui", "", renderUIHandler(productSearchUIActions))
	return &ProductSearchAgent{agent: a}
}

func (a *ProductSearchAgent) RunStream(ctx context.Context, prompt string, tc *agent.TurnContext, emit agent.EmitFunc) {
	a.agent.RunStream(ctx, prompt, tc, emit)
}

func searchProductsHandler(catalog *store.Catalog) agent.Handler {
	return func(args map[string]any, _ *agent.TurnContext) (any, error) {
		filters := store.Filters{
			Query:      argString(args, "query"),
			Category:   argString(args, "category"),
			Attributes: argAttributes(args, "attributes"),
			Limit:      argInt(args, "limit", 0),
			Page:       argInt(args, "page", 0),
		}
		if v, ok := argFloat(args, "min_price"); ok {
			filters.MinPrice = &v
		}
		if v, ok := argFloat(args, "max_price"); ok {
			filters.MaxPrice = &v
		}

		products, total := catalog.Search(filters)
		results := make([]map[string]any, 0, len(products))
		for _, p := range products {
			results = append(results, productMap(p))
		}

		limit := filters.Limit
		if limit <= 0 {
			limit = store.DefaultSearchLimit
		} else if limit > store.MaxSearchLimit {
			limit = store.MaxSearchLimit
		}
		page := filters.Page
		if page < 1 {
			page = 1
		}

		out := map[string]any{
			"products":    results,
			"count":       total,
			"page":        page,
			"total_pages": (total + limit - 1) / limit,
		}
		if total == 0 {
			out["message"] = "No products matched the search"
		}
		return out, nil
	}
}

func productDetailsHandler(catalog *store.Catalog) agent.Handler {
	return func(args map[string]any, _ *agent.TurnContext) (any, error) {
		id, ok := argFloat(args, "product_id")
		if !ok {
			return map[string]any{"success": false, "error": "product_id is required"}, nil
		}

		p, err := catalog.Get(int(id))
		if err != nil {
			return map[string]any{
				"success":    false,
				"error":      "Product not found",
				"product_id": int(id),
			}, nil
		}
		return map[string]any{"product": productMap(p)}, nil
	}
}
