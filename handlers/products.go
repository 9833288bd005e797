package handlers

import (
	"net/http"
	"strconv"

	"shopchat/store"
)

// listProducts searches the catalog with query-parameter filters, the same
// filters the product search agent uses.
// GET /api/products?query=...&category=...&min_price=...&max_price=...&limit=...&page=...
func (h *apiHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := store.Filters{
		Query:    q.Get("query"),
		Category: q.Get("category"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		filters.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		filters.MaxPrice = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filters.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = v
	}

	products, total := h.deps.Catalog.Search(filters)
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    total,
	})
}

// getProduct returns one product by id.
// GET /api/products/{id}
func (h *apiHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.deps.Catalog.Get(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
