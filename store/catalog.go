package store

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Search limit bounds.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Product is one catalog entry. Reserved counts inventory held by pending
// orders; it never exceeds Inventory.
type Product struct {
	ID          int               `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Price       float64           `yaml:"price" json:"price"`
	Category    string            `yaml:"category" json:"category"`
	Attributes  map[string]string `yaml:"attributes" json:"attributes,omitempty"`
	Inventory   int               `yaml:"inventory" json:"inventory_quantity"`
	Reserved    int               `yaml:"-" json:"-"`
}

// Available returns the sellable quantity (inventory minus reservations).
func (p *Product) Available() int {
	return p.Inventory - p.Reserved
}

// Filters narrow a catalog search. Nil price bounds mean unbounded; empty
// strings and maps mean no filter.
type Filters struct {
	Query      string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	Attributes map[string]string
	Limit      int
	Page       int
}

// Catalog is the in-memory product store. Safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	products map[int]*Product
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{products: make(map[int]*Product)}
}

// LoadFile replaces the catalog contents from a YAML seed file. Existing
// reservations for products that survive the reload are preserved.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var seed struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	c.Replace(seed.Products)
	return nil
}

// Replace swaps in a new product set, carrying reservations over by id.
func (c *Catalog) Replace(products []Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[int]*Product, len(products))
	for i := range products {
		p := products[i]
		if prev, ok := c.products[p.ID]; ok {
			p.Reserved = prev.Reserved
		}
		next[p.ID] = &p
	}
	c.products = next
}

// Get returns a copy of the product with the given id.
func (c *Catalog) Get(id int) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return *p, nil
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Search returns the requested page of in-stock products matching the
// filters, ordered by id, plus the total match count.
func (c *Catalog) Search(f Filters) ([]Product, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []Product
	for _, p := range c.products {
		if p.Available() <= 0 {
			continue
		}
		if !matches(p, f) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= total {
		return nil, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func matches(p *Product, f Filters) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	for key, want := range f.Attributes {
		if want == "" {
			continue
		}
		if got, ok := p.Attributes[key]; !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

// Reserve holds quantity units of a product for a pending order.
func (c *Catalog) Reserve(id, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if p.Available() < quantity {
		return &InsufficientInventoryError{
			Product:   p.Name,
			Available: p.Available(),
			Requested: quantity,
		}
	}
	p.Reserved += quantity
	return nil
}

// ReleaseReserved returns previously reserved units to the sellable pool.
func (c *Catalog) ReleaseReserved(id, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Reserved -= quantity
	if p.Reserved < 0 {
		p.Reserved = 0
	}
	return nil
}

// FulfillReserved converts reserved units into a final inventory deduction.
func (c *Catalog) FulfillReserved(id, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Inventory -= quantity
	p.Reserved -= quantity
	if p.Inventory < 0 {
		p.Inventory = 0
	}
	if p.Reserved < 0 {
		p.Reserved = 0
	}
	return nil
}
