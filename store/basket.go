package store

import (
	"fmt"
	"sync"
	"time"
)

// BasketItem is one line in a basket. PriceAtAddition snapshots the product
// price when the item was first added.
type BasketItem struct {
	ProductID       int     `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Quantity        int     `json:"quantity"`
	PriceAtAddition float64 `json:"price_at_addition"`
}

// LineTotal is the item's quantity times its snapshot price.
func (i BasketItem) LineTotal() float64 {
	return float64(i.Quantity) * i.PriceAtAddition
}

// Basket is one shopper's basket, keyed by session id.
type Basket struct {
	SessionID string       `json:"session_id"`
	Items     []BasketItem `json:"items"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TotalPrice sums all line totals.
func (b Basket) TotalPrice() float64 {
	var total float64
	for _, item := range b.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount sums the quantities of all items.
func (b Basket) ItemCount() int {
	var count int
	for _, item := range b.Items {
		count += item.Quantity
	}
	return count
}

// BasketStore holds all baskets in memory, keyed by session id. Mutations
// validate against catalog inventory. Safe for concurrent use.
type BasketStore struct {
	mu      sync.Mutex
	catalog *Catalog
	baskets map[string]*Basket
}

// NewBasketStore creates an empty basket store over a catalog.
func NewBasketStore(catalog *Catalog) *BasketStore {
	return &BasketStore{
		catalog: catalog,
		baskets: make(map[string]*Basket),
	}
}

// Get returns a snapshot of the session's basket, which may be empty.
func (s *BasketStore) Get(sessionID string) Basket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(sessionID)
}

// AddItem adds quantity units of a product, validating that the basket's
// total for that product stays within available inventory. The product price
// is snapshotted on first addition.
func (s *BasketStore) AddItem(sessionID string, productID, quantity int) (Basket, error) {
	if quantity <= 0 {
		return Basket{}, fmt.Errorf("quantity must be greater than 0")
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return Basket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	needed := quantity
	for _, item := range b.Items {
		if item.ProductID == productID {
			needed += item.Quantity
		}
	}
	if product.Available() < needed {
		return Basket{}, &InsufficientInventoryError{
			Product:   product.Name,
			Available: product.Available(),
			Requested: needed,
		}
	}

	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			b.Items[i].Quantity += quantity
			b.UpdatedAt = time.Now()
			return s.snapshot(sessionID), nil
		}
	}
	b.Items = append(b.Items, BasketItem{
		ProductID:       productID,
		ProductName:     product.Name,
		Quantity:        quantity,
		PriceAtAddition: product.Price,
	})
	b.UpdatedAt = time.Now()
	return s.snapshot(sessionID), nil
}

// RemoveItem removes quantity units of a product, or the whole line when
// quantity is nil or exceeds what is in the basket.
func (s *BasketStore) RemoveItem(sessionID string, productID int, quantity *int) (Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	for i := range b.Items {
		if b.Items[i].ProductID != productID {
			continue
		}
		if quantity == nil || b.Items[i].Quantity <= *quantity {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
		} else {
			b.Items[i].Quantity -= *quantity
		}
		b.UpdatedAt = time.Now()
		return s.snapshot(sessionID), nil
	}
	return Basket{}, ErrItemNotInBasket
}

// UpdateQuantity sets a basket line to a new quantity, validating inventory.
func (s *BasketStore) UpdateQuantity(sessionID string, productID, quantity int) (Basket, error) {
	if quantity <= 0 {
		return Basket{}, fmt.Errorf("quantity must be greater than 0")
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return Basket{}, err
	}
	if product.Available() < quantity {
		return Basket{}, &InsufficientInventoryError{
			Product:   product.Name,
			Available: product.Available(),
			Requested: quantity,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			b.Items[i].Quantity = quantity
			b.UpdatedAt = time.Now()
			return s.snapshot(sessionID), nil
		}
	}
	return Basket{}, ErrItemNotInBasket
}

// Clear removes all items from the session's basket.
func (s *BasketStore) Clear(sessionID string) Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.basket(sessionID)
	b.Items = nil
	b.UpdatedAt = time.Now()
	return s.snapshot(sessionID)
}

// basket returns the live basket for a session, creating it if needed.
// Caller holds the lock.
func (s *BasketStore) basket(sessionID string) *Basket {
	b, ok := s.baskets[sessionID]
	if !ok {
		b = &Basket{SessionID: sessionID, UpdatedAt: time.Now()}
		s.baskets[sessionID] = b
	}
	return b
}

// snapshot copies the session's basket. Caller holds the lock.
func (s *BasketStore) snapshot(sessionID string) Basket {
	b, ok := s.baskets[sessionID]
	if !ok {
		return Basket{SessionID: sessionID}
	}
	out := *b
	out.Items = make([]BasketItem, len(b.Items))
	copy(out.Items, b.Items)
	return out
}
