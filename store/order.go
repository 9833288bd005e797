package store

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingOrderExpiry is how long a pending order holds its inventory
// reservation before payment must arrive.
const PendingOrderExpiry = 15 * time.Minute

// Order statuses.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// OrderItem snapshots one basket line at order creation time.
type OrderItem struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Payment records the webhook-reported payment outcome for an order.
type Payment struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Status    string  `json:"status"` // "succeeded" or "failed"
}

// Order is a placed order. Pending orders reserve inventory and expire;
// completed orders have fulfilled their reservation.
type Order struct {
	Number      string      `json:"order_number"`
	SessionID   string      `json:"session_id"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items"`
	Payment     *Payment    `json:"payment,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Expired reports whether a pending order is past its expiry.
func (o *Order) Expired(now time.Time) bool {
	return o.Status == OrderPending && now.After(o.ExpiresAt)
}

// OrderStore holds all orders in memory, keyed by order number. Safe for
// concurrent use.
type OrderStore struct {
	mu      sync.Mutex
	catalog *Catalog
	baskets *BasketStore
	orders  map[string]*Order
	now     func() time.Time
}

// NewOrderStore creates an empty order store over the catalog and baskets.
func NewOrderStore(catalog *Catalog, baskets *BasketStore) *OrderStore {
	return &OrderStore{
		catalog: catalog,
		baskets: baskets,
		orders:  make(map[string]*Order),
		now:     time.Now,
	}
}

// CreateFromBasket places a pending order from the session's current basket,
// reserving inventory for every line. The basket itself stays intact until
// the order is confirmed. Reservation failures roll back any reservation
// already taken for the order.
func (s *OrderStore) CreateFromBasket(sessionID string) (*Order, error) {
	basket := s.baskets.Get(sessionID)
	if len(basket.Items) == 0 {
		return nil, ErrBasketEmpty
	}

	var reserved []BasketItem
	for _, item := range basket.Items {
		if err := s.catalog.Reserve(item.ProductID, item.Quantity); err != nil {
			for _, r := range reserved {
				s.catalog.ReleaseReserved(r.ProductID, r.Quantity)
			}
			return nil, err
		}
		reserved = append(reserved, item)
	}

	now := s.now()
	order := &Order{
		Number:      newOrderNumber(now),
		SessionID:   sessionID,
		Status:      OrderPending,
		TotalAmount: basket.TotalPrice(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(PendingOrderExpiry),
	}
	for _, item := range basket.Items {
		order.Items = append(order.Items, OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.PriceAtAddition,
		})
	}

	s.mu.Lock()
	s.orders[order.Number] = order
	s.mu.Unlock()

	return s.Get(order.Number)
}

// Get returns a copy of the order with the given number.
func (s *OrderStore) Get(number string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[number]
	if !ok {
		return nil, ErrOrderNotFound
	}
	out := *o
	out.Items = append([]OrderItem(nil), o.Items...)
	return &out, nil
}

// Confirm completes a pending order: the reservation becomes a final
// inventory deduction and the shopper's basket is cleared. Confirming an
// already-completed order is a no-op returning the order. Expired orders
// cannot be confirmed.
func (s *OrderStore) Confirm(number string) (*Order, error) {
	s.mu.Lock()
	o, ok := s.orders[number]
	if !ok {
		s.mu.Unlock()
		return nil, ErrOrderNotFound
	}
	if o.Status == OrderCompleted {
		s.mu.Unlock()
		slog.Info("order already completed", "order", number)
		return s.Get(number)
	}
	if o.Expired(s.now()) {
		s.mu.Unlock()
		return nil, &OrderExpiredError{OrderNumber: number}
	}
	if o.Status != OrderPending {
		s.mu.Unlock()
		return nil, fmt.Errorf("cannot confirm order %s with status %s", number, o.Status)
	}

	o.Status = OrderCompleted
	items := append([]OrderItem(nil), o.Items...)
	sessionID := o.SessionID
	s.mu.Unlock()

	for _, item := range items {
		if err := s.catalog.FulfillReserved(item.ProductID, item.Quantity); err != nil {
			slog.Error("failed to fulfill reservation", "order", number,
				"product_id", item.ProductID, "error", err)
		}
	}

	// Best effort; a failure to clear must not fail the confirmation.
	s.baskets.Clear(sessionID)

	return s.Get(number)
}

// Cancel cancels a pending order and releases its reservation. Cancelling a
// non-pending order is rejected.
func (s *OrderStore) Cancel(number string) (*Order, error) {
	s.mu.Lock()
	o, ok := s.orders[number]
	if !ok {
		s.mu.Unlock()
		return nil, ErrOrderNotFound
	}
	if o.Status != OrderPending {
		s.mu.Unlock()
		return nil, fmt.Errorf("cannot cancel order %s with status %s", number, o.Status)
	}
	o.Status = OrderCancelled
	items := append([]OrderItem(nil), o.Items...)
	s.mu.Unlock()

	for _, item := range items {
		if err := s.catalog.ReleaseReserved(item.ProductID, item.Quantity); err != nil {
			slog.Error("failed to release reservation", "order", number,
				"product_id", item.ProductID, "error", err)
		}
	}
	return s.Get(number)
}

// RecordPayment attaches the webhook-reported payment to an order.
func (s *OrderStore) RecordPayment(number string, p Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[number]
	if !ok {
		return ErrOrderNotFound
	}
	o.Payment = &p
	return nil
}

// newOrderNumber produces a human-readable unique order number:
// ORD-YYYYMMDD-XXXXXXXX.
func newOrderNumber(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), random)
}
