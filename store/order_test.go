package store

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func orderFixture(t *testing.T) (*Catalog, *BasketStore, *OrderStore) {
	t.Helper()
	catalog := seedCatalog(t)
	baskets := NewBasketStore(catalog)
	orders := NewOrderStore(catalog, baskets)

	if _, err := baskets.AddItem("s1", 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := baskets.AddItem("s1", 3, 1); err != nil {
		t.Fatal(err)
	}
	return catalog, baskets, orders
}

func TestOrderStore_CreateFromBasket(t *testing.T) {
	catalog, baskets, orders := orderFixture(t)

	o, err := orders.CreateFromBasket("s1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if o.Status != OrderPending {
		t.Fatalf("expected pending, got %q", o.Status)
	}
	if !strings.HasPrefix(o.Number, "ORD-") {
		t.Fatalf("unexpected order number %q", o.Number)
	}
	if len(o.Items) != 2 || o.TotalAmount != 2*19.99+79.99 {
		t.Fatalf("unexpected order %+v", o)
	}
	if !o.ExpiresAt.Equal(o.CreatedAt.Add(PendingOrderExpiry)) {
		t.Fatalf("unexpected expiry %v", o.ExpiresAt)
	}

	// Inventory is reserved, not deducted.
	p, _ := catalog.Get(1)
	if p.Inventory != 10 || p.Reserved != 2 {
		t.Fatalf("expected reservation, got %+v", p)
	}

	// The basket stays intact until payment.
	if baskets.Get("s1").ItemCount() != 3 {
		t.Fatal("basket must survive order creation")
	}
}

func TestOrderStore_CreateFromEmptyBasket(t *testing.T) {
	catalog := seedCatalog(t)
	baskets := NewBasketStore(catalog)
	orders := NewOrderStore(catalog, baskets)

	if _, err := orders.CreateFromBasket("empty"); !errors.Is(err, ErrBasketEmpty) {
		t.Fatalf("expected basket empty, got %v", err)
	}
}

func TestOrderStore_CreateRollsBackOnReservationFailure(t *testing.T) {
	catalog := seedCatalog(t)
	baskets := NewBasketStore(catalog)
	orders := NewOrderStore(catalog, baskets)

	if _, err := baskets.AddItem("s1", 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := baskets.AddItem("s1", 3, 3); err != nil {
		t.Fatal(err)
	}
	// A competing order takes the sneakers first.
	if err := catalog.Reserve(3, 2); err != nil {
		t.Fatal(err)
	}

	_, err := orders.CreateFromBasket("s1")
	var insufficient *InsufficientInventoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}

	// The shirt reservation taken before the failure must be released.
	p, _ := catalog.Get(1)
	if p.Reserved != 0 {
		t.Fatalf("expected rollback, got reserved=%d", p.Reserved)
	}
}

func TestOrderStore_ConfirmLifecycle(t *testing.T) {
	catalog, baskets, orders := orderFixture(t)
	o, err := orders.CreateFromBasket("s1")
	if err != nil {
		t.Fatal(err)
	}

	confirmed, err := orders.Confirm(o.Number)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != OrderCompleted {
		t.Fatalf("expected completed, got %q", confirmed.Status)
	}

	// Reservation became a final deduction.
	p, _ := catalog.Get(1)
	if p.Inventory != 8 || p.Reserved != 0 {
		t.Fatalf("expected inventory deduction, got %+v", p)
	}

	// The shopper's basket is cleared on confirmation.
	if baskets.Get("s1").ItemCount() != 0 {
		t.Fatal("basket must be cleared on confirmation")
	}

	// Confirming again is a harmless no-op.
	again, err := orders.Confirm(o.Number)
	if err != nil {
		t.Fatalf("re-confirm failed: %v", err)
	}
	if again.Status != OrderCompleted {
		t.Fatalf("unexpected status %q", again.Status)
	}
	p, _ = catalog.Get(1)
	if p.Inventory != 8 {
		t.Fatal("re-confirm must not deduct inventory twice")
	}
}

func TestOrderStore_ConfirmExpired(t *testing.T) {
	_, _, orders := orderFixture(t)
	o, err := orders.CreateFromBasket("s1")
	if err != nil {
		t.Fatal(err)
	}

	orders.now = func() time.Time {
		return o.CreatedAt.Add(PendingOrderExpiry + time.Minute)
	}

	_, err = orders.Confirm(o.Number)
	var expired *OrderExpiredError
	if !errors.As(err, &expired) {
		t.Fatalf("expected order expired, got %v", err)
	}
	if expired.OrderNumber != o.Number {
		t.Fatalf("unexpected error detail %+v", expired)
	}
}

func TestOrderStore_Cancel(t *testing.T) {
	catalog, _, orders := orderFixture(t)
	o, err := orders.CreateFromBasket("s1")
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := orders.Cancel(o.Number)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != OrderCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	// Reservation released, inventory untouched.
	p, _ := catalog.Get(1)
	if p.Inventory != 10 || p.Reserved != 0 {
		t.Fatalf("expected release, got %+v", p)
	}

	if _, err := orders.Cancel(o.Number); err == nil {
		t.Fatal("cancelling a cancelled order must fail")
	}
}

func TestOrderStore_RecordPayment(t *testing.T) {
	_, _, orders := orderFixture(t)
	o, err := orders.CreateFromBasket("s1")
	if err != nil {
		t.Fatal(err)
	}

	payment := Payment{PaymentID: "pay_1", Amount: o.TotalAmount, Method: "card", Status: "succeeded"}
	if err := orders.RecordPayment(o.Number, payment); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	got, _ := orders.Get(o.Number)
	if got.Payment == nil || got.Payment.PaymentID != "pay_1" {
		t.Fatalf("payment not recorded: %+v", got.Payment)
	}

	if err := orders.RecordPayment("ORD-MISSING", payment); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestOrderStore_GetUnknown(t *testing.T) {
	_, _, orders := orderFixture(t)
	if _, err := orders.Get("nope"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}
