package store

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned for lookups of unknown product ids.
	ErrProductNotFound = errors.New("product not found")

	// ErrItemNotInBasket is returned when removing or updating a product
	// that is not in the basket.
	ErrItemNotInBasket = errors.New("item not in basket")

	// ErrBasketEmpty is returned when creating an order from an empty basket.
	ErrBasketEmpty = errors.New("basket is empty")

	// ErrOrderNotFound is returned for lookups of unknown order numbers.
	ErrOrderNotFound = errors.New("order not found")
)

// InsufficientInventoryError reports that a requested quantity exceeds what
// is available for a product.
type InsufficientInventoryError struct {
	Product   string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s: available %d, requested %d",
		e.Product, e.Available, e.Requested)
}

// OrderExpiredError reports an operation on a pending order past its expiry.
type OrderExpiredError struct {
	OrderNumber string
}

func (e *OrderExpiredError) Error() string {
	return fmt.Sprintf("order %s has expired", e.OrderNumber)
}
