package domain

import (
	"errors"
	"fmt"
)

// Capacity and precondition errors are rejected operations, never partial
// mutations: the cart is left exactly as it was.
var (
	ErrCapacityExceeded = errors.New("cart item limit reached")
	ErrInvalidQuantity  = errors.New("quantity out of range")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrBelowMinimum     = errors.New("order total below minimum")
	ErrOutsideHours     = errors.New("outside business hours")

	// Integrity errors mean a referenced record vanished between reads.
	// They indicate a data desync, not user error.
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrItemUnavailable     = errors.New("catalog item not available")
	ErrAddOnNotFound       = errors.New("add-on does not belong to item")
	ErrLineItemNotFound    = errors.New("line item not found")

	ErrNoCustomer = errors.New("customer profile not set")
	ErrNoPayment  = errors.New("payment not selected")
)

// FieldError is a validation failure on a single user-entered field. It is
// recovered locally (inline form feedback) and never propagated past the form.
type FieldError struct {
	Field string
	Rule  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Rule)
}

// IsValidation reports whether err is (or wraps) a FieldError.
func IsValidation(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}
