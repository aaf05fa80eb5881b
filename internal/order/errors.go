package order

import "errors"

var (
	ErrNotFound        = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrForbidden: the actor's role is not allowed to perform the operation.
	ErrForbidden = errors.New("role not allowed for this operation")

	// ErrInvalidTransition: the requested edge is not in the status graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState: the order's current state does not admit the operation
	// (e.g. recording a payment against a cancelled order).
	ErrInvalidState = errors.New("operation not allowed in current order state")

	// ErrConflict: order number allocation lost its race and exhausted retries.
	ErrConflict = errors.New("order number allocation conflict")
)
