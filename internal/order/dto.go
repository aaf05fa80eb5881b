package order

// CreateOrderRequest payload for order creation. ClientID is ignored for
// client callers (their own id is used); staff and admin must supply it.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	ClientID  string `json:"client_id" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	ServiceID string `json:"service_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
}

// TransitionRequest payload for a status change.
// swagger:model TransitionRequest
type TransitionRequest struct {
	Status string `json:"status" example:"in_review"`
	Note   string `json:"note,omitempty"`
}

// RecordPaymentRequest payload for recording a payment attempt. Status may be
// "completed" for money taken on the spot; it defaults to "pending".
// swagger:model RecordPaymentRequest
type RecordPaymentRequest struct {
	Amount string `json:"amount" example:"400.00"`
	Method string `json:"method" example:"card"`
	Status string `json:"status,omitempty" example:"pending"`
}

// UpdatePaymentRequest payload for a payment status change.
// swagger:model UpdatePaymentRequest
type UpdatePaymentRequest struct {
	Status string `json:"status" example:"completed"`
}

// AssignRequest payload for staff assignment.
// swagger:model AssignRequest
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// OverridePriceRequest payload for the admin price override.
// swagger:model OverridePriceRequest
type OverridePriceRequest struct {
	Price string `json:"price" example:"1200.00"`
}

// NoteRequest payload for a free-text note.
// swagger:model NoteRequest
type NoteRequest struct {
	Text string `json:"text"`
}
