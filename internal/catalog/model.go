package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is an orderable service offering. Price is NUMERIC in Postgres and
// decimal end to end; inactive services cannot seed new orders.
type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListResponse is the paginated listing shape.
// swagger:model
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Service `json:"items"`
}

// CreateServiceRequest payload of creation.
// swagger:model CreateServiceRequest
type CreateServiceRequest struct {
	Name        string `json:"name"        example:"Logo design"`
	Description string `json:"description" example:"Three concepts, two revisions"`
	Category    string `json:"category"    example:"design"`
	Price       string `json:"price"       example:"350.00"`
}

// UpdateServiceRequest payload of partial update. Empty fields keep their
// current value; Active is a pointer so omitting it is not a deactivation.
// swagger:model UpdateServiceRequest
type UpdateServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Active      *bool  `json:"active"`
}
