package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceDTO is the catalog collaborator's view of an orderable service.
type ServiceDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
}

// Ext bundles the collaborator clients the core depends on. Lookups through
// Ext always happen before any storage transaction begins; no lock is held
// across these calls.
type Ext struct {
	HTTP           *http.Client
	CatalogBaseURL string
	UsersBaseURL   string
}

func NewExt(catalogBaseURL, usersBaseURL string) *Ext {
	return &Ext{
		HTTP:           &http.Client{Timeout: 5 * time.Second},
		CatalogBaseURL: catalogBaseURL,
		UsersBaseURL:   usersBaseURL,
	}
}

// FetchService retrieves a catalog service to seed the order price.
func (e *Ext) FetchService(ctx context.Context, id string) (*ServiceDTO, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/services/%s", e.CatalogBaseURL, id), nil)
	res, err := e.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service not found")
	}
	var s ServiceDTO
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateUser asks the user collaborator whether id references an existing user.
func (e *Ext) ValidateUser(ctx context.Context, id string) (bool, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/%s/validate", e.UsersBaseURL, id), nil)
	res, err := e.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("user validation error: %s", res.Status)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.OK, nil
}
