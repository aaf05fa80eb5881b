package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	cat "github.com/serviplus/backend/internal/catalog"
)

// stubRepo keeps services in memory with the same partial-update semantics
// the SQL layer implements (empty string keeps, flags gate price/active).
type stubRepo struct {
	mu       sync.Mutex
	services map[string]*cat.Service
}

func newStubRepo() *stubRepo {
	return &stubRepo{services: make(map[string]*cat.Service)}
}

func (s *stubRepo) Create(ctx context.Context, svc *cat.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *svc
	s.services[svc.ID] = &cp
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*cat.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, cat.ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (s *stubRepo) List(ctx context.Context, q cat.Query) ([]cat.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []cat.Service
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	for _, svc := range s.services {
		if q.OnlyActive && !svc.Active {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(svc.Name), needle) &&
			!strings.Contains(strings.ToLower(svc.Description), needle) {
			continue
		}
		out = append(out, *svc)
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, svc *cat.Service, updatePrice, updateActive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.services[svc.ID]
	if !ok {
		return cat.ErrNotFound
	}
	if svc.Name != "" {
		cur.Name = svc.Name
	}
	if svc.Description != "" {
		cur.Description = svc.Description
	}
	if svc.Category != "" {
		cur.Category = svc.Category
	}
	if updatePrice {
		cur.Price = svc.Price
	}
	if updateActive {
		cur.Active = svc.Active
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.services[id]
	delete(s.services, id)
	return ok, nil
}

func newRouter(repo cat.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/services", listServicesHandler(repo))
	r.GET("/services/search", searchServicesHandler(repo))
	r.GET("/services/:id", getServiceHandler(repo))
	r.POST("/services", createServiceHandler(repo))
	r.PUT("/services/:id", updateServiceHandler(repo))
	r.DELETE("/services/:id", deleteServiceHandler(repo))
	return r
}

func doReq(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeService(t *testing.T, w *httptest.ResponseRecorder) cat.Service {
	t.Helper()
	var s cat.Service
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("invalid service payload: %v body=%s", err, w.Body.String())
	}
	return s
}

func seed(t *testing.T, r *gin.Engine, name, price string) cat.Service {
	t.Helper()
	w := doReq(r, http.MethodPost, "/services", `{"name":"`+name+`","price":"`+price+`","category":"design"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed %s: status=%d body=%s", name, w.Code, w.Body.String())
	}
	return decodeService(t, w)
}

func TestCreateService(t *testing.T) {
	r := newRouter(newStubRepo())

	s := seed(t, r, "Logo design", "350.00")
	if !s.Active {
		t.Fatalf("new service must start active")
	}
	if !s.Price.Equal(decimal.RequireFromString("350.00")) {
		t.Fatalf("price=%s, want 350.00", s.Price)
	}

	for _, body := range []string{
		`{"price":"350.00"}`,
		`{"name":"x","price":"abc"}`,
		`{"name":"x","price":"-1.00"}`,
		`not json`,
	} {
		if w := doReq(r, http.MethodPost, "/services", body); w.Code != http.StatusBadRequest {
			t.Errorf("body=%s: status=%d, want 400", body, w.Code)
		}
	}
}

func TestListServices_ActiveFilter(t *testing.T) {
	repo := newStubRepo()
	r := newRouter(repo)

	a := seed(t, r, "Logo design", "350.00")
	b := seed(t, r, "Old offer", "10.00")
	if err := repo.Update(context.Background(), &cat.Service{ID: b.ID, Active: false}, false, true); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	w := doReq(r, http.MethodGet, "/services", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp cat.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid list payload: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != a.ID {
		t.Fatalf("default listing must hide inactive: %+v", resp.Items)
	}

	w = doReq(r, http.MethodGet, "/services?include_inactive=1", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid list payload: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("include_inactive: got %d items, want 2", len(resp.Items))
	}
}

func TestSearchServices(t *testing.T) {
	r := newRouter(newStubRepo())
	seed(t, r, "Logo design", "350.00")
	seed(t, r, "Brand audit", "1000.00")

	w := doReq(r, http.MethodGet, "/services/search?q=l", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("one-char query: status=%d, want 400", w.Code)
	}

	w = doReq(r, http.MethodGet, "/services/search?q=logo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp cat.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid search payload: %v", err)
	}
	if resp.Q != "logo" || len(resp.Items) != 1 || resp.Items[0].Name != "Logo design" {
		t.Fatalf("search result: %+v", resp)
	}
}

func TestGetService_NotFound(t *testing.T) {
	r := newRouter(newStubRepo())
	if w := doReq(r, http.MethodGet, "/services/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
}

func TestUpdateService_Partial(t *testing.T) {
	r := newRouter(newStubRepo())
	s := seed(t, r, "Logo design", "350.00")

	// price only: name untouched
	w := doReq(r, http.MethodPut, "/services/"+s.ID, `{"price":"400.00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decodeService(t, w)
	if got.Name != "Logo design" || !got.Price.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("partial update: %+v", got)
	}
	if !got.Active {
		t.Fatalf("omitting active must not deactivate")
	}

	// explicit deactivation
	w = doReq(r, http.MethodPut, "/services/"+s.ID, `{"active":false}`)
	if got = decodeService(t, w); got.Active {
		t.Fatalf("active=false ignored")
	}

	if w = doReq(r, http.MethodPut, "/services/"+s.ID, `{"price":"-2.00"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("negative price: status=%d, want 400", w.Code)
	}
	if w = doReq(r, http.MethodPut, "/services/nope", `{"name":"x"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status=%d, want 404", w.Code)
	}
}

func TestDeleteService(t *testing.T) {
	r := newRouter(newStubRepo())
	s := seed(t, r, "Logo design", "350.00")

	if w := doReq(r, http.MethodDelete, "/services/"+s.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status=%d, want 204", w.Code)
	}
	if w := doReq(r, http.MethodDelete, "/services/"+s.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status=%d, want 404", w.Code)
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}
