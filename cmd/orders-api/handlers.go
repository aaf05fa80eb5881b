package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplus/backend/internal/httpx"
	ord "github.com/serviplus/backend/internal/order"
)

func actorFrom(c *gin.Context) ord.Actor {
	a := httpx.ActorFrom(c)
	return ord.Actor{ID: a.ID, Role: ord.Role(a.Role)}
}

// failErr maps core sentinel errors onto the HTTP taxonomy.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ord.ErrNotFound), errors.Is(err, ord.ErrPaymentNotFound):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ord.ErrForbidden):
		httpx.Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ord.ErrInvalidTransition), errors.Is(err, ord.ErrInvalidState):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ord.ErrConflict):
		httpx.Fail(c, http.StatusConflict, err.Error())
	default:
		httpx.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

// createOrderHandler creates an order: collaborator lookups first, then the
// atomic create (number allocation included) in the repository.
func createOrderHandler(repo ord.Repository, ext *ord.Ext) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		actor := actorFrom(c)

		clientID := req.ClientID
		if actor.Role == ord.RoleClient {
			clientID = actor.ID
		}
		if clientID == "" || req.ServiceID == "" {
			httpx.Fail(c, http.StatusBadRequest, "client_id and service_id are required")
			return
		}

		ctx := c.Request.Context()
		ok, err := ext.ValidateUser(ctx, clientID)
		if err != nil {
			httpx.Fail(c, http.StatusBadGateway, "user service unavailable")
			return
		}
		if !ok {
			httpx.Fail(c, http.StatusBadRequest, "unknown client")
			return
		}
		svc, err := ext.FetchService(ctx, req.ServiceID)
		if err != nil {
			httpx.Fail(c, http.StatusBadRequest, "unknown service")
			return
		}
		if !svc.Active {
			httpx.Fail(c, http.StatusBadRequest, "service is not available")
			return
		}

		now := time.Now().UTC()
		o := &ord.Order{
			ID:            uuid.NewString(),
			ClientID:      clientID,
			ServiceID:     req.ServiceID,
			Status:        ord.StatusNew,
			PaymentStatus: ord.PaymentUnpaid,
			Price:         svc.Price,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		note := ord.Note{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			AuthorID:  actor.ID,
			Text:      "order created",
			CreatedAt: now,
		}
		if err := repo.Create(ctx, o, note); err != nil {
			failErr(c, err)
			return
		}
		o.Notes = []ord.Note{note}
		httpx.OK(c, http.StatusCreated, o)
	}
}

func getOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		o, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			failErr(c, err)
			return
		}
		if actor.Role == ord.RoleClient && o.ClientID != actor.ID {
			httpx.Fail(c, http.StatusForbidden, ord.ErrForbidden.Error())
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func listOrdersHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		q := ord.ListQuery{
			ClientID: c.Query("client_id"),
			Status:   ord.Status(c.Query("status")),
			Limit:    atoiDefault(c.Query("limit"), 20),
			Offset:   atoiDefault(c.Query("offset"), 0),
		}
		if q.Status != "" && !ord.ValidStatus(q.Status) {
			httpx.Fail(c, http.StatusBadRequest, "unknown status filter")
			return
		}
		// Clients only ever see their own orders.
		if actor.Role == ord.RoleClient {
			q.ClientID = actor.ID
		}
		out, err := repo.List(c.Request.Context(), q)
		if err != nil {
			failErr(c, err)
			return
		}
		if out == nil {
			out = []ord.Order{}
		}
		httpx.OK(c, http.StatusOK, out)
	}
}

func updateOrderStatusHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		requested := ord.Status(req.Status)
		if !ord.ValidStatus(requested) {
			httpx.Fail(c, http.StatusBadRequest, "unknown status")
			return
		}
		o, err := repo.ApplyTransition(c.Request.Context(), c.Param("id"), requested, actorFrom(c), req.Note)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func deleteOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"deleted": true})
	}
}

func addNoteHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.NoteRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
			httpx.Fail(c, http.StatusBadRequest, "text is required")
			return
		}
		n, err := repo.AddNote(c.Request.Context(), c.Param("id"), actorFrom(c), req.Text)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusCreated, n)
	}
}

func assignOrderHandler(repo ord.Repository, ext *ord.Ext) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if err := ord.CheckAdmin(actor); err != nil {
			failErr(c, err)
			return
		}
		var req ord.AssignRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.AssignedTo == "" {
			httpx.Fail(c, http.StatusBadRequest, "assigned_to is required")
			return
		}
		ok, err := ext.ValidateUser(c.Request.Context(), req.AssignedTo)
		if err != nil {
			httpx.Fail(c, http.StatusBadGateway, "user service unavailable")
			return
		}
		if !ok {
			httpx.Fail(c, http.StatusBadRequest, "unknown assignee")
			return
		}
		o, err := repo.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo, actor)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func overridePriceHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if err := ord.CheckAdmin(actor); err != nil {
			failErr(c, err)
			return
		}
		var req ord.OverridePriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.Sign() < 0 {
			httpx.Fail(c, http.StatusBadRequest, "price must be a non-negative decimal")
			return
		}
		o, err := repo.OverridePrice(c.Request.Context(), c.Param("id"), price, actor)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func recordPaymentHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || amount.Sign() <= 0 {
			httpx.Fail(c, http.StatusBadRequest, "amount must be a positive decimal")
			return
		}
		if req.Method == "" {
			httpx.Fail(c, http.StatusBadRequest, "method is required")
			return
		}
		state := ord.PaymentPending
		if req.Status != "" {
			state = ord.PaymentState(req.Status)
			if state != ord.PaymentPending && state != ord.PaymentCompleted {
				httpx.Fail(c, http.StatusBadRequest, "status must be pending or completed")
				return
			}
		}
		p, err := repo.RecordPayment(c.Request.Context(), c.Param("id"), amount, req.Method, state, actorFrom(c))
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusCreated, p)
	}
}

func updatePaymentHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if err := ord.CheckStaff(actor); err != nil {
			failErr(c, err)
			return
		}
		var req ord.UpdatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		requested := ord.PaymentState(req.Status)
		if !ord.ValidPaymentState(requested) {
			httpx.Fail(c, http.StatusBadRequest, "unknown payment status")
			return
		}
		o, err := repo.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), requested, actor)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func refundOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if err := ord.CheckAdmin(actor); err != nil {
			failErr(c, err)
			return
		}
		o, err := repo.Refund(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			failErr(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, o)
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
