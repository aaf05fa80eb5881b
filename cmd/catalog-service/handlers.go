package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cat "github.com/serviplus/backend/internal/catalog"
)

func listServicesHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := cat.Query{
			Limit:      atoiDefault(c.Query("limit"), 20),
			Offset:     atoiDefault(c.Query("offset"), 0),
			OnlyActive: c.Query("include_inactive") == "",
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		if items == nil {
			items = []cat.Service{}
		}
		c.JSON(http.StatusOK, cat.ListResponse{Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

func searchServicesHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.TrimSpace(c.Query("q"))
		if len(search) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q must be at least 2 characters"})
			return
		}
		q := cat.Query{
			Q:          search,
			Limit:      atoiDefault(c.Query("limit"), 20),
			Offset:     atoiDefault(c.Query("offset"), 0),
			OnlyActive: true,
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		if items == nil {
			items = []cat.Service{}
		}
		c.JSON(http.StatusOK, cat.ListResponse{Q: search, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

func getServiceHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, cat.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func createServiceHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cat.CreateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if req.Name == "" || err != nil || price.Sign() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and a non-negative price are required"})
			return
		}
		s := &cat.Service{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       price,
			Active:      true,
		}
		if err := repo.Create(c.Request.Context(), s); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

func updateServiceHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cat.UpdateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		s := &cat.Service{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
		}
		updatePrice := false
		if req.Price != "" {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.Sign() < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative decimal"})
				return
			}
			s.Price = price
			updatePrice = true
		}
		updateActive := req.Active != nil
		if updateActive {
			s.Active = *req.Active
		}
		if err := repo.Update(c.Request.Context(), s, updatePrice, updateActive); err != nil {
			if errors.Is(err, cat.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		out, err := repo.GetByID(c.Request.Context(), s.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refetch failed"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteServiceHandler(repo cat.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
