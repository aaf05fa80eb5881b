package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	usr "github.com/serviplus/backend/internal/user"
)

func createUserHandler(repo usr.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usr.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
			return
		}
		role := req.Role
		if role == "" {
			role = usr.RoleClient
		}
		if !usr.ValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
		hash, err := usr.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
			return
		}
		u := &usr.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			Email:        req.Email,
			Role:         role,
			PasswordHash: hash,
		}
		if err := repo.Create(c.Request.Context(), u); err != nil {
			if errors.Is(err, usr.ErrAlreadyExist) {
				c.JSON(http.StatusConflict, gin.H{"error": "user exists (username/email)"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func getUserHandler(repo usr.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// validateUserHandler answers the orders-api existence check.
func validateUserHandler(repo usr.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"ok": err == nil})
	}
}

func updateUserHandler(repo usr.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usr.UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		updatePassword := false
		var hash string
		if req.Password != "" {
			h, err := usr.HashPassword(req.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
				return
			}
			hash = h
			updatePassword = true
		}
		u := &usr.User{
			ID:           c.Param("id"),
			Username:     req.Username, // empty keeps current
			Email:        req.Email,    // empty keeps current
			PasswordHash: hash,
		}
		if err := repo.Update(c.Request.Context(), u, updatePassword); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		out, err := repo.GetByID(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteUserHandler(repo usr.Repository) gin.HandlerFunc {
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

// loginHandler checks credentials; token issuance lives in the gateway.
func loginHandler(repo usr.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usr.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		u, err := repo.GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"ok": false})
			return
		}
		if !usr.CheckPassword(u.PasswordHash, req.Password) {
			c.JSON(http.StatusOK, gin.H{"ok": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "user_id": u.ID, "role": u.Role})
	}
}
