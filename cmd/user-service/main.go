package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serviplus/backend/internal/config"
	"github.com/serviplus/backend/internal/httpx"
	usr "github.com/serviplus/backend/internal/user"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	repo := usr.NewPGRepo(pool)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/users", createUserHandler(repo))
	r.GET("/users/:id", getUserHandler(repo))
	r.GET("/users/:id/validate", validateUserHandler(repo))
	r.PUT("/users/:id", updateUserHandler(repo))
	r.DELETE("/users/:id", deleteUserHandler(repo))
	r.POST("/auth/login", loginHandler(repo))

	log.Printf("user-service listening on %s", cfg.UserSvcAddr)
	log.Fatal(r.Run(cfg.UserSvcAddr))
}
