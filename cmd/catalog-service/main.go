package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cat "github.com/serviplus/backend/internal/catalog"
	"github.com/serviplus/backend/internal/config"
	"github.com/serviplus/backend/internal/httpx"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	repo := cat.NewPGRepo(pool)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/services", listServicesHandler(repo))
	r.GET("/services/search", searchServicesHandler(repo))
	r.GET("/services/:id", getServiceHandler(repo))
	r.POST("/services", createServiceHandler(repo))
	r.PUT("/services/:id", updateServiceHandler(repo))
	r.DELETE("/services/:id", deleteServiceHandler(repo))

	log.Printf("catalog-service listening on %s", cfg.CatalogSvcAddr)
	log.Fatal(r.Run(cfg.CatalogSvcAddr))
}
