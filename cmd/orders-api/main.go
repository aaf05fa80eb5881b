package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serviplus/backend/internal/config"
	"github.com/serviplus/backend/internal/httpx"
	ord "github.com/serviplus/backend/internal/order"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("postgres ping: %v", err)
	}

	repo := ord.NewPGRepo(pool)
	ext := ord.NewExt(cfg.CatalogSvcBaseURL, cfg.UserSvcBaseURL)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/", httpx.RequireActor())
	api.POST("/orders", createOrderHandler(repo, ext))
	api.GET("/orders", listOrdersHandler(repo))
	api.GET("/orders/:id", getOrderHandler(repo))
	api.PUT("/orders/:id/status", updateOrderStatusHandler(repo))
	api.DELETE("/orders/:id", deleteOrderHandler(repo))
	api.POST("/orders/:id/notes", addNoteHandler(repo))
	api.PUT("/orders/:id/assign", assignOrderHandler(repo, ext))
	api.PUT("/orders/:id/price", overridePriceHandler(repo))
	api.POST("/orders/:id/payments", recordPaymentHandler(repo))
	api.POST("/orders/:id/refund", refundOrderHandler(repo))
	api.PUT("/payments/:id", updatePaymentHandler(repo))

	log.Printf("orders-api listening on %s", cfg.OrdersAPIAddr)
	log.Fatal(r.Run(cfg.OrdersAPIAddr))
}
