package http

import (
	"time"

	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/http/handlers"
	"github.com/escrow-marketplace/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	tokenHandler *handlers.TokenHandler,
	dealHandler *handlers.DealHandler,
	accountHandler *handlers.AccountHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Wallet auth (public)
	api.Post("/auth/proof-payload", authHandler.GeneratePayload)
	api.Post("/auth/verify", authHandler.VerifyProof)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Token registry
	protected.Post("/tokens", tokenHandler.AddToken)
	protected.Get("/tokens", tokenHandler.ListTokens)

	// Roles
	protected.Post("/roles", tokenHandler.GrantRole)
	protected.Get("/roles/:address", tokenHandler.RolesOf)

	// Deals
	protected.Post("/deals", dealHandler.CreateDeal)
	protected.Get("/deals", dealHandler.ListDeals)
	protected.Get("/deals/:id", dealHandler.GetDeal)
	protected.Post("/deals/:id/pay", dealHandler.PayDeal)
	protected.Post("/deals/:id/finalize", dealHandler.FinalizeDeal)
	protected.Post("/deals/:id/cancel", dealHandler.CancelDeal)
	protected.Get("/deals/:id/payment", dealHandler.GetPaymentInfo)

	// Accounts
	protected.Get("/me/balance", accountHandler.Balance)
	protected.Get("/me/allowance", accountHandler.Allowance)
	protected.Post("/me/allowance", accountHandler.Approve)
	protected.Post("/accounts/credit", accountHandler.Credit)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
