package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/db"
	"github.com/escrow-marketplace/backend/internal/events"
	apphttp "github.com/escrow-marketplace/backend/internal/http"
	"github.com/escrow-marketplace/backend/internal/http/handlers"
	"github.com/escrow-marketplace/backend/internal/oracle"
	"github.com/escrow-marketplace/backend/internal/repositories"
	"github.com/escrow-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	dealRepo := repositories.NewDealRepo(pool)
	tokenRepo := repositories.NewTokenRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	accountRepo := repositories.NewAccountRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Price oracle: HTTP feed behind a short redis cache
	var prices oracle.Source = oracle.NewHTTPSource(cfg.PriceFeedBaseURL, log)
	if cfg.PriceCacheTTL > 0 {
		prices = oracle.NewCachedSource(prices, rdb, cfg.PriceCacheTTL, log)
	}

	// Services
	registryService := services.NewRegistryService(tokenRepo, roleRepo, auditRepo, log)
	escrowService := services.NewEscrowService(dealRepo, tokenRepo, roleRepo, prices, auditRepo, publisher, cfg, log)
	accountService := services.NewAccountService(accountRepo, tokenRepo, roleRepo, auditRepo, cfg, log)

	// Seed configured admins, lawyers and the native settlement token.
	if err := registryService.Bootstrap(ctx, cfg.AdminAddresses, cfg.LawyerAddresses, cfg.NativeSymbol, cfg.NativePriceFeedRef, cfg.NativeDecimals); err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(proofRepo, cfg, log)
	tokenHandler := handlers.NewTokenHandler(registryService, log)
	dealHandler := handlers.NewDealHandler(escrowService, log)
	accountHandler := handlers.NewAccountHandler(accountService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, tokenHandler, dealHandler, accountHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
