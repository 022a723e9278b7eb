package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microloan/internal/adapters/http/middleware"
	"microloan/internal/adapters/http/routes"
	"microloan/internal/adapters/messaging"
	"microloan/internal/adapters/payment"
	"microloan/internal/config"
	"microloan/internal/core/services"
	"microloan/internal/pkg/jwt"
	"microloan/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "microloan/docs" // Swagger docs
)

// @title Microloan API
// @version 1.0
// @description Loan brokerage backend: catalogue, applications, fee payments

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	zl, err := logger.New(os.Getenv("APP_MODE"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// Load configuration
	cfg, err := config.Load(zl)
	if err != nil {
		zl.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := config.OpenStore(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := config.NewSeeder(store.Users(), cfg.SeedAdminEmails, zl).Run(seedCtx); err != nil {
		zl.Warn("Failed to seed admin users", zap.Error(err))
	}
	cancel()

	provider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, zl)

	var publisher services.EventPublisher
	var kafkaPublisher *messaging.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = messaging.NewKafkaPublisher(messaging.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, zl)
		if err != nil {
			zl.Fatal("Failed to create event publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
	} else {
		zl.Info("KAFKA_BROKERS not set, notifications disabled")
	}

	// Fee drift audit
	cronService := services.NewCronService(store.Applications(), cfg.Audit.Schedule, zl)
	if err := cronService.Start(); err != nil {
		zl.Fatal("Failed to start cron service", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(middleware.AppConfig(cfg))

	// Setup middlewares
	middleware.Setup(app, cfg, zl)

	// Setup routes
	routes.Setup(app, routes.Deps{
		Config:    cfg,
		Store:     store,
		Verifier:  jwt.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		Provider:  provider,
		Webhooks:  provider,
		Publisher: publisher,
		Log:       zl,
	})

	// Graceful shutdown
	go gracefulShutdown(app, zl)

	zl.Info("Server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode), zap.String("store", cfg.StoreDriver))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Error("Server stopped with error", zap.Error(err))
	}

	cronService.Stop()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			zl.Warn("Failed to flush event publisher", zap.Error(err))
		}
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		zl.Warn("Failed to close store", zap.Error(err))
	}
	zl.Info("Server stopped gracefully")
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, zl *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		zl.Error("Error during shutdown", zap.Error(err))
	}
}
