package routes

import (
	"time"

	"microloan/internal/adapters/http/handlers"
	"microloan/internal/adapters/http/middleware"
	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/config"
	"microloan/internal/core/guard"
	"microloan/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// Deps carries the adapters the routes are wired to
type Deps struct {
	Config    *config.Config
	Store     repositories.Store
	Verifier  guard.IdentityVerifier
	Provider  services.PaymentProvider
	Webhooks  handlers.WebhookParser
	Publisher services.EventPublisher
	Log       *zap.Logger
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Deps) {
	cfg, log := deps.Config, deps.Log

	// Initialize services
	notifyService := services.NewNotificationService(deps.Publisher, log)
	userService := services.NewUserService(deps.Store.Users(), log)
	loanService := services.NewLoanService(deps.Store.Loans(), log)
	appService := services.NewApplicationService(deps.Store, notifyService, log)
	paymentService := services.NewPaymentService(deps.Store, deps.Provider, notifyService, services.PaymentConfig{
		FeeAmount:   cfg.Payment.Fee,
		Currency:    cfg.Payment.Currency,
		ProductName: "Loan application fee",
		SuccessURL:  cfg.CheckoutSuccessURL(),
		CancelURL:   cfg.CheckoutCancelURL(),
	}, log)
	dashboardService := services.NewDashboardService(deps.Store)

	// Guards
	authenticated := middleware.Guard(guard.Authenticated(deps.Verifier, userService))
	staffOnly := middleware.Guard(guard.StaffOnly(deps.Verifier, userService))
	adminOnly := middleware.Guard(guard.AdminOnly(deps.Verifier, userService))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Store, cfg.AppMode)
	userHandler := handlers.NewUserHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService)
	appHandler := handlers.NewApplicationHandler(appService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, deps.Webhooks, log)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Loan catalogue: public read, staff write
	loans := apiV1.Group("/loans")
	loans.Get("/", middleware.CacheControl(time.Minute), loanHandler.List)
	loans.Get("/:id", loanHandler.Get)
	loans.Post("/", staffOnly, loanHandler.Create)
	loans.Patch("/:id", staffOnly, loanHandler.Update)
	loans.Delete("/:id", staffOnly, loanHandler.Delete)

	// Applications: borrower-scoped, staff review
	apps := apiV1.Group("/applications")
	apps.Post("/", authenticated, appHandler.Submit)
	apps.Get("/", authenticated, appHandler.ListMine)
	apps.Get("/pending", staffOnly, appHandler.ListPending)
	apps.Get("/approved", staffOnly, appHandler.ListApproved)
	apps.Patch("/status/:id", staffOnly, appHandler.UpdateStatus)
	apps.Get("/:id", authenticated, appHandler.Get)
	apps.Get("/:id/history", authenticated, appHandler.History)
	apps.Delete("/:id", authenticated, appHandler.Withdraw)

	// Payments
	apiV1.Post("/create-checkout-session", middleware.CheckoutRateLimiter(), authenticated, paymentHandler.CreateCheckoutSession)
	apiV1.Patch("/payment-success", middleware.NoCacheHeaders(), paymentHandler.ConfirmPayment)
	apiV1.Post("/webhooks/stripe", paymentHandler.Webhook)
	payments := apiV1.Group("/payments", middleware.NoCacheHeaders())
	payments.Get("/", authenticated, paymentHandler.List)
	payments.Get("/by-application/:id", authenticated, paymentHandler.GetByApplication)

	// Staff dashboard
	apiV1.Get("/dashboard", staffOnly, middleware.NoCacheHeaders(), dashboardHandler.GetDashboard)

	// Users & profile
	apiV1.Get("/profile", authenticated, userHandler.GetProfile)
	users := apiV1.Group("/users")
	users.Post("/", authenticated, userHandler.Register)
	users.Get("/", adminOnly, userHandler.ListUsers)
	users.Patch("/:email/role", adminOnly, userHandler.SetRole)
}
