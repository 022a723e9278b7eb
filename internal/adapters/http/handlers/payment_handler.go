package handlers

import (
	"microloan/internal/adapters/http/middleware"
	"microloan/internal/core/services"
	"microloan/internal/pkg/pagination"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookParser verifies provider webhook deliveries
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (sessionID string, ok bool, err error)
}

// PaymentHandler handles checkout and payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
	webhooks       WebhookParser
	log            *zap.Logger
}

// NewPaymentHandler creates a new payment handler. webhooks may be nil.
func NewPaymentHandler(paymentService *services.PaymentService, webhooks WebhookParser, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, webhooks: webhooks, log: log}
}

// CheckoutRequest represents create checkout session request
type CheckoutRequest struct {
	ApplicationID string `json:"applicationId" validate:"required"`
	PayerName     string `json:"payerName" validate:"max=200"`
}

// CreateCheckoutSession opens a hosted checkout for the application fee
// @Summary Create checkout session
// @Description Borrower pays the fixed fee of an approved application
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckoutRequest true "Checkout"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /create-checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req CheckoutRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}

	session, err := h.paymentService.CreateCheckoutSession(c.UserContext(), middleware.Principal(c), req.ApplicationID, req.PayerName)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Checkout session created", fiber.Map{
		"id":  session.ID,
		"url": session.URL,
	})
}

// ConfirmPayment reconciles a finished checkout
// @Summary Confirm payment
// @Description Idempotent; repeated calls return the recorded result
// @Tags Payments
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /payment-success [patch]
func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	result, err := h.paymentService.ConfirmPayment(c.UserContext(), c.Query("session_id"))
	if err != nil {
		return response.FromError(c, err)
	}
	if !result.Success {
		return response.Success(c, "Payment not completed", result)
	}
	return response.Success(c, "Payment confirmed", result)
}

// Webhook receives provider events
// @Summary Payment provider webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /webhooks/stripe [post]
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	if h.webhooks == nil {
		return response.NotFound(c, "Webhooks are not configured")
	}

	sessionID, ok, err := h.webhooks.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook rejected", zap.Error(err))
		return response.BadRequest(c, "Invalid webhook payload")
	}
	if !ok {
		return response.Success(c, "Event ignored", nil)
	}

	result, err := h.paymentService.ConfirmPayment(c.UserContext(), sessionID)
	if err != nil {
		h.log.Error("webhook reconciliation failed", zap.String("session_id", sessionID), zap.Error(err))
		return response.FromError(c, err)
	}
	return response.Success(c, "Event processed", result)
}

// List lists payments
// @Summary List payments
// @Description Own payments; admin may filter by any email or list all
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param email query string false "Customer email"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	payments, total, err := h.paymentService.ListPayments(c.UserContext(), middleware.Principal(c), c.Query("email"), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return response.Paginated(c, "Payments retrieved", out, pagination.GetMeta(params, total))
}

// GetByApplication gets the payment of an application
// @Summary Get payment by application
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/by-application/{id} [get]
func (h *PaymentHandler) GetByApplication(c *fiber.Ctx) error {
	payment, err := h.paymentService.GetByApplication(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment retrieved", toPaymentResponse(payment))
}
