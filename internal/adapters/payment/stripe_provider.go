// Package payment adapts the hosted checkout provider to services.PaymentProvider.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"microloan/internal/core/services"
	"microloan/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// EventCheckoutCompleted is the webhook event that carries a finished checkout
const EventCheckoutCompleted = "checkout.session.completed"

// ErrWebhookSignature reports a webhook payload that failed verification
var ErrWebhookSignature = errors.New("invalid webhook signature")

// StripeConfig holds provider credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProvider implements services.PaymentProvider with Stripe Checkout.
// Calls go through a circuit breaker so an outage fails fast.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker
	log           *zap.Logger
}

// NewStripeProvider creates a new Stripe checkout provider
func NewStripeProvider(cfg StripeConfig, log *zap.Logger) *StripeProvider {
	log = logger.OrNop(log)
	return &StripeProvider{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		breaker:       newBreaker("stripe", log),
		log:           log,
	}
}

func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a 4xx is the caller's fault, not an outage
			var serr *stripe.Error
			if errors.As(err, &serr) {
				return serr.HTTPStatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// CreateSession opens a one-item hosted checkout
func (p *StripeProvider) CreateSession(ctx context.Context, req *services.SessionRequest) (*services.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(ToMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return toCheckoutSession(out.(*stripe.CheckoutSession)), nil
}

// RetrieveSession fetches the current state of a checkout
func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*services.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.api.CheckoutSessions.Get(sessionID, params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve checkout session %s: %w", sessionID, err)
	}
	return toCheckoutSession(out.(*stripe.CheckoutSession)), nil
}

// ParseWebhook verifies a webhook delivery and returns the checkout session id
// it refers to. ok is false for event types that need no reconciliation.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (sessionID string, ok bool, err error) {
	return parseWebhook(payload, signature, p.webhookSecret)
}

func parseWebhook(payload []byte, signature, secret string) (string, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	if event.Type != EventCheckoutCompleted {
		return "", false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", false, fmt.Errorf("decode checkout session: %w", err)
	}
	if session.ID == "" {
		return "", false, errors.New("checkout session event without id")
	}
	return session.ID, true, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *services.CheckoutSession {
	out := &services.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   FromMinorUnits(s.AmountTotal),
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.TransactionID = s.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

// ToMinorUnits converts an amount to cents
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts cents to an amount
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
