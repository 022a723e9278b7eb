package services

import (
	"context"
	"fmt"
	"strings"

	"microloan/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionRequest describes a hosted checkout to open at the payment provider
type SessionRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	ProductName   string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the provider's view of a hosted checkout
type CheckoutSession struct {
	ID            string
	URL           string
	TransactionID string
	PaymentStatus string
	AmountTotal   decimal.Decimal
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentProvider is the external checkout/payment-capture service
type PaymentProvider interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// EventPublisher delivers notification payloads to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Session metadata keys
const (
	MetadataApplicationID = "applicationId"
	MetadataPayerName     = "payerName"
)

// parseID validates a resource id
func parseID(kind, id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("malformed %s id %q: %w", kind, id, domain.ErrInvalidRequest)
	}
	return parsed.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// upstream wraps a storage or provider failure
func upstream(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUpstream)
}
