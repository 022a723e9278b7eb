package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"
	"microloan/internal/pkg/logger"
	"microloan/internal/pkg/tracking"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentStatusPaid is the provider status of a completed checkout
const PaymentStatusPaid = "paid"

// trackingIDAttempts bounds the uniqueness re-check loop
const trackingIDAttempts = 5

// PaymentConfig holds the fixed fee and checkout redirect targets
type PaymentConfig struct {
	FeeAmount   decimal.Decimal
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// ConfirmResult is the outcome of a payment confirmation
type ConfirmResult struct {
	Success         bool   `json:"success"`
	TransactionID   string `json:"transactionId,omitempty"`
	TrackingID      string `json:"trackingId,omitempty"`
	PaymentStatus   string `json:"paymentStatus"`
	AlreadyRecorded bool   `json:"alreadyRecorded"`
}

// PaymentService reconciles provider checkouts into payment records exactly once
type PaymentService struct {
	store         repositories.Store
	provider      PaymentProvider
	notifyService *NotificationService
	cfg           PaymentConfig
	log           *zap.Logger
	now           func() time.Time
	newTracking   func(time.Time) (string, error)
}

// NewPaymentService creates a new payment reconciliation service
func NewPaymentService(
	store repositories.Store,
	provider PaymentProvider,
	notifyService *NotificationService,
	cfg PaymentConfig,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		store:         store,
		provider:      provider,
		notifyService: notifyService,
		cfg:           cfg,
		log:           logger.OrNop(log),
		now:           func() time.Time { return time.Now().UTC() },
		newTracking:   tracking.NewID,
	}
}

// CreateCheckoutSession opens a hosted checkout for the application fee.
// Nothing is stored locally; the session metadata carries the application id.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, payer domain.Principal, applicationID, payerName string) (*CheckoutSession, error) {
	id, err := parseID("application", applicationID)
	if err != nil {
		return nil, err
	}
	app, err := s.store.Applications().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return nil, upstream("get application", err)
	}
	if !strings.EqualFold(app.BorrowerEmail, payer.Email) {
		return nil, fmt.Errorf("checkout for application %s: not the owner: %w", id, domain.ErrForbidden)
	}
	if app.Status != domain.StatusApproved {
		return nil, fmt.Errorf("checkout for application %s in status %s: %w", id, app.Status, domain.ErrInvalidRequest)
	}
	if app.IsFeePaid() {
		return nil, fmt.Errorf("application %s fee already paid: %w", id, domain.ErrInvalidRequest)
	}

	session, err := s.provider.CreateSession(ctx, &SessionRequest{
		Amount:        s.cfg.FeeAmount,
		Currency:      s.cfg.Currency,
		CustomerEmail: app.BorrowerEmail,
		ProductName:   s.cfg.ProductName,
		Metadata: map[string]string{
			MetadataApplicationID: app.ID,
			MetadataPayerName:     strings.TrimSpace(payerName),
		},
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		s.log.Error("create checkout session failed", zap.String("application_id", app.ID), zap.Error(err))
		return nil, upstream("create checkout session", err)
	}

	s.log.Info("checkout session created",
		zap.String("application_id", app.ID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// ConfirmPayment converts a provider confirmation into one Payment row and a
// paid application. Safe to call repeatedly and concurrently for a session.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id required: %w", domain.ErrInvalidRequest)
	}

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.log.Error("retrieve checkout session failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, upstream("retrieve checkout session", err)
	}

	if session.TransactionID != "" {
		existing, err := s.store.Payments().GetByTransactionID(ctx, session.TransactionID)
		switch {
		case err == nil:
			return recordedResult(existing), nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, upstream("get payment", err)
		}
	}

	if session.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{
			Success:       false,
			TransactionID: session.TransactionID,
			PaymentStatus: session.PaymentStatus,
		}, nil
	}
	if session.TransactionID == "" {
		return nil, upstream("confirm payment", fmt.Errorf("paid session %s carries no transaction id", sessionID))
	}

	app, err := s.applicationFromSession(ctx, session)
	if err != nil {
		return nil, err
	}

	trackingID, err := s.trackingIDFor(ctx, app)
	if err != nil {
		return nil, err
	}

	now := s.now()
	email := session.CustomerEmail
	if email == "" {
		email = app.BorrowerEmail
	}
	payment := &domain.Payment{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Amount:        session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: normalizeEmail(email),
		TransactionID: session.TransactionID,
		PaymentStatus: session.PaymentStatus,
		PaidAt:        now,
		TrackingID:    trackingID,
	}

	// Application first, then payment. Without a transaction a failure in
	// between leaves the claimed tracking id on the application, which the
	// next attempt reuses.
	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		effective, err := tx.Applications().ClaimFeePayment(ctx, app.ID, trackingID)
		if err != nil {
			return err
		}
		payment.TrackingID = effective
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return tx.Events().Create(ctx, &domain.ApplicationEvent{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Type:          domain.EventFeePaid,
			FromStatus:    string(domain.FeeUnpaid),
			ToStatus:      string(domain.FeePaid),
			PerformedBy:   payment.CustomerEmail,
			Description:   fmt.Sprintf("fee paid, transaction %s, tracking %s", payment.TransactionID, effective),
			CreatedAt:     now,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, gerr := s.store.Payments().GetByTransactionID(ctx, session.TransactionID); gerr == nil {
				return recordedResult(existing), nil
			}
		}
		s.log.Error("record payment failed",
			zap.String("session_id", sessionID),
			zap.String("transaction_id", session.TransactionID),
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
		return nil, upstream("record payment", err)
	}

	s.log.Info("payment recorded",
		zap.String("application_id", app.ID),
		zap.String("transaction_id", payment.TransactionID),
		zap.String("tracking_id", payment.TrackingID),
	)
	s.notifyService.NotifyPaymentConfirmed(ctx, payment)

	return &ConfirmResult{
		Success:       true,
		TransactionID: payment.TransactionID,
		TrackingID:    payment.TrackingID,
		PaymentStatus: payment.PaymentStatus,
	}, nil
}

func recordedResult(p *domain.Payment) *ConfirmResult {
	return &ConfirmResult{
		Success:         true,
		TransactionID:   p.TransactionID,
		TrackingID:      p.TrackingID,
		PaymentStatus:   p.PaymentStatus,
		AlreadyRecorded: true,
	}
}

func (s *PaymentService) applicationFromSession(ctx context.Context, session *CheckoutSession) (*domain.Application, error) {
	id, err := parseID("application", session.Metadata[MetadataApplicationID])
	if err != nil {
		return nil, fmt.Errorf("session %s metadata: %w", session.ID, err)
	}
	app, err := s.store.Applications().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return nil, upstream("get application", err)
	}
	return app, nil
}

// trackingIDFor reuses the id already claimed by the application or draws a
// fresh one that no application holds yet.
func (s *PaymentService) trackingIDFor(ctx context.Context, app *domain.Application) (string, error) {
	if app.TrackingID != nil && *app.TrackingID != "" {
		return *app.TrackingID, nil
	}
	for i := 0; i < trackingIDAttempts; i++ {
		id, err := s.newTracking(s.now())
		if err != nil {
			return "", upstream("generate tracking id", err)
		}
		taken, err := s.store.Applications().ExistsByTrackingID(ctx, id)
		if err != nil {
			return "", upstream("check tracking id", err)
		}
		if !taken {
			return id, nil
		}
		s.log.Warn("tracking id collision", zap.String("tracking_id", id))
	}
	return "", upstream("generate tracking id", fmt.Errorf("no free id after %d attempts", trackingIDAttempts))
}

// ListPayments lists payments. Non-admin callers only see their own.
func (s *PaymentService) ListPayments(ctx context.Context, caller domain.Principal, filterEmail string, page domain.Page) ([]*domain.Payment, int64, error) {
	filterEmail = normalizeEmail(filterEmail)
	if caller.Role != domain.RoleAdmin {
		own := normalizeEmail(caller.Email)
		if filterEmail == "" {
			filterEmail = own
		}
		if filterEmail != own {
			return nil, 0, fmt.Errorf("list payments of %s: %w", filterEmail, domain.ErrForbidden)
		}
	}

	payments, total, err := s.store.Payments().List(ctx, filterEmail, page)
	if err != nil {
		return nil, 0, upstream("list payments", err)
	}
	return payments, total, nil
}

// GetByApplication returns the payment of an application
func (s *PaymentService) GetByApplication(ctx context.Context, caller domain.Principal, applicationID string) (*domain.Payment, error) {
	id, err := parseID("application", applicationID)
	if err != nil {
		return nil, err
	}
	app, err := s.store.Applications().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return nil, upstream("get application", err)
	}
	if !canView(caller, app) {
		return nil, fmt.Errorf("payment of application %s: %w", id, domain.ErrForbidden)
	}

	payment, err := s.store.Payments().GetByApplicationID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no payment for application %s: %w", id, domain.ErrNotFound)
		}
		return nil, upstream("get payment", err)
	}
	return payment, nil
}
