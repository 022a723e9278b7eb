package services

import (
	"context"
	"encoding/json"
	"time"

	"microloan/internal/core/domain"
	"microloan/internal/pkg/logger"

	"go.uber.org/zap"
)

// Notification event names
const (
	NotifyApplicationSubmitted = "application.submitted"
	NotifyStatusChanged        = "application.status_changed"
	NotifyPaymentConfirmed     = "payment.confirmed"
)

// Notification is the payload published for every lifecycle event
type Notification struct {
	Event         string    `json:"event"`
	ApplicationID string    `json:"applicationId"`
	Email         string    `json:"email"`
	FromStatus    string    `json:"fromStatus,omitempty"`
	ToStatus      string    `json:"toStatus,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	TrackingID    string    `json:"trackingId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NotificationService publishes lifecycle notifications. Failures are logged
// and never reach the caller.
type NotificationService struct {
	publisher EventPublisher
	log       *zap.Logger
}

// NewNotificationService creates a new notification service. A nil publisher
// disables notifications.
func NewNotificationService(publisher EventPublisher, log *zap.Logger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		log:       logger.OrNop(log),
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s != nil && s.publisher != nil
}

func (s *NotificationService) send(ctx context.Context, n *Notification) {
	if !s.IsEnabled() {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Warn("encode notification failed", zap.String("event", n.Event), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, n.ApplicationID, payload); err != nil {
		s.log.Warn("publish notification failed",
			zap.String("event", n.Event),
			zap.String("application_id", n.ApplicationID),
			zap.Error(err),
		)
	}
}

// NotifyApplicationSubmitted announces a new application
func (s *NotificationService) NotifyApplicationSubmitted(ctx context.Context, app *domain.Application) {
	s.send(ctx, &Notification{
		Event:         NotifyApplicationSubmitted,
		ApplicationID: app.ID,
		Email:         app.BorrowerEmail,
		ToStatus:      string(app.Status),
		Amount:        app.LoanAmount.StringFixed(2),
		OccurredAt:    app.AppliedAt,
	})
}

// NotifyStatusChanged announces an approve/reject decision
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, app *domain.Application, from domain.ApplicationStatus) {
	s.send(ctx, &Notification{
		Event:         NotifyStatusChanged,
		ApplicationID: app.ID,
		Email:         app.BorrowerEmail,
		FromStatus:    string(from),
		ToStatus:      string(app.Status),
		OccurredAt:    time.Now().UTC(),
	})
}

// NotifyPaymentConfirmed announces a recorded fee payment
func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, p *domain.Payment) {
	s.send(ctx, &Notification{
		Event:         NotifyPaymentConfirmed,
		ApplicationID: p.ApplicationID,
		Email:         p.CustomerEmail,
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		TrackingID:    p.TrackingID,
		OccurredAt:    p.PaidAt,
	})
}
