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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplicationService owns the application entity and its status transitions
type ApplicationService struct {
	store         repositories.Store
	notifyService *NotificationService
	log           *zap.Logger
	now           func() time.Time
}

// NewApplicationService creates a new application lifecycle service
func NewApplicationService(store repositories.Store, notifyService *NotificationService, log *zap.Logger) *ApplicationService {
	return &ApplicationService{
		store:         store,
		notifyService: notifyService,
		log:           logger.OrNop(log),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput represents submit application input. Status and timestamps are
// never taken from the caller.
type SubmitInput struct {
	LoanProductRef string
	LoanAmount     decimal.Decimal
	Purpose        string
	IPAddress      string
}

// Submit creates a pending application for the borrower
func (s *ApplicationService) Submit(ctx context.Context, borrower domain.Principal, input *SubmitInput) (*domain.Application, error) {
	loanID, err := parseID("loan", input.LoanProductRef)
	if err != nil {
		return nil, err
	}

	loan, err := s.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("loan %s: %w", loanID, domain.ErrNotFound)
		}
		return nil, upstream("get loan", err)
	}
	if !input.LoanAmount.IsPositive() {
		return nil, fmt.Errorf("loan amount must be positive: %w", domain.ErrInvalidRequest)
	}
	if input.LoanAmount.GreaterThan(loan.MaxLoanLimit) {
		return nil, fmt.Errorf("loan amount %s exceeds limit %s: %w",
			input.LoanAmount, loan.MaxLoanLimit, domain.ErrInvalidRequest)
	}

	now := s.now()
	app := &domain.Application{
		ID:             uuid.NewString(),
		BorrowerEmail:  normalizeEmail(borrower.Email),
		LoanProductRef: loan.ID,
		LoanAmount:     input.LoanAmount,
		Purpose:        strings.TrimSpace(input.Purpose),
		Status:         domain.StatusPending,
		AppliedAt:      now,
		FeeStatus:      domain.FeeUnpaid,
	}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			return err
		}
		return tx.Events().Create(ctx, &domain.ApplicationEvent{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Type:          domain.EventCreate,
			ToStatus:      string(domain.StatusPending),
			PerformedBy:   app.BorrowerEmail,
			IPAddress:     input.IPAddress,
			Description:   "application submitted",
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, upstream("create application", err)
	}

	s.log.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("borrower", app.BorrowerEmail),
		zap.String("loan_id", loan.ID),
	)
	s.notifyService.NotifyApplicationSubmitted(ctx, app)
	return app, nil
}

// load fetches an application and maps storage errors
func (s *ApplicationService) load(ctx context.Context, id string) (*domain.Application, error) {
	id, err := parseID("application", id)
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
	return app, nil
}

func canView(caller domain.Principal, app *domain.Application) bool {
	return caller.Role.IsStaff() || strings.EqualFold(caller.Email, app.BorrowerEmail)
}

// Get returns one application to its borrower or to staff
func (s *ApplicationService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, app) {
		return nil, fmt.Errorf("application %s: %w", app.ID, domain.ErrForbidden)
	}
	return app, nil
}

// ListByBorrower lists the applications of email. Borrowers may only list their own.
func (s *ApplicationService) ListByBorrower(ctx context.Context, caller domain.Principal, email string, page domain.Page) ([]*domain.Application, int64, error) {
	email = normalizeEmail(email)
	if email == "" {
		email = normalizeEmail(caller.Email)
	}
	if !caller.Role.IsStaff() && email != normalizeEmail(caller.Email) {
		return nil, 0, fmt.Errorf("list applications of %s: %w", email, domain.ErrForbidden)
	}
	return s.list(ctx, repositories.ApplicationFilter{BorrowerEmail: email}, page)
}

// ListPending lists pending applications (manager/admin)
func (s *ApplicationService) ListPending(ctx context.Context, caller domain.Principal, page domain.Page) ([]*domain.Application, int64, error) {
	if err := requireStaff(caller, "list pending applications"); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repositories.ApplicationFilter{Status: domain.StatusPending}, page)
}

// ListApproved lists approved applications (manager/admin)
func (s *ApplicationService) ListApproved(ctx context.Context, caller domain.Principal, page domain.Page) ([]*domain.Application, int64, error) {
	if err := requireStaff(caller, "list approved applications"); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repositories.ApplicationFilter{Status: domain.StatusApproved}, page)
}

func (s *ApplicationService) list(ctx context.Context, filter repositories.ApplicationFilter, page domain.Page) ([]*domain.Application, int64, error) {
	apps, total, err := s.store.Applications().List(ctx, filter, page)
	if err != nil {
		return nil, 0, upstream("list applications", err)
	}
	return apps, total, nil
}

// SetStatus moves an application to newStatus. The first approval stamps
// approvedAt; later transitions never clear it. Fee status and tracking id are
// left alone.
func (s *ApplicationService) SetStatus(ctx context.Context, id string, newStatus domain.ApplicationStatus, actor domain.Principal, ipAddress string) (*domain.Application, error) {
	if err := requireStaff(actor, "set application status"); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, domain.ErrInvalidRequest)
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var approvedAt *time.Time
	if newStatus == domain.StatusApproved {
		approvedAt = &now
	}
	from := app.Status

	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Applications().UpdateStatus(ctx, app.ID, newStatus, approvedAt); err != nil {
			return err
		}
		return tx.Events().Create(ctx, &domain.ApplicationEvent{
			ID:            uuid.NewString(),
			ApplicationID: app.ID,
			Type:          domain.EventStatusChange,
			FromStatus:    string(from),
			ToStatus:      string(newStatus),
			PerformedBy:   actor.Email,
			IPAddress:     ipAddress,
			Description:   fmt.Sprintf("status changed from %s to %s", from, newStatus),
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, upstream("update application status", err)
	}

	updated, err := s.load(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("application status changed",
		zap.String("application_id", app.ID),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)),
		zap.String("by", actor.Email),
	)
	s.notifyService.NotifyStatusChanged(ctx, updated, from)
	return updated, nil
}

// Withdraw deletes a pending, unpaid application that was never approved. A
// once-approved application may have an open checkout session. Borrowers may
// only withdraw their own; staff may withdraw any.
func (s *ApplicationService) Withdraw(ctx context.Context, id string, actor domain.Principal) error {
	app, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canView(actor, app) {
		return fmt.Errorf("withdraw application %s: not the owner: %w", app.ID, domain.ErrForbidden)
	}
	if app.Status != domain.StatusPending || app.IsFeePaid() {
		return fmt.Errorf("withdraw application %s in status %s: %w", app.ID, app.Status, domain.ErrForbidden)
	}
	if app.ApprovedAt != nil {
		return fmt.Errorf("withdraw application %s: approved at %s: %w",
			app.ID, app.ApprovedAt.Format(time.RFC3339), domain.ErrForbidden)
	}

	deleted, err := s.store.Applications().DeletePending(ctx, app.ID)
	if err != nil {
		return upstream("delete application", err)
	}
	if !deleted {
		// approved, rejected or paid between the read and the delete
		return fmt.Errorf("withdraw application %s: no longer pending: %w", app.ID, domain.ErrForbidden)
	}

	s.log.Info("application withdrawn", zap.String("application_id", app.ID), zap.String("by", actor.Email))
	return nil
}

// History returns the audit trail of an application
func (s *ApplicationService) History(ctx context.Context, caller domain.Principal, id string) ([]*domain.ApplicationEvent, error) {
	app, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	events, err := s.store.Events().ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, upstream("list application events", err)
	}
	return events, nil
}
