package repositories

import (
	"context"
	"time"

	"microloan/internal/core/domain"
)

// UserRepository defines user (role store) repository interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateRole(ctx context.Context, email string, role domain.Role) error
	List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error)
}

// LoanRepository defines loan product repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.LoanProduct) error
	GetByID(ctx context.Context, id string) (*domain.LoanProduct, error)
	// List returns products ordered by max loan limit, smallest first
	List(ctx context.Context, page domain.Page) ([]*domain.LoanProduct, int64, error)
	Update(ctx context.Context, loan *domain.LoanProduct) error
	Delete(ctx context.Context, id string) error
}

// ApplicationFilter narrows application listings; zero fields match everything
type ApplicationFilter struct {
	BorrowerEmail string
	Status        domain.ApplicationStatus
}

// ApplicationRepository defines application repository interface
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	// List returns applications newest first
	List(ctx context.Context, filter ApplicationFilter, page domain.Page) ([]*domain.Application, int64, error)
	// UpdateStatus sets the status; a non-nil approvedAt is stored only when no
	// approval timestamp exists yet.
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, approvedAt *time.Time) error
	// ClaimFeePayment marks the fee paid with trackingID unless a tracking id is
	// already stored, and returns the tracking id the application ends up with.
	ClaimFeePayment(ctx context.Context, id, trackingID string) (string, error)
	ExistsByTrackingID(ctx context.Context, trackingID string) (bool, error)
	// DeletePending removes the application only while it is pending, unpaid
	// and has never been approved
	DeletePending(ctx context.Context, id string) (bool, error)
	// ListPaidWithoutPayment returns paid applications that have no payment row
	ListPaidWithoutPayment(ctx context.Context, limit int) ([]*domain.Application, error)
	CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error)
	CountFeePaid(ctx context.Context) (int64, error)
}

// PaymentRepository defines payment repository interface
type PaymentRepository interface {
	// Create fails with domain.ErrDuplicate when the transaction id is already recorded
	Create(ctx context.Context, payment *domain.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*domain.Payment, error)
	// List returns payments newest first; empty email lists all
	List(ctx context.Context, customerEmail string, page domain.Page) ([]*domain.Payment, int64, error)
	// Totals sums payments made at or after since, per currency
	Totals(ctx context.Context, since time.Time) ([]domain.PaymentTotal, error)
}

// EventRepository defines application history repository interface
type EventRepository interface {
	Create(ctx context.Context, event *domain.ApplicationEvent) error
	ListByApplication(ctx context.Context, applicationID string) ([]*domain.ApplicationEvent, error)
}

// Store groups the repositories of one backend
type Store interface {
	Users() UserRepository
	Loans() LoanRepository
	Applications() ApplicationRepository
	Payments() PaymentRepository
	Events() EventRepository
	// WithinTransaction runs fn against a transactional view of the store.
	// Backends without multi-document transactions run fn directly.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
