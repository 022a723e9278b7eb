package models

import (
	"time"

	"microloan/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User represents users table
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:191;not null"`
	Role      string    `gorm:"size:20;not null;default:'user'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToDomain() *domain.User {
	return &domain.User{
		Email:     u.Email,
		Role:      domain.Role(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// ============================================================
// Loan products
// ============================================================

// LoanProduct represents loans table
type LoanProduct struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Title        string          `gorm:"size:200;not null"`
	Description  string          `gorm:"type:text"`
	Category     string          `gorm:"size:100;index"`
	InterestRate decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MaxLoanLimit decimal.Decimal `gorm:"type:decimal(15,2);not null;index"`
	CreatedBy    string          `gorm:"size:191;not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

func (LoanProduct) TableName() string {
	return "loans"
}

func (l *LoanProduct) ToDomain() *domain.LoanProduct {
	return &domain.LoanProduct{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		InterestRate: l.InterestRate,
		MaxLoanLimit: l.MaxLoanLimit,
		CreatedBy:    l.CreatedBy,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func NewLoanProduct(l *domain.LoanProduct) *LoanProduct {
	return &LoanProduct{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		InterestRate: l.InterestRate,
		MaxLoanLimit: l.MaxLoanLimit,
		CreatedBy:    l.CreatedBy,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// ============================================================
// Applications
// ============================================================

// Application represents applications table
type Application struct {
	ID             string          `gorm:"primaryKey;size:36"`
	BorrowerEmail  string          `gorm:"size:191;not null;index"`
	LoanProductRef string          `gorm:"size:36;not null;index"`
	LoanAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Purpose        string          `gorm:"type:text"`
	Status         string          `gorm:"size:20;not null;index;default:'pending'"`
	AppliedAt      time.Time       `gorm:"not null;index"`
	ApprovedAt     *time.Time
	FeeStatus      string  `gorm:"column:application_fee_status;size:20;not null;default:'unpaid'"`
	TrackingID     *string `gorm:"size:40;uniqueIndex"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) ToDomain() *domain.Application {
	return &domain.Application{
		ID:             a.ID,
		BorrowerEmail:  a.BorrowerEmail,
		LoanProductRef: a.LoanProductRef,
		LoanAmount:     a.LoanAmount,
		Purpose:        a.Purpose,
		Status:         domain.ApplicationStatus(a.Status),
		AppliedAt:      a.AppliedAt,
		ApprovedAt:     a.ApprovedAt,
		FeeStatus:      domain.FeeStatus(a.FeeStatus),
		TrackingID:     a.TrackingID,
	}
}

func NewApplication(a *domain.Application) *Application {
	return &Application{
		ID:             a.ID,
		BorrowerEmail:  a.BorrowerEmail,
		LoanProductRef: a.LoanProductRef,
		LoanAmount:     a.LoanAmount,
		Purpose:        a.Purpose,
		Status:         string(a.Status),
		AppliedAt:      a.AppliedAt,
		ApprovedAt:     a.ApprovedAt,
		FeeStatus:      string(a.FeeStatus),
		TrackingID:     a.TrackingID,
	}
}

// ============================================================
// Payments
// ============================================================

// Payment represents payments table. One row per provider transaction.
type Payment struct {
	ID            string          `gorm:"primaryKey;size:36"`
	ApplicationID string          `gorm:"size:36;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Currency      string          `gorm:"size:10;not null"`
	CustomerEmail string          `gorm:"size:191;not null;index"`
	TransactionID string          `gorm:"size:191;not null;uniqueIndex"`
	PaymentStatus string          `gorm:"size:20;not null"`
	PaidAt        time.Time       `gorm:"not null;index"`
	TrackingID    string          `gorm:"size:40;not null;index"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) ToDomain() *domain.Payment {
	return &domain.Payment{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		TransactionID: p.TransactionID,
		PaymentStatus: p.PaymentStatus,
		PaidAt:        p.PaidAt,
		TrackingID:    p.TrackingID,
	}
}

func NewPayment(p *domain.Payment) *Payment {
	return &Payment{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		TransactionID: p.TransactionID,
		PaymentStatus: p.PaymentStatus,
		PaidAt:        p.PaidAt,
		TrackingID:    p.TrackingID,
	}
}

// ============================================================
// History
// ============================================================

// ApplicationEvent represents application_events table (History)
type ApplicationEvent struct {
	ID            string    `gorm:"primaryKey;size:36"`
	ApplicationID string    `gorm:"size:36;not null;index"`
	Type          string    `gorm:"size:30;not null"`
	FromStatus    string    `gorm:"size:20"`
	ToStatus      string    `gorm:"size:20"`
	PerformedBy   string    `gorm:"size:191;not null"`
	IPAddress     string    `gorm:"size:50"`
	Description   string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (ApplicationEvent) TableName() string {
	return "application_events"
}

func (e *ApplicationEvent) ToDomain() *domain.ApplicationEvent {
	return &domain.ApplicationEvent{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Type:          domain.EventType(e.Type),
		FromStatus:    e.FromStatus,
		ToStatus:      e.ToStatus,
		PerformedBy:   e.PerformedBy,
		IPAddress:     e.IPAddress,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

func NewApplicationEvent(e *domain.ApplicationEvent) *ApplicationEvent {
	return &ApplicationEvent{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Type:          string(e.Type),
		FromStatus:    e.FromStatus,
		ToStatus:      e.ToStatus,
		PerformedBy:   e.PerformedBy,
		IPAddress:     e.IPAddress,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all tables and unique indexes
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&LoanProduct{},
		&Application{},
		&Payment{},
		&ApplicationEvent{},
	)
}
