package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents user role in the system
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsStaff returns true for manager and admin
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// ApplicationStatus is the approval dimension of an application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// FeeStatus is the fee-payment dimension of an application
type FeeStatus string

const (
	FeeUnpaid FeeStatus = "unpaid"
	FeePaid   FeeStatus = "paid"
)

// User represents a registered principal
type User struct {
	Email     string
	Role      Role
	CreatedAt time.Time
}

// LoanProduct is a published loan offer
type LoanProduct struct {
	ID           string
	Title        string
	Description  string
	Category     string
	InterestRate decimal.Decimal
	MaxLoanLimit decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Application is a borrower's request against a loan product
type Application struct {
	ID             string
	BorrowerEmail  string
	LoanProductRef string
	LoanAmount     decimal.Decimal
	Purpose        string
	Status         ApplicationStatus
	AppliedAt      time.Time
	ApprovedAt     *time.Time
	FeeStatus      FeeStatus
	TrackingID     *string
}

// IsFeePaid returns true once the processing fee has been reconciled
func (a *Application) IsFeePaid() bool {
	return a.FeeStatus == FeePaid
}

// Payment is the durable record of a confirmed provider transaction
type Payment struct {
	ID            string
	ApplicationID string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	TransactionID string
	PaymentStatus string
	PaidAt        time.Time
	TrackingID    string
}

// PaymentTotal aggregates collected fees in one currency
type PaymentTotal struct {
	Currency string
	Count    int64
	Amount   decimal.Decimal
}

// EventType classifies application history entries
type EventType string

const (
	EventCreate       EventType = "CREATE"
	EventStatusChange EventType = "STATUS_CHANGE"
	EventFeePaid      EventType = "FEE_PAID"
)

// ApplicationEvent is an append-only history entry of an application
type ApplicationEvent struct {
	ID            string
	ApplicationID string
	Type          EventType
	FromStatus    string
	ToStatus      string
	PerformedBy   string
	IPAddress     string
	Description   string
	CreatedAt     time.Time
}

// Principal is the verified caller attached to a request context
type Principal struct {
	Email string
	Role  Role
}

// Page is a pagination window
type Page struct {
	Offset int
	Limit  int
}
