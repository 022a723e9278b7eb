package handlers

import (
	"time"

	"microloan/internal/core/domain"

	"github.com/shopspring/decimal"
)

// LoanResponse is the public view of a loan product
type LoanResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	InterestRate decimal.Decimal `json:"interestRate"`
	MaxLoanLimit decimal.Decimal `json:"maxLoanLimit"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func toLoanResponse(l *domain.LoanProduct) *LoanResponse {
	return &LoanResponse{
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

// ApplicationResponse is the view of a loan application
type ApplicationResponse struct {
	ID                   string          `json:"id"`
	UserEmail            string          `json:"userEmail"`
	LoanID               string          `json:"loanId"`
	LoanAmount           decimal.Decimal `json:"loanAmount"`
	Purpose              string          `json:"purpose"`
	Status               string          `json:"status"`
	AppliedAt            time.Time       `json:"appliedAt"`
	ApprovedAt           *time.Time      `json:"approvedAt,omitempty"`
	ApplicationFeeStatus string          `json:"applicationFeeStatus"`
	TrackingID           *string         `json:"trackingId,omitempty"`
}

func toApplicationResponse(a *domain.Application) *ApplicationResponse {
	return &ApplicationResponse{
		ID:                   a.ID,
		UserEmail:            a.BorrowerEmail,
		LoanID:               a.LoanProductRef,
		LoanAmount:           a.LoanAmount,
		Purpose:              a.Purpose,
		Status:               string(a.Status),
		AppliedAt:            a.AppliedAt,
		ApprovedAt:           a.ApprovedAt,
		ApplicationFeeStatus: string(a.FeeStatus),
		TrackingID:           a.TrackingID,
	}
}

func toApplicationResponses(apps []*domain.Application) []*ApplicationResponse {
	out := make([]*ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}

// EventResponse is one history entry of an application
type EventResponse struct {
	Type        string    `json:"type"`
	FromStatus  string    `json:"fromStatus,omitempty"`
	ToStatus    string    `json:"toStatus,omitempty"`
	PerformedBy string    `json:"performedBy"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toEventResponse(e *domain.ApplicationEvent) *EventResponse {
	return &EventResponse{
		Type:        string(e.Type),
		FromStatus:  e.FromStatus,
		ToStatus:    e.ToStatus,
		PerformedBy: e.PerformedBy,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

// PaymentResponse is the view of a recorded fee payment
type PaymentResponse struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"applicationId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customerEmail"`
	TransactionID string          `json:"transactionId"`
	PaymentStatus string          `json:"paymentStatus"`
	PaidAt        time.Time       `json:"paidAt"`
	TrackingID    string          `json:"trackingId"`
}

func toPaymentResponse(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
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

// UserResponse is the view of a user record
type UserResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{Email: u.Email, Role: string(u.Role), CreatedAt: u.CreatedAt}
}
