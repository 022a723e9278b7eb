package mongostore

import (
	"time"

	"microloan/internal/core/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	colUsers        = "users"
	colLoans        = "loans"
	colApplications = "applications"
	colPayments     = "payments"
	colEvents       = "application_events"
)

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type userDoc struct {
	Email     string    `bson:"_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{Email: d.Email, Role: domain.Role(d.Role), CreatedAt: d.CreatedAt}
}

type loanDoc struct {
	ID           string               `bson:"_id"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Category     string               `bson:"category"`
	InterestRate primitive.Decimal128 `bson:"interestRate"`
	MaxLoanLimit primitive.Decimal128 `bson:"maxLoanLimit"`
	CreatedBy    string               `bson:"createdBy"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
	DeletedAt    *time.Time           `bson:"deletedAt,omitempty"`
}

func newLoanDoc(l *domain.LoanProduct) *loanDoc {
	return &loanDoc{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		InterestRate: toDecimal128(l.InterestRate),
		MaxLoanLimit: toDecimal128(l.MaxLoanLimit),
		CreatedBy:    l.CreatedBy,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func (d *loanDoc) toDomain() *domain.LoanProduct {
	return &domain.LoanProduct{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Category:     d.Category,
		InterestRate: fromDecimal128(d.InterestRate),
		MaxLoanLimit: fromDecimal128(d.MaxLoanLimit),
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type applicationDoc struct {
	ID             string               `bson:"_id"`
	BorrowerEmail  string               `bson:"userEmail"`
	LoanProductRef string               `bson:"loanId"`
	LoanAmount     primitive.Decimal128 `bson:"loanAmount"`
	Purpose        string               `bson:"purpose"`
	Status         string               `bson:"status"`
	AppliedAt      time.Time            `bson:"appliedAt"`
	ApprovedAt     *time.Time           `bson:"approvedAt,omitempty"`
	FeeStatus      string               `bson:"applicationFeeStatus"`
	TrackingID     *string              `bson:"trackingId,omitempty"`
}

func newApplicationDoc(a *domain.Application) *applicationDoc {
	return &applicationDoc{
		ID:             a.ID,
		BorrowerEmail:  a.BorrowerEmail,
		LoanProductRef: a.LoanProductRef,
		LoanAmount:     toDecimal128(a.LoanAmount),
		Purpose:        a.Purpose,
		Status:         string(a.Status),
		AppliedAt:      a.AppliedAt,
		ApprovedAt:     a.ApprovedAt,
		FeeStatus:      string(a.FeeStatus),
		TrackingID:     a.TrackingID,
	}
}

func (d *applicationDoc) toDomain() *domain.Application {
	return &domain.Application{
		ID:             d.ID,
		BorrowerEmail:  d.BorrowerEmail,
		LoanProductRef: d.LoanProductRef,
		LoanAmount:     fromDecimal128(d.LoanAmount),
		Purpose:        d.Purpose,
		Status:         domain.ApplicationStatus(d.Status),
		AppliedAt:      d.AppliedAt,
		ApprovedAt:     d.ApprovedAt,
		FeeStatus:      domain.FeeStatus(d.FeeStatus),
		TrackingID:     d.TrackingID,
	}
}

type paymentDoc struct {
	ID            string               `bson:"_id"`
	ApplicationID string               `bson:"applicationId"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Currency      string               `bson:"currency"`
	CustomerEmail string               `bson:"customerEmail"`
	TransactionID string               `bson:"transactionId"`
	PaymentStatus string               `bson:"paymentStatus"`
	PaidAt        time.Time            `bson:"paidAt"`
	TrackingID    string               `bson:"trackingId"`
}

func newPaymentDoc(p *domain.Payment) *paymentDoc {
	return &paymentDoc{
		ID:            p.ID,
		ApplicationID: p.ApplicationID,
		Amount:        toDecimal128(p.Amount),
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		TransactionID: p.TransactionID,
		PaymentStatus: p.PaymentStatus,
		PaidAt:        p.PaidAt,
		TrackingID:    p.TrackingID,
	}
}

func (d *paymentDoc) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		Amount:        fromDecimal128(d.Amount),
		Currency:      d.Currency,
		CustomerEmail: d.CustomerEmail,
		TransactionID: d.TransactionID,
		PaymentStatus: d.PaymentStatus,
		PaidAt:        d.PaidAt,
		TrackingID:    d.TrackingID,
	}
}

type eventDoc struct {
	ID            string    `bson:"_id"`
	ApplicationID string    `bson:"applicationId"`
	Type          string    `bson:"type"`
	FromStatus    string    `bson:"fromStatus,omitempty"`
	ToStatus      string    `bson:"toStatus,omitempty"`
	PerformedBy   string    `bson:"performedBy"`
	IPAddress     string    `bson:"ipAddress,omitempty"`
	Description   string    `bson:"description"`
	CreatedAt     time.Time `bson:"createdAt"`
}

func newEventDoc(e *domain.ApplicationEvent) *eventDoc {
	return &eventDoc{
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

func (d *eventDoc) toDomain() *domain.ApplicationEvent {
	return &domain.ApplicationEvent{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		Type:          domain.EventType(d.Type),
		FromStatus:    d.FromStatus,
		ToStatus:      d.ToStatus,
		PerformedBy:   d.PerformedBy,
		IPAddress:     d.IPAddress,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
	}
}
