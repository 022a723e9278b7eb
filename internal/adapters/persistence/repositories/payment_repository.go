package repositories

import (
	"context"
	"time"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a payment; the unique index on transaction_id is the idempotency guard
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Create(models.NewPayment(payment)).Error)
}

// GetByTransactionID gets a payment by provider transaction id
func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return p.ToDomain(), nil
}

// GetByApplicationID gets the first payment recorded for an application
func (r *paymentRepository) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("paid_at ASC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return p.ToDomain(), nil
}

// List lists payments with pagination
func (r *paymentRepository) List(ctx context.Context, customerEmail string, page domain.Page) ([]*domain.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Payment{})
		if customerEmail != "" {
			q = q.Where("customer_email = ?", customerEmail)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := scoped().Order("paid_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*domain.Payment, len(payments))
	for i, p := range payments {
		out[i] = p.ToDomain()
	}
	return out, total, nil
}

// Totals sums collected fees per currency
func (r *paymentRepository) Totals(ctx context.Context, since time.Time) ([]domain.PaymentTotal, error) {
	var rows []struct {
		Currency string
		Count    int64
		Amount   decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("currency, COUNT(*) AS count, SUM(amount) AS amount").
		Where("paid_at >= ?", since).
		Group("currency").
		Order("currency").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.PaymentTotal, len(rows))
	for i, row := range rows {
		out[i] = domain.PaymentTotal{Currency: row.Currency, Count: row.Count, Amount: row.Amount}
	}
	return out, nil
}
