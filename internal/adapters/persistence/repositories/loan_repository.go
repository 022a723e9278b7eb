package repositories

import (
	"context"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan product repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan product
func (r *loanRepository) Create(ctx context.Context, loan *domain.LoanProduct) error {
	m := models.NewLoanProduct(loan)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	loan.CreatedAt, loan.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// GetByID gets a loan product by ID
func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	var loan models.LoanProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&loan).Error; err != nil {
		return nil, translate(err)
	}
	return loan.ToDomain(), nil
}

// List lists loan products, cheapest limit first
func (r *loanRepository) List(ctx context.Context, page domain.Page) ([]*domain.LoanProduct, int64, error) {
	var loans []*models.LoanProduct
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.LoanProduct{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("max_loan_limit ASC").
		Order("created_at ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]*domain.LoanProduct, len(loans))
	for i, l := range loans {
		out[i] = l.ToDomain()
	}
	return out, total, nil
}

// Update updates the mutable fields of a loan product
func (r *loanRepository) Update(ctx context.Context, loan *domain.LoanProduct) error {
	res := r.db.WithContext(ctx).
		Model(&models.LoanProduct{}).
		Where("id = ?", loan.ID).
		Updates(map[string]interface{}{
			"title":          loan.Title,
			"description":    loan.Description,
			"category":       loan.Category,
			"interest_rate":  loan.InterestRate,
			"max_loan_limit": loan.MaxLoanLimit,
		})
	return translate(res.Error)
}

// Delete soft deletes a loan product
func (r *loanRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.LoanProduct{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
