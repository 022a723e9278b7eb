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

// LoanService handles loan product CRUD
type LoanService struct {
	loanRepo repositories.LoanRepository
	log      *zap.Logger
}

// NewLoanService creates a new loan product service
func NewLoanService(loanRepo repositories.LoanRepository, log *zap.Logger) *LoanService {
	return &LoanService{loanRepo: loanRepo, log: logger.OrNop(log)}
}

// LoanInput represents create/update loan product input
type LoanInput struct {
	Title        string
	Description  string
	Category     string
	InterestRate decimal.Decimal
	MaxLoanLimit decimal.Decimal
}

func (in *LoanInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title required: %w", domain.ErrInvalidRequest)
	}
	if in.MaxLoanLimit.IsNegative() {
		return fmt.Errorf("max loan limit must not be negative: %w", domain.ErrInvalidRequest)
	}
	if in.InterestRate.IsNegative() {
		return fmt.Errorf("interest rate must not be negative: %w", domain.ErrInvalidRequest)
	}
	return nil
}

func requireStaff(actor domain.Principal, op string) error {
	if !actor.Role.IsStaff() {
		return fmt.Errorf("%s as %q: %w", op, actor.Role, domain.ErrForbidden)
	}
	return nil
}

// Create creates a loan product issued by a manager or admin
func (s *LoanService) Create(ctx context.Context, actor domain.Principal, input *LoanInput) (*domain.LoanProduct, error) {
	if err := requireStaff(actor, "create loan"); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan := &domain.LoanProduct{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Category:     input.Category,
		InterestRate: input.InterestRate,
		MaxLoanLimit: input.MaxLoanLimit,
		CreatedBy:    actor.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, upstream("create loan", err)
	}

	s.log.Info("loan product created", zap.String("loan_id", loan.ID), zap.String("by", actor.Email))
	return loan, nil
}

// GetByID gets a loan product
func (s *LoanService) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	id, err := parseID("loan", id)
	if err != nil {
		return nil, err
	}
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
		}
		return nil, upstream("get loan", err)
	}
	return loan, nil
}

// List lists loan products ordered by max loan limit
func (s *LoanService) List(ctx context.Context, page domain.Page) ([]*domain.LoanProduct, int64, error) {
	loans, total, err := s.loanRepo.List(ctx, page)
	if err != nil {
		return nil, 0, upstream("list loans", err)
	}
	return loans, total, nil
}

// Update replaces the mutable fields of a loan product
func (s *LoanService) Update(ctx context.Context, actor domain.Principal, id string, input *LoanInput) (*domain.LoanProduct, error) {
	if err := requireStaff(actor, "update loan"); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	loan.Title = strings.TrimSpace(input.Title)
	loan.Description = input.Description
	loan.Category = input.Category
	loan.InterestRate = input.InterestRate
	loan.MaxLoanLimit = input.MaxLoanLimit
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, upstream("update loan", err)
	}
	return s.GetByID(ctx, loan.ID)
}

// Delete deletes a loan product
func (s *LoanService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	if err := requireStaff(actor, "delete loan"); err != nil {
		return err
	}
	id, err := parseID("loan", id)
	if err != nil {
		return err
	}
	if err := s.loanRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("loan %s: %w", id, domain.ErrNotFound)
		}
		return upstream("delete loan", err)
	}

	s.log.Info("loan product deleted", zap.String("loan_id", id), zap.String("by", actor.Email))
	return nil
}
