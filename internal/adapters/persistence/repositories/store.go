package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormStore implements Store on top of GORM
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository               { return NewUserRepository(s.db) }
func (s *gormStore) Loans() LoanRepository               { return NewLoanRepository(s.db) }
func (s *gormStore) Applications() ApplicationRepository { return NewApplicationRepository(s.db) }
func (s *gormStore) Payments() PaymentRepository         { return NewPaymentRepository(s.db) }
func (s *gormStore) Events() EventRepository             { return NewEventRepository(s.db) }

// WithinTransaction runs fn inside a database transaction; any error rolls back
func (s *gormStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

// Ping checks if database is healthy
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *gormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
