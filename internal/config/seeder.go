package config

import (
	"context"
	"errors"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"

	"go.uber.org/zap"
)

// Seeder handles database seeding
type Seeder struct {
	users  repositories.UserRepository
	admins []string
	log    *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(users repositories.UserRepository, adminEmails []string, log *zap.Logger) *Seeder {
	return &Seeder{users: users, admins: adminEmails, log: log}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info("running database seeders")

	for _, email := range s.admins {
		if err := s.seedAdmin(ctx, email); err != nil {
			return err
		}
	}

	s.log.Info("database seeding completed", zap.Int("admins", len(s.admins)))
	return nil
}

// seedAdmin makes sure email exists with the admin role
func (s *Seeder) seedAdmin(ctx context.Context, email string) error {
	err := s.users.Create(ctx, &domain.User{Email: email, Role: domain.RoleAdmin})
	switch {
	case err == nil:
		s.log.Info("admin user created", zap.String("email", email))
		return nil
	case !errors.Is(err, domain.ErrDuplicate):
		return err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing.Role == domain.RoleAdmin {
		return nil
	}
	if err := s.users.UpdateRole(ctx, email, domain.RoleAdmin); err != nil {
		return err
	}
	s.log.Info("user promoted to admin", zap.String("email", email))
	return nil
}
