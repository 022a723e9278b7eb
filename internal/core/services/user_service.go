package services

import (
	"context"
	"errors"
	"fmt"

	"microloan/internal/adapters/persistence/repositories"
	"microloan/internal/core/domain"
	"microloan/internal/pkg/logger"

	"go.uber.org/zap"
)

// UserService handles user records and role lookup
type UserService struct {
	userRepo repositories.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      logger.OrNop(log),
	}
}

// FindRole returns the role of email, defaulting to user when no record exists
func (s *UserService) FindRole(ctx context.Context, email string) (domain.Role, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RoleUser, nil
		}
		return "", err
	}
	if !user.Role.Valid() {
		return domain.RoleUser, nil
	}
	return user.Role, nil
}

// Register records the principal on first sign-in. Registering twice returns
// the existing record and created=false.
func (s *UserService) Register(ctx context.Context, principal domain.Principal) (*domain.User, bool, error) {
	email := normalizeEmail(principal.Email)
	user := &domain.User{Email: email, Role: domain.RoleUser}

	err := s.userRepo.Create(ctx, user)
	if err == nil {
		s.log.Info("user registered", zap.String("email", email))
		return user, true, nil
	}
	if !errors.Is(err, domain.ErrDuplicate) {
		return nil, false, upstream("create user", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, upstream("get user", err)
	}
	return existing, false, nil
}

// GetProfile returns the caller's own record
func (s *UserService) GetProfile(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(principal.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %s not registered: %w", principal.Email, domain.ErrNotFound)
		}
		return nil, upstream("get user", err)
	}
	return user, nil
}

// List lists users (admin only)
func (s *UserService) List(ctx context.Context, actor domain.Principal, page domain.Page) ([]*domain.User, int64, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, 0, fmt.Errorf("list users as %s: %w", actor.Role, domain.ErrForbidden)
	}
	users, total, err := s.userRepo.List(ctx, page)
	if err != nil {
		return nil, 0, upstream("list users", err)
	}
	return users, total, nil
}

// SetRole changes the role of a user (admin only)
func (s *UserService) SetRole(ctx context.Context, actor domain.Principal, email string, role domain.Role) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("set role as %s: %w", actor.Role, domain.ErrForbidden)
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, domain.ErrInvalidRequest)
	}
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email required: %w", domain.ErrInvalidRequest)
	}

	if err := s.userRepo.UpdateRole(ctx, email, role); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		return upstream("update role", err)
	}

	s.log.Info("user role changed",
		zap.String("email", email),
		zap.String("role", string(role)),
		zap.String("by", actor.Email),
	)
	return nil
}
