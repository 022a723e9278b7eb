package repositories

import (
	"context"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/core/domain"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user; an existing email yields domain.ErrDuplicate
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	m := &models.User{
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	user.CreatedAt = m.CreatedAt
	return nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return user.ToDomain(), nil
}

// UpdateRole updates the role of a user
func (r *userRepository) UpdateRole(ctx context.Context, email string, role domain.Role) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("role", string(role))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, int64, error) {
	var users []*models.User
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = u.ToDomain()
	}
	return out, total, nil
}
