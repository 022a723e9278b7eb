package repositories

import (
	"context"
	"fmt"
	"time"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/core/domain"

	"gorm.io/gorm"
)

// applicationRepository implements ApplicationRepository interface
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application
func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	return translate(r.db.WithContext(ctx).Create(models.NewApplication(app)).Error)
}

// GetByID gets an application by ID
func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return app.ToDomain(), nil
}

func (r *applicationRepository) scoped(ctx context.Context, filter ApplicationFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Application{})
	if filter.BorrowerEmail != "" {
		q = q.Where("borrower_email = ?", filter.BorrowerEmail)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	return q
}

// List lists applications with pagination
func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter, page domain.Page) ([]*domain.Application, int64, error) {
	var apps []*models.Application
	var total int64

	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.scoped(ctx, filter).
		Order("applied_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]*domain.Application, len(apps))
	for i, a := range apps {
		out[i] = a.ToDomain()
	}
	return out, total, nil
}

// UpdateStatus changes the approval status; approved_at is only ever filled once
func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, approvedAt *time.Time) error {
	updates := map[string]interface{}{"status": string(status)}
	if approvedAt != nil {
		updates["approved_at"] = gorm.Expr("COALESCE(approved_at, ?)", *approvedAt)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Updates(updates)
	return translate(res.Error)
}

// ClaimFeePayment marks the fee paid unless another confirmation already did
func (r *applicationRepository) ClaimFeePayment(ctx context.Context, id, trackingID string) (string, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND tracking_id IS NULL", id).
		Updates(map[string]interface{}{
			"application_fee_status": string(domain.FeePaid),
			"tracking_id":            trackingID,
		})
	if res.Error != nil {
		return "", translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return trackingID, nil
	}

	app, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if app.TrackingID == nil {
		return "", fmt.Errorf("claim fee payment for %s: no row updated", id)
	}
	return *app.TrackingID, nil
}

// ExistsByTrackingID checks if a tracking id is already assigned
func (r *applicationRepository) ExistsByTrackingID(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Application{}).Where("tracking_id = ?", trackingID).Count(&count).Error
	return count > 0, err
}

// DeletePending deletes an application that is pending, unpaid and was never approved
func (r *applicationRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND application_fee_status = ? AND approved_at IS NULL",
			id, string(domain.StatusPending), string(domain.FeeUnpaid)).
		Delete(&models.Application{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListPaidWithoutPayment finds applications whose fee is paid but whose payment row is missing
func (r *applicationRepository) ListPaidWithoutPayment(ctx context.Context, limit int) ([]*domain.Application, error) {
	var apps []*models.Application
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Joins("LEFT JOIN payments ON payments.application_id = applications.id").
		Where("applications.application_fee_status = ?", string(domain.FeePaid)).
		Where("payments.id IS NULL").
		Order("applications.applied_at ASC").
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Application, len(apps))
	for i, a := range apps {
		out[i] = a.ToDomain()
	}
	return out, nil
}

// CountByStatus counts applications grouped by status
func (r *applicationRepository) CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ApplicationStatus(row.Status)] = row.Count
	}
	return out, nil
}

// CountFeePaid counts applications whose fee is paid
func (r *applicationRepository) CountFeePaid(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("application_fee_status = ?", string(domain.FeePaid)).
		Count(&total).Error
	return total, err
}
