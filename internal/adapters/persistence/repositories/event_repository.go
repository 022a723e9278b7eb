package repositories

import (
	"context"

	"microloan/internal/adapters/persistence/models"
	"microloan/internal/core/domain"

	"gorm.io/gorm"
)

// eventRepository implements EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new application history repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create appends a history entry
func (r *eventRepository) Create(ctx context.Context, event *domain.ApplicationEvent) error {
	return translate(r.db.WithContext(ctx).Create(models.NewApplicationEvent(event)).Error)
}

// ListByApplication gets the history of an application, oldest first
func (r *eventRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.ApplicationEvent, error) {
	var events []*models.ApplicationEvent
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ApplicationEvent, len(events))
	for i, e := range events {
		out[i] = e.ToDomain()
	}
	return out, nil
}
