package repositories

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// eventRepository implements EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new donation event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create creates a new donation event
func (r *eventRepository) Create(ctx context.Context, event *models.DonationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetByID gets a donation event by ID
func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.DonationEvent, error) {
	var event models.DonationEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// List lists donation events, newest first
func (r *eventRepository) List(ctx context.Context) ([]*models.DonationEvent, error) {
	var events []*models.DonationEvent
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&events).Error
	return events, err
}

// AddRaised increments the raised total in place
func (r *eventRepository) AddRaised(ctx context.Context, id uint, amount float64) error {
	result := r.db.WithContext(ctx).Model(&models.DonationEvent{}).
		Where("id = ?", id).
		Update("raised", gorm.Expr("raised + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
