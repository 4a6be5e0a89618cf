package repositories

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"

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

// Create appends a payment to the ledger
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit("User").Create(payment).Error
}

// ListByUser lists a user's payments, newest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&payments).Error
	return payments, err
}

// List lists all payments with pagination, newest first
func (r *paymentRepository) List(ctx context.Context, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error

	return payments, total, err
}

// CountByUser counts a user's payments for one purpose, or all of them
// when purpose is empty
func (r *paymentRepository) CountByUser(ctx context.Context, userID uint, purpose domain.Purpose) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)
	if purpose != "" {
		query = query.Where("purpose = ?", purpose)
	}
	err := query.Count(&count).Error
	return count, err
}

// Stats aggregates the ledger
func (r *paymentRepository) Stats(ctx context.Context) (*PaymentStats, error) {
	stats := &PaymentStats{TopDonor: "N/A"}

	row := r.db.WithContext(ctx).Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&stats.TotalCollection); err != nil {
		return nil, err
	}

	var top []struct {
		FullName string
		Total    float64
	}
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("users.full_name AS full_name, SUM(payments.amount) AS total").
		Joins("JOIN users ON users.id = payments.user_id").
		Group("users.id, users.full_name").
		Order("total DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		stats.TopDonor = top[0].FullName
		stats.TopDonorAmount = top[0].Total
	}

	return stats, nil
}
