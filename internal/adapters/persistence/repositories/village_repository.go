package repositories

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// villageRepository implements VillageRepository interface
type villageRepository struct {
	db *gorm.DB
}

// NewVillageRepository creates a new village repository
func NewVillageRepository(db *gorm.DB) VillageRepository {
	return &villageRepository{db: db}
}

// Create creates a new village
func (r *villageRepository) Create(ctx context.Context, village *models.Village) error {
	return r.db.WithContext(ctx).Create(village).Error
}

// GetByID gets a village by ID
func (r *villageRepository) GetByID(ctx context.Context, id uint) (*models.Village, error) {
	var village models.Village
	if err := r.db.WithContext(ctx).First(&village, id).Error; err != nil {
		return nil, err
	}
	return &village, nil
}

// ExistsByName checks if another village already uses name
func (r *villageRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Village{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ListWithCounts lists villages with the number of users in each
func (r *villageRepository) ListWithCounts(ctx context.Context, offset, limit int) ([]*models.Village, error) {
	var villages []*models.Village
	err := r.db.WithContext(ctx).Model(&models.Village{}).
		Select("villages.*, COUNT(users.id) AS member_count").
		Joins("LEFT JOIN users ON users.village_id = villages.id").
		Group("villages.id").
		Order("villages.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&villages).Error
	return villages, err
}

// Update updates a village
func (r *villageRepository) Update(ctx context.Context, village *models.Village) error {
	return r.db.WithContext(ctx).Model(village).Updates(map[string]interface{}{
		"name":     village.Name,
		"district": village.District,
	}).Error
}

// Delete deletes a village
func (r *villageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Village{}, id).Error
}
