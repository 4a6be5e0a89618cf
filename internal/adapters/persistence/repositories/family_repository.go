package repositories

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// familyRepository implements FamilyRepository interface
type familyRepository struct {
	db *gorm.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *gorm.DB) FamilyRepository {
	return &familyRepository{db: db}
}

// Create creates a new family member
func (r *familyRepository) Create(ctx context.Context, member *models.FamilyMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets one of owner's family members
func (r *familyRepository) GetByID(ctx context.Context, ownerID, id uint) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Find gets a family member regardless of owner
func (r *familyRepository) Find(ctx context.Context, id uint) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByOwner lists all family members of owner
func (r *familyRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*models.FamilyMember, error) {
	var members []*models.FamilyMember
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id ASC").Find(&members).Error
	return members, err
}

// Update updates a family member
func (r *familyRepository) Update(ctx context.Context, member *models.FamilyMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// Delete removes a family member and detaches its children
func (r *familyRepository) Delete(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.FamilyMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.FamilyMember{}).
			Where("user_id = ? AND parent_id = ?", ownerID, id).
			Update("parent_id", nil).Error
	})
}
