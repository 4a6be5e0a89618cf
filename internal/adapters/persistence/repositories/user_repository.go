package repositories

import (
	"context"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"

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

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Village").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIdentifier gets a user by email or phone, and by sabhasad ID when
// withSabhasad is set
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string, withSabhasad bool) (*models.User, error) {
	var user models.User
	query := r.db.WithContext(ctx).Where("email = ?", identifier).Or("phone = ?", identifier)
	if withSabhasad {
		query = query.Or("sabhasad_id = ?", identifier)
	}
	if err := query.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Village").Save(user).Error
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists users matching filter with pagination
func (r *userRepository) List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	// Count total
	if err := applyUserFilter(r.db.WithContext(ctx).Model(&models.User{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get users with pagination
	query := applyUserFilter(r.db.WithContext(ctx), filter)
	if err := query.Preload("Village").Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func applyUserFilter(query *gorm.DB, f UserFilter) *gorm.DB {
	if f.Email != "" {
		query = query.Where("email = ?", f.Email)
	}
	if f.Phone != "" {
		query = query.Where("phone = ?", f.Phone)
	}
	if f.SabhasadID != "" {
		query = query.Where("sabhasad_id = ?", f.SabhasadID)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.ExcludeRole != "" {
		query = query.Where("role <> ?", f.ExcludeRole)
	}
	if f.VillageID != nil {
		query = query.Where("village_id = ?", *f.VillageID)
	}
	return query
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ExistsByPhone checks if phone exists
func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

// CountByVillage counts users referencing a village
func (r *userRepository) CountByVillage(ctx context.Context, villageID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("village_id = ?", villageID).Count(&count).Error
	return count, err
}

// Approve moves a pending user to approved
func (r *userRepository) Approve(ctx context.Context, id uint, comment string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]interface{}{
			"status":        domain.StatusApproved,
			"admin_comment": comment,
		})
	return result.RowsAffected == 1, result.Error
}

// DeletePending hard deletes a user that is still pending
func (r *userRepository) DeletePending(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Delete(&models.User{})
	return result.RowsAffected == 1, result.Error
}

// Promote moves an approved user without a sabhasad ID to member
func (r *userRepository) Promote(ctx context.Context, id uint, sabhasadID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ? AND sabhasad_id IS NULL", id, domain.StatusApproved).
		Updates(map[string]interface{}{
			"status":      domain.StatusMember,
			"sabhasad_id": sabhasadID,
		})
	return result.RowsAffected == 1, result.Error
}

// likeEscaper escapes LIKE wildcards for an ESCAPE '!' clause.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SabhasadIDs returns the highest IDs for prefix. Longer IDs sort first so
// SAB-10000 ranks above SAB-9999.
func (r *userRepository) SabhasadIDs(ctx context.Context, prefix string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("sabhasad_id LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"-%").
		Order("LENGTH(sabhasad_id) DESC").
		Order("sabhasad_id DESC").
		Limit(limit).
		Pluck("sabhasad_id", &ids).Error
	return ids, err
}
