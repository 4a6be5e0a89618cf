package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/domain"
)

// VillageService manages villages
type VillageService struct {
	store repositories.Store
}

// NewVillageService creates a new village service
func NewVillageService(store repositories.Store) *VillageService {
	return &VillageService{store: store}
}

// VillageInput represents create/update village input.
// Nil fields are left unchanged on update.
type VillageInput struct {
	Name     *string `json:"name"`
	District *string `json:"district"`
}

var errVillageExists = domain.Validation("", "village with this name already exists")

// List lists villages with their member counts
func (s *VillageService) List(ctx context.Context, offset, limit int) ([]*models.Village, error) {
	return s.store.Villages().ListWithCounts(ctx, offset, limit)
}

// Create creates a village with a unique name
func (s *VillageService) Create(ctx context.Context, input *VillageInput) (*models.Village, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, domain.Validation("", "village name is required")
	}
	name := strings.TrimSpace(*input.Name)

	exists, err := s.store.Villages().ExistsByName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errVillageExists
	}

	village := &models.Village{Name: name}
	if input.District != nil {
		village.District = strings.TrimSpace(*input.District)
	}
	if err := s.store.Villages().Create(ctx, village); err != nil {
		if repositories.IsDuplicateKey(err) {
			return nil, errVillageExists
		}
		return nil, err
	}

	log.Printf("✅ Village created: %s", village.Name)
	return village, nil
}

// Update renames a village or changes its district
func (s *VillageService) Update(ctx context.Context, id uint, input *VillageInput) (*models.Village, error) {
	village, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Validation("", "village name is required")
		}
		exists, err := s.store.Villages().ExistsByName(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errVillageExists
		}
		village.Name = name
	}
	if input.District != nil {
		village.District = strings.TrimSpace(*input.District)
	}

	if err := s.store.Villages().Update(ctx, village); err != nil {
		if repositories.IsDuplicateKey(err) {
			return nil, errVillageExists
		}
		return nil, err
	}

	village.MemberCount, err = s.store.Users().CountByVillage(ctx, id)
	if err != nil {
		return nil, err
	}
	return village, nil
}

// Delete deletes a village no user references
func (s *VillageService) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	count, err := s.store.Users().CountByVillage(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.Conflict(domain.CodeVillageInUse, fmt.Sprintf("cannot delete village with %d members", count))
	}

	if err := s.store.Villages().Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("✅ Village deleted: %d", id)
	return nil
}

func (s *VillageService) get(ctx context.Context, id uint) (*models.Village, error) {
	village, err := s.store.Villages().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.ErrVillageNotFound
		}
		return nil, err
	}
	return village, nil
}
