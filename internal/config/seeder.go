package config

import (
	"log"
	"strings"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db   *gorm.DB
	seed SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, seed SeedConfig) *Seeder {
	return &Seeder{db: db, seed: seed}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedVillages(); err != nil {
		log.Printf("⚠️ Village seeder skipped: %v", err)
	}

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedVillages creates the default villages when the table is empty
func (s *Seeder) seedVillages() error {
	var count int64
	if err := s.db.Model(&models.Village{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	villages := ParseVillages(s.seed.Villages)
	if len(villages) == 0 {
		return nil
	}
	if err := s.db.Create(&villages).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d villages", len(villages))
	return nil
}

// ParseVillages turns NAME:DISTRICT entries into villages, skipping blanks
func ParseVillages(entries []string) []models.Village {
	var villages []models.Village
	for _, entry := range entries {
		name, district, _ := strings.Cut(strings.TrimSpace(entry), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		villages = append(villages, models.Village{Name: name, District: strings.TrimSpace(district)})
	}
	return villages
}

// seedAdminUser seeds the default admin user.
// Nothing is created unless SEED_ADMIN_PASSWORD is set.
func (s *Seeder) seedAdminUser() error {
	if s.seed.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD not set")
		return nil
	}

	// Check if admin already exists
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash(s.seed.AdminPassword)
	if err != nil {
		return err
	}

	// Admins hold no sabhasad ID, so they stay approved
	admin := &models.User{
		Email:        strings.ToLower(s.seed.AdminEmail),
		PasswordHash: hashedPassword,
		FullName:     s.seed.AdminName,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusApproved,
		AdminComment: "Seeded administrator",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}
