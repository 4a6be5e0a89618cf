package repositories

import (
	"context"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"
)

// UserFilter narrows user listings. Zero values are ignored.
type UserFilter struct {
	Email       string
	Phone       string
	SabhasadID  string
	Statuses    []domain.Status
	Role        domain.Role
	ExcludeRole domain.Role
	VillageID   *uint
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string, withSabhasad bool) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	CountByVillage(ctx context.Context, villageID uint) (int64, error)

	// Conditional status transitions. They report false when the row
	// was not in the required source state.
	Approve(ctx context.Context, id uint, comment string) (bool, error)
	DeletePending(ctx context.Context, id uint) (bool, error)
	Promote(ctx context.Context, id uint, sabhasadID string) (bool, error)

	// SabhasadIDs returns up to limit IDs carrying prefix, highest first
	SabhasadIDs(ctx context.Context, prefix string, limit int) ([]string, error)
}

// PaymentRepository defines payment ledger interface. There is no update
// or delete on purpose.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error)
	List(ctx context.Context, offset, limit int) ([]*models.Payment, int64, error)
	CountByUser(ctx context.Context, userID uint, purpose domain.Purpose) (int64, error)
	Stats(ctx context.Context) (*PaymentStats, error)
}

// PaymentStats is the aggregate over the whole ledger
type PaymentStats struct {
	TotalCollection float64 `json:"total_collection"`
	TopDonor        string  `json:"top_donor"`
	TopDonorAmount  float64 `json:"top_donor_amount"`
}

// VillageRepository defines village repository interface
type VillageRepository interface {
	Create(ctx context.Context, village *models.Village) error
	GetByID(ctx context.Context, id uint) (*models.Village, error)
	ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error)
	ListWithCounts(ctx context.Context, offset, limit int) ([]*models.Village, error)
	Update(ctx context.Context, village *models.Village) error
	Delete(ctx context.Context, id uint) error
}

// EventRepository defines donation event repository interface
type EventRepository interface {
	Create(ctx context.Context, event *models.DonationEvent) error
	GetByID(ctx context.Context, id uint) (*models.DonationEvent, error)
	List(ctx context.Context) ([]*models.DonationEvent, error)
	AddRaised(ctx context.Context, id uint, amount float64) error
}

// FamilyRepository defines family tree repository interface
type FamilyRepository interface {
	Create(ctx context.Context, member *models.FamilyMember) error
	GetByID(ctx context.Context, ownerID, id uint) (*models.FamilyMember, error)
	Find(ctx context.Context, id uint) (*models.FamilyMember, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.FamilyMember, error)
	Update(ctx context.Context, member *models.FamilyMember) error
	Delete(ctx context.Context, ownerID, id uint) error
}

// Store groups the repositories and runs them inside one transaction
type Store interface {
	Users() UserRepository
	Payments() PaymentRepository
	Villages() VillageRepository
	Events() EventRepository
	Family() FamilyRepository

	// Transaction runs fn against a Store bound to a single database
	// transaction. fn's error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
