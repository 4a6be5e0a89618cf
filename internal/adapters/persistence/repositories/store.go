package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// gormStore implements Store on top of a *gorm.DB, which may be a transaction
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a new repository store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository       { return NewUserRepository(s.db) }
func (s *gormStore) Payments() PaymentRepository { return NewPaymentRepository(s.db) }
func (s *gormStore) Villages() VillageRepository { return NewVillageRepository(s.db) }
func (s *gormStore) Events() EventRepository     { return NewEventRepository(s.db) }
func (s *gormStore) Family() FamilyRepository    { return NewFamilyRepository(s.db) }

// Transaction runs fn in a database transaction
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// IsNotFound reports whether err means no row matched
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a unique constraint violation.
// Drivers without error translation are matched on their message.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
