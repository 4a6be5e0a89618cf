package models

import (
	"time"

	"village-sabha/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity
// ============================================================

// User represents users table
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Email        string        `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string        `gorm:"size:255;not null" json:"-"`
	FullName     string        `gorm:"size:150" json:"full_name"`
	Phone        *string       `gorm:"uniqueIndex;size:20" json:"phone_number"`
	Address      string        `gorm:"size:255" json:"address"`
	Profession   string        `gorm:"size:100" json:"profession"`
	DateOfBirth  *time.Time    `json:"date_of_birth"`
	Role         domain.Role   `gorm:"size:20;not null;default:'user'" json:"role"`
	Status       domain.Status `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminComment string        `gorm:"size:255" json:"admin_comment"`
	SabhasadID   *string       `gorm:"uniqueIndex;size:20" json:"sabhasad_id"`
	VillageID    *uint         `gorm:"index" json:"village_id"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Village *Village `gorm:"foreignKey:VillageID" json:"village,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// UserResponse DTO
type UserResponse struct {
	ID           uint          `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	Phone        string        `json:"phone_number,omitempty"`
	Address      string        `json:"address,omitempty"`
	Profession   string        `json:"profession,omitempty"`
	DateOfBirth  *time.Time    `json:"date_of_birth,omitempty"`
	Role         domain.Role   `json:"role"`
	Status       domain.Status `json:"status"`
	AdminComment string        `json:"admin_comment,omitempty"`
	SabhasadID   string        `json:"sabhasad_id,omitempty"`
	VillageID    *uint         `json:"village_id,omitempty"`
	VillageName  string        `json:"village_name,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Address:      u.Address,
		Profession:   u.Profession,
		DateOfBirth:  u.DateOfBirth,
		Role:         u.Role,
		Status:       u.Status,
		AdminComment: u.AdminComment,
		VillageID:    u.VillageID,
		CreatedAt:    u.CreatedAt,
	}
	if u.Phone != nil {
		resp.Phone = *u.Phone
	}
	if u.SabhasadID != nil {
		resp.SabhasadID = *u.SabhasadID
	}
	if u.Village != nil {
		resp.VillageName = u.Village.Name
	}
	return resp
}

// Village represents villages table
type Village struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:150;not null" json:"name"`
	District    string    `gorm:"size:150" json:"district"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	MemberCount int64     `gorm:"->;-:migration" json:"member_count"`
}

func (Village) TableName() string {
	return "villages"
}

// ============================================================
// Ledger
// ============================================================

// Payment represents payments table.
// Rows are append-only: nothing in the code base updates or deletes them.
type Payment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"user_id"`
	Amount         float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string         `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Purpose        domain.Purpose `gorm:"size:30;not null;index" json:"purpose"`
	TransactionRef string         `gorm:"uniqueIndex;size:100;not null" json:"transaction_id"`
	OrderID        string         `gorm:"size:100" json:"order_id"`
	EventID        *uint          `gorm:"index" json:"event_id,omitempty"`
	Status         string         `gorm:"size:20;not null;default:'completed'" json:"status"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// DonationEvent represents donation_events table
type DonationEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Goal        float64   `gorm:"type:decimal(12,2)" json:"goal"`
	Raised      float64   `gorm:"type:decimal(12,2);not null;default:0" json:"raised"`
	Image       string    `gorm:"size:255" json:"image"`
	Category    string    `gorm:"size:50" json:"category"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DonationEvent) TableName() string {
	return "donation_events"
}

// ============================================================
// Family tree
// ============================================================

// FamilyMember represents family_members table
type FamilyMember struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Name         string    `gorm:"size:150;not null" json:"name"`
	Relation     string    `gorm:"size:50;not null" json:"relation"`
	ParentID     *uint     `gorm:"index" json:"parent_id"`
	Gender       string    `gorm:"size:10;default:'male'" json:"gender"`
	Age          *int      `json:"age"`
	Profession   string    `gorm:"size:100" json:"profession"`
	LinkedUserID *uint     `gorm:"index" json:"linked_user_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Village{},
		&User{},
		&Payment{},
		&DonationEvent{},
		&FamilyMember{},
	)
}
