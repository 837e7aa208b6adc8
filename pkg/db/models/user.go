package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// User is the canonical identity entity for donors, hospitals and admins.
// Donor and hospital specific columns are nullable and only populated for
// the matching role.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Name         string     `gorm:"column:name;not null"`
	Phone        *string    `gorm:"column:phone"`
	Role         enums.Role `gorm:"column:role;type:text;not null"`
	Pincode      string     `gorm:"column:pincode;not null;index"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`

	// Donor profile.
	BloodGroup  *enums.BloodGroup `gorm:"column:blood_group;type:text;index"`
	IsAvailable bool              `gorm:"column:is_available;not null;default:false"`
	Points      int               `gorm:"column:points;not null;default:0"`
	Badge       enums.BadgeLevel  `gorm:"column:badge;type:text;not null;default:'Bronze'"`
	Latitude    *float64          `gorm:"column:latitude"`
	Longitude   *float64          `gorm:"column:longitude"`

	// Hospital profile.
	HospitalName       *string                   `gorm:"column:hospital_name"`
	Address            *string                   `gorm:"column:address"`
	VerificationStatus *enums.VerificationStatus `gorm:"column:verification_status;type:text"`
	VerificationNotes  *string                   `gorm:"column:verification_notes"`
	VerifiedAt         *time.Time                `gorm:"column:verified_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
