package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone,omitempty"`
	Role        enums.Role `json:"role"`
	Pincode     string     `json:"pincode"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	BloodGroup  *enums.BloodGroup `json:"blood_group,omitempty"`
	IsAvailable bool              `json:"is_available"`
	Points      int               `json:"points"`
	Badge       enums.BadgeLevel  `json:"badge"`

	HospitalName       *string                   `json:"hospital_name,omitempty"`
	Address            *string                   `json:"address,omitempty"`
	VerificationStatus *enums.VerificationStatus `json:"verification_status,omitempty"`
	VerificationNotes  *string                   `json:"verification_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         enums.Role
	Pincode      string

	BloodGroup  *enums.BloodGroup
	IsAvailable bool

	HospitalName *string
	Address      *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Phone:              u.Phone,
		Role:               u.Role,
		Pincode:            u.Pincode,
		IsActive:           u.IsActive,
		LastLoginAt:        u.LastLoginAt,
		BloodGroup:         u.BloodGroup,
		IsAvailable:        u.IsAvailable,
		Points:             u.Points,
		Badge:              u.Badge,
		HospitalName:       u.HospitalName,
		Address:            u.Address,
		VerificationStatus: u.VerificationStatus,
		VerificationNotes:  u.VerificationNotes,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	badge := enums.BadgeLevelBronze

	user := &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Name:         c.Name,
		Phone:        c.Phone,
		Role:         c.Role,
		Pincode:      c.Pincode,
		IsActive:     true,
		BloodGroup:   c.BloodGroup,
		IsAvailable:  c.IsAvailable,
		Badge:        badge,
		HospitalName: c.HospitalName,
		Address:      c.Address,
	}

	if c.Role == enums.RoleHospital {
		pending := enums.VerificationStatusPending
		user.VerificationStatus = &pending
	}

	return user
}
