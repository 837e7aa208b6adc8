package hospitals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/types"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// UpdateProfileInput carries the hospital-editable fields. Nil pointers leave
// the stored value alone.
type UpdateProfileInput struct {
	HospitalName *string            `json:"hospital_name,omitempty"`
	Address      *string            `json:"address,omitempty"`
	Phone        *string            `json:"phone,omitempty"`
	Pincode      *string            `json:"pincode,omitempty"`
	Location     *types.Coordinates `json:"location,omitempty"`
}

// Service covers the hospital profile surface.
type Service interface {
	Profile(ctx context.Context, hospitalID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, hospitalID uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error)
}

type service struct {
	users userStore
}

// NewService builds a hospital service.
func NewService(store userStore) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &service{users: store}, nil
}

func (s *service) Profile(ctx context.Context, hospitalID uuid.UUID) (*users.UserDTO, error) {
	hospital, err := s.loadHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(hospital), nil
}

func (s *service) UpdateProfile(ctx context.Context, hospitalID uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error) {
	hospital, err := s.loadHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	identityChanged := false
	if input.HospitalName != nil {
		name := strings.TrimSpace(*input.HospitalName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital name cannot be empty")
		}
		updates["hospital_name"] = name
		hospital.HospitalName = &name
		identityChanged = true
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address cannot be empty")
		}
		updates["address"] = address
		hospital.Address = &address
		identityChanged = true
	}
	if input.Phone != nil {
		updates["phone"] = input.Phone
		hospital.Phone = input.Phone
	}
	if input.Pincode != nil {
		pincode := strings.TrimSpace(*input.Pincode)
		if pincode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode cannot be empty")
		}
		updates["pincode"] = pincode
		hospital.Pincode = pincode
	}
	if input.Location != nil {
		if err := input.Location.Validate(); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates")
		}
		lat, lng := input.Location.Lat, input.Location.Lng
		updates["latitude"] = lat
		updates["longitude"] = lng
		hospital.Latitude = &lat
		hospital.Longitude = &lng
	}
	if len(updates) == 0 {
		return users.FromModel(hospital), nil
	}

	// Renaming or relocating a verified hospital sends it back through
	// admin review.
	if identityChanged {
		pending := enums.VerificationStatusPending
		updates["verification_status"] = pending
		updates["verified_at"] = nil
		hospital.VerificationStatus = &pending
		hospital.VerifiedAt = nil
	}

	if err := s.users.UpdateColumns(ctx, hospitalID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update hospital profile")
	}
	return users.FromModel(hospital), nil
}

func (s *service) loadHospital(ctx context.Context, hospitalID uuid.UUID) (*models.User, error) {
	if hospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	hospital, err := s.users.FindByID(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load hospital")
	}
	if hospital.Role != enums.RoleHospital {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hospitals can use this endpoint")
	}
	return hospital, nil
}
