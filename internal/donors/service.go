package donors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/internal/pledges"
	"github.com/bloodlink/bloodlink-backend/internal/requests"
	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type requestReader interface {
	ListMatchedForDonor(ctx context.Context, donorID uuid.UUID) ([]models.Request, error)
}

type donationReader interface {
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
}

// UpdateProfileInput carries the donor-editable profile fields. Nil pointers
// leave the stored value alone.
type UpdateProfileInput struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Pincode    *string `json:"pincode,omitempty"`
	BloodGroup *string `json:"blood_group,omitempty"`
}

// Service covers the donor-facing profile and activity surface.
type Service interface {
	Profile(ctx context.Context, donorID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, donorID uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error)
	SetAvailability(ctx context.Context, donorID uuid.UUID, available bool) (*users.UserDTO, error)
	MatchedRequests(ctx context.Context, donorID uuid.UUID) ([]requests.RequestDTO, error)
	Donations(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error)
	Certificates(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error)
}

type service struct {
	users     userStore
	requests  requestReader
	donations donationReader
}

// ServiceParams bundles the dependencies for the donor service.
type ServiceParams struct {
	Users     userStore
	Requests  requestReader
	Donations donationReader
}

// NewService builds a donor service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request reader required")
	}
	if params.Donations == nil {
		return nil, fmt.Errorf("donation reader required")
	}
	return &service{users: params.Users, requests: params.Requests, donations: params.Donations}, nil
}

func (s *service) Profile(ctx context.Context, donorID uuid.UUID) (*users.UserDTO, error) {
	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(donor), nil
}

func (s *service) UpdateProfile(ctx context.Context, donorID uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error) {
	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
		donor.Name = name
	}
	if input.Phone != nil {
		updates["phone"] = input.Phone
		donor.Phone = input.Phone
	}
	if input.Pincode != nil {
		pincode := strings.TrimSpace(*input.Pincode)
		if pincode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode cannot be empty")
		}
		updates["pincode"] = pincode
		donor.Pincode = pincode
	}
	if input.BloodGroup != nil {
		bloodGroup, err := enums.ParseBloodGroup(*input.BloodGroup)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
		}
		updates["blood_group"] = bloodGroup
		donor.BloodGroup = &bloodGroup
	}
	if len(updates) == 0 {
		return users.FromModel(donor), nil
	}

	if err := s.users.UpdateColumns(ctx, donorID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update donor profile")
	}
	return users.FromModel(donor), nil
}

func (s *service) SetAvailability(ctx context.Context, donorID uuid.UUID, available bool) (*users.UserDTO, error) {
	donor, err := s.loadDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateColumns(ctx, donorID, map[string]any{"is_available": available}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update availability")
	}
	donor.IsAvailable = available
	return users.FromModel(donor), nil
}

// MatchedRequests lists requests whose frozen candidate set includes the
// donor. Expired and closed requests stay visible for history.
func (s *service) MatchedRequests(ctx context.Context, donorID uuid.UUID) ([]requests.RequestDTO, error) {
	if _, err := s.loadDonor(ctx, donorID); err != nil {
		return nil, err
	}
	out, err := s.requests.ListMatchedForDonor(ctx, donorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list matched requests")
	}
	return requests.FromModels(out), nil
}

func (s *service) Donations(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error) {
	if _, err := s.loadDonor(ctx, donorID); err != nil {
		return nil, err
	}
	out, err := s.donations.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list donations")
	}
	return pledges.FromModels(out), nil
}

// Certificates returns only completed donations that carry a certificate.
func (s *service) Certificates(ctx context.Context, donorID uuid.UUID) ([]pledges.DonationDTO, error) {
	all, err := s.Donations(ctx, donorID)
	if err != nil {
		return nil, err
	}
	out := make([]pledges.DonationDTO, 0, len(all))
	for _, d := range all {
		if d.Status == enums.DonationStatusCompleted && d.CertificateURL != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *service) loadDonor(ctx context.Context, donorID uuid.UUID) (*models.User, error) {
	if donorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor id is required")
	}
	donor, err := s.users.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load donor")
	}
	if donor.Role != enums.RoleDonor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only donors can use this endpoint")
	}
	return donor, nil
}
