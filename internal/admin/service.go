package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountByRole(ctx context.Context, role enums.Role) (int64, error)
	CountDonorsByBloodGroup(ctx context.Context) (map[enums.BloodGroup]int64, error)
	ListHospitalsByVerification(ctx context.Context, status enums.VerificationStatus) ([]models.User, error)
}

type requestCounter interface {
	CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error)
}

// Service is the admin surface for platform stats and hospital review.
type Service interface {
	Stats(ctx context.Context) (*StatsDTO, error)
	PendingHospitals(ctx context.Context) ([]users.UserDTO, error)
	VerifyHospital(ctx context.Context, hospitalID uuid.UUID, input VerifyHospitalInput) (*users.UserDTO, error)
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*users.UserDTO, error)
}

type service struct {
	users    userStore
	requests requestCounter
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies for the admin service.
type ServiceParams struct {
	Users    userStore
	Requests requestCounter
	Logger   *logger.Logger
}

// NewService builds an admin service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request counter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{users: params.Users, requests: params.Requests, logg: params.Logger}, nil
}

func (s *service) Stats(ctx context.Context) (*StatsDTO, error) {
	donors, err := s.users.CountByRole(ctx, enums.RoleDonor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count donors")
	}
	hospitals, err := s.users.CountByRole(ctx, enums.RoleHospital)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count hospitals")
	}
	byBloodGroup, err := s.users.CountDonorsByBloodGroup(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count donors by blood group")
	}
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count requests")
	}
	pending, err := s.users.ListHospitalsByVerification(ctx, enums.VerificationStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending hospitals")
	}

	return &StatsDTO{
		Donors:              donors,
		Hospitals:           hospitals,
		DonorsByBloodGroup:  byBloodGroup,
		RequestsByStatus:    byStatus,
		PendingVerification: int64(len(pending)),
	}, nil
}

func (s *service) PendingHospitals(ctx context.Context) ([]users.UserDTO, error) {
	pending, err := s.users.ListHospitalsByVerification(ctx, enums.VerificationStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending hospitals")
	}
	out := make([]users.UserDTO, 0, len(pending))
	for i := range pending {
		out = append(out, *users.FromModel(&pending[i]))
	}
	return out, nil
}

func (s *service) VerifyHospital(ctx context.Context, hospitalID uuid.UUID, input VerifyHospitalInput) (*users.UserDTO, error) {
	hospital, err := s.loadUser(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if hospital.Role != enums.RoleHospital {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a hospital")
	}
	if hospital.VerificationStatus == nil || *hospital.VerificationStatus != enums.VerificationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "hospital is not pending review")
	}

	status := enums.VerificationStatusRejected
	updates := map[string]any{"verification_notes": input.Notes}
	if input.Approve {
		status = enums.VerificationStatusApproved
		now := time.Now().UTC()
		updates["verified_at"] = now
		hospital.VerifiedAt = &now
	}
	updates["verification_status"] = status
	hospital.VerificationStatus = &status
	hospital.VerificationNotes = input.Notes

	if err := s.users.UpdateColumns(ctx, hospitalID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update verification")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"hospital_id": hospitalID.String(),
		"decision":    status.String(),
	})
	s.logg.Info(ctx, "hospital verification reviewed")

	return users.FromModel(hospital), nil
}

func (s *service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be toggled")
	}
	if err := s.users.UpdateColumns(ctx, userID, map[string]any{"is_active": active}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update active flag")
	}
	user.IsActive = active
	return users.FromModel(user), nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
