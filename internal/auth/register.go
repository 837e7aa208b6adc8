package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/security"
)

// RegisterDonorRequest contains the payload for donor onboarding.
type RegisterDonorRequest struct {
	Name        string  `json:"name" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	Phone       *string `json:"phone,omitempty"`
	BloodGroup  string  `json:"blood_group" validate:"required"`
	Pincode     string  `json:"pincode" validate:"required"`
	IsAvailable bool    `json:"is_available"`
}

// RegisterHospitalRequest contains the payload for hospital onboarding. New
// hospitals start with a pending verification status.
type RegisterHospitalRequest struct {
	Name         string  `json:"name" validate:"required"`
	HospitalName string  `json:"hospital_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Phone        *string `json:"phone,omitempty"`
	Address      string  `json:"address" validate:"required"`
	Pincode      string  `json:"pincode" validate:"required"`
}

// RegisterService handles the onboarding transaction for both roles.
type RegisterService interface {
	RegisterDonor(ctx context.Context, req RegisterDonorRequest) (*users.UserDTO, error)
	RegisterHospital(ctx context.Context, req RegisterHospitalRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) RegisterDonor(ctx context.Context, req RegisterDonorRequest) (*users.UserDTO, error) {
	bloodGroup, err := enums.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
	}

	return s.create(ctx, req.Email, req.Password, users.CreateUserDTO{
		Name:        strings.TrimSpace(req.Name),
		Phone:       req.Phone,
		Role:        enums.RoleDonor,
		Pincode:     strings.TrimSpace(req.Pincode),
		BloodGroup:  &bloodGroup,
		IsAvailable: req.IsAvailable,
	})
}

func (s *registerService) RegisterHospital(ctx context.Context, req RegisterHospitalRequest) (*users.UserDTO, error) {
	hospitalName := strings.TrimSpace(req.HospitalName)
	if hospitalName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital_name is required")
	}
	address := strings.TrimSpace(req.Address)

	return s.create(ctx, req.Email, req.Password, users.CreateUserDTO{
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Role:         enums.RoleHospital,
		Pincode:      strings.TrimSpace(req.Pincode),
		HospitalName: &hospitalName,
		Address:      &address,
	})
}

func (s *registerService) create(ctx context.Context, email, password string, dto users.CreateUserDTO) (*users.UserDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if dto.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if dto.Pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}

	passwordHash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.Email = email
	dto.PasswordHash = passwordHash

	var created *users.UserDTO
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, dto)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}
