package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type hospitalReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListHospitalsByPincode(ctx context.Context, pincode string) ([]models.User, error)
}

// Service manages per-hospital blood stock and inter-hospital lending.
type Service interface {
	Get(ctx context.Context, hospitalID uuid.UUID) ([]ItemDTO, error)
	Search(ctx context.Context, pincode string) ([]HospitalInventoryDTO, error)
	UpsertStock(ctx context.Context, input UpsertStockInput) ([]ItemDTO, error)
	AddStock(ctx context.Context, input AddStockInput) ([]ItemDTO, error)
	Lend(ctx context.Context, input LendInput) (*LenderDTO, error)
	LendingHistory(ctx context.Context, hospitalID uuid.UUID) ([]LenderDTO, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	hospitals hospitalReader
}

// ServiceParams bundles the dependencies for the inventory service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Hospitals hospitalReader
}

// NewService builds an inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Hospitals == nil {
		return nil, fmt.Errorf("hospital reader required")
	}
	return &service{repo: params.Repo, tx: params.Tx, hospitals: params.Hospitals}, nil
}

func (s *service) Get(ctx context.Context, hospitalID uuid.UUID) ([]ItemDTO, error) {
	if hospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	items, err := s.repo.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}
	return itemsFromModels(items), nil
}

func (s *service) Search(ctx context.Context, pincode string) ([]HospitalInventoryDTO, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}

	hospitals, err := s.hospitals.ListHospitalsByPincode(ctx, pincode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list hospitals")
	}
	if len(hospitals) == 0 {
		return []HospitalInventoryDTO{}, nil
	}

	ids := make([]uuid.UUID, 0, len(hospitals))
	for _, h := range hospitals {
		ids = append(ids, h.ID)
	}
	items, err := s.repo.ListByHospitalIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}

	byHospital := make(map[uuid.UUID][]ItemDTO, len(hospitals))
	for i := range items {
		byHospital[items[i].HospitalID] = append(byHospital[items[i].HospitalID], *itemFromModel(&items[i]))
	}

	out := make([]HospitalInventoryDTO, 0, len(hospitals))
	for _, h := range hospitals {
		name := h.Name
		if h.HospitalName != nil && *h.HospitalName != "" {
			name = *h.HospitalName
		}
		out = append(out, HospitalInventoryDTO{
			HospitalID:   h.ID,
			HospitalName: name,
			Pincode:      h.Pincode,
			Items:        byHospital[h.ID],
		})
	}
	return out, nil
}

// UpsertStock replaces stock levels wholesale, unlike AddStock which
// increments. Donations add; a stocktake overwrites.
func (s *service) UpsertStock(ctx context.Context, input UpsertStockInput) ([]ItemDTO, error) {
	if input.HospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	if len(input.Stocks) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stocks are required")
	}
	parsed := make(map[enums.BloodGroup]int, len(input.Stocks))
	for group, units := range input.Stocks {
		bloodGroup, err := enums.ParseBloodGroup(group)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
		}
		if units < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "units cannot be negative")
		}
		parsed[bloodGroup] = units
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for bloodGroup, units := range parsed {
			if err := repo.SetStock(ctx, input.HospitalID, bloodGroup, units); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set stock")
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, input.HospitalID)
}

func (s *service) AddStock(ctx context.Context, input AddStockInput) ([]ItemDTO, error) {
	if input.HospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	bloodGroup, err := enums.ParseBloodGroup(input.BloodGroup)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
	}
	if input.Units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units must be positive")
	}

	if err := s.repo.AddStock(ctx, input.HospitalID, bloodGroup, input.Units); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add stock")
	}
	return s.Get(ctx, input.HospitalID)
}

func (s *service) Lend(ctx context.Context, input LendInput) (*LenderDTO, error) {
	if input.FromHospitalID == uuid.Nil || input.ToHospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "both hospitals are required")
	}
	if input.FromHospitalID == input.ToHospitalID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot lend to the same hospital")
	}
	bloodGroup, err := enums.ParseBloodGroup(input.BloodGroup)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
	}
	if input.Units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units must be positive")
	}

	borrower, err := s.hospitals.FindByID(ctx, input.ToHospitalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receiving hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receiving hospital")
	}
	if borrower.Role != enums.RoleHospital {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver is not a hospital")
	}

	lender := &models.Lender{
		FromHospitalID: input.FromHospitalID,
		ToHospitalID:   input.ToHospitalID,
		BloodGroup:     bloodGroup,
		Units:          input.Units,
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The guarded decrement is the stock check: no row changes when
		// stock is short, so two concurrent lends cannot both drain it.
		deducted, err := repo.DeductStock(ctx, input.FromHospitalID, bloodGroup, input.Units)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deduct stock")
		}
		if !deducted {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}
		if err := repo.AddLent(ctx, input.FromHospitalID, bloodGroup, input.Units); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "track lent units")
		}
		if err := repo.AddStock(ctx, input.ToHospitalID, bloodGroup, input.Units); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit receiving hospital")
		}
		if _, err := repo.CreateLender(ctx, lender); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record lending")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return lenderFromModel(lender), nil
}

func (s *service) LendingHistory(ctx context.Context, hospitalID uuid.UUID) ([]LenderDTO, error) {
	if hospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	out, err := s.repo.ListLendersByHospital(ctx, hospitalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lending history")
	}
	return lendersFromModels(out), nil
}
