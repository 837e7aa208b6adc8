package matching

import (
	"context"
	"fmt"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

// DonorFinder is the persistence surface the matcher needs.
type DonorFinder interface {
	FindMatchingDonors(ctx context.Context, bloodGroup enums.BloodGroup, pincode string) ([]models.User, error)
}

// Service selects the donors eligible for a new request. Eligibility is an
// exact match: donor role, currently available, same blood group, same
// pincode. No compatibility table (O- to anyone, etc.) is applied.
type Service interface {
	FindCandidates(ctx context.Context, bloodGroup enums.BloodGroup, pincode string) ([]models.User, error)
}

type service struct {
	donors DonorFinder
}

// NewService builds a matching service over the provided donor finder.
func NewService(donors DonorFinder) (Service, error) {
	if donors == nil {
		return nil, fmt.Errorf("donor finder required")
	}
	return &service{donors: donors}, nil
}

func (s *service) FindCandidates(ctx context.Context, bloodGroup enums.BloodGroup, pincode string) ([]models.User, error) {
	if !bloodGroup.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid blood group")
	}
	if pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}

	donors, err := s.donors.FindMatchingDonors(ctx, bloodGroup, pincode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find matching donors")
	}
	// An empty candidate set is not an error. The request is still created
	// and donors can discover it later.
	return donors, nil
}
