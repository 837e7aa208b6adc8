package pledges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/metrics"
)

// Notifier is the realtime fanout surface.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any)
}

type requestReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

type donorReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Repository defines persistence operations for donations.
type Repository interface {
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error)
	ListPledgedByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
	// MarkArrivalAlertSent flips the once-only arrival flag on a pledge and
	// reports whether this call was the one that flipped it.
	MarkArrivalAlertSent(ctx context.Context, donationID uuid.UUID) (bool, error)
	HasPledged(ctx context.Context, donorID, requestID uuid.UUID) (bool, error)
}

// Service records donor pledges against open requests.
type Service interface {
	Pledge(ctx context.Context, donorID, requestID uuid.UUID) (*DonationDTO, error)
	ListForDonor(ctx context.Context, donorID uuid.UUID) ([]DonationDTO, error)
	ListForRequest(ctx context.Context, requestID uuid.UUID) ([]DonationDTO, error)
}

type service struct {
	repo     Repository
	requests requestReader
	donors   donorReader
	notifier Notifier
	metrics  *metrics.WorkflowMetrics
}

// ServiceParams bundles the dependencies for the pledge service.
type ServiceParams struct {
	Repo     Repository
	Requests requestReader
	Donors   donorReader
	Notifier Notifier
	Metrics  *metrics.WorkflowMetrics
}

// NewService builds a pledge service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("donations repository required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request reader required")
	}
	if params.Donors == nil {
		return nil, fmt.Errorf("donor reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     params.Repo,
		requests: params.Requests,
		donors:   params.Donors,
		notifier: params.Notifier,
		metrics:  params.Metrics,
	}, nil
}

// PledgePayload is delivered to the hospital when a donor pledges.
type PledgePayload struct {
	RequestID  uuid.UUID        `json:"request_id"`
	DonorID    uuid.UUID        `json:"donor_id"`
	DonorName  string           `json:"donor_name"`
	BloodGroup enums.BloodGroup `json:"blood_group"`
	PledgedAt  time.Time        `json:"pledged_at"`
}

func (s *service) Pledge(ctx context.Context, donorID, requestID uuid.UUID) (*DonationDTO, error) {
	if donorID == uuid.Nil || requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor id and request id are required")
	}

	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load donor")
	}
	if donor.Role != enums.RoleDonor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only donors can pledge")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load request")
	}
	if request.Status != enums.RequestStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request is not open")
	}

	bloodGroup := request.BloodGroup
	donation := &models.Donation{
		DonorID:    donorID,
		RequestID:  requestID,
		HospitalID: request.HospitalID,
		BloodGroup: bloodGroup,
		Status:     enums.DonationStatusPledged,
	}

	// The unique (donor_id, request_id) index is the real duplicate guard;
	// two concurrent pledges race to the constraint, not to a read.
	if _, err := s.repo.Create(ctx, donation); err != nil {
		if db.IsUniqueViolation(err, "idx_donations_donor_request") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "donor already pledged for this request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create donation")
	}

	s.metrics.IncPledge()

	s.notifier.NotifyUser(ctx, request.HospitalID, enums.EventDonorPledged, PledgePayload{
		RequestID:  requestID,
		DonorID:    donorID,
		DonorName:  donor.Name,
		BloodGroup: bloodGroup,
		PledgedAt:  donation.CreatedAt,
	})

	return FromModel(donation), nil
}

func (s *service) ListForDonor(ctx context.Context, donorID uuid.UUID) ([]DonationDTO, error) {
	if donorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor id is required")
	}
	out, err := s.repo.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list donations")
	}
	return FromModels(out), nil
}

func (s *service) ListForRequest(ctx context.Context, requestID uuid.UUID) ([]DonationDTO, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	out, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pledges")
	}
	return FromModels(out), nil
}
