package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/internal/matching"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	dbtypes "github.com/bloodlink/bloodlink-backend/pkg/db/types"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier is the realtime fanout surface. Delivery is best-effort and never
// fails the calling operation.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any)
	NotifyUsers(ctx context.Context, userIDs []uuid.UUID, event enums.Event, payload any)
	NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any)
}

// Rewarder finalizes donations once a request is fulfilled.
type Rewarder interface {
	AwardForRequest(ctx context.Context, tx *gorm.DB, request *models.Request) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type donationReader interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error)
}

// Service owns the request lifecycle: creation with donor snapshot, listing,
// donor acceptance, and the status state machine.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*RequestDTO, error)
	Get(ctx context.Context, requestID uuid.UUID) (*RequestDTO, error)
	ListForHospital(ctx context.Context, hospitalID uuid.UUID) ([]RequestDTO, error)
	ListForDonor(ctx context.Context, donorID uuid.UUID) ([]RequestDTO, error)
	ListAll(ctx context.Context) ([]RequestDTO, error)
	AcceptDonor(ctx context.Context, input AcceptDonorInput) (*RequestDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*RequestDTO, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	matcher   matching.Service
	users     userReader
	donations donationReader
	notifier  Notifier
	rewarder  Rewarder
	metrics   *metrics.WorkflowMetrics
	ttlCfg    config.RequestTTLConfig
}

// ServiceParams bundles the dependencies for the request service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Matcher   matching.Service
	Users     userReader
	Donations donationReader
	Notifier  Notifier
	Rewarder  Rewarder
	Metrics   *metrics.WorkflowMetrics
	TTLConfig config.RequestTTLConfig
}

// NewService builds a request service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Matcher == nil {
		return nil, fmt.Errorf("matching service required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if params.Donations == nil {
		return nil, fmt.Errorf("donation reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Rewarder == nil {
		return nil, fmt.Errorf("rewarder required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		matcher:   params.Matcher,
		users:     params.Users,
		donations: params.Donations,
		notifier:  params.Notifier,
		rewarder:  params.Rewarder,
		metrics:   params.Metrics,
		ttlCfg:    params.TTLConfig,
	}, nil
}

// EmergencyAlertPayload is delivered to each matched donor when an emergency
// request opens.
type EmergencyAlertPayload struct {
	RequestID    uuid.UUID        `json:"request_id"`
	HospitalID   uuid.UUID        `json:"hospital_id"`
	HospitalName string           `json:"hospital_name,omitempty"`
	BloodGroup   enums.BloodGroup `json:"blood_group"`
	Units        int              `json:"units"`
	Pincode      string           `json:"pincode"`
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*RequestDTO, error) {
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

	hospital, err := s.users.FindByID(ctx, input.HospitalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load hospital")
	}
	if hospital.Role != enums.RoleHospital {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hospitals can open requests")
	}

	pincode := input.Pincode
	if pincode == "" {
		pincode = hospital.Pincode
	}

	// Candidate snapshot is taken once, here. Donors who become available
	// later do not join the matched set.
	candidates, err := s.matcher.FindCandidates(ctx, bloodGroup, pincode)
	if err != nil {
		return nil, err
	}
	matchedIDs := make(dbtypes.UUIDArray, 0, len(candidates))
	for _, donor := range candidates {
		matchedIDs = append(matchedIDs, donor.ID)
	}

	ttl := s.ttlCfg.StandardTTL
	if input.IsEmergency {
		ttl = s.ttlCfg.EmergencyTTL
	}
	now := time.Now().UTC()

	request := &models.Request{
		HospitalID:      input.HospitalID,
		BloodGroup:      bloodGroup,
		Units:           input.Units,
		Pincode:         pincode,
		IsEmergency:     input.IsEmergency,
		Status:          enums.RequestStatusOpen,
		MatchedDonorIDs: matchedIDs,
		Notes:           input.Notes,
		ExpiresAt:       now.Add(ttl),
	}

	if _, err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create request")
	}

	s.metrics.IncRequestCreated(input.IsEmergency)

	// Persist first, then fan out. A lost alert leaves the request intact.
	if input.IsEmergency && len(matchedIDs) > 0 {
		hospitalName := ""
		if hospital.HospitalName != nil {
			hospitalName = *hospital.HospitalName
		}
		s.notifier.NotifyUsers(ctx, matchedIDs, enums.EventEmergencyAlert, EmergencyAlertPayload{
			RequestID:    request.ID,
			HospitalID:   request.HospitalID,
			HospitalName: hospitalName,
			BloodGroup:   request.BloodGroup,
			Units:        request.Units,
			Pincode:      request.Pincode,
		})
	}

	return FromModel(request), nil
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID) (*RequestDTO, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load request")
	}
	return FromModel(request), nil
}

func (s *service) ListForHospital(ctx context.Context, hospitalID uuid.UUID) ([]RequestDTO, error) {
	if hospitalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hospital id is required")
	}
	out, err := s.repo.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list hospital requests")
	}

	dtos := FromModels(out)
	for i := range out {
		donations, err := s.donations.ListByRequest(ctx, out[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list request pledges")
		}
		dtos[i].Pledges = pledgeSummaries(donations)
		if out[i].AcceptedDonorID == nil {
			continue
		}
		donor, err := s.users.FindByID(ctx, *out[i].AcceptedDonorID)
		if err != nil {
			continue
		}
		dtos[i].AcceptedDonor = &DonorContact{
			ID:         donor.ID,
			Name:       donor.Name,
			Phone:      donor.Phone,
			BloodGroup: donor.BloodGroup,
		}
	}
	return dtos, nil
}

func pledgeSummaries(donations []models.Donation) []PledgeSummary {
	out := make([]PledgeSummary, 0, len(donations))
	for i := range donations {
		out = append(out, PledgeSummary{
			DonationID: donations[i].ID,
			DonorID:    donations[i].DonorID,
			Status:     donations[i].Status,
			PledgedAt:  donations[i].CreatedAt,
		})
	}
	return out
}

func (s *service) ListAll(ctx context.Context) ([]RequestDTO, error) {
	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list requests")
	}
	return FromModels(out), nil
}

func (s *service) ListForDonor(ctx context.Context, donorID uuid.UUID) ([]RequestDTO, error) {
	if donorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor id is required")
	}
	out, err := s.repo.ListMatchedForDonor(ctx, donorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list donor requests")
	}
	return FromModels(out), nil
}

func (s *service) AcceptDonor(ctx context.Context, input AcceptDonorInput) (*RequestDTO, error) {
	if input.RequestID == uuid.Nil || input.DonorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id and donor id are required")
	}

	request, err := s.repo.FindByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load request")
	}
	if request.HospitalID != input.HospitalID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another hospital")
	}
	if request.Status != enums.RequestStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request is not open")
	}

	if err := s.repo.UpdateColumns(ctx, request.ID, map[string]any{
		"accepted_donor_id": input.DonorID,
		"updated_at":        time.Now().UTC(),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept donor")
	}
	request.AcceptedDonorID = &input.DonorID

	s.notifier.NotifyUser(ctx, input.DonorID, enums.EventDonorAccepted, map[string]any{
		"request_id":  request.ID,
		"hospital_id": request.HospitalID,
	})

	return FromModel(request), nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*RequestDTO, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	target, err := enums.ParseRequestStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request status")
	}
	if target == enums.RequestStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot transition a request back to open")
	}

	request, err := s.repo.FindByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load request")
	}
	// Ownership binds hospitals only; admins may transition any request.
	if input.ActorRole != enums.RoleAdmin && request.HospitalID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another hospital")
	}
	// Terminal statuses are sinks. Even no-op repeats are rejected so
	// double fulfillment can never double-award points.
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already closed")
	}
	if target == enums.RequestStatusFulfilled && request.AcceptedDonorID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must accept a donor before fulfilling")
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.TransitionStatus(ctx, request.ID, enums.RequestStatusOpen, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already closed")
		}
		if target == enums.RequestStatusFulfilled {
			if err := s.rewarder.AwardForRequest(ctx, tx, request); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	request.Status = target

	if target == enums.RequestStatusFulfilled {
		s.metrics.IncRequestFulfilled()
		s.notifier.NotifyRequest(ctx, request.ID, enums.EventRequestStatusChanged, map[string]any{
			"request_id": request.ID,
			"status":     target,
		})
	}

	return FromModel(request), nil
}
