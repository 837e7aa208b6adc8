package pledges

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

type stubRepo struct {
	donations map[string]*models.Donation
	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{donations: map[string]*models.Donation{}}
}

func pledgeKey(donorID, requestID uuid.UUID) string {
	return donorID.String() + ":" + requestID.String()
}

func (s *stubRepo) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	key := pledgeKey(donation.DonorID, donation.RequestID)
	if _, exists := s.donations[key]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "idx_donations_donor_request"`)
	}
	donation.ID = uuid.New()
	donation.CreatedAt = time.Now().UTC()
	s.donations[key] = donation
	return donation, nil
}

func (s *stubRepo) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	for _, d := range s.donations {
		if d.DonorID == donorID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	for _, d := range s.donations {
		if d.RequestID == requestID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubRepo) ListPledgedByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	for _, d := range s.donations {
		if d.DonorID == donorID && d.Status == enums.DonationStatusPledged {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubRepo) MarkArrivalAlertSent(ctx context.Context, donationID uuid.UUID) (bool, error) {
	for _, d := range s.donations {
		if d.ID == donationID && !d.ArrivalAlertSent {
			d.ArrivalAlertSent = true
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) HasPledged(ctx context.Context, donorID, requestID uuid.UUID) (bool, error) {
	_, ok := s.donations[pledgeKey(donorID, requestID)]
	return ok, nil
}

type stubRequestReader struct {
	request *models.Request
}

func (s *stubRequestReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if s.request == nil || s.request.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.request, nil
}

type stubDonorReader struct {
	donor *models.User
}

func (s *stubDonorReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.donor == nil || s.donor.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.donor, nil
}

type stubNotifier struct {
	events  []enums.Event
	userIDs []uuid.UUID
}

func (s *stubNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any) {
	s.events = append(s.events, event)
	s.userIDs = append(s.userIDs, userID)
}

func buildPledgeService(t *testing.T, repo Repository, request *models.Request, donor *models.User, notifier *stubNotifier) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Requests: &stubRequestReader{request: request},
		Donors:   &stubDonorReader{donor: donor},
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPledgeNotifiesHospital(t *testing.T) {
	hospitalID := uuid.New()
	donor := &models.User{ID: uuid.New(), Name: "Asha Rao", Role: enums.RoleDonor}
	request := &models.Request{
		ID:         uuid.New(),
		HospitalID: hospitalID,
		BloodGroup: enums.BloodGroupOPositive,
		Status:     enums.RequestStatusOpen,
	}
	notifier := &stubNotifier{}
	svc := buildPledgeService(t, newStubRepo(), request, donor, notifier)

	dto, err := svc.Pledge(context.Background(), donor.ID, request.ID)
	if err != nil {
		t.Fatalf("pledge: %v", err)
	}
	if dto.Status != enums.DonationStatusPledged {
		t.Fatalf("expected pledged status, got %s", dto.Status)
	}
	if dto.HospitalID != hospitalID {
		t.Fatalf("hospital not recorded on donation")
	}
	if len(notifier.events) != 1 || notifier.events[0] != enums.EventDonorPledged {
		t.Fatalf("expected donorPledged notification, got %v", notifier.events)
	}
	if notifier.userIDs[0] != hospitalID {
		t.Fatalf("notification must target the hospital")
	}
}

func TestPledgeDuplicateIsConflict(t *testing.T) {
	donor := &models.User{ID: uuid.New(), Name: "Asha Rao", Role: enums.RoleDonor}
	request := &models.Request{
		ID:         uuid.New(),
		HospitalID: uuid.New(),
		BloodGroup: enums.BloodGroupAPositive,
		Status:     enums.RequestStatusOpen,
	}
	notifier := &stubNotifier{}
	svc := buildPledgeService(t, newStubRepo(), request, donor, notifier)

	if _, err := svc.Pledge(context.Background(), donor.ID, request.ID); err != nil {
		t.Fatalf("first pledge: %v", err)
	}
	_, err := svc.Pledge(context.Background(), donor.ID, request.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("duplicate pledge must not notify again")
	}
}

func TestPledgeClosedRequest(t *testing.T) {
	donor := &models.User{ID: uuid.New(), Role: enums.RoleDonor}
	request := &models.Request{
		ID:         uuid.New(),
		HospitalID: uuid.New(),
		Status:     enums.RequestStatusExpired,
	}
	svc := buildPledgeService(t, newStubRepo(), request, donor, &stubNotifier{})

	_, err := svc.Pledge(context.Background(), donor.ID, request.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestPledgeRejectsNonDonor(t *testing.T) {
	hospitalUser := &models.User{ID: uuid.New(), Role: enums.RoleHospital}
	request := &models.Request{ID: uuid.New(), HospitalID: uuid.New(), Status: enums.RequestStatusOpen}
	svc := buildPledgeService(t, newStubRepo(), request, hospitalUser, &stubNotifier{})

	_, err := svc.Pledge(context.Background(), hospitalUser.ID, request.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPledgeUnknownRequest(t *testing.T) {
	donor := &models.User{ID: uuid.New(), Role: enums.RoleDonor}
	svc := buildPledgeService(t, newStubRepo(), nil, donor, &stubNotifier{})

	_, err := svc.Pledge(context.Background(), donor.ID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
