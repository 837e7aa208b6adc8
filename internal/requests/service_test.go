package requests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	dbtypes "github.com/bloodlink/bloodlink-backend/pkg/db/types"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
)

type stubRepo struct {
	requests map[uuid.UUID]*models.Request
	created  *models.Request

	transitioned  bool
	transitionErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{requests: map[uuid.UUID]*models.Request{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	request.ID = uuid.New()
	request.CreatedAt = time.Now().UTC()
	s.requests[request.ID] = request
	s.created = request
	return request, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	if r, ok := s.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.Request, error) {
	var out []models.Request
	for _, r := range s.requests {
		if r.HospitalID == hospitalID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubRepo) ListMatchedForDonor(ctx context.Context, donorID uuid.UUID) ([]models.Request, error) {
	var out []models.Request
	for _, r := range s.requests {
		for _, id := range r.MatchedDonorIDs {
			if id == donorID {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	r, ok := s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["accepted_donor_id"]; ok {
		donorID := v.(uuid.UUID)
		r.AcceptedDonorID = &donorID
	}
	return nil
}

func (s *stubRepo) TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus enums.RequestStatus) (bool, error) {
	if s.transitionErr != nil {
		return false, s.transitionErr
	}
	r, ok := s.requests[id]
	if !ok || r.Status != fromStatus {
		return false, nil
	}
	r.Status = toStatus
	s.transitioned = true
	return true, nil
}

func (s *stubRepo) CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error) {
	return map[enums.RequestStatus]int64{}, nil
}

func (s *stubRepo) FindOpenExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	return nil, nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	for _, r := range s.requests {
		out = append(out, *r)
	}
	return out, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubMatcher struct {
	donors []models.User

	gotBloodGroup enums.BloodGroup
	gotPincode    string
}

func (s *stubMatcher) FindCandidates(ctx context.Context, bloodGroup enums.BloodGroup, pincode string) ([]models.User, error) {
	s.gotBloodGroup = bloodGroup
	s.gotPincode = pincode
	return s.donors, nil
}

type stubUserReader struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubDonationReader struct {
	byRequest map[uuid.UUID][]models.Donation
}

func (s *stubDonationReader) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	return s.byRequest[requestID], nil
}

type notifyCall struct {
	event   enums.Event
	userIDs []uuid.UUID
	channel string
}

type stubNotifier struct {
	calls []notifyCall
}

func (s *stubNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any) {
	s.calls = append(s.calls, notifyCall{event: event, userIDs: []uuid.UUID{userID}})
}

func (s *stubNotifier) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, event enums.Event, payload any) {
	s.calls = append(s.calls, notifyCall{event: event, userIDs: userIDs})
}

func (s *stubNotifier) NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any) {
	s.calls = append(s.calls, notifyCall{event: event, channel: "request:" + requestID.String()})
}

type stubRewarder struct {
	awarded []uuid.UUID
	err     error
}

func (s *stubRewarder) AwardForRequest(ctx context.Context, tx *gorm.DB, request *models.Request) error {
	if s.err != nil {
		return s.err
	}
	s.awarded = append(s.awarded, request.ID)
	return nil
}

func buildService(t *testing.T, repo *stubRepo, users *stubUserReader, matcher *stubMatcher, notifier *stubNotifier, rewarder *stubRewarder) Service {
	t.Helper()
	return buildServiceWithDonations(t, repo, users, &stubDonationReader{}, matcher, notifier, rewarder)
}

func buildServiceWithDonations(t *testing.T, repo *stubRepo, users *stubUserReader, donations *stubDonationReader, matcher *stubMatcher, notifier *stubNotifier, rewarder *stubRewarder) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Tx:        stubTxRunner{},
		Matcher:   matcher,
		Users:     users,
		Donations: donations,
		Notifier:  notifier,
		Rewarder:  rewarder,
		TTLConfig: config.RequestTTLConfig{StandardTTL: 24 * time.Hour, EmergencyTTL: 12 * time.Hour},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func hospitalUser(id uuid.UUID) *models.User {
	name := "City General"
	return &models.User{
		ID:           id,
		Role:         enums.RoleHospital,
		Pincode:      "560001",
		HospitalName: &name,
	}
}

func TestCreateSnapshotsMatchedDonors(t *testing.T) {
	hospitalID := uuid.New()
	donorA := uuid.New()
	donorB := uuid.New()
	repo := newStubRepo()
	matcher := &stubMatcher{donors: []models.User{{ID: donorA}, {ID: donorB}}}
	notifier := &stubNotifier{}
	svc := buildService(t, repo, &stubUserReader{users: map[uuid.UUID]*models.User{hospitalID: hospitalUser(hospitalID)}}, matcher, notifier, &stubRewarder{})

	dto, err := svc.Create(context.Background(), CreateRequestInput{
		HospitalID: hospitalID,
		BloodGroup: "O+",
		Units:      2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(dto.MatchedDonorIDs) != 2 {
		t.Fatalf("expected 2 matched donors, got %d", len(dto.MatchedDonorIDs))
	}
	if matcher.gotPincode != "560001" {
		t.Fatalf("expected hospital pincode default, got %q", matcher.gotPincode)
	}
	if dto.Status != enums.RequestStatusOpen {
		t.Fatalf("expected open status, got %s", dto.Status)
	}
	// Standard requests do not push emergency alerts.
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notifications for standard request, got %d", len(notifier.calls))
	}

	wantExpiry := time.Now().UTC().Add(24 * time.Hour)
	if diff := dto.ExpiresAt.Sub(wantExpiry); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expected ~24h expiry, got %v", dto.ExpiresAt)
	}
}

func TestCreateEmergencyAlertsMatchedDonors(t *testing.T) {
	hospitalID := uuid.New()
	donorA := uuid.New()
	repo := newStubRepo()
	matcher := &stubMatcher{donors: []models.User{{ID: donorA}}}
	notifier := &stubNotifier{}
	svc := buildService(t, repo, &stubUserReader{users: map[uuid.UUID]*models.User{hospitalID: hospitalUser(hospitalID)}}, matcher, notifier, &stubRewarder{})

	dto, err := svc.Create(context.Background(), CreateRequestInput{
		HospitalID:  hospitalID,
		BloodGroup:  "AB-",
		Units:       1,
		IsEmergency: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 alert fanout, got %d", len(notifier.calls))
	}
	if notifier.calls[0].event != enums.EventEmergencyAlert {
		t.Fatalf("unexpected event %s", notifier.calls[0].event)
	}
	if len(notifier.calls[0].userIDs) != 1 || notifier.calls[0].userIDs[0] != donorA {
		t.Fatalf("alert did not target matched donor")
	}

	wantExpiry := time.Now().UTC().Add(12 * time.Hour)
	if diff := dto.ExpiresAt.Sub(wantExpiry); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("expected ~12h expiry for emergency, got %v", dto.ExpiresAt)
	}
}

func TestCreateRejectsNonHospital(t *testing.T) {
	donorID := uuid.New()
	repo := newStubRepo()
	reader := &stubUserReader{users: map[uuid.UUID]*models.User{donorID: {ID: donorID, Role: enums.RoleDonor}}}
	svc := buildService(t, repo, reader, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.Create(context.Background(), CreateRequestInput{
		HospitalID: donorID,
		BloodGroup: "O+",
		Units:      1,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAcceptDonorHappyPath(t *testing.T) {
	hospitalID := uuid.New()
	donorID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{
		ID:         uuid.New(),
		HospitalID: hospitalID,
		Status:     enums.RequestStatusOpen,
	}
	repo.requests[request.ID] = request
	notifier := &stubNotifier{}
	svc := buildService(t, repo, &stubUserReader{users: map[uuid.UUID]*models.User{}}, &stubMatcher{}, notifier, &stubRewarder{})

	dto, err := svc.AcceptDonor(context.Background(), AcceptDonorInput{
		RequestID:  request.ID,
		HospitalID: hospitalID,
		DonorID:    donorID,
	})
	if err != nil {
		t.Fatalf("accept donor: %v", err)
	}
	if dto.AcceptedDonorID == nil || *dto.AcceptedDonorID != donorID {
		t.Fatalf("accepted donor not recorded")
	}
	if len(notifier.calls) != 1 || notifier.calls[0].event != enums.EventDonorAccepted {
		t.Fatalf("expected donorAccepted notification")
	}
}

func TestAcceptDonorWrongHospital(t *testing.T) {
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: uuid.New(), Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.AcceptDonor(context.Background(), AcceptDonorInput{
		RequestID:  request.ID,
		HospitalID: uuid.New(),
		DonorID:    uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAcceptDonorClosedRequest(t *testing.T) {
	hospitalID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: hospitalID, Status: enums.RequestStatusExpired}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.AcceptDonor(context.Background(), AcceptDonorInput{
		RequestID:  request.ID,
		HospitalID: hospitalID,
		DonorID:    uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatusFulfilledAwardsOnce(t *testing.T) {
	hospitalID := uuid.New()
	donorID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{
		ID:              uuid.New(),
		HospitalID:      hospitalID,
		Status:          enums.RequestStatusOpen,
		AcceptedDonorID: &donorID,
		MatchedDonorIDs: dbtypes.UUIDArray{donorID},
	}
	repo.requests[request.ID] = request
	rewarder := &stubRewarder{}
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, rewarder)

	dto, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   hospitalID,
		ActorRole: enums.RoleHospital,
		Status:    "fulfilled",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if dto.Status != enums.RequestStatusFulfilled {
		t.Fatalf("expected fulfilled, got %s", dto.Status)
	}
	if len(rewarder.awarded) != 1 {
		t.Fatalf("expected rewards awarded once, got %d", len(rewarder.awarded))
	}

	// A second fulfillment attempt must hit the terminal sink.
	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   hospitalID,
		ActorRole: enums.RoleHospital,
		Status:    "fulfilled",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on repeat, got %v", err)
	}
	if len(rewarder.awarded) != 1 {
		t.Fatalf("rewards must not be granted twice, got %d", len(rewarder.awarded))
	}
}

func TestUpdateStatusFulfilledRequiresAcceptedDonor(t *testing.T) {
	hospitalID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: hospitalID, Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   hospitalID,
		ActorRole: enums.RoleHospital,
		Status:    "fulfilled",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusForeignHospitalForbidden(t *testing.T) {
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: uuid.New(), Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   uuid.New(),
		ActorRole: enums.RoleHospital,
		Status:    "cancelled",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateStatusAdminBypassesOwnership(t *testing.T) {
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: uuid.New(), Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	dto, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   uuid.New(),
		ActorRole: enums.RoleAdmin,
		Status:    "cancelled",
	})
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if dto.Status != enums.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
}

func TestUpdateStatusCancelWithoutDonorIsAllowed(t *testing.T) {
	hospitalID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: hospitalID, Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	rewarder := &stubRewarder{}
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, rewarder)

	dto, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   hospitalID,
		ActorRole: enums.RoleHospital,
		Status:    "cancelled",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if dto.Status != enums.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if len(rewarder.awarded) != 0 {
		t.Fatalf("cancellation must not award points")
	}
}

func TestUpdateStatusRejectsReopen(t *testing.T) {
	hospitalID := uuid.New()
	repo := newStubRepo()
	request := &models.Request{ID: uuid.New(), HospitalID: hospitalID, Status: enums.RequestStatusOpen}
	repo.requests[request.ID] = request
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		RequestID: request.ID,
		ActorID:   hospitalID,
		ActorRole: enums.RoleHospital,
		Status:    "open",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListForHospitalJoinsPledgesAndAcceptedDonor(t *testing.T) {
	hospitalID := uuid.New()
	donorID := uuid.New()
	phone := "9876543210"
	group := enums.BloodGroupOPositive
	repo := newStubRepo()
	request := &models.Request{
		ID:              uuid.New(),
		HospitalID:      hospitalID,
		Status:          enums.RequestStatusOpen,
		AcceptedDonorID: &donorID,
	}
	repo.requests[request.ID] = request
	users := &stubUserReader{users: map[uuid.UUID]*models.User{
		donorID: {ID: donorID, Name: "Asha Rao", Phone: &phone, BloodGroup: &group, Role: enums.RoleDonor},
	}}
	donations := &stubDonationReader{byRequest: map[uuid.UUID][]models.Donation{
		request.ID: {{ID: uuid.New(), DonorID: donorID, Status: enums.DonationStatusPledged}},
	}}
	svc := buildServiceWithDonations(t, repo, users, donations, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	out, err := svc.ListForHospital(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one request, got %d", len(out))
	}
	if len(out[0].Pledges) != 1 || out[0].Pledges[0].DonorID != donorID {
		t.Fatalf("pledges not joined: %+v", out[0].Pledges)
	}
	contact := out[0].AcceptedDonor
	if contact == nil || contact.Name != "Asha Rao" || contact.Phone == nil || *contact.Phone != phone {
		t.Fatalf("accepted donor contact not joined: %+v", contact)
	}
}

func TestListAllReturnsEveryHospital(t *testing.T) {
	repo := newStubRepo()
	for i := 0; i < 3; i++ {
		id := uuid.New()
		repo.requests[id] = &models.Request{ID: id, HospitalID: uuid.New(), Status: enums.RequestStatusOpen}
	}
	svc := buildService(t, repo, &stubUserReader{}, &stubMatcher{}, &stubNotifier{}, &stubRewarder{})

	out, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected all requests, got %d", len(out))
	}
}
