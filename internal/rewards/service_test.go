package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/certificates"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

type stubRewardsRepo struct {
	donations []models.Donation
	donors    map[uuid.UUID]*models.User

	completed      []uuid.UUID
	completedCerts []*string
	donorUpdates   map[uuid.UUID]struct {
		points int
		badge  enums.BadgeLevel
	}
}

func newStubRewardsRepo() *stubRewardsRepo {
	return &stubRewardsRepo{
		donors: map[uuid.UUID]*models.User{},
		donorUpdates: map[uuid.UUID]struct {
			points int
			badge  enums.BadgeLevel
		}{},
	}
}

func (s *stubRewardsRepo) ListPledgedByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	return s.donations, nil
}

func (s *stubRewardsRepo) CompleteDonation(ctx context.Context, donationID uuid.UUID, points int, certificateURL *string, at time.Time) error {
	s.completed = append(s.completed, donationID)
	s.completedCerts = append(s.completedCerts, certificateURL)
	return nil
}

func (s *stubRewardsRepo) FindDonor(ctx context.Context, donorID uuid.UUID) (*models.User, error) {
	if donor, ok := s.donors[donorID]; ok {
		return donor, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRewardsRepo) UpdateDonorRewards(ctx context.Context, donorID uuid.UUID, points int, badge enums.BadgeLevel) error {
	s.donorUpdates[donorID] = struct {
		points int
		badge  enums.BadgeLevel
	}{points, badge}
	return nil
}

type stubGenerator struct {
	err   error
	calls int
	certs []certificates.Certificate
}

func (s *stubGenerator) Generate(ctx context.Context, cert certificates.Certificate) (string, error) {
	s.calls++
	s.certs = append(s.certs, cert)
	if s.err != nil {
		return "", s.err
	}
	return "/certificates/" + cert.DonationID.String() + ".pdf", nil
}

func buildRewardService(t *testing.T, repo *stubRewardsRepo, gen certificates.Generator) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Certificates: gen})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.repoFor = func(db *gorm.DB) Repository { return repo }
	svc.hospitalName = func(ctx context.Context, tx *gorm.DB, request *models.Request) string {
		return "City General"
	}
	return svc
}

func TestAwardForRequestRewardsAllPledgers(t *testing.T) {
	repo := newStubRewardsRepo()
	donorA := &models.User{ID: uuid.New(), Name: "Asha", Points: 40}
	donorB := &models.User{ID: uuid.New(), Name: "Vikram", Points: 290}
	repo.donors[donorA.ID] = donorA
	repo.donors[donorB.ID] = donorB
	repo.donations = []models.Donation{
		{ID: uuid.New(), DonorID: donorA.ID, BloodGroup: enums.BloodGroupOPositive},
		{ID: uuid.New(), DonorID: donorB.ID, BloodGroup: enums.BloodGroupOPositive},
	}
	request := &models.Request{ID: uuid.New(), IsEmergency: false, Units: 3}

	gen := &stubGenerator{}
	svc := buildRewardService(t, repo, gen)
	// tx only needs to be non-nil for the stubbed factory.
	if err := svc.AwardForRequest(context.Background(), &gorm.DB{}, request); err != nil {
		t.Fatalf("award: %v", err)
	}

	if len(repo.completed) != 2 {
		t.Fatalf("expected 2 completed donations, got %d", len(repo.completed))
	}
	for _, cert := range gen.certs {
		if cert.Units != 3 {
			t.Fatalf("certificate must carry the request's units, got %d", cert.Units)
		}
	}

	// 40 + 10 = 50 crosses into Silver.
	updateA := repo.donorUpdates[donorA.ID]
	if updateA.points != 50 || updateA.badge != enums.BadgeLevelSilver {
		t.Fatalf("donor A got %d points badge %s", updateA.points, updateA.badge)
	}
	// 290 + 10 = 300 crosses into Platinum.
	updateB := repo.donorUpdates[donorB.ID]
	if updateB.points != 300 || updateB.badge != enums.BadgeLevelPlatinum {
		t.Fatalf("donor B got %d points badge %s", updateB.points, updateB.badge)
	}
}

func TestAwardForRequestEmergencyPoints(t *testing.T) {
	repo := newStubRewardsRepo()
	donor := &models.User{ID: uuid.New(), Name: "Asha", Points: 0}
	repo.donors[donor.ID] = donor
	repo.donations = []models.Donation{{ID: uuid.New(), DonorID: donor.ID}}
	request := &models.Request{ID: uuid.New(), IsEmergency: true}

	svc := buildRewardService(t, repo, &stubGenerator{})
	if err := svc.AwardForRequest(context.Background(), &gorm.DB{}, request); err != nil {
		t.Fatalf("award: %v", err)
	}

	if got := repo.donorUpdates[donor.ID].points; got != 20 {
		t.Fatalf("expected 20 emergency points, got %d", got)
	}
}

func TestAwardForRequestSwallowsCertificateFailure(t *testing.T) {
	repo := newStubRewardsRepo()
	donor := &models.User{ID: uuid.New(), Name: "Asha", Points: 0}
	repo.donors[donor.ID] = donor
	repo.donations = []models.Donation{{ID: uuid.New(), DonorID: donor.ID}}
	request := &models.Request{ID: uuid.New()}

	gen := &stubGenerator{err: errors.New("disk full")}
	svc := buildRewardService(t, repo, gen)
	if err := svc.AwardForRequest(context.Background(), &gorm.DB{}, request); err != nil {
		t.Fatalf("certificate failure must not fail awarding: %v", err)
	}

	if len(repo.completed) != 1 {
		t.Fatalf("donation must still complete, got %d", len(repo.completed))
	}
	if repo.completedCerts[0] != nil {
		t.Fatalf("expected nil certificate url on failure")
	}
	if repo.donorUpdates[donor.ID].points != 10 {
		t.Fatalf("points must still be granted")
	}
}

func TestAwardForRequestNoPledgersIsNoop(t *testing.T) {
	repo := newStubRewardsRepo()
	svc := buildRewardService(t, repo, &stubGenerator{})

	if err := svc.AwardForRequest(context.Background(), &gorm.DB{}, &models.Request{ID: uuid.New()}); err != nil {
		t.Fatalf("award with no pledgers: %v", err)
	}
	if len(repo.completed) != 0 {
		t.Fatalf("nothing should complete")
	}
}
