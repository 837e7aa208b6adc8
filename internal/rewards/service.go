package rewards

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/certificates"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
	"github.com/bloodlink/bloodlink-backend/pkg/metrics"
)

type repoFactory func(db *gorm.DB) Repository

// Service finalizes every pledged donation once its request is fulfilled:
// donation completion, donor points and badge, and a certificate per donor.
type Service struct {
	repoFor      repoFactory
	certificates certificates.Generator
	metrics      *metrics.WorkflowMetrics
	logg         *logger.Logger
	hospitalName func(ctx context.Context, tx *gorm.DB, request *models.Request) string
}

// ServiceParams bundles the dependencies for the reward service.
type ServiceParams struct {
	Certificates certificates.Generator
	Metrics      *metrics.WorkflowMetrics
	Logger       *logger.Logger
}

// NewService builds the reward service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Certificates == nil {
		return nil, fmt.Errorf("certificate generator required")
	}
	return &Service{
		repoFor:      NewRepository,
		certificates: params.Certificates,
		metrics:      params.Metrics,
		logg:         params.Logger,
		hospitalName: lookupHospitalName,
	}, nil
}

// AwardForRequest runs inside the fulfillment transaction. Every donor who
// pledged is rewarded, not only the accepted one. Certificate generation is
// best-effort per donor; a failure is logged and counted but never rolls the
// fulfillment back.
func (s *Service) AwardForRequest(ctx context.Context, tx *gorm.DB, request *models.Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for awarding")
	}
	repo := s.repoFor(tx)

	donations, err := repo.ListPledgedByRequest(ctx, request.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pledged donations")
	}

	points := PointsForRequest(request.IsEmergency)
	now := time.Now().UTC()
	hospitalName := s.hospitalName(ctx, tx, request)

	for i := range donations {
		donation := &donations[i]

		donor, err := repo.FindDonor(ctx, donation.DonorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load donor for reward")
		}

		certURL := s.generateCertificate(ctx, donation, donor, hospitalName, request.Units, now)

		if err := repo.CompleteDonation(ctx, donation.ID, points, certURL, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete donation")
		}

		newTotal := donor.Points + points
		if err := repo.UpdateDonorRewards(ctx, donor.ID, newTotal, BadgeForPoints(newTotal)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update donor rewards")
		}
	}

	return nil
}

func (s *Service) generateCertificate(ctx context.Context, donation *models.Donation, donor *models.User, hospitalName string, units int, at time.Time) *string {
	url, err := s.certificates.Generate(ctx, certificates.Certificate{
		DonationID:   donation.ID,
		DonorName:    donor.Name,
		HospitalName: hospitalName,
		BloodGroup:   donation.BloodGroup.String(),
		Units:        units,
		IssuedAt:     at,
	})
	if err != nil {
		s.metrics.IncCertificateFailed()
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{
				"donation_id": donation.ID,
				"donor_id":    donor.ID,
			})
			s.logg.Error(ctx, "certificate generation failed", err)
		}
		return nil
	}
	return &url
}

func lookupHospitalName(ctx context.Context, tx *gorm.DB, request *models.Request) string {
	var hospital models.User
	if err := tx.WithContext(ctx).First(&hospital, "id = ?", request.HospitalID).Error; err != nil {
		return ""
	}
	if hospital.HospitalName != nil {
		return *hospital.HospitalName
	}
	return hospital.Name
}
