package pledges

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// DonationDTO is the transport shape of a pledge/donation record.
type DonationDTO struct {
	ID             uuid.UUID            `json:"id"`
	DonorID        uuid.UUID            `json:"donor_id"`
	RequestID      uuid.UUID            `json:"request_id"`
	HospitalID     uuid.UUID            `json:"hospital_id"`
	BloodGroup     enums.BloodGroup     `json:"blood_group"`
	Status         enums.DonationStatus `json:"status"`
	PointsAwarded  int                  `json:"points_awarded"`
	CertificateURL *string              `json:"certificate_url,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// FromModel converts the persistence model into its transport shape.
func FromModel(d *models.Donation) *DonationDTO {
	if d == nil {
		return nil
	}
	return &DonationDTO{
		ID:             d.ID,
		DonorID:        d.DonorID,
		RequestID:      d.RequestID,
		HospitalID:     d.HospitalID,
		BloodGroup:     d.BloodGroup,
		Status:         d.Status,
		PointsAwarded:  d.PointsAwarded,
		CertificateURL: d.CertificateURL,
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
	}
}

// FromModels maps a slice of donations.
func FromModels(ds []models.Donation) []DonationDTO {
	out := make([]DonationDTO, 0, len(ds))
	for i := range ds {
		out = append(out, *FromModel(&ds[i]))
	}
	return out
}
