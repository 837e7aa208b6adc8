package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Donation records a donor's pledge against a request. The unique index on
// (donor_id, request_id) makes duplicate pledges a constraint violation
// rather than a read-then-write race. ArrivalAlertSent lives here so every
// pledge carries its own once-only arrival alert.
type Donation struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DonorID          uuid.UUID            `gorm:"column:donor_id;type:uuid;not null;uniqueIndex:idx_donations_donor_request"`
	RequestID        uuid.UUID            `gorm:"column:request_id;type:uuid;not null;uniqueIndex:idx_donations_donor_request"`
	HospitalID       uuid.UUID            `gorm:"column:hospital_id;type:uuid;not null;index"`
	BloodGroup       enums.BloodGroup     `gorm:"column:blood_group;type:text;not null"`
	Status           enums.DonationStatus `gorm:"column:status;type:text;not null;default:'pledged'"`
	PointsAwarded    int                  `gorm:"column:points_awarded;not null;default:0"`
	ArrivalAlertSent bool                 `gorm:"column:arrival_alert_sent;not null;default:false"`
	CertificateURL   *string              `gorm:"column:certificate_url"`
	CompletedAt      *time.Time           `gorm:"column:completed_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
