package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/bloodlink/bloodlink-backend/pkg/db/types"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Request is a hospital's call for blood of a given group. MatchedDonorIDs
// is the snapshot taken at creation time and is never recomputed afterwards.
type Request struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HospitalID      uuid.UUID           `gorm:"column:hospital_id;type:uuid;not null;index"`
	BloodGroup      enums.BloodGroup    `gorm:"column:blood_group;type:text;not null"`
	Units           int                 `gorm:"column:units;not null"`
	Pincode         string              `gorm:"column:pincode;not null"`
	IsEmergency     bool                `gorm:"column:is_emergency;not null;default:false"`
	Status          enums.RequestStatus `gorm:"column:status;type:text;not null;default:'open';index"`
	MatchedDonorIDs dbtypes.UUIDArray   `gorm:"column:matched_donor_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	AcceptedDonorID *uuid.UUID          `gorm:"column:accepted_donor_id;type:uuid"`
	Notes           *string             `gorm:"column:notes"`
	ExpiresAt       time.Time           `gorm:"column:expires_at;not null;index"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
