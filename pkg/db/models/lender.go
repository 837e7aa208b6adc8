package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Lender is the audit trail of one hospital lending units to another.
type Lender struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromHospitalID uuid.UUID        `gorm:"column:from_hospital_id;type:uuid;not null;index"`
	ToHospitalID   uuid.UUID        `gorm:"column:to_hospital_id;type:uuid;not null;index"`
	BloodGroup     enums.BloodGroup `gorm:"column:blood_group;type:text;not null"`
	Units          int              `gorm:"column:units;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}
