package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// InventoryItem tracks a hospital's stocked and lent units for one blood
// group. One row per (hospital, blood group) keeps decrements atomic with a
// guarded UPDATE.
type InventoryItem struct {
	HospitalID uuid.UUID        `gorm:"column:hospital_id;type:uuid;primaryKey"`
	BloodGroup enums.BloodGroup `gorm:"column:blood_group;type:text;primaryKey"`
	StockUnits int              `gorm:"column:stock_units;not null;default:0"`
	LentUnits  int              `gorm:"column:lent_units;not null;default:0"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
