package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// ItemDTO is the transport shape of one blood-group stock line.
type ItemDTO struct {
	HospitalID uuid.UUID        `json:"hospital_id"`
	BloodGroup enums.BloodGroup `json:"blood_group"`
	StockUnits int              `json:"stock_units"`
	LentUnits  int              `json:"lent_units"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// HospitalInventoryDTO groups a hospital's stock lines for the public
// pincode search.
type HospitalInventoryDTO struct {
	HospitalID   uuid.UUID `json:"hospital_id"`
	HospitalName string    `json:"hospital_name"`
	Pincode      string    `json:"pincode"`
	Items        []ItemDTO `json:"items"`
}

// UpsertStockInput writes absolute stock levels for the listed blood groups.
type UpsertStockInput struct {
	HospitalID uuid.UUID
	Stocks     map[string]int `json:"stocks" validate:"required"`
}

// AddStockInput adds units of one blood group to a hospital's stock.
type AddStockInput struct {
	HospitalID uuid.UUID
	BloodGroup string `json:"blood_group" validate:"required"`
	Units      int    `json:"units" validate:"required,min=1"`
}

// LendInput moves units from one hospital's stock to another's.
type LendInput struct {
	FromHospitalID uuid.UUID
	ToHospitalID   uuid.UUID `json:"to_hospital_id" validate:"required"`
	BloodGroup     string    `json:"blood_group" validate:"required"`
	Units          int       `json:"units" validate:"required,min=1"`
}

// LenderDTO is one line of the lending audit trail.
type LenderDTO struct {
	ID             uuid.UUID        `json:"id"`
	FromHospitalID uuid.UUID        `json:"from_hospital_id"`
	ToHospitalID   uuid.UUID        `json:"to_hospital_id"`
	BloodGroup     enums.BloodGroup `json:"blood_group"`
	Units          int              `json:"units"`
	CreatedAt      time.Time        `json:"created_at"`
}

func itemFromModel(m *models.InventoryItem) *ItemDTO {
	if m == nil {
		return nil
	}
	return &ItemDTO{
		HospitalID: m.HospitalID,
		BloodGroup: m.BloodGroup,
		StockUnits: m.StockUnits,
		LentUnits:  m.LentUnits,
		UpdatedAt:  m.UpdatedAt,
	}
}

func itemsFromModels(ms []models.InventoryItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *itemFromModel(&ms[i]))
	}
	return out
}

func lenderFromModel(m *models.Lender) *LenderDTO {
	if m == nil {
		return nil
	}
	return &LenderDTO{
		ID:             m.ID,
		FromHospitalID: m.FromHospitalID,
		ToHospitalID:   m.ToHospitalID,
		BloodGroup:     m.BloodGroup,
		Units:          m.Units,
		CreatedAt:      m.CreatedAt,
	}
}

func lendersFromModels(ms []models.Lender) []LenderDTO {
	out := make([]LenderDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *lenderFromModel(&ms[i]))
	}
	return out
}
