package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Repository defines persistence operations for hospital blood stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.InventoryItem, error)
	ListByHospitalIDs(ctx context.Context, hospitalIDs []uuid.UUID) ([]models.InventoryItem, error)
	AddStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error
	// SetStock writes the absolute unit count for one blood group.
	SetStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error
	// DeductStock runs a guarded decrement and reports whether enough
	// stock was present.
	DeductStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) (bool, error)
	AddLent(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error
	CreateLender(ctx context.Context, lender *models.Lender) (*models.Lender, error)
	ListLendersByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.Lender, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("blood_group ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListByHospitalIDs(ctx context.Context, hospitalIDs []uuid.UUID) ([]models.InventoryItem, error) {
	if len(hospitalIDs) == 0 {
		return nil, nil
	}
	var out []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("hospital_id IN ?", hospitalIDs).
		Order("hospital_id ASC, blood_group ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) AddStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory_items (hospital_id, blood_group, stock_units, lent_units, updated_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT (hospital_id, blood_group)
		DO UPDATE SET stock_units = inventory_items.stock_units + EXCLUDED.stock_units,
			updated_at = CURRENT_TIMESTAMP
	`, hospitalID, bloodGroup, units).Error
}

func (r *repository) SetStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory_items (hospital_id, blood_group, stock_units, lent_units, updated_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT (hospital_id, blood_group)
		DO UPDATE SET stock_units = EXCLUDED.stock_units,
			updated_at = CURRENT_TIMESTAMP
	`, hospitalID, bloodGroup, units).Error
}

func (r *repository) DeductStock(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET stock_units = stock_units - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE hospital_id = ? AND blood_group = ? AND stock_units >= ?
	`, units, hospitalID, bloodGroup, units)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AddLent(ctx context.Context, hospitalID uuid.UUID, bloodGroup enums.BloodGroup, units int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory_items (hospital_id, blood_group, stock_units, lent_units, updated_at)
		VALUES (?, ?, 0, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (hospital_id, blood_group)
		DO UPDATE SET lent_units = inventory_items.lent_units + EXCLUDED.lent_units,
			updated_at = CURRENT_TIMESTAMP
	`, hospitalID, bloodGroup, units).Error
}

func (r *repository) CreateLender(ctx context.Context, lender *models.Lender) (*models.Lender, error) {
	if err := r.db.WithContext(ctx).Create(lender).Error; err != nil {
		return nil, err
	}
	return lender, nil
}

func (r *repository) ListLendersByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.Lender, error) {
	var out []models.Lender
	err := r.db.WithContext(ctx).
		Where("from_hospital_id = ? OR to_hospital_id = ?", hospitalID, hospitalID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
