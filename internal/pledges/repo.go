package pledges

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a donations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *repository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListPledgedByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ? AND status = ?", donorID, enums.DonationStatusPledged).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) MarkArrivalAlertSent(ctx context.Context, donationID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND arrival_alert_sent = ?", donationID, false).
		UpdateColumns(map[string]any{
			"arrival_alert_sent": true,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) HasPledged(ctx context.Context, donorID, requestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("donor_id = ? AND request_id = ?", donorID, requestID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
