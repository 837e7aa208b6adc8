package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Repository covers the donation/donor writes the award flow performs. It is
// constructed per transaction.
type Repository interface {
	ListPledgedByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error)
	CompleteDonation(ctx context.Context, donationID uuid.UUID, points int, certificateURL *string, at time.Time) error
	FindDonor(ctx context.Context, donorID uuid.UUID) (*models.User, error)
	UpdateDonorRewards(ctx context.Context, donorID uuid.UUID, points int, badge enums.BadgeLevel) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rewards repository bound to the provided DB or tx.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPledgedByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestID, enums.DonationStatusPledged).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CompleteDonation(ctx context.Context, donationID uuid.UUID, points int, certificateURL *string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", donationID).
		UpdateColumns(map[string]any{
			"status":          enums.DonationStatusCompleted,
			"points_awarded":  points,
			"certificate_url": certificateURL,
			"completed_at":    at,
			"updated_at":      at,
		}).Error
}

func (r *repository) FindDonor(ctx context.Context, donorID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", donorID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateDonorRewards(ctx context.Context, donorID uuid.UUID, points int, badge enums.BadgeLevel) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", donorID).
		UpdateColumns(map[string]any{
			"points": points,
			"badge":  badge,
		}).Error
}
