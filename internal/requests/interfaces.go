package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// Repository defines persistence operations for blood requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]models.Request, error)
	ListMatchedForDonor(ctx context.Context, donorID uuid.UUID) ([]models.Request, error)
	ListAll(ctx context.Context) ([]models.Request, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// TransitionStatus moves the request out of fromStatus and reports whether
	// the guarded update actually changed a row.
	TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus enums.RequestStatus) (bool, error)
	FindOpenExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error)
	CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error)
}
