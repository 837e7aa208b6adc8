package chat

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/pagination"
)

// Repository defines persistence for per-request chat messages.
type Repository interface {
	Create(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ChatMessage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a chat repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ChatMessage, error) {
	query := r.db.WithContext(ctx).Where("request_id = ?", requestID)
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var out []models.ChatMessage
	err := query.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
