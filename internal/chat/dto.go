package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
)

// PostMessageInput carries a new chat message for a request thread.
type PostMessageInput struct {
	RequestID uuid.UUID
	SenderID  uuid.UUID
	Body      string `json:"body" validate:"required,max=2000"`
}

// MessageDTO is the transport shape of a chat message.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryPage is one page of a request's message thread, oldest first.
type HistoryPage struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel converts the persistence model into its transport shape.
func FromModel(m *models.ChatMessage) *MessageDTO {
	if m == nil {
		return nil
	}
	return &MessageDTO{
		ID:        m.ID,
		RequestID: m.RequestID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// FromModels maps a slice of messages.
func FromModels(ms []models.ChatMessage) []MessageDTO {
	out := make([]MessageDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *FromModel(&ms[i]))
	}
	return out
}
