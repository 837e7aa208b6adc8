package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/pagination"
)

// Notifier is the realtime fanout surface.
type Notifier interface {
	NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any)
}

type requestReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type pledgeChecker interface {
	HasPledged(ctx context.Context, donorID, requestID uuid.UUID) (bool, error)
}

// MessagePayload is published on the request channel for every posted message.
type MessagePayload struct {
	MessageID  uuid.UUID `json:"message_id"`
	RequestID  uuid.UUID `json:"request_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Body       string    `json:"body"`
}

// Service handles per-request chat threads between a hospital and its donors.
type Service interface {
	Post(ctx context.Context, input PostMessageInput) (*MessageDTO, error)
	History(ctx context.Context, requestID, actorID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	repo     Repository
	requests requestReader
	users    userReader
	pledges  pledgeChecker
	notifier Notifier
}

// ServiceParams bundles the dependencies for the chat service.
type ServiceParams struct {
	Repo     Repository
	Requests requestReader
	Users    userReader
	Pledges  pledgeChecker
	Notifier Notifier
}

// NewService builds a chat service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("chat repository required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request reader required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if params.Pledges == nil {
		return nil, fmt.Errorf("pledge checker required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     params.Repo,
		requests: params.Requests,
		users:    params.Users,
		pledges:  params.Pledges,
		notifier: params.Notifier,
	}, nil
}

func (s *service) Post(ctx context.Context, input PostMessageInput) (*MessageDTO, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body cannot be empty")
	}

	actor, err := s.authorize(ctx, input.RequestID, input.SenderID)
	if err != nil {
		return nil, err
	}

	message, err := s.repo.Create(ctx, &models.ChatMessage{
		RequestID: input.RequestID,
		SenderID:  input.SenderID,
		Body:      body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist message")
	}

	// Persist first, then fan out. A failed publish never loses the message.
	s.notifier.NotifyRequest(ctx, input.RequestID, enums.EventChatMessage, MessagePayload{
		MessageID:  message.ID,
		RequestID:  message.RequestID,
		SenderID:   message.SenderID,
		SenderRole: string(actor.Role),
		Body:       message.Body,
	})

	return FromModel(message), nil
}

func (s *service) History(ctx context.Context, requestID, actorID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if _, err := s.authorize(ctx, requestID, actorID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	// Fetch one row past the page size to learn whether a next page exists.
	limit := pagination.NormalizeLimit(params.Limit)
	messages, err := s.repo.ListByRequest(ctx, requestID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}

	page := &HistoryPage{Messages: FromModels(messages)}
	if len(messages) > limit {
		page.Messages = page.Messages[:limit]
		last := messages[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// authorize admits the owning hospital, admins, and donors tied to the
// request through matching, a pledge, or acceptance.
func (s *service) authorize(ctx context.Context, requestID, actorID uuid.UUID) (*models.User, error) {
	if requestID == uuid.Nil || actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id and sender id are required")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load request")
	}

	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	switch actor.Role {
	case enums.RoleAdmin:
		return actor, nil
	case enums.RoleHospital:
		if request.HospitalID == actorID {
			return actor, nil
		}
	case enums.RoleDonor:
		if request.AcceptedDonorID != nil && *request.AcceptedDonorID == actorID {
			return actor, nil
		}
		for _, id := range request.MatchedDonorIDs {
			if id == actorID {
				return actor, nil
			}
		}
		pledged, err := s.pledges.HasPledged(ctx, actorID, requestID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pledge")
		}
		if pledged {
			return actor, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant in this request")
}
