package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
)

const requestExpiryJobName = "request_expiry"

type expiredRequestStore interface {
	FindOpenExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus enums.RequestStatus) (bool, error)
}

type statusNotifier interface {
	NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any)
}

// RequestExpiryJobParams configure the request expiry sweeper.
type RequestExpiryJobParams struct {
	Logger   *logger.Logger
	Requests expiredRequestStore
	Notifier statusNotifier
	Now      func() time.Time
}

type requestExpiryJob struct {
	logg     *logger.Logger
	requests expiredRequestStore
	notifier statusNotifier
	now      func() time.Time
}

// NewRequestExpiryJob builds the cron job that closes open requests whose
// deadline has passed.
func NewRequestExpiryJob(params RequestExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request store required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &requestExpiryJob{
		logg:     params.Logger,
		requests: params.Requests,
		notifier: params.Notifier,
		now:      now,
	}, nil
}

func (j *requestExpiryJob) Name() string { return requestExpiryJobName }

func (j *requestExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	expired, err := j.requests.FindOpenExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find expired requests: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	var errs error
	flipped := 0
	for i := range expired {
		request := &expired[i]
		moved, err := j.requests.TransitionStatus(ctx, request.ID, enums.RequestStatusOpen, enums.RequestStatusExpired)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire request %s: %w", request.ID, err))
			continue
		}
		// A concurrent fulfillment or cancellation wins the race; the
		// guarded transition simply does nothing then.
		if !moved {
			continue
		}
		flipped++
		j.notifier.NotifyRequest(ctx, request.ID, enums.EventRequestStatusChanged, map[string]any{
			"request_id": request.ID,
			"status":     enums.RequestStatusExpired,
		})
	}

	runCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(expired),
		"expired":    flipped,
	})
	j.logg.Info(runCtx, "request expiry sweep complete")
	return errs
}
