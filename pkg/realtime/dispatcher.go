package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
)

// Publisher is the transport surface the dispatcher needs. Satisfied by the
// redis client.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Dispatcher fans domain events out over pub/sub channels. Delivery is
// best-effort: state is always persisted before an event is published, and a
// failed publish never fails the triggering operation.
type Dispatcher struct {
	pub  Publisher
	logg *logger.Logger
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	Event   enums.Event `json:"event"`
	Payload any         `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// NewDispatcher constructs a dispatcher over the given publisher.
func NewDispatcher(pub Publisher, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, logg: logg}
}

// UserChannel returns the per-user channel name.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

// RequestChannel returns the per-request channel name.
func RequestChannel(requestID uuid.UUID) string {
	return fmt.Sprintf("request:%s", requestID)
}

// NotifyUser publishes an event to a single user's channel.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any) {
	d.publish(ctx, UserChannel(userID), event, payload)
}

// NotifyUsers publishes the same event to several users.
func (d *Dispatcher) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, event enums.Event, payload any) {
	for _, id := range userIDs {
		d.publish(ctx, UserChannel(id), event, payload)
	}
}

// NotifyRequest publishes an event to a request's channel.
func (d *Dispatcher) NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any) {
	d.publish(ctx, RequestChannel(requestID), event, payload)
}

func (d *Dispatcher) publish(ctx context.Context, channel string, event enums.Event, payload any) {
	if d == nil || d.pub == nil {
		return
	}
	body, err := json.Marshal(Envelope{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		if d.logg != nil {
			d.logg.Error(d.eventCtx(ctx, channel, event), "marshaling realtime event", err)
		}
		return
	}
	if err := d.pub.Publish(ctx, channel, string(body)); err != nil {
		if d.logg != nil {
			d.logg.Error(d.eventCtx(ctx, channel, event), "publishing realtime event", err)
		}
	}
}

func (d *Dispatcher) eventCtx(ctx context.Context, channel string, event enums.Event) context.Context {
	return d.logg.WithFields(ctx, map[string]any{
		"channel": channel,
		"event":   event.String(),
	})
}
