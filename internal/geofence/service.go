package geofence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
	pkgerrors "github.com/bloodlink/bloodlink-backend/pkg/errors"
	"github.com/bloodlink/bloodlink-backend/pkg/metrics"
	"github.com/bloodlink/bloodlink-backend/pkg/types"
)

// Notifier is the realtime fanout surface.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event enums.Event, payload any)
	NotifyRequest(ctx context.Context, requestID uuid.UUID, event enums.Event, payload any)
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type donationStore interface {
	ListPledgedByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
	// MarkArrivalAlertSent flips the once-only arrival flag on a pledge and
	// reports whether this call was the one that flipped it.
	MarkArrivalAlertSent(ctx context.Context, donationID uuid.UUID) (bool, error)
}

// Service tracks pledged donors in transit and raises an alert when one
// enters the hospital's arrival radius, at most once per pledge.
type Service interface {
	UpdateDonorLocation(ctx context.Context, donorID uuid.UUID, coords types.Coordinates) error
}

type service struct {
	users     userStore
	donations donationStore
	notifier  Notifier
	metrics   *metrics.WorkflowMetrics
	radius    float64
}

// ServiceParams bundles the dependencies for the geofence monitor.
type ServiceParams struct {
	Users     userStore
	Donations donationStore
	Notifier  Notifier
	Metrics   *metrics.WorkflowMetrics
	Config    config.GeofenceConfig
}

// NewService builds the geofence monitor.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Donations == nil {
		return nil, fmt.Errorf("donation store required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	radius := params.Config.ArrivalRadiusKM
	if radius <= 0 {
		radius = 1
	}
	return &service{
		users:     params.Users,
		donations: params.Donations,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		radius:    radius,
	}, nil
}

// ArrivalPayload is delivered to the hospital when a pledged donor enters
// the arrival radius.
type ArrivalPayload struct {
	RequestID  uuid.UUID `json:"request_id"`
	DonorID    uuid.UUID `json:"donor_id"`
	DonorName  string    `json:"donor_name"`
	DistanceKM float64   `json:"distance_km"`
}

// LocationPayload streams donor movement to request watchers.
type LocationPayload struct {
	DonorID   uuid.UUID `json:"donor_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *service) UpdateDonorLocation(ctx context.Context, donorID uuid.UUID, coords types.Coordinates) error {
	if donorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "donor id is required")
	}
	if err := coords.Validate(); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	donor, err := s.users.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load donor")
	}
	if donor.Role != enums.RoleDonor {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only donors report locations")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateColumns(ctx, donorID, map[string]any{
		"latitude":   coords.Lat,
		"longitude":  coords.Lng,
		"updated_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist donor location")
	}

	pledged, err := s.donations.ListPledgedByDonor(ctx, donorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pledged donations")
	}

	for i := range pledged {
		donation := &pledged[i]

		s.notifier.NotifyRequest(ctx, donation.RequestID, enums.EventDonorLocationUpdated, LocationPayload{
			DonorID:   donorID,
			Lat:       coords.Lat,
			Lng:       coords.Lng,
			UpdatedAt: now,
		})

		if donation.ArrivalAlertSent {
			continue
		}
		hospitalCoords, ok := s.hospitalCoordinates(ctx, donation.HospitalID)
		if !ok {
			continue
		}
		distance := DistanceKM(coords, hospitalCoords)
		if distance > s.radius {
			continue
		}

		// Guarded flip keeps the alert once-only under concurrent updates.
		flipped, err := s.donations.MarkArrivalAlertSent(ctx, donation.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark arrival alert")
		}
		if !flipped {
			continue
		}
		s.metrics.IncArrivalAlert()
		s.notifier.NotifyUser(ctx, donation.HospitalID, enums.EventDonorNearHospital, ArrivalPayload{
			RequestID:  donation.RequestID,
			DonorID:    donorID,
			DonorName:  donor.Name,
			DistanceKM: distance,
		})
	}

	return nil
}

func (s *service) hospitalCoordinates(ctx context.Context, hospitalID uuid.UUID) (types.Coordinates, bool) {
	hospital, err := s.users.FindByID(ctx, hospitalID)
	if err != nil || hospital.Latitude == nil || hospital.Longitude == nil {
		return types.Coordinates{}, false
	}
	return types.Coordinates{Lat: *hospital.Latitude, Lng: *hospital.Longitude}, true
}
