package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink-backend/pkg/db/models"
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// CreateRequestInput captures the payload for opening a new blood request.
type CreateRequestInput struct {
	HospitalID  uuid.UUID
	BloodGroup  string `json:"blood_group" validate:"required"`
	Units       int    `json:"units" validate:"required,min=1"`
	Pincode     string `json:"pincode,omitempty"`
	IsEmergency bool   `json:"is_emergency"`
	Notes       *string `json:"notes,omitempty"`
}

// AcceptDonorInput identifies the donor a hospital chooses for its request.
type AcceptDonorInput struct {
	RequestID  uuid.UUID
	HospitalID uuid.UUID
	DonorID    uuid.UUID `json:"donor_id" validate:"required"`
}

// UpdateStatusInput carries a requested lifecycle transition. ActorRole
// decides whether the ownership check applies; admins act on any request.
type UpdateStatusInput struct {
	RequestID uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.Role
	Status    string `json:"status" validate:"required"`
}

// PledgeSummary is one donor's pledge as shown on the hospital's listing.
type PledgeSummary struct {
	DonationID uuid.UUID            `json:"donation_id"`
	DonorID    uuid.UUID            `json:"donor_id"`
	Status     enums.DonationStatus `json:"status"`
	PledgedAt  time.Time            `json:"pledged_at"`
}

// DonorContact carries the accepted donor's contact details.
type DonorContact struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Phone      *string           `json:"phone,omitempty"`
	BloodGroup *enums.BloodGroup `json:"blood_group,omitempty"`
}

// RequestDTO is the transport shape of a blood request. Pledges and
// AcceptedDonor are populated only on the hospital's own listing.
type RequestDTO struct {
	ID              uuid.UUID           `json:"id"`
	HospitalID      uuid.UUID           `json:"hospital_id"`
	BloodGroup      enums.BloodGroup    `json:"blood_group"`
	Units           int                 `json:"units"`
	Pincode         string              `json:"pincode"`
	IsEmergency     bool                `json:"is_emergency"`
	Status          enums.RequestStatus `json:"status"`
	MatchedDonorIDs []uuid.UUID         `json:"matched_donor_ids"`
	AcceptedDonorID *uuid.UUID          `json:"accepted_donor_id,omitempty"`
	AcceptedDonor   *DonorContact       `json:"accepted_donor,omitempty"`
	Pledges         []PledgeSummary     `json:"pledges,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	ExpiresAt       time.Time           `json:"expires_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// FromModel converts the persistence model into its transport shape.
func FromModel(r *models.Request) *RequestDTO {
	if r == nil {
		return nil
	}
	return &RequestDTO{
		ID:              r.ID,
		HospitalID:      r.HospitalID,
		BloodGroup:      r.BloodGroup,
		Units:           r.Units,
		Pincode:         r.Pincode,
		IsEmergency:     r.IsEmergency,
		Status:          r.Status,
		MatchedDonorIDs: append([]uuid.UUID{}, r.MatchedDonorIDs...),
		AcceptedDonorID: r.AcceptedDonorID,
		Notes:           r.Notes,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// FromModels maps a slice of requests.
func FromModels(rs []models.Request) []RequestDTO {
	out := make([]RequestDTO, 0, len(rs))
	for i := range rs {
		out = append(out, *FromModel(&rs[i]))
	}
	return out
}
