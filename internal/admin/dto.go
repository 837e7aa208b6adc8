package admin

import (
	"github.com/bloodlink/bloodlink-backend/pkg/enums"
)

// StatsDTO is the platform overview returned to admins.
type StatsDTO struct {
	Donors              int64                         `json:"donors"`
	Hospitals           int64                         `json:"hospitals"`
	DonorsByBloodGroup  map[enums.BloodGroup]int64    `json:"donors_by_blood_group"`
	RequestsByStatus    map[enums.RequestStatus]int64 `json:"requests_by_status"`
	PendingVerification int64                         `json:"pending_verification"`
}

// VerifyHospitalInput carries an admin verification decision.
type VerifyHospitalInput struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes,omitempty"`
}
