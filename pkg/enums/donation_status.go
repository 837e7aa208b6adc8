package enums

import "fmt"

// DonationStatus tracks a pledge from commitment to completion.
// The only legal transition is pledged -> completed.
type DonationStatus string

const (
	DonationStatusPledged   DonationStatus = "pledged"
	DonationStatusCompleted DonationStatus = "completed"
)

var validDonationStatuses = []DonationStatus{
	DonationStatusPledged,
	DonationStatusCompleted,
}

// String implements fmt.Stringer.
func (s DonationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DonationStatus.
func (s DonationStatus) IsValid() bool {
	for _, candidate := range validDonationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDonationStatus converts raw input into a DonationStatus.
func ParseDonationStatus(value string) (DonationStatus, error) {
	for _, candidate := range validDonationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid donation status %q", value)
}
