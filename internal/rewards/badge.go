package rewards

import "github.com/bloodlink/bloodlink-backend/pkg/enums"

// Points granted per completed donation.
const (
	EmergencyDonationPoints = 20
	StandardDonationPoints  = 10
)

// Badge thresholds on cumulative points.
const (
	platinumThreshold = 300
	goldThreshold     = 150
	silverThreshold   = 50
)

// PointsForRequest returns the points a completed donation earns.
func PointsForRequest(isEmergency bool) int {
	if isEmergency {
		return EmergencyDonationPoints
	}
	return StandardDonationPoints
}

// BadgeForPoints derives the badge tier from a donor's cumulative points.
func BadgeForPoints(points int) enums.BadgeLevel {
	switch {
	case points >= platinumThreshold:
		return enums.BadgeLevelPlatinum
	case points >= goldThreshold:
		return enums.BadgeLevelGold
	case points >= silverThreshold:
		return enums.BadgeLevelSilver
	default:
		return enums.BadgeLevelBronze
	}
}
