package enums

import "fmt"

// BadgeLevel is a donor's reward tier derived from cumulative points.
type BadgeLevel string

const (
	BadgeLevelBronze   BadgeLevel = "Bronze"
	BadgeLevelSilver   BadgeLevel = "Silver"
	BadgeLevelGold     BadgeLevel = "Gold"
	BadgeLevelPlatinum BadgeLevel = "Platinum"
)

var validBadgeLevels = []BadgeLevel{
	BadgeLevelBronze,
	BadgeLevelSilver,
	BadgeLevelGold,
	BadgeLevelPlatinum,
}

// String implements fmt.Stringer.
func (b BadgeLevel) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BadgeLevel.
func (b BadgeLevel) IsValid() bool {
	for _, candidate := range validBadgeLevels {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBadgeLevel converts raw input into a BadgeLevel.
func ParseBadgeLevel(value string) (BadgeLevel, error) {
	for _, candidate := range validBadgeLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge level %q", value)
}
