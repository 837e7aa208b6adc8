package enums

import "fmt"

// BloodGroup is one of the eight ABO/Rh blood groups.
type BloodGroup string

const (
	BloodGroupAPositive  BloodGroup = "A+"
	BloodGroupANegative  BloodGroup = "A-"
	BloodGroupBPositive  BloodGroup = "B+"
	BloodGroupBNegative  BloodGroup = "B-"
	BloodGroupABPositive BloodGroup = "AB+"
	BloodGroupABNegative BloodGroup = "AB-"
	BloodGroupOPositive  BloodGroup = "O+"
	BloodGroupONegative  BloodGroup = "O-"
)

// AllBloodGroups is the closed set of valid groups, in display order.
var AllBloodGroups = []BloodGroup{
	BloodGroupAPositive,
	BloodGroupANegative,
	BloodGroupBPositive,
	BloodGroupBNegative,
	BloodGroupABPositive,
	BloodGroupABNegative,
	BloodGroupOPositive,
	BloodGroupONegative,
}

// String implements fmt.Stringer.
func (b BloodGroup) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BloodGroup.
func (b BloodGroup) IsValid() bool {
	for _, candidate := range AllBloodGroups {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBloodGroup converts raw input into a BloodGroup.
func ParseBloodGroup(value string) (BloodGroup, error) {
	for _, candidate := range AllBloodGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid blood group %q", value)
}
