// Package units provides shared constants and validation for the angle and
// speed units accepted at the tool boundaries.
package units

import "math"

// Angle unit constants. Joint positions are stored in radians (revolute)
// or metres (prismatic); degrees are accepted on input for convenience.
const (
	RAD = "rad"
	DEG = "deg"
)

// ValidAngleUnits contains all valid angle unit values.
var ValidAngleUnits = []string{RAD, DEG}

// IsValidAngleUnit checks if the given unit is in the list of valid angle units.
func IsValidAngleUnit(unit string) bool {
	for _, validUnit := range ValidAngleUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ToRadians converts an angle in the given units to radians.
func ToRadians(value float64, unit string) float64 {
	if unit == DEG {
		return value * math.Pi / 180
	}
	return value
}

// FromRadians converts an angle in radians to the target units.
func FromRadians(value float64, targetUnit string) float64 {
	if targetUnit == DEG {
		return value * 180 / math.Pi
	}
	return value
}

// Linear speed unit constants for prismatic joint reporting. Values are
// stored in m/s.
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
)

// ValidSpeedUnits contains all valid speed unit values.
var ValidSpeedUnits = []string{MPS, MPH, KMPH}

// IsValidSpeedUnit checks if the given unit is in the list of valid speed units.
func IsValidSpeedUnit(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from meters per second to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}
