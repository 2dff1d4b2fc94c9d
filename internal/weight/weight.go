// Package weight converts loads between kilograms and pounds.
package weight

import (
	"fmt"
	"math"
)

// Unit is a unit of load.
type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lbs"
)

// kgPerLb is the kilograms per pound factor used by stored loads, rounded from 0.45359237.
const kgPerLb = 0.453592

// ParseUnit parses a unit string. The empty string is rejected so that callers decide the default themselves.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Kilograms, Pounds:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("unknown weight unit %q", s)
	}
}

// Convert converts value from one unit to another without rounding.
func Convert(value float64, from, to Unit) float64 {
	if from == to {
		return value
	}
	if from == Kilograms && to == Pounds {
		return value / kgPerLb
	}
	if from == Pounds && to == Kilograms {
		return value * kgPerLb
	}
	return value
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100 //nolint:mnd // two decimals
}
