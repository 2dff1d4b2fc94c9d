package progression

import (
	"math"

	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/weight"
)

// Increment returns the smallest realistic load jump for the equipment class in unit.
//
//nolint:mnd // plate and dumbbell jumps
func Increment(unit weight.Unit, class exercise.EquipmentClass) float64 {
	switch class {
	case exercise.EquipmentBarbell, exercise.EquipmentMachine:
		if unit == weight.Kilograms {
			return 2.5
		}
		return 5
	default:
		if unit == weight.Kilograms {
			return 1
		}
		return 2.5
	}
}

// RoundToIncrement rounds w to the nearest available increment. Non-positive loads round to a single increment.
func RoundToIncrement(w float64, unit weight.Unit, class exercise.EquipmentClass) float64 {
	inc := Increment(unit, class)
	if w <= 0 {
		return inc
	}
	return weight.Round2(math.Round(w/inc) * inc)
}

// RoundUp rounds w up to an available increment, never below a single increment.
func RoundUp(w float64, unit weight.Unit, class exercise.EquipmentClass) float64 {
	inc := Increment(unit, class)
	return weight.Round2(max(inc, math.Ceil(w/inc)*inc))
}

// RoundDown rounds w down to an available increment, never below a single increment.
func RoundDown(w float64, unit weight.Unit, class exercise.EquipmentClass) float64 {
	inc := Increment(unit, class)
	return weight.Round2(max(inc, math.Floor(w/inc)*inc))
}
