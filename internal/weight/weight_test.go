package weight_test

import (
	"math"
	"testing"

	"github.com/myrjola/overload/internal/weight"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to weight.Unit
		want     float64
	}{
		{name: "same unit", value: 60, from: weight.Kilograms, to: weight.Kilograms, want: 60},
		{name: "kg to lbs", value: 60, from: weight.Kilograms, to: weight.Pounds, want: 132.2774},
		{name: "lbs to kg", value: 100, from: weight.Pounds, to: weight.Kilograms, want: 45.3592},
		{name: "unknown unit is identity", value: 7, from: weight.Unit("stone"), to: weight.Kilograms, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weight.Convert(tt.value, tt.from, tt.to)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("Convert(%v, %s, %s) = %v, want %v", tt.value, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvert_roundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 2.5, 62.5, 142.86} {
		got := weight.Convert(weight.Convert(v, weight.Kilograms, weight.Pounds), weight.Pounds, weight.Kilograms)
		if math.Abs(got-v) > 1e-9 {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
}

func TestParseUnit(t *testing.T) {
	if u, err := weight.ParseUnit("kg"); err != nil || u != weight.Kilograms {
		t.Errorf("ParseUnit(kg) = %q, %v", u, err)
	}
	if u, err := weight.ParseUnit("lbs"); err != nil || u != weight.Pounds {
		t.Errorf("ParseUnit(lbs) = %q, %v", u, err)
	}
	if _, err := weight.ParseUnit(""); err == nil {
		t.Error("expected error for empty unit")
	}
}

func TestRound2(t *testing.T) {
	if got := weight.Round2(1453.5925); got != 1453.59 {
		t.Errorf("Round2 = %v", got)
	}
	if got := weight.Round2(0.125); got != 0.13 {
		t.Errorf("Round2 = %v", got)
	}
}
