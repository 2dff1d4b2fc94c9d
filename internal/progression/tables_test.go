package progression_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/overload/internal/progression"
)

func TestParseTables(t *testing.T) {
	t.Run("empty document keeps defaults", func(t *testing.T) {
		got, err := progression.ParseTables(nil)
		if err != nil {
			t.Fatalf("ParseTables() error = %v", err)
		}
		if diff := cmp.Diff(progression.DefaultTables(), got); diff != "" {
			t.Errorf("tables mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overrides merge over defaults", func(t *testing.T) {
		got, err := progression.ParseTables([]byte(`
goals:
  STRENGTH:
    repRange: {min: 3, max: 5}
    defaultWorkingSets: 5
    upperBodyIncrease: 0.02
    lowerBodyIncrease: 0.04
    deload: 0.1
    baseWeightMultiplier: 1.2
muscleBaseWeightsKg:
  CHEST: 30
  NECK: 5
muscleSetTargets:
  ENDURANCE: {minSets: 4, maxSets: 8}
`))
		if err != nil {
			t.Fatalf("ParseTables() error = %v", err)
		}
		_, strength := got.Goal(progression.Strength)
		want := progression.GoalConfig{
			RepRange:             progression.RepRange{Min: 3, Max: 5},
			DefaultWorkingSets:   5,
			UpperBodyIncrease:    0.02,
			LowerBodyIncrease:    0.04,
			Deload:               0.1,
			BaseWeightMultiplier: 1.2,
		}
		if diff := cmp.Diff(want, strength); diff != "" {
			t.Errorf("strength mismatch (-want +got):\n%s", diff)
		}
		if got.BaseWeightKg("CHEST") != 30 || got.BaseWeightKg("NECK") != 5 || got.BaseWeightKg("BACK") != 25 {
			t.Errorf("unexpected base weights %v", got.MuscleBaseWeightsKg)
		}
		if got.BaseWeightKg("UNKNOWN") != 15 {
			t.Errorf("BaseWeightKg(UNKNOWN) = %v, want 15", got.BaseWeightKg("UNKNOWN"))
		}
		if diff := cmp.Diff(progression.SetTargets{MinSets: 4, MaxSets: 8}, got.SetTargets(progression.Endurance)); diff != "" {
			t.Errorf("set targets mismatch (-want +got):\n%s", diff)
		}
	})

	invalid := []struct {
		name string
		yaml string
	}{
		{"unknown field", "goalz: {}"},
		{"inverted rep range", `
goals:
  HYPERTROPHY: {repRange: {min: 12, max: 8}, defaultWorkingSets: 3, baseWeightMultiplier: 1}`},
		{"deload out of range", `
goals:
  HYPERTROPHY: {repRange: {min: 8, max: 12}, defaultWorkingSets: 3, deload: 1.5, baseWeightMultiplier: 1}`},
		{"unknown goal", `
goals:
  POWER: {repRange: {min: 1, max: 3}, defaultWorkingSets: 3, baseWeightMultiplier: 1}`},
		{"inverted set targets", "muscleSetTargets: {STRENGTH: {minSets: 9, maxSets: 3}}"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := progression.ParseTables([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTables_Validate(t *testing.T) {
	tables := progression.DefaultTables()
	if err := tables.Validate(); err != nil {
		t.Fatalf("default tables are invalid: %v", err)
	}

	delete(tables.Goals, progression.Hypertrophy)
	tables.DefaultBaseWeightKg = 0
	err := tables.Validate()
	if !errors.Is(err, progression.ErrInvalidTables) {
		t.Fatalf("Validate() error = %v, want ErrInvalidTables", err)
	}
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("defaultBaseWeightKg: 12.5\n"), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	tables, err := progression.LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables() error = %v", err)
	}
	if tables.DefaultBaseWeightKg != 12.5 {
		t.Errorf("DefaultBaseWeightKg = %v, want 12.5", tables.DefaultBaseWeightKg)
	}

	if _, err = progression.LoadTables(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
