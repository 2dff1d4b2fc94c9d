package progression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Goal is a training goal with its own rep range and load policy.
type Goal string

const (
	Strength    Goal = "STRENGTH"
	Hypertrophy Goal = "HYPERTROPHY"
	Endurance   Goal = "ENDURANCE"
)

// ParseGoal parses a goal name.
func ParseGoal(s string) (Goal, error) {
	switch Goal(s) {
	case Strength, Hypertrophy, Endurance:
		return Goal(s), nil
	default:
		return "", fmt.Errorf("unknown goal %q", s)
	}
}

// RepRange is an inclusive range of target reps.
type RepRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Clamp limits reps to the range.
func (r RepRange) Clamp(reps int) int {
	return max(r.Min, min(r.Max, reps))
}

// GoalConfig is the load policy of a single goal.
type GoalConfig struct {
	RepRange           RepRange `yaml:"repRange"`
	DefaultWorkingSets int      `yaml:"defaultWorkingSets"`
	// UpperBodyIncrease and LowerBodyIncrease are fractional load increases, 0.025 meaning 2.5%.
	UpperBodyIncrease float64 `yaml:"upperBodyIncrease"`
	LowerBodyIncrease float64 `yaml:"lowerBodyIncrease"`
	Deload            float64 `yaml:"deload"`
	// BaseWeightMultiplier scales the muscle base weights used when there is no history.
	BaseWeightMultiplier float64 `yaml:"baseWeightMultiplier"`
}

// SetTargets is the weekly effective set range per muscle.
type SetTargets struct {
	MinSets int `yaml:"minSets"`
	MaxSets int `yaml:"maxSets"`
}

// Tables is the static configuration of the engine. Treat it as immutable once handed to [NewEngine].
type Tables struct {
	Goals map[Goal]GoalConfig `yaml:"goals"`
	// MuscleBaseWeightsKg is the conservative starting load per primary muscle.
	MuscleBaseWeightsKg map[string]float64 `yaml:"muscleBaseWeightsKg"`
	// DefaultBaseWeightKg is used for muscles missing from MuscleBaseWeightsKg.
	DefaultBaseWeightKg float64             `yaml:"defaultBaseWeightKg"`
	MuscleSetTargets    map[Goal]SetTargets `yaml:"muscleSetTargets"`
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Goals: map[Goal]GoalConfig{
			Strength: {
				RepRange:             RepRange{Min: 4, Max: 6},
				DefaultWorkingSets:   4,
				UpperBodyIncrease:    0.03,
				LowerBodyIncrease:    0.05,
				Deload:               0.05,
				BaseWeightMultiplier: 1.1,
			},
			Hypertrophy: {
				RepRange:             RepRange{Min: 8, Max: 12},
				DefaultWorkingSets:   3,
				UpperBodyIncrease:    0.025,
				LowerBodyIncrease:    0.05,
				Deload:               0.05,
				BaseWeightMultiplier: 1,
			},
			Endurance: {
				RepRange:             RepRange{Min: 12, Max: 15},
				DefaultWorkingSets:   3,
				UpperBodyIncrease:    0.02,
				LowerBodyIncrease:    0.03,
				Deload:               0.05,
				BaseWeightMultiplier: 0.9,
			},
		},
		MuscleBaseWeightsKg: map[string]float64{
			"CHEST":      20,
			"BACK":       25,
			"LATS":       25,
			"BICEPS":     10,
			"TRICEPS":    10,
			"SHOULDERS":  12.5,
			"TRAPS":      15,
			"FOREARMS":   8,
			"QUADRICEPS": 30,
			"HAMSTRINGS": 30,
			"GLUTES":     35,
			"CALVES":     25,
			"FULL_BODY":  25,
		},
		DefaultBaseWeightKg: 15,
		MuscleSetTargets: map[Goal]SetTargets{
			Strength:    {MinSets: 6, MaxSets: 10},
			Hypertrophy: {MinSets: 10, MaxSets: 20},
			Endurance:   {MinSets: 8, MaxSets: 14},
		},
	}
}

// Goal returns the configuration of g, falling back to hypertrophy for unknown goals.
func (t Tables) Goal(g Goal) (Goal, GoalConfig) {
	if cfg, ok := t.Goals[g]; ok {
		return g, cfg
	}
	return Hypertrophy, t.Goals[Hypertrophy]
}

// BaseWeightKg returns the starting load for a primary muscle.
func (t Tables) BaseWeightKg(muscle string) float64 {
	if w, ok := t.MuscleBaseWeightsKg[muscle]; ok {
		return w
	}
	return t.DefaultBaseWeightKg
}

// SetTargets returns the weekly set targets for g, falling back to hypertrophy.
func (t Tables) SetTargets(g Goal) SetTargets {
	if st, ok := t.MuscleSetTargets[g]; ok {
		return st
	}
	return t.MuscleSetTargets[Hypertrophy]
}

var ErrInvalidTables = errors.New("invalid progression tables")

// LoadTables reads a YAML file that overrides the built-in tables.
//
// Each goal listed in the file replaces the built-in goal entirely, while muscle base weights and set targets are
// merged key by key. Unknown fields are rejected.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables is [LoadTables] for in-memory YAML.
func ParseTables(data []byte) (Tables, error) {
	var override Tables
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return Tables{}, fmt.Errorf("decode tables: %w", err)
	}

	tables := DefaultTables()
	maps.Copy(tables.Goals, override.Goals)
	maps.Copy(tables.MuscleBaseWeightsKg, override.MuscleBaseWeightsKg)
	maps.Copy(tables.MuscleSetTargets, override.MuscleSetTargets)
	if override.DefaultBaseWeightKg != 0 {
		tables.DefaultBaseWeightKg = override.DefaultBaseWeightKg
	}
	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

// Validate checks that every goal has a usable configuration.
func (t Tables) Validate() error {
	var errs []error
	for _, g := range slices.Sorted(maps.Keys(t.Goals)) {
		cfg := t.Goals[g]
		if _, err := ParseGoal(string(g)); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidTables, err))
		}
		if cfg.RepRange.Min <= 0 || cfg.RepRange.Min > cfg.RepRange.Max {
			errs = append(errs, fmt.Errorf("%w: goal %s: rep range %d-%d", ErrInvalidTables, g,
				cfg.RepRange.Min, cfg.RepRange.Max))
		}
		if cfg.DefaultWorkingSets <= 0 {
			errs = append(errs, fmt.Errorf("%w: goal %s: default working sets %d", ErrInvalidTables, g,
				cfg.DefaultWorkingSets))
		}
		percentages := []struct {
			name  string
			value float64
		}{
			{name: "upperBodyIncrease", value: cfg.UpperBodyIncrease},
			{name: "lowerBodyIncrease", value: cfg.LowerBodyIncrease},
			{name: "deload", value: cfg.Deload},
		}
		for _, pct := range percentages {
			if pct.value < 0 || pct.value >= 1 {
				errs = append(errs, fmt.Errorf("%w: goal %s: %s %v outside [0,1)", ErrInvalidTables, g,
					pct.name, pct.value))
			}
		}
		if cfg.BaseWeightMultiplier <= 0 {
			errs = append(errs, fmt.Errorf("%w: goal %s: base weight multiplier %v", ErrInvalidTables, g,
				cfg.BaseWeightMultiplier))
		}
	}
	if _, ok := t.Goals[Hypertrophy]; !ok {
		errs = append(errs, fmt.Errorf("%w: missing %s goal", ErrInvalidTables, Hypertrophy))
	}
	if _, ok := t.MuscleSetTargets[Hypertrophy]; !ok {
		errs = append(errs, fmt.Errorf("%w: missing %s set targets", ErrInvalidTables, Hypertrophy))
	}
	for _, g := range slices.Sorted(maps.Keys(t.MuscleSetTargets)) {
		st := t.MuscleSetTargets[g]
		if st.MinSets < 0 || st.MinSets > st.MaxSets {
			errs = append(errs, fmt.Errorf("%w: goal %s: set targets %d-%d", ErrInvalidTables, g, st.MinSets, st.MaxSets))
		}
	}
	if t.DefaultBaseWeightKg <= 0 {
		errs = append(errs, fmt.Errorf("%w: default base weight %v", ErrInvalidTables, t.DefaultBaseWeightKg))
	}
	return errors.Join(errs...)
}
