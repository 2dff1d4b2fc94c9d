package progression

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/myrjola/overload/internal/weight"
)

// SetType is the recorded kind of a set.
type SetType string

const (
	SetNormal  SetType = "NORMAL"
	SetWarmup  SetType = "WARMUP"
	SetDrop    SetType = "DROP"
	SetFailure SetType = "FAILURE"
	SetAMRAP   SetType = "AMRAP"
	SetBackoff SetType = "BACKOFF"
)

// ParseSetType parses a set type, reporting false for unknown values.
func ParseSetType(s string) (SetType, bool) {
	switch t := SetType(s); t {
	case SetNormal, SetWarmup, SetDrop, SetFailure, SetAMRAP, SetBackoff:
		return t, true
	}
	return "", false
}

// PainLevel is the discomfort reported for a set.
type PainLevel string

const (
	PainNone     PainLevel = "NONE"
	PainMild     PainLevel = "MILD"
	PainModerate PainLevel = "MODERATE"
	PainSevere   PainLevel = "SEVERE"
)

// Significant reports whether the pain level should hold back progression.
func (p PainLevel) Significant() bool {
	return p == PainModerate || p == PainSevere
}

// HistoricalSet is a completed set of a past workout session.
type HistoricalSet struct {
	WorkoutSessionID string
	StartedAt        time.Time
	SetIndex         int
	Type             SetType
	Reps             *int
	Weight           *float64
	// WeightUnit is empty when the unit was not recorded.
	WeightUnit  weight.Unit
	DurationSec *int
	PainLevel   PainLevel
}

// working reports whether the set counts towards outcome evaluation.
func (s HistoricalSet) working() bool {
	return s.Type != SetWarmup && s.Reps != nil && s.Weight != nil
}

// Workout is the sets of one session ordered by set index.
type Workout struct {
	WorkoutSessionID string
	StartedAt        time.Time
	Sets             []HistoricalSet
}

// WorkingSets returns the non-warm-up sets with both reps and weight.
func (w Workout) WorkingSets() []HistoricalSet {
	var sets []HistoricalSet
	for _, s := range w.Sets {
		if s.working() {
			sets = append(sets, s)
		}
	}
	return sets
}

// ReportedPain reports whether any set of the workout recorded significant pain.
func (w Workout) ReportedPain() bool {
	return slices.ContainsFunc(w.Sets, func(s HistoricalSet) bool { return s.PainLevel.Significant() })
}

// GroupRecentWorkouts groups sets by session, orders each session's sets by set index and returns at most limit
// sessions, most recent first. Ties keep their input order.
func GroupRecentWorkouts(sets []HistoricalSet, limit int) []Workout {
	var (
		workouts []Workout
		index    = make(map[string]int)
	)
	for _, s := range sets {
		i, ok := index[s.WorkoutSessionID]
		if !ok {
			i = len(workouts)
			index[s.WorkoutSessionID] = i
			workouts = append(workouts, Workout{WorkoutSessionID: s.WorkoutSessionID, StartedAt: s.StartedAt})
		}
		workouts[i].Sets = append(workouts[i].Sets, s)
	}
	for i := range workouts {
		slices.SortStableFunc(workouts[i].Sets, func(a, b HistoricalSet) int {
			return cmp.Compare(a.SetIndex, b.SetIndex)
		})
	}
	slices.SortStableFunc(workouts, func(a, b Workout) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(workouts) > limit {
		workouts = workouts[:max(limit, 0)]
	}
	return workouts
}

// successShare is the share of working sets that decides a success or failure verdict.
const successShare = 0.67

// Outcome is the verdict of a single workout against a rep range.
type Outcome struct {
	Success bool
	Failure bool
	// AverageReps and AverageWeight are nil when the workout has no working sets.
	AverageReps   *float64
	AverageWeight *float64
	WorkingSets   int
}

// EvaluateOutcome scores the working sets of w against r with weights converted to unit. Sets without a recorded
// unit are assumed to be in unit already.
//
// Success and failure are evaluated independently and a workout can be neither.
func EvaluateOutcome(w Workout, r RepRange, unit weight.Unit) Outcome {
	working := w.WorkingSets()
	if len(working) == 0 {
		return Outcome{}
	}
	var (
		successSets, failureSets int
		totalReps, totalWeight   float64
	)
	for _, s := range working {
		reps := *s.Reps
		if reps >= r.Max {
			successSets++
		}
		if reps < r.Min {
			failureSets++
		}
		totalReps += float64(reps)
		from := s.WeightUnit
		if from == "" {
			from = unit
		}
		totalWeight += weight.Convert(*s.Weight, from, unit)
	}
	n := len(working)
	needed := int(math.Ceil(float64(n) * successShare))
	avgReps := totalReps / float64(n)
	avgWeight := totalWeight / float64(n)
	return Outcome{
		Success:       successSets >= needed,
		Failure:       failureSets >= needed,
		AverageReps:   &avgReps,
		AverageWeight: &avgWeight,
		WorkingSets:   n,
	}
}

// Streaks counts consecutive successes and failures from the most recent outcome. A neutral or mixed outcome ends
// both streaks.
func Streaks(outcomes []Outcome) (success, failure int) {
	for _, o := range outcomes {
		if !o.Success {
			break
		}
		success++
	}
	for _, o := range outcomes {
		if !o.Failure {
			break
		}
		failure++
	}
	return success, failure
}
