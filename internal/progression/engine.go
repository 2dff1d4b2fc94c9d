// Package progression prescribes the next session of an exercise with progressive overload.
//
// The engine is a pure function of its input: recent completed sets are grouped into workouts, each workout is
// scored against the goal's rep range, success and failure streaks decide whether to add load, deload or add reps,
// and the muscle's weekly workload throttles volume. Loads are rounded to increments the equipment can actually
// provide.
package progression

import (
	"strings"

	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/weight"
)

const (
	DefaultGoal                   = Hypertrophy
	DefaultUnit                   = weight.Pounds
	DefaultAnalysisWorkoutCount   = 3
	MinAnalysisWorkoutCount       = 1
	MaxAnalysisWorkoutCount       = 5
	DefaultSuccessStreakThreshold = 2
	MinSuccessStreakThreshold     = 1
	MaxSuccessStreakThreshold     = 4
)

// Options tune a single recommendation. Zero values select the defaults.
type Options struct {
	Goal Goal
	Unit weight.Unit
	// IncludeWarmups defaults to true when nil.
	IncludeWarmups *bool
	// AnalysisWorkoutCount is the number of recent workouts considered, clamped to 1-5.
	AnalysisWorkoutCount int
	// SuccessStreakThreshold is the streak length that triggers a load change, clamped to 1-4.
	// Failure streaks use the same threshold.
	SuccessStreakThreshold int
	// FallbackPrimaryMuscle is used when the exercise has no primary muscle attribute.
	FallbackPrimaryMuscle string
}

// Input is everything the engine needs to prescribe one exercise.
type Input struct {
	ExerciseID string
	Attributes []exercise.Attribute
	// History holds completed sets of the exercise in any order.
	History []HistoricalSet
	// Fatigue is optional.
	Fatigue *FatigueContext
	Options Options
}

// Recommendation is the prescription for the next session.
type Recommendation struct {
	ExerciseID string `json:"exerciseId"`
	Goal       Goal   `json:"goal"`
	// WorkingWeight is nil for bodyweight and timed exercises.
	WorkingWeight   *float64       `json:"workingWeight"`
	WorkingReps     int            `json:"workingReps"`
	WorkingSets     int            `json:"workingSets"`
	Unit            weight.Unit    `json:"unit"`
	SuccessStreak   int            `json:"successStreak"`
	FailureStreak   int            `json:"failureStreak"`
	Decision        Decision       `json:"decision"`
	ReasonFragments []string       `json:"reasonFragments"`
	Reason          string         `json:"reason"`
	Sets            []SuggestedSet `json:"sets"`
}

// Engine prescribes sessions from immutable tables. It is safe for concurrent use.
type Engine struct {
	tables Tables
}

// NewEngine creates an engine backed by tables.
func NewEngine(tables Tables) *Engine {
	return &Engine{tables: tables}
}

// SetTargets returns the weekly effective set targets per muscle for goal.
func (e *Engine) SetTargets(goal Goal) SetTargets {
	return e.tables.SetTargets(goal)
}

// Normalize resolves defaults and clamps numeric options to their allowed ranges.
func (e *Engine) Normalize(o Options) Options {
	o.Goal, _ = e.tables.Goal(o.Goal)
	if o.Unit != weight.Kilograms && o.Unit != weight.Pounds {
		o.Unit = DefaultUnit
	}
	if o.IncludeWarmups == nil {
		include := true
		o.IncludeWarmups = &include
	}
	if o.AnalysisWorkoutCount == 0 {
		o.AnalysisWorkoutCount = DefaultAnalysisWorkoutCount
	}
	o.AnalysisWorkoutCount = max(MinAnalysisWorkoutCount, min(MaxAnalysisWorkoutCount, o.AnalysisWorkoutCount))
	if o.SuccessStreakThreshold == 0 {
		o.SuccessStreakThreshold = DefaultSuccessStreakThreshold
	}
	o.SuccessStreakThreshold = max(MinSuccessStreakThreshold, min(MaxSuccessStreakThreshold, o.SuccessStreakThreshold))
	return o
}

// Recommend prescribes the next session. It never fails: missing data falls back to conservative defaults.
func (e *Engine) Recommend(in Input) Recommendation {
	opts := e.Normalize(in.Options)
	goal, cfg := e.tables.Goal(opts.Goal)
	profile := exercise.Classify(in.Attributes, opts.FallbackPrimaryMuscle)

	workouts := GroupRecentWorkouts(in.History, opts.AnalysisWorkoutCount)
	outcomes := make([]Outcome, 0, len(workouts))
	for _, w := range workouts {
		outcomes = append(outcomes, EvaluateOutcome(w, cfg.RepRange, opts.Unit))
	}
	successStreak, failureStreak := Streaks(outcomes)

	st := &state{
		tables:        e.tables,
		goal:          goal,
		cfg:           cfg,
		profile:       profile,
		unit:          opts.Unit,
		threshold:     opts.SuccessStreakThreshold,
		successStreak: successStreak,
		failureStreak: failureStreak,
		fatigue:       in.Fatigue,
	}
	if len(workouts) > 0 {
		st.latest = &workouts[0]
		st.latestOutcome = outcomes[0]
	}

	p := runPolicy(st)
	reason := strings.Join(p.reasons, " ")
	sets, workingWeight := buildSets(p, profile, goal, opts.Unit, *opts.IncludeWarmups, reason)

	return Recommendation{
		ExerciseID:      in.ExerciseID,
		Goal:            goal,
		WorkingWeight:   workingWeight,
		WorkingReps:     p.reps,
		WorkingSets:     p.sets,
		Unit:            opts.Unit,
		SuccessStreak:   successStreak,
		FailureStreak:   failureStreak,
		Decision:        p.decision,
		ReasonFragments: p.reasons,
		Reason:          reason,
		Sets:            sets,
	}
}
