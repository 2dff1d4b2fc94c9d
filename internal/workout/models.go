package workout

import (
	"time"

	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/weight"
)

// Exercise is a catalogue entry with its attributes in their defined order.
type Exercise struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Attributes []exercise.Attribute `json:"attributes"`
}

// RecommendationRequest asks for the next prescription of each exercise.
type RecommendationRequest struct {
	UserID      string
	ExerciseIDs []string
	// Options are validated before the engine sees them. Zero values select the defaults.
	Options progression.Options
}

// RecommendationBatch holds one recommendation per known exercise in request order.
type RecommendationBatch struct {
	Recommendations    []progression.Recommendation `json:"recommendations"`
	MissingExerciseIDs []string                     `json:"missingExerciseIds"`
	Meta               BatchMeta                    `json:"meta"`
}

type BatchMeta struct {
	Goal                 progression.Goal `json:"goal"`
	PreferredUnit        weight.Unit      `json:"preferredUnit"`
	AnalysisWorkoutCount int              `json:"analysisWorkoutCount"`
	GeneratedAt          time.Time        `json:"generatedAt"`
}

// WorkoutLog is a finished session to record.
type WorkoutLog struct {
	UserID    string      `json:"-"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   *time.Time  `json:"endedAt"`
	Sets      []LoggedSet `json:"sets"`
}

// LoggedSet is one set of a [WorkoutLog]. Empty enums select NORMAL, no unit and no pain.
type LoggedSet struct {
	ExerciseID  string                `json:"exerciseId"`
	SetIndex    int                   `json:"setIndex"`
	Type        progression.SetType   `json:"type"`
	Reps        *int                  `json:"reps"`
	Weight      *float64              `json:"weight"`
	WeightUnit  weight.Unit           `json:"weightUnit"`
	DurationSec *int                  `json:"durationSec"`
	PainLevel   progression.PainLevel `json:"painLevel"`
	// Completed defaults to true.
	Completed *bool `json:"completed"`
}

// LastPerformance is the last completed set of an exercise in the user's latest session of it.
type LastPerformance struct {
	SessionID   string              `json:"sessionId"`
	ExerciseID  string              `json:"exerciseId"`
	StartedAt   time.Time           `json:"startedAt"`
	SetID       int64               `json:"setId"`
	SetIndex    int                 `json:"setIndex"`
	Type        progression.SetType `json:"type"`
	Reps        *int                `json:"reps"`
	Weight      *float64            `json:"weight"`
	WeightUnit  *weight.Unit        `json:"weightUnit"`
	DurationSec *int                `json:"durationSec"`
}
