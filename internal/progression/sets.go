package progression

import (
	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/weight"
)

// Dimension is a column of a prescribed set.
type Dimension string

const (
	DimensionTime   Dimension = "TIME"
	DimensionWeight Dimension = "WEIGHT"
	DimensionReps   Dimension = "REPS"
)

// SuggestedSet is a single prescribed set. Values line up with Types: a weighted set carries [weight, reps].
type SuggestedSet struct {
	SetIndex             int           `json:"setIndex"`
	Type                 SetType       `json:"type"`
	Types                []Dimension   `json:"types"`
	Values               []float64     `json:"valuesInt,omitempty"`
	ValuesSec            []int         `json:"valuesSec,omitempty"`
	Units                []weight.Unit `json:"units,omitempty"`
	RecommendationReason string        `json:"recommendationReason"`
}

const (
	timedSetSec          = 30
	enduranceTimedSetSec = 45
	// placeholderWeight is the load used if a weighted exercise somehow ends up without one.
	placeholderWeight = 10
)

type warmup struct {
	share float64
	reps  int
}

//nolint:gochecknoglobals // fixed warm-up ramp.
var warmupRamp = []warmup{
	{share: 0.6, reps: 8}, //nolint:mnd // 60% for 8
	{share: 0.8, reps: 5}, //nolint:mnd // 80% for 5
}

// buildSets renders the prescription as ordered sets with contiguous indices and returns the working weight.
func buildSets(
	p prescription,
	profile exercise.Profile,
	goal Goal,
	unit weight.Unit,
	includeWarmups bool,
	reason string,
) ([]SuggestedSet, *float64) {
	sets := make([]SuggestedSet, 0, p.sets+len(warmupRamp))

	switch {
	case profile.Timed():
		sec := timedSetSec
		if goal == Endurance {
			sec = enduranceTimedSetSec
		}
		for i := range p.sets {
			sets = append(sets, SuggestedSet{
				SetIndex:             i,
				Type:                 SetNormal,
				Types:                []Dimension{DimensionTime},
				ValuesSec:            []int{sec},
				RecommendationReason: reason,
			})
		}
		return sets, nil
	case profile.Bodyweight():
		for i := range p.sets {
			sets = append(sets, SuggestedSet{
				SetIndex:             i,
				Type:                 SetNormal,
				Types:                []Dimension{DimensionReps},
				Values:               []float64{float64(p.reps)},
				RecommendationReason: reason,
			})
		}
		return sets, nil
	}

	working := RoundToIncrement(placeholderWeight, unit, profile.Class)
	if p.weight != nil {
		working = *p.weight
	}
	if includeWarmups {
		for _, w := range warmupRamp {
			load := RoundUp(working*w.share, unit, profile.Class)
			if load >= working {
				continue
			}
			sets = append(sets, weightedSet(len(sets), SetWarmup, load, w.reps, unit, reason))
		}
	}
	for range p.sets {
		sets = append(sets, weightedSet(len(sets), SetNormal, working, p.reps, unit, reason))
	}
	return sets, &working
}

func weightedSet(index int, typ SetType, load float64, reps int, unit weight.Unit, reason string) SuggestedSet {
	return SuggestedSet{
		SetIndex:             index,
		Type:                 typ,
		Types:                []Dimension{DimensionWeight, DimensionReps},
		Values:               []float64{weight.Round2(load), float64(reps)},
		Units:                []weight.Unit{unit},
		RecommendationReason: reason,
	}
}
