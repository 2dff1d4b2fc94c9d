package progression

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/weight"
)

// Decision names the load branch taken for the next session.
type Decision string

const (
	// DecisionBaseline means there was no history to progress from.
	DecisionBaseline          Decision = "baseline"
	DecisionProgression       Decision = "progression"
	DecisionDeload            Decision = "deload"
	DecisionDoubleProgression Decision = "double_progression"
)

// FatigueStatus classifies a muscle's weekly workload against its set targets.
type FatigueStatus string

const (
	FatigueLow    FatigueStatus = "LOW"
	FatigueTarget FatigueStatus = "TARGET"
	FatigueHigh   FatigueStatus = "HIGH"
)

// FatigueContext is the weekly workload of the exercise's primary muscle. Nil fields fall back to the goal's
// defaults in the reason text.
type FatigueContext struct {
	Status          FatigueStatus
	CurrentWeekSets *float64
	TargetMinSets   *int
	TargetMaxSets   *int
}

const (
	minReducedSets = 2
	extraSetsCap   = 2
)

const (
	reasonNoHistory         = "No prior completed sessions. Using conservative muscle-group defaults."
	reasonDoubleProgression = "Progressing reps first at the same load (double progression)."
	reasonPain              = "Pain/discomfort reported last session. Holding load and reducing volume."
	reasonLowWorkload       = "Weekly muscle workload is low, adding one working set for productive volume."
)

// prescription is the record every policy step transforms.
type prescription struct {
	weight   *float64
	reps     int
	sets     int
	reasons  []string
	decision Decision
	painHeld bool
}

func (p prescription) withReason(reason string) prescription {
	p.reasons = append(slices.Clip(p.reasons), reason)
	return p
}

func (p prescription) withWeight(w float64) prescription {
	p.weight = &w
	return p
}

// state is the read-only context shared by the policy steps.
type state struct {
	tables        Tables
	goal          Goal
	cfg           GoalConfig
	profile       exercise.Profile
	unit          weight.Unit
	threshold     int
	latest        *Workout
	latestOutcome Outcome
	successStreak int
	failureStreak int
	fatigue       *FatigueContext
	// base is the output of the baseline step.
	base prescription
}

// step is a single pure transformation of the prescription.
type step func(st *state, p prescription) prescription

//nolint:gochecknoglobals // fixed evaluation order.
var pipeline = []step{
	progressLoad,
	deloadLoad,
	progressReps,
	holdForPain,
	adjustForFatigue,
}

// runPolicy computes the baseline and applies the pipeline in order.
func runPolicy(st *state) prescription {
	st.base = baseline(st)
	p := st.base
	for _, s := range pipeline {
		p = s(st, p)
	}
	return p
}

// baseline starts from the latest workout, or from conservative muscle-group defaults without history.
func baseline(st *state) prescription {
	r := st.cfg.RepRange
	defaultReps := int(math.Round(float64(r.Min+r.Max) / 2)) //nolint:mnd // midpoint
	reps := defaultReps
	if st.latestOutcome.AverageReps != nil {
		reps = int(math.Round(*st.latestOutcome.AverageReps))
	}

	p := prescription{
		reps:     r.Clamp(reps),
		sets:     max(st.cfg.DefaultWorkingSets, st.latestOutcome.WorkingSets),
		decision: DecisionBaseline,
	}

	if st.profile.Weighted() {
		var w float64
		if st.latestOutcome.AverageWeight != nil {
			w = *st.latestOutcome.AverageWeight
		} else {
			w = weight.Convert(fallbackWeightKg(st), weight.Kilograms, st.unit)
		}
		p = p.withWeight(RoundToIncrement(w, st.unit, st.profile.Class))
	}

	if st.latest == nil {
		p = p.withReason(reasonNoHistory)
	}
	return p
}

// fallbackWeightKg scales the muscle's base weight by the goal and clamps it to the equipment's sensible range.
//
//nolint:mnd // equipment bounds in kg
func fallbackWeightKg(st *state) float64 {
	w := st.tables.BaseWeightKg(st.profile.PrimaryMuscle) * st.cfg.BaseWeightMultiplier
	switch st.profile.Class {
	case exercise.EquipmentBarbell:
		return max(w, 20)
	case exercise.EquipmentDumbbell:
		return max(6, min(18, w))
	case exercise.EquipmentMachine:
		return max(10, min(40, w))
	case exercise.EquipmentDefault, exercise.EquipmentBodyweight:
	}
	return w
}

// progressLoad increases the load after a success streak and restarts the rep range.
func progressLoad(st *state, p prescription) prescription {
	if st.latest == nil || p.decision != DecisionBaseline || p.weight == nil || st.successStreak < st.threshold {
		return p
	}
	pct := st.cfg.UpperBodyIncrease
	if st.profile.LowerBody() {
		pct = st.cfg.LowerBodyIncrease
	}
	p = p.withWeight(RoundUp(*p.weight*(1+pct), st.unit, st.profile.Class))
	p.reps = st.cfg.RepRange.Min
	p.decision = DecisionProgression
	return p.withReason(fmt.Sprintf("%d successful sessions. Increased load by %d%%.",
		st.successStreak, percent(pct)))
}

// deloadLoad reduces the load after a failure streak. When rounding would not lower the load it drops a single
// increment instead.
func deloadLoad(st *state, p prescription) prescription {
	if st.latest == nil || p.decision != DecisionBaseline || p.weight == nil || st.failureStreak < st.threshold {
		return p
	}
	previous := *p.weight
	inc := Increment(st.unit, st.profile.Class)
	deloaded := RoundToIncrement(previous*(1-st.cfg.Deload), st.unit, st.profile.Class)
	if deloaded >= previous {
		deloaded = weight.Round2(max(inc, previous-inc))
	}
	p = p.withWeight(deloaded)
	p.reps = st.cfg.RepRange.Min
	p.decision = DecisionDeload
	return p.withReason(fmt.Sprintf("%d difficult sessions. Deloaded by %d%%.",
		st.failureStreak, percent(st.cfg.Deload)))
}

// progressReps adds a rep at the same load when no streak applies.
func progressReps(st *state, p prescription) prescription {
	if st.latest == nil || p.decision != DecisionBaseline {
		return p
	}
	p.reps = st.cfg.RepRange.Clamp(p.reps + 1)
	p.decision = DecisionDoubleProgression
	return p.withReason(reasonDoubleProgression)
}

// holdForPain cancels load increases and removes a working set when the latest session reported pain.
func holdForPain(st *state, p prescription) prescription {
	if st.latest == nil || !st.latest.ReportedPain() {
		return p
	}
	if p.weight != nil && st.base.weight != nil && *p.weight > *st.base.weight {
		p = p.withWeight(*st.base.weight)
	}
	p.reps = st.cfg.RepRange.Clamp(min(p.reps, st.base.reps))
	p.sets = max(minReducedSets, p.sets-1)
	p.painHeld = true
	return p.withReason(reasonPain)
}

// adjustForFatigue throttles volume by the muscle's weekly workload.
func adjustForFatigue(st *state, p prescription) prescription {
	if st.fatigue == nil {
		return p
	}
	switch st.fatigue.Status {
	case FatigueHigh:
		previousSets := p.sets
		p.sets = max(minReducedSets, p.sets-1)
		p.reps = st.cfg.RepRange.Clamp(p.reps - 1)
		if p.weight != nil && st.failureStreak > 0 {
			p = p.withWeight(RoundDown(*p.weight*(1-st.cfg.Deload), st.unit, st.profile.Class))
		}
		p = p.withReason(highWorkloadReason(st))
		if p.sets < previousSets {
			p = p.withReason(fmt.Sprintf("Working sets adjusted from %d to %d.", previousSets, p.sets))
		}
	case FatigueLow:
		if st.latest == nil || st.failureStreak != 0 || p.painHeld {
			return p
		}
		previousSets := p.sets
		p.sets = min(st.cfg.DefaultWorkingSets+extraSetsCap, p.sets+1)
		if p.sets > previousSets {
			p = p.withReason(reasonLowWorkload)
		}
	case FatigueTarget:
	}
	return p
}

func highWorkloadReason(st *state) string {
	current := 0.0
	if st.fatigue.CurrentWeekSets != nil {
		current = *st.fatigue.CurrentWeekSets
	}
	minSets := st.cfg.DefaultWorkingSets
	if st.fatigue.TargetMinSets != nil {
		minSets = *st.fatigue.TargetMinSets
	}
	maxSets := st.cfg.DefaultWorkingSets + extraSetsCap
	if st.fatigue.TargetMaxSets != nil {
		maxSets = *st.fatigue.TargetMaxSets
	}
	return fmt.Sprintf(
		"Current weekly muscle workload is high (%s effective sets, target %d-%d). Reduced volume for recovery.",
		strconv.FormatFloat(current, 'f', -1, 64), minSets, maxSets)
}

// percent renders a fraction as a whole percentage, rounding half up.
func percent(fraction float64) int {
	return int(math.Round(fraction * 100)) //nolint:mnd // percent
}
