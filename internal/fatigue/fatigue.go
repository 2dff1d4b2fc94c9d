// Package fatigue aggregates completed sets into weekly workload per muscle.
//
// A set credits its exercise's primary muscle with one effective set and every secondary muscle with half a set.
// Weeks start on Monday in UTC.
package fatigue

import (
	"cmp"
	"slices"
	"time"

	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/weight"
)

const (
	lowShare       = 0.8
	highShare      = 1.1
	topExerciseCap = 3
)

// Row is a completed set joined with its session and exercise.
type Row struct {
	ExerciseID   string
	ExerciseName string
	StartedAt    time.Time
	Type         progression.SetType
	Reps         *int
	Weight       *float64
	// WeightUnit is empty when the unit was not recorded, in which case kilograms are assumed.
	WeightUnit  weight.Unit
	DurationSec *int
	Attributes  []exercise.Attribute
}

func (r Row) trackable() bool {
	if r.Type == progression.SetWarmup {
		return false
	}
	return r.Reps != nil || r.Weight != nil || r.DurationSec != nil
}

// WeekStart returns Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 //nolint:mnd // days since Monday
	return day.AddDate(0, 0, -offset)
}

// WeekKey formats the week of t as YYYY-MM-DD of its Monday.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(time.DateOnly)
}

// Since returns the start of the aggregation window covering the given number of weeks before now.
func Since(now time.Time, weeks int) time.Time {
	t := now.UTC().AddDate(0, 0, -weeks*7) //nolint:mnd // days per week
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SetVolume is reps times load in unit, or reps alone, or duration alone, whichever the set recorded.
func SetVolume(r Row, unit weight.Unit) float64 {
	switch {
	case r.Reps != nil && r.Weight != nil:
		from := r.WeightUnit
		if from == "" {
			from = weight.Kilograms
		}
		return float64(*r.Reps) * weight.Convert(*r.Weight, from, unit)
	case r.Reps != nil:
		return float64(*r.Reps)
	case r.DurationSec != nil:
		return float64(*r.DurationSec)
	default:
		return 0
	}
}

// Status classifies a week's effective sets against targets with a 20% margin below and a 10% margin above.
func Status(effectiveSets float64, targets progression.SetTargets) progression.FatigueStatus {
	switch {
	case effectiveSets < float64(targets.MinSets)*lowShare:
		return progression.FatigueLow
	case effectiveSets > float64(targets.MaxSets)*highShare:
		return progression.FatigueHigh
	default:
		return progression.FatigueTarget
	}
}

type MuscleWeeklyPoint struct {
	WeekStart     string  `json:"weekStart"`
	EffectiveSets float64 `json:"effectiveSets"`
	TotalVolume   float64 `json:"totalVolume"`
}

type ExerciseContribution struct {
	ExerciseID    string  `json:"exerciseId"`
	ExerciseName  string  `json:"exerciseName"`
	EffectiveSets float64 `json:"effectiveSets"`
}

// MuscleProgressPoint is the workload history and current-week status of one muscle.
type MuscleProgressPoint struct {
	Muscle                   string                    `json:"muscle"`
	FatigueStatus            progression.FatigueStatus `json:"fatigueStatus"`
	CurrentWeekEffectiveSets float64                   `json:"currentWeekEffectiveSets"`
	CurrentWeekTotalVolume   float64                   `json:"currentWeekTotalVolume"`
	TargetMinSets            int                       `json:"targetMinSets"`
	TargetMaxSets            int                       `json:"targetMaxSets"`
	FatigueRatio             float64                   `json:"fatigueRatio"`
	Weekly                   []MuscleWeeklyPoint       `json:"weekly"`
	TopExercises             []ExerciseContribution    `json:"topExercises"`
}

// Context converts the point to the engine's fatigue input.
func (p MuscleProgressPoint) Context() *progression.FatigueContext {
	sets := p.CurrentWeekEffectiveSets
	minSets, maxSets := p.TargetMinSets, p.TargetMaxSets
	return &progression.FatigueContext{
		Status:          p.FatigueStatus,
		CurrentWeekSets: &sets,
		TargetMinSets:   &minSets,
		TargetMaxSets:   &maxSets,
	}
}

type weekTotals struct {
	effectiveSets float64
	totalVolume   float64
}

type muscleTotals struct {
	muscle    string
	weeks     map[string]*weekTotals
	exercises []*ExerciseContribution
}

func (m *muscleTotals) exercise(id, name string) *ExerciseContribution {
	for _, e := range m.exercises {
		if e.ExerciseID == id {
			return e
		}
	}
	e := &ExerciseContribution{ExerciseID: id, ExerciseName: name}
	m.exercises = append(m.exercises, e)
	return e
}

// AggregateMuscleProgress builds one point per credited muscle from rows. The current week is the week of now.
// Points are ordered by current-week effective sets, busiest first, with ties in order of first appearance.
func AggregateMuscleProgress(
	rows []Row,
	targets progression.SetTargets,
	unit weight.Unit,
	now time.Time,
) []MuscleProgressPoint {
	var (
		muscles []*muscleTotals
		byName  = make(map[string]*muscleTotals)
	)
	for _, r := range rows {
		if !r.trackable() {
			continue
		}
		credits := exercise.MuscleCredits(r.Attributes)
		if len(credits) == 0 {
			continue
		}
		week := WeekKey(r.StartedAt)
		volume := SetVolume(r, unit)
		for _, c := range credits {
			m, ok := byName[c.Muscle]
			if !ok {
				m = &muscleTotals{muscle: c.Muscle, weeks: make(map[string]*weekTotals)}
				byName[c.Muscle] = m
				muscles = append(muscles, m)
			}
			w, ok := m.weeks[week]
			if !ok {
				w = &weekTotals{}
				m.weeks[week] = w
			}
			w.effectiveSets += c.Credit
			w.totalVolume += volume * c.Credit
			if r.ExerciseID != "" {
				name := r.ExerciseName
				if name == "" {
					name = r.ExerciseID
				}
				m.exercise(r.ExerciseID, name).EffectiveSets += c.Credit
			}
		}
	}

	currentWeek := WeekKey(now)
	ratioBase := float64(targets.MinSets+targets.MaxSets) / 2 //nolint:mnd // target midpoint
	points := make([]MuscleProgressPoint, 0, len(muscles))
	for _, m := range muscles {
		weekly := make([]MuscleWeeklyPoint, 0, len(m.weeks))
		for key, w := range m.weeks {
			weekly = append(weekly, MuscleWeeklyPoint{
				WeekStart:     key,
				EffectiveSets: weight.Round2(w.effectiveSets),
				TotalVolume:   weight.Round2(w.totalVolume),
			})
		}
		slices.SortFunc(weekly, func(a, b MuscleWeeklyPoint) int { return cmp.Compare(a.WeekStart, b.WeekStart) })

		current := weekTotals{}
		if w, ok := m.weeks[currentWeek]; ok {
			current = *w
		}
		ratio := 0.0
		if ratioBase > 0 {
			ratio = weight.Round2(current.effectiveSets / ratioBase)
		}

		top := make([]ExerciseContribution, 0, len(m.exercises))
		for _, e := range m.exercises {
			top = append(top, *e)
		}
		slices.SortStableFunc(top, func(a, b ExerciseContribution) int {
			return cmp.Compare(b.EffectiveSets, a.EffectiveSets)
		})
		top = top[:min(len(top), topExerciseCap)]
		for i := range top {
			top[i].EffectiveSets = weight.Round2(top[i].EffectiveSets)
		}

		points = append(points, MuscleProgressPoint{
			Muscle:                   m.muscle,
			FatigueStatus:            Status(current.effectiveSets, targets),
			CurrentWeekEffectiveSets: weight.Round2(current.effectiveSets),
			CurrentWeekTotalVolume:   weight.Round2(current.totalVolume),
			TargetMinSets:            targets.MinSets,
			TargetMaxSets:            targets.MaxSets,
			FatigueRatio:             ratio,
			Weekly:                   weekly,
			TopExercises:             top,
		})
	}
	slices.SortStableFunc(points, func(a, b MuscleProgressPoint) int {
		return cmp.Compare(b.CurrentWeekEffectiveSets, a.CurrentWeekEffectiveSets)
	})
	return points
}

// Lookup returns the point of muscle.
func Lookup(points []MuscleProgressPoint, muscle string) (MuscleProgressPoint, bool) {
	i := slices.IndexFunc(points, func(p MuscleProgressPoint) bool { return p.Muscle == muscle })
	if i < 0 {
		return MuscleProgressPoint{}, false
	}
	return points[i], true
}

type WeeklyVolumePoint struct {
	WeekStart   string  `json:"weekStart"`
	TotalVolume float64 `json:"totalVolume"`
	SetsCount   int     `json:"setsCount"`
}

// AggregateWeeklyVolume totals the volume of rows per week in unit. Rows without positive volume are skipped and
// warm-ups are counted. Points are ordered by week.
func AggregateWeeklyVolume(rows []Row, unit weight.Unit) []WeeklyVolumePoint {
	totals := make(map[string]*WeeklyVolumePoint)
	for _, r := range rows {
		volume := SetVolume(r, unit)
		if volume <= 0 {
			continue
		}
		key := WeekKey(r.StartedAt)
		p, ok := totals[key]
		if !ok {
			p = &WeeklyVolumePoint{WeekStart: key}
			totals[key] = p
		}
		p.TotalVolume += volume
		p.SetsCount++
	}
	points := make([]WeeklyVolumePoint, 0, len(totals))
	for _, p := range totals {
		p.TotalVolume = weight.Round2(p.TotalVolume)
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b WeeklyVolumePoint) int { return cmp.Compare(a.WeekStart, b.WeekStart) })
	return points
}
