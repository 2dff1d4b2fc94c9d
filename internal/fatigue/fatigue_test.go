package fatigue_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/fatigue"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/ptr"
	"github.com/myrjola/overload/internal/weight"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-16T10:00:00Z", "2026-02-16"},
		{"2026-02-22T23:59:59Z", "2026-02-16"},
		{"2026-02-24T10:00:00Z", "2026-02-23"},
		{"2026-03-01T00:00:00Z", "2026-02-23"},
		// Sunday evening in New York is already Monday in UTC.
		{"2026-03-01T21:00:00-05:00", "2026-03-02"},
	}
	for _, tt := range tests {
		if got := fatigue.WeekKey(at(tt.in)); got != tt.want {
			t.Errorf("WeekKey(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSince(t *testing.T) {
	got := fatigue.Since(at("2026-03-04T15:30:00Z"), 2)
	if want := at("2026-02-18T00:00:00Z"); !got.Equal(want) {
		t.Errorf("Since() = %s, want %s", got, want)
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		name string
		row  fatigue.Row
		want float64
	}{
		{"reps and weight", fatigue.Row{Reps: ptr.Ref(10), Weight: ptr.Ref(100.0), WeightUnit: weight.Kilograms}, 1000},
		{"missing unit is kg", fatigue.Row{Reps: ptr.Ref(10), Weight: ptr.Ref(100.0)}, 1000},
		{"reps only", fatigue.Row{Reps: ptr.Ref(12)}, 12},
		{"duration only", fatigue.Row{DurationSec: ptr.Ref(30)}, 30},
		{"weight only", fatigue.Row{Weight: ptr.Ref(40.0)}, 0},
		{"empty", fatigue.Row{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fatigue.SetVolume(tt.row, weight.Kilograms); got != tt.want {
				t.Errorf("SetVolume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregateWeeklyVolume(t *testing.T) {
	rows := []fatigue.Row{
		{StartedAt: at("2026-02-16T10:00:00Z"), Reps: ptr.Ref(10), Weight: ptr.Ref(100.0), WeightUnit: weight.Kilograms},
		{StartedAt: at("2026-02-18T10:00:00Z"), Reps: ptr.Ref(10), Weight: ptr.Ref(100.0), WeightUnit: weight.Pounds},
		{StartedAt: at("2026-02-24T10:00:00Z"), Reps: ptr.Ref(12)},
		{StartedAt: at("2026-02-24T10:00:00Z"), DurationSec: ptr.Ref(30)},
		{StartedAt: at("2026-02-25T10:00:00Z")},
	}

	got := fatigue.AggregateWeeklyVolume(rows, weight.Kilograms)

	want := []fatigue.WeeklyVolumePoint{
		{WeekStart: "2026-02-16", TotalVolume: 1453.59, SetsCount: 2},
		{WeekStart: "2026-02-23", TotalVolume: 42, SetsCount: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateWeeklyVolume() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatus(t *testing.T) {
	targets := progression.SetTargets{MinSets: 10, MaxSets: 20}
	tests := []struct {
		sets float64
		want progression.FatigueStatus
	}{
		{0, progression.FatigueLow},
		{7.5, progression.FatigueLow},
		{8, progression.FatigueTarget},
		{22, progression.FatigueTarget},
		{22.5, progression.FatigueHigh},
	}
	for _, tt := range tests {
		if got := fatigue.Status(tt.sets, targets); got != tt.want {
			t.Errorf("Status(%v) = %s, want %s", tt.sets, got, tt.want)
		}
	}
}

func TestAggregateMuscleProgress(t *testing.T) {
	now := at("2026-02-19T12:00:00Z")
	bench := []exercise.Attribute{
		{Name: exercise.PrimaryMuscle, Value: "CHEST"},
		{Name: exercise.SecondaryMuscle, Value: "TRICEPS"},
	}
	pushUp := []exercise.Attribute{{Name: exercise.PrimaryMuscle, Value: "CHEST"}}
	row := func(id, name, startedAt string, attrs []exercise.Attribute, load float64) fatigue.Row {
		return fatigue.Row{
			ExerciseID:   id,
			ExerciseName: name,
			StartedAt:    at(startedAt),
			Type:         progression.SetNormal,
			Reps:         ptr.Ref(10),
			Weight:       ptr.Ref(load),
			WeightUnit:   weight.Pounds,
			Attributes:   attrs,
		}
	}
	rows := []fatigue.Row{
		row("bench-press", "Barbell Bench Press", "2026-02-18T10:00:00Z", bench, 100),
		row("push-up", "Push Up", "2026-02-19T10:00:00Z", pushUp, 80),
		row("bench-press", "Barbell Bench Press", "2026-02-10T10:00:00Z", bench, 90),
	}
	warmup := row("bench-press", "Barbell Bench Press", "2026-02-19T10:00:00Z", bench, 60)
	warmup.Type = progression.SetWarmup
	rows = append(rows, warmup)

	got := fatigue.AggregateMuscleProgress(rows, progression.SetTargets{MinSets: 10, MaxSets: 20}, weight.Pounds, now)

	want := []fatigue.MuscleProgressPoint{
		{
			Muscle:                   "CHEST",
			FatigueStatus:            progression.FatigueLow,
			CurrentWeekEffectiveSets: 2,
			CurrentWeekTotalVolume:   1800,
			TargetMinSets:            10,
			TargetMaxSets:            20,
			FatigueRatio:             0.13,
			Weekly: []fatigue.MuscleWeeklyPoint{
				{WeekStart: "2026-02-09", EffectiveSets: 1, TotalVolume: 900},
				{WeekStart: "2026-02-16", EffectiveSets: 2, TotalVolume: 1800},
			},
			TopExercises: []fatigue.ExerciseContribution{
				{ExerciseID: "bench-press", ExerciseName: "Barbell Bench Press", EffectiveSets: 2},
				{ExerciseID: "push-up", ExerciseName: "Push Up", EffectiveSets: 1},
			},
		},
		{
			Muscle:                   "TRICEPS",
			FatigueStatus:            progression.FatigueLow,
			CurrentWeekEffectiveSets: 0.5,
			CurrentWeekTotalVolume:   500,
			TargetMinSets:            10,
			TargetMaxSets:            20,
			FatigueRatio:             0.03,
			Weekly: []fatigue.MuscleWeeklyPoint{
				{WeekStart: "2026-02-09", EffectiveSets: 0.5, TotalVolume: 450},
				{WeekStart: "2026-02-16", EffectiveSets: 0.5, TotalVolume: 500},
			},
			TopExercises: []fatigue.ExerciseContribution{
				{ExerciseID: "bench-press", ExerciseName: "Barbell Bench Press", EffectiveSets: 1},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AggregateMuscleProgress() mismatch (-want +got):\n%s", diff)
	}

	chest, ok := fatigue.Lookup(got, "CHEST")
	if !ok {
		t.Fatal("CHEST not found")
	}
	ctx := chest.Context()
	if ctx.Status != progression.FatigueLow || *ctx.CurrentWeekSets != 2 || *ctx.TargetMaxSets != 20 {
		t.Errorf("unexpected fatigue context %+v", ctx)
	}
	if _, ok = fatigue.Lookup(got, "GLUTES"); ok {
		t.Error("GLUTES should not be found")
	}
}

func TestAggregateMuscleProgress_edgeCases(t *testing.T) {
	now := at("2026-02-19T12:00:00Z")
	targets := progression.SetTargets{MinSets: 6, MaxSets: 10}

	t.Run("warm-ups only", func(t *testing.T) {
		rows := []fatigue.Row{{
			StartedAt:  now,
			Type:       progression.SetWarmup,
			Reps:       ptr.Ref(8),
			Attributes: []exercise.Attribute{{Name: exercise.PrimaryMuscle, Value: "CHEST"}},
		}}
		if got := fatigue.AggregateMuscleProgress(rows, targets, weight.Pounds, now); len(got) != 0 {
			t.Errorf("expected no points, got %d", len(got))
		}
	})

	t.Run("promoted secondary and ordering", func(t *testing.T) {
		rows := []fatigue.Row{
			{
				StartedAt: now,
				Reps:      ptr.Ref(10),
				Attributes: []exercise.Attribute{
					{Name: exercise.SecondaryMuscle, Value: "GLUTES"},
					{Name: exercise.SecondaryMuscle, Value: "HAMSTRINGS"},
					{Name: exercise.SecondaryMuscle, Value: "GLUTES"},
				},
			},
			{StartedAt: now, Reps: ptr.Ref(10), Attributes: []exercise.Attribute{{Name: exercise.PrimaryMuscle, Value: "CALVES"}}},
			{StartedAt: now, DurationSec: ptr.Ref(60), Attributes: []exercise.Attribute{{Name: exercise.PrimaryMuscle, Value: "CALVES"}}},
			{StartedAt: now, Reps: ptr.Ref(10)},
		}
		got := fatigue.AggregateMuscleProgress(rows, targets, weight.Pounds, now)
		var muscles []string
		var sets []float64
		for _, p := range got {
			muscles = append(muscles, p.Muscle)
			sets = append(sets, p.CurrentWeekEffectiveSets)
		}
		if diff := cmp.Diff([]string{"CALVES", "GLUTES", "HAMSTRINGS"}, muscles); diff != "" {
			t.Errorf("muscle order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]float64{2, 1, 0.5}, sets); diff != "" {
			t.Errorf("effective sets mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("old weeks only", func(t *testing.T) {
		rows := []fatigue.Row{{
			StartedAt:  at("2026-01-05T10:00:00Z"),
			Reps:       ptr.Ref(10),
			Attributes: []exercise.Attribute{{Name: exercise.PrimaryMuscle, Value: "BACK"}},
		}}
		got := fatigue.AggregateMuscleProgress(rows, targets, weight.Pounds, now)
		if len(got) != 1 || got[0].CurrentWeekEffectiveSets != 0 || got[0].FatigueRatio != 0 {
			t.Errorf("unexpected points %+v", got)
		}
	})
}
