// Package workout serves progression recommendations and workload statistics from the workout log.
package workout

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/exercise"
	"github.com/myrjola/overload/internal/fatigue"
	"github.com/myrjola/overload/internal/logging"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/sqlite"
	"github.com/myrjola/overload/internal/weight"
)

const (
	// fatigueWeeks is the window of muscle workload fed to the engine.
	fatigueWeeks       = 1
	defaultStatsWeeks  = 8
	maxStatsWeeks      = 52
	maxExercisesPerReq = 50
)

// Service handles the business logic around recommendations and the workout log.
type Service struct {
	repo   *repository
	engine *progression.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new workout service. now is the clock deciding the current week.
func NewService(db *sqlite.Database, engine *progression.Engine, logger *slog.Logger, now func() time.Time) *Service {
	return &Service{
		repo:   newRepository(db, logger),
		engine: engine,
		logger: logger,
		now:    now,
	}
}

// Exercises lists the exercise catalogue.
func (s *Service) Exercises(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.repo.exercises.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list exercises")
	}
	return exercises, nil
}

// Recommend prescribes the next session of every requested exercise.
//
// Exercises, their history and the user's muscle workload of the last week are loaded concurrently. Unknown
// exercise ids are reported in [RecommendationBatch.MissingExerciseIDs]; if none of the ids is known the result is
// [ErrNotFound].
func (s *Service) Recommend(ctx context.Context, req RecommendationRequest) (RecommendationBatch, error) {
	if err := validateRecommendationRequest(req); err != nil {
		return RecommendationBatch{}, err
	}
	ids := uniqueIDs(req.ExerciseIDs)
	opts := s.engine.Normalize(req.Options)
	now := s.now()
	ctx = logging.WithAttrs(ctx, slog.String("userID", req.UserID))

	var (
		exercises map[string]Exercise
		history   map[string][]progression.HistoricalSet
		progress  []fatigue.MuscleProgressPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if exercises, err = s.repo.exercises.Get(gctx, ids); err != nil {
			return errors.Wrap(err, "load exercises")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if history, err = s.repo.sets.History(gctx, req.UserID, ids); err != nil {
			return errors.Wrap(err, "load history")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if progress, err = s.muscleProgress(gctx, req.UserID, opts.Goal, fatigueWeeks, opts.Unit, now); err != nil {
			return errors.Wrap(err, "load muscle progress")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return RecommendationBatch{}, errors.Wrap(err, "recommend", slog.Int("exercises", len(ids)))
	}

	batch := RecommendationBatch{
		Recommendations:    make([]progression.Recommendation, 0, len(ids)),
		MissingExerciseIDs: []string{},
		Meta: BatchMeta{
			Goal:                 opts.Goal,
			PreferredUnit:        opts.Unit,
			AnalysisWorkoutCount: opts.AnalysisWorkoutCount,
			GeneratedAt:          now.UTC(),
		},
	}
	for _, id := range ids {
		ex, ok := exercises[id]
		if !ok {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping unknown exercise", slog.String("exerciseID", id))
			batch.MissingExerciseIDs = append(batch.MissingExerciseIDs, id)
			continue
		}
		in := progression.Input{
			ExerciseID: id,
			Attributes: ex.Attributes,
			History:    history[id],
			Fatigue:    nil,
			Options:    opts,
		}
		muscle := exercise.Classify(ex.Attributes, opts.FallbackPrimaryMuscle).PrimaryMuscle
		if point, found := fatigue.Lookup(progress, muscle); found && muscle != "" {
			in.Fatigue = point.Context()
		}
		rec := s.engine.Recommend(in)
		s.logger.LogAttrs(ctx, slog.LevelDebug, "recommended",
			slog.String("exerciseID", id),
			slog.String("decision", string(rec.Decision)),
			slog.Int("successStreak", rec.SuccessStreak),
			slog.Int("failureStreak", rec.FailureStreak))
		batch.Recommendations = append(batch.Recommendations, rec)
	}
	if len(batch.Recommendations) == 0 {
		return RecommendationBatch{}, &notFoundError{what: "none of the requested exercises exist"}
	}
	return batch, nil
}

func validateRecommendationRequest(req RecommendationRequest) error {
	o := req.Options
	switch {
	case req.UserID == "":
		return invalid("userId", "is required")
	case len(req.ExerciseIDs) == 0:
		return invalid("exerciseIds", "must contain at least one exercise")
	case len(req.ExerciseIDs) > maxExercisesPerReq:
		return invalid("exerciseIds", "must contain at most %d exercises", maxExercisesPerReq)
	case slices.Contains(req.ExerciseIDs, ""):
		return invalid("exerciseIds", "must not contain empty ids")
	}
	if o.Goal != "" {
		if _, err := progression.ParseGoal(string(o.Goal)); err != nil {
			return invalid("goal", "must be one of STRENGTH, HYPERTROPHY or ENDURANCE")
		}
	}
	if o.Unit != "" {
		if _, err := weight.ParseUnit(string(o.Unit)); err != nil {
			return invalid("unit", "must be kg or lbs")
		}
	}
	if c := o.AnalysisWorkoutCount; c != 0 &&
		(c < progression.MinAnalysisWorkoutCount || c > progression.MaxAnalysisWorkoutCount) {
		return invalid("analysisWorkoutCount", "must be between %d and %d",
			progression.MinAnalysisWorkoutCount, progression.MaxAnalysisWorkoutCount)
	}
	if t := o.SuccessStreakThreshold; t != 0 &&
		(t < progression.MinSuccessStreakThreshold || t > progression.MaxSuccessStreakThreshold) {
		return invalid("successStreakThreshold", "must be between %d and %d",
			progression.MinSuccessStreakThreshold, progression.MaxSuccessStreakThreshold)
	}
	return nil
}

// uniqueIDs drops repeated ids keeping the first occurrence.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// MuscleProgress returns the weekly workload of every trained muscle over the last weeks, busiest muscle first.
// Zero weeks selects the default of eight and an empty goal or unit selects the engine defaults.
func (s *Service) MuscleProgress(
	ctx context.Context,
	userID string,
	goal progression.Goal,
	weeks int,
	unit weight.Unit,
) ([]fatigue.MuscleProgressPoint, error) {
	if err := validateStatsRequest(userID, weeks, unit); err != nil {
		return nil, err
	}
	if goal != "" {
		if _, err := progression.ParseGoal(string(goal)); err != nil {
			return nil, invalid("goal", "must be one of STRENGTH, HYPERTROPHY or ENDURANCE")
		}
	}
	opts := s.engine.Normalize(progression.Options{Goal: goal, Unit: unit}) //nolint:exhaustruct // defaults.
	points, err := s.muscleProgress(ctx, userID, opts.Goal, cmp.Or(weeks, defaultStatsWeeks), opts.Unit, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "muscle progress", slog.String("userID", userID))
	}
	return points, nil
}

func (s *Service) muscleProgress(
	ctx context.Context,
	userID string,
	goal progression.Goal,
	weeks int,
	unit weight.Unit,
	now time.Time,
) ([]fatigue.MuscleProgressPoint, error) {
	rows, err := s.repo.sets.Since(ctx, userID, fatigue.Since(now, weeks))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, r := range rows {
		ids[r.ExerciseID] = true
	}
	exercises, err := s.repo.exercises.Get(ctx, slices.Sorted(maps.Keys(ids)))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Attributes = exercises[rows[i].ExerciseID].Attributes
	}
	return fatigue.AggregateMuscleProgress(rows, s.engine.SetTargets(goal), unit, now), nil
}

// WeeklyVolume returns the total volume per week over the last weeks. Zero weeks selects the default of eight and
// an empty unit selects kilograms.
func (s *Service) WeeklyVolume(
	ctx context.Context,
	userID string,
	weeks int,
	unit weight.Unit,
) ([]fatigue.WeeklyVolumePoint, error) {
	if err := validateStatsRequest(userID, weeks, unit); err != nil {
		return nil, err
	}
	rows, err := s.repo.sets.Since(ctx, userID, fatigue.Since(s.now(), cmp.Or(weeks, defaultStatsWeeks)))
	if err != nil {
		return nil, errors.Wrap(err, "weekly volume", slog.String("userID", userID))
	}
	return fatigue.AggregateWeeklyVolume(rows, cmp.Or(unit, weight.Kilograms)), nil
}

func validateStatsRequest(userID string, weeks int, unit weight.Unit) error {
	if userID == "" {
		return invalid("userId", "is required")
	}
	if weeks < 0 || weeks > maxStatsWeeks {
		return invalid("weeks", "must be between 1 and %d", maxStatsWeeks)
	}
	if unit != "" {
		if _, err := weight.ParseUnit(string(unit)); err != nil {
			return invalid("unit", "must be kg or lbs")
		}
	}
	return nil
}

// LastPerformance returns the last completed set of the exercise in the user's latest session of it.
func (s *Service) LastPerformance(ctx context.Context, userID, exerciseID string) (LastPerformance, error) {
	if userID == "" {
		return LastPerformance{}, invalid("userId", "is required")
	}
	if exerciseID == "" {
		return LastPerformance{}, invalid("exerciseId", "is required")
	}
	perf, err := s.repo.sets.Last(ctx, userID, exerciseID)
	if err != nil {
		return LastPerformance{}, errors.Wrap(err, "last performance",
			slog.String("userID", userID), slog.String("exerciseID", exerciseID))
	}
	return perf, nil
}

// RecordWorkout stores a session and returns its id.
func (s *Service) RecordWorkout(ctx context.Context, log WorkoutLog) (string, error) {
	log, err := s.normalizeWorkoutLog(ctx, log)
	if err != nil {
		return "", err
	}
	id, err := s.repo.sessions.Create(ctx, log)
	if err != nil {
		return "", errors.Wrap(err, "record workout", slog.String("userID", log.UserID))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout recorded",
		slog.String("userID", log.UserID), slog.String("sessionID", id), slog.Int("sets", len(log.Sets)))
	return id, nil
}

// normalizeWorkoutLog validates log and fills in the defaults of its sets.
func (s *Service) normalizeWorkoutLog(ctx context.Context, log WorkoutLog) (WorkoutLog, error) {
	switch {
	case log.UserID == "":
		return log, invalid("userId", "is required")
	case log.StartedAt.IsZero():
		return log, invalid("startedAt", "is required")
	case log.EndedAt != nil && log.EndedAt.Before(log.StartedAt):
		return log, invalid("endedAt", "must not be before startedAt")
	case len(log.Sets) == 0:
		return log, invalid("sets", "must contain at least one set")
	}

	type setKey struct {
		exerciseID string
		index      int
	}
	seen := make(map[setKey]bool, len(log.Sets))
	var ids []string
	sets := make([]LoggedSet, len(log.Sets))
	for i, set := range log.Sets {
		if err := normalizeSet(&set); err != nil {
			return log, err
		}
		key := setKey{exerciseID: set.ExerciseID, index: set.SetIndex}
		if seen[key] {
			return log, invalid("sets", "repeat set %d of %s", set.SetIndex, set.ExerciseID)
		}
		seen[key] = true
		ids = append(ids, set.ExerciseID)
		sets[i] = set
	}

	ids = uniqueIDs(ids)
	exercises, err := s.repo.exercises.Get(ctx, ids)
	if err != nil {
		return log, errors.Wrap(err, "load exercises")
	}
	for _, id := range ids {
		if _, ok := exercises[id]; !ok {
			return log, invalid("sets", "reference unknown exercise %s", id)
		}
	}
	log.Sets = sets
	return log, nil
}

func normalizeSet(set *LoggedSet) error {
	if set.ExerciseID == "" {
		return invalid("sets", "must reference an exercise")
	}
	if set.SetIndex < 0 {
		return invalid("setIndex", "must not be negative")
	}
	if set.Type == "" {
		set.Type = progression.SetNormal
	}
	if _, ok := progression.ParseSetType(string(set.Type)); !ok {
		return invalid("type", "%q is not a set type", set.Type)
	}
	if set.PainLevel == "" {
		set.PainLevel = progression.PainNone
	}
	switch set.PainLevel {
	case progression.PainNone, progression.PainMild, progression.PainModerate, progression.PainSevere:
	default:
		return invalid("painLevel", "%q is not a pain level", set.PainLevel)
	}
	if set.WeightUnit != "" {
		if _, err := weight.ParseUnit(string(set.WeightUnit)); err != nil {
			return invalid("weightUnit", "must be kg or lbs")
		}
	}
	if (set.Reps != nil && *set.Reps < 0) || (set.Weight != nil && *set.Weight < 0) ||
		(set.DurationSec != nil && *set.DurationSec < 0) {
		return invalid("sets", "must not contain negative values")
	}
	if set.Completed == nil {
		completed := true
		set.Completed = &completed
	}
	return nil
}
