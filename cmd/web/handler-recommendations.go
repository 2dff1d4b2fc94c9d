package main

import (
	"bytes"
	"cmp"
	"net/http"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/report"
	"github.com/myrjola/overload/internal/weight"
	"github.com/myrjola/overload/internal/workout"
)

// recommendationRequest reads the query of a recommendations call. Goal and unit fall back to the configured
// defaults.
func (app *application) recommendationRequest(r *http.Request) (workout.RecommendationRequest, error) {
	q := r.URL.Query()
	warmups, err := queryBool(q, "warmups")
	if err != nil {
		return workout.RecommendationRequest{}, err
	}
	workouts, err := queryInt(q, "workouts")
	if err != nil {
		return workout.RecommendationRequest{}, err
	}
	threshold, err := queryInt(q, "threshold")
	if err != nil {
		return workout.RecommendationRequest{}, err
	}
	return workout.RecommendationRequest{
		UserID:      r.PathValue("userID"),
		ExerciseIDs: q["exercise"],
		Options: progression.Options{
			Goal:                   cmp.Or(progression.Goal(q.Get("goal")), app.defaultGoal),
			Unit:                   cmp.Or(weight.Unit(q.Get("unit")), app.defaultUnit),
			IncludeWarmups:         warmups,
			AnalysisWorkoutCount:   workouts,
			SuccessStreakThreshold: threshold,
			FallbackPrimaryMuscle:  q.Get("fallbackMuscle"),
		},
	}, nil
}

func (app *application) recommendationsGET(w http.ResponseWriter, r *http.Request) {
	req, err := app.recommendationRequest(r)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	batch, err := app.workoutService.Recommend(r.Context(), req)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	for _, rec := range batch.Recommendations {
		app.metrics.CounterRecommendations.WithLabelValues(string(rec.Goal), string(rec.Decision)).Inc()
	}
	app.metrics.CounterMissingExercises.Add(float64(len(batch.MissingExerciseIDs)))

	if r.URL.Query().Get("format") != "html" {
		app.writeJSON(w, r, http.StatusOK, batch)
		return
	}
	if err = app.renderReport(w, r, batch); err != nil {
		app.serverError(w, r, err)
	}
}

// renderReport writes the batch as an HTML page of prescription cards.
func (app *application) renderReport(w http.ResponseWriter, r *http.Request, batch workout.RecommendationBatch) error {
	exercises, err := app.workoutService.Exercises(r.Context())
	if err != nil {
		return errors.Wrap(err, "list exercises")
	}
	names := make(map[string]string, len(exercises))
	for _, ex := range exercises {
		names[ex.ID] = ex.Name
	}
	cards := make([]report.Card, 0, len(batch.Recommendations))
	for _, rec := range batch.Recommendations {
		cards = append(cards, report.Card{ExerciseName: names[rec.ExerciseID], Recommendation: rec})
	}

	var buf bytes.Buffer
	if err = app.renderer.Page(&buf, "Next session", cards, batch.MissingExerciseIDs); err != nil {
		return errors.Wrap(err, "render report")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
	return nil
}
