package main

import (
	"cmp"
	"net/http"

	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/weight"
)

func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	exercises, err := app.workoutService.Exercises(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}

func (app *application) muscleProgressGET(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weeks, err := queryInt(q, "weeks")
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	goal := cmp.Or(progression.Goal(q.Get("goal")), app.defaultGoal)
	unit := cmp.Or(weight.Unit(q.Get("unit")), app.defaultUnit)
	points, err := app.workoutService.MuscleProgress(r.Context(), r.PathValue("userID"), goal, weeks, unit)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, points)
}

// weeklyVolumeGET reports kilograms unless the unit query parameter asks otherwise.
func (app *application) weeklyVolumeGET(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weeks, err := queryInt(q, "weeks")
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	points, err := app.workoutService.WeeklyVolume(r.Context(), r.PathValue("userID"), weeks, weight.Unit(q.Get("unit")))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, points)
}

func (app *application) lastPerformanceGET(w http.ResponseWriter, r *http.Request) {
	perf, err := app.workoutService.LastPerformance(r.Context(), r.PathValue("userID"), r.PathValue("exerciseID"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, perf)
}
