package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/workout"
)

// maxWorkoutBytes limits the body of a recorded workout.
const maxWorkoutBytes = 1 << 20

const invalidWorkoutBody = "Invalid body: must be a workout JSON object with known fields"

type workoutCreatedResponse struct {
	SessionID string `json:"sessionId"`
}

func (app *application) workoutsPOST(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWorkoutBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var wl workout.WorkoutLog
	if err := dec.Decode(&wl); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			app.clientError(w, r, http.StatusRequestEntityTooLarge, "Invalid body: workout is too large")
			return
		}
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "decode workout", slog.Any("error", err))
		app.clientError(w, r, http.StatusBadRequest, invalidWorkoutBody)
		return
	}
	wl.UserID = r.PathValue("userID")

	id, err := app.workoutService.RecordWorkout(r.Context(), wl)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.metrics.CounterWorkoutsRecorded.Inc()
	app.writeJSON(w, r, http.StatusCreated, workoutCreatedResponse{SessionID: id})
}
