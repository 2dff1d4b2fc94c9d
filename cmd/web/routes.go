package main

import (
	"net/http"
)

func (app *application) routes() *http.ServeMux {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, app.requestMetrics(pattern, app.recoverPanic(
			app.logAndTraceRequest(secureHeaders(app.timeout(h))))))
	}

	handle("GET /api/healthy", app.healthy)
	handle("GET /api/test/timeout", app.testTimeout)
	handle("GET /api/exercises", app.exercisesGET)

	handle("GET /api/users/{userID}/recommendations", app.recommendationsGET)
	handle("GET /api/users/{userID}/muscle-progress", app.muscleProgressGET)
	handle("GET /api/users/{userID}/weekly-volume", app.weeklyVolumeGET)
	handle("GET /api/users/{userID}/exercises/{exerciseID}/last-performance", app.lastPerformanceGET)
	handle("POST /api/users/{userID}/workouts", app.workoutsPOST)

	handle("/", app.notFound)

	return mux
}
