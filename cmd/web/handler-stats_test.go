package main

import (
	"net/http"
	"testing"

	"github.com/myrjola/overload/internal/fatigue"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/workout"
)

func Test_application_exercises(t *testing.T) {
	client := startTestServer(t).Client()

	var exercises []workout.Exercise
	status, err := client.GetJSON(t.Context(), "/api/exercises", &exercises)
	if err != nil {
		t.Fatalf("Failed to get exercises: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if len(exercises) != 10 {
		t.Errorf("Expected 10 exercises, got %d", len(exercises))
	}
	for _, ex := range exercises {
		if len(ex.Attributes) == 0 {
			t.Errorf("Expected attributes for %s", ex.ID)
		}
	}
}

func Test_application_stats(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startTestServer(t).Client()
	)
	sessionID := recordWorkout(t, client, "alice", pressWorkout(0, 12))

	t.Run("Weekly volume", func(t *testing.T) {
		var points []fatigue.WeeklyVolumePoint
		status, err := client.GetJSON(ctx, "/api/users/alice/weekly-volume?weeks=1", &points)
		if err != nil {
			t.Fatalf("Failed to get weekly volume: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		var (
			volume float64
			sets   int
		)
		for _, p := range points {
			volume += p.TotalVolume
			sets += p.SetsCount
		}
		if volume != 1440 || sets != 2 {
			t.Errorf("Expected 1440 kg over 2 sets, got %v kg over %d sets", volume, sets)
		}
	})

	t.Run("Muscle progress", func(t *testing.T) {
		var points []fatigue.MuscleProgressPoint
		status, err := client.GetJSON(ctx, "/api/users/alice/muscle-progress?weeks=1&goal=STRENGTH", &points)
		if err != nil {
			t.Fatalf("Failed to get muscle progress: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if len(points) == 0 {
			t.Fatal("Expected muscle progress points")
		}
		if points[0].Muscle != "SHOULDERS" {
			t.Errorf("Expected SHOULDERS first, got %s", points[0].Muscle)
		}
		if points[0].TargetMinSets != 6 || points[0].TargetMaxSets != 10 {
			t.Errorf("Expected strength targets 6-10, got %d-%d", points[0].TargetMinSets, points[0].TargetMaxSets)
		}
		if points[0].FatigueStatus != progression.FatigueLow {
			t.Errorf("Expected LOW workload, got %s", points[0].FatigueStatus)
		}
	})

	t.Run("Last performance", func(t *testing.T) {
		var perf workout.LastPerformance
		status, err := client.GetJSON(ctx,
			"/api/users/alice/exercises/barbell-shoulder-press/last-performance", &perf)
		if err != nil {
			t.Fatalf("Failed to get last performance: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if perf.SessionID != sessionID {
			t.Errorf("Expected session %s, got %s", sessionID, perf.SessionID)
		}
		if perf.SetIndex != 1 || perf.Reps == nil || *perf.Reps != 12 {
			t.Errorf("Expected set 1 with 12 reps, got %+v", perf)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name       string
			path       string
			wantStatus int
		}{
			{name: "no performance", path: "/api/users/bob/exercises/barbell-shoulder-press/last-performance",
				wantStatus: http.StatusNotFound},
			{name: "weeks out of range", path: "/api/users/alice/weekly-volume?weeks=53",
				wantStatus: http.StatusBadRequest},
			{name: "weeks not a number", path: "/api/users/alice/weekly-volume?weeks=many",
				wantStatus: http.StatusBadRequest},
			{name: "unknown goal", path: "/api/users/alice/muscle-progress?goal=POWER",
				wantStatus: http.StatusBadRequest},
			{name: "unknown route", path: "/api/nope", wantStatus: http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var body errorResponse
				status, err := client.GetJSON(ctx, tt.path, &body)
				if err != nil {
					t.Fatalf("Failed to get %s: %v", tt.path, err)
				}
				if status != tt.wantStatus {
					t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
				}
				if body.ServerError == "" {
					t.Error("Expected an error message")
				}
			})
		}
	})
}
