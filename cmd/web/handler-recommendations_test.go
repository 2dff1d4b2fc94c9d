package main

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/overload/internal/e2etest"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/ptr"
	"github.com/myrjola/overload/internal/testhelpers"
	"github.com/myrjola/overload/internal/weight"
	"github.com/myrjola/overload/internal/workout"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "OVERLOAD_SQLITE_URL":
		return ":memory:", true
	case "OVERLOAD_ADDR":
		return "localhost:0", true
	default:
		return "", false
	}
}

func startTestServer(t *testing.T) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	return server
}

// pressWorkout is a finished session of two shoulder press sets at 60 kg, daysAgo days before now.
func pressWorkout(daysAgo int, reps int) workout.WorkoutLog {
	started := time.Now().UTC().AddDate(0, 0, -daysAgo)
	return workout.WorkoutLog{
		UserID:    "",
		StartedAt: started,
		EndedAt:   ptr.Ref(started.Add(time.Hour)),
		Sets: []workout.LoggedSet{
			{ExerciseID: "barbell-shoulder-press", SetIndex: 0, Reps: ptr.Ref(reps), Weight: ptr.Ref(60.0),
				WeightUnit: weight.Kilograms},
			{ExerciseID: "barbell-shoulder-press", SetIndex: 1, Reps: ptr.Ref(reps), Weight: ptr.Ref(60.0),
				WeightUnit: weight.Kilograms},
		},
	}
}

func recordWorkout(t *testing.T, client *e2etest.Client, userID string, log workout.WorkoutLog) string {
	t.Helper()
	var created workoutCreatedResponse
	status, err := client.PostJSON(t.Context(), "/api/users/"+userID+"/workouts", log, &created)
	if err != nil {
		t.Fatalf("Failed to record workout: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, status)
	}
	return created.SessionID
}

func Test_application_recommendations(t *testing.T) {
	var (
		ctx    = t.Context()
		server = startTestServer(t)
		client = server.Client()
	)

	t.Run("Baseline without history", func(t *testing.T) {
		var batch workout.RecommendationBatch
		status, err := client.GetJSON(ctx,
			"/api/users/alice/recommendations?exercise=barbell-shoulder-press&exercise=does-not-exist", &batch)
		if err != nil {
			t.Fatalf("Failed to get recommendations: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if diff := cmp.Diff([]string{"does-not-exist"}, batch.MissingExerciseIDs); diff != "" {
			t.Errorf("MissingExerciseIDs mismatch (-want +got):\n%s", diff)
		}
		if batch.Meta.Goal != progression.Hypertrophy || batch.Meta.PreferredUnit != weight.Pounds {
			t.Errorf("Meta = %+v, want the configured defaults", batch.Meta)
		}
		rec := batch.Recommendations[0]
		if rec.Decision != progression.DecisionBaseline {
			t.Errorf("Decision = %s, want baseline", rec.Decision)
		}
		if rec.WorkingWeight == nil || *rec.WorkingWeight != 45 {
			t.Errorf("WorkingWeight = %v, want 45", rec.WorkingWeight)
		}
		if len(rec.Sets) != 5 {
			t.Errorf("Expected 2 warm-ups and 3 working sets, got %d sets", len(rec.Sets))
		}
	})

	t.Run("Progression after recorded workouts", func(t *testing.T) {
		recordWorkout(t, client, "bob", pressWorkout(20, 12))
		recordWorkout(t, client, "bob", pressWorkout(10, 12))

		var batch workout.RecommendationBatch
		status, err := client.GetJSON(ctx,
			"/api/users/bob/recommendations?exercise=barbell-shoulder-press&warmups=false", &batch)
		if err != nil {
			t.Fatalf("Failed to get recommendations: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		rec := batch.Recommendations[0]
		if rec.Decision != progression.DecisionProgression {
			t.Errorf("Decision = %s, want progression", rec.Decision)
		}
		if rec.WorkingWeight == nil || *rec.WorkingWeight != 135 {
			t.Errorf("WorkingWeight = %v, want 135", rec.WorkingWeight)
		}
		if rec.Reason != "2 successful sessions. Increased load by 3%." {
			t.Errorf("Reason = %q", rec.Reason)
		}
		if len(rec.Sets) != 3 {
			t.Errorf("Expected 3 working sets, got %d sets", len(rec.Sets))
		}
	})

	t.Run("Kilograms and strength goal", func(t *testing.T) {
		var batch workout.RecommendationBatch
		status, err := client.GetJSON(ctx,
			"/api/users/carol/recommendations?exercise=barbell-shoulder-press&goal=STRENGTH&unit=kg", &batch)
		if err != nil {
			t.Fatalf("Failed to get recommendations: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if batch.Meta.Goal != progression.Strength || batch.Meta.PreferredUnit != weight.Kilograms {
			t.Errorf("Meta = %+v, want STRENGTH in kg", batch.Meta)
		}
		if got := batch.Recommendations[0].Unit; got != weight.Kilograms {
			t.Errorf("Unit = %s, want kg", got)
		}
	})

	t.Run("HTML report", func(t *testing.T) {
		doc, err := client.GetDoc(ctx,
			"/api/users/bob/recommendations?exercise=barbell-shoulder-press&exercise=nope&warmups=false&format=html")
		if err != nil {
			t.Fatalf("Failed to get report: %v", err)
		}
		card := doc.Find("article.prescription")
		if card.Length() != 1 {
			t.Fatalf("Expected 1 card, got %d", card.Length())
		}
		if got := card.Find("h2").Text(); got != "Barbell Shoulder Press" {
			t.Errorf("Expected exercise name heading, got %q", got)
		}
		if got := card.Find("strong").Text(); got != "Add load:" {
			t.Errorf("Expected decision title, got %q", got)
		}
		if got := card.Find("tbody tr").Length(); got != 3 {
			t.Errorf("Expected 3 set rows, got %d", got)
		}
		if got := doc.Find(".missing li").Text(); got != "nope" {
			t.Errorf("Expected missing exercise to be listed, got %q", got)
		}
	})
}

func Test_application_recommendations_errors(t *testing.T) {
	var (
		ctx    = t.Context()
		server = startTestServer(t)
		client = server.Client()
	)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no exercises",
			query:       "",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid exerciseIds: must contain at least one exercise",
		},
		{
			name:        "unknown goal",
			query:       "exercise=barbell-shoulder-press&goal=POWER",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid goal: must be one of STRENGTH, HYPERTROPHY or ENDURANCE",
		},
		{
			name:        "unknown unit",
			query:       "exercise=barbell-shoulder-press&unit=stone",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid unit: must be kg or lbs",
		},
		{
			name:        "workouts out of range",
			query:       "exercise=barbell-shoulder-press&workouts=6",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid analysisWorkoutCount: must be between 1 and 5",
		},
		{
			name:        "threshold not a number",
			query:       "exercise=barbell-shoulder-press&threshold=two",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid threshold: must be a whole number",
		},
		{
			name:        "warmups not a boolean",
			query:       "exercise=barbell-shoulder-press&warmups=maybe",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid warmups: must be true or false",
		},
		{
			name:        "only unknown exercises",
			query:       "exercise=nope",
			wantStatus:  http.StatusNotFound,
			wantMessage: "Not found: none of the requested exercises exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			status, err := client.GetJSON(ctx, "/api/users/alice/recommendations?"+tt.query, &body)
			if err != nil {
				t.Fatalf("Failed to get recommendations: %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if body.ServerError != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body.ServerError)
			}
		})
	}
}

func Test_run_invalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "goal", key: "OVERLOAD_DEFAULT_GOAL", value: "POWER", wantErr: "parse default goal"},
		{name: "unit", key: "OVERLOAD_DEFAULT_UNIT", value: "stone", wantErr: "parse default unit"},
		{name: "policy file", key: "OVERLOAD_POLICY_FILE", value: "does-not-exist.yaml", wantErr: "load policy file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookupEnv := func(key string) (string, bool) {
				if key == tt.key {
					return tt.value, true
				}
				return testLookupEnv(key)
			}
			err := run(t.Context(), testhelpers.NewLogger(testhelpers.NewWriter(t)), lookupEnv)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("run() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
