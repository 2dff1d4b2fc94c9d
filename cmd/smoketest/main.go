package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/myrjola/overload/internal/e2etest"
	"github.com/myrjola/overload/internal/logging"
	"github.com/myrjola/overload/internal/ptr"
	"github.com/myrjola/overload/internal/testhelpers"
	"github.com/myrjola/overload/internal/weight"
	"github.com/myrjola/overload/internal/workout"
)

// TestRecommendationFlow records a workout for a throwaway user and asks for the next session.
func TestRecommendationFlow(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	var exercises []workout.Exercise
	if _, err := expectStatus(http.StatusOK)(client.GetJSON(ctx, "/api/exercises", &exercises)); err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	if len(exercises) == 0 {
		return errors.New("exercise catalogue is empty")
	}
	exerciseID := exercises[0].ID

	userID := "smoketest-" + uuid.NewString()
	started := time.Now().UTC().Add(-time.Hour)
	log := workout.WorkoutLog{
		UserID:    userID,
		StartedAt: started,
		EndedAt:   ptr.Ref(started.Add(45 * time.Minute)), //nolint:mnd // a typical session.
		Sets: []workout.LoggedSet{
			{ExerciseID: exerciseID, SetIndex: 0, Reps: ptr.Ref(10), Weight: ptr.Ref(20.0),
				WeightUnit: weight.Kilograms},
		},
	}
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if _, err := expectStatus(http.StatusCreated)(
		client.PostJSON(ctx, "/api/users/"+userID+"/workouts", log, &created)); err != nil {
		return fmt.Errorf("record workout: %w", err)
	}

	var batch workout.RecommendationBatch
	if _, err := expectStatus(http.StatusOK)(
		client.GetJSON(ctx, "/api/users/"+userID+"/recommendations?exercise="+exerciseID, &batch)); err != nil {
		return fmt.Errorf("get recommendations: %w", err)
	}
	if len(batch.Recommendations) != 1 || len(batch.Recommendations[0].Sets) == 0 {
		return fmt.Errorf("unexpected recommendations: %+v", batch)
	}

	var perf workout.LastPerformance
	if _, err := expectStatus(http.StatusOK)(client.GetJSON(ctx,
		"/api/users/"+userID+"/exercises/"+exerciseID+"/last-performance", &perf)); err != nil {
		return fmt.Errorf("get last performance: %w", err)
	}
	if perf.SessionID != created.SessionID {
		return fmt.Errorf("last performance session %s, want %s", perf.SessionID, created.SessionID)
	}
	return nil
}

func expectStatus(want int) func(int, error) (int, error) {
	return func(got int, err error) (int, error) {
		if err != nil {
			return got, err
		}
		if got != want {
			return got, fmt.Errorf("unexpected status code: %d", got)
		}
		return got, nil
	}
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := TestRecommendationFlow(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing recommendation flow", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
