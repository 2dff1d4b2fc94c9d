package workout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/fatigue"
	"github.com/myrjola/overload/internal/progression"
)

// sqliteSetRepository reads completed sets.
type sqliteSetRepository struct {
	baseRepository
}

// History returns the completed sets of ended sessions of userID for the exercises, keyed by exercise id. Each
// slice is ordered by session start descending and set index ascending.
func (r *sqliteSetRepository) History(
	ctx context.Context,
	userID string,
	exerciseIDs []string,
) (_ map[string][]progression.HistoricalSet, err error) {
	history := make(map[string][]progression.HistoricalSet)
	if len(exerciseIDs) == 0 {
		return history, nil
	}
	in, args := inClause(exerciseIDs)
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT s.exercise_id, s.session_id, ws.started_at, s.set_index, s.type,
		       s.reps, s.weight, s.weight_unit, s.duration_sec, s.pain_level
		FROM workout_sets s
		JOIN workout_sessions ws ON ws.id = s.session_id
		WHERE ws.user_id = ?
		  AND ws.ended_at IS NOT NULL
		  AND s.completed = 1
		  AND s.exercise_id IN `+in+`
		ORDER BY ws.started_at DESC, s.set_index`, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query historical sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	for rows.Next() {
		var (
			exerciseID, startedAt, setType, painLevel string
			set                                       progression.HistoricalSet
			reps, durationSec                         sql.NullInt64
			weightValue                               sql.NullFloat64
			weightUnit                                sql.NullString
		)
		if err = rows.Scan(&exerciseID, &set.WorkoutSessionID, &startedAt, &set.SetIndex, &setType,
			&reps, &weightValue, &weightUnit, &durationSec, &painLevel); err != nil {
			return nil, fmt.Errorf("scan historical set: %w", err)
		}
		if set.StartedAt, err = parseTimestamp(startedAt); err != nil {
			return nil, fmt.Errorf("session %s: %w", set.WorkoutSessionID, err)
		}
		set.Type = progression.SetType(setType)
		set.Reps = nullInt(reps)
		set.Weight = nullFloat(weightValue)
		set.WeightUnit = nullUnit(weightUnit)
		set.DurationSec = nullInt(durationSec)
		set.PainLevel = progression.PainLevel(painLevel)
		history[exerciseID] = append(history[exerciseID], set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return history, nil
}

// Since returns the completed sets of sessions of userID started at or after since, oldest first. Attributes are
// left empty.
func (r *sqliteSetRepository) Since(ctx context.Context, userID string, since time.Time) (_ []fatigue.Row, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT s.exercise_id, e.name, ws.started_at, s.type, s.reps, s.weight, s.weight_unit, s.duration_sec
		FROM workout_sets s
		JOIN workout_sessions ws ON ws.id = s.session_id
		JOIN exercises e ON e.id = s.exercise_id
		WHERE ws.user_id = ?
		  AND s.completed = 1
		  AND ws.started_at >= ?
		ORDER BY ws.started_at, s.id`, userID, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("query completed sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var result []fatigue.Row
	for rows.Next() {
		var (
			row                fatigue.Row
			startedAt, setType string
			reps, durationSec  sql.NullInt64
			weightValue        sql.NullFloat64
			weightUnit         sql.NullString
		)
		if err = rows.Scan(&row.ExerciseID, &row.ExerciseName, &startedAt, &setType,
			&reps, &weightValue, &weightUnit, &durationSec); err != nil {
			return nil, fmt.Errorf("scan completed set: %w", err)
		}
		if row.StartedAt, err = parseTimestamp(startedAt); err != nil {
			return nil, err
		}
		row.Type = progression.SetType(setType)
		row.Reps = nullInt(reps)
		row.Weight = nullFloat(weightValue)
		row.WeightUnit = nullUnit(weightUnit)
		row.DurationSec = nullInt(durationSec)
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// Last returns the highest-index completed set carrying any data in the user's latest session of the exercise.
// Older sessions are not consulted when the latest one has no such set.
func (r *sqliteSetRepository) Last(ctx context.Context, userID, exerciseID string) (LastPerformance, error) {
	var (
		perf               LastPerformance
		startedAt, setType string
		reps, durationSec  sql.NullInt64
		weightValue        sql.NullFloat64
		weightUnit         sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		WITH latest AS (SELECT ws.id, ws.started_at
		                FROM workout_sessions ws
		                JOIN workout_sets s ON s.session_id = ws.id
		                WHERE ws.user_id = ? AND s.exercise_id = ?
		                ORDER BY ws.started_at DESC
		                LIMIT 1)
		SELECT latest.id, s.exercise_id, latest.started_at, s.id, s.set_index, s.type,
		       s.reps, s.weight, s.weight_unit, s.duration_sec
		FROM latest
		JOIN workout_sets s ON s.session_id = latest.id
		WHERE s.exercise_id = ?
		  AND s.completed = 1
		  AND (s.reps IS NOT NULL OR s.weight IS NOT NULL OR s.duration_sec IS NOT NULL)
		ORDER BY s.set_index DESC
		LIMIT 1`, userID, exerciseID, exerciseID).Scan(
		&perf.SessionID, &perf.ExerciseID, &startedAt, &perf.SetID, &perf.SetIndex, &setType,
		&reps, &weightValue, &weightUnit, &durationSec)
	if errors.Is(err, sql.ErrNoRows) {
		return LastPerformance{}, &notFoundError{what: "no completed set of exercise " + exerciseID}
	}
	if err != nil {
		return LastPerformance{}, fmt.Errorf("query last performance: %w", err)
	}
	if perf.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return LastPerformance{}, err
	}
	perf.Type = progression.SetType(setType)
	perf.Reps = nullInt(reps)
	perf.Weight = nullFloat(weightValue)
	if unit := nullUnit(weightUnit); unit != "" {
		perf.WeightUnit = &unit
	}
	perf.DurationSec = nullInt(durationSec)
	return perf, nil
}
