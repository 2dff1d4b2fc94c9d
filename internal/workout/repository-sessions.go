package workout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// sqliteSessionRepository writes workout sessions.
type sqliteSessionRepository struct {
	baseRepository
}

// Create stores the session and its sets in one transaction, registering the user on first use. The log must be
// validated beforehand. Returns the new session id.
func (r *sqliteSessionRepository) Create(ctx context.Context, log WorkoutLog) (string, error) {
	sessionID := uuid.NewString()
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id) VALUES (?)
			ON CONFLICT (id) DO NOTHING`, log.UserID); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		var endedAt *string
		if log.EndedAt != nil {
			formatted := formatTimestamp(*log.EndedAt)
			endedAt = &formatted
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workout_sessions (id, user_id, started_at, ended_at)
			VALUES (?, ?, ?, ?)`, sessionID, log.UserID, formatTimestamp(log.StartedAt), endedAt); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO workout_sets (session_id, exercise_id, set_index, type, reps, weight, weight_unit,
			                          duration_sec, pain_level, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare set insert: %w", err)
		}
		defer stmt.Close()

		for _, set := range log.Sets {
			var unit *string
			if set.WeightUnit != "" {
				u := string(set.WeightUnit)
				unit = &u
			}
			if _, err = stmt.ExecContext(ctx, sessionID, set.ExerciseID, set.SetIndex, string(set.Type),
				set.Reps, set.Weight, unit, set.DurationSec, string(set.PainLevel), *set.Completed); err != nil {
				return fmt.Errorf("insert set %s/%d: %w", set.ExerciseID, set.SetIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return sessionID, nil
}
