package workout

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/exercise"
)

// sqliteExerciseRepository reads the exercise catalogue.
type sqliteExerciseRepository struct {
	baseRepository
}

// Get returns the exercises with the given ids keyed by id. Unknown ids are absent from the result.
func (r *sqliteExerciseRepository) Get(ctx context.Context, ids []string) (map[string]Exercise, error) {
	if len(ids) == 0 {
		return map[string]Exercise{}, nil
	}
	in, args := inClause(ids)
	exercises, err := r.query(ctx, `
		SELECT e.id, e.name, a.name, a.value
		FROM exercises e
		LEFT JOIN exercise_attributes a ON a.exercise_id = e.id
		WHERE e.id IN `+in+`
		ORDER BY e.id, a.position`, args...)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}
	return byID, nil
}

// List returns the whole catalogue ordered by name.
func (r *sqliteExerciseRepository) List(ctx context.Context) ([]Exercise, error) {
	return r.query(ctx, `
		SELECT e.id, e.name, a.name, a.value
		FROM exercises e
		LEFT JOIN exercise_attributes a ON a.exercise_id = e.id
		ORDER BY e.name, e.id, a.position`)
}

// query expects rows of (id, name, attribute name, attribute value) grouped by exercise.
func (r *sqliteExerciseRepository) query(ctx context.Context, query string, args ...any) (_ []Exercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var (
			id, name            string
			attrName, attrValue sql.NullString
		)
		if err = rows.Scan(&id, &name, &attrName, &attrValue); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		if len(exercises) == 0 || exercises[len(exercises)-1].ID != id {
			exercises = append(exercises, Exercise{ID: id, Name: name, Attributes: nil})
		}
		if attrName.Valid {
			current := &exercises[len(exercises)-1]
			current.Attributes = append(current.Attributes, exercise.Attribute{
				Name:  exercise.AttributeName(attrName.String),
				Value: attrValue.String,
			})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return exercises, nil
}
