package workout

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/overload/internal/ptr"
	"github.com/myrjola/overload/internal/sqlite"
	"github.com/myrjola/overload/internal/weight"
)

// repository groups the SQLite repositories used by [Service].
type repository struct {
	exercises *sqliteExerciseRepository
	sets      *sqliteSetRepository
	sessions  *sqliteSessionRepository
}

func newRepository(db *sqlite.Database, logger *slog.Logger) *repository {
	base := baseRepository{db: db, logger: logger}
	return &repository{
		exercises: &sqliteExerciseRepository{baseRepository: base},
		sets:      &sqliteSetRepository{baseRepository: base},
		sessions:  &sqliteSessionRepository{baseRepository: base},
	}
}

type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// inClause returns "(?, ?, ...)" for n values and the values as query arguments.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ") + ")", args
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(sqlite.TimestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(sqlite.TimestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return t, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return ptr.Ref(int(v.Int64))
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return ptr.Ref(v.Float64)
}

// nullUnit treats unknown units like missing ones.
func nullUnit(v sql.NullString) weight.Unit {
	if !v.Valid {
		return ""
	}
	unit, err := weight.ParseUnit(v.String)
	if err != nil {
		return ""
	}
	return unit
}
