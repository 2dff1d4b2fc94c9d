package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type objectKind string

const (
	kindTable   objectKind = "table"
	kindIndex   objectKind = "index"
	kindTrigger objectKind = "trigger"
)

// schemaObject is a named entry of sqlite_schema with its definition in the live and target schemas. An empty
// definition means the object is missing on that side.
type schemaObject struct {
	name      string
	liveSQL   string
	targetSQL string
}

// migrate makes the live schema match schema declaratively.
//
// The target schema is built in a scratch in-memory database attached as schemaTarget and diffed against the live
// one. Tables are created, dropped or rebuilt with the generalized procedure of
// https://www.sqlite.org/lang_altertable.html#otheralter, keeping the columns both definitions share. Indexes and
// triggers are recreated when their definition differs. Adapted from
// https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrate(ctx context.Context, schema string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schema)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// Foreign key enforcement can't be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		// Tables go first because rebuilding a table drops its indexes and triggers.
		for _, kind := range []objectKind{kindTable, kindIndex, kindTrigger} {
			objects, diffErr := diffSchema(ctx, tx, kind)
			if diffErr != nil {
				return fmt.Errorf("diff %ss: %w", kind, diffErr)
			}
			for _, obj := range objects {
				if syncErr := db.syncObject(ctx, tx, kind, obj); syncErr != nil {
					return fmt.Errorf("sync %s %s: %w", kind, obj.name, syncErr)
				}
			}
		}
		return checkForeignKeys(ctx, tx)
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTarget creates schema in a scratch database and attaches it to the read-write connection. The returned
// function detaches it.
func (db *Database) attachTarget(ctx context.Context, schema string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// The shared-cache database lives as long as one connection to it is open, so keep this one until attached.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				slog.Any("error", detachErr))
		}
	}, nil
}

// diffSchema lists the objects of kind that are missing on either side or whose definitions differ. Rename
// operations quote table names, so quotes are ignored when comparing.
func diffSchema(ctx context.Context, tx *sql.Tx, kind objectKind) (_ []schemaObject, err error) {
	rows, err := tx.QueryContext(ctx, `
		WITH live AS (SELECT name, sql
		              FROM main.sqlite_schema
		              WHERE type = :kind
		                AND name NOT LIKE 'sqlite_%'
		                AND name NOT LIKE '_litestream_%'),
		     target AS (SELECT name, sql
		                FROM schemaTarget.sqlite_schema
		                WHERE type = :kind
		                  AND name NOT LIKE 'sqlite_%')
		SELECT COALESCE(live.name, target.name), COALESCE(live.sql, ''), COALESCE(target.sql, '')
		FROM live
		         FULL OUTER JOIN target ON live.name = target.name
		WHERE live.name IS NULL
		   OR target.name IS NULL
		   OR REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')
		ORDER BY 1`, sql.Named("kind", string(kind)))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var objects []schemaObject
	for rows.Next() {
		var obj schemaObject
		if err = rows.Scan(&obj.name, &obj.liveSQL, &obj.targetSQL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		objects = append(objects, obj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return objects, nil
}

func (db *Database) syncObject(ctx context.Context, tx *sql.Tx, kind objectKind, obj schemaObject) error {
	var statements []string
	switch {
	case obj.targetSQL == "":
		statements = []string{dropStatement(kind, obj.name)}
	case obj.liveSQL == "":
		statements = []string{obj.targetSQL}
	case kind == kindTable:
		var err error
		if statements, err = rebuildStatements(ctx, tx, obj); err != nil {
			return err
		}
	default:
		statements = []string{dropStatement(kind, obj.name), obj.targetSQL}
	}

	for _, stmt := range statements {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating schema",
			slog.String("kind", string(kind)), slog.String("name", obj.name), slog.String("query", stmt))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// rebuildStatements creates the target table under a temporary name, copies the shared columns, drops the live
// table and renames the new one into place.
func rebuildStatements(ctx context.Context, tx *sql.Tx, obj schemaObject) ([]string, error) {
	columns, err := commonColumns(ctx, tx, obj.name)
	if err != nil {
		return nil, fmt.Errorf("common columns: %w", err)
	}
	temp := obj.name + "_migration_temp"
	statements := []string{strings.Replace(obj.targetSQL, obj.name, temp, 1)}
	if len(columns) > 0 {
		list := strings.Join(columns, ", ")
		statements = append(statements, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			quote(temp), list, list, quote(obj.name)))
	}
	return append(statements,
		dropStatement(kindTable, obj.name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quote(temp), quote(obj.name)),
	), nil
}

func commonColumns(ctx context.Context, tx *sql.Tx, table string) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT live.name
		FROM PRAGMA_TABLE_INFO(:table) AS live
		         JOIN PRAGMA_TABLE_INFO(:table, 'schemaTarget') AS target ON target.name = live.name
		ORDER BY live.cid`, sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var columns []string
	for rows.Next() {
		var column string
		if err = rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		columns = append(columns, quote(column))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return columns, nil
}

func checkForeignKeys(ctx context.Context, tx *sql.Tx) (err error) {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	if rows.Next() {
		var (
			table  string
			rowID  sql.NullInt64
			parent string
			fkID   int
		)
		if err = rows.Scan(&table, &rowID, &parent, &fkID); err != nil {
			return fmt.Errorf("scan foreign key violation: %w", err)
		}
		return fmt.Errorf("foreign key violation: %s row %d references missing %s", table, rowID.Int64, parent)
	}
	return rows.Err()
}

func dropStatement(kind objectKind, name string) string {
	return fmt.Sprintf("DROP %s %s", strings.ToUpper(string(kind)), quote(name))
}

// quote makes name a safe SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
