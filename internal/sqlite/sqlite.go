// Package sqlite owns the SQLite connection pools and keeps the schema in sync with schema.sql.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

// TimestampFormat is the UTC layout of every timestamp column.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Database holds a single-connection pool for writes and a pool of query-only connections for reads.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to url, migrates the schema and upserts the exercise catalogue.
//
// The url is a path to the database file or ":memory:" for a private in-memory database. Splitting reads and
// writes into separate pools follows https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err = db.migrate(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}

	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, errors.Join(fmt.Errorf("apply fixtures: %w", err), db.Close())
	}

	go db.startDatabaseOptimizer(ctx)

	return db, nil
}

//nolint:gochecknoglobals // the driver can be registered only once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3optimized"

// pragmas run on every new connection.
var pragmas = strings.Join([]string{ //nolint:gochecknoglobals // constant list.
	// Temporary tables and indices live in memory.
	"PRAGMA temp_store = memory;",
	// Memory-mapped I/O avoids read syscalls.
	"PRAGMA mmap_size = 30000000000;",
	// Litestream owns checkpoints, see https://litestream.io/tips/#disable-autocheckpoints-for-high-write-load-servers.
	"PRAGMA wal_autocheckpoint = 0;",
}, "")

func registerOptimizedDriver() {
	sql.Register(optimizedDriver, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if _, err := conn.Exec(pragmas, nil); err != nil {
				return fmt.Errorf("exec connection pragmas: %w", err)
			}
			return nil
		},
	})
}

// dsnOptions are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open.
// Options without the leading underscore are SQLite URI parameters, see https://www.sqlite.org/uri.html.
//
//nolint:gochecknoglobals // constant list.
var dsnOptions = []string{
	"_loc=auto",
	"_defer_foreign_keys=1",
	"_journal_mode=wal",
	"_busy_timeout=5000",
	// https://www.sqlite.org/pragma.html#pragma_synchronous
	"_synchronous=normal",
	"_foreign_keys=on",
}

type pool struct {
	name     string
	dsn      string
	maxConns int
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need a shared cache so that both pools see the same data. A random name keeps parallel
	// tests isolated from each other. See https://www.sqlite.org/inmemorydb.html.
	common := strings.Join(dsnOptions, "&")
	if strings.Contains(url, ":memory:") {
		url = "file:" + rand.Text()
		common += "&mode=memory&cache=shared"
	}

	registerDriver.Do(registerOptimizedDriver)

	const maxReadConns = 10
	pools := []pool{
		{name: "read-write", dsn: fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s", url, common), maxConns: 1},
		{name: "read-only", dsn: fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s", url, common),
			maxConns: maxReadConns},
	}

	opened := make([]*sql.DB, 0, len(pools))
	for _, p := range pools {
		conn, err := sql.Open(optimizedDriver, p.dsn)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open %s database: %w", p.name, err), closeAll(opened))
		}
		conn.SetMaxOpenConns(p.maxConns)
		conn.SetMaxIdleConns(p.maxConns)
		conn.SetConnMaxLifetime(time.Hour)
		conn.SetConnMaxIdleTime(time.Hour)
		opened = append(opened, conn)

		// sql.DB is lazy so ping to surface configuration errors early.
		if err = conn.PingContext(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("ping %s database: %w", p.name, err), closeAll(opened))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "opened database",
			slog.String("pool", p.name), slog.String("sqlDsn", p.dsn))
	}

	return &Database{
		ReadWrite: opened[0],
		ReadOnly:  opened[1],
		logger:    logger,
	}, nil
}

func closeAll(dbs []*sql.DB) error {
	var errs []error
	for _, db := range dbs {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}

// Close closes both pools.
func (db *Database) Close() error {
	return closeAll([]*sql.DB{db.ReadOnly, db.ReadWrite})
}

// WithTx runs fn in a read-write transaction that is committed when fn returns nil.
func (db *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback is a no-op for committed transactions.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to roll back transaction",
			slog.Any("error", fmt.Errorf("rollback: %w", err)))
	}
}
