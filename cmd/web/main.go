package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myrjola/overload/internal/envstruct"
	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/logging"
	"github.com/myrjola/overload/internal/metrics"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/report"
	"github.com/myrjola/overload/internal/sqlite"
	"github.com/myrjola/overload/internal/weight"
	"github.com/myrjola/overload/internal/workout"
)

type application struct {
	logger         *slog.Logger
	workoutService *workout.Service
	renderer       *report.Renderer
	metrics        *metrics.Manager
	defaultGoal    progression.Goal
	defaultUnit    weight.Unit
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"OVERLOAD_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"OVERLOAD_SQLITE_URL" envDefault:"./overload.sqlite3"`
	// PolicyFile is the optional YAML file overriding the built-in progression tables.
	PolicyFile string `env:"OVERLOAD_POLICY_FILE" envDefault:""`
	// DefaultGoal is used when a request does not name a training goal.
	DefaultGoal string `env:"OVERLOAD_DEFAULT_GOAL" envDefault:"HYPERTROPHY"`
	// DefaultUnit is used when a request does not name a weight unit.
	DefaultUnit string `env:"OVERLOAD_DEFAULT_UNIT" envDefault:"lbs"`
	// MetricsAddr is the optional address of the Prometheus metrics server.
	MetricsAddr string `env:"OVERLOAD_METRICS_ADDR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var (
		defaultGoal progression.Goal
		defaultUnit weight.Unit
	)
	if defaultGoal, err = progression.ParseGoal(cfg.DefaultGoal); err != nil {
		return errors.Wrap(err, "parse default goal")
	}
	if defaultUnit, err = weight.ParseUnit(cfg.DefaultUnit); err != nil {
		return errors.Wrap(err, "parse default unit")
	}

	tables := progression.DefaultTables()
	if cfg.PolicyFile != "" {
		if tables, err = progression.LoadTables(cfg.PolicyFile); err != nil {
			return errors.Wrap(err, "load policy file", slog.String("path", cfg.PolicyFile))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "loaded policy file", slog.String("path", cfg.PolicyFile))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	renderer, err := report.NewRenderer()
	if err != nil {
		return errors.Wrap(err, "new report renderer")
	}

	reg := metrics.NewRegistry()
	app := application{
		logger:         logger,
		workoutService: workout.NewService(db, progression.NewEngine(tables), logger, time.Now),
		renderer:       renderer,
		metrics:        metrics.NewManager("overload", "web", reg),
		defaultGoal:    defaultGoal,
		defaultUnit:    defaultUnit,
	}

	if cfg.MetricsAddr != "" {
		go app.startMetricsServer(ctx, cfg.MetricsAddr, reg)
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.New(os.Stdout, slog.LevelDebug)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
